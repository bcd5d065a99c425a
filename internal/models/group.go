package models

import "github.com/shopspring/decimal"

// GroupCategory classifies a group.
type GroupCategory string

const (
	GroupCategoryTrip   GroupCategory = "Trip"
	GroupCategoryHome   GroupCategory = "Home"
	GroupCategoryOffice GroupCategory = "Office"
	GroupCategoryOther  GroupCategory = "Other"
)

// Group is a set of users sharing expenses.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Roommates", "Lisbon Trip").
	Name string

	// Description is optional free text.
	Description string

	// Category defaults to GroupCategoryOther.
	Category GroupCategory

	// CreatorID is the user who created the group. Only the creator may add or
	// remove members or delete the group.
	CreatorID string

	// Members holds the running balance of every current member.
	Members []Member

	// ExpenseIDs lists the active expenses of the group in creation order.
	ExpenseIDs []string

	// TotalExpenses is the running sum of all active expense amounts.
	TotalExpenses decimal.Decimal

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64

	// UpdatedAt is the Unix timestamp of the last committed mutation.
	UpdatedAt int64

	// Version increases with every committed mutation. Stores reject a write
	// whose Version does not match the stored one.
	Version int64
}

// Member is one user's running balance within a group.
type Member struct {
	UserID  string
	Balance decimal.Decimal
}

// MemberIndex returns the position of userID in Members, or -1.
func (g *Group) MemberIndex(userID string) int {
	for i, m := range g.Members {
		if m.UserID == userID {
			return i
		}
	}
	return -1
}

// IsMember reports whether userID is currently a member of the group.
func (g *Group) IsMember(userID string) bool {
	return g.MemberIndex(userID) != -1
}

// MemberIDs returns the user IDs of all current members.
func (g *Group) MemberIDs() []string {
	ids := make([]string, len(g.Members))
	for i, m := range g.Members {
		ids[i] = m.UserID
	}
	return ids
}

// Clone returns a deep copy, so a mutation can be prepared without touching
// the original until it is committed.
func (g *Group) Clone() *Group {
	c := *g
	c.Members = append([]Member(nil), g.Members...)
	c.ExpenseIDs = append([]string(nil), g.ExpenseIDs...)
	return &c
}

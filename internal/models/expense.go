package models

import "github.com/shopspring/decimal"

// ShareType selects how a split entry is priced.
type ShareType string

const (
	// ShareEqual prices an entry as amount * share / totalShares. Any unknown
	// share type is priced this way too.
	ShareEqual ShareType = "equal"
	// SharePercentage prices an entry as amount * share / 100.
	SharePercentage ShareType = "percentage"
	// ShareExact means the share already is the charged amount.
	ShareExact ShareType = "exact"
)

// ExpenseCategory classifies an expense.
type ExpenseCategory string

const (
	CategoryFood          ExpenseCategory = "Food"
	CategoryTransport     ExpenseCategory = "Transport"
	CategoryShopping      ExpenseCategory = "Shopping"
	CategoryEntertainment ExpenseCategory = "Entertainment"
	CategoryBills         ExpenseCategory = "Bills"
	CategoryOther         ExpenseCategory = "Other"
)

// ValidExpenseCategory reports whether c is one of the known categories.
func ValidExpenseCategory(c ExpenseCategory) bool {
	switch c {
	case CategoryFood, CategoryTransport, CategoryShopping, CategoryEntertainment, CategoryBills, CategoryOther:
		return true
	}
	return false
}

// Expense is an amount paid by one member on behalf of some members of a group.
// Expenses are immutable once created; they can only be deleted.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// GroupID is the group that owns this expense.
	GroupID string

	// Description is what the expense was for.
	Description string

	// Amount is the total paid. Always positive.
	Amount decimal.Decimal

	// PaidBy is the member who paid. Only the payer may delete the expense.
	PaidBy string

	// SplitBetween holds the resolved, already-rounded charge of each participant.
	// Reversal replays these values rather than recomputing them.
	SplitBetween []Split

	// Category defaults to CategoryOther.
	Category ExpenseCategory

	// Date is the Unix timestamp when the expense was incurred.
	Date int64

	// Notes is optional free text.
	Notes string

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64
}

// Split is one participant's portion of an expense.
type Split struct {
	// UserID is the participant.
	UserID string

	// Share is the charged amount once resolved; on input it is the raw share
	// whose meaning depends on ShareType.
	Share decimal.Decimal

	// ShareType is the pricing mode used for this entry.
	ShareType ShareType

	// IsPaid is true iff UserID is the expense payer. Derived, not authoritative.
	IsPaid bool
}

// Involves reports whether userID paid for or participates in the expense.
func (e *Expense) Involves(userID string) bool {
	if e.PaidBy == userID {
		return true
	}
	for _, s := range e.SplitBetween {
		if s.UserID == userID {
			return true
		}
	}
	return false
}

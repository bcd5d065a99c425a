package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
)

// GroupInput describes a new group. The creator is always a member and need
// not be listed in MemberIDs.
type GroupInput struct {
	Name        string
	Description string
	Category    models.GroupCategory
	MemberIDs   []string
}

// CreateGroup creates a group with every member at balance zero.
func (l *Ledger) CreateGroup(ctx context.Context, creatorID string, in GroupInput) (group *models.Group, err error) {
	defer func() { observe("create_group", err) }()

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("group name is required")
	}
	if creatorID == "" {
		return nil, invalid("creator is required")
	}
	category := in.Category
	switch category {
	case "":
		category = models.GroupCategoryOther
	case models.GroupCategoryTrip, models.GroupCategoryHome, models.GroupCategoryOffice, models.GroupCategoryOther:
	default:
		return nil, invalid("unknown group category %q", in.Category)
	}

	now := l.now().Unix()
	group = &models.Group{
		ID:            uuid.New().String(),
		Name:          name,
		Description:   in.Description,
		Category:      category,
		CreatorID:     creatorID,
		TotalExpenses: decimal.Zero,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	seen := make(map[string]bool)
	for _, id := range append([]string{creatorID}, in.MemberIDs...) {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		group.Members = append(group.Members, models.Member{UserID: id, Balance: decimal.Zero})
	}

	if err := l.store.CreateGroup(ctx, group); err != nil {
		return nil, classify(err)
	}

	slog.Info("Group created", "group_id", group.ID, "members", len(group.Members))

	activities := []models.Activity{{
		Type:        models.ActivityGroupCreate,
		ActorID:     creatorID,
		GroupID:     group.ID,
		Description: fmt.Sprintf("created group %q", group.Name),
	}}
	for _, m := range group.Members[1:] {
		activities = append(activities, models.Activity{
			Type:        models.ActivityMemberAdd,
			ActorID:     creatorID,
			GroupID:     group.ID,
			TargetID:    m.UserID,
			Description: fmt.Sprintf("added to group %q", group.Name),
		})
	}
	l.emit(ctx, activities...)

	return group, nil
}

// GetGroup returns a group the requester belongs to.
func (l *Ledger) GetGroup(ctx context.Context, groupID, requester string) (*models.Group, error) {
	group, err := l.loadGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.IsMember(requester) {
		return nil, unauthorized("user %s is not a member of group %s", requester, groupID)
	}
	return group, nil
}

// ListGroups returns the groups userID belongs to, newest first.
func (l *Ledger) ListGroups(ctx context.Context, userID string) ([]*models.Group, error) {
	groups, err := l.store.ListGroupsByMember(ctx, userID)
	if err != nil {
		return nil, classify(err)
	}
	return groups, nil
}

// AddMember adds userID to the group at balance zero. Only the creator may
// add members.
func (l *Ledger) AddMember(ctx context.Context, groupID, userID, requester string) (group *models.Group, err error) {
	defer func() { observe("add_member", err) }()

	if userID == "" {
		return nil, invalid("user id is required")
	}

	unlock := l.locks.lock(groupID)
	defer unlock()

	current, err := l.loadGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if current.CreatorID != requester {
		return nil, unauthorized("only the group creator can add members")
	}
	if current.IsMember(userID) {
		return nil, conflict("user %s is already a member of group %s", userID, groupID)
	}

	group = current.Clone()
	group.Members = append(group.Members, models.Member{UserID: userID, Balance: decimal.Zero})
	if err := l.commit(ctx, mutation(group)); err != nil {
		return nil, err
	}

	slog.Info("Member added", "group_id", groupID, "user_id", userID)
	l.emit(ctx, models.Activity{
		Type:        models.ActivityMemberAdd,
		ActorID:     requester,
		GroupID:     groupID,
		TargetID:    userID,
		Description: fmt.Sprintf("added to group %q", group.Name),
	})
	return group, nil
}

// AddMemberByEmail resolves a registered user by email and adds them.
func (l *Ledger) AddMemberByEmail(ctx context.Context, groupID, email, requester string) (*models.Group, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, invalid("email is required")
	}
	user, err := l.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, classify(err)
	}
	return l.AddMember(ctx, groupID, user.ID, requester)
}

// RemoveMember removes target from the group. Only the creator may remove
// members, and only members with a zero balance and no expenses or payments
// in the group can be removed.
func (l *Ledger) RemoveMember(ctx context.Context, groupID, target, requester string) (group *models.Group, err error) {
	defer func() { observe("remove_member", err) }()

	unlock := l.locks.lock(groupID)
	defer unlock()

	current, err := l.loadGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if current.CreatorID != requester {
		return nil, unauthorized("only the group creator can remove members")
	}
	idx := current.MemberIndex(target)
	if idx == -1 {
		return nil, conflict("user %s is not a member of group %s", target, groupID)
	}

	expenses, payments, err := l.store.MemberReferences(ctx, groupID, target)
	if err != nil {
		return nil, classify(err)
	}
	if expenses > 0 {
		return nil, conflict("cannot remove member with related expenses (%d)", expenses)
	}
	if payments > 0 {
		return nil, conflict("cannot remove member with related payments (%d)", payments)
	}
	if balance := current.Members[idx].Balance; !balance.IsZero() {
		return nil, conflict("cannot remove member with outstanding balance %s", balance.StringFixed(2))
	}

	group = current.Clone()
	group.Members = append(group.Members[:idx], group.Members[idx+1:]...)
	if err := l.commit(ctx, mutation(group)); err != nil {
		return nil, err
	}

	slog.Info("Member removed", "group_id", groupID, "user_id", target)
	l.emit(ctx, models.Activity{
		Type:        models.ActivityMemberRemove,
		ActorID:     requester,
		GroupID:     groupID,
		TargetID:    target,
		Description: fmt.Sprintf("removed from group %q", group.Name),
	})
	return group, nil
}

// DeleteGroup deletes a group with all of its expenses and payments. Only the
// creator may delete it.
func (l *Ledger) DeleteGroup(ctx context.Context, groupID, requester string) (err error) {
	defer func() { observe("delete_group", err) }()

	unlock := l.locks.lock(groupID)
	defer unlock()

	group, err := l.loadGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if group.CreatorID != requester {
		return unauthorized("only the group creator can delete the group")
	}

	if err := l.store.DeleteGroup(ctx, groupID); err != nil {
		return classify(err)
	}
	l.plans.Invalidate(ctx, groupID)

	slog.Info("Group deleted", "group_id", groupID)
	l.emit(ctx, models.Activity{
		Type:        models.ActivityGroupDelete,
		ActorID:     requester,
		GroupID:     groupID,
		Description: fmt.Sprintf("deleted group %q", group.Name),
	})
	return nil
}

// GroupUpdate changes group metadata. Nil fields are left as they are.
type GroupUpdate struct {
	Name        *string
	Description *string
	Category    *models.GroupCategory
}

// UpdateGroup changes a group's name, description or category. Only the
// creator may update a group; balances are never touched.
func (l *Ledger) UpdateGroup(ctx context.Context, groupID, requester string, upd GroupUpdate) (group *models.Group, err error) {
	defer func() { observe("update_group", err) }()

	unlock := l.locks.lock(groupID)
	defer unlock()

	current, err := l.loadGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if current.CreatorID != requester {
		return nil, unauthorized("only the group creator can update the group")
	}

	group = current.Clone()
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, invalid("group name is required")
		}
		group.Name = name
	}
	if upd.Description != nil {
		group.Description = *upd.Description
	}
	if upd.Category != nil {
		switch *upd.Category {
		case models.GroupCategoryTrip, models.GroupCategoryHome, models.GroupCategoryOffice, models.GroupCategoryOther:
			group.Category = *upd.Category
		default:
			return nil, invalid("unknown group category %q", *upd.Category)
		}
	}

	if err := l.commit(ctx, mutation(group)); err != nil {
		return nil, err
	}

	l.emit(ctx, models.Activity{
		Type:        models.ActivityGroupUpdate,
		ActorID:     requester,
		GroupID:     groupID,
		Description: fmt.Sprintf("updated group %q", group.Name),
	})
	return group, nil
}

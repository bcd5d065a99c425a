package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// ExpenseInput describes a new expense. The payer is the caller.
type ExpenseInput struct {
	GroupID     string
	Description string
	Amount      decimal.Decimal
	Splits      []calculator.ShareInput
	Category    models.ExpenseCategory
	// Date defaults to now.
	Date  int64
	Notes string
}

func (in *ExpenseInput) validate() error {
	if strings.TrimSpace(in.Description) == "" {
		return invalid("description is required")
	}
	if !in.Amount.IsPositive() {
		return invalid("amount must be positive, got %s", in.Amount)
	}
	if len(in.Splits) == 0 {
		return invalid("split list must not be empty")
	}
	if in.Category == "" {
		in.Category = models.CategoryOther
	}
	if !models.ValidExpenseCategory(in.Category) {
		return invalid("unknown expense category %q", in.Category)
	}
	return nil
}

// CreateExpense records an expense paid by payer and applies its balance
// deltas to the group.
func (l *Ledger) CreateExpense(ctx context.Context, payer string, in ExpenseInput) (expense *models.Expense, err error) {
	defer func() { observe("create_expense", err) }()

	if err := in.validate(); err != nil {
		return nil, err
	}

	unlock := l.locks.lock(in.GroupID)
	defer unlock()

	current, err := l.loadGroup(ctx, in.GroupID)
	if err != nil {
		return nil, err
	}
	if !current.IsMember(payer) {
		return nil, unauthorized("user %s is not a member of group %s", payer, in.GroupID)
	}
	for _, s := range in.Splits {
		if s.UserID != "" && !current.IsMember(s.UserID) {
			return nil, invalid("split participant %s is not a member of group %s", s.UserID, in.GroupID)
		}
	}

	amount := calculator.Round2(in.Amount)
	splits, err := calculator.ComputeShares(amount, payer, in.Splits)
	if err != nil {
		return nil, classify(err)
	}
	members, err := calculator.ApplyDeltas(current.Members, calculator.ExpenseDeltas(amount, payer, splits))
	if err != nil {
		return nil, classify(err)
	}

	now := l.now().Unix()
	expense = &models.Expense{
		ID:           uuid.New().String(),
		GroupID:      in.GroupID,
		Description:  strings.TrimSpace(in.Description),
		Amount:       amount,
		PaidBy:       payer,
		SplitBetween: splits,
		Category:     in.Category,
		Date:         in.Date,
		Notes:        in.Notes,
		CreatedAt:    now,
	}
	if expense.Date == 0 {
		expense.Date = now
	}

	group := current.Clone()
	group.Members = members
	group.TotalExpenses = group.TotalExpenses.Add(amount)
	group.ExpenseIDs = append(group.ExpenseIDs, expense.ID)

	if err := l.commit(ctx, storage.Mutation{Group: group, PutExpense: expense}); err != nil {
		return nil, err
	}
	checkZeroSum(group)

	slog.Info("Expense created",
		"expense_id", expense.ID,
		"group_id", group.ID,
		"amount", amount.String(),
		"splits", len(splits),
	)
	l.emit(ctx, models.Activity{
		Type:        models.ActivityExpenseAdd,
		ActorID:     payer,
		GroupID:     group.ID,
		ExpenseID:   expense.ID,
		Amount:      &amount,
		Description: "Added expense: " + expense.Description,
	})
	return expense, nil
}

// DeleteExpense deletes an expense and reverses its stored deltas exactly.
// Only the payer may delete an expense.
func (l *Ledger) DeleteExpense(ctx context.Context, expenseID, requester string) (err error) {
	defer func() { observe("delete_expense", err) }()

	expense, err := l.store.GetExpense(ctx, expenseID)
	if err != nil {
		return classify(err)
	}
	if expense.PaidBy != requester {
		return unauthorized("only the payer can delete expense %s", expenseID)
	}

	unlock := l.locks.lock(expense.GroupID)
	defer unlock()

	current, err := l.loadGroup(ctx, expense.GroupID)
	if err != nil {
		return err
	}

	reverse := calculator.ExpenseDeltas(expense.Amount, expense.PaidBy, expense.SplitBetween).Negate()
	members, err := calculator.ApplyDeltas(current.Members, reverse)
	if err != nil {
		return fmt.Errorf("failed to reverse expense %s: %w", expenseID, err)
	}

	group := current.Clone()
	group.Members = members
	group.TotalExpenses = group.TotalExpenses.Sub(expense.Amount)
	group.ExpenseIDs = removeID(group.ExpenseIDs, expenseID)

	if err := l.commit(ctx, storage.Mutation{Group: group, DeleteExpenseID: expenseID}); err != nil {
		return err
	}

	slog.Info("Expense deleted", "expense_id", expenseID, "group_id", group.ID)
	amount := expense.Amount
	l.emit(ctx, models.Activity{
		Type:        models.ActivityExpenseDelete,
		ActorID:     requester,
		GroupID:     group.ID,
		ExpenseID:   expenseID,
		Amount:      &amount,
		Description: "deleted expense: " + expense.Description,
	})
	return nil
}

// GetExpense returns an expense visible to requester: a member of its group
// or someone involved in it.
func (l *Ledger) GetExpense(ctx context.Context, expenseID, requester string) (*models.Expense, error) {
	expense, err := l.store.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, classify(err)
	}
	if expense.Involves(requester) {
		return expense, nil
	}
	if _, err := l.GetGroup(ctx, expense.GroupID, requester); err != nil {
		return nil, err
	}
	return expense, nil
}

// ListGroupExpenses returns the group's expenses in creation order.
func (l *Ledger) ListGroupExpenses(ctx context.Context, groupID, requester string) ([]*models.Expense, error) {
	if _, err := l.GetGroup(ctx, groupID, requester); err != nil {
		return nil, err
	}
	expenses, err := l.store.ListExpensesByGroup(ctx, groupID)
	if err != nil {
		return nil, classify(err)
	}
	return expenses, nil
}

// ListUserExpenses returns the expenses userID paid for or takes part in.
func (l *Ledger) ListUserExpenses(ctx context.Context, userID string) ([]*models.Expense, error) {
	expenses, err := l.store.ListExpensesByUser(ctx, userID)
	if err != nil {
		return nil, classify(err)
	}
	return expenses, nil
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

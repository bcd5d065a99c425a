package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

const expenseColumns = "id, group_id, description, amount, paid_by, category, date, notes, created_at"

func insertExpense(ctx context.Context, tx *sql.Tx, e *models.Expense) error {
	_, err := tx.ExecContext(ctx,
		"INSERT INTO expenses ("+expenseColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		e.ID, e.GroupID, e.Description, e.Amount, e.PaidBy, string(e.Category), e.Date, e.Notes, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	for i, sp := range e.SplitBetween {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO expense_splits (expense_id, user_id, share, share_type, position) VALUES (?, ?, ?, ?, ?)",
			e.ID, sp.UserID, sp.Share, string(sp.ShareType), i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert split: %w", err)
		}
	}
	return nil
}

// GetExpense retrieves an expense with its resolved splits.
func (s *SQLiteStore) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	e := &models.Expense{}
	var category string
	err := s.db.QueryRowContext(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE id = ?",
		expenseID,
	).Scan(&e.ID, &e.GroupID, &e.Description, &e.Amount, &e.PaidBy, &category, &e.Date, &e.Notes, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	e.Category = models.ExpenseCategory(category)

	if err := s.loadSplits(ctx, []*models.Expense{e}); err != nil {
		return nil, err
	}
	return e, nil
}

// ListExpensesByGroup returns the group's expenses in creation order.
func (s *SQLiteStore) ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error) {
	return s.queryExpenses(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE group_id = ? ORDER BY created_at, rowid",
		groupID,
	)
}

// ListExpensesByUser returns expenses userID paid for or takes part in, newest first.
func (s *SQLiteStore) ListExpensesByUser(ctx context.Context, userID string) ([]*models.Expense, error) {
	return s.queryExpenses(ctx,
		`SELECT `+expenseColumns+` FROM expenses e
		 WHERE e.paid_by = ?
		    OR EXISTS (SELECT 1 FROM expense_splits sp WHERE sp.expense_id = e.id AND sp.user_id = ?)
		 ORDER BY e.created_at DESC, e.rowid DESC`,
		userID, userID,
	)
}

func (s *SQLiteStore) queryExpenses(ctx context.Context, query string, args ...any) ([]*models.Expense, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}

	var expenses []*models.Expense
	for rows.Next() {
		e := &models.Expense{}
		var category string
		if err := rows.Scan(&e.ID, &e.GroupID, &e.Description, &e.Amount, &e.PaidBy, &category, &e.Date, &e.Notes, &e.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		e.Category = models.ExpenseCategory(category)
		expenses = append(expenses, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	if err := s.loadSplits(ctx, expenses); err != nil {
		return nil, err
	}
	return expenses, nil
}

// loadSplits fills SplitBetween for every expense with a single query.
func (s *SQLiteStore) loadSplits(ctx context.Context, expenses []*models.Expense) error {
	if len(expenses) == 0 {
		return nil
	}

	byID := make(map[string]*models.Expense, len(expenses))
	args := make([]any, len(expenses))
	for i, e := range expenses {
		byID[e.ID] = e
		args[i] = e.ID
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT expense_id, user_id, share, share_type FROM expense_splits WHERE expense_id IN ("+
			placeholders(len(args))+") ORDER BY expense_id, position",
		args...,
	)
	if err != nil {
		return fmt.Errorf("failed to get splits: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var expenseID, shareType string
		var sp models.Split
		if err := rows.Scan(&expenseID, &sp.UserID, &sp.Share, &shareType); err != nil {
			return fmt.Errorf("failed to scan split: %w", err)
		}
		e := byID[expenseID]
		sp.ShareType = models.ShareType(shareType)
		sp.IsPaid = sp.UserID == e.PaidBy
		e.SplitBetween = append(e.SplitBetween, sp)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate splits: %w", err)
	}
	return nil
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// CreateGroup persists a new group and its members.
func (s *SQLiteStore) CreateGroup(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}
	if group.UpdatedAt == 0 {
		group.UpdatedAt = group.CreatedAt
	}
	if group.Category == "" {
		group.Category = models.GroupCategoryOther
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO groups (id, name, description, category, creator_id, total_expenses, version, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		group.ID, group.Name, group.Description, string(group.Category), group.CreatorID,
		group.TotalExpenses, group.Version, group.CreatedAt, group.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert group: %w", err)
	}

	if err := writeMembers(ctx, tx, group); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetGroup retrieves a group by ID, including members and expense IDs.
func (s *SQLiteStore) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	return getGroup(ctx, s.db, groupID)
}

func getGroup(ctx context.Context, q queryer, groupID string) (*models.Group, error) {
	group := &models.Group{}
	var category string
	err := q.QueryRowContext(ctx,
		`SELECT id, name, description, category, creator_id, total_expenses, version, created_at, updated_at
		 FROM groups WHERE id = ?`,
		groupID,
	).Scan(&group.ID, &group.Name, &group.Description, &category, &group.CreatorID,
		&group.TotalExpenses, &group.Version, &group.CreatedAt, &group.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	group.Category = models.GroupCategory(category)

	rows, err := q.QueryContext(ctx,
		"SELECT user_id, balance FROM group_members WHERE group_id = ? ORDER BY position",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m models.Member
		if err := rows.Scan(&m.UserID, &m.Balance); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		group.Members = append(group.Members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}

	idRows, err := q.QueryContext(ctx,
		"SELECT id FROM expenses WHERE group_id = ? ORDER BY created_at, rowid",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get expense ids: %w", err)
	}
	defer idRows.Close()

	for idRows.Next() {
		var id string
		if err := idRows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan expense id: %w", err)
		}
		group.ExpenseIDs = append(group.ExpenseIDs, id)
	}
	if err := idRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expense ids: %w", err)
	}

	return group, nil
}

// ListGroupsByMember returns the groups userID belongs to, newest first.
func (s *SQLiteStore) ListGroupsByMember(ctx context.Context, userID string) ([]*models.Group, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT g.id FROM groups g
		 JOIN group_members m ON m.group_id = g.id
		 WHERE m.user_id = ?
		 ORDER BY g.created_at DESC, g.rowid DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan group id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate groups: %w", err)
	}

	groups := make([]*models.Group, 0, len(ids))
	for _, id := range ids {
		group, err := s.GetGroup(ctx, id)
		if err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, nil
}

// DeleteGroup removes a group. Members, expenses, splits and payments go with
// it through ON DELETE CASCADE.
func (s *SQLiteStore) DeleteGroup(ctx context.Context, groupID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM groups WHERE id = ?", groupID)
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	return nil
}

// Commit applies a mutation in one transaction.
func (s *SQLiteStore) Commit(ctx context.Context, m storage.Mutation) error {
	if m.Group == nil {
		return errors.New("mutation has no group")
	}
	group := m.Group

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	res, err := tx.ExecContext(ctx,
		`UPDATE groups SET name = ?, description = ?, category = ?, total_expenses = ?,
		     version = version + 1, updated_at = ?
		 WHERE id = ? AND version = ?`,
		group.Name, group.Description, string(group.Category), group.TotalExpenses,
		now, group.ID, group.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update group: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check updated rows: %w", err)
	}
	if n == 0 {
		if _, err := getGroup(ctx, tx, group.ID); err != nil {
			return err
		}
		return fmt.Errorf("group %s at version %d: %w", group.ID, group.Version, storage.ErrStaleWrite)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM group_members WHERE group_id = ?", group.ID); err != nil {
		return fmt.Errorf("failed to clear members: %w", err)
	}
	if err := writeMembers(ctx, tx, group); err != nil {
		return err
	}

	switch {
	case m.PutExpense != nil:
		if err := insertExpense(ctx, tx, m.PutExpense); err != nil {
			return err
		}
	case m.DeleteExpenseID != "":
		if err := deleteRow(ctx, tx, "expenses", m.DeleteExpenseID); err != nil {
			return err
		}
	case m.PutPayment != nil:
		if err := insertPayment(ctx, tx, m.PutPayment); err != nil {
			return err
		}
	case m.DeletePaymentID != "":
		if err := deleteRow(ctx, tx, "payments", m.DeletePaymentID); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	group.Version++
	group.UpdatedAt = now
	return nil
}

func writeMembers(ctx context.Context, tx *sql.Tx, group *models.Group) error {
	for i, m := range group.Members {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO group_members (group_id, user_id, balance, position) VALUES (?, ?, ?, ?)",
			group.ID, m.UserID, m.Balance, i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert member: %w", err)
		}
	}
	return nil
}

// deleteRow deletes one row by primary key from table, which is always a
// constant supplied by this package.
func deleteRow(ctx context.Context, tx *sql.Tx, table, id string) error {
	res, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", table, id, storage.ErrNotFound)
	}
	return nil
}

// MemberReferences counts records in groupID that mention userID.
func (s *SQLiteStore) MemberReferences(ctx context.Context, groupID, userID string) (int, int, error) {
	var expenses, payments int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM expenses e
		 WHERE e.group_id = ?
		   AND (e.paid_by = ? OR EXISTS (
		       SELECT 1 FROM expense_splits sp WHERE sp.expense_id = e.id AND sp.user_id = ?))`,
		groupID, userID, userID,
	).Scan(&expenses)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count expense references: %w", err)
	}

	err = s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM payments WHERE group_id = ? AND (paid_by = ? OR paid_to = ?)",
		groupID, userID, userID,
	).Scan(&payments)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count payment references: %w", err)
	}

	return expenses, payments, nil
}

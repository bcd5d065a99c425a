package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// CreateActivity appends an activity to the log.
func (s *SQLiteStore) CreateActivity(ctx context.Context, a *models.Activity) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.CreatedAt == 0 {
		a.CreatedAt = time.Now().Unix()
	}

	var amount decimal.NullDecimal
	if a.Amount != nil {
		amount = decimal.NewNullDecimal(*a.Amount)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO activities (id, type, actor_id, group_id, target_id, expense_id, payment_id, amount, description, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, string(a.Type), a.ActorID, a.GroupID, a.TargetID, a.ExpenseID, a.PaymentID,
		amount, a.Description, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create activity: %w", err)
	}
	return nil
}

// ListActivities returns one page of the activities visible under filter.
func (s *SQLiteStore) ListActivities(ctx context.Context, filter storage.ActivityFilter) ([]*models.Activity, int, error) {
	where := []string{"actor_id = ?", "target_id = ?"}
	args := []any{filter.UserID, filter.UserID}
	if len(filter.GroupIDs) > 0 {
		where = append(where, "group_id IN ("+placeholders(len(filter.GroupIDs))+")")
		for _, id := range filter.GroupIDs {
			args = append(args, id)
		}
	}
	cond := strings.Join(where, " OR ")

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM activities WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count activities: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, type, actor_id, group_id, target_id, expense_id, payment_id, amount, description, created_at
		 FROM activities WHERE `+cond+`
		 ORDER BY created_at DESC, rowid DESC
		 LIMIT ? OFFSET ?`,
		append(args, limit, filter.Offset)...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	var activities []*models.Activity
	for rows.Next() {
		a := &models.Activity{}
		var typ string
		var amount decimal.NullDecimal
		if err := rows.Scan(&a.ID, &typ, &a.ActorID, &a.GroupID, &a.TargetID, &a.ExpenseID, &a.PaymentID,
			&amount, &a.Description, &a.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan activity: %w", err)
		}
		a.Type = models.ActivityType(typ)
		if amount.Valid {
			v := amount.Decimal
			a.Amount = &v
		}
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate activities: %w", err)
	}
	return activities, total, nil
}

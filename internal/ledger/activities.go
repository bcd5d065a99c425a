package ledger

import (
	"context"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

const (
	defaultActivityPage  = 1
	defaultActivityLimit = 10
	maxActivityLimit     = 100
)

// ActivityPage is one page of a user's activity feed.
type ActivityPage struct {
	Activities  []*models.Activity
	CurrentPage int
	TotalPages  int
	Total       int
}

// ListActivities returns the activities userID acted in or was targeted by,
// plus every activity in the groups userID belongs to, newest first.
// Non-positive page and limit fall back to 1 and 10.
func (l *Ledger) ListActivities(ctx context.Context, userID string, page, limit int) (*ActivityPage, error) {
	if page <= 0 {
		page = defaultActivityPage
	}
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	limit = min(limit, maxActivityLimit)

	groups, err := l.store.ListGroupsByMember(ctx, userID)
	if err != nil {
		return nil, classify(err)
	}
	groupIDs := make([]string, len(groups))
	for i, g := range groups {
		groupIDs[i] = g.ID
	}

	activities, total, err := l.store.ListActivities(ctx, storage.ActivityFilter{
		UserID:   userID,
		GroupIDs: groupIDs,
		Offset:   (page - 1) * limit,
		Limit:    limit,
	})
	if err != nil {
		return nil, classify(err)
	}

	return &ActivityPage{
		Activities:  activities,
		CurrentPage: page,
		TotalPages:  (total + limit - 1) / limit,
		Total:       total,
	}, nil
}

// Package cache memoizes settlement plans per group.
//
// Entries carry the group version they were computed at. A lookup with any
// other version is a miss, so a stale plan is never served even if an
// invalidation was lost.
package cache

import (
	"context"

	"github.com/mmynk/splitledger/internal/calculator"
)

// PlanCache stores the settlement plan of a group.
type PlanCache interface {
	// Get returns the plan cached for groupID at version.
	Get(ctx context.Context, groupID string, version int64) ([]calculator.Transfer, bool)
	Set(ctx context.Context, groupID string, version int64, plan []calculator.Transfer)
	Invalidate(ctx context.Context, groupID string)
}

type planEntry struct {
	Version int64                 `json:"version"`
	Plan    []calculator.Transfer `json:"plan"`
}

// Nop is a PlanCache that never hits.
type Nop struct{}

func (Nop) Get(context.Context, string, int64) ([]calculator.Transfer, bool) { return nil, false }
func (Nop) Set(context.Context, string, int64, []calculator.Transfer)        {}
func (Nop) Invalidate(context.Context, string)                               {}

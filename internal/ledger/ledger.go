// Package ledger owns group balances. It applies and reverses the balance
// deltas of expenses and payments, guards membership changes, and answers
// settlement queries.
//
// Every mutating operation runs read-validate-compute-commit under a per-group
// lock and writes through a single storage.Mutation, so a failed operation
// leaves the group untouched. Activities are emitted after the commit and
// their failures never reach the caller.
package ledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/mmynk/splitledger/internal/cache"
	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/events"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// Ledger is safe for concurrent use.
type Ledger struct {
	store   storage.Store
	emitter events.Emitter
	plans   cache.PlanCache
	locks   *groupLocks
	now     func() time.Time
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithEmitter sets where activities go. Defaults to events.Discard.
func WithEmitter(e events.Emitter) Option {
	return func(l *Ledger) { l.emitter = e }
}

// WithPlanCache sets the settlement plan cache. Defaults to cache.Nop.
func WithPlanCache(c cache.PlanCache) Option {
	return func(l *Ledger) { l.plans = c }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// New creates a Ledger over store.
func New(store storage.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:   store,
		emitter: events.Discard{},
		plans:   cache.Nop{},
		locks:   newGroupLocks(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// loadGroup reads a group for a mutation. The caller must hold its lock.
func (l *Ledger) loadGroup(ctx context.Context, groupID string) (*models.Group, error) {
	if groupID == "" {
		return nil, invalid("group id is required")
	}
	group, err := l.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, classify(err)
	}
	return group, nil
}

// commit writes m and drops the group's cached plan.
func (l *Ledger) commit(ctx context.Context, m storage.Mutation) error {
	if err := l.store.Commit(ctx, m); err != nil {
		return classify(err)
	}
	l.plans.Invalidate(ctx, m.Group.ID)
	return nil
}

// emit delivers activities best effort. It runs after a successful commit, so
// a cancelled request context must not stop it.
func (l *Ledger) emit(ctx context.Context, activities ...models.Activity) {
	ctx = context.WithoutCancel(ctx)
	for _, a := range activities {
		if a.CreatedAt == 0 {
			a.CreatedAt = l.now().Unix()
		}
		if err := l.emitter.Emit(ctx, a); err != nil {
			metrics.EventEmitFailures.WithLabelValues(string(a.Type)).Inc()
			slog.Warn("Failed to emit activity",
				"type", a.Type,
				"group_id", a.GroupID,
				"actor", a.ActorID,
				"error", err,
			)
		}
	}
}

func observe(op string, err error) {
	metrics.LedgerOperations.WithLabelValues(op, metrics.Result(err)).Inc()
}

func mutation(group *models.Group) storage.Mutation {
	return storage.Mutation{Group: group}
}

// checkZeroSum logs groups whose balances no longer sum to zero. Per-split
// rounding slack accumulates on payers and is kept, so this is reported
// rather than rejected.
func checkZeroSum(group *models.Group) {
	if sum := calculator.SumBalances(group.Members); sum.Abs().GreaterThan(calculator.Tolerance) {
		slog.Warn("Group balances do not sum to zero",
			"group_id", group.ID,
			"sum", sum.String(),
		)
	}
}

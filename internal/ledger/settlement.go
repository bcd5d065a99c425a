package ledger

import (
	"context"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/models"
)

// GetSettlementPlan returns the transfers that would zero the group's
// balances. The requester must be a member.
func (l *Ledger) GetSettlementPlan(ctx context.Context, groupID, requester string) (plan []calculator.Transfer, err error) {
	defer func() { observe("settlement_plan", err) }()

	group, err := l.GetGroup(ctx, groupID, requester)
	if err != nil {
		return nil, err
	}
	return l.planFor(ctx, group), nil
}

// planFor plans one group's snapshot, going through the cache.
func (l *Ledger) planFor(ctx context.Context, group *models.Group) []calculator.Transfer {
	if plan, ok := l.plans.Get(ctx, group.ID, group.Version); ok {
		metrics.PlanCacheLookups.WithLabelValues("hit").Inc()
		return plan
	}
	metrics.PlanCacheLookups.WithLabelValues("miss").Inc()

	plan := calculator.PlanSettlement(calculator.BalancesOf(group.Members))
	l.plans.Set(ctx, group.ID, group.Version, plan)
	return plan
}

// GetAggregatedBalances nets userID's position against every counterparty
// across all of the user's groups. Each group is planned on its own and only
// transfers involving userID are merged; balances are never pooled across
// groups.
func (l *Ledger) GetAggregatedBalances(ctx context.Context, userID string) (balances []calculator.CounterpartyBalance, err error) {
	defer func() { observe("aggregated_balances", err) }()

	groups, err := l.store.ListGroupsByMember(ctx, userID)
	if err != nil {
		return nil, classify(err)
	}

	plans := make([][]calculator.Transfer, len(groups))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, group := range groups {
		g.Go(func() error {
			plans[i] = l.planFor(gctx, group)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return calculator.AggregateForUser(userID, plans...), nil
}

// Verification is the result of replaying a group's history.
type Verification struct {
	GroupID string
	// Sum of the stored balances.
	Sum decimal.Decimal
	// ZeroSum is false when Sum is further than calculator.Tolerance from zero.
	ZeroSum bool
	// Drifts lists members whose stored balance disagrees with the replay.
	Drifts []calculator.Drift
}

// OK reports whether the group passed every check.
func (v *Verification) OK() bool {
	return v.ZeroSum && len(v.Drifts) == 0
}

// VerifyBalances recomputes the group's balances from its expenses and
// payments and compares them with the stored ones. It is an operator check and
// performs no authorization.
func (l *Ledger) VerifyBalances(ctx context.Context, groupID string) (*Verification, error) {
	unlock := l.locks.lock(groupID)
	defer unlock()

	group, err := l.loadGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	expenses, err := l.store.ListExpensesByGroup(ctx, groupID)
	if err != nil {
		return nil, classify(err)
	}
	payments, err := l.store.ListPaymentsByGroup(ctx, groupID)
	if err != nil {
		return nil, classify(err)
	}

	expected := calculator.RecomputeBalances(group.MemberIDs(), expenses, payments)
	return &Verification{
		GroupID: groupID,
		Sum:     calculator.SumBalances(group.Members),
		ZeroSum: calculator.ZeroSum(group.Members),
		Drifts:  calculator.CompareBalances(group.Members, expected),
	}, nil
}

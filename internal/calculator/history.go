package calculator

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
)

// Drift is a member whose stored balance disagrees with the balance replayed
// from history by more than Tolerance.
type Drift struct {
	UserID   string
	Stored   decimal.Decimal
	Expected decimal.Decimal
}

// RecomputeBalances replays every expense and payment of a group from zero.
// Users that appear in history but are not in memberIDs are still reported.
func RecomputeBalances(memberIDs []string, expenses []*models.Expense, payments []*models.Payment) map[string]decimal.Decimal {
	balances := make(map[string]decimal.Decimal, len(memberIDs))
	for _, id := range memberIDs {
		balances[id] = decimal.Zero
	}
	apply := func(d Deltas) {
		for user, amount := range d {
			balances[user] = balances[user].Add(amount)
		}
	}
	for _, e := range expenses {
		apply(ExpenseDeltas(e.Amount, e.PaidBy, e.SplitBetween))
	}
	for _, p := range payments {
		apply(PaymentDeltas(p.PaidBy, p.PaidTo, p.Amount))
	}
	return balances
}

// CompareBalances reports every member whose stored balance is more than
// Tolerance away from the expected one.
func CompareBalances(members []models.Member, expected map[string]decimal.Decimal) []Drift {
	var drifts []Drift
	for _, m := range members {
		want := expected[m.UserID]
		if m.Balance.Sub(want).Abs().GreaterThan(Tolerance) {
			drifts = append(drifts, Drift{UserID: m.UserID, Stored: m.Balance, Expected: want})
		}
	}
	return drifts
}

// SumBalances adds up the balances of members.
func SumBalances(members []models.Member) decimal.Decimal {
	total := decimal.Zero
	for _, m := range members {
		total = total.Add(m.Balance)
	}
	return total
}

// ZeroSum reports whether members' balances sum to zero within Tolerance.
func ZeroSum(members []models.Member) bool {
	return SumBalances(members).Abs().LessThanOrEqual(Tolerance)
}

// BalancesOf converts group members into planner input, preserving order.
func BalancesOf(members []models.Member) []Balance {
	out := make([]Balance, len(members))
	for i, m := range members {
		out[i] = Balance{UserID: m.UserID, Amount: m.Balance}
	}
	return out
}

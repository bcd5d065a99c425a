package calculator

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Balance is one user's signed balance within a scope.
type Balance struct {
	UserID string
	Amount decimal.Decimal // Positive = owed money, Negative = owes money
}

// Transfer is one settling payment: From pays To the Amount.
type Transfer struct {
	From   string          // Debtor
	To     string          // Creditor
	Amount decimal.Decimal // Always positive
}

// CounterpartyBalance is the net position between a viewer and one other user.
type CounterpartyBalance struct {
	UserID string
	Amount decimal.Decimal // Positive = UserID owes the viewer, Negative = viewer owes UserID
}

// PlanSettlement reduces a balance vector to an ordered list of transfers that
// zero it. It uses greedy largest-first matching:
//
//  1. drop zero balances
//  2. sort descending, so the largest creditor is first and the largest debtor last
//  3. repeatedly match the creditor at i with the debtor at j for the smaller of
//     the two magnitudes, advancing whichever side reaches zero
//
// Equal balances keep member order from each end: among creditors the earlier
// member is matched first, and likewise among debtors.
//
// For n nonzero balances at most n-1 transfers are produced. If the input does
// not sum to exactly zero, matching stops once no creditor/debtor pair remains.
func PlanSettlement(balances []Balance) []Transfer {
	type entry struct {
		Balance
		pos int
	}

	entries := make([]entry, 0, len(balances))
	for i, b := range balances {
		if b.Amount.IsZero() {
			continue
		}
		entries = append(entries, entry{Balance: b, pos: i})
	}

	sort.SliceStable(entries, func(a, b int) bool {
		ea, eb := entries[a], entries[b]
		if cmp := ea.Amount.Cmp(eb.Amount); cmp != 0 {
			return cmp > 0
		}
		if ea.Amount.IsPositive() {
			return ea.pos < eb.pos
		}
		return ea.pos > eb.pos
	})

	var transfers []Transfer
	i, j := 0, len(entries)-1
	for i < j {
		creditor := &entries[i]
		debtor := &entries[j]

		amount := decimal.Min(creditor.Amount, debtor.Amount.Neg())
		if !amount.IsPositive() {
			break
		}

		transfers = append(transfers, Transfer{
			From:   debtor.UserID,
			To:     creditor.UserID,
			Amount: Round2(amount),
		})

		creditor.Amount = creditor.Amount.Sub(amount)
		debtor.Amount = debtor.Amount.Add(amount)

		if creditor.Amount.IsZero() {
			i++
		}
		if debtor.Amount.IsZero() {
			j--
		}
	}

	return transfers
}

// ApplyTransfers executes transfers as payments against a copy of balances:
// the sender's balance rises and the receiver's falls by the amount. Users that
// appear only in transfers are appended.
func ApplyTransfers(balances []Balance, transfers []Transfer) []Balance {
	out := append([]Balance(nil), balances...)
	index := make(map[string]int, len(out))
	for i, b := range out {
		index[b.UserID] = i
	}
	add := func(user string, amount decimal.Decimal) {
		i, ok := index[user]
		if !ok {
			i = len(out)
			index[user] = i
			out = append(out, Balance{UserID: user})
		}
		out[i].Amount = out[i].Amount.Add(amount)
	}
	for _, t := range transfers {
		add(t.From, t.Amount)
		add(t.To, t.Amount.Neg())
	}
	return out
}

// AggregateForUser nets the transfers of several per-scope plans into one
// position per counterparty of viewer. Plans are never pooled into a single
// settlement; only transfers that involve the viewer count. Zero positions are
// dropped and the result is ordered by user ID.
func AggregateForUser(viewer string, plans ...[]Transfer) []CounterpartyBalance {
	net := make(map[string]decimal.Decimal)
	for _, plan := range plans {
		for _, t := range plan {
			switch viewer {
			case t.From:
				net[t.To] = net[t.To].Sub(t.Amount)
			case t.To:
				net[t.From] = net[t.From].Add(t.Amount)
			}
		}
	}

	result := make([]CounterpartyBalance, 0, len(net))
	for user, amount := range net {
		amount = Round2(amount)
		if amount.IsZero() {
			continue
		}
		result = append(result, CounterpartyBalance{UserID: user, Amount: amount})
	}
	sort.Slice(result, func(a, b int) bool { return result[a].UserID < result[b].UserID })
	return result
}

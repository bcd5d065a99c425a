// Package calculator holds the pure arithmetic of the ledger: pricing expense
// splits, turning expenses and payments into balance deltas, and reducing a
// balance vector to a settlement plan. Nothing here touches storage.
package calculator

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
)

var (
	ErrInvalidAmount   = errors.New("amount must be positive")
	ErrNoSplits        = errors.New("split list must not be empty")
	ErrMissingUser     = errors.New("split entry has no user")
	ErrDuplicateSplit  = errors.New("user appears more than once in split list")
	ErrNegativeShare   = errors.New("share must not be negative")
	ErrZeroTotalShares = errors.New("equal shares must not all be zero")
	ErrSplitMismatch   = errors.New("split charges do not add up to the expense amount")
	ErrUnknownMember   = errors.New("delta references a user who is not a member")
)

var (
	hundred  = decimal.NewFromInt(100)
	halfCent = decimal.RequireFromString("0.005")

	// Tolerance is the absolute slack allowed when checking that balances sum
	// to zero or match a recomputation from history.
	Tolerance = decimal.RequireFromString("0.01")
)

// ShareInput is one raw split entry as supplied by the caller.
type ShareInput struct {
	UserID    string
	Share     decimal.Decimal
	ShareType models.ShareType
}

// Round2 rounds to cents, half away from zero.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ComputeShares prices every split entry of an expense independently and rounds
// each charge to cents. The returned splits carry the charged amount in Share.
//
// Rounded charges are not reconciled against amount. Inputs whose charges miss
// amount by more than rounding can explain (half a cent per entry, at least one
// cent overall) are rejected with ErrSplitMismatch.
func ComputeShares(amount decimal.Decimal, payer string, inputs []ShareInput) ([]models.Split, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if len(inputs) == 0 {
		return nil, ErrNoSplits
	}

	seen := make(map[string]bool, len(inputs))
	totalShares := decimal.Zero
	for _, in := range inputs {
		if in.UserID == "" {
			return nil, ErrMissingUser
		}
		if seen[in.UserID] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSplit, in.UserID)
		}
		seen[in.UserID] = true
		if in.Share.IsNegative() {
			return nil, fmt.Errorf("%w: %s", ErrNegativeShare, in.UserID)
		}
		totalShares = totalShares.Add(in.Share)
	}

	splits := make([]models.Split, len(inputs))
	charged := decimal.Zero
	for i, in := range inputs {
		shareType := normalizeShareType(in.ShareType)

		var share decimal.Decimal
		switch shareType {
		case models.ShareExact:
			share = in.Share
		case models.SharePercentage:
			share = amount.Mul(in.Share).Div(hundred)
		default:
			if totalShares.IsZero() {
				return nil, ErrZeroTotalShares
			}
			share = amount.Mul(in.Share).Div(totalShares)
		}
		share = Round2(share)
		charged = charged.Add(share)

		splits[i] = models.Split{
			UserID:    in.UserID,
			Share:     share,
			ShareType: shareType,
			IsPaid:    in.UserID == payer,
		}
	}

	if amount.Sub(charged).Abs().GreaterThan(roundingSlack(len(inputs))) {
		return nil, fmt.Errorf("%w: charged %s of %s", ErrSplitMismatch, charged.StringFixed(2), amount.StringFixed(2))
	}

	return splits, nil
}

func roundingSlack(entries int) decimal.Decimal {
	return decimal.Max(Tolerance, halfCent.Mul(decimal.NewFromInt(int64(entries))))
}

func normalizeShareType(t models.ShareType) models.ShareType {
	switch t {
	case models.ShareExact, models.SharePercentage:
		return t
	default:
		return models.ShareEqual
	}
}

// Deltas maps a user ID to the signed change of that user's balance.
type Deltas map[string]decimal.Decimal

// Negate returns the deltas that exactly undo d.
func (d Deltas) Negate() Deltas {
	out := make(Deltas, len(d))
	for user, amount := range d {
		out[user] = amount.Neg()
	}
	return out
}

// Sum adds up all deltas.
func (d Deltas) Sum() decimal.Decimal {
	total := decimal.Zero
	for _, amount := range d {
		total = total.Add(amount)
	}
	return total
}

// ExpenseDeltas returns the balance changes caused by an expense with already
// resolved splits. The payer gains amount minus their own charge; every other
// participant loses their charge. Users absent from the splits are untouched.
func ExpenseDeltas(amount decimal.Decimal, payer string, splits []models.Split) Deltas {
	deltas := make(Deltas, len(splits)+1)
	payerOwn := decimal.Zero
	for _, s := range splits {
		if s.UserID == payer {
			payerOwn = s.Share
			continue
		}
		deltas[s.UserID] = deltas[s.UserID].Sub(s.Share)
	}
	deltas[payer] = deltas[payer].Add(amount.Sub(payerOwn))
	return deltas
}

// PaymentDeltas returns the balance changes caused by a direct payment.
func PaymentDeltas(paidBy, paidTo string, amount decimal.Decimal) Deltas {
	deltas := make(Deltas, 2)
	deltas[paidBy] = deltas[paidBy].Add(amount)
	deltas[paidTo] = deltas[paidTo].Sub(amount)
	return deltas
}

// ApplyDeltas returns a copy of members with deltas added. Every user in deltas
// must be a member; otherwise nothing is applied and ErrUnknownMember is returned.
func ApplyDeltas(members []models.Member, deltas Deltas) ([]models.Member, error) {
	index := make(map[string]int, len(members))
	for i, m := range members {
		index[m.UserID] = i
	}
	for user := range deltas {
		if _, ok := index[user]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownMember, user)
		}
	}

	out := append([]models.Member(nil), members...)
	for user, amount := range deltas {
		i := index[user]
		out[i].Balance = out[i].Balance.Add(amount)
	}
	return out, nil
}

package calculator

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestComputeShares(t *testing.T) {
	tests := []struct {
		name    string
		amount  string
		payer   string
		inputs  []ShareInput
		want    map[string]string
		wantErr error
	}{
		{
			name:   "equal three ways",
			amount: "300",
			payer:  "alice",
			inputs: []ShareInput{
				{UserID: "alice", Share: d("1"), ShareType: models.ShareEqual},
				{UserID: "bob", Share: d("1"), ShareType: models.ShareEqual},
				{UserID: "carol", Share: d("1"), ShareType: models.ShareEqual},
			},
			want: map[string]string{"alice": "100", "bob": "100", "carol": "100"},
		},
		{
			name:   "weighted equal shares",
			amount: "90",
			payer:  "alice",
			inputs: []ShareInput{
				{UserID: "alice", Share: d("2"), ShareType: models.ShareEqual},
				{UserID: "bob", Share: d("1"), ShareType: models.ShareEqual},
			},
			want: map[string]string{"alice": "60", "bob": "30"},
		},
		{
			name:   "percentage 50/30/20",
			amount: "150",
			payer:  "alice",
			inputs: []ShareInput{
				{UserID: "alice", Share: d("50"), ShareType: models.SharePercentage},
				{UserID: "bob", Share: d("30"), ShareType: models.SharePercentage},
				{UserID: "carol", Share: d("20"), ShareType: models.SharePercentage},
			},
			want: map[string]string{"alice": "75", "bob": "45", "carol": "30"},
		},
		{
			name:   "exact amounts",
			amount: "42.50",
			payer:  "bob",
			inputs: []ShareInput{
				{UserID: "alice", Share: d("12.50"), ShareType: models.ShareExact},
				{UserID: "bob", Share: d("30"), ShareType: models.ShareExact},
			},
			want: map[string]string{"alice": "12.5", "bob": "30"},
		},
		{
			name:   "rounding slack is kept",
			amount: "100",
			payer:  "alice",
			inputs: []ShareInput{
				{UserID: "alice", Share: d("1")},
				{UserID: "bob", Share: d("1")},
				{UserID: "carol", Share: d("1")},
			},
			want: map[string]string{"alice": "33.33", "bob": "33.33", "carol": "33.33"},
		},
		{
			name:   "half cent rounds up",
			amount: "0.25",
			payer:  "alice",
			inputs: []ShareInput{
				{UserID: "alice", Share: d("1")},
				{UserID: "bob", Share: d("1")},
			},
			want: map[string]string{"alice": "0.13", "bob": "0.13"},
		},
		{
			name:    "zero amount",
			amount:  "0",
			payer:   "alice",
			inputs:  []ShareInput{{UserID: "alice", Share: d("1")}},
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "negative amount",
			amount:  "-5",
			payer:   "alice",
			inputs:  []ShareInput{{UserID: "alice", Share: d("1")}},
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "empty split list",
			amount:  "10",
			payer:   "alice",
			wantErr: ErrNoSplits,
		},
		{
			name:   "duplicate participant",
			amount: "10",
			payer:  "alice",
			inputs: []ShareInput{
				{UserID: "bob", Share: d("1")},
				{UserID: "bob", Share: d("1")},
			},
			wantErr: ErrDuplicateSplit,
		},
		{
			name:    "negative share",
			amount:  "10",
			payer:   "alice",
			inputs:  []ShareInput{{UserID: "bob", Share: d("-1"), ShareType: models.ShareExact}},
			wantErr: ErrNegativeShare,
		},
		{
			name:   "all equal shares zero",
			amount: "10",
			payer:  "alice",
			inputs: []ShareInput{
				{UserID: "alice", Share: d("0")},
				{UserID: "bob", Share: d("0")},
			},
			wantErr: ErrZeroTotalShares,
		},
		{
			name:   "percentages short of 100",
			amount: "100",
			payer:  "alice",
			inputs: []ShareInput{
				{UserID: "alice", Share: d("50"), ShareType: models.SharePercentage},
				{UserID: "bob", Share: d("30"), ShareType: models.SharePercentage},
			},
			wantErr: ErrSplitMismatch,
		},
		{
			name:   "exact amounts exceed total",
			amount: "20",
			payer:  "alice",
			inputs: []ShareInput{
				{UserID: "alice", Share: d("15"), ShareType: models.ShareExact},
				{UserID: "bob", Share: d("15"), ShareType: models.ShareExact},
			},
			wantErr: ErrSplitMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			splits, err := ComputeShares(d(tt.amount), tt.payer, tt.inputs)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ComputeShares() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ComputeShares() unexpected error: %v", err)
			}
			if len(splits) != len(tt.inputs) {
				t.Fatalf("got %d splits, want %d", len(splits), len(tt.inputs))
			}
			for i, s := range splits {
				if s.UserID != tt.inputs[i].UserID {
					t.Errorf("split %d user = %s, want %s (order must be preserved)", i, s.UserID, tt.inputs[i].UserID)
				}
				if !s.Share.Equal(d(tt.want[s.UserID])) {
					t.Errorf("%s share = %s, want %s", s.UserID, s.Share, tt.want[s.UserID])
				}
				if s.IsPaid != (s.UserID == tt.payer) {
					t.Errorf("%s isPaid = %v", s.UserID, s.IsPaid)
				}
			}
		})
	}
}

func TestComputeShares_UnknownTypeIsEqual(t *testing.T) {
	splits, err := ComputeShares(d("10"), "alice", []ShareInput{
		{UserID: "alice", Share: d("1"), ShareType: "weird"},
		{UserID: "bob", Share: d("1")},
	})
	if err != nil {
		t.Fatalf("ComputeShares failed: %v", err)
	}
	for _, s := range splits {
		if s.ShareType != models.ShareEqual {
			t.Errorf("%s share type = %q, want equal", s.UserID, s.ShareType)
		}
		if !s.Share.Equal(d("5")) {
			t.Errorf("%s share = %s, want 5", s.UserID, s.Share)
		}
	}
}

func TestShareTypeEquivalence(t *testing.T) {
	amount := d("100")
	cases := map[string][]ShareInput{
		"equal": {
			{UserID: "alice", Share: d("1"), ShareType: models.ShareEqual},
			{UserID: "bob", Share: d("1"), ShareType: models.ShareEqual},
		},
		"percentage": {
			{UserID: "alice", Share: d("50"), ShareType: models.SharePercentage},
			{UserID: "bob", Share: d("50"), ShareType: models.SharePercentage},
		},
		"exact": {
			{UserID: "alice", Share: d("50"), ShareType: models.ShareExact},
			{UserID: "bob", Share: d("50"), ShareType: models.ShareExact},
		},
	}

	for name, inputs := range cases {
		t.Run(name, func(t *testing.T) {
			splits, err := ComputeShares(amount, "alice", inputs)
			if err != nil {
				t.Fatalf("ComputeShares failed: %v", err)
			}
			for _, s := range splits {
				if !s.Share.Equal(d("50")) {
					t.Errorf("%s charged %s, want 50", s.UserID, s.Share)
				}
			}
		})
	}
}

func TestExpenseDeltas(t *testing.T) {
	t.Run("payer in split", func(t *testing.T) {
		splits, err := ComputeShares(d("150"), "alice", []ShareInput{
			{UserID: "alice", Share: d("50"), ShareType: models.SharePercentage},
			{UserID: "bob", Share: d("30"), ShareType: models.SharePercentage},
			{UserID: "carol", Share: d("20"), ShareType: models.SharePercentage},
		})
		if err != nil {
			t.Fatalf("ComputeShares failed: %v", err)
		}
		deltas := ExpenseDeltas(d("150"), "alice", splits)
		want := map[string]string{"alice": "75", "bob": "-45", "carol": "-30"}
		for user, w := range want {
			if !deltas[user].Equal(d(w)) {
				t.Errorf("%s delta = %s, want %s", user, deltas[user], w)
			}
		}
		if !deltas.Sum().IsZero() {
			t.Errorf("deltas sum = %s, want 0", deltas.Sum())
		}
	})

	t.Run("payer not in split", func(t *testing.T) {
		splits := []models.Split{
			{UserID: "bob", Share: d("20")},
			{UserID: "carol", Share: d("20")},
		}
		deltas := ExpenseDeltas(d("40"), "alice", splits)
		if !deltas["alice"].Equal(d("40")) {
			t.Errorf("alice delta = %s, want 40", deltas["alice"])
		}
		if len(deltas) != 3 {
			t.Errorf("expected 3 deltas, got %d", len(deltas))
		}
	})

	t.Run("rounding slack stays on the payer", func(t *testing.T) {
		splits := []models.Split{
			{UserID: "alice", Share: d("33.33")},
			{UserID: "bob", Share: d("33.33")},
			{UserID: "carol", Share: d("33.33")},
		}
		deltas := ExpenseDeltas(d("100"), "alice", splits)
		if !deltas["alice"].Equal(d("66.67")) {
			t.Errorf("alice delta = %s, want 66.67", deltas["alice"])
		}
		if deltas.Sum().Abs().GreaterThan(Tolerance) {
			t.Errorf("deltas sum %s exceeds tolerance", deltas.Sum())
		}
	})
}

func TestApplyDeltas_ReverseIsExact(t *testing.T) {
	members := []models.Member{
		{UserID: "alice", Balance: d("12.34")},
		{UserID: "bob", Balance: d("-7.01")},
		{UserID: "carol", Balance: d("-5.33")},
	}
	splits, err := ComputeShares(d("71.11"), "bob", []ShareInput{
		{UserID: "alice", Share: d("1")},
		{UserID: "bob", Share: d("1")},
		{UserID: "carol", Share: d("1")},
	})
	if err != nil {
		t.Fatalf("ComputeShares failed: %v", err)
	}
	deltas := ExpenseDeltas(d("71.11"), "bob", splits)

	applied, err := ApplyDeltas(members, deltas)
	if err != nil {
		t.Fatalf("ApplyDeltas failed: %v", err)
	}
	restored, err := ApplyDeltas(applied, deltas.Negate())
	if err != nil {
		t.Fatalf("ApplyDeltas (reverse) failed: %v", err)
	}
	for i := range members {
		if !restored[i].Balance.Equal(members[i].Balance) {
			t.Errorf("%s balance = %s after reverse, want %s", members[i].UserID, restored[i].Balance, members[i].Balance)
		}
	}
	if !members[0].Balance.Equal(d("12.34")) {
		t.Error("ApplyDeltas must not modify its input")
	}
}

func TestApplyDeltas_UnknownMember(t *testing.T) {
	members := []models.Member{{UserID: "alice"}, {UserID: "bob"}}
	_, err := ApplyDeltas(members, PaymentDeltas("alice", "mallory", d("5")))
	if !errors.Is(err, ErrUnknownMember) {
		t.Fatalf("ApplyDeltas() error = %v, want ErrUnknownMember", err)
	}
}

func TestPaymentDeltas(t *testing.T) {
	deltas := PaymentDeltas("bob", "alice", d("100"))
	if !deltas["bob"].Equal(d("100")) {
		t.Errorf("bob delta = %s, want 100", deltas["bob"])
	}
	if !deltas["alice"].Equal(d("-100")) {
		t.Errorf("alice delta = %s, want -100", deltas["alice"])
	}
}

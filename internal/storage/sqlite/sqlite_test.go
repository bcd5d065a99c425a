package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newGroup(t *testing.T, store *SQLiteStore, creator string, members ...string) *models.Group {
	t.Helper()
	g := &models.Group{Name: "Trip", CreatorID: creator, TotalExpenses: decimal.Zero}
	for _, m := range append([]string{creator}, members...) {
		g.Members = append(g.Members, models.Member{UserID: m, Balance: decimal.Zero})
	}
	if err := store.CreateGroup(context.Background(), g); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	return g
}

func TestSQLiteStore_Groups(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("CreateGroup generates ID and keeps member order", func(t *testing.T) {
		g := newGroup(t, store, "carol", "alice", "bob")
		if g.ID == "" {
			t.Fatal("Expected group ID to be generated")
		}
		if g.Category != models.GroupCategoryOther {
			t.Errorf("Category = %q, want Other", g.Category)
		}

		got, err := store.GetGroup(ctx, g.ID)
		if err != nil {
			t.Fatalf("GetGroup failed: %v", err)
		}
		want := []string{"carol", "alice", "bob"}
		ids := got.MemberIDs()
		if len(ids) != len(want) {
			t.Fatalf("members = %v, want %v", ids, want)
		}
		for i := range want {
			if ids[i] != want[i] {
				t.Errorf("member[%d] = %s, want %s", i, ids[i], want[i])
			}
		}
	})

	t.Run("GetGroup unknown returns ErrNotFound", func(t *testing.T) {
		_, err := store.GetGroup(ctx, "missing")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("ListGroupsByMember", func(t *testing.T) {
		newGroup(t, store, "dave", "erin")
		newGroup(t, store, "erin")

		groups, err := store.ListGroupsByMember(ctx, "erin")
		if err != nil {
			t.Fatalf("ListGroupsByMember failed: %v", err)
		}
		if len(groups) != 2 {
			t.Errorf("got %d groups, want 2", len(groups))
		}
	})

	t.Run("DeleteGroup", func(t *testing.T) {
		g := newGroup(t, store, "frank")
		if err := store.DeleteGroup(ctx, g.ID); err != nil {
			t.Fatalf("DeleteGroup failed: %v", err)
		}
		if _, err := store.GetGroup(ctx, g.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("GetGroup after delete: err = %v, want ErrNotFound", err)
		}
		if err := store.DeleteGroup(ctx, g.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("second DeleteGroup: err = %v, want ErrNotFound", err)
		}
	})
}

func TestSQLiteStore_CommitExpense(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	g := newGroup(t, store, "alice", "bob")

	now := time.Now().Unix()
	expense := &models.Expense{
		ID:          "exp-1",
		GroupID:     g.ID,
		Description: "Dinner",
		Amount:      d("30.00"),
		PaidBy:      "alice",
		Category:    models.CategoryFood,
		Date:        now,
		CreatedAt:   now,
		SplitBetween: []models.Split{
			{UserID: "alice", Share: d("15.00"), ShareType: models.ShareEqual, IsPaid: true},
			{UserID: "bob", Share: d("15.00"), ShareType: models.ShareEqual},
		},
	}

	updated := g.Clone()
	updated.Members[0].Balance = d("15.00")
	updated.Members[1].Balance = d("-15.00")
	updated.TotalExpenses = d("30.00")

	if err := store.Commit(ctx, storage.Mutation{Group: updated, PutExpense: expense}); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if updated.Version != g.Version+1 {
		t.Errorf("Version = %d, want %d", updated.Version, g.Version+1)
	}

	got, err := store.GetGroup(ctx, g.ID)
	if err != nil {
		t.Fatalf("GetGroup failed: %v", err)
	}
	if !got.Members[1].Balance.Equal(d("-15")) {
		t.Errorf("bob balance = %s, want -15", got.Members[1].Balance)
	}
	if !got.TotalExpenses.Equal(d("30")) {
		t.Errorf("TotalExpenses = %s, want 30", got.TotalExpenses)
	}
	if len(got.ExpenseIDs) != 1 || got.ExpenseIDs[0] != "exp-1" {
		t.Errorf("ExpenseIDs = %v, want [exp-1]", got.ExpenseIDs)
	}

	gotExpense, err := store.GetExpense(ctx, "exp-1")
	if err != nil {
		t.Fatalf("GetExpense failed: %v", err)
	}
	if len(gotExpense.SplitBetween) != 2 {
		t.Fatalf("splits = %d, want 2", len(gotExpense.SplitBetween))
	}
	if !gotExpense.SplitBetween[0].IsPaid || gotExpense.SplitBetween[1].IsPaid {
		t.Error("IsPaid should be set only for the payer")
	}

	byUser, err := store.ListExpensesByUser(ctx, "bob")
	if err != nil {
		t.Fatalf("ListExpensesByUser failed: %v", err)
	}
	if len(byUser) != 1 {
		t.Errorf("ListExpensesByUser = %d expenses, want 1", len(byUser))
	}

	nExp, nPay, err := store.MemberReferences(ctx, g.ID, "bob")
	if err != nil {
		t.Fatalf("MemberReferences failed: %v", err)
	}
	if nExp != 1 || nPay != 0 {
		t.Errorf("MemberReferences = (%d, %d), want (1, 0)", nExp, nPay)
	}

	t.Run("stale version is rejected", func(t *testing.T) {
		stale := g.Clone() // still at the original version
		err := store.Commit(ctx, storage.Mutation{Group: stale, DeleteExpenseID: "exp-1"})
		if !errors.Is(err, storage.ErrStaleWrite) {
			t.Fatalf("err = %v, want ErrStaleWrite", err)
		}
		if _, err := store.GetExpense(ctx, "exp-1"); err != nil {
			t.Errorf("expense should survive a rejected commit: %v", err)
		}
	})

	t.Run("delete rolls back on missing record", func(t *testing.T) {
		current, _ := store.GetGroup(ctx, g.ID)
		current.Members[0].Balance = decimal.Zero
		err := store.Commit(ctx, storage.Mutation{Group: current, DeleteExpenseID: "nope"})
		if !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
		after, _ := store.GetGroup(ctx, g.ID)
		if !after.Members[0].Balance.Equal(d("15")) {
			t.Errorf("balance changed by a rolled back commit: %s", after.Members[0].Balance)
		}
	})

	t.Run("delete expense removes splits", func(t *testing.T) {
		current, _ := store.GetGroup(ctx, g.ID)
		if err := store.Commit(ctx, storage.Mutation{Group: current, DeleteExpenseID: "exp-1"}); err != nil {
			t.Fatalf("Commit failed: %v", err)
		}
		if _, err := store.GetExpense(ctx, "exp-1"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})
}

func TestSQLiteStore_Payments(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	g := newGroup(t, store, "alice", "bob")

	payment := &models.Payment{
		ID:          "pay-1",
		GroupID:     g.ID,
		PaidBy:      "bob",
		PaidTo:      "alice",
		Amount:      d("12.50"),
		Description: models.DefaultPaymentDescription,
		Date:        time.Now().Unix(),
	}
	if err := store.Commit(ctx, storage.Mutation{Group: g.Clone(), PutPayment: payment}); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	got, err := store.GetPayment(ctx, "pay-1")
	if err != nil {
		t.Fatalf("GetPayment failed: %v", err)
	}
	if !got.Amount.Equal(d("12.5")) || got.PaidTo != "alice" {
		t.Errorf("GetPayment = %+v", got)
	}

	for _, user := range []string{"alice", "bob"} {
		payments, err := store.ListPaymentsByUser(ctx, user)
		if err != nil {
			t.Fatalf("ListPaymentsByUser failed: %v", err)
		}
		if len(payments) != 1 {
			t.Errorf("%s: got %d payments, want 1", user, len(payments))
		}
	}

	if _, err := store.GetPayment(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSQLiteStore_Activities(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	amount := d("10")
	seed := []*models.Activity{
		{Type: models.ActivityGroupCreate, ActorID: "alice", GroupID: "g1", Description: "created", CreatedAt: 1},
		{Type: models.ActivityExpenseAdd, ActorID: "bob", GroupID: "g1", Amount: &amount, Description: "added", CreatedAt: 2},
		{Type: models.ActivityMemberAdd, ActorID: "carol", GroupID: "g2", TargetID: "alice", Description: "added alice", CreatedAt: 3},
		{Type: models.ActivityGroupCreate, ActorID: "dave", GroupID: "g3", Description: "unrelated", CreatedAt: 4},
	}
	for _, a := range seed {
		if err := store.CreateActivity(ctx, a); err != nil {
			t.Fatalf("CreateActivity failed: %v", err)
		}
	}

	page, total, err := store.ListActivities(ctx, storage.ActivityFilter{
		UserID:   "alice",
		GroupIDs: []string{"g1"},
		Limit:    2,
	})
	if err != nil {
		t.Fatalf("ListActivities failed: %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
	if len(page) != 2 {
		t.Fatalf("page size = %d, want 2", len(page))
	}
	if page[0].Type != models.ActivityMemberAdd {
		t.Errorf("newest activity = %s, want MEMBER_ADD", page[0].Type)
	}
	if page[1].Amount == nil || !page[1].Amount.Equal(amount) {
		t.Errorf("amount = %v, want 10", page[1].Amount)
	}

	rest, _, err := store.ListActivities(ctx, storage.ActivityFilter{
		UserID:   "alice",
		GroupIDs: []string{"g1"},
		Offset:   2,
		Limit:    2,
	})
	if err != nil {
		t.Fatalf("ListActivities failed: %v", err)
	}
	if len(rest) != 1 || rest[0].Amount != nil {
		t.Errorf("second page = %+v, want the group creation", rest)
	}
}

func TestSQLiteStore_Users(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	user := models.NewUser("alice@example.com", "Alice", "hash")
	if err := store.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	byEmail, err := store.GetUserByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if byEmail.ID != user.ID {
		t.Errorf("ID = %s, want %s", byEmail.ID, user.ID)
	}

	if _, err := store.GetUserByID(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}

	dup := models.NewUser("alice@example.com", "Other", "hash")
	if err := store.CreateUser(ctx, dup); !errors.Is(err, storage.ErrDuplicate) {
		t.Errorf("err = %v, want ErrDuplicate", err)
	}
}

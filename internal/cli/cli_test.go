package cli

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/storage/sqlite"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := Execute(context.Background())
	return out.String(), err
}

func TestMigrate(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cli.db")
	t.Setenv("DB_PATH", dbPath)

	out, err := runCLI(t, "migrate")
	if err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	if !strings.Contains(out, "schema is up to date") {
		t.Errorf("output = %q", out)
	}
}

func TestVerify(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cli.db")
	t.Setenv("DB_PATH", dbPath)

	store, err := sqlite.New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	l := ledger.New(store)
	ctx := context.Background()
	group, err := l.CreateGroup(ctx, "alice", ledger.GroupInput{Name: "Trip", MemberIDs: []string{"bob"}})
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	_, err = l.CreateExpense(ctx, "alice", ledger.ExpenseInput{
		GroupID:     group.ID,
		Description: "Taxi",
		Amount:      decimal.NewFromInt(20),
		Splits: []calculator.ShareInput{
			{UserID: "alice", Share: decimal.NewFromInt(1)},
			{UserID: "bob", Share: decimal.NewFromInt(1)},
		},
	})
	if err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}
	store.Close()

	out, err := runCLI(t, "verify", "--group", group.ID)
	if err != nil {
		t.Fatalf("verify failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "group "+group.ID+": ok") {
		t.Errorf("output = %q", out)
	}

	_, err = runCLI(t, "verify", "--group", "missing")
	if err == nil || !errors.Is(err, ledger.ErrNotFound) {
		t.Errorf("verify missing group: err = %v, want ErrNotFound", err)
	}
}

func TestPrintVerification(t *testing.T) {
	v := &ledger.Verification{
		GroupID: "g1",
		Sum:     decimal.RequireFromString("0.05"),
		ZeroSum: false,
		Drifts: []calculator.Drift{
			{UserID: "bob", Stored: decimal.RequireFromString("-9.95"), Expected: decimal.RequireFromString("-10")},
		},
	}
	var buf bytes.Buffer
	printVerification(&buf, v)

	want := "group g1: FAILED (sum 0.05)\n" +
		"  balances do not sum to zero\n" +
		"  bob: stored -9.95, expected -10.00\n"
	if buf.String() != want {
		t.Errorf("output =\n%s\nwant\n%s", buf.String(), want)
	}
}

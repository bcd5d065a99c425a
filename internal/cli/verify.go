package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/storage/sqlite"
)

// errDrift makes verify exit non-zero without printing usage.
var errDrift = errors.New("stored balances disagree with history")

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().StringSliceP("group", "g", nil, "Group ID to verify (repeatable)")
	_ = verifyCmd.MarkFlagRequired("group")
}

var verifyCmd = &cobra.Command{
	Use:   "verify --group ID",
	Short: "Replay a group's history and compare it with the stored balances",
	Long: `Recomputes every member balance of the group from its expenses and payments
and reports members whose stored balance differs by more than a cent, as well as
groups whose balances do not sum to zero. Exits non-zero when any check fails.`,
	Args: cobra.NoArgs,
	RunE: runVerify,
}

func runVerify(cmd *cobra.Command, _ []string) error {
	groupIDs, _ := cmd.Flags().GetStringSlice("group")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	l := ledger.New(store)
	failed := false
	for _, id := range groupIDs {
		v, err := l.VerifyBalances(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("failed to verify group %s: %w", id, err)
		}
		printVerification(cmd.OutOrStdout(), v)
		failed = failed || !v.OK()
	}
	if failed {
		return errDrift
	}
	return nil
}

func printVerification(w io.Writer, v *ledger.Verification) {
	status := "ok"
	if !v.OK() {
		status = "FAILED"
	}
	fmt.Fprintf(w, "group %s: %s (sum %s)\n", v.GroupID, status, v.Sum.StringFixed(2))
	if !v.ZeroSum {
		fmt.Fprintf(w, "  balances do not sum to zero\n")
	}
	for _, d := range v.Drifts {
		fmt.Fprintf(w, "  %s: stored %s, expected %s\n", d.UserID, d.Stored.StringFixed(2), d.Expected.StringFixed(2))
	}
}

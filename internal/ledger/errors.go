package ledger

import (
	"errors"
	"fmt"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/storage"
)

// Error kinds returned by ledger operations. Every error a caller can act on
// wraps exactly one of these; anything else is an internal failure.
var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrConflict        = errors.New("conflict")
	ErrInvalidArgument = errors.New("invalid argument")
)

func notFound(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrNotFound}, args...)...)
}

func unauthorized(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrUnauthorized}, args...)...)
}

func conflict(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrConflict}, args...)...)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidArgument}, args...)...)
}

// classify translates collaborator errors into ledger error kinds.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrConflict), errors.Is(err, ErrInvalidArgument):
		return err
	case errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, storage.ErrStaleWrite):
		metrics.StaleWrites.Inc()
		return fmt.Errorf("%w: %v", ErrConflict, err)
	case errors.Is(err, storage.ErrDuplicate):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	case isCalculatorError(err):
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	return err
}

func isCalculatorError(err error) bool {
	for _, target := range []error{
		calculator.ErrInvalidAmount,
		calculator.ErrNoSplits,
		calculator.ErrMissingUser,
		calculator.ErrDuplicateSplit,
		calculator.ErrNegativeShare,
		calculator.ErrZeroTotalShares,
		calculator.ErrSplitMismatch,
		calculator.ErrUnknownMember,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

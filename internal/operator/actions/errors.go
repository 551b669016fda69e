package actions

import (
	"context"
	"errors"
	"fmt"

	"github.com/carson-networks/ledger-server/internal/storage/sqlconfig"
)

var (
	ErrAccountNotFound        = errors.New("account not found")
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrInvalidTransfer        = errors.New("invalid transfer")
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrConcurrentModification = errors.New("concurrent modification")
	ErrUnknownTransactionType = errors.New("unknown transaction type")
	ErrStoreUnavailable       = errors.New("store unavailable")
	ErrDuplicateIBAN          = errors.New("iban already registered")
	// ErrCommitOutcomeUnknown marks a unit whose commit failed after it was
	// sent. Its writes may have been applied. Always wrapped together with
	// ErrStoreUnavailable.
	ErrCommitOutcomeUnknown = errors.New("commit outcome unknown")
)

// IsTransient reports whether repeating the whole unit might succeed without
// applying it twice. A unit whose commit outcome is unknown is never transient.
func IsTransient(err error) bool {
	if errors.Is(err, ErrCommitOutcomeUnknown) {
		return false
	}
	return errors.Is(err, ErrConcurrentModification) || errors.Is(err, ErrStoreUnavailable)
}

// ErrorKind names the sentinel err wraps, for metrics and logs.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrAccountNotFound):
		return "not_found"
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ErrInvalidTransfer):
		return "invalid_transfer"
	case errors.Is(err, ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, ErrConcurrentModification):
		return "concurrent_modification"
	case errors.Is(err, ErrUnknownTransactionType):
		return "unknown_type"
	case errors.Is(err, ErrCommitOutcomeUnknown):
		return "commit_outcome_unknown"
	case errors.Is(err, ErrStoreUnavailable):
		return "store_unavailable"
	case errors.Is(err, ErrDuplicateIBAN):
		return "duplicate_iban"
	default:
		return "internal"
	}
}

// storeError lifts a table error into the action's error vocabulary.
func storeError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sqlconfig.ErrNotFound):
		return ErrAccountNotFound
	case errors.Is(err, sqlconfig.ErrVersionConflict):
		return ErrConcurrentModification
	case errors.Is(err, sqlconfig.ErrDuplicateIBAN):
		return ErrDuplicateIBAN
	case errors.Is(err, sqlconfig.ErrUnavailable),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	default:
		return err
	}
}

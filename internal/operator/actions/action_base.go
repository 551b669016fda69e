package actions

import (
	"context"

	"github.com/carson-networks/ledger-server/internal/storage"
)

// IAction is one unit of work run by the operator inside a single transaction.
type IAction interface {
	Name() string
	// Validate rejects the action before any store access.
	Validate() error
	Perform(ctx context.Context, writer *storage.Writer) error
}

// Finisher is implemented by actions that track their own outcome.
type Finisher interface {
	Finish(err error)
}

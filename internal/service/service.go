package service

import (
	"context"

	"github.com/carson-networks/ledger-server/internal/operator/actions"
	"github.com/carson-networks/ledger-server/internal/storage"
)

// actionProcessor runs one action as one unit of work.
type actionProcessor interface {
	Process(ctx context.Context, action actions.IAction) error
}

// Service holds all business logic services.
type Service struct {
	Transaction *TransactionService
	Account     *AccountService
}

// NewService creates a new Service over the given storage and operator.
func NewService(store *storage.Storage, op actionProcessor) *Service {
	return &Service{
		Transaction: NewTransactionService(store, op),
		Account:     NewAccountService(store, op),
	}
}

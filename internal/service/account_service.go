package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/carson-networks/ledger-server/internal/operator/actions"
	"github.com/carson-networks/ledger-server/internal/storage"
	"github.com/carson-networks/ledger-server/internal/storage/sqlconfig"
	"github.com/carson-networks/ledger-server/internal/validation"
)

const defaultAccountLimit = 20

var ErrInvalidAccount = errors.New("invalid account")

// AccountService opens and looks up accounts.
type AccountService struct {
	storage  *storage.Storage
	operator actionProcessor
}

// NewAccountService creates a new AccountService.
func NewAccountService(store *storage.Storage, op actionProcessor) *AccountService {
	return &AccountService{storage: store, operator: op}
}

// CreateAccount opens an account with a zero balance.
func (s *AccountService) CreateAccount(ctx context.Context, create AccountCreate) (*Account, error) {
	if err := validation.Struct(create); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAccount, err)
	}

	action := &actions.CreateAccount{UserID: create.UserID, IBAN: create.IBAN}
	if err := s.operator.Process(ctx, action); err != nil {
		return nil, err
	}
	return accountFromStorage(action.Account), nil
}

// GetAccount retrieves an account by ID.
func (s *AccountService) GetAccount(ctx context.Context, id int64) (*Account, error) {
	row, err := s.storage.Accounts.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err)
	}
	return accountFromStorage(row), nil
}

// GetAccountByIBAN retrieves an account by its IBAN.
func (s *AccountService) GetAccountByIBAN(ctx context.Context, iban string) (*Account, error) {
	row, err := s.storage.Accounts.FindByIBAN(ctx, iban)
	if err != nil {
		return nil, lookupError(err)
	}
	return accountFromStorage(row), nil
}

// ListAccounts returns a page of accounts using cursor pagination.
func (s *AccountService) ListAccounts(ctx context.Context, cursor *AccountCursor) ([]Account, *AccountCursor, error) {
	limit := defaultAccountLimit
	offset := 0
	if cursor != nil {
		limit = cursor.Limit
		offset = cursor.Position
	}

	rows, err := s.storage.Accounts.List(ctx, &sqlconfig.AccountFilter{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, nil, lookupError(err)
	}

	var nextCursor *AccountCursor
	if len(rows) > limit {
		rows = rows[:limit]
		nextCursor = &AccountCursor{
			Position: offset + limit,
			Limit:    limit,
		}
	}

	accounts := make([]Account, len(rows))
	for i, row := range rows {
		accounts[i] = *accountFromStorage(row)
	}
	return accounts, nextCursor, nil
}

func lookupError(err error) error {
	switch {
	case errors.Is(err, sqlconfig.ErrNotFound):
		return actions.ErrAccountNotFound
	case errors.Is(err, sqlconfig.ErrUnavailable):
		return fmt.Errorf("%w: %w", actions.ErrStoreUnavailable, err)
	default:
		return err
	}
}

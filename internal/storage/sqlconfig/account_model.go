package sqlconfig

import (
	"context"
	"time"
)

// Account represents an account record. Balance is in minor currency units.
type Account struct {
	ID        int64
	UserID    int64
	IBAN      string
	Balance   int64
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AccountCreate is the input for creating a new account.
type AccountCreate struct {
	UserID  int64
	IBAN    string
	Balance int64
}

// AccountFilter specifies filters for listing accounts.
type AccountFilter struct {
	Limit  int
	Offset int
}

// IAccountTable defines the interface for account storage operations.
// This abstraction allows swapping the implementation (e.g. Bob) without changing callers.
//
//go:generate mockery --name IAccountTable --output mock_IAccountTable.go
type IAccountTable interface {
	FindByID(ctx context.Context, id int64) (*Account, error)
	FindByIBAN(ctx context.Context, iban string) (*Account, error)
	Insert(ctx context.Context, create *AccountCreate) (*Account, error)
	List(ctx context.Context, filter *AccountFilter) ([]*Account, error)
	// UpdateBalanceIfVersion writes balance and advances the version only when
	// the stored version still equals expectedVersion. It returns the new
	// version, or ErrVersionConflict without writing anything.
	UpdateBalanceIfVersion(ctx context.Context, id int64, balance int64, expectedVersion int64) (int64, error)
}

package service

import (
	"time"

	"github.com/carson-networks/ledger-server/internal/storage/sqlconfig"
)

// Account represents an account in the service layer. Balance is in minor units.
type Account struct {
	ID        int64
	UserID    int64
	IBAN      string
	Balance   int64
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AccountCreate is the input for opening an account.
type AccountCreate struct {
	UserID int64  `validate:"gt=0"`
	IBAN   string `validate:"required,iban_format"`
}

// AccountCursor identifies a position in a paginated result set.
type AccountCursor struct {
	Position int
	Limit    int
}

func accountFromStorage(row *sqlconfig.Account) *Account {
	return &Account{
		ID:        row.ID,
		UserID:    row.UserID,
		IBAN:      row.IBAN,
		Balance:   row.Balance,
		Version:   row.Version,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

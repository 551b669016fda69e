package actions

import (
	"context"
	"errors"
	"fmt"

	"github.com/carson-networks/ledger-server/internal/storage"
	"github.com/carson-networks/ledger-server/internal/storage/sqlconfig"
)

const EntityAccount = "Account"

// CreateAccount opens an account with a zero balance under a unique IBAN.
type CreateAccount struct {
	UserID int64
	IBAN   string

	Account *sqlconfig.Account
}

var _ IAction = (*CreateAccount)(nil)

func (c *CreateAccount) Name() string {
	return "CreateAccount"
}

func (c *CreateAccount) Validate() error {
	return nil
}

func (c *CreateAccount) Perform(ctx context.Context, writer *storage.Writer) error {
	existing, err := writer.Accounts.FindByIBAN(ctx, c.IBAN)
	switch {
	case err == nil:
		return fmt.Errorf("%w: %s belongs to account %d", ErrDuplicateIBAN, c.IBAN, existing.ID)
	case !errors.Is(err, sqlconfig.ErrNotFound):
		return storeError(err)
	}

	account, err := writer.Accounts.Insert(ctx, &sqlconfig.AccountCreate{
		UserID: c.UserID,
		IBAN:   c.IBAN,
	})
	if err != nil {
		return storeError(err)
	}

	writer.RecordCreated(EntityAccount, account.ID, map[string]any{
		"userID": account.UserID,
		"iban":   account.IBAN,
	})
	c.Account = account
	return nil
}

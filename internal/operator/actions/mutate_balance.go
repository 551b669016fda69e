package actions

import (
	"context"
	"fmt"
	"math"

	"github.com/carson-networks/ledger-server/internal/storage"
	"github.com/carson-networks/ledger-server/internal/storage/sqlconfig"
)

const EntityTransaction = "Transaction"

// MutateBalance applies one signed change to one account and records it in
// the ledger. It backs top-up and withdrawal directly.
type MutateBalance struct {
	AccountID int64
	Amount    int64
	Type      sqlconfig.TransactionType

	// Account is the committed row after a successful Perform.
	Account *sqlconfig.Account
}

var _ IAction = (*MutateBalance)(nil)

func (m *MutateBalance) Name() string {
	return "MutateBalance." + string(m.Type)
}

func (m *MutateBalance) Validate() error {
	return validateAmount(m.Amount)
}

func (m *MutateBalance) Perform(ctx context.Context, writer *storage.Writer) error {
	account, err := applyMutation(ctx, writer, m.AccountID, m.Amount, m.Type)
	if err != nil {
		return err
	}
	m.Account = account
	return nil
}

func validateAmount(amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: %d must be greater than zero", ErrInvalidAmount, amount)
	}
	return nil
}

func isDebit(t sqlconfig.TransactionType) (debit bool, err error) {
	switch t {
	case sqlconfig.TransactionTypeWithdrawal, sqlconfig.TransactionTypeTransfer:
		return true, nil
	case sqlconfig.TransactionTypeTopUp, sqlconfig.TransactionTypeReceive:
		return false, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownTransactionType, t)
	}
}

// applyMutation reads the account, checks the change against the snapshot,
// swaps the balance in only if the version is unchanged, and appends the
// ledger entry. All writes go through writer, so they commit or roll back
// together with whatever else the unit does.
func applyMutation(ctx context.Context, writer *storage.Writer, accountID, amount int64, t sqlconfig.TransactionType) (*sqlconfig.Account, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	debit, err := isDebit(t)
	if err != nil {
		return nil, err
	}

	snapshot, err := writer.Accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("read account %d: %w", accountID, storeError(err))
	}

	var newBalance int64
	if debit {
		if snapshot.Balance < amount {
			return nil, fmt.Errorf("account %d holds %d, needs %d: %w", accountID, snapshot.Balance, amount, ErrInsufficientFunds)
		}
		newBalance = snapshot.Balance - amount
	} else {
		if snapshot.Balance > math.MaxInt64-amount {
			return nil, fmt.Errorf("%w: crediting %d to account %d overflows", ErrInvalidAmount, amount, accountID)
		}
		newBalance = snapshot.Balance + amount
	}

	version, err := writer.Accounts.UpdateBalanceIfVersion(ctx, accountID, newBalance, snapshot.Version)
	if err != nil {
		return nil, fmt.Errorf("write account %d: %w", accountID, storeError(err))
	}

	entry, err := writer.Transactions.Append(ctx, &sqlconfig.TransactionCreate{
		IBAN:   snapshot.IBAN,
		Type:   t,
		Amount: amount,
	})
	if err != nil {
		return nil, fmt.Errorf("append %s entry for account %d: %w", t, accountID, storeError(err))
	}
	writer.RecordCreated(EntityTransaction, entry.ID, map[string]any{
		"iban":   entry.IBAN,
		"type":   string(entry.Type),
		"amount": entry.Amount,
	})

	updated := *snapshot
	updated.Balance = newBalance
	updated.Version = version
	return &updated, nil
}

package memory

import (
	"context"

	"github.com/carson-networks/ledger-server/internal/storage/sqlconfig"
)

var (
	_ sqlconfig.IAccountTable     = unitAccounts{}
	_ sqlconfig.ITransactionTable = unitTransactions{}
	_ sqlconfig.IAccountTable     = autoAccounts{}
	_ sqlconfig.ITransactionTable = autoTransactions{}
)

type unitAccounts struct {
	unit *Unit
}

func (t unitAccounts) FindByID(ctx context.Context, id int64) (*sqlconfig.Account, error) {
	return t.unit.findByID(ctx, id)
}

func (t unitAccounts) FindByIBAN(ctx context.Context, iban string) (*sqlconfig.Account, error) {
	return t.unit.findByIBAN(ctx, iban)
}

func (t unitAccounts) Insert(ctx context.Context, create *sqlconfig.AccountCreate) (*sqlconfig.Account, error) {
	return t.unit.insert(ctx, create)
}

func (t unitAccounts) List(ctx context.Context, filter *sqlconfig.AccountFilter) ([]*sqlconfig.Account, error) {
	return t.unit.listAccounts(ctx, filter)
}

func (t unitAccounts) UpdateBalanceIfVersion(ctx context.Context, id int64, balance int64, expectedVersion int64) (int64, error) {
	return t.unit.updateBalanceIfVersion(ctx, id, balance, expectedVersion)
}

type unitTransactions struct {
	unit *Unit
}

func (t unitTransactions) Append(ctx context.Context, create *sqlconfig.TransactionCreate) (*sqlconfig.Transaction, error) {
	return t.unit.appendEntry(ctx, create)
}

func (t unitTransactions) List(ctx context.Context, filter *sqlconfig.TransactionFilter) ([]*sqlconfig.Transaction, error) {
	return t.unit.listTransactions(ctx, filter)
}

// autoCommit runs fn in a fresh unit and commits it when fn succeeds.
func autoCommit[T any](ctx context.Context, s *Store, fn func(u *Unit) (T, error)) (T, error) {
	var zero T
	u, err := s.Begin(ctx)
	if err != nil {
		return zero, err
	}
	result, err := fn(u)
	if err != nil {
		_ = u.Rollback(ctx)
		return zero, err
	}
	if err := u.Commit(ctx); err != nil {
		return zero, err
	}
	return result, nil
}

type autoAccounts struct {
	store *Store
}

func (t autoAccounts) FindByID(ctx context.Context, id int64) (*sqlconfig.Account, error) {
	return autoCommit(ctx, t.store, func(u *Unit) (*sqlconfig.Account, error) {
		return u.findByID(ctx, id)
	})
}

func (t autoAccounts) FindByIBAN(ctx context.Context, iban string) (*sqlconfig.Account, error) {
	return autoCommit(ctx, t.store, func(u *Unit) (*sqlconfig.Account, error) {
		return u.findByIBAN(ctx, iban)
	})
}

func (t autoAccounts) Insert(ctx context.Context, create *sqlconfig.AccountCreate) (*sqlconfig.Account, error) {
	return autoCommit(ctx, t.store, func(u *Unit) (*sqlconfig.Account, error) {
		return u.insert(ctx, create)
	})
}

func (t autoAccounts) List(ctx context.Context, filter *sqlconfig.AccountFilter) ([]*sqlconfig.Account, error) {
	return autoCommit(ctx, t.store, func(u *Unit) ([]*sqlconfig.Account, error) {
		return u.listAccounts(ctx, filter)
	})
}

func (t autoAccounts) UpdateBalanceIfVersion(ctx context.Context, id int64, balance int64, expectedVersion int64) (int64, error) {
	return autoCommit(ctx, t.store, func(u *Unit) (int64, error) {
		return u.updateBalanceIfVersion(ctx, id, balance, expectedVersion)
	})
}

type autoTransactions struct {
	store *Store
}

func (t autoTransactions) Append(ctx context.Context, create *sqlconfig.TransactionCreate) (*sqlconfig.Transaction, error) {
	return autoCommit(ctx, t.store, func(u *Unit) (*sqlconfig.Transaction, error) {
		return u.appendEntry(ctx, create)
	})
}

func (t autoTransactions) List(ctx context.Context, filter *sqlconfig.TransactionFilter) ([]*sqlconfig.Transaction, error) {
	return autoCommit(ctx, t.store, func(u *Unit) ([]*sqlconfig.Transaction, error) {
		return u.listTransactions(ctx, filter)
	})
}

package sqlconfig

import (
	"context"
	"time"

	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dialect"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/bob/dialect/psql/um"
	"github.com/stephenafamo/scan"
)

const accountsTableName = "accounts"

var accountColumns = []any{"id", "user_id", "iban", "balance", "version", "created_at", "updated_at"}

type accountRow struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	IBAN      string    `db:"iban"`
	Balance   int64     `db:"balance"`
	Version   int64     `db:"version"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// AccountsTable provides access to the accounts table.
type AccountsTable struct {
	exec bob.Executor
}

// Ensure AccountsTable implements IAccountTable at compile time.
var _ IAccountTable = (*AccountsTable)(nil)

// NewAccountsTable creates an AccountsTable bound to a database handle or an open transaction.
func NewAccountsTable(exec bob.Executor) *AccountsTable {
	return &AccountsTable{exec: exec}
}

// FindByID retrieves an account by primary key.
func (t *AccountsTable) FindByID(ctx context.Context, id int64) (*Account, error) {
	return t.findOne(ctx, sm.Where(psql.Quote("id").EQ(psql.Arg(id))))
}

// FindByIBAN retrieves an account by its unique IBAN.
func (t *AccountsTable) FindByIBAN(ctx context.Context, iban string) (*Account, error) {
	return t.findOne(ctx, sm.Where(psql.Quote("iban").EQ(psql.Arg(iban))))
}

func (t *AccountsTable) findOne(ctx context.Context, where bob.Mod[*dialect.SelectQuery]) (*Account, error) {
	q := psql.Select(
		sm.Columns(accountColumns...),
		sm.From(accountsTableName),
		where,
	)
	row, err := bob.One(ctx, t.exec, q, scan.StructMapper[accountRow]())
	if err != nil {
		return nil, TranslateError(err)
	}
	return rowToAccount(row), nil
}

// Insert creates a new account and returns the stored row.
func (t *AccountsTable) Insert(ctx context.Context, create *AccountCreate) (*Account, error) {
	q := psql.Insert(
		im.Into(accountsTableName, "user_id", "iban", "balance"),
		im.Values(psql.Arg(create.UserID, create.IBAN, create.Balance)),
		im.Returning(accountColumns...),
	)
	row, err := bob.One(ctx, t.exec, q, scan.StructMapper[accountRow]())
	if err != nil {
		return nil, TranslateError(err)
	}
	return rowToAccount(row), nil
}

// List returns accounts ordered by id. When a limit is set one extra row is
// fetched so callers can tell whether another page exists.
func (t *AccountsTable) List(ctx context.Context, filter *AccountFilter) ([]*Account, error) {
	queryMods := []bob.Mod[*dialect.SelectQuery]{
		sm.Columns(accountColumns...),
		sm.From(accountsTableName),
	}
	if filter != nil {
		if filter.Limit > 0 {
			queryMods = append(queryMods, sm.Limit(filter.Limit+1))
		}
		if filter.Offset > 0 {
			queryMods = append(queryMods, sm.Offset(filter.Offset))
		}
	}
	queryMods = append(queryMods, sm.OrderBy(psql.Quote("id")).Asc())

	rows, err := bob.All(ctx, t.exec, psql.Select(queryMods...), scan.StructMapper[accountRow]())
	if err != nil {
		return nil, TranslateError(err)
	}
	result := make([]*Account, len(rows))
	for i, row := range rows {
		result[i] = rowToAccount(row)
	}
	return result, nil
}

// UpdateBalanceIfVersion is the compare-and-swap on the version column.
func (t *AccountsTable) UpdateBalanceIfVersion(ctx context.Context, id int64, balance int64, expectedVersion int64) (int64, error) {
	q := psql.Update(
		um.Table(accountsTableName),
		um.SetCol("balance").ToArg(balance),
		um.SetCol("version").To(psql.Raw("version + 1")),
		um.SetCol("updated_at").To(psql.Raw("now()")),
		um.Where(psql.Quote("id").EQ(psql.Arg(id))),
		um.Where(psql.Quote("version").EQ(psql.Arg(expectedVersion))),
	)
	res, err := bob.Exec(ctx, t.exec, q)
	if err != nil {
		return 0, TranslateError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, TranslateError(err)
	}
	if affected == 0 {
		return 0, ErrVersionConflict
	}
	return expectedVersion + 1, nil
}

func rowToAccount(row accountRow) *Account {
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

package sqlconfig

import (
	"context"
	"time"

	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dialect"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/scan"
)

const transactionsTableName = "transactions"

var transactionColumns = []any{"id", "iban", "type", "amount", "created_at"}

type transactionRow struct {
	ID        int64     `db:"id"`
	IBAN      string    `db:"iban"`
	Type      string    `db:"type"`
	Amount    int64     `db:"amount"`
	CreatedAt time.Time `db:"created_at"`
}

var _ ITransactionTable = (*TransactionsTable)(nil)

type TransactionsTable struct {
	exec bob.Executor
}

func NewTransactionsTable(exec bob.Executor) *TransactionsTable {
	return &TransactionsTable{exec: exec}
}

// Append inserts a ledger entry; id and created_at are assigned by the database.
func (t *TransactionsTable) Append(ctx context.Context, create *TransactionCreate) (*Transaction, error) {
	q := psql.Insert(
		im.Into(transactionsTableName, "iban", "type", "amount"),
		im.Values(psql.Arg(create.IBAN, string(create.Type), create.Amount)),
		im.Returning(transactionColumns...),
	)
	row, err := bob.One(ctx, t.exec, q, scan.StructMapper[transactionRow]())
	if err != nil {
		return nil, TranslateError(err)
	}
	return rowToTransaction(row), nil
}

// List returns transactions matching the filter, newest first. Nil filter returns all.
func (t *TransactionsTable) List(ctx context.Context, filter *TransactionFilter) ([]*Transaction, error) {
	queryMods := []bob.Mod[*dialect.SelectQuery]{
		sm.Columns(transactionColumns...),
		sm.From(transactionsTableName),
	}
	if filter != nil {
		if iban, ok := filter.IBAN.Get(); ok {
			queryMods = append(queryMods, sm.Where(psql.Quote("iban").EQ(psql.Arg(iban))))
		}
		if maxCreationTime, ok := filter.MaxCreationTime.Get(); ok {
			queryMods = append(queryMods, sm.Where(psql.Quote("created_at").LTE(psql.Arg(maxCreationTime))))
		}
		if filter.Limit > 0 {
			queryMods = append(queryMods, sm.Limit(filter.Limit+1))
		}
		if filter.Offset > 0 {
			queryMods = append(queryMods, sm.Offset(filter.Offset))
		}
	}
	queryMods = append(queryMods,
		sm.OrderBy(psql.Quote("created_at")).Desc(),
		sm.OrderBy(psql.Quote("id")).Desc(),
	)

	rows, err := bob.All(ctx, t.exec, psql.Select(queryMods...), scan.StructMapper[transactionRow]())
	if err != nil {
		return nil, TranslateError(err)
	}
	result := make([]*Transaction, len(rows))
	for i, row := range rows {
		result[i] = rowToTransaction(row)
	}
	return result, nil
}

func rowToTransaction(row transactionRow) *Transaction {
	return &Transaction{
		ID:        row.ID,
		IBAN:      row.IBAN,
		Type:      TransactionType(row.Type),
		Amount:    row.Amount,
		CreatedAt: row.CreatedAt,
	}
}

package storage

import (
	"context"

	"github.com/carson-networks/ledger-server/internal/storage/sqlconfig"
)

// Tx is the commit boundary behind a Writer.
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// CreatedEntity is a row written inside a unit, reported once the unit commits.
type CreatedEntity struct {
	Name string
	ID   int64
	Data map[string]any
}

// Writer is one unit of work. Every table it exposes is bound to the same
// transaction, so either all of its writes become visible or none do.
type Writer struct {
	tx           Tx
	Accounts     sqlconfig.IAccountTable
	Transactions sqlconfig.ITransactionTable
	created      []CreatedEntity
}

func NewWriter(tx Tx, accounts sqlconfig.IAccountTable, transactions sqlconfig.ITransactionTable) *Writer {
	return &Writer{
		tx:           tx,
		Accounts:     accounts,
		Transactions: transactions,
	}
}

func (w *Writer) RecordCreated(name string, id int64, data map[string]any) {
	w.created = append(w.created, CreatedEntity{Name: name, ID: id, Data: data})
}

func (w *Writer) Created() []CreatedEntity {
	return w.created
}

func (w *Writer) Commit(ctx context.Context) error {
	return sqlconfig.TranslateError(w.tx.Commit(ctx))
}

func (w *Writer) Rollback(ctx context.Context) error {
	return sqlconfig.TranslateError(w.tx.Rollback(ctx))
}

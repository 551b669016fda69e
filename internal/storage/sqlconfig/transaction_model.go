package sqlconfig

import (
	"context"
	"time"

	"github.com/aarondl/opt/omit"
)

// TransactionType is the kind of balance change a ledger entry records.
type TransactionType string

const (
	TransactionTypeTopUp      TransactionType = "TOP_UP"
	TransactionTypeWithdrawal TransactionType = "WITHDRAWAL"
	TransactionTypeTransfer   TransactionType = "TRANSFER"
	TransactionTypeReceive    TransactionType = "RECEIVE"
)

// Transaction represents a ledger entry. Entries are never updated or deleted.
type Transaction struct {
	ID        int64
	IBAN      string
	Type      TransactionType
	Amount    int64
	CreatedAt time.Time
}

// TransactionCreate is the input for appending a ledger entry.
type TransactionCreate struct {
	IBAN   string
	Type   TransactionType
	Amount int64
}

// TransactionFilter specifies filters for listing transactions.
type TransactionFilter struct {
	IBAN            omit.Val[string]
	Limit           int
	Offset          int
	MaxCreationTime omit.Val[time.Time]
}

// ITransactionTable is the append-only ledger. There is deliberately no
// update or delete operation.
//
//go:generate mockery --name ITransactionTable --output mock_ITransactionTable.go
type ITransactionTable interface {
	Append(ctx context.Context, create *TransactionCreate) (*Transaction, error)
	List(ctx context.Context, filter *TransactionFilter) ([]*Transaction, error)
}

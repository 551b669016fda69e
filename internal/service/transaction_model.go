package service

import (
	"time"

	"github.com/carson-networks/ledger-server/internal/storage/sqlconfig"
)

// Transaction represents a ledger entry in the service layer.
type Transaction struct {
	ID        int64
	IBAN      string
	Type      sqlconfig.TransactionType
	Amount    int64
	CreatedAt time.Time
}

// TransferResult holds both balances after a committed transfer.
type TransferResult struct {
	SenderBalance   int64
	ReceiverBalance int64
}

// TransactionCursor identifies a position in a paginated result set
// and carries the limit and maxCreationTime so subsequent pages are consistent.
type TransactionCursor struct {
	Position        int
	Limit           int
	MaxCreationTime time.Time
}

func transactionFromStorage(row *sqlconfig.Transaction) Transaction {
	return Transaction{
		ID:        row.ID,
		IBAN:      row.IBAN,
		Type:      row.Type,
		Amount:    row.Amount,
		CreatedAt: row.CreatedAt,
	}
}

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/aarondl/opt/omit"
	"github.com/shopspring/decimal"

	"github.com/carson-networks/ledger-server/internal/money"
	"github.com/carson-networks/ledger-server/internal/observability"
	"github.com/carson-networks/ledger-server/internal/operator/actions"
	"github.com/carson-networks/ledger-server/internal/storage"
	"github.com/carson-networks/ledger-server/internal/storage/sqlconfig"
)

const defaultLimit = 20

// TransactionService moves money between and into or out of accounts.
// Amounts arrive in major units and are converted to minor units here, once.
type TransactionService struct {
	storage  *storage.Storage
	operator actionProcessor
}

// NewTransactionService creates a new TransactionService.
func NewTransactionService(store *storage.Storage, op actionProcessor) *TransactionService {
	return &TransactionService{storage: store, operator: op}
}

// TopUp credits amount to the account and returns the updated account.
func (s *TransactionService) TopUp(ctx context.Context, accountID int64, amount decimal.Decimal) (*Account, error) {
	return s.mutate(ctx, accountID, amount, sqlconfig.TransactionTypeTopUp)
}

// Withdraw debits amount from the account and returns the updated account.
func (s *TransactionService) Withdraw(ctx context.Context, accountID int64, amount decimal.Decimal) (*Account, error) {
	return s.mutate(ctx, accountID, amount, sqlconfig.TransactionTypeWithdrawal)
}

func (s *TransactionService) mutate(ctx context.Context, accountID int64, amount decimal.Decimal, t sqlconfig.TransactionType) (*Account, error) {
	minor, err := toMinorUnits(amount)
	if err != nil {
		return nil, err
	}

	action := &actions.MutateBalance{AccountID: accountID, Amount: minor, Type: t}
	if err := s.operator.Process(ctx, action); err != nil {
		return nil, err
	}
	observability.AddVolume(string(t), minor)
	return accountFromStorage(action.Account), nil
}

// Transfer moves amount from sender to receiver as one unit.
func (s *TransactionService) Transfer(ctx context.Context, senderID, receiverID int64, amount decimal.Decimal) (*TransferResult, error) {
	minor, err := toMinorUnits(amount)
	if err != nil {
		return nil, err
	}

	transfer := actions.NewTransfer(senderID, receiverID, minor)
	if err := s.operator.Process(ctx, transfer); err != nil {
		return nil, err
	}
	observability.AddVolume(string(sqlconfig.TransactionTypeTransfer), minor)
	return &TransferResult{
		SenderBalance:   transfer.SenderBalance,
		ReceiverBalance: transfer.ReceiverBalance,
	}, nil
}

// ListTransactions returns a page of ledger entries, newest first, optionally
// restricted to one IBAN.
func (s *TransactionService) ListTransactions(ctx context.Context, iban string, cursor *TransactionCursor) ([]Transaction, *TransactionCursor, error) {
	limit := defaultLimit
	offset := 0
	filter := &sqlconfig.TransactionFilter{}
	if iban != "" {
		filter.IBAN = omit.From(iban)
	}
	if cursor != nil {
		limit = cursor.Limit
		offset = cursor.Position
		if !cursor.MaxCreationTime.IsZero() {
			filter.MaxCreationTime = omit.From(cursor.MaxCreationTime)
		}
	}
	filter.Limit = limit
	filter.Offset = offset

	rows, err := s.storage.Transactions.List(ctx, filter)
	if err != nil {
		return nil, nil, lookupError(err)
	}

	var nextCursor *TransactionCursor
	if len(rows) > limit {
		rows = rows[:limit]

		var cursorMaxCreationTime time.Time
		if maxCreationTime, ok := filter.MaxCreationTime.Get(); ok {
			cursorMaxCreationTime = maxCreationTime
		} else {
			cursorMaxCreationTime = rows[0].CreatedAt
		}

		nextCursor = &TransactionCursor{
			Position:        offset + limit,
			Limit:           limit,
			MaxCreationTime: cursorMaxCreationTime,
		}
	}

	transactions := make([]Transaction, len(rows))
	for i, row := range rows {
		transactions[i] = transactionFromStorage(row)
	}
	return transactions, nextCursor, nil
}

func toMinorUnits(amount decimal.Decimal) (int64, error) {
	minor, err := money.ToPositiveMinorUnits(amount)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", actions.ErrInvalidAmount, err)
	}
	return minor, nil
}

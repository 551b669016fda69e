package transaction

import (
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/shopspring/decimal"

	"github.com/carson-networks/ledger-server/internal/money"
	"github.com/carson-networks/ledger-server/internal/service"
)

// Transaction is the API response model for a ledger entry.
// It is used only for responses, not for request bodies.
type Transaction struct {
	ID        int64  `json:"id" doc:"Ledger entry id"`
	IBAN      string `json:"iban" doc:"IBAN of the account the entry describes"`
	Type      string `json:"type" enum:"TOP_UP,WITHDRAWAL,TRANSFER,RECEIVE" doc:"Kind of balance change"`
	Amount    string `json:"amount" doc:"Decimal amount with two places"`
	CreatedAt string `json:"createdAt" doc:"RFC3339 commit time"`
}

func fromService(tx service.Transaction) Transaction {
	return Transaction{
		ID:        tx.ID,
		IBAN:      tx.IBAN,
		Type:      string(tx.Type),
		Amount:    money.Format(tx.Amount),
		CreatedAt: tx.CreatedAt.Format(time.RFC3339Nano),
	}
}

// parseAmount reads a major-unit decimal amount. Rounding to minor units
// happens in the service.
func parseAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, huma.NewError(http.StatusBadRequest, "invalid amount", err)
	}
	if !amount.IsPositive() {
		return decimal.Decimal{}, huma.NewError(http.StatusBadRequest, "amount must be greater than zero")
	}
	return amount, nil
}

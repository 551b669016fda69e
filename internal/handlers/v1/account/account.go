package account

import (
	"time"

	"github.com/carson-networks/ledger-server/internal/money"
	"github.com/carson-networks/ledger-server/internal/service"
)

// Account is the API response model for an account.
type Account struct {
	ID        int64  `json:"id" doc:"Account id"`
	UserID    int64  `json:"userId" doc:"Owning user id"`
	IBAN      string `json:"iban" doc:"Account IBAN"`
	Balance   string `json:"balance" doc:"Decimal balance with two places"`
	CreatedAt string `json:"createdAt" doc:"RFC3339 creation time"`
	UpdatedAt string `json:"updatedAt" doc:"RFC3339 time of the last balance change"`
}

// FromService renders a service account for responses.
func FromService(a *service.Account) Account {
	return Account{
		ID:        a.ID,
		UserID:    a.UserID,
		IBAN:      a.IBAN,
		Balance:   money.Format(a.Balance),
		CreatedAt: a.CreatedAt.Format(time.RFC3339),
		UpdatedAt: a.UpdatedAt.Format(time.RFC3339),
	}
}

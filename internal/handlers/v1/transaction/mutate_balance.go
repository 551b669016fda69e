package transaction

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/shopspring/decimal"

	"github.com/carson-networks/ledger-server/internal/handlers/v1/account"
	"github.com/carson-networks/ledger-server/internal/handlers/v1/httperr"
	"github.com/carson-networks/ledger-server/internal/logging"
	"github.com/carson-networks/ledger-server/internal/retry"
	"github.com/carson-networks/ledger-server/internal/service"
)

// MutateBalanceBody is the request body for top-up and withdrawal.
type MutateBalanceBody struct {
	AccountID int64  `json:"accountId" minimum:"1" doc:"Account id"`
	Amount    string `json:"amount" minLength:"1" doc:"Decimal amount in major units, rounded half-up to two places"`
}

type MutateBalanceInput struct {
	Body MutateBalanceBody
}

type MutateBalanceOutput struct {
	Body account.Account
}

// balanceMutator is the interface for single-account balance changes.
type balanceMutator interface {
	TopUp(ctx context.Context, accountID int64, amount decimal.Decimal) (*service.Account, error)
	Withdraw(ctx context.Context, accountID int64, amount decimal.Decimal) (*service.Account, error)
}

// MutateBalanceHandler handles POST /v1/transactions/top-up and
// POST /v1/transactions/withdraw.
type MutateBalanceHandler struct {
	TransactionService balanceMutator
	Retry              retry.Policy
}

func NewMutateBalanceHandler(svc balanceMutator, policy retry.Policy) *MutateBalanceHandler {
	return &MutateBalanceHandler{TransactionService: svc, Retry: policy}
}

func (h *MutateBalanceHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "top-up",
		Method:      http.MethodPost,
		Path:        "/v1/transactions/top-up",
		Summary:     "Add money to the account",
		Description: "Credits the account and appends a TOP_UP ledger entry.",
		Tags:        []string{"Transactions"},
	}, h.handle("topUp", h.TransactionService.TopUp))

	huma.Register(api, huma.Operation{
		OperationID: "withdraw",
		Method:      http.MethodPost,
		Path:        "/v1/transactions/withdraw",
		Summary:     "Withdraw money from the account",
		Description: "Debits the account and appends a WITHDRAWAL ledger entry. Fails when the balance is too low.",
		Tags:        []string{"Transactions"},
	}, h.handle("withdraw", h.TransactionService.Withdraw))
}

type mutateFunc func(ctx context.Context, accountID int64, amount decimal.Decimal) (*service.Account, error)

func (h *MutateBalanceHandler) handle(name string, mutate mutateFunc) func(context.Context, *MutateBalanceInput) (*MutateBalanceOutput, error) {
	return func(ctx context.Context, input *MutateBalanceInput) (*MutateBalanceOutput, error) {
		logData := logging.GetLogData(ctx)

		amount, err := parseAmount(input.Body.Amount)
		if err != nil {
			return nil, err
		}

		attempts := 0
		var stopTimer func()
		if logData != nil {
			logData.AddData("accountID", input.Body.AccountID)
			stopTimer = logData.AddTiming(name + "Ms")
		}
		updated, err := retry.Do(ctx, h.Retry, func(ctx context.Context) (*service.Account, error) {
			attempts++
			return mutate(ctx, input.Body.AccountID, amount)
		})
		if stopTimer != nil {
			stopTimer()
			logData.AddData("attempts", attempts)
		}
		if err != nil {
			return nil, httperr.FromService(err, "failed to "+name)
		}

		return &MutateBalanceOutput{Body: account.FromService(updated)}, nil
	}
}

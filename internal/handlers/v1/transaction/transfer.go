package transaction

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/shopspring/decimal"

	"github.com/carson-networks/ledger-server/internal/handlers/v1/httperr"
	"github.com/carson-networks/ledger-server/internal/logging"
	"github.com/carson-networks/ledger-server/internal/money"
	"github.com/carson-networks/ledger-server/internal/retry"
	"github.com/carson-networks/ledger-server/internal/service"
)

type TransferBody struct {
	SenderAccountID   int64  `json:"senderAccountId" minimum:"1" doc:"Account to debit"`
	ReceiverAccountID int64  `json:"receiverAccountId" minimum:"1" doc:"Account to credit"`
	Amount            string `json:"amount" minLength:"1" doc:"Decimal amount in major units, rounded half-up to two places"`
}

type TransferInput struct {
	Body TransferBody
}

type TransferResponseBody struct {
	SenderBalance   string `json:"senderBalance" doc:"Sender balance after the transfer"`
	ReceiverBalance string `json:"receiverBalance" doc:"Receiver balance after the transfer"`
}

type TransferOutput struct {
	Body TransferResponseBody
}

type transferrer interface {
	Transfer(ctx context.Context, senderID, receiverID int64, amount decimal.Decimal) (*service.TransferResult, error)
}

// TransferHandler handles POST /v1/transactions/transfer.
type TransferHandler struct {
	TransactionService transferrer
	Retry              retry.Policy
}

func NewTransferHandler(svc transferrer, policy retry.Policy) *TransferHandler {
	return &TransferHandler{TransactionService: svc, Retry: policy}
}

func (h *TransferHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "transfer",
		Method:      http.MethodPost,
		Path:        "/v1/transactions/transfer",
		Summary:     "Transfer money from one account to another",
		Description: "Debits the sender and credits the receiver as one unit. Sender and receiver must differ.",
		Tags:        []string{"Transactions"},
	}, h.handle)
}

func (h *TransferHandler) handle(ctx context.Context, input *TransferInput) (*TransferOutput, error) {
	logData := logging.GetLogData(ctx)

	amount, err := parseAmount(input.Body.Amount)
	if err != nil {
		return nil, err
	}

	attempts := 0
	var stopTimer func()
	if logData != nil {
		logData.AddData("senderAccountID", input.Body.SenderAccountID)
		logData.AddData("receiverAccountID", input.Body.ReceiverAccountID)
		stopTimer = logData.AddTiming("transferMs")
	}
	result, err := retry.Do(ctx, h.Retry, func(ctx context.Context) (*service.TransferResult, error) {
		attempts++
		return h.TransactionService.Transfer(ctx, input.Body.SenderAccountID, input.Body.ReceiverAccountID, amount)
	})
	if stopTimer != nil {
		stopTimer()
		logData.AddData("attempts", attempts)
	}
	if err != nil {
		return nil, httperr.FromService(err, "failed to transfer")
	}

	return &TransferOutput{Body: TransferResponseBody{
		SenderBalance:   money.Format(result.SenderBalance),
		ReceiverBalance: money.Format(result.ReceiverBalance),
	}}, nil
}

package account

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/carson-networks/ledger-server/internal/handlers/v1/httperr"
	"github.com/carson-networks/ledger-server/internal/logging"
	"github.com/carson-networks/ledger-server/internal/service"
)

type GetAccountInput struct {
	ID int64 `path:"id" minimum:"1" doc:"Account id"`
}

type GetAccountOutput struct {
	Body Account
}

type accountGetter interface {
	GetAccount(ctx context.Context, id int64) (*service.Account, error)
}

// GetAccountHandler handles GET /v1/accounts/{id}.
type GetAccountHandler struct {
	AccountService accountGetter
}

func NewGetAccountHandler(svc accountGetter) *GetAccountHandler {
	return &GetAccountHandler{AccountService: svc}
}

func (h *GetAccountHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "get-account",
		Method:      http.MethodGet,
		Path:        "/v1/accounts/{id}",
		Summary:     "Get account",
		Description: "Returns the account with the given id.",
		Tags:        []string{"Accounts"},
	}, h.handle)
}

func (h *GetAccountHandler) handle(ctx context.Context, input *GetAccountInput) (*GetAccountOutput, error) {
	if logData := logging.GetLogData(ctx); logData != nil {
		logData.AddData("accountID", input.ID)
	}

	found, err := h.AccountService.GetAccount(ctx, input.ID)
	if err != nil {
		return nil, httperr.FromService(err, "failed to get account")
	}
	return &GetAccountOutput{Body: FromService(found)}, nil
}

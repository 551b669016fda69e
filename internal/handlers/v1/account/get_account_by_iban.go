package account

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/carson-networks/ledger-server/internal/handlers/v1/httperr"
	"github.com/carson-networks/ledger-server/internal/logging"
	"github.com/carson-networks/ledger-server/internal/service"
)

type GetAccountByIBANInput struct {
	IBAN string `path:"iban" minLength:"1" maxLength:"34" doc:"Account IBAN"`
}

type accountByIBANGetter interface {
	GetAccountByIBAN(ctx context.Context, iban string) (*service.Account, error)
}

// GetAccountByIBANHandler handles GET /v1/accounts/by-iban/{iban}.
type GetAccountByIBANHandler struct {
	AccountService accountByIBANGetter
}

func NewGetAccountByIBANHandler(svc accountByIBANGetter) *GetAccountByIBANHandler {
	return &GetAccountByIBANHandler{AccountService: svc}
}

func (h *GetAccountByIBANHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "get-account-by-iban",
		Method:      http.MethodGet,
		Path:        "/v1/accounts/by-iban/{iban}",
		Summary:     "Get account by IBAN",
		Description: "Returns the account registered under the given IBAN.",
		Tags:        []string{"Accounts"},
	}, h.handle)
}

func (h *GetAccountByIBANHandler) handle(ctx context.Context, input *GetAccountByIBANInput) (*GetAccountOutput, error) {
	if logData := logging.GetLogData(ctx); logData != nil {
		logData.AddData("iban", input.IBAN)
	}

	found, err := h.AccountService.GetAccountByIBAN(ctx, input.IBAN)
	if err != nil {
		return nil, httperr.FromService(err, "failed to get account")
	}
	return &GetAccountOutput{Body: FromService(found)}, nil
}

// Package httperr maps ledger errors onto HTTP problem responses.
package httperr

import (
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/carson-networks/ledger-server/internal/operator/actions"
	"github.com/carson-networks/ledger-server/internal/service"
)

// Status returns the HTTP status for err.
func Status(err error) int {
	switch {
	case errors.Is(err, actions.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, actions.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity
	case errors.Is(err, actions.ErrInvalidTransfer):
		return http.StatusForbidden
	case errors.Is(err, actions.ErrInvalidAmount):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidAccount):
		return http.StatusUnprocessableEntity
	case errors.Is(err, actions.ErrConcurrentModification),
		errors.Is(err, actions.ErrDuplicateIBAN):
		return http.StatusConflict
	case errors.Is(err, actions.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// FromService wraps err in a huma error with the mapped status. Internal
// errors keep msg only so store details do not leak to clients.
func FromService(err error, msg string) error {
	status := Status(err)
	if status == http.StatusInternalServerError {
		return huma.NewError(status, msg)
	}
	return huma.NewError(status, msg+": "+err.Error())
}

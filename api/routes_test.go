package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carson-networks/ledger-server/internal/logging"
	"github.com/carson-networks/ledger-server/internal/operator"
	"github.com/carson-networks/ledger-server/internal/operator/actions"
	"github.com/carson-networks/ledger-server/internal/retry"
	"github.com/carson-networks/ledger-server/internal/service"
	"github.com/carson-networks/ledger-server/internal/storage"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := logging.SetupLogging()
	logger.Out = io.Discard
	store := storage.NewMemoryStorage()
	op := operator.NewOperator(store.Beginner, logging.NewEntityLogger(logger, 16), time.Second, logger)

	rest := &Rest{
		Logger:  logger,
		Service: service.NewService(store, op),
		Storage: store,
		Retry:   retry.Policy{MaxAttempts: 3, Retryable: actions.IsTransient},
	}
	server := httptest.NewServer(rest.Handler())
	t.Cleanup(server.Close)
	return server
}

func postJSON(t *testing.T, server *httptest.Server, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(server.URL+path, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func TestRoutes_Status(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/status")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRoutes_Metrics(t *testing.T) {
	server := newTestServer(t)
	postJSON(t, server, "/v1/accounts", map[string]any{"userId": 1, "iban": "GB82WEST12345698765432"})

	resp, err := http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), "ledger_units_total"))
}

func TestRoutes_TransferFlow(t *testing.T) {
	server := newTestServer(t)

	resp, sender := postJSON(t, server, "/v1/accounts", map[string]any{"userId": 1, "iban": "GB82WEST12345698765432"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp, receiver := postJSON(t, server, "/v1/accounts", map[string]any{"userId": 2, "iban": "DE89370400440532013000"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = postJSON(t, server, "/v1/accounts", map[string]any{"userId": 3, "iban": "GB82WEST12345698765432"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, topUp := postJSON(t, server, "/v1/transactions/top-up", map[string]any{"accountId": sender["id"], "amount": "100.00"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "100.00", topUp["balance"])

	resp, result := postJSON(t, server, "/v1/transactions/transfer", map[string]any{
		"senderAccountId":   sender["id"],
		"receiverAccountId": receiver["id"],
		"amount":            "25.00",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "75.00", result["senderBalance"])
	assert.Equal(t, "25.00", result["receiverBalance"])

	resp, _ = postJSON(t, server, "/v1/transactions/transfer", map[string]any{
		"senderAccountId":   sender["id"],
		"receiverAccountId": sender["id"],
		"amount":            "10.00",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = postJSON(t, server, "/v1/transactions/withdraw", map[string]any{"accountId": receiver["id"], "amount": "100.00"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, ledger := postJSON(t, server, "/v1/transactions/list", map[string]any{"iban": "GB82WEST12345698765432"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	entries, ok := ledger["transactions"].([]any)
	require.True(t, ok)
	assert.Len(t, entries, 2)

	byIBANResp, err := http.Get(server.URL + "/v1/accounts/by-iban/DE89370400440532013000")
	require.NoError(t, err)
	var byIBAN map[string]any
	require.NoError(t, json.NewDecoder(byIBANResp.Body).Decode(&byIBAN))
	byIBANResp.Body.Close()
	assert.Equal(t, http.StatusOK, byIBANResp.StatusCode)
	assert.Equal(t, receiver["id"], byIBAN["id"])
	assert.Equal(t, "25.00", byIBAN["balance"])

	getResp, err := http.Get(server.URL + "/v1/accounts/999")
	require.NoError(t, err)
	getResp.Body.Close()
	assert.Equal(t, http.StatusNotFound, getResp.StatusCode)
}

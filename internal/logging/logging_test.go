package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferedLogger() (*logrus.Logger, *bytes.Buffer) {
	logger := SetupLogging()
	buf := &bytes.Buffer{}
	logger.Out = buf
	return logger, buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var lines []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var fields map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &fields))
		lines = append(lines, fields)
	}
	return lines
}

func TestSetLevel(t *testing.T) {
	logger := SetupLogging()
	require.NoError(t, SetLevel(logger, "debug"))
	assert.Equal(t, logrus.DebugLevel, logger.Level)
	assert.Error(t, SetLevel(logger, "loud"))
}

func TestLogData_ContextRoundTrip(t *testing.T) {
	logData := NewLogData(SetupLogging())
	ctx := NewContext(context.Background(), logData)

	assert.Same(t, logData, GetLogData(ctx))
	assert.Nil(t, GetLogData(context.Background()))
}

func TestLogData_Fields(t *testing.T) {
	logger, buf := newBufferedLogger()
	logData := NewLogData(logger)

	logData.AddData("accountID", 7)
	stop := logData.AddTiming("transferMs")
	stop()
	logData.Log().Info("done")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, float64(7), lines[0]["accountID"])
	assert.Contains(t, lines[0], "transferMs")
	assert.Equal(t, "info", lines[0]["loglevel"])
}

func TestLoggingWrapper_LogsPerRequest(t *testing.T) {
	logger, buf := newBufferedLogger()
	var seen []*LogData
	handler := LoggingWrapper("Status", logger, func(w http.ResponseWriter, req *http.Request, logData *LogData) error {
		seen = append(seen, GetLogData(req.Context()))
		w.WriteHeader(http.StatusOK)
		return nil
	})

	handler(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/status", nil))
	handler(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/status", nil))

	require.Len(t, seen, 2)
	assert.NotSame(t, seen[0], seen[1])

	lines := decodeLines(t, buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "Handler.Status.Complete", lines[0]["msg"])
	assert.NotEqual(t, lines[0]["requestID"], lines[1]["requestID"])
}

type pingOutput struct {
	Body struct {
		OK bool `json:"ok"`
	}
}

func TestMiddleware(t *testing.T) {
	logger, buf := newBufferedLogger()
	_, api := humatest.New(t)
	api.UseMiddleware(Middleware(logger))

	huma.Register(api, huma.Operation{
		OperationID: "ping",
		Method:      http.MethodGet,
		Path:        "/ping",
	}, func(ctx context.Context, _ *struct{}) (*pingOutput, error) {
		logData := GetLogData(ctx)
		require.NotNil(t, logData)
		logData.AddData("pinged", true)
		out := &pingOutput{}
		out.Body.OK = true
		return out, nil
	})

	resp := api.Get("/ping")
	assert.Equal(t, http.StatusOK, resp.Code)

	var entry map[string]interface{}
	for _, line := range decodeLines(t, buf) {
		if line["msg"] == "Handler.ping.Complete" {
			entry = line
		}
	}
	require.NotNil(t, entry)
	assert.Equal(t, true, entry["pinged"])
	assert.Equal(t, float64(http.StatusOK), entry["status"])
	assert.NotEmpty(t, entry["requestID"])
}

func TestEntityLogger_DropsOnOverflow(t *testing.T) {
	logger, buf := newBufferedLogger()
	entityLogger := NewEntityLogger(logger, 1)

	entityLogger.Log("Account", 1, map[string]interface{}{"iban": "GB82WEST12345698765432"})
	entityLogger.Log("Account", 2, nil)
	assert.Equal(t, int64(1), entityLogger.Dropped())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		entityLogger.Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("entity logger did not stop")
	}

	var created, dropped int
	for _, line := range decodeLines(t, buf) {
		switch line["msg"] {
		case "Entity.Created":
			created++
			assert.Equal(t, "Account", line["entity"])
			assert.Equal(t, float64(1), line["entityID"])
		case "EntityLogger.Dropped":
			dropped++
		}
	}
	assert.Equal(t, 1, created)
	assert.Equal(t, 1, dropped)
}

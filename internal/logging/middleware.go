package logging

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/sirupsen/logrus"
)

// Middleware gives every huma operation its own LogData and writes one line
// per request once the handler has returned.
func Middleware(log *logrus.Logger) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		logData := NewLogData(log)
		logData.AddData("requestID", newRequestID())

		name := ctx.Method() + " " + ctx.URL().Path
		if op := ctx.Operation(); op != nil {
			name = op.OperationID
		}
		logData.AddData("operation", name)

		endTimer := logData.AddTiming("duration")
		next(huma.WithValue(ctx, logDataKey, logData))
		endTimer()

		status := ctx.Status()
		logData.AddData("status", status)
		switch {
		case status >= http.StatusInternalServerError:
			logData.Log().Errorf("Handler.%v.Error", name)
		case status >= http.StatusBadRequest:
			logData.Log().Warnf("Handler.%v.Rejected", name)
		default:
			logData.Log().Infof("Handler.%v.Complete", name)
		}
	}
}

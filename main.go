package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/carson-networks/ledger-server/api"
	"github.com/carson-networks/ledger-server/internal/config"
	"github.com/carson-networks/ledger-server/internal/logging"
	"github.com/carson-networks/ledger-server/internal/operator"
	"github.com/carson-networks/ledger-server/internal/operator/actions"
	"github.com/carson-networks/ledger-server/internal/retry"
	"github.com/carson-networks/ledger-server/internal/service"
	"github.com/carson-networks/ledger-server/internal/storage"
)

const entityLogBuffer = 1024

func main() {
	logger := logging.SetupLogging()
	logger.Info("ledger-server starting")

	envConfig, err := config.ProcessEnvironmentVariables()
	if err != nil {
		logger.WithError(err).Fatal("config.ProcessEnvironmentVariables")
		return
	}
	if err := logging.SetLevel(logger, envConfig.LogLevel); err != nil {
		logger.WithError(err).Fatal("logging.SetLevel")
		return
	}

	store, err := storage.New(envConfig)
	if err != nil {
		logger.WithError(err).Fatal("storage.New")
		return
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	entityLogger := logging.NewEntityLogger(logger, entityLogBuffer)
	op := operator.NewOperator(store.Beginner, entityLogger, envConfig.StoreTimeout, logger)
	svc := service.NewService(store, op)

	wg := sync.WaitGroup{}
	wg.Add(1)
	go func() {
		defer wg.Done()
		entityLogger.Run(ctx)
	}()

	httpRest := api.Rest{
		Logger:  logger,
		Port:    envConfig.HTTPPort,
		Service: svc,
		Storage: store,
		Retry: retry.Policy{
			MaxAttempts: envConfig.RetryMaxAttempts,
			BaseBackoff: envConfig.RetryBaseBackoff,
			Retryable:   actions.IsTransient,
		},
	}
	if err := httpRest.Serve(ctx); err != nil {
		logger.WithError(err).Error("HttpServer.Serve")
	}

	stop()
	wg.Wait()
	logger.WithFields(logrus.Fields{"droppedEntityLogs": entityLogger.Dropped()}).Info("ledger-server stopped")
}

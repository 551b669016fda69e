package operator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/carson-networks/ledger-server/internal/logging"
	"github.com/carson-networks/ledger-server/internal/observability"
	"github.com/carson-networks/ledger-server/internal/operator/actions"
	"github.com/carson-networks/ledger-server/internal/storage"
)

// EntityLog receives entities created by a committed unit. Implementations
// must not block.
type EntityLog interface {
	Log(name string, id int64, data map[string]interface{})
}

// Operator runs each action as one unit of work: begin, perform, then commit
// or roll back. It never retries; callers decide what to do with transient
// errors.
type Operator struct {
	beginner     storage.Beginner
	entityLog    EntityLog
	storeTimeout time.Duration
	logger       *logrus.Logger
}

func NewOperator(beginner storage.Beginner, entityLog EntityLog, storeTimeout time.Duration, logger *logrus.Logger) *Operator {
	return &Operator{
		beginner:     beginner,
		entityLog:    entityLog,
		storeTimeout: storeTimeout,
		logger:       logger,
	}
}

func (o *Operator) Process(ctx context.Context, action actions.IAction) (err error) {
	start := time.Now()
	defer func() {
		if finisher, ok := action.(actions.Finisher); ok {
			finisher.Finish(err)
		}
		outcome := "committed"
		if err != nil {
			outcome = actions.ErrorKind(err)
		}
		observability.ObserveUnit(action.Name(), outcome, time.Since(start))
	}()

	if err := action.Validate(); err != nil {
		return err
	}

	if o.storeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.storeTimeout)
		defer cancel()
	}

	writer, err := o.beginner.Begin(ctx)
	if err != nil {
		return unavailable("begin", err)
	}

	if err := action.Perform(ctx, writer); err != nil {
		// The unit's context may already be done, so roll back on a fresh one.
		if rbErr := writer.Rollback(context.Background()); rbErr != nil {
			o.logger.WithError(rbErr).WithField("action", action.Name()).Warn("Operator.Process.RollbackFailed")
		}
		return err
	}

	if err := writer.Commit(ctx); err != nil {
		_ = writer.Rollback(context.Background())
		o.logger.WithError(err).WithField("action", action.Name()).Error("Operator.Process.CommitOutcomeUnknown")
		return fmt.Errorf("%w: %w: commit: %w", actions.ErrCommitOutcomeUnknown, actions.ErrStoreUnavailable, err)
	}

	o.publishCreated(ctx, writer.Created())
	return nil
}

func (o *Operator) publishCreated(ctx context.Context, created []storage.CreatedEntity) {
	if logData := logging.GetLogData(ctx); logData != nil {
		logData.AddData("createdEntities", len(created))
	}
	if o.entityLog == nil {
		return
	}
	for _, entity := range created {
		o.entityLog.Log(entity.Name, entity.ID, entity.Data)
	}
}

func unavailable(stage string, err error) error {
	if errors.Is(err, actions.ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", actions.ErrStoreUnavailable, stage, err)
}

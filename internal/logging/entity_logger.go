package logging

import (
	"context"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

type entityRecord struct {
	name string
	id   int64
	data map[string]interface{}
}

// EntityLogger writes one line per entity created by a committed unit. It is
// fed from the request path, so Log never blocks: records that do not fit in
// the buffer are counted and dropped.
type EntityLogger struct {
	log     *logrus.Logger
	records chan entityRecord
	dropped atomic.Int64
}

func NewEntityLogger(log *logrus.Logger, buffer int) *EntityLogger {
	if buffer < 1 {
		buffer = 1
	}
	return &EntityLogger{
		log:     log,
		records: make(chan entityRecord, buffer),
	}
}

func (e *EntityLogger) Log(name string, id int64, data map[string]interface{}) {
	select {
	case e.records <- entityRecord{name: name, id: id, data: data}:
	default:
		e.dropped.Add(1)
	}
}

func (e *EntityLogger) Dropped() int64 {
	return e.dropped.Load()
}

// Run drains the buffer until ctx is done, then flushes what is left.
func (e *EntityLogger) Run(ctx context.Context) {
	for {
		select {
		case record := <-e.records:
			e.write(record)
		case <-ctx.Done():
			e.flush()
			return
		}
	}
}

func (e *EntityLogger) flush() {
	for {
		select {
		case record := <-e.records:
			e.write(record)
		default:
			if dropped := e.dropped.Load(); dropped > 0 {
				e.log.WithField("dropped", dropped).Warn("EntityLogger.Dropped")
			}
			return
		}
	}
}

func (e *EntityLogger) write(record entityRecord) {
	fields := make(logrus.Fields, len(record.data)+2)
	for key, value := range record.data {
		fields[key] = value
	}
	fields["entity"] = record.name
	fields["entityID"] = record.id
	e.log.WithFields(fields).Info("Entity.Created")
}

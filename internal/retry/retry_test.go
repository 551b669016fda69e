package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	errTransient = errors.New("transient")
	errFatal     = errors.New("fatal")
)

func testPolicy(attempts int) Policy {
	return Policy{
		MaxAttempts: attempts,
		BaseBackoff: time.Millisecond,
		Retryable:   func(err error) bool { return errors.Is(err, errTransient) },
	}
}

func TestDo_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	result, err := Do(context.Background(), testPolicy(3), func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errTransient
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, calls)
}

func TestDo_StopsAfterMaxAttempts(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), testPolicy(3), func(context.Context) (int, error) {
		calls++
		return 0, errTransient
	})

	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, 3, calls)
}

func TestDo_DoesNotRetryPermanentErrors(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), testPolicy(5), func(context.Context) (int, error) {
		calls++
		return 0, errFatal
	})

	assert.ErrorIs(t, err, errFatal)
	assert.Equal(t, 1, calls)
}

func TestDo_SingleAttempt(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), Policy{MaxAttempts: 1}, func(context.Context) (int, error) {
		calls++
		return 0, errTransient
	})

	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, 1, calls)
}

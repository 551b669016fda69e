package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessEnvironmentVariables_Defaults(t *testing.T) {
	env, err := ProcessEnvironmentVariables()
	require.NoError(t, err)

	assert.Equal(t, "localhost", env.PostgresAddress)
	assert.Equal(t, "5433", env.PostgresPort)
	assert.Equal(t, "postgres", env.PostgresDB)
	assert.Equal(t, "postgres", env.StorageDriver)
	assert.Equal(t, "9446", env.HTTPPort)
	assert.Equal(t, 5*time.Second, env.StoreTimeout)
	assert.Equal(t, 3, env.RetryMaxAttempts)
	assert.Equal(t, 20*time.Millisecond, env.RetryBaseBackoff)
}

func TestProcessEnvironmentVariables_Overrides(t *testing.T) {
	t.Setenv("POSTGRES_ADDRESS", "db.internal")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("STORE_TIMEOUT", "250ms")
	t.Setenv("RETRY_MAX_ATTEMPTS", "5")

	env, err := ProcessEnvironmentVariables()
	require.NoError(t, err)

	assert.Equal(t, "db.internal", env.PostgresAddress)
	assert.Equal(t, "memory", env.StorageDriver)
	assert.Equal(t, 250*time.Millisecond, env.StoreTimeout)
	assert.Equal(t, 5, env.RetryMaxAttempts)
}

func TestProcessEnvironmentVariables_Invalid(t *testing.T) {
	t.Run("unknown storage driver", func(t *testing.T) {
		t.Setenv("STORAGE_DRIVER", "sqlite")
		_, err := ProcessEnvironmentVariables()
		assert.Error(t, err)
	})

	t.Run("zero attempts", func(t *testing.T) {
		t.Setenv("RETRY_MAX_ATTEMPTS", "0")
		_, err := ProcessEnvironmentVariables()
		assert.Error(t, err)
	})

	t.Run("non-numeric port", func(t *testing.T) {
		t.Setenv("HTTP_PORT", "http")
		_, err := ProcessEnvironmentVariables()
		assert.Error(t, err)
	})
}

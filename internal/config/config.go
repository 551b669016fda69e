package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	PostgresAddress  string `mapstructure:"POSTGRES_ADDRESS" validate:"required"`
	PostgresPort     string `mapstructure:"POSTGRES_PORT" validate:"required,numeric"`
	PostgresDB       string `mapstructure:"POSTGRES_DB" validate:"required"`
	PostgresUsername string `mapstructure:"POSTGRES_USERNAME" validate:"required"`
	PostgresPassword string `mapstructure:"POSTGRES_PASSWORD"`

	StorageDriver string `mapstructure:"STORAGE_DRIVER" validate:"oneof=postgres memory"`
	HTTPPort      string `mapstructure:"HTTP_PORT" validate:"required,numeric"`
	LogLevel      string `mapstructure:"LOG_LEVEL" validate:"oneof=trace debug info warn warning error fatal panic"`

	StoreTimeout     time.Duration `mapstructure:"STORE_TIMEOUT" validate:"gt=0"`
	RetryMaxAttempts int           `mapstructure:"RETRY_MAX_ATTEMPTS" validate:"min=1"`
	RetryBaseBackoff time.Duration `mapstructure:"RETRY_BASE_BACKOFF" validate:"gte=0"`
}

func ProcessEnvironmentVariables() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	// In all cases the default behavior should be for the docker compose setup
	v.SetDefault("POSTGRES_ADDRESS", "localhost")
	v.SetDefault("POSTGRES_PORT", "5433")
	v.SetDefault("POSTGRES_DB", "postgres")
	v.SetDefault("POSTGRES_USERNAME", "postgres")
	v.SetDefault("POSTGRES_PASSWORD", "testpassword")
	v.SetDefault("STORAGE_DRIVER", "postgres")
	v.SetDefault("HTTP_PORT", "9446")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORE_TIMEOUT", "5s")
	v.SetDefault("RETRY_MAX_ATTEMPTS", 3)
	v.SetDefault("RETRY_BASE_BACKOFF", "20ms")

	var env Config
	if err := v.Unmarshal(&env); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := validator.New().Struct(&env); err != nil {
		return nil, fmt.Errorf("config: invalid environment: %w", err)
	}

	return &env, nil
}

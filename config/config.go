// Package config loads the service configuration for a deployed paygate
// instance from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	Port string `validate:"required"`

	// RPC endpoints per network. A network without an endpoint is not
	// registered.
	BaseRPCUrl   string `validate:"omitempty,url"`
	SolanaRPCUrl string `validate:"omitempty,url"`

	// Recipient addresses per network.
	BaseRecipient   string
	SolanaRecipient string

	// Asset overrides; empty uses the network's default USDC identifier.
	BaseAsset   string
	SolanaAsset string

	// Price of the service's endpoint as a decimal string.
	PriceAmount string `validate:"required"`

	// RedisURL backs the replay guard when set; empty uses the in-memory
	// store (single instance only).
	RedisURL string

	ReplayRetention time.Duration
	VerifyTimeout   time.Duration
	VerifyRetries   int
	LogLevel        string
}

var validate = validator.New()

func Load() (*Config, error) {
	retention, err := parseDuration("REPLAY_RETENTION", "168h")
	if err != nil {
		return nil, err
	}
	timeout, err := parseDuration("VERIFY_TIMEOUT", "15s")
	if err != nil {
		return nil, err
	}
	retries, err := parseInt("VERIFY_RETRIES", 2)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		BaseRPCUrl:      os.Getenv("BASE_RPC_URL"),
		SolanaRPCUrl:    os.Getenv("SOLANA_RPC_URL"),
		BaseRecipient:   os.Getenv("BASE_RECIPIENT"),
		SolanaRecipient: os.Getenv("SOLANA_RECIPIENT"),
		BaseAsset:       os.Getenv("BASE_ASSET"),
		SolanaAsset:     os.Getenv("SOLANA_ASSET"),
		PriceAmount:     getEnv("PRICE_AMOUNT", "0.05"),
		RedisURL:        os.Getenv("REDIS_URL"),
		ReplayRetention: retention,
		VerifyTimeout:   timeout,
		VerifyRetries:   retries,
		LogLevel:        getEnv("LOG_LEVEL", "info"),
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.BaseRPCUrl == "" && cfg.SolanaRPCUrl == "" {
		return nil, fmt.Errorf("at least one of BASE_RPC_URL or SOLANA_RPC_URL must be set")
	}
	if cfg.BaseRPCUrl != "" && cfg.BaseRecipient == "" {
		return nil, fmt.Errorf("BASE_RECIPIENT is required when BASE_RPC_URL is set")
	}
	if cfg.SolanaRPCUrl != "" && cfg.SolanaRecipient == "" {
		return nil, fmt.Errorf("SOLANA_RECIPIENT is required when SOLANA_RPC_URL is set")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseDuration reads a duration variable, failing loudly on a typo rather
// than silently substituting a default.
func parseDuration(key, defaultValue string) (time.Duration, error) {
	raw := getEnv(key, defaultValue)
	duration, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return duration, nil
}

func parseInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a non-negative integer", key, raw)
	}
	return n, nil
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("BASE_RPC_URL", "https://mainnet.base.org")
	t.Setenv("BASE_RECIPIENT", "0x70997970C51812dc3A010C7d01b50e0d17dc79C8")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "0.05", cfg.PriceAmount)
	assert.Equal(t, 168*time.Hour, cfg.ReplayRetention)
	assert.Equal(t, 15*time.Second, cfg.VerifyTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_RequiresAtLeastOneNetwork(t *testing.T) {
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BASE_RPC_URL or SOLANA_RPC_URL")
}

func TestLoad_RecipientRequiredWithEndpoint(t *testing.T) {
	t.Setenv("SOLANA_RPC_URL", "https://api.mainnet-beta.solana.com")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SOLANA_RECIPIENT")
}

func TestLoad_RejectsBadRPCURL(t *testing.T) {
	t.Setenv("BASE_RPC_URL", "not a url")
	t.Setenv("BASE_RECIPIENT", "0x70997970C51812dc3A010C7d01b50e0d17dc79C8")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_RejectsUnparseableRetention(t *testing.T) {
	t.Setenv("BASE_RPC_URL", "https://mainnet.base.org")
	t.Setenv("BASE_RECIPIENT", "0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	t.Setenv("REPLAY_RETENTION", "7days")

	// A typo must not silently shrink how long consumed references are kept.
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REPLAY_RETENTION")
}

func TestLoad_RejectsUnparseableTimeout(t *testing.T) {
	t.Setenv("BASE_RPC_URL", "https://mainnet.base.org")
	t.Setenv("BASE_RECIPIENT", "0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	t.Setenv("VERIFY_TIMEOUT", "soon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "VERIFY_TIMEOUT")
}

func TestLoad_VerifyRetries(t *testing.T) {
	t.Setenv("BASE_RPC_URL", "https://mainnet.base.org")
	t.Setenv("BASE_RECIPIENT", "0x70997970C51812dc3A010C7d01b50e0d17dc79C8")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.VerifyRetries)

	t.Setenv("VERIFY_RETRIES", "5")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.VerifyRetries)

	t.Setenv("VERIFY_RETRIES", "-1")
	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "VERIFY_RETRIES")
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SOLANA_RPC_URL", "https://api.devnet.solana.com")
	t.Setenv("SOLANA_RECIPIENT", "4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T")
	t.Setenv("PRICE_AMOUNT", "0.10")
	t.Setenv("REPLAY_RETENTION", "24h")
	t.Setenv("VERIFY_TIMEOUT", "5s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "0.10", cfg.PriceAmount)
	assert.Equal(t, 24*time.Hour, cfg.ReplayRetention)
	assert.Equal(t, 5*time.Second, cfg.VerifyTimeout)
}

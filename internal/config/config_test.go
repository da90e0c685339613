package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)

	assert.Equal(t, "paper", cfg.Mode)
	assert.Equal(t, 0.95, cfg.Scanner.MinPrice)
	assert.Equal(t, 30.0, cfg.Risk.StopLossUSD)
	assert.Equal(t, 5, cfg.Risk.MaxPositions)
	assert.Equal(t, 15*time.Minute, cfg.Trader.ScanInterval.Duration)
	assert.Equal(t, "state.json", cfg.State.File)
}

func TestLoadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
mode = "scan"
log_level = "debug"

[scanner]
min_price = 0.9

[risk]
stop_loss_usd = 50.0
max_positions = 3

[trader]
scan_interval = "5m"
auto_close_age = "2h"

[notify]
events = ["trade", "close"]
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "scan", cfg.Mode)
	assert.Equal(t, 0.9, cfg.Scanner.MinPrice)
	assert.Equal(t, 50.0, cfg.Risk.StopLossUSD)
	assert.Equal(t, 3, cfg.Risk.MaxPositions)
	assert.Equal(t, 5*time.Minute, cfg.Trader.ScanInterval.Duration)
	assert.Equal(t, 2*time.Hour, cfg.Trader.AutoCloseAge.Duration)
	assert.Equal(t, []string{"trade", "close"}, cfg.Notify.Events)

	// Unset sections keep defaults.
	assert.Equal(t, 10.0, cfg.Risk.MaxPositionUSDC)
	assert.Equal(t, "https://gamma-api.polymarket.com", cfg.Polymarket.GammaHost)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("RESOLVEBOT_MODE", "live")
	t.Setenv("RESOLVEBOT_MIN_PRICE", "0.93")
	t.Setenv("RESOLVEBOT_MAX_POSITIONS", "7")
	t.Setenv("RESOLVEBOT_SCAN_INTERVAL", "30s")
	t.Setenv("RESOLVEBOT_NOTIFY_EVENTS", "trade, error")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)

	assert.Equal(t, "live", cfg.Mode)
	assert.Equal(t, 0.93, cfg.Scanner.MinPrice)
	assert.Equal(t, 7, cfg.Risk.MaxPositions)
	assert.Equal(t, 30*time.Second, cfg.Trader.ScanInterval.Duration)
	assert.Equal(t, []string{"trade", "error"}, cfg.Notify.Events)
}

func TestEnvOverridesIgnoreInvalidValues(t *testing.T) {
	t.Setenv("RESOLVEBOT_MAX_POSITIONS", "lots")
	t.Setenv("RESOLVEBOT_SCAN_INTERVAL", "whenever")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Risk.MaxPositions)
	assert.Equal(t, 15*time.Minute, cfg.Trader.ScanInterval.Duration)
}

func TestValidate(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad mode", func(c *Config) { c.Mode = "yolo" }},
		{"empty gamma host", func(c *Config) { c.Polymarket.GammaHost = "" }},
		{"min price zero", func(c *Config) { c.Scanner.MinPrice = 0 }},
		{"min price one", func(c *Config) { c.Scanner.MinPrice = 1 }},
		{"stop loss zero", func(c *Config) { c.Risk.StopLossUSD = 0 }},
		{"max positions zero", func(c *Config) { c.Risk.MaxPositions = 0 }},
		{"position size zero", func(c *Config) { c.Risk.MaxPositionUSDC = 0 }},
		{"scan interval zero", func(c *Config) { c.Trader.ScanInterval.Duration = 0 }},
		{"max candidates zero", func(c *Config) { c.Trader.MaxCandidates = 0 }},
		{"empty state file", func(c *Config) { c.State.File = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bad := Defaults()
			tt.mutate(&bad)
			assert.Error(t, bad.Validate())
		})
	}
}

func TestValidateAcceptsAllModes(t *testing.T) {
	for _, mode := range []string{"paper", "live", "scan"} {
		cfg := Defaults()
		cfg.Mode = mode
		assert.NoError(t, cfg.Validate(), mode)
	}
}

func TestRedactedConfigMasksSecrets(t *testing.T) {
	cfg := Defaults()
	cfg.Wallet.PrivateKey = "deadbeef"
	cfg.Postgres.Password = "pgpass"
	cfg.Notify.TelegramToken = "tok"
	cfg.Notify.Events = []string{"trade"}

	red := RedactedConfig(&cfg)

	assert.Equal(t, "***", red.Wallet.PrivateKey)
	assert.Equal(t, "***", red.Postgres.Password)
	assert.Equal(t, "***", red.Notify.TelegramToken)

	// Empty secrets stay empty so the redacted copy reflects what is set.
	assert.Empty(t, red.Redis.Password)

	// The original is untouched and the events slice is not shared.
	assert.Equal(t, "deadbeef", cfg.Wallet.PrivateKey)
	red.Notify.Events[0] = "mutated"
	assert.Equal(t, "trade", cfg.Notify.Events[0])
}

// Package config defines the top-level configuration for resolvebot and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by RESOLVEBOT_* environment
// variables.
type Config struct {
	Polymarket PolymarketConfig `toml:"polymarket"`
	Wallet     WalletConfig     `toml:"wallet"`
	Scanner    ScannerConfig    `toml:"scanner"`
	Risk       RiskConfig       `toml:"risk"`
	Trader     TraderConfig     `toml:"trader"`
	State      StateConfig      `toml:"state"`
	Postgres   PostgresConfig   `toml:"postgres"`
	Redis      RedisConfig      `toml:"redis"`
	S3         S3Config         `toml:"s3"`
	Notify     NotifyConfig     `toml:"notify"`
	Mode       string           `toml:"mode"`
	LogLevel   string           `toml:"log_level"`
}

// PolymarketConfig holds Polymarket API endpoints and chain parameters.
type PolymarketConfig struct {
	GammaHost  string `toml:"gamma_host"`
	ClobHost   string `toml:"clob_host"`
	ChainID    int    `toml:"chain_id"`
	PageSize   int    `toml:"page_size"`
	MaxMarkets int    `toml:"max_markets"`
}

// WalletConfig holds the trading wallet credentials for live mode. The key
// may be supplied raw (hex) or as an encrypted key file plus password.
type WalletConfig struct {
	PrivateKey       string `toml:"private_key"`
	EncryptedKeyPath string `toml:"encrypted_key_path"`
	KeyPassword      string `toml:"key_password"`
}

// ScannerConfig holds opportunity-scanner thresholds.
type ScannerConfig struct {
	MinPrice float64 `toml:"min_price"`
}

// RiskConfig holds the risk-gate limits.
type RiskConfig struct {
	StopLossUSD     float64 `toml:"stop_loss_usd"`
	MaxPositions    int     `toml:"max_positions"`
	MaxPositionUSDC float64 `toml:"max_position_usdc"`
}

// TraderConfig holds the scan-cycle parameters.
type TraderConfig struct {
	ScanInterval  duration `toml:"scan_interval"`
	MaxCandidates int      `toml:"max_candidates"`
	AutoCloseAge  duration `toml:"auto_close_age"`
}

// StateConfig holds the durable state and journal file locations.
type StateConfig struct {
	File    string `toml:"file"`
	Journal string `toml:"journal"`
}

// PostgresConfig holds connection parameters for the optional position
// archive. The archive is disabled when no DSN or host is configured.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters for the optional price
// cache. Disabled when Addr is empty.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds parameters for the optional ledger snapshot archiver.
// Disabled when Bucket is empty.
type S3Config struct {
	Endpoint         string   `toml:"endpoint"`
	Region           string   `toml:"region"`
	Bucket           string   `toml:"bucket"`
	AccessKey        string   `toml:"access_key"`
	SecretKey        string   `toml:"secret_key"`
	ForcePathStyle   bool     `toml:"force_path_style"`
	SnapshotInterval duration `toml:"snapshot_interval"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "15m", "1h").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "15m" or "1h".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values. The
// strategy thresholds match the production paper-trading deployment.
func Defaults() Config {
	return Config{
		Polymarket: PolymarketConfig{
			GammaHost:  "https://gamma-api.polymarket.com",
			ClobHost:   "https://clob.polymarket.com",
			ChainID:    137,
			PageSize:   100,
			MaxMarkets: 2000,
		},
		Scanner: ScannerConfig{
			MinPrice: 0.95,
		},
		Risk: RiskConfig{
			StopLossUSD:     30.0,
			MaxPositions:    5,
			MaxPositionUSDC: 10.0,
		},
		Trader: TraderConfig{
			ScanInterval:  duration{15 * time.Minute},
			MaxCandidates: 3,
			AutoCloseAge:  duration{time.Hour},
		},
		State: StateConfig{
			File:    "state.json",
			Journal: "trading.md",
		},
		Postgres: PostgresConfig{
			Port:          5432,
			Database:      "resolvebot",
			User:          "resolvebot",
			SSLMode:       "disable",
			PoolMaxConns:  5,
			PoolMinConns:  1,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			PoolSize:   10,
			MaxRetries: 3,
		},
		S3: S3Config{
			Region:           "us-east-1",
			ForcePathStyle:   true,
			SnapshotInterval: duration{24 * time.Hour},
		},
		Mode:     "paper",
		LogLevel: "info",
	}
}

// Validate checks the configuration for values that make the process
// unrunnable. Secrets are deliberately not required here: live mode degrades
// to scan-only when credentials are missing.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Mode) {
	case "paper", "live", "scan":
	default:
		return fmt.Errorf("config: unsupported mode %q", c.Mode)
	}

	if c.Polymarket.GammaHost == "" {
		return fmt.Errorf("config: polymarket.gamma_host must be set")
	}
	if c.Scanner.MinPrice <= 0 || c.Scanner.MinPrice >= 1 {
		return fmt.Errorf("config: scanner.min_price %.3f must be in (0,1)", c.Scanner.MinPrice)
	}
	if c.Risk.StopLossUSD <= 0 {
		return fmt.Errorf("config: risk.stop_loss_usd must be positive")
	}
	if c.Risk.MaxPositions <= 0 {
		return fmt.Errorf("config: risk.max_positions must be positive")
	}
	if c.Risk.MaxPositionUSDC <= 0 {
		return fmt.Errorf("config: risk.max_position_usdc must be positive")
	}
	if c.Trader.ScanInterval.Duration <= 0 {
		return fmt.Errorf("config: trader.scan_interval must be positive")
	}
	if c.Trader.MaxCandidates <= 0 {
		return fmt.Errorf("config: trader.max_candidates must be positive")
	}
	if c.State.File == "" {
		return fmt.Errorf("config: state.file must be set")
	}
	return nil
}

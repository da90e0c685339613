package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies RESOLVEBOT_* environment variable overrides, and
// returns the final Config. A missing file is not an error: the defaults plus
// environment overrides are returned, so the bot can run from env alone. The
// returned Config has NOT been validated; call Config.Validate after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known RESOLVEBOT_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Polymarket ──
	setStr(&cfg.Polymarket.GammaHost, "RESOLVEBOT_GAMMA_HOST")
	setStr(&cfg.Polymarket.ClobHost, "RESOLVEBOT_CLOB_HOST")
	setInt(&cfg.Polymarket.ChainID, "RESOLVEBOT_CHAIN_ID")
	setInt(&cfg.Polymarket.PageSize, "RESOLVEBOT_PAGE_SIZE")
	setInt(&cfg.Polymarket.MaxMarkets, "RESOLVEBOT_MAX_MARKETS")

	// ── Wallet ──
	setStr(&cfg.Wallet.PrivateKey, "RESOLVEBOT_WALLET_PRIVATE_KEY")
	setStr(&cfg.Wallet.EncryptedKeyPath, "RESOLVEBOT_WALLET_ENCRYPTED_KEY_PATH")
	setStr(&cfg.Wallet.KeyPassword, "RESOLVEBOT_WALLET_KEY_PASSWORD")

	// ── Scanner / risk ──
	setFloat64(&cfg.Scanner.MinPrice, "RESOLVEBOT_MIN_PRICE")
	setFloat64(&cfg.Risk.StopLossUSD, "RESOLVEBOT_STOP_LOSS_USD")
	setInt(&cfg.Risk.MaxPositions, "RESOLVEBOT_MAX_POSITIONS")
	setFloat64(&cfg.Risk.MaxPositionUSDC, "RESOLVEBOT_MAX_POSITION_USDC")

	// ── Trader ──
	setDuration(&cfg.Trader.ScanInterval, "RESOLVEBOT_SCAN_INTERVAL")
	setInt(&cfg.Trader.MaxCandidates, "RESOLVEBOT_MAX_CANDIDATES")
	setDuration(&cfg.Trader.AutoCloseAge, "RESOLVEBOT_AUTO_CLOSE_AGE")

	// ── State ──
	setStr(&cfg.State.File, "RESOLVEBOT_STATE_FILE")
	setStr(&cfg.State.Journal, "RESOLVEBOT_JOURNAL_FILE")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "RESOLVEBOT_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "RESOLVEBOT_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "RESOLVEBOT_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "RESOLVEBOT_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "RESOLVEBOT_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "RESOLVEBOT_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "RESOLVEBOT_POSTGRES_SSLMODE")
	setBool(&cfg.Postgres.RunMigrations, "RESOLVEBOT_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "RESOLVEBOT_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "RESOLVEBOT_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "RESOLVEBOT_REDIS_DB")
	setBool(&cfg.Redis.TLSEnabled, "RESOLVEBOT_REDIS_TLS_ENABLED")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "RESOLVEBOT_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "RESOLVEBOT_S3_REGION")
	setStr(&cfg.S3.Bucket, "RESOLVEBOT_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "RESOLVEBOT_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "RESOLVEBOT_S3_SECRET_KEY")
	setBool(&cfg.S3.ForcePathStyle, "RESOLVEBOT_S3_FORCE_PATH_STYLE")
	setDuration(&cfg.S3.SnapshotInterval, "RESOLVEBOT_S3_SNAPSHOT_INTERVAL")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "RESOLVEBOT_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "RESOLVEBOT_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "RESOLVEBOT_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "RESOLVEBOT_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "RESOLVEBOT_MODE")
	setStr(&cfg.LogLevel, "RESOLVEBOT_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}

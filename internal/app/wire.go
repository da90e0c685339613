package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/akeller/resolvebot/internal/blob/s3"
	"github.com/akeller/resolvebot/internal/cache/redis"
	"github.com/akeller/resolvebot/internal/config"
	"github.com/akeller/resolvebot/internal/domain"
	"github.com/akeller/resolvebot/internal/journal"
	"github.com/akeller/resolvebot/internal/ledger"
	"github.com/akeller/resolvebot/internal/notify"
	"github.com/akeller/resolvebot/internal/platform/polymarket"
	"github.com/akeller/resolvebot/internal/risk"
	"github.com/akeller/resolvebot/internal/scanner"
	"github.com/akeller/resolvebot/internal/store/postgres"
	"github.com/akeller/resolvebot/internal/store/statefile"
)

// Dependencies bundles everything the application modes need. Postgres,
// Redis, and S3 members are nil when their sections are unconfigured; the
// bot runs fine on the state file alone.
type Dependencies struct {
	Feed     *polymarket.GammaClient
	Scanner  *scanner.Scanner
	Gate     *risk.Gate
	Ledger   *ledger.Ledger
	Notifier *notify.Notifier

	PriceCache domain.PriceCache // nil without Redis
	Archiver   *s3blob.SnapshotArchiver
}

// Wire constructs all concrete dependencies from the configuration and
// returns them with a cleanup function for shutdown.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{
		Feed: polymarket.NewGammaClient(
			cfg.Polymarket.GammaHost,
			cfg.Polymarket.PageSize,
			cfg.Polymarket.MaxMarkets,
			logger,
		),
		Scanner: scanner.New(scanner.Config{
			MinPrice: cfg.Scanner.MinPrice,
		}),
		Gate: risk.NewGate(risk.Config{
			StopLossUSD:  cfg.Risk.StopLossUSD,
			MaxPositions: cfg.Risk.MaxPositions,
			MinPrice:     cfg.Scanner.MinPrice,
		}, risk.FixedSizer{Amount: cfg.Risk.MaxPositionUSDC}),
	}

	// --- Postgres position archive (optional) ---
	var archive domain.PositionArchive
	if cfg.Postgres.DSN != "" || cfg.Postgres.Host != "" {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		archiveStore := postgres.NewArchiveStore(pgClient.Pool())
		if recent, err := archiveStore.ListRecent(ctx, 5); err != nil {
			logger.Warn("position archive query failed",
				slog.String("error", err.Error()))
		} else {
			logger.Info("position archive connected",
				slog.Int("recent_positions", len(recent)))
		}
		archive = archiveStore
	}

	// --- Redis price cache (optional) ---
	if cfg.Redis.Addr != "" {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.PriceCache = redis.NewPriceCache(redisClient)
	}

	// --- Ledger (state file + journal + optional archive) ---
	store := statefile.New(cfg.State.File)
	jrnl := journal.New(cfg.State.Journal)

	led, err := ledger.Load(ctx, store, jrnl, archive, logger)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: ledger: %w", err)
	}
	deps.Ledger = led

	// --- S3 snapshot archiver (optional) ---
	if cfg.S3.Bucket != "" {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		if err := s3Client.Health(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}

		deps.Archiver = s3blob.NewSnapshotArchiver(
			s3Client, led, cfg.S3.SnapshotInterval.Duration, logger,
		)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}

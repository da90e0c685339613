package app

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/akeller/resolvebot/internal/crypto"
	"github.com/akeller/resolvebot/internal/notify"
	"github.com/akeller/resolvebot/internal/platform/polymarket"
	"github.com/akeller/resolvebot/internal/trader"
)

// PaperMode runs the full trading loop against a simulated execution client.
// Positions are opened and settled entirely in the local ledger.
func (a *App) PaperMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting paper mode")

	placer := polymarket.NewPaperClient(a.logger)
	t := trader.New(
		a.traderConfig(true),
		deps.Feed, deps.Scanner, deps.Gate, deps.Ledger,
		placer, nil, deps.PriceCache, deps.Notifier,
		a.logger,
	)

	return a.runMode(ctx, deps, t, "paper trading started")
}

// LiveMode runs the trading loop against the real CLOB. If wallet
// credentials are missing or API key derivation fails, it degrades to
// scan-only rather than exiting, so the operator keeps market visibility.
func (a *App) LiveMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting live mode")

	clob, err := a.buildClobClient(ctx)
	if err != nil {
		a.logger.ErrorContext(ctx, "live trading unavailable, degrading to scan-only",
			slog.String("error", err.Error()))
		_ = deps.Notifier.Notify(ctx, notify.EventError,
			"Live trading unavailable", err.Error())
		return a.ScanMode(ctx, deps)
	}

	t := trader.New(
		a.traderConfig(true),
		deps.Feed, deps.Scanner, deps.Gate, deps.Ledger,
		clob, clob, deps.PriceCache, deps.Notifier,
		a.logger,
	)

	return a.runMode(ctx, deps, t, "live trading started")
}

// ScanMode scores and reports opportunities without ever placing orders.
func (a *App) ScanMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting scan mode")

	placer := polymarket.NewPaperClient(a.logger) // never invoked
	t := trader.New(
		a.traderConfig(false),
		deps.Feed, deps.Scanner, deps.Gate, deps.Ledger,
		placer, nil, deps.PriceCache, deps.Notifier,
		a.logger,
	)

	return a.runMode(ctx, deps, t, "scan-only mode started")
}

// runMode starts the trader loop and the optional snapshot archiver, then
// blocks until the context is cancelled or a goroutine fails.
func (a *App) runMode(ctx context.Context, deps *Dependencies, t *trader.Trader, banner string) error {
	_ = deps.Notifier.Notify(ctx, notify.EventStartup, "resolvebot", banner)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return t.RunLoop(ctx)
	})

	if deps.Archiver != nil {
		g.Go(func() error {
			return deps.Archiver.Run(ctx)
		})
	}

	return g.Wait()
}

func (a *App) traderConfig(execute bool) trader.Config {
	return trader.Config{
		ScanInterval:  a.cfg.Trader.ScanInterval.Duration,
		MaxCandidates: a.cfg.Trader.MaxCandidates,
		AutoCloseAge:  a.cfg.Trader.AutoCloseAge.Duration,
		ExecuteOrders: execute,
	}
}

// buildClobClient loads the wallet key, constructs the EIP-712 signer, and
// derives HMAC API credentials from the CLOB.
func (a *App) buildClobClient(ctx context.Context) (*polymarket.ClobClient, error) {
	keyHex, err := crypto.LoadKey(crypto.KeyConfig{
		RawPrivateKey:    a.cfg.Wallet.PrivateKey,
		EncryptedKeyPath: a.cfg.Wallet.EncryptedKeyPath,
		KeyPassword:      a.cfg.Wallet.KeyPassword,
	})
	if err != nil {
		return nil, err
	}

	signer, err := crypto.NewSigner(keyHex, a.cfg.Polymarket.ChainID)
	if err != nil {
		return nil, err
	}

	clob := polymarket.NewClobClient(a.cfg.Polymarket.ClobHost, signer, a.logger)
	if err := clob.DeriveAPIKey(ctx); err != nil {
		return nil, err
	}

	return clob, nil
}

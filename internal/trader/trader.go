// Package trader runs the scan/evaluate/execute cycle that ties the market
// feed, scanner, risk gate, and ledger together.
package trader

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/akeller/resolvebot/internal/domain"
	"github.com/akeller/resolvebot/internal/ledger"
	"github.com/akeller/resolvebot/internal/notify"
	"github.com/akeller/resolvebot/internal/risk"
	"github.com/akeller/resolvebot/internal/scanner"
)

// resolvedPrice is the settlement value assumed for aged paper positions.
const resolvedPrice = 1.0

// Config tunes a Trader's cycle behavior.
type Config struct {
	// ScanInterval is the delay between cycles in RunLoop.
	ScanInterval time.Duration

	// MaxCandidates caps how many top-scored opportunities are pushed
	// through the risk gate per cycle.
	MaxCandidates int

	// AutoCloseAge is how long a paper position may stay open before being
	// settled at the resolved price. Zero disables auto-close.
	AutoCloseAge time.Duration

	// ExecuteOrders is false in scan-only mode: opportunities are scored
	// and logged but never traded.
	ExecuteOrders bool
}

// PriceMarker supplies current prices for open-position marks in live mode.
// Optional; paper mode settles positions synthetically instead.
type PriceMarker interface {
	LastTradePrice(ctx context.Context, tokenID string) (float64, error)
}

// CycleReport summarizes one completed cycle for logging and tests.
type CycleReport struct {
	Markets       int
	Opportunities int
	Entered       int
	Rejected      int
	Closed        int
}

// Trader orchestrates one full cycle: fetch markets, score opportunities,
// gate candidates, execute entries, and settle aged positions.
type Trader struct {
	cfg      Config
	feed     domain.MarketFeed
	scanner  *scanner.Scanner
	gate     *risk.Gate
	ledger   *ledger.Ledger
	placer   domain.OrderPlacer
	marker   PriceMarker // may be nil
	notifier *notify.Notifier
	cache    domain.PriceCache // may be nil
	clock    func() time.Time
	logger   *slog.Logger
}

// New creates a Trader. marker and cache may be nil; notifier must not be.
func New(
	cfg Config,
	feed domain.MarketFeed,
	sc *scanner.Scanner,
	gate *risk.Gate,
	led *ledger.Ledger,
	placer domain.OrderPlacer,
	marker PriceMarker,
	cache domain.PriceCache,
	notifier *notify.Notifier,
	logger *slog.Logger,
) *Trader {
	return &Trader{
		cfg:      cfg,
		feed:     feed,
		scanner:  sc,
		gate:     gate,
		ledger:   led,
		placer:   placer,
		marker:   marker,
		cache:    cache,
		notifier: notifier,
		clock:    time.Now,
		logger:   logger.With(slog.String("component", "trader")),
	}
}

// RunLoop executes cycles on the configured interval until the context is
// cancelled. The first cycle runs immediately. Cycles never overlap; a slow
// cycle delays the next tick rather than running concurrently.
func (t *Trader) RunLoop(ctx context.Context) error {
	ticker := time.NewTicker(t.cfg.ScanInterval)
	defer ticker.Stop()

	for {
		if report, err := t.RunCycle(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			t.logger.ErrorContext(ctx, "cycle failed", slog.String("error", err.Error()))
			_ = t.notifier.Notify(ctx, notify.EventError, "Cycle failed", err.Error())
		} else {
			t.logger.InfoContext(ctx, "cycle complete",
				slog.Int("markets", report.Markets),
				slog.Int("opportunities", report.Opportunities),
				slog.Int("entered", report.Entered),
				slog.Int("rejected", report.Rejected),
				slog.Int("closed", report.Closed),
				slog.Float64("total_pnl", t.ledger.TotalPnL()))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunCycle performs a single scan/evaluate/execute pass. A feed failure
// aborts the cycle; per-candidate failures are isolated so one bad market
// cannot block the rest.
func (t *Trader) RunCycle(ctx context.Context) (CycleReport, error) {
	var report CycleReport
	now := t.clock()

	markets, err := t.feed.ActiveMarkets(ctx)
	if err != nil {
		return report, fmt.Errorf("trader: fetch markets: %w", err)
	}
	report.Markets = len(markets)

	opps, stats := t.scanner.Scan(markets, now)
	report.Opportunities = len(opps)

	t.logger.InfoContext(ctx, "scan complete",
		slog.Int("markets", stats.Markets),
		slog.Int("skipped", stats.Skipped),
		slog.Int("opportunities", stats.Emitted))

	for i, opp := range opps {
		if i >= t.cfg.MaxCandidates {
			break
		}

		title, msg := notify.OpportunityMessage(opp)
		_ = t.notifier.Notify(ctx, notify.EventOpportunity, title, msg)

		if !t.cfg.ExecuteOrders {
			continue
		}

		entered, err := t.enter(ctx, opp)
		if err != nil {
			t.logger.ErrorContext(ctx, "entry failed",
				slog.String("market_id", opp.MarketID),
				slog.String("strategy", string(opp.Strategy)),
				slog.String("error", err.Error()))
			continue
		}
		if entered {
			report.Entered++
		} else {
			report.Rejected++
		}
	}

	closed, err := t.settleAged(ctx, now)
	if err != nil {
		t.logger.WarnContext(ctx, "settling aged positions",
			slog.String("error", err.Error()))
	}
	report.Closed = closed

	if err := t.ledger.MarkScan(ctx, now); err != nil {
		t.logger.WarnContext(ctx, "recording scan time",
			slog.String("error", err.Error()))
	}

	return report, nil
}

// enter pushes one opportunity through the risk gate and, if allowed,
// places the order and opens a ledger position. Returns false when the
// gate rejected the candidate.
func (t *Trader) enter(ctx context.Context, opp domain.Opportunity) (bool, error) {
	state := t.ledger.State()
	decision := t.gate.Evaluate(&state, opp.Price, opp.MarketID)
	if !decision.Allowed {
		t.logger.InfoContext(ctx, "candidate rejected",
			slog.String("market_id", opp.MarketID),
			slog.String("strategy", string(opp.Strategy)),
			slog.String("reason", decision.Reason))
		return false, nil
	}

	result, err := t.placer.PlaceOrder(ctx, domain.OrderRequest{
		TokenID: opp.TokenID,
		Side:    domain.OrderSideBuy,
		Price:   opp.Price,
		Size:    decision.Size,
	})
	if err != nil {
		return false, fmt.Errorf("place order: %w", err)
	}

	pos, err := t.ledger.Open(ctx, opp, decision.Size)
	if err != nil {
		// The order went through but the ledger could not persist it.
		// Surface loudly; the operator has to reconcile by hand.
		t.logger.ErrorContext(ctx, "position not recorded after fill",
			slog.String("order_id", result.OrderID),
			slog.String("market_id", opp.MarketID),
			slog.String("error", err.Error()))
		return false, fmt.Errorf("record position: %w", err)
	}

	if t.cache != nil {
		if err := t.cache.SetPrice(ctx, opp.TokenID, opp.Price); err != nil {
			t.logger.DebugContext(ctx, "price cache write failed",
				slog.String("error", err.Error()))
		}
	}

	title, msg := notify.TradeMessage(pos)
	_ = t.notifier.Notify(ctx, notify.EventTrade, title, msg)

	t.logger.InfoContext(ctx, "position opened",
		slog.String("position_id", pos.ID),
		slog.String("order_id", result.OrderID),
		slog.String("strategy", string(pos.Strategy)),
		slog.Float64("entry_price", pos.EntryPrice),
		slog.Float64("size", pos.Size))

	return true, nil
}

// settleAged closes open positions older than AutoCloseAge at the resolved
// price. In live mode positions are only marked, never force-closed, since
// real shares must be redeemed on-chain.
func (t *Trader) settleAged(ctx context.Context, now time.Time) (int, error) {
	if t.cfg.AutoCloseAge <= 0 {
		return 0, nil
	}

	if t.marker != nil {
		t.markOpen(ctx)
		return 0, nil
	}

	closed := 0
	for _, pos := range t.ledger.ListOpen() {
		if now.Sub(pos.EnteredAt) < t.cfg.AutoCloseAge {
			continue
		}

		settled, err := t.ledger.Close(ctx, pos.MarketID, resolvedPrice)
		if err != nil {
			return closed, fmt.Errorf("close %s: %w", pos.MarketID, err)
		}
		closed++

		title, msg := notify.CloseMessage(settled, t.ledger.TotalPnL())
		_ = t.notifier.Notify(ctx, notify.EventClose, title, msg)

		t.logger.InfoContext(ctx, "position settled",
			slog.String("position_id", settled.ID),
			slog.Float64("pnl", derefFloat(settled.PnL)))
	}

	return closed, nil
}

// markOpen refreshes current prices for open positions so the operator can
// see unrealized value. Cached prices are used while fresh; failures are
// logged, not fatal.
func (t *Trader) markOpen(ctx context.Context) {
	for _, pos := range t.ledger.ListOpen() {
		price, cached := t.cachedPrice(ctx, pos.TokenID)
		if !cached {
			var err error
			price, err = t.marker.LastTradePrice(ctx, pos.TokenID)
			if err != nil {
				t.logger.DebugContext(ctx, "price mark failed",
					slog.String("token_id", pos.TokenID),
					slog.String("error", err.Error()))
				continue
			}

			if t.cache != nil {
				if err := t.cache.SetPrice(ctx, pos.TokenID, price); err != nil {
					t.logger.DebugContext(ctx, "price cache write failed",
						slog.String("error", err.Error()))
				}
			}
		}

		t.logger.InfoContext(ctx, "open position mark",
			slog.String("market_id", pos.MarketID),
			slog.Float64("entry_price", pos.EntryPrice),
			slog.Float64("mark_price", price),
			slog.Float64("unrealized", (price-pos.EntryPrice)*pos.Shares))
	}
}

// cachedPrice returns a price from the cache when one is present and no
// older than the scan interval. The cache's own TTL is the hard bound; this
// check keeps marks from reusing a price observed before the previous cycle.
func (t *Trader) cachedPrice(ctx context.Context, tokenID string) (float64, bool) {
	if t.cache == nil {
		return 0, false
	}
	price, ts, err := t.cache.GetPrice(ctx, tokenID)
	if err != nil {
		return 0, false
	}
	if t.clock().Sub(ts) > t.cfg.ScanInterval {
		return 0, false
	}
	return price, true
}

func derefFloat(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

// Package ledger owns the durable record of positions and cumulative
// realized PnL. Every mutating operation persists the full portfolio state
// synchronously before returning, so the in-memory and durable copies are
// never observably divergent to a caller that waits for the call.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/akeller/resolvebot/internal/domain"
)

// Ledger mediates all portfolio mutations. It is not safe for concurrent
// use; the trading cycle is strictly sequential.
type Ledger struct {
	state   domain.PortfolioState
	store   domain.StateStore
	journal domain.Journal
	archive domain.PositionArchive // optional, best effort
	clock   func() time.Time
	logger  *slog.Logger
}

// Load restores the portfolio from the store and returns a Ledger over it.
// journal and archive may be nil.
func Load(ctx context.Context, store domain.StateStore, jrnl domain.Journal, archive domain.PositionArchive, logger *slog.Logger) (*Ledger, error) {
	state, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("ledger: load state: %w", err)
	}

	return &Ledger{
		state:   state,
		store:   store,
		journal: jrnl,
		archive: archive,
		clock:   time.Now,
		logger:  logger.With(slog.String("component", "ledger")),
	}, nil
}

// Open creates a new open position from an approved opportunity, appends it
// to the position sequence, bumps the trade count, and persists. A
// persistence failure reverts the in-memory mutation and is returned; the
// caller must not assume the position exists.
func (l *Ledger) Open(ctx context.Context, opp domain.Opportunity, size float64) (domain.Position, error) {
	if opp.Price <= 0 {
		return domain.Position{}, fmt.Errorf("ledger: %w: entry price %.4f", domain.ErrInvalidOrder, opp.Price)
	}
	// Close matches the first open position per market, so a second open
	// position for the same market would shadow the first.
	if l.state.HasOpenPosition(opp.MarketID) {
		return domain.Position{}, fmt.Errorf("ledger: open %s: %w", opp.MarketID, domain.ErrAlreadyExists)
	}

	pos := domain.Position{
		ID:          uuid.New().String(),
		MarketID:    opp.MarketID,
		ConditionID: opp.ConditionID,
		TokenID:     opp.TokenID,
		Question:    opp.Question,
		Outcome:     opp.Outcome,
		Strategy:    opp.Strategy,
		EntryPrice:  opp.Price,
		Size:        size,
		Shares:      size / opp.Price,
		Status:      domain.PositionStatusOpen,
		EnteredAt:   l.clock().UTC(),
	}

	l.state.Positions = append(l.state.Positions, pos)
	l.state.TotalTrades++

	if err := l.store.Save(ctx, l.state); err != nil {
		l.state.Positions = l.state.Positions[:len(l.state.Positions)-1]
		l.state.TotalTrades--
		return domain.Position{}, fmt.Errorf("ledger: persist open: %w", err)
	}

	l.record(ctx, pos, true)

	l.logger.InfoContext(ctx, "position opened",
		slog.String("position_id", pos.ID),
		slog.String("market", pos.MarketID),
		slog.String("outcome", pos.Outcome),
		slog.String("strategy", string(pos.Strategy)),
		slog.Float64("entry_price", pos.EntryPrice),
		slog.Float64("size", pos.Size),
	)

	return pos, nil
}

// Close closes the first open position for marketID at exitPrice, realizing
// pnl = shares*exit - size into the running total, and persists. It returns
// domain.ErrNotFound, with no mutation, when the market has no open
// position; closing twice is therefore safely idempotent.
func (l *Ledger) Close(ctx context.Context, marketID string, exitPrice float64) (domain.Position, error) {
	idx := -1
	for i, p := range l.state.Positions {
		if p.MarketID == marketID && p.Status == domain.PositionStatusOpen {
			idx = i
			break
		}
	}
	if idx < 0 {
		return domain.Position{}, fmt.Errorf("ledger: close %s: %w", marketID, domain.ErrNotFound)
	}

	prev := l.state.Positions[idx]
	prevPnL := l.state.TotalPnL

	pnl := prev.Shares*exitPrice - prev.Size
	closedAt := l.clock().UTC()

	pos := prev
	pos.Status = domain.PositionStatusClosed
	pos.ExitPrice = &exitPrice
	pos.PnL = &pnl
	pos.ClosedAt = &closedAt

	l.state.Positions[idx] = pos
	l.state.TotalPnL += pnl

	if err := l.store.Save(ctx, l.state); err != nil {
		l.state.Positions[idx] = prev
		l.state.TotalPnL = prevPnL
		return domain.Position{}, fmt.Errorf("ledger: persist close: %w", err)
	}

	l.record(ctx, pos, false)

	l.logger.InfoContext(ctx, "position closed",
		slog.String("position_id", pos.ID),
		slog.String("market", pos.MarketID),
		slog.Float64("exit_price", exitPrice),
		slog.Float64("pnl", pnl),
		slog.Float64("total_pnl", l.state.TotalPnL),
	)

	return pos, nil
}

// ListOpen returns the currently open positions in insertion order.
func (l *Ledger) ListOpen() []domain.Position {
	return l.state.OpenPositions()
}

// State returns a copy of the full portfolio state.
func (l *Ledger) State() domain.PortfolioState {
	return l.state.Clone()
}

// TotalPnL returns the running realized PnL.
func (l *Ledger) TotalPnL() float64 {
	return l.state.TotalPnL
}

// MarkScan stamps the last completed scan time and persists.
func (l *Ledger) MarkScan(ctx context.Context, at time.Time) error {
	prev := l.state.LastScanAt
	l.state.LastScanAt = at.UTC()
	if err := l.store.Save(ctx, l.state); err != nil {
		l.state.LastScanAt = prev
		return fmt.Errorf("ledger: persist scan time: %w", err)
	}
	return nil
}

// record writes the journal row and mirrors the event into the archive.
// Both are best effort: the state store is authoritative and has already
// been written.
func (l *Ledger) record(ctx context.Context, pos domain.Position, opened bool) {
	if l.journal != nil {
		if err := l.journal.Record(pos); err != nil {
			l.logger.WarnContext(ctx, "journal write failed",
				slog.String("position_id", pos.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	if l.archive != nil {
		var err error
		if opened {
			err = l.archive.RecordOpen(ctx, pos)
		} else {
			err = l.archive.RecordClose(ctx, pos)
		}
		if err != nil {
			l.logger.WarnContext(ctx, "position archive write failed",
				slog.String("position_id", pos.ID),
				slog.String("error", err.Error()),
			)
		}
	}
}

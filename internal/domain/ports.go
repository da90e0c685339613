package domain

import (
	"context"
	"time"
)

// MarketFeed supplies raw market snapshots. An empty list means "no
// opportunities this cycle", never an error condition by itself.
type MarketFeed interface {
	ActiveMarkets(ctx context.Context) ([]Market, error)
}

// OrderPlacer submits orders to an exchange (or simulates them in paper
// mode).
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, req OrderRequest) (OrderResult, error)
}

// StateStore persists the full portfolio state. Save must be write-through:
// when it returns nil the durable copy reflects the given state.
type StateStore interface {
	Load(ctx context.Context) (PortfolioState, error)
	Save(ctx context.Context, state PortfolioState) error
}

// Journal is the append-only human-readable trade log. Entries are never
// rewritten or compacted.
type Journal interface {
	Record(pos Position) error
}

// PriceCache caches last observed token prices for open-position marks.
type PriceCache interface {
	SetPrice(ctx context.Context, tokenID string, price float64) error
	GetPrice(ctx context.Context, tokenID string) (price float64, ts time.Time, err error)
}

// PositionArchive mirrors position events into secondary storage for
// analysis. Archive writes are best-effort; the state store stays
// authoritative.
type PositionArchive interface {
	RecordOpen(ctx context.Context, pos Position) error
	RecordClose(ctx context.Context, pos Position) error
}

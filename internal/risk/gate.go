// Package risk implements the pre-trade gate that decides whether and how
// large a trade may be taken given the current portfolio state.
package risk

import (
	"fmt"

	"github.com/akeller/resolvebot/internal/domain"
)

// Config holds the tunable risk limits.
type Config struct {
	// StopLossUSD trips the portfolio circuit breaker once total realized
	// PnL reaches -StopLossUSD. It stays tripped until closes bring the PnL
	// back above the limit; there is no manual reset.
	StopLossUSD float64
	// MaxPositions caps concurrently open positions.
	MaxPositions int
	// MinPrice rejects candidates below this price independently of the
	// scanner's own filtering.
	MinPrice float64
}

// Decision is the outcome of a gate evaluation. Reason is set only on
// rejection; Size only on approval.
type Decision struct {
	Allowed bool
	Reason  string
	Size    float64
}

// Sizer computes the capital to commit to an approved candidate. Swapping
// the implementation changes sizing policy without touching gate logic.
type Sizer interface {
	ComputeSize(state *domain.PortfolioState, price float64) float64
}

// FixedSizer allocates the same capital to every trade.
type FixedSizer struct {
	Amount float64
}

// ComputeSize returns the fixed per-trade allocation.
func (f FixedSizer) ComputeSize(_ *domain.PortfolioState, _ float64) float64 {
	return f.Amount
}

// Gate evaluates candidates against the portfolio. It is a pure function of
// its inputs and performs no mutation.
type Gate struct {
	cfg   Config
	sizer Sizer
}

// NewGate creates a Gate with the given limits and sizing policy.
func NewGate(cfg Config, sizer Sizer) *Gate {
	return &Gate{cfg: cfg, sizer: sizer}
}

// Evaluate runs the risk checks in order and reports the first failure, or
// approves the candidate with a position size. Check order matters: the
// portfolio stop-loss dominates everything else.
func (g *Gate) Evaluate(state *domain.PortfolioState, price float64, marketID string) Decision {
	open := state.OpenPositions()

	if state.TotalPnL <= -g.cfg.StopLossUSD {
		return Decision{Reason: fmt.Sprintf("portfolio stop hit: $%.2f", state.TotalPnL)}
	}

	if len(open) >= g.cfg.MaxPositions {
		return Decision{Reason: fmt.Sprintf("max positions reached: %d", len(open))}
	}

	if state.HasOpenPosition(marketID) {
		return Decision{Reason: "already in this market"}
	}

	if price < g.cfg.MinPrice {
		return Decision{Reason: fmt.Sprintf("price %.3f below min %.3f", price, g.cfg.MinPrice)}
	}

	return Decision{
		Allowed: true,
		Size:    g.sizer.ComputeSize(state, price),
	}
}

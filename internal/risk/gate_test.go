package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akeller/resolvebot/internal/domain"
)

func testGate() *Gate {
	return NewGate(Config{
		StopLossUSD:  30,
		MaxPositions: 2,
		MinPrice:     0.95,
	}, FixedSizer{Amount: 10})
}

func openPosition(marketID string) domain.Position {
	return domain.Position{
		ID:        "pos-" + marketID,
		MarketID:  marketID,
		Status:    domain.PositionStatusOpen,
		EnteredAt: time.Now(),
	}
}

func TestEvaluateApproves(t *testing.T) {
	state := domain.PortfolioState{}

	d := testGate().Evaluate(&state, 0.97, "m1")
	require.True(t, d.Allowed)
	assert.Empty(t, d.Reason)
	assert.Equal(t, 10.0, d.Size)
}

func TestEvaluateStopLoss(t *testing.T) {
	g := testGate()

	state := domain.PortfolioState{TotalPnL: -30}
	d := g.Evaluate(&state, 0.97, "m1")
	require.False(t, d.Allowed)
	assert.Contains(t, d.Reason, "portfolio stop hit")

	// A close that recovers PnL above the limit re-arms trading.
	state.TotalPnL = -29.99
	d = g.Evaluate(&state, 0.97, "m1")
	assert.True(t, d.Allowed)
}

func TestEvaluateStopLossDominates(t *testing.T) {
	// Everything is wrong at once; the stop-loss reason must win.
	state := domain.PortfolioState{
		TotalPnL:  -100,
		Positions: []domain.Position{openPosition("m1"), openPosition("m2")},
	}

	d := testGate().Evaluate(&state, 0.10, "m1")
	require.False(t, d.Allowed)
	assert.Contains(t, d.Reason, "portfolio stop hit")
}

func TestEvaluateMaxPositions(t *testing.T) {
	state := domain.PortfolioState{
		Positions: []domain.Position{openPosition("m1"), openPosition("m2")},
	}

	d := testGate().Evaluate(&state, 0.97, "m3")
	require.False(t, d.Allowed)
	assert.Contains(t, d.Reason, "max positions reached")
}

func TestEvaluateClosedPositionsDoNotCount(t *testing.T) {
	closed := openPosition("m1")
	closed.Status = domain.PositionStatusClosed

	state := domain.PortfolioState{
		Positions: []domain.Position{closed, openPosition("m2")},
	}

	d := testGate().Evaluate(&state, 0.97, "m3")
	assert.True(t, d.Allowed)
}

func TestEvaluateDuplicateMarket(t *testing.T) {
	state := domain.PortfolioState{
		Positions: []domain.Position{openPosition("m1")},
	}

	d := testGate().Evaluate(&state, 0.97, "m1")
	require.False(t, d.Allowed)
	assert.Equal(t, "already in this market", d.Reason)

	// A different market passes.
	d = testGate().Evaluate(&state, 0.97, "m2")
	assert.True(t, d.Allowed)
}

func TestEvaluateMinPrice(t *testing.T) {
	state := domain.PortfolioState{}

	// Arbitrage-style entry prices fall below the floor and are rejected.
	d := testGate().Evaluate(&state, 0.45, "m1")
	require.False(t, d.Allowed)
	assert.Contains(t, d.Reason, "below min")

	// Exactly at the floor passes.
	d = testGate().Evaluate(&state, 0.95, "m1")
	assert.True(t, d.Allowed)
}

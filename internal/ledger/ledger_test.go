package ledger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akeller/resolvebot/internal/domain"
)

// memStore is an in-memory StateStore with failure injection.
type memStore struct {
	state   domain.PortfolioState
	saves   int
	failSav bool
}

func (m *memStore) Load(context.Context) (domain.PortfolioState, error) {
	return m.state.Clone(), nil
}

func (m *memStore) Save(_ context.Context, state domain.PortfolioState) error {
	if m.failSav {
		return errors.New("disk full")
	}
	m.state = state.Clone()
	m.saves++
	return nil
}

type memJournal struct {
	entries []domain.Position
	fail    bool
}

func (m *memJournal) Record(pos domain.Position) error {
	if m.fail {
		return errors.New("journal unwritable")
	}
	m.entries = append(m.entries, pos)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testOpportunity() domain.Opportunity {
	return domain.Opportunity{
		MarketID:    "m1",
		ConditionID: "c1",
		TokenID:     "tok1",
		Question:    "Will it resolve?",
		Outcome:     domain.OutcomeYes,
		Price:       0.96,
		Strategy:    domain.StrategyNearResolution,
		Score:       78,
	}
}

func newTestLedger(t *testing.T, store *memStore, jrnl *memJournal) *Ledger {
	t.Helper()
	// A typed nil inside the interface would defeat the ledger's nil check.
	var j domain.Journal
	if jrnl != nil {
		j = jrnl
	}
	led, err := Load(context.Background(), store, j, nil, discardLogger())
	require.NoError(t, err)
	return led
}

func TestOpenPersistsPosition(t *testing.T) {
	store := &memStore{}
	jrnl := &memJournal{}
	led := newTestLedger(t, store, jrnl)

	pos, err := led.Open(context.Background(), testOpportunity(), 10)
	require.NoError(t, err)

	assert.NotEmpty(t, pos.ID)
	assert.Equal(t, domain.PositionStatusOpen, pos.Status)
	assert.InDelta(t, 10/0.96, pos.Shares, 1e-9)
	assert.Equal(t, 10.0, pos.Size)

	// Write-through: the durable copy already has the position.
	assert.Equal(t, 1, store.saves)
	require.Len(t, store.state.Positions, 1)
	assert.Equal(t, 1, store.state.TotalTrades)

	require.Len(t, jrnl.entries, 1)
	assert.Equal(t, pos.ID, jrnl.entries[0].ID)
}

func TestOpenRejectsZeroPrice(t *testing.T) {
	led := newTestLedger(t, &memStore{}, nil)

	opp := testOpportunity()
	opp.Price = 0
	_, err := led.Open(context.Background(), opp, 10)
	assert.ErrorIs(t, err, domain.ErrInvalidOrder)
}

func TestOpenRejectsSecondOpenForSameMarket(t *testing.T) {
	led := newTestLedger(t, &memStore{}, nil)

	_, err := led.Open(context.Background(), testOpportunity(), 10)
	require.NoError(t, err)

	_, err = led.Open(context.Background(), testOpportunity(), 10)
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	// Closing frees the market for a new position.
	_, err = led.Close(context.Background(), "m1", 1.0)
	require.NoError(t, err)
	_, err = led.Open(context.Background(), testOpportunity(), 10)
	assert.NoError(t, err)
}

func TestOpenRevertsOnPersistFailure(t *testing.T) {
	store := &memStore{failSav: true}
	led := newTestLedger(t, store, nil)

	_, err := led.Open(context.Background(), testOpportunity(), 10)
	require.Error(t, err)

	state := led.State()
	assert.Empty(t, state.Positions)
	assert.Zero(t, state.TotalTrades)
}

func TestCloseRealizesPnL(t *testing.T) {
	store := &memStore{}
	led := newTestLedger(t, store, nil)

	opened, err := led.Open(context.Background(), testOpportunity(), 10)
	require.NoError(t, err)

	closed, err := led.Close(context.Background(), "m1", 1.0)
	require.NoError(t, err)

	wantPnL := opened.Shares*1.0 - 10
	assert.Equal(t, domain.PositionStatusClosed, closed.Status)
	require.NotNil(t, closed.PnL)
	assert.InDelta(t, wantPnL, *closed.PnL, 1e-9)
	require.NotNil(t, closed.ExitPrice)
	assert.Equal(t, 1.0, *closed.ExitPrice)
	assert.InDelta(t, wantPnL, led.TotalPnL(), 1e-9)

	// Durable copy reflects the close.
	require.Len(t, store.state.Positions, 1)
	assert.Equal(t, domain.PositionStatusClosed, store.state.Positions[0].Status)
}

func TestCloseLosingPosition(t *testing.T) {
	led := newTestLedger(t, &memStore{}, nil)

	opened, err := led.Open(context.Background(), testOpportunity(), 10)
	require.NoError(t, err)

	closed, err := led.Close(context.Background(), "m1", 0.0)
	require.NoError(t, err)

	require.NotNil(t, closed.PnL)
	assert.InDelta(t, -10.0, *closed.PnL, 1e-9)
	assert.InDelta(t, -10.0, led.TotalPnL(), 1e-9)
	_ = opened
}

func TestCloseUnknownMarket(t *testing.T) {
	led := newTestLedger(t, &memStore{}, nil)

	_, err := led.Close(context.Background(), "nope", 1.0)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCloseTwiceIsNotFound(t *testing.T) {
	led := newTestLedger(t, &memStore{}, nil)

	_, err := led.Open(context.Background(), testOpportunity(), 10)
	require.NoError(t, err)

	first, err := led.Close(context.Background(), "m1", 1.0)
	require.NoError(t, err)
	pnlAfterFirst := led.TotalPnL()

	_, err = led.Close(context.Background(), "m1", 1.0)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// The repeated close must not touch totals.
	assert.Equal(t, pnlAfterFirst, led.TotalPnL())
	require.NotNil(t, first.PnL)
}

func TestCloseRevertsOnPersistFailure(t *testing.T) {
	store := &memStore{}
	led := newTestLedger(t, store, nil)

	_, err := led.Open(context.Background(), testOpportunity(), 10)
	require.NoError(t, err)

	store.failSav = true
	_, err = led.Close(context.Background(), "m1", 1.0)
	require.Error(t, err)

	// In-memory state still shows the position open with no realized PnL.
	open := led.ListOpen()
	require.Len(t, open, 1)
	assert.Zero(t, led.TotalPnL())
}

func TestJournalFailureDoesNotFailOpen(t *testing.T) {
	jrnl := &memJournal{fail: true}
	led := newTestLedger(t, &memStore{}, jrnl)

	_, err := led.Open(context.Background(), testOpportunity(), 10)
	assert.NoError(t, err)
}

func TestLoadRestoresState(t *testing.T) {
	store := &memStore{}
	led := newTestLedger(t, store, nil)

	_, err := led.Open(context.Background(), testOpportunity(), 10)
	require.NoError(t, err)
	_, err = led.Close(context.Background(), "m1", 1.0)
	require.NoError(t, err)

	reloaded := newTestLedger(t, store, nil)
	assert.InDelta(t, led.TotalPnL(), reloaded.TotalPnL(), 1e-9)
	assert.Len(t, reloaded.State().Positions, 1)
	assert.Empty(t, reloaded.ListOpen())
}

func TestMarkScan(t *testing.T) {
	store := &memStore{}
	led := newTestLedger(t, store, nil)

	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, led.MarkScan(context.Background(), at))
	assert.Equal(t, at, store.state.LastScanAt)
}

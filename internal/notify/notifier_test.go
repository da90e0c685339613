package notify

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

type fakeSender struct {
	name string
	sent []string
	err  error
}

func (f *fakeSender) Send(_ context.Context, title, _ string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, title)
	return nil
}

func (f *fakeSender) Name() string { return f.name }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNotifyDeliversToAllSenders(t *testing.T) {
	a := &fakeSender{name: "a"}
	b := &fakeSender{name: "b"}
	n := NewNotifier([]Sender{a, b}, nil, testLogger())

	require.NoError(t, n.Notify(context.Background(), EventTrade, "filled", "details"))
	assert.Equal(t, []string{"filled"}, a.sent)
	assert.Equal(t, []string{"filled"}, b.sent)
}

func TestNotifyFiltersEvents(t *testing.T) {
	s := &fakeSender{name: "a"}
	n := NewNotifier([]Sender{s}, []string{"trade", " close "}, testLogger())

	require.NoError(t, n.Notify(context.Background(), EventOpportunity, "skip", ""))
	require.NoError(t, n.Notify(context.Background(), EventTrade, "keep", ""))
	require.NoError(t, n.Notify(context.Background(), EventClose, "keep too", ""))

	assert.Equal(t, []string{"keep", "keep too"}, s.sent)
}

func TestNotifySenderFailureDoesNotBlockOthers(t *testing.T) {
	bad := &fakeSender{name: "bad", err: errors.New("boom")}
	good := &fakeSender{name: "good"}
	n := NewNotifier([]Sender{bad, good}, nil, testLogger())

	err := n.Notify(context.Background(), EventError, "title", "msg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")
	assert.Equal(t, []string{"title"}, good.sent)
}

func TestNotifyNoSenders(t *testing.T) {
	n := NewNotifier(nil, nil, testLogger())
	assert.NoError(t, n.Notify(context.Background(), EventStartup, "up", ""))
}

func TestTradeMessageContents(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	pos := domain.Position{
		ID:         "p1",
		MarketID:   "m1",
		Question:   "Will it resolve?",
		Outcome:    domain.OutcomeYes,
		Strategy:   domain.StrategyExpired,
		EntryPrice: 0.97,
		Size:       10,
		Shares:     10 / 0.97,
		Status:     domain.PositionStatusOpen,
		EnteredAt:  now,
	}

	title, msg := TradeMessage(pos)
	assert.NotEmpty(t, title)
	assert.Contains(t, msg, "Will it resolve?")
	assert.Contains(t, msg, "0.97")
}

func TestCloseMessageContents(t *testing.T) {
	exit := 1.0
	pnl := 0.31
	closedAt := time.Now()
	pos := domain.Position{
		ID:        "p1",
		Question:  "Will it resolve?",
		Status:    domain.PositionStatusClosed,
		ExitPrice: &exit,
		PnL:       &pnl,
		ClosedAt:  &closedAt,
	}

	title, msg := CloseMessage(pos, 12.5)
	assert.Contains(t, title, "+0.31")
	assert.Contains(t, msg, "Will it resolve?")
	assert.Contains(t, msg, "+12.50")
}

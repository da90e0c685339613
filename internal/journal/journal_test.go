package journal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akeller/resolvebot/internal/domain"
)

func fixedClock() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func testJournal(t *testing.T) (*Journal, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trading.md")
	j := New(path)
	j.clock = fixedClock
	return j, path
}

func openPos() domain.Position {
	return domain.Position{
		ID:         "p1",
		MarketID:   "m1",
		Question:   "Will the market resolve yes?",
		Outcome:    domain.OutcomeYes,
		EntryPrice: 0.96,
		Size:       10,
		Shares:     10 / 0.96,
		Status:     domain.PositionStatusOpen,
	}
}

func TestRecordWritesHeaderOnce(t *testing.T) {
	j, path := testJournal(t)

	require.NoError(t, j.Record(openPos()))
	require.NoError(t, j.Record(openPos()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)

	assert.Equal(t, 1, strings.Count(content, "# Trading Journal"))
	assert.Equal(t, 1, strings.Count(content, "| Time |"))
	assert.Equal(t, 2, strings.Count(content, "| Will the market resolve yes? |"))
}

func TestRecordOpenRow(t *testing.T) {
	j, path := testJournal(t)

	require.NoError(t, j.Record(openPos()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Contains(t, string(data),
		"| 2025-06-01 12:00 | Will the market resolve yes? | Yes | $0.960 | $10.00 | open | - |")
}

func TestRecordClosedRowIncludesPnL(t *testing.T) {
	j, path := testJournal(t)

	pos := openPos()
	pnl := 0.42
	pos.Status = domain.PositionStatusClosed
	pos.PnL = &pnl

	require.NoError(t, j.Record(pos))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "| closed | $0.42 |")
}

func TestRecordTruncatesLongQuestions(t *testing.T) {
	j, path := testJournal(t)

	pos := openPos()
	pos.Question = strings.Repeat("x", 100)

	require.NoError(t, j.Record(pos))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "| "+strings.Repeat("x", 40)+" |")
	assert.NotContains(t, string(data), strings.Repeat("x", 41))
}

func TestRecordAppendsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trading.md")

	j1 := New(path)
	j1.clock = fixedClock
	require.NoError(t, j1.Record(openPos()))

	// A restart reuses the same file without rewriting it.
	j2 := New(path)
	j2.clock = fixedClock
	require.NoError(t, j2.Record(openPos()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "# Trading Journal"))
	assert.Equal(t, 2, strings.Count(string(data), "| open |"))
}

// Package journal writes the append-only, human-readable trading journal:
// one markdown table row per position open or close. The file is never
// rewritten or compacted.
package journal

import (
	"fmt"
	"os"
	"time"

	"github.com/akeller/resolvebot/internal/domain"
)

const header = "# Trading Journal\n\n" +
	"| Time | Market | Side | Price | Size | Status | PnL |\n" +
	"|------|--------|------|-------|------|--------|-----|\n"

// Journal appends trade rows to a markdown file.
type Journal struct {
	path  string
	clock func() time.Time
}

// New creates a Journal writing to path.
func New(path string) *Journal {
	return &Journal{path: path, clock: time.Now}
}

// Record appends one row for the position. The table header is written the
// first time the file is created.
func (j *Journal) Record(pos domain.Position) error {
	f, err := os.OpenFile(j.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("journal: open %s: %w", j.path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("journal: stat %s: %w", j.path, err)
	}
	if info.Size() == 0 {
		if _, err := f.WriteString(header); err != nil {
			return fmt.Errorf("journal: write header: %w", err)
		}
	}

	pnl := "-"
	if pos.PnL != nil {
		pnl = fmt.Sprintf("$%.2f", *pos.PnL)
	}

	line := fmt.Sprintf("| %s | %s | %s | $%.3f | $%.2f | %s | %s |\n",
		j.clock().UTC().Format("2006-01-02 15:04"),
		truncate(pos.Question, 40),
		pos.Outcome,
		pos.EntryPrice,
		pos.Size,
		pos.Status,
		pnl,
	)

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("journal: append: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

package domain

import "time"

// PositionStatus tracks whether a position is open or closed.
type PositionStatus string

const (
	PositionStatusOpen   PositionStatus = "open"
	PositionStatusClosed PositionStatus = "closed"
)

// Position is a single committed trade, tracked from open to close. At
// creation Shares*EntryPrice == Size (within floating-point tolerance); at
// close PnL = Shares*ExitPrice - Size.
type Position struct {
	ID          string         `json:"id"`
	MarketID    string         `json:"marketId"`
	ConditionID string         `json:"conditionId"`
	TokenID     string         `json:"tokenId,omitempty"`
	Question    string         `json:"question"`
	Outcome     string         `json:"outcome"`
	Strategy    Strategy       `json:"strategy"`
	EntryPrice  float64        `json:"entryPrice"`
	Size        float64        `json:"size"`   // capital committed, USDC
	Shares      float64        `json:"shares"` // Size / EntryPrice
	Status      PositionStatus `json:"status"`
	EnteredAt   time.Time      `json:"enteredAt"`
	ExitPrice   *float64       `json:"exitPrice,omitempty"`
	PnL         *float64       `json:"pnl,omitempty"`
	ClosedAt    *time.Time     `json:"closedAt,omitempty"`
}

// PortfolioState is the durable aggregate the ledger owns: every position
// ever created in insertion order, realized PnL of closed positions, total
// trade count, and the last completed scan time. Open positions contribute
// nothing to TotalPnL.
type PortfolioState struct {
	Positions   []Position `json:"positions"`
	TotalPnL    float64    `json:"totalPnl"`
	TotalTrades int        `json:"totalTrades"`
	LastScanAt  time.Time  `json:"lastScanAt"`
}

// OpenPositions returns the currently open positions in insertion order.
func (s *PortfolioState) OpenPositions() []Position {
	var open []Position
	for _, p := range s.Positions {
		if p.Status == PositionStatusOpen {
			open = append(open, p)
		}
	}
	return open
}

// HasOpenPosition reports whether an open position already references the
// given market.
func (s *PortfolioState) HasOpenPosition(marketID string) bool {
	for _, p := range s.Positions {
		if p.Status == PositionStatusOpen && p.MarketID == marketID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can snapshot state without racing
// future ledger mutations.
func (s *PortfolioState) Clone() PortfolioState {
	out := *s
	out.Positions = make([]Position, len(s.Positions))
	copy(out.Positions, s.Positions)
	return out
}

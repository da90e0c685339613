package notify

import (
	"fmt"

	"github.com/akeller/resolvebot/internal/domain"
)

// OpportunityMessage formats a scored opportunity for an alert body.
func OpportunityMessage(opp domain.Opportunity) (title, message string) {
	title = fmt.Sprintf("Opportunity: %s (%.1f)", opp.Strategy, opp.Score)
	message = fmt.Sprintf("%s\n%s @ %.3f, ends in %.1fh",
		opp.Question, opp.Outcome, opp.Price, opp.HoursToEnd)
	return title, message
}

// TradeMessage formats a newly opened position for an alert body.
func TradeMessage(pos domain.Position) (title, message string) {
	title = fmt.Sprintf("Opened: %s", pos.Strategy)
	message = fmt.Sprintf("%s\n%s %.2f shares @ %.3f ($%.2f)",
		pos.Question, pos.Outcome, pos.Shares, pos.EntryPrice, pos.Size)
	return title, message
}

// CloseMessage formats a closed position for an alert body.
func CloseMessage(pos domain.Position, totalPnL float64) (title, message string) {
	pnl := 0.0
	if pos.PnL != nil {
		pnl = *pos.PnL
	}
	title = fmt.Sprintf("Closed: $%+.2f", pnl)
	message = fmt.Sprintf("%s\ntotal PnL $%+.2f", pos.Question, totalPnL)
	return title, message
}

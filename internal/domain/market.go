package domain

import "time"

// Outcome labels for binary markets. Prices for the two sides are observed
// independently and need not sum to 1.
const (
	OutcomeYes = "Yes"
	OutcomeNo  = "No"
)

// OutcomeToken is one tradable side of a market with its current price.
type OutcomeToken struct {
	TokenID string
	Outcome string // OutcomeYes or OutcomeNo
	Price   float64
}

// Market is a read-only snapshot of a prediction market as returned by the
// market feed. EndDate is nil when the feed omits it or it cannot be parsed;
// strategies that depend on the end date must skip such markets.
type Market struct {
	ID          string
	ConditionID string
	Question    string
	Slug        string
	EndDate     *time.Time
	Tokens      []OutcomeToken
	Volume24h   float64
	Liquidity   float64
	Active      bool
	Closed      bool
}

// YesNo returns the Yes and No outcome tokens of a binary market. ok is false
// when the market does not carry exactly that pair, in which case the market
// is not scorable.
func (m Market) YesNo() (yes, no OutcomeToken, ok bool) {
	var haveYes, haveNo bool
	for _, t := range m.Tokens {
		switch t.Outcome {
		case OutcomeYes:
			yes, haveYes = t, true
		case OutcomeNo:
			no, haveNo = t, true
		}
	}
	return yes, no, haveYes && haveNo
}

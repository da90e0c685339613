package domain

import "time"

// Strategy identifies the heuristic that proposed an opportunity. Scores from
// different strategies deliberately share an overlapping 0-100+ scale so they
// can be ranked together.
type Strategy string

const (
	StrategyExpired        Strategy = "expired"
	StrategyNearResolution Strategy = "near-resolution"
	StrategyTimeDecay      Strategy = "time-decay"
	StrategyArbitrage      Strategy = "arbitrage"
)

// Opportunity is a single scored trade candidate produced by the scanner for
// a (market, outcome, strategy) triple. Opportunities are immutable values;
// one market can yield several of them in the same scan.
type Opportunity struct {
	MarketID    string
	ConditionID string
	TokenID     string
	Question    string
	Outcome     string // OutcomeYes or OutcomeNo
	Price       float64
	Strategy    Strategy
	Score       float64 // higher = more attractive, strategy-specific scale

	// Strategy context.
	EndDate    *time.Time
	HoursToEnd float64 // time-decay only
	EstProfit  float64 // arbitrage only: 1.0 - (yes+no)
	Volume     float64
}

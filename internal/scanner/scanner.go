// Package scanner turns raw market snapshots into ranked trade candidates.
// Scanning is pure: no I/O, no state, deterministic given the input markets
// and the injected clock reading.
package scanner

import (
	"sort"
	"time"

	"github.com/akeller/resolvebot/internal/domain"
)

// Strategy scoring anchors. Each strategy maps its edge onto an overlapping
// 0-100+ scale so candidates from different strategies rank against each
// other in a single list.
const (
	nearResolutionFloor = 0.95
	arbitragePriceSum   = 0.99
	timeDecayWindowHrs  = 48
	scoreAnchorPrice    = 0.92
)

// Config holds the scanner thresholds.
type Config struct {
	// MinPrice is the lowest outcome price the expired and time-decay
	// strategies will consider.
	MinPrice float64
}

// Stats counts what a scan saw, so silently skipped markets stay observable.
type Stats struct {
	Markets int // markets examined
	Skipped int // markets without a usable Yes/No pair
	Emitted int // opportunities produced
}

// Scanner evaluates every strategy against every binary market.
type Scanner struct {
	cfg Config
}

// New creates a Scanner.
func New(cfg Config) *Scanner {
	return &Scanner{cfg: cfg}
}

// Scan produces all opportunities found in markets, sorted by score
// descending. The sort is stable: candidates with equal scores keep their
// input order. now is injected so callers control the end-date comparisons.
func (s *Scanner) Scan(markets []domain.Market, now time.Time) ([]domain.Opportunity, Stats) {
	var (
		opps  []domain.Opportunity
		stats Stats
	)

	for _, m := range markets {
		stats.Markets++

		yes, no, ok := m.YesNo()
		if !ok {
			stats.Skipped++
			continue
		}

		opps = append(opps, s.scoreMarket(m, yes, no, now)...)
	}

	sort.SliceStable(opps, func(i, j int) bool {
		return opps[i].Score > opps[j].Score
	})

	stats.Emitted = len(opps)
	return opps, stats
}

// scoreMarket runs all four strategies against one binary market. Strategies
// are independent: a single market can emit several candidates.
func (s *Scanner) scoreMarket(m domain.Market, yes, no domain.OutcomeToken, now time.Time) []domain.Opportunity {
	var opps []domain.Opportunity

	// Strategy 1: expired events. Once the end date has passed but the
	// market has not settled, a near-certain outcome still trading below
	// 1.0 is underpriced. Both sides qualify independently.
	if m.EndDate != nil && m.EndDate.Before(now) {
		for _, side := range []struct {
			tok     domain.OutcomeToken
			outcome string
		}{
			{yes, domain.OutcomeYes},
			{no, domain.OutcomeNo},
		} {
			if side.tok.Price >= s.cfg.MinPrice && side.tok.Price < 1.0 {
				opps = append(opps, domain.Opportunity{
					MarketID:    m.ID,
					ConditionID: m.ConditionID,
					TokenID:     side.tok.TokenID,
					Question:    m.Question,
					Outcome:     side.outcome,
					Price:       side.tok.Price,
					Strategy:    domain.StrategyExpired,
					Score:       95 + (side.tok.Price-scoreAnchorPrice)*50,
					EndDate:     m.EndDate,
				})
			}
		}
	}

	// Strategy 2: near resolution. One side is very high regardless of the
	// end date; the steeper slope rewards extremity over mere expiry.
	for _, side := range []struct {
		tok     domain.OutcomeToken
		outcome string
	}{
		{yes, domain.OutcomeYes},
		{no, domain.OutcomeNo},
	} {
		if side.tok.Price >= nearResolutionFloor && side.tok.Price < 1.0 {
			opps = append(opps, domain.Opportunity{
				MarketID:    m.ID,
				ConditionID: m.ConditionID,
				TokenID:     side.tok.TokenID,
				Question:    m.Question,
				Outcome:     side.outcome,
				Price:       side.tok.Price,
				Strategy:    domain.StrategyNearResolution,
				Score:       70 + (side.tok.Price-scoreAnchorPrice)*200,
				Volume:      m.Volume24h,
			})
		}
	}

	// Strategy 3: time decay. Deadline within 48 hours and NO is high; a
	// closer deadline scores higher.
	if m.EndDate != nil {
		hoursLeft := m.EndDate.Sub(now).Hours()
		if hoursLeft > 0 && hoursLeft <= timeDecayWindowHrs &&
			no.Price >= s.cfg.MinPrice && no.Price < 1.0 {
			timeScore := 80 - hoursLeft
			if timeScore < 0 {
				timeScore = 0
			}
			opps = append(opps, domain.Opportunity{
				MarketID:    m.ID,
				ConditionID: m.ConditionID,
				TokenID:     no.TokenID,
				Question:    m.Question,
				Outcome:     domain.OutcomeNo,
				Price:       no.Price,
				Strategy:    domain.StrategyTimeDecay,
				Score:       timeScore + (no.Price-scoreAnchorPrice)*100,
				EndDate:     m.EndDate,
				HoursToEnd:  hoursLeft,
			})
		}
	}

	// Strategy 4: arbitrage. The book is under 100%: buying both sides
	// locks in 1.0 - (yes+no). The YES side is recorded by convention; the
	// executor owns buying the complement.
	if sum := yes.Price + no.Price; sum < arbitragePriceSum && yes.Price > 0 && yes.Price < 1.0 {
		profit := 1.0 - sum
		opps = append(opps, domain.Opportunity{
			MarketID:    m.ID,
			ConditionID: m.ConditionID,
			TokenID:     yes.TokenID,
			Question:    m.Question,
			Outcome:     domain.OutcomeYes,
			Price:       yes.Price,
			Strategy:    domain.StrategyArbitrage,
			Score:       profit * 1000,
			EstProfit:   profit,
		})
	}

	return opps
}

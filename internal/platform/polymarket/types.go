package polymarket

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/akeller/resolvebot/internal/domain"
)

// flexBool unmarshals from JSON bool or string ("true"/"false") so Gamma API
// responses work whether "active" is sent as bool or string.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = flexBool(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = flexBool(strings.EqualFold(s, "true") || s == "1")
	return nil
}

// APIMarket represents a market as returned by the Polymarket Gamma API.
// Outcomes, prices, and token IDs arrive as JSON-encoded string fields.
type APIMarket struct {
	ID            string   `json:"id"`
	Question      string   `json:"question"`
	ConditionID   string   `json:"conditionId"`
	Slug          string   `json:"slug"`
	Active        flexBool `json:"active"`
	Closed        flexBool `json:"closed"`
	EndDate       string   `json:"endDate"`
	EndDateISO    string   `json:"end_date_iso"`
	Outcomes      string   `json:"outcomes"`      // e.g. "[\"Yes\",\"No\"]"
	OutcomePrices string   `json:"outcomePrices"` // e.g. "[\"0.97\",\"0.02\"]"
	ClobTokenIDs  string   `json:"clobTokenIds"`  // e.g. "[\"123\",\"456\"]"
	VolumeNum     float64  `json:"volumeNum"`
	Volume24hr    float64  `json:"volume24hr"`
	LiquidityNum  float64  `json:"liquidityNum"`
}

// ToDomainMarket converts an APIMarket into a domain.Market, decoding the
// JSON-encoded outcome fields. It returns an error when the outcome arrays
// are malformed or inconsistent; callers skip such markets.
func (m *APIMarket) ToDomainMarket() (domain.Market, error) {
	var outcomes []string
	if err := json.Unmarshal([]byte(m.Outcomes), &outcomes); err != nil {
		return domain.Market{}, fmt.Errorf("market %s: decode outcomes: %w", m.ID, err)
	}

	var priceStrs []string
	if err := json.Unmarshal([]byte(m.OutcomePrices), &priceStrs); err != nil {
		return domain.Market{}, fmt.Errorf("market %s: decode outcome prices: %w", m.ID, err)
	}

	// Token IDs are optional for scan-only use; tolerate their absence but
	// not an inconsistent count.
	var tokenIDs []string
	if m.ClobTokenIDs != "" {
		if err := json.Unmarshal([]byte(m.ClobTokenIDs), &tokenIDs); err != nil {
			return domain.Market{}, fmt.Errorf("market %s: decode token ids: %w", m.ID, err)
		}
	}

	if len(outcomes) != len(priceStrs) {
		return domain.Market{}, fmt.Errorf("market %s: %d outcomes vs %d prices", m.ID, len(outcomes), len(priceStrs))
	}
	if len(tokenIDs) > 0 && len(tokenIDs) != len(outcomes) {
		return domain.Market{}, fmt.Errorf("market %s: %d outcomes vs %d token ids", m.ID, len(outcomes), len(tokenIDs))
	}

	tokens := make([]domain.OutcomeToken, 0, len(outcomes))
	for i, name := range outcomes {
		price, err := strconv.ParseFloat(priceStrs[i], 64)
		if err != nil {
			return domain.Market{}, fmt.Errorf("market %s: price %q: %w", m.ID, priceStrs[i], err)
		}
		tok := domain.OutcomeToken{Outcome: name, Price: price}
		if len(tokenIDs) > 0 {
			tok.TokenID = tokenIDs[i]
		}
		tokens = append(tokens, tok)
	}

	out := domain.Market{
		ID:          m.ID,
		ConditionID: m.ConditionID,
		Question:    m.Question,
		Slug:        m.Slug,
		Tokens:      tokens,
		Volume24h:   m.Volume24hr,
		Liquidity:   m.LiquidityNum,
		Active:      bool(m.Active),
		Closed:      bool(m.Closed),
	}

	// End dates come in two flavors depending on the endpoint; a market
	// without a parsable one simply has no EndDate.
	for _, raw := range []string{m.EndDate, m.EndDateISO} {
		if raw == "" {
			continue
		}
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			out.EndDate = &t
			break
		}
	}

	return out, nil
}

// APIOrderResult is the response from placing an order via the CLOB API.
type APIOrderResult struct {
	Success     bool   `json:"success"`
	ErrorMsg    string `json:"errorMsg,omitempty"`
	OrderID     string `json:"orderID,omitempty"`
	Status      string `json:"status,omitempty"`
	ShouldRetry bool   `json:"shouldRetry,omitempty"`
}

// APIKeyCreds are the L2 API credentials derived from a signed auth message.
type APIKeyCreds struct {
	APIKey     string `json:"apiKey"`
	Secret     string `json:"secret"`
	Passphrase string `json:"passphrase"`
}

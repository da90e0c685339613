package polymarket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akeller/resolvebot/internal/domain"
)

func TestFlexBool(t *testing.T) {
	var m APIMarket
	require.NoError(t, json.Unmarshal([]byte(`{"active": true, "closed": "false"}`), &m))
	assert.True(t, bool(m.Active))
	assert.False(t, bool(m.Closed))

	require.NoError(t, json.Unmarshal([]byte(`{"active": "true", "closed": "1"}`), &m))
	assert.True(t, bool(m.Active))
	assert.True(t, bool(m.Closed))
}

func TestToDomainMarket(t *testing.T) {
	api := APIMarket{
		ID:            "516710",
		Question:      "Will the bill pass by July?",
		ConditionID:   "0xabc",
		Slug:          "bill-pass-july",
		Active:        true,
		EndDate:       "2025-07-01T00:00:00Z",
		Outcomes:      `["Yes","No"]`,
		OutcomePrices: `["0.97","0.03"]`,
		ClobTokenIDs:  `["111","222"]`,
		Volume24hr:    1234.5,
		LiquidityNum:  500,
	}

	m, err := api.ToDomainMarket()
	require.NoError(t, err)

	assert.Equal(t, "516710", m.ID)
	assert.Equal(t, "0xabc", m.ConditionID)
	require.Len(t, m.Tokens, 2)
	assert.Equal(t, domain.OutcomeToken{TokenID: "111", Outcome: "Yes", Price: 0.97}, m.Tokens[0])
	assert.Equal(t, domain.OutcomeToken{TokenID: "222", Outcome: "No", Price: 0.03}, m.Tokens[1])
	require.NotNil(t, m.EndDate)
	assert.Equal(t, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), m.EndDate.UTC())

	yes, no, ok := m.YesNo()
	require.True(t, ok)
	assert.Equal(t, 0.97, yes.Price)
	assert.Equal(t, 0.03, no.Price)
}

func TestToDomainMarketWithoutTokenIDs(t *testing.T) {
	api := APIMarket{
		ID:            "1",
		Outcomes:      `["Yes","No"]`,
		OutcomePrices: `["0.5","0.5"]`,
	}

	m, err := api.ToDomainMarket()
	require.NoError(t, err)
	require.Len(t, m.Tokens, 2)
	assert.Empty(t, m.Tokens[0].TokenID)
}

func TestToDomainMarketFallsBackToISOEndDate(t *testing.T) {
	api := APIMarket{
		ID:            "1",
		Outcomes:      `["Yes","No"]`,
		OutcomePrices: `["0.5","0.5"]`,
		EndDate:       "not-a-date",
		EndDateISO:    "2025-07-01T00:00:00Z",
	}

	m, err := api.ToDomainMarket()
	require.NoError(t, err)
	require.NotNil(t, m.EndDate)
	assert.Equal(t, 2025, m.EndDate.Year())
}

func TestToDomainMarketNoParsableEndDate(t *testing.T) {
	api := APIMarket{
		ID:            "1",
		Outcomes:      `["Yes","No"]`,
		OutcomePrices: `["0.5","0.5"]`,
	}

	m, err := api.ToDomainMarket()
	require.NoError(t, err)
	assert.Nil(t, m.EndDate)
}

func TestToDomainMarketMalformed(t *testing.T) {
	tests := []struct {
		name string
		api  APIMarket
	}{
		{"bad outcomes json", APIMarket{ID: "1", Outcomes: `[Yes`, OutcomePrices: `["0.5"]`}},
		{"bad prices json", APIMarket{ID: "1", Outcomes: `["Yes"]`, OutcomePrices: `0.5`}},
		{"count mismatch", APIMarket{ID: "1", Outcomes: `["Yes","No"]`, OutcomePrices: `["0.5"]`}},
		{"token count mismatch", APIMarket{
			ID: "1", Outcomes: `["Yes","No"]`, OutcomePrices: `["0.5","0.5"]`, ClobTokenIDs: `["111"]`,
		}},
		{"unparsable price", APIMarket{ID: "1", Outcomes: `["Yes","No"]`, OutcomePrices: `["high","0.5"]`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.api.ToDomainMarket()
			assert.Error(t, err)
		})
	}
}

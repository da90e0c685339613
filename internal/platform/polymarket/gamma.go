package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/akeller/resolvebot/internal/domain"
)

// GammaClient is the REST client for the Polymarket Gamma API, used for
// market discovery. It implements domain.MarketFeed.
type GammaClient struct {
	baseURL    string
	pageSize   int
	maxMarkets int
	httpClient *http.Client
	logger     *slog.Logger
}

// NewGammaClient creates a Gamma API client.
//
// baseURL is the Gamma API root, e.g. "https://gamma-api.polymarket.com".
// pageSize controls the per-request limit; maxMarkets caps how many markets
// one scan will page through.
func NewGammaClient(baseURL string, pageSize, maxMarkets int, logger *slog.Logger) *GammaClient {
	if pageSize <= 0 {
		pageSize = 100
	}
	if maxMarkets <= 0 {
		maxMarkets = 2000
	}
	return &GammaClient{
		baseURL:    baseURL,
		pageSize:   pageSize,
		maxMarkets: maxMarkets,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger.With(slog.String("component", "gamma_client")),
	}
}

// ActiveMarkets pages through /markets?active=true&closed=false until the
// API returns an empty page or the market cap is reached. Markets with
// malformed outcome data are skipped individually; a failed page stops
// pagination but returns what was already fetched.
func (g *GammaClient) ActiveMarkets(ctx context.Context) ([]domain.Market, error) {
	var markets []domain.Market

	for offset := 0; offset < g.maxMarkets; offset += g.pageSize {
		apiMarkets, err := g.marketsPage(ctx, g.pageSize, offset)
		if err != nil {
			if len(markets) > 0 {
				g.logger.WarnContext(ctx, "market page fetch failed, using partial list",
					slog.Int("offset", offset),
					slog.Int("fetched", len(markets)),
					slog.String("error", err.Error()),
				)
				return markets, nil
			}
			return nil, fmt.Errorf("polymarket/gamma: fetch markets: %w", err)
		}
		if len(apiMarkets) == 0 {
			break
		}

		for i := range apiMarkets {
			m, err := apiMarkets[i].ToDomainMarket()
			if err != nil {
				g.logger.DebugContext(ctx, "skipping malformed market",
					slog.String("market_id", apiMarkets[i].ID),
					slog.String("error", err.Error()),
				)
				continue
			}
			markets = append(markets, m)
		}
	}

	return markets, nil
}

// marketsPage fetches one page of active markets.
func (g *GammaClient) marketsPage(ctx context.Context, limit, offset int) ([]APIMarket, error) {
	params := url.Values{}
	params.Set("active", "true")
	params.Set("closed", "false")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))

	body, err := g.doGet(ctx, "/markets?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var apiMarkets []APIMarket
	if err := json.Unmarshal(body, &apiMarkets); err != nil {
		return nil, fmt.Errorf("decode markets: %w", err)
	}
	return apiMarkets, nil
}

// doGet sends an unauthenticated GET request to the Gamma API.
func (g *GammaClient) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncateBody(body))
	}

	return body, nil
}

func truncateBody(b []byte) string {
	const max = 256
	if len(b) > max {
		b = b[:max]
	}
	return string(b)
}

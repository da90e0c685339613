package polymarket

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/big"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/akeller/resolvebot/internal/crypto"
	"github.com/akeller/resolvebot/internal/domain"
)

const zeroAddress = "0x0000000000000000000000000000000000000000"

// usdcScale converts dollar amounts to the 6-decimal fixed-point units the
// CLOB contract expects.
const usdcScale = 1_000_000

// PaperClient simulates order placement without touching the exchange.
// Every order fills immediately at the requested price.
type PaperClient struct {
	logger *slog.Logger
}

// NewPaperClient creates a simulated order placer.
func NewPaperClient(logger *slog.Logger) *PaperClient {
	return &PaperClient{
		logger: logger.With(slog.String("component", "paper_client")),
	}
}

// PlaceOrder records a simulated fill and returns a synthetic order ID.
func (c *PaperClient) PlaceOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderResult, error) {
	if req.Price <= 0 || req.Size <= 0 {
		return domain.OrderResult{}, fmt.Errorf("polymarket/paper: %w: price=%.4f size=%.2f",
			domain.ErrInvalidOrder, req.Price, req.Size)
	}

	orderID := "paper-" + uuid.NewString()

	c.logger.Info("simulated fill",
		slog.String("order_id", orderID),
		slog.String("token_id", req.TokenID),
		slog.String("side", string(req.Side)),
		slog.Float64("price", req.Price),
		slog.Float64("size", req.Size))

	return domain.OrderResult{
		OrderID: orderID,
		Success: true,
		Message: "paper fill",
	}, nil
}

// ClobClient is the REST client for the Polymarket CLOB (Central Limit
// Order Book) API. It signs orders with EIP-712 and authenticates requests
// with derived HMAC credentials.
type ClobClient struct {
	baseURL    string
	httpClient *http.Client
	signer     *crypto.Signer
	hmacAuth   *crypto.HMACAuth
	logger     *slog.Logger
}

// NewClobClient creates a CLOB REST client. baseURL is the API root, e.g.
// "https://clob.polymarket.com". Call DeriveAPIKey before placing orders.
func NewClobClient(baseURL string, signer *crypto.Signer, logger *slog.Logger) *ClobClient {
	return &ClobClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		signer: signer,
		logger: logger.With(slog.String("component", "clob_client")),
	}
}

// DeriveAPIKey performs the CLOB auth flow to obtain HMAC API credentials.
// It signs a ClobAuth EIP-712 message and sends it with L1 headers
// (POLY_ADDRESS, POLY_SIGNATURE, POLY_TIMESTAMP, POLY_NONCE) to the
// derive-api-key endpoint. On success the client is ready to place orders.
func (c *ClobClient) DeriveAPIKey(ctx context.Context) error {
	address := c.signer.Address().Hex()
	timestamp := time.Now().Unix()
	nonce := int64(0)

	sig, err := c.signer.SignAuthMessage(timestamp, nonce)
	if err != nil {
		return fmt.Errorf("polymarket/clob: sign auth message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/derive-api-key", nil)
	if err != nil {
		return fmt.Errorf("polymarket/clob: create auth request: %w", err)
	}
	req.Header.Set("POLY_ADDRESS", address)
	req.Header.Set("POLY_SIGNATURE", sig)
	req.Header.Set("POLY_TIMESTAMP", fmt.Sprintf("%d", timestamp))
	req.Header.Set("POLY_NONCE", fmt.Sprintf("%d", nonce))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("polymarket/clob: auth request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("polymarket/clob: read auth response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("polymarket/clob: auth failed (HTTP %d): %s", resp.StatusCode, truncateBody(respBody))
	}

	var creds APIKeyCreds
	if err := json.Unmarshal(respBody, &creds); err != nil {
		return fmt.Errorf("polymarket/clob: decode auth response: %w", err)
	}

	c.hmacAuth = crypto.NewHMACAuth(address, creds.APIKey, creds.Secret, creds.Passphrase)
	c.logger.Info("api credentials derived", slog.String("address", address))

	return nil
}

// PlaceOrder signs and submits a fill-or-kill order to the CLOB.
func (c *ClobClient) PlaceOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderResult, error) {
	if c.hmacAuth == nil {
		return domain.OrderResult{}, fmt.Errorf("polymarket/clob: %w", domain.ErrNoCredentials)
	}
	if req.Price <= 0 || req.Price >= 1 || req.Size <= 0 {
		return domain.OrderResult{}, fmt.Errorf("polymarket/clob: %w: price=%.4f size=%.2f",
			domain.ErrInvalidOrder, req.Price, req.Size)
	}

	payload, err := c.buildOrderPayload(req)
	if err != nil {
		return domain.OrderResult{}, err
	}

	sig, err := c.signer.SignOrder(payload)
	if err != nil {
		return domain.OrderResult{}, fmt.Errorf("polymarket/clob: %w: %v", domain.ErrSigningFailed, err)
	}

	body := map[string]any{
		"order": map[string]any{
			"salt":          payload.Salt,
			"maker":         payload.Maker,
			"signer":        payload.Signer,
			"taker":         payload.Taker,
			"tokenId":       payload.TokenID,
			"makerAmount":   payload.MakerAmount,
			"takerAmount":   payload.TakerAmount,
			"expiration":    payload.Expiration,
			"nonce":         payload.Nonce,
			"feeRateBps":    payload.FeeRateBps,
			"side":          string(req.Side),
			"signatureType": payload.SignatureType,
			"signature":     sig,
		},
		"owner":     payload.Maker,
		"orderType": "FOK",
	}

	respBody, err := c.doAuthenticatedRequest(ctx, http.MethodPost, "/order", body)
	if err != nil {
		return domain.OrderResult{}, fmt.Errorf("polymarket/clob: post order: %w", err)
	}

	var apiResult APIOrderResult
	if err := json.Unmarshal(respBody, &apiResult); err != nil {
		return domain.OrderResult{}, fmt.Errorf("polymarket/clob: decode order result: %w", err)
	}

	result := domain.OrderResult{
		OrderID: apiResult.OrderID,
		Success: apiResult.Success,
		Message: apiResult.ErrorMsg,
	}
	if !result.Success {
		return result, fmt.Errorf("polymarket/clob: order rejected: %s", apiResult.ErrorMsg)
	}

	c.logger.Info("order placed",
		slog.String("order_id", result.OrderID),
		slog.String("token_id", req.TokenID),
		slog.Float64("price", req.Price),
		slog.Float64("size", req.Size))

	return result, nil
}

// LastTradePrice returns the last traded price for a token.
func (c *ClobClient) LastTradePrice(ctx context.Context, tokenID string) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/last-trade-price?token_id="+tokenID, nil)
	if err != nil {
		return 0, fmt.Errorf("polymarket/clob: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("polymarket/clob: last trade price: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("polymarket/clob: read response: %w", err)
	}
	if err := checkHTTPStatus(resp.StatusCode, respBody); err != nil {
		return 0, fmt.Errorf("polymarket/clob: last trade price: %w", err)
	}

	var out struct {
		Price string `json:"price"`
	}
	if err := json.Unmarshal(respBody, &out); err != nil {
		return 0, fmt.Errorf("polymarket/clob: decode price: %w", err)
	}

	var price float64
	if _, err := fmt.Sscanf(out.Price, "%f", &price); err != nil {
		return 0, fmt.Errorf("polymarket/clob: parse price %q: %w", out.Price, err)
	}

	return price, nil
}

// buildOrderPayload converts dollar price and size into the fixed-point
// maker/taker amounts the contract expects. For a BUY, the maker gives
// USDC and takes outcome shares.
func (c *ClobClient) buildOrderPayload(req domain.OrderRequest) (crypto.OrderPayload, error) {
	usdc := int64(math.Round(req.Size * usdcScale))
	shares := int64(math.Round(req.Size / req.Price * usdcScale))

	makerAmount, takerAmount := usdc, shares
	if req.Side == domain.OrderSideSell {
		makerAmount, takerAmount = shares, usdc
	}

	salt, err := randomSalt()
	if err != nil {
		return crypto.OrderPayload{}, fmt.Errorf("polymarket/clob: salt: %w", err)
	}

	address := c.signer.Address().Hex()
	return crypto.OrderPayload{
		Salt:          salt,
		Maker:         address,
		Signer:        address,
		Taker:         zeroAddress,
		TokenID:       req.TokenID,
		MakerAmount:   fmt.Sprintf("%d", makerAmount),
		TakerAmount:   fmt.Sprintf("%d", takerAmount),
		Expiration:    "0",
		Nonce:         "0",
		FeeRateBps:    "0",
		Side:          orderSideCode(req.Side),
		SignatureType: 0,
	}, nil
}

func orderSideCode(side domain.OrderSide) int {
	if side == domain.OrderSideSell {
		return 1
	}
	return 0
}

// randomSalt returns a random decimal salt for order uniqueness.
func randomSalt() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	// Take the first 8 bytes as a positive integer.
	n := new(big.Int).SetBytes(id[:8])
	return n.String(), nil
}

// doAuthenticatedRequest builds, signs (HMAC), sends, and reads an HTTP
// request against the CLOB API. It returns the raw response body.
func (c *ClobClient) doAuthenticatedRequest(ctx context.Context, method, path string, body any) ([]byte, error) {
	var bodyReader io.Reader
	var bodyStr string

	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyStr = string(jsonBody)
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	headers, err := c.hmacAuth.L2Headers(method, path, bodyStr)
	if err != nil {
		return nil, fmt.Errorf("sign request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkHTTPStatus(resp.StatusCode, respBody); err != nil {
		return nil, err
	}

	return respBody, nil
}

// checkHTTPStatus maps non-2xx status codes to appropriate domain errors.
func checkHTTPStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	bodyStr := truncateBody(body)
	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, bodyStr)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, bodyStr)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, bodyStr)
	default:
		return fmt.Errorf("HTTP %d: %s", statusCode, bodyStr)
	}
}

package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"time"
)

// HMACAuth produces the level-2 authentication headers required by the
// Polymarket CLOB API once API credentials have been derived.
type HMACAuth struct {
	address    string
	apiKey     string
	secret     string
	passphrase string
}

// NewHMACAuth creates an HMACAuth from the signer address and the derived
// API credentials. The secret must be base64url-encoded as returned by the
// CLOB key-derivation endpoint.
func NewHMACAuth(address, apiKey, secret, passphrase string) *HMACAuth {
	return &HMACAuth{
		address:    address,
		apiKey:     apiKey,
		secret:     secret,
		passphrase: passphrase,
	}
}

// L2Headers returns the signed header set for a request made now.
func (h *HMACAuth) L2Headers(method, path, body string) (map[string]string, error) {
	return h.L2HeadersAt(method, path, body, time.Now())
}

// L2HeadersAt returns the signed header set for a request at the given time.
func (h *HMACAuth) L2HeadersAt(method, path, body string, at time.Time) (map[string]string, error) {
	ts := strconv.FormatInt(at.Unix(), 10)

	sig, err := hmacSHA256Base64(h.secret, ts+method+path+body)
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"POLY_ADDRESS":    h.address,
		"POLY_API_KEY":    h.apiKey,
		"POLY_TIMESTAMP":  ts,
		"POLY_PASSPHRASE": h.passphrase,
		"POLY_SIGNATURE":  sig,
	}, nil
}

// hmacSHA256Base64 computes base64url(HMAC-SHA256(base64url-decode(secret), msg)).
func hmacSHA256Base64(secret, message string) (string, error) {
	key, err := base64.URLEncoding.DecodeString(secret)
	if err != nil {
		return "", fmt.Errorf("crypto/hmac: decoding secret: %w", err)
	}

	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(message))

	return base64.URLEncoding.EncodeToString(mac.Sum(nil)), nil
}

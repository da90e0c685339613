package crypto

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKeyHex = "4f3edf983ac636a65a842ce7c78d9aa706d3b113bce9c46f30d7d21715b23b1d"

func TestEncryptDecryptRoundTrip(t *testing.T) {
	blob, err := EncryptKey("0x"+testKeyHex, "hunter2")
	require.NoError(t, err)

	got, err := DecryptKey(blob, "hunter2")
	require.NoError(t, err)
	assert.Equal(t, testKeyHex, got)
}

func TestDecryptKeyWrongPassword(t *testing.T) {
	blob, err := EncryptKey(testKeyHex, "hunter2")
	require.NoError(t, err)

	_, err = DecryptKey(blob, "wrong")
	assert.Error(t, err)
}

func TestEncryptKeyRejectsBadInput(t *testing.T) {
	_, err := EncryptKey(testKeyHex, "")
	assert.Error(t, err)

	_, err = EncryptKey("not-hex", "hunter2")
	assert.Error(t, err)

	_, err = EncryptKey("abcd", "hunter2") // too short
	assert.Error(t, err)
}

func TestLoadKeyPrecedence(t *testing.T) {
	got, err := LoadKey(KeyConfig{RawPrivateKey: "0x" + testKeyHex})
	require.NoError(t, err)
	assert.Equal(t, testKeyHex, got)

	_, err = LoadKey(KeyConfig{RawPrivateKey: "zz"})
	assert.Error(t, err)

	_, err = LoadKey(KeyConfig{})
	assert.Error(t, err)
}

func TestLoadKeyFromEncryptedFile(t *testing.T) {
	blob, err := EncryptKey(testKeyHex, "hunter2")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "key.json")
	require.NoError(t, os.WriteFile(path, blob, 0o600))

	got, err := LoadKey(KeyConfig{EncryptedKeyPath: path, KeyPassword: "hunter2"})
	require.NoError(t, err)
	assert.Equal(t, testKeyHex, got)
}

func TestSignerAddressMatchesKey(t *testing.T) {
	s, err := NewSigner(testKeyHex, 137)
	require.NoError(t, err)

	pk, err := ethcrypto.HexToECDSA(testKeyHex)
	require.NoError(t, err)
	assert.Equal(t, ethcrypto.PubkeyToAddress(pk.PublicKey), s.Address())
}

func TestSignAuthMessageDeterministic(t *testing.T) {
	s, err := NewSigner(testKeyHex, 137)
	require.NoError(t, err)

	sig, err := s.SignAuthMessage(1700000000, 0)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(sig, "0x"))
	require.Len(t, sig, 2+65*2)

	// v must be shifted into the Ethereum convention.
	v := sig[len(sig)-2:]
	assert.Contains(t, []string{"1b", "1c"}, v)

	// Same inputs, same signature.
	again, err := s.SignAuthMessage(1700000000, 0)
	require.NoError(t, err)
	assert.Equal(t, sig, again)
}

func TestSignOrderValidatesNumericFields(t *testing.T) {
	s, err := NewSigner(testKeyHex, 137)
	require.NoError(t, err)

	order := OrderPayload{
		Salt:        "12345",
		Maker:       s.Address().Hex(),
		Signer:      s.Address().Hex(),
		Taker:       "0x0000000000000000000000000000000000000000",
		TokenID:     "987654321",
		MakerAmount: "9700000",
		TakerAmount: "10000000",
		Expiration:  "0",
		Nonce:       "0",
		FeeRateBps:  "0",
	}

	sig, err := s.SignOrder(order)
	require.NoError(t, err)
	assert.Len(t, sig, 2+65*2)

	order.TokenID = "0.97"
	_, err = s.SignOrder(order)
	assert.Error(t, err)
}

func TestL2HeadersDeterministic(t *testing.T) {
	auth := NewHMACAuth(
		"0xabc",
		"key-id",
		"c2VjcmV0LXNlY3JldC1zZWNyZXQ=", // base64url
		"passphrase",
	)

	at := time.Unix(1700000000, 0)
	h1, err := auth.L2HeadersAt("POST", "/order", `{"x":1}`, at)
	require.NoError(t, err)
	h2, err := auth.L2HeadersAt("POST", "/order", `{"x":1}`, at)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	assert.Equal(t, "0xabc", h1["POLY_ADDRESS"])
	assert.Equal(t, "key-id", h1["POLY_API_KEY"])
	assert.Equal(t, "1700000000", h1["POLY_TIMESTAMP"])
	assert.Equal(t, "passphrase", h1["POLY_PASSPHRASE"])
	assert.NotEmpty(t, h1["POLY_SIGNATURE"])

	// Any change in the signed material changes the signature.
	h3, err := auth.L2HeadersAt("POST", "/order", `{"x":2}`, at)
	require.NoError(t, err)
	assert.NotEqual(t, h1["POLY_SIGNATURE"], h3["POLY_SIGNATURE"])
}

func TestL2HeadersBadSecret(t *testing.T) {
	auth := NewHMACAuth("0xabc", "key-id", "!!not-base64!!", "pp")
	_, err := auth.L2HeadersAt("GET", "/", "", time.Unix(0, 0))
	assert.Error(t, err)
}

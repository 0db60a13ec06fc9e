package infra

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"math/big"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/raidroster/api/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jwksFor(t *testing.T, kid string, pub *rsa.PublicKey) []byte {
	t.Helper()
	doc := map[string]interface{}{
		"keys": []map[string]string{{
			"kty": "RSA",
			"kid": kid,
			"alg": "RS256",
			"use": "sig",
			"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
		}},
	}
	b, err := json.Marshal(doc)
	require.NoError(t, err)
	return b
}

func TestSigningKeysFromJSON_VerifiesTokens(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	kf, err := SigningKeysFromJSON(jwksFor(t, "k1", &key.PublicKey))
	require.NoError(t, err)

	v := auth.NewTokenValidator(auth.TokenConfig{Issuer: "https://issuer.test/", Audience: "aud"}, kf)

	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"iss": "https://issuer.test/",
		"aud": "aud",
		"sub": "user-1",
		"exp": time.Now().Add(time.Minute).Unix(),
	})
	tok.Header["kid"] = "k1"
	signed, err := tok.SignedString(key)
	require.NoError(t, err)

	out := v.ValidateToken(signed)
	require.Equal(t, auth.OutcomeSuccess, out.Kind, out.Reason)
	assert.Equal(t, "user-1", out.Identity.Subject)

	tok.Header["kid"] = "unknown"
	signed, err = tok.SignedString(key)
	require.NoError(t, err)
	assert.Equal(t, auth.OutcomeFailed, v.ValidateToken(signed).Kind)
}

func TestSigningKeysFromJSON_Invalid(t *testing.T) {
	_, err := SigningKeysFromJSON([]byte(`{not json`))
	assert.Error(t, err)
}

func TestNewSigningKeys_Pinned(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	cfg := &Config{Auth0Domain: "issuer.test", Auth0Audience: "aud", AuthJWKSJSON: string(jwksFor(t, "k1", &key.PublicKey))}
	keys, err := NewSigningKeys(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	assert.Equal(t, "https://issuer.test/", keys.Issuer)
	assert.Empty(t, keys.JWKSURL)
	assert.NotNil(t, keys.Keyfunc)
}

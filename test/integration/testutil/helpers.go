//go:build integration

package testutil

import (
	"bytes"
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"sync"
	"testing"

	"github.com/raidroster/api/internal/domain"
)

// Credential is applied to an outgoing request.
type Credential func(*http.Request)

// Bearer authenticates with a token.
func Bearer(token string) Credential {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

// APIKey authenticates with a static key header.
func APIKey(key string) Credential {
	return func(r *http.Request) { r.Header.Set("X-Api-Key", key) }
}

// Do performs a request against the test server. body is JSON encoded when non-nil.
func (env *TestEnv) Do(method, path string, body interface{}, creds ...Credential) *http.Response {
	env.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			env.t.Fatalf("%s %s: encode: %v", method, path, err)
		}
	}
	req, err := http.NewRequest(method, env.Server.URL+path, &buf)
	if err != nil {
		env.t.Fatalf("%s %s: new request: %v", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range creds {
		c(req)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		env.t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

// GET performs a GET request.
func (env *TestEnv) GET(path string, creds ...Credential) *http.Response {
	env.t.Helper()
	return env.Do(http.MethodGet, path, nil, creds...)
}

// POST performs a POST request.
func (env *TestEnv) POST(path string, body interface{}, creds ...Credential) *http.Response {
	env.t.Helper()
	return env.Do(http.MethodPost, path, body, creds...)
}

// PUT performs a PUT request.
func (env *TestEnv) PUT(path string, body interface{}, creds ...Credential) *http.Response {
	env.t.Helper()
	return env.Do(http.MethodPut, path, body, creds...)
}

// DELETE performs a DELETE request.
func (env *TestEnv) DELETE(path string, creds ...Credential) *http.Response {
	env.t.Helper()
	return env.Do(http.MethodDelete, path, nil, creds...)
}

// CreatePlayer creates a player through the API with the test API key.
func (env *TestEnv) CreatePlayer(in domain.PlayerInput) domain.Player {
	env.t.Helper()
	resp := env.POST("/api/players", in, APIKey(TestAPIKey))
	if resp.StatusCode != http.StatusCreated {
		resp.Body.Close()
		env.t.Fatalf("CreatePlayer: expected 201, got %d", resp.StatusCode)
	}
	var p domain.Player
	DecodeJSON(env.t, resp, &p)
	return p
}

// CountPlayers returns the number of rows in players.
func (env *TestEnv) CountPlayers() int {
	env.t.Helper()
	var n int
	if err := env.Pool.QueryRow(context.Background(), "SELECT COUNT(*) FROM players").Scan(&n); err != nil {
		env.t.Fatalf("CountPlayers: %v", err)
	}
	return n
}

// DecodeJSON reads and decodes a JSON response body into dst.
func DecodeJSON(t *testing.T, resp *http.Response, dst interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
}

// JWKS renders pub as a single-key JWK Set document.
func JWKS(t *testing.T, kid string, pub *rsa.PublicKey) []byte {
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
	if err != nil {
		t.Fatalf("JWKS: %v", err)
	}
	return b
}

// CaptureNotifier records delivered feedback.
type CaptureNotifier struct {
	mu  sync.Mutex
	got []domain.FeedbackEnvelope
}

func (n *CaptureNotifier) Notify(_ context.Context, env domain.FeedbackEnvelope) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.got = append(n.got, env)
	return nil
}

// Received returns a copy of the delivered envelopes.
func (n *CaptureNotifier) Received() []domain.FeedbackEnvelope {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.FeedbackEnvelope(nil), n.got...)
}

package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/raidroster/api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecide(t *testing.T) {
	id := &Identity{Subject: "s"}
	tests := []struct {
		name      string
		outcome   Outcome
		access    Access
		wantState State
		wantMsg   string
		wantID    bool
	}{
		{"success protected", Success(id), Protected, StateAllowed, "", true},
		{"success public", Success(id), Public, StateAllowed, "", true},
		{"no result public", NoResult(), Public, StateAllowed, "", false},
		{"failed public", Failed("bad sig"), Public, StateAllowed, "", false},
		{"no result protected", NoResult(), Protected, StateRejected, domain.MsgNoCredential, false},
		{"failed protected", Failed("bad sig"), Protected, StateRejected, domain.MsgInvalidCredential, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decide(tt.outcome, tt.access)
			assert.Equal(t, tt.wantState, d.State)
			assert.Equal(t, tt.wantID, d.Identity != nil)
			if tt.wantMsg != "" {
				require.NotNil(t, d.Err)
				assert.Equal(t, http.StatusUnauthorized, d.Err.Status)
				assert.Equal(t, tt.wantMsg, d.Err.Message)
			} else {
				assert.Nil(t, d.Err)
			}
		})
	}
}

func TestRouteTableLookup(t *testing.T) {
	rt := NewRouteTable()
	rt.Register(http.MethodGet, "/api/players", Public)
	rt.Register(http.MethodPost, "/api/players", Protected)

	assert.Equal(t, Public, rt.Lookup(http.MethodGet, "/api/players"))
	assert.Equal(t, Public, rt.Lookup(http.MethodHead, "/api/players"))
	assert.Equal(t, Protected, rt.Lookup(http.MethodPost, "/api/players"))
	assert.Equal(t, Protected, rt.Lookup(http.MethodGet, "/unregistered"))
}

// gateRouter mounts one public and one protected echo route behind the gate.
func gateRouter(g *Gate, rt *RouteTable) http.Handler {
	echo := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"subject": SubjectFromContext(r.Context())})
	}
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(g.Middleware)
		rt.Register(http.MethodGet, "/open/{id}", Public)
		r.Get("/open/{id}", echo)
		rt.Register(http.MethodGet, "/closed/{id}", Protected)
		r.Get("/closed/{id}", echo)
	})
	return r
}

func TestGateMiddleware(t *testing.T) {
	f := newTokenFixture(t)
	apiKeys := NewAPIKeyValidator([]string{"rr-live-0123456789"}, noopLogger())
	rt := NewRouteTable()
	g := NewGate(rt, f.validator, apiKeys, noopLogger(), GateOptions{})
	router := gateRouter(g, rt)
	good := f.sign(t, validClaims())

	tests := []struct {
		name        string
		path        string
		bearer      string
		apiKey      string
		wantStatus  int
		wantSubject string
		wantMsg     string
		wantChall   string
	}{
		{"public anonymous", "/open/1", "", "", 200, "", "", ""},
		{"public bad token", "/open/1", "garbage", "", 200, "", "", ""},
		{"public bad api key", "/open/1", "", "wrong", 200, "", "", ""},
		{"public good token attaches identity", "/open/1", good, "", 200, "auth0|abc123", "", ""},
		{"protected anonymous", "/closed/1", "", "", 401, "", domain.MsgNoCredential, "Bearer"},
		{"protected bad token", "/closed/1", "garbage", "", 401, "", domain.MsgInvalidCredential, `Bearer error="invalid_token"`},
		{"protected bad api key", "/closed/1", "", "wrong", 401, "", domain.MsgInvalidCredential, "ApiKey"},
		{"protected good token", "/closed/1", good, "", 200, "auth0|abc123", "", ""},
		{"protected good api key", "/closed/1", "", "rr-live-0123456789", 200, "apikey:rr-live-", "", ""},
		{"api key selected even when bearer is valid", "/closed/1", good, "wrong", 401, "", domain.MsgInvalidCredential, "ApiKey"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.bearer != "" {
				r.Header.Set("Authorization", "Bearer "+tt.bearer)
			}
			if tt.apiKey != "" {
				r.Header.Set(APIKeyHeader, tt.apiKey)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, r)

			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				var body map[string]string
				require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
				assert.Equal(t, tt.wantSubject, body["subject"])
				assert.Empty(t, w.Header().Get("WWW-Authenticate"))
				return
			}

			var body domain.ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			assert.Equal(t, http.StatusUnauthorized, body.StatusCode)
			assert.Equal(t, tt.wantMsg, body.Message)
			assert.Equal(t, tt.wantChall, w.Header().Get("WWW-Authenticate"))
		})
	}
}

func TestGateMiddleware_SuppressChallenge(t *testing.T) {
	rt := NewRouteTable()
	g := NewGate(rt, nil, nil, noopLogger(), GateOptions{SuppressChallenge: true})
	router := gateRouter(g, rt)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/closed/1", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, w.Header().Get("WWW-Authenticate"))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/open/1", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGateMiddleware_UnconfiguredStrategiesNeverBlockPublic(t *testing.T) {
	rt := NewRouteTable()
	g := NewGate(rt, nil, NewAPIKeyValidator(nil, noopLogger()), noopLogger(), GateOptions{})
	router := gateRouter(g, rt)

	r := httptest.NewRequest(http.MethodGet, "/open/1?api_key=whatever", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGateMiddleware_SuccessWithoutIdentityIsRejected(t *testing.T) {
	rt := NewRouteTable()
	broken := ValidatorFunc(func(*http.Request) Outcome { return Success(nil) })
	g := NewGate(rt, broken, nil, noopLogger(), GateOptions{})
	router := gateRouter(g, rt)

	r := httptest.NewRequest(http.MethodGet, "/closed/1", nil)
	r.Header.Set("Authorization", "Bearer anything")
	w := httptest.NewRecorder()
	require.NotPanics(t, func() { router.ServeHTTP(w, r) })
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, `Bearer error="invalid_token"`, w.Header().Get("WWW-Authenticate"))

	r = httptest.NewRequest(http.MethodGet, "/open/1", nil)
	r.Header.Set("Authorization", "Bearer anything")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
}

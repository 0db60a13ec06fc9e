package auth

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func apiKeyRequest(header, query string) *http.Request {
	target := "/api/players"
	if query != "" {
		target += "?" + APIKeyQueryParam + "=" + url.QueryEscape(query)
	}
	r := httptest.NewRequest(http.MethodGet, target, nil)
	if header != "" {
		r.Header.Set(APIKeyHeader, header)
	}
	return r
}

func TestAPIKeyValidator_EmptySetAlwaysDefers(t *testing.T) {
	v := NewAPIKeyValidator([]string{"", "   "}, noopLogger())
	assert.False(t, v.Enabled())

	for _, r := range []*http.Request{
		apiKeyRequest("", ""),
		apiKeyRequest("anything", ""),
		apiKeyRequest("", "anything"),
	} {
		assert.Equal(t, OutcomeNoResult, v.Validate(r).Kind)
	}
}

func TestAPIKeyValidator(t *testing.T) {
	v := NewAPIKeyValidator([]string{"  rr-live-0123456789  ", "short"}, noopLogger())
	require.True(t, v.Enabled())

	tests := []struct {
		name        string
		header      string
		query       string
		want        OutcomeKind
		wantSubject string
	}{
		{"no key", "", "", OutcomeNoResult, ""},
		{"valid header, configured value was trimmed", "rr-live-0123456789", "", OutcomeSuccess, "apikey:rr-live-"},
		{"valid query fallback", "", "rr-live-0123456789", OutcomeSuccess, "apikey:rr-live-"},
		{"header wins over query", "nope", "rr-live-0123456789", OutcomeFailed, ""},
		{"case sensitive", "RR-LIVE-0123456789", "", OutcomeFailed, ""},
		{"unknown", "wrong", "", OutcomeFailed, ""},
		{"key shorter than prefix", "short", "", OutcomeSuccess, "apikey:short"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := v.Validate(apiKeyRequest(tt.header, tt.query))
			require.Equal(t, tt.want, out.Kind)
			if tt.want != OutcomeSuccess {
				assert.Nil(t, out.Identity)
				return
			}
			assert.Equal(t, tt.wantSubject, out.Identity.Subject)
			assert.Equal(t, APIKeyDisplayName, out.Identity.Name)
			assert.Equal(t, MethodAPIKey, out.Identity.Method)
			assert.Equal(t, "api_key", out.Identity.Claims["auth_method"])
		})
	}
}

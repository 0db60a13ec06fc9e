package auth

import (
	"net/http"
	"net/url"
)

// Scheme names the validator strategy that governs a request.
type Scheme string

const (
	SchemeBearer Scheme = "Bearer"
	SchemeAPIKey Scheme = "ApiKey"
)

const (
	APIKeyHeader     = "X-Api-Key"
	APIKeyQueryParam = "api_key"
)

// SelectScheme picks the strategy from header/query presence alone. It runs
// before any validation and ignores whether the credential is valid.
func SelectScheme(h http.Header, q url.Values) Scheme {
	if len(h.Values(APIKeyHeader)) > 0 || q.Has(APIKeyQueryParam) {
		return SchemeAPIKey
	}
	return SchemeBearer
}

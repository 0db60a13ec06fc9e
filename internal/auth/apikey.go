package auth

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
)

// APIKeyDisplayName is the name given to every API-key identity.
const APIKeyDisplayName = "API Key Client"

// APIKeyValidator checks a static pre-shared key against an allow-list that is
// fixed at construction.
type APIKeyValidator struct {
	keys   [][]byte
	logger *slog.Logger
}

// NewAPIKeyValidator trims the configured keys and drops blanks.
func NewAPIKeyValidator(keys []string, logger *slog.Logger) *APIKeyValidator {
	v := &APIKeyValidator{logger: logger}
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k != "" {
			v.keys = append(v.keys, []byte(k))
		}
	}
	return v
}

// Enabled reports whether any key is configured.
func (v *APIKeyValidator) Enabled() bool { return len(v.keys) > 0 }

// Validate implements Validator. With no keys configured it always defers.
func (v *APIKeyValidator) Validate(r *http.Request) Outcome {
	if !v.Enabled() {
		return NoResult()
	}

	key := r.Header.Get(APIKeyHeader)
	if key == "" {
		key = r.URL.Query().Get(APIKeyQueryParam)
	}
	if key == "" {
		return NoResult()
	}

	if !v.contains(key) {
		v.logger.Warn("invalid api key attempt", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
		return Failed("api key not recognised")
	}

	return Success(&Identity{
		Subject: "apikey:" + keyPrefix(key),
		Name:    APIKeyDisplayName,
		Method:  MethodAPIKey,
		Claims: map[string]string{
			"auth_method": string(MethodAPIKey),
		},
	})
}

func (v *APIKeyValidator) contains(key string) bool {
	candidate := []byte(key)
	found := 0
	for _, k := range v.keys {
		found |= subtle.ConstantTimeCompare(k, candidate)
	}
	return found == 1
}

func keyPrefix(key string) string {
	if len(key) <= 8 {
		return key
	}
	return key[:8]
}

package auth

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// NameIdentifierClaim is consulted when a token carries no "sub".
const NameIdentifierClaim = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/nameidentifier"

// TokenConfig holds the immutable expectations for bearer tokens.
type TokenConfig struct {
	Issuer     string
	Audience   string
	Algorithms []string
}

// TokenValidator verifies externally issued bearer JWTs against the issuer's
// signing keys. Expiry is enforced with zero clock-skew tolerance.
type TokenValidator struct {
	parser  *jwt.Parser
	keyfunc jwt.Keyfunc
}

// NewTokenValidator creates a validator. keyfunc resolves the verification key
// for a token, typically from a cached JWKS.
func NewTokenValidator(cfg TokenConfig, keyfunc jwt.Keyfunc) *TokenValidator {
	algs := cfg.Algorithms
	if len(algs) == 0 {
		algs = []string{"RS256"}
	}
	return &TokenValidator{
		parser: jwt.NewParser(
			jwt.WithValidMethods(algs),
			jwt.WithIssuer(cfg.Issuer),
			jwt.WithAudience(cfg.Audience),
			jwt.WithExpirationRequired(),
			jwt.WithLeeway(0),
		),
		keyfunc: keyfunc,
	}
}

// Validate implements Validator.
func (v *TokenValidator) Validate(r *http.Request) Outcome {
	raw, ok := bearerToken(r.Header.Get("Authorization"))
	if !ok {
		return NoResult()
	}
	return v.ValidateToken(raw)
}

// ValidateToken verifies a raw token string.
func (v *TokenValidator) ValidateToken(raw string) Outcome {
	claims := jwt.MapClaims{}
	if _, err := v.parser.ParseWithClaims(raw, claims, v.keyfunc); err != nil {
		return Failed(fmt.Sprintf("parse token: %v", err))
	}

	flat := flattenClaims(claims)
	sub := flat["sub"]
	if sub == "" {
		sub = flat[NameIdentifierClaim]
	}
	if sub == "" {
		return Failed("token has no subject claim")
	}

	return Success(&Identity{
		Subject: sub,
		Name:    flat["name"],
		Email:   flat["email"],
		Method:  MethodToken,
		Claims:  flat,
	})
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	tok := strings.TrimSpace(parts[1])
	return tok, tok != ""
}

// flattenClaims mirrors every claim as a string. Non-string values keep their JSON form.
func flattenClaims(claims jwt.MapClaims) map[string]string {
	out := make(map[string]string, len(claims))
	for k, v := range claims {
		switch val := v.(type) {
		case string:
			out[k] = val
		case nil:
			out[k] = ""
		default:
			b, err := json.Marshal(val)
			if err != nil {
				out[k] = fmt.Sprint(val)
				continue
			}
			out[k] = string(b)
		}
	}
	return out
}

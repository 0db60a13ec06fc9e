package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	keyfunc "github.com/MicahParks/keyfunc/v3"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
)

// SigningKeys is the resolved verification material for bearer tokens.
type SigningKeys struct {
	Keyfunc jwt.Keyfunc
	Issuer  string
	JWKSURL string
}

// NewSigningKeys builds an auto-refreshing JWKS keyfunc for the configured
// issuer. Background refresh stops when ctx is cancelled.
//
// With AUTH_OIDC_DISCOVERY the issuer and jwks_uri come from the discovery
// document; otherwise they are derived from AUTH0_DOMAIN.
func NewSigningKeys(ctx context.Context, cfg *Config, logger *slog.Logger) (*SigningKeys, error) {
	keys := &SigningKeys{Issuer: cfg.Authority(), JWKSURL: cfg.JWKSURL()}

	if cfg.AuthJWKSJSON != "" {
		kf, err := SigningKeysFromJSON([]byte(cfg.AuthJWKSJSON))
		if err != nil {
			return nil, err
		}
		keys.Keyfunc = kf
		keys.JWKSURL = ""
		logger.Info("using pinned jwks", "issuer", keys.Issuer)
		return keys, nil
	}

	if cfg.AuthOIDCDiscovery {
		provider, err := oidc.NewProvider(ctx, cfg.Authority())
		if err != nil {
			return nil, fmt.Errorf("oidc discovery: %w", err)
		}
		var meta struct {
			Issuer  string `json:"issuer"`
			JWKSURI string `json:"jwks_uri"`
		}
		if err := provider.Claims(&meta); err != nil {
			return nil, fmt.Errorf("decode discovery metadata: %w", err)
		}
		if meta.JWKSURI == "" {
			return nil, fmt.Errorf("discovery document has no jwks_uri")
		}
		keys.Issuer = meta.Issuer
		keys.JWKSURL = meta.JWKSURI
	}

	kf, err := keyfunc.NewDefaultCtx(ctx, []string{keys.JWKSURL})
	if err != nil {
		return nil, fmt.Errorf("jwks init: %w", err)
	}
	keys.Keyfunc = kf.Keyfunc

	logger.Info("jwks initialized", "issuer", keys.Issuer, "jwks_url", keys.JWKSURL)
	return keys, nil
}

// SigningKeysFromJSON builds a static keyfunc from a JWK Set document.
func SigningKeysFromJSON(raw []byte) (jwt.Keyfunc, error) {
	kf, err := keyfunc.NewJWKSetJSON(json.RawMessage(raw))
	if err != nil {
		return nil, fmt.Errorf("parse jwks json: %w", err)
	}
	return kf.Keyfunc, nil
}

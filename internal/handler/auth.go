package handler

import (
	"net/http"

	"github.com/raidroster/api/internal/auth"
	"github.com/raidroster/api/internal/domain"
)

// AuthInfo is the public description of how callers authenticate.
type AuthInfo struct {
	Authority        string `json:"Authority"`
	Audience         string `json:"Audience"`
	JwksURI          string `json:"JwksUri"`
	DiscoveryURI     string `json:"DiscoveryUri"`
	TokenAuthEnabled bool   `json:"TokenAuthEnabled"`
	APIKeyEnabled    bool   `json:"ApiKeyEnabled"`
}

// AuthHandler serves the /api/auth endpoints.
type AuthHandler struct {
	info AuthInfo
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(info AuthInfo) *AuthHandler {
	return &AuthHandler{info: info}
}

type validateResponse struct {
	Valid    bool           `json:"valid"`
	Identity *auth.Identity `json:"identity"`
}

// Validate handles GET /api/auth/validate. It echoes the resolved identity.
func (h *AuthHandler) Validate(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFromContext(r.Context())
	if id == nil {
		RespondError(w, r, domain.ErrUnauthenticated())
		return
	}
	RespondJSON(w, http.StatusOK, validateResponse{Valid: true, Identity: id})
}

// Config handles GET /api/auth/config.
func (h *AuthHandler) Config(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, h.info)
}

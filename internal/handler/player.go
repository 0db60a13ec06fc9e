package handler

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/raidroster/api/internal/auth"
	"github.com/raidroster/api/internal/domain"
	"github.com/raidroster/api/internal/service"
)

// PlayerHandler handles the player record endpoints.
type PlayerHandler struct {
	players *service.PlayerService
}

// NewPlayerHandler creates a new PlayerHandler.
func NewPlayerHandler(players *service.PlayerService) *PlayerHandler {
	return &PlayerHandler{players: players}
}

func playerID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, domain.ErrValidation("id must be a valid UUID")
	}
	return id, nil
}

// List handles GET /api/players.
func (h *PlayerHandler) List(w http.ResponseWriter, r *http.Request) {
	players, err := h.players.ListAll(r.Context())
	if err != nil {
		RespondError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, players)
}

// Get handles GET /api/players/{id} and GET /api/public/publicplayers/{id}.
func (h *PlayerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := playerID(r)
	if err != nil {
		RespondError(w, r, err)
		return
	}
	p, err := h.players.Get(r.Context(), id)
	if err != nil {
		RespondError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, p)
}

// Create handles POST /api/players.
func (h *PlayerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input domain.PlayerInput
	if err := DecodeJSON(r, &input); err != nil {
		RespondError(w, r, err)
		return
	}

	p, err := h.players.Create(r.Context(), input)
	if err != nil {
		RespondError(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/players/"+p.ID.String())
	RespondJSON(w, http.StatusCreated, p)
}

// Update handles PUT /api/players/{id}.
func (h *PlayerHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := playerID(r)
	if err != nil {
		RespondError(w, r, err)
		return
	}

	var input domain.PlayerInput
	if err := DecodeJSON(r, &input); err != nil {
		RespondError(w, r, err)
		return
	}

	p, err := h.players.Update(r.Context(), id, input)
	if err != nil {
		RespondError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, p)
}

// Delete handles DELETE /api/players/{id}.
func (h *PlayerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := playerID(r)
	if err != nil {
		RespondError(w, r, err)
		return
	}

	ok, err := h.players.Delete(r.Context(), id)
	if err != nil {
		RespondError(w, r, err)
		return
	}
	if !ok {
		RespondError(w, r, domain.ErrNotFound("player", id.String()))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/players/me. It returns the caller's resolved identity.
func (h *PlayerHandler) Me(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFromContext(r.Context())
	if id == nil {
		RespondError(w, r, domain.ErrUnauthenticated())
		return
	}
	RespondJSON(w, http.StatusOK, id)
}

// PublicList handles GET /api/public/publicplayers?search=&page=&pageSize=.
func (h *PlayerHandler) PublicList(w http.ResponseWriter, r *http.Request) {
	params, err := searchParams(r.URL.Query())
	if err != nil {
		RespondError(w, r, err)
		return
	}

	res, err := h.players.List(r.Context(), params)
	if err != nil {
		RespondError(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, res)
}

// searchParams reads paging query parameters, rejecting values outside the
// accepted range rather than clamping them.
func searchParams(q url.Values) (domain.SearchParameters, error) {
	params := domain.SearchParameters{
		Search:   q.Get("search"),
		Page:     1,
		PageSize: domain.DefaultPageSize,
	}

	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return params, domain.ErrValidation("page must be an integer")
		}
		params.Page = n
	}
	if v := q.Get("pageSize"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return params, domain.ErrValidation("pageSize must be an integer")
		}
		params.PageSize = n
	}

	if err := domain.ValidatePaging(params.Page, params.PageSize); err != nil {
		return params, err
	}
	return params, nil
}

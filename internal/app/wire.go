package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/raidroster/api/internal/auth"
	"github.com/raidroster/api/internal/domain"
	"github.com/raidroster/api/internal/guard"
	"github.com/raidroster/api/internal/handler"
	"github.com/raidroster/api/internal/repository"
	"github.com/raidroster/api/internal/service"
)

// RouterDeps holds all dependencies needed by NewRouter.
type RouterDeps struct {
	Players repository.PlayerStore
	Logger  *slog.Logger

	// Credential validators. A nil validator disables that scheme.
	TokenValidator  auth.Validator
	APIKeyValidator auth.Validator
	AuthInfo        handler.AuthInfo

	Notifier        service.Notifier
	FeedbackLimiter guard.Limiter
	// RequestLimiter throttles every request per source IP. Nil disables it.
	RequestLimiter guard.Limiter

	SuppressChallenge  bool
	Development        bool
	TrustProxyHeaders  bool
	CORSAllowedOrigins string
}

// registrar mounts a route and records its visibility for the gate in one step.
type registrar struct {
	r     chi.Router
	table *auth.RouteTable
}

func (g registrar) handle(method, pattern string, access auth.Access, h http.HandlerFunc) {
	g.table.Register(method, pattern, access)
	g.r.Method(method, pattern, h)
}

func (g registrar) public(method, pattern string, h http.HandlerFunc) {
	g.handle(method, pattern, auth.Public, h)
}

func (g registrar) protected(method, pattern string, h http.HandlerFunc) {
	g.handle(method, pattern, auth.Protected, h)
}

// NewRouter assembles the chi.Router with all routes and middleware.
func NewRouter(deps RouterDeps) chi.Router {
	logger := deps.Logger

	sourceIP := handler.RemoteIP
	if deps.TrustProxyHeaders {
		sourceIP = handler.ClientIP
	}

	// Services
	playerSvc := service.NewPlayerService(deps.Players, logger)
	feedbackSvc := service.NewFeedbackService(deps.Notifier, logger)

	// Handlers
	authHandler := handler.NewAuthHandler(deps.AuthInfo)
	playerHandler := handler.NewPlayerHandler(playerSvc)
	feedbackHandler := handler.NewFeedbackHandler(feedbackSvc, sourceIP)

	routes := auth.NewRouteTable()
	gate := auth.NewGate(routes, deps.TokenValidator, deps.APIKeyValidator, logger,
		auth.GateOptions{SuppressChallenge: deps.SuppressChallenge})

	// Router
	r := chi.NewRouter()

	// Global middleware (order matters)
	r.Use(handler.RequestID)
	r.Use(handler.RequestLogger(logger))
	r.Use(handler.Recovery(logger))
	r.Use(handler.CORSWithOrigins(deps.CORSAllowedOrigins))
	r.Use(handler.JSONContentType)
	r.Use(handler.ErrorDetail(deps.Development))
	if deps.RequestLimiter != nil {
		r.Use(handler.RateLimit(deps.RequestLimiter, sourceIP, logger))
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		handler.RespondJSON(w, http.StatusNotFound, domain.ErrorResponse{
			StatusCode: http.StatusNotFound,
			Message:    "Resource not found.",
		})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		handler.RespondJSON(w, http.StatusMethodNotAllowed, domain.ErrorResponse{
			StatusCode: http.StatusMethodNotAllowed,
			Message:    "Method not allowed.",
		})
	})

	// The gate runs as group middleware, after chi has matched the route.
	r.Group(func(r chi.Router) {
		r.Use(gate.Middleware)
		reg := registrar{r: r, table: routes}

		reg.public(http.MethodGet, "/api/auth/health", handler.HealthHandler(deps.Players, logger))
		reg.protected(http.MethodGet, "/api/auth/validate", authHandler.Validate)
		reg.public(http.MethodGet, "/api/auth/config", authHandler.Config)

		reg.public(http.MethodGet, "/api/players", playerHandler.List)
		reg.protected(http.MethodPost, "/api/players", playerHandler.Create)
		reg.protected(http.MethodGet, "/api/players/me", playerHandler.Me)
		reg.protected(http.MethodGet, "/api/players/{id}", playerHandler.Get)
		reg.protected(http.MethodPut, "/api/players/{id}", playerHandler.Update)
		reg.protected(http.MethodDelete, "/api/players/{id}", playerHandler.Delete)

		reg.public(http.MethodGet, "/api/public/publicplayers", playerHandler.PublicList)
		reg.public(http.MethodGet, "/api/public/publicplayers/{id}", playerHandler.Get)

		limited := registrar{
			r:     r.With(handler.RateLimit(deps.FeedbackLimiter, sourceIP, logger)),
			table: routes,
		}
		limited.public(http.MethodPost, "/api/feedback", feedbackHandler.Submit)
	})

	return r
}

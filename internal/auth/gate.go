package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/raidroster/api/internal/domain"
)

// Access marks a route as requiring or bypassing authentication.
type Access int

const (
	Protected Access = iota
	Public
)

func (a Access) String() string {
	if a == Public {
		return "public"
	}
	return "protected"
}

// RouteTable maps "METHOD pattern" to Access. It is filled while routes are
// registered and only read afterwards. Unknown routes are Protected.
type RouteTable struct {
	routes map[string]Access
}

func NewRouteTable() *RouteTable {
	return &RouteTable{routes: make(map[string]Access)}
}

// Register records the access level for a route pattern.
func (t *RouteTable) Register(method, pattern string, access Access) {
	t.routes[method+" "+pattern] = access
}

// Lookup returns the access level for a resolved route.
func (t *RouteTable) Lookup(method, pattern string) Access {
	if a, ok := t.routes[method+" "+pattern]; ok {
		return a
	}
	if method == http.MethodHead {
		return t.Lookup(http.MethodGet, pattern)
	}
	return Protected
}

// State is the gate's per-request state.
type State int

const (
	StatePending State = iota
	StateAllowed
	StateRejected
)

// Decision is the reconciled result for one request.
type Decision struct {
	State    State
	Identity *Identity
	Err      *domain.AppError
}

// Decide reconciles a validator outcome with the route's access level.
// Public routes never reject: failures are dropped and the request continues anonymously.
func Decide(o Outcome, access Access) Decision {
	switch {
	case o.Kind == OutcomeSuccess && o.Identity != nil:
		return Decision{State: StateAllowed, Identity: o.Identity}
	case access == Public:
		return Decision{State: StateAllowed}
	case o.Kind == OutcomeFailed:
		return Decision{State: StateRejected, Err: domain.ErrInvalidCredential()}
	default:
		return Decision{State: StateRejected, Err: domain.ErrUnauthenticated()}
	}
}

// GateOptions tunes rejection responses.
type GateOptions struct {
	// SuppressChallenge omits the WWW-Authenticate header on 401 responses.
	SuppressChallenge bool
}

// Gate composes scheme selection, validation and anonymous-aware
// reconciliation into one synchronous step per request.
type Gate struct {
	routes *RouteTable
	token  Validator
	apiKey Validator
	logger *slog.Logger
	opts   GateOptions
}

// NewGate wires the gate. A nil validator means the strategy is not configured
// and always yields no result.
func NewGate(routes *RouteTable, token, apiKey Validator, logger *slog.Logger, opts GateOptions) *Gate {
	if token == nil {
		token = noResult
	}
	if apiKey == nil {
		apiKey = noResult
	}
	return &Gate{routes: routes, token: token, apiKey: apiKey, logger: logger, opts: opts}
}

// Authenticate selects the scheme, runs its validator and logs the outcome.
func (g *Gate) Authenticate(r *http.Request) (Scheme, Outcome) {
	scheme := SelectScheme(r.Header, r.URL.Query())

	var outcome Outcome
	if scheme == SchemeAPIKey {
		outcome = g.apiKey.Validate(r)
	} else {
		outcome = g.token.Validate(r)
	}
	if outcome.Kind == OutcomeSuccess && outcome.Identity == nil {
		outcome = Failed("validator reported success without an identity")
	}

	switch outcome.Kind {
	case OutcomeSuccess:
		g.logger.Info("authentication succeeded",
			"path", r.URL.Path,
			"scheme", scheme,
			"subject", outcome.Identity.Subject,
		)
	case OutcomeFailed:
		g.logger.Warn("authentication failed",
			"path", r.URL.Path,
			"scheme", scheme,
			"reason", outcome.Reason,
		)
	}
	return scheme, outcome
}

// Middleware must be installed where chi has already resolved the route
// (group or inline middleware) so the route pattern is known.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pattern := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			pattern = rctx.RoutePattern()
		}
		access := g.routes.Lookup(r.Method, pattern)

		scheme, outcome := g.Authenticate(r)
		d := Decide(outcome, access)

		if d.State == StateRejected {
			g.logger.Info("request rejected",
				"path", r.URL.Path,
				"route", pattern,
				"outcome", outcome.Kind.String(),
			)
			g.reject(w, scheme, outcome, d.Err)
			return
		}

		if d.Identity != nil {
			r = r.WithContext(WithIdentity(r.Context(), d.Identity))
		}
		next.ServeHTTP(w, r)
	})
}

func (g *Gate) reject(w http.ResponseWriter, scheme Scheme, o Outcome, appErr *domain.AppError) {
	if !g.opts.SuppressChallenge {
		challenge := string(scheme)
		if o.Kind == OutcomeFailed && scheme == SchemeBearer {
			challenge += ` error="invalid_token"`
		}
		w.Header().Set("WWW-Authenticate", challenge)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.Status)
	json.NewEncoder(w).Encode(appErr.Response())
}

package auth

import "context"

// Method tags how an Identity was authenticated.
type Method string

const (
	MethodToken  Method = "token"
	MethodAPIKey Method = "api_key"
)

// Identity is the per-request result of a successful validation. It is never persisted.
type Identity struct {
	Subject string            `json:"subject"`
	Name    string            `json:"name,omitempty"`
	Email   string            `json:"email,omitempty"`
	Method  Method            `json:"authMethod"`
	Claims  map[string]string `json:"claims"`
}

type contextKey string

const identityKey contextKey = "auth_identity"

// WithIdentity attaches id to ctx.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the request identity, or nil for anonymous requests.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey).(*Identity)
	return id
}

// SubjectFromContext returns the identity subject or "".
func SubjectFromContext(ctx context.Context) string {
	if id := IdentityFromContext(ctx); id != nil {
		return id.Subject
	}
	return ""
}

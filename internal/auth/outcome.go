package auth

import "net/http"

// OutcomeKind discriminates Outcome.
type OutcomeKind int

const (
	// OutcomeNoResult means no credential for the validator was present.
	OutcomeNoResult OutcomeKind = iota
	// OutcomeSuccess carries an Identity.
	OutcomeSuccess
	// OutcomeFailed means a credential was present but rejected; Reason says why.
	OutcomeFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailed:
		return "failed"
	default:
		return "no_result"
	}
}

// Outcome is the tagged result of running a Validator.
type Outcome struct {
	Kind     OutcomeKind
	Identity *Identity
	Reason   string
}

func Success(id *Identity) Outcome { return Outcome{Kind: OutcomeSuccess, Identity: id} }

func NoResult() Outcome { return Outcome{Kind: OutcomeNoResult} }

func Failed(reason string) Outcome { return Outcome{Kind: OutcomeFailed, Reason: reason} }

// Validator resolves a request's credential. Expected failures (bad signature,
// expired token, unknown key) are reported as OutcomeFailed, never as panics or errors.
type Validator interface {
	Validate(r *http.Request) Outcome
}

// ValidatorFunc adapts a function to Validator.
type ValidatorFunc func(r *http.Request) Outcome

func (f ValidatorFunc) Validate(r *http.Request) Outcome { return f(r) }

// noResult is used for strategies that are not configured.
var noResult = ValidatorFunc(func(*http.Request) Outcome { return NoResult() })

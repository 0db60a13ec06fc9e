package domain

import (
	"strings"
	"time"
)

// Feedback is a user submission forwarded to the notification sink. It is never persisted.
type Feedback struct {
	Name      string `json:"name" validate:"max=100"`
	Anonymous bool   `json:"anonymous"`
	Message   string `json:"message" validate:"required,min=3,max=2000"`
}

// Normalize trims the free-text fields.
func (f Feedback) Normalize() Feedback {
	f.Name = strings.TrimSpace(f.Name)
	f.Message = strings.TrimSpace(f.Message)
	return f
}

// DisplayName is the name shown to the sink.
func (f Feedback) DisplayName() string {
	if f.Anonymous || f.Name == "" {
		return "Anonymous"
	}
	return f.Name
}

// FeedbackEnvelope is a Feedback accepted for delivery.
type FeedbackEnvelope struct {
	Feedback
	SourceIP    string    `json:"sourceIp"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// GuardResult is the outcome of a guard check (rate limiter, circuit breaker).
type GuardResult struct {
	Allowed   bool          `json:"allowed"`
	Reason    string        `json:"reason,omitempty"`
	Guard     string        `json:"guard,omitempty"` // which guard blocked
	Limit     int           `json:"limit,omitempty"`
	Remaining int           `json:"remaining"`
	RetryIn   time.Duration `json:"-"`
}

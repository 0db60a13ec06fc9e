package guard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/raidroster/api/internal/domain"
)

// ErrCircuitOpen is returned by Do while a sink's circuit refuses calls.
var ErrCircuitOpen = errors.New("circuit open")

// OpenError is the error Do returns when the circuit refuses a call. It
// matches ErrCircuitOpen and carries the time until the next trial call.
type OpenError struct {
	Key     string
	Reason  string
	RetryIn time.Duration
}

func (e *OpenError) Error() string { return fmt.Sprintf("%v: %s", ErrCircuitOpen, e.Reason) }

func (e *OpenError) Is(target error) bool { return target == ErrCircuitOpen }

// CircuitState represents the state of a circuit breaker.
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// CircuitBreaker tracks consecutive failures per downstream sink.
type CircuitBreaker struct {
	mu            sync.Mutex
	circuits      map[string]*circuit
	failThreshold int
	resetTimeout  time.Duration
	now           func() time.Time
}

type circuit struct {
	state       CircuitState
	failures    int
	probing     bool
	lastFailure time.Time
}

// NewCircuitBreaker creates a circuit breaker with configurable thresholds.
func NewCircuitBreaker(failThreshold int, resetTimeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		circuits:      make(map[string]*circuit),
		failThreshold: failThreshold,
		resetTimeout:  resetTimeout,
		now:           time.Now,
	}
}

func (cb *CircuitBreaker) get(key string) *circuit {
	c, ok := cb.circuits[key]
	if !ok {
		c = &circuit{state: CircuitClosed}
		cb.circuits[key] = c
	}
	return c
}

// Check returns whether the circuit for key allows a call. After the reset
// timeout an open circuit admits a single trial call.
func (cb *CircuitBreaker) Check(_ context.Context, key string) domain.GuardResult {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	c := cb.get(key)
	switch c.state {
	case CircuitOpen:
		elapsed := cb.now().Sub(c.lastFailure)
		if elapsed >= cb.resetTimeout {
			c.state = CircuitHalfOpen
			c.probing = true
			return domain.GuardResult{Allowed: true}
		}
		return domain.GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("circuit open for %s, resets in %s", key, cb.resetTimeout-elapsed),
			Guard:   "circuit_breaker",
			RetryIn: cb.resetTimeout - elapsed,
		}
	case CircuitHalfOpen:
		if c.probing {
			return domain.GuardResult{
				Allowed: false,
				Reason:  "circuit half-open, trial call in flight",
				Guard:   "circuit_breaker",
			}
		}
		c.probing = true
		return domain.GuardResult{Allowed: true}
	default:
		return domain.GuardResult{Allowed: true}
	}
}

// RecordSuccess closes the circuit for key.
func (cb *CircuitBreaker) RecordSuccess(key string) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	c := cb.get(key)
	c.state = CircuitClosed
	c.failures = 0
	c.probing = false
}

// RecordFailure counts a failed call. A failed trial call reopens the circuit.
func (cb *CircuitBreaker) RecordFailure(key string) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	c := cb.get(key)
	c.failures++
	c.lastFailure = cb.now()
	c.probing = false

	if c.state == CircuitHalfOpen || c.failures >= cb.failThreshold {
		c.state = CircuitOpen
	}
}

// Release frees the half-open trial slot without counting a result, for calls
// that were abandoned by the caller.
func (cb *CircuitBreaker) Release(key string) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.get(key).probing = false
}

// State reports the current state for key.
func (cb *CircuitBreaker) State(key string) CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if c, ok := cb.circuits[key]; ok {
		return c.state
	}
	return CircuitClosed
}

// Do runs fn if the circuit for key allows it and records the result. A call
// whose ctx ended is not counted against the sink.
func (cb *CircuitBreaker) Do(ctx context.Context, key string, fn func(context.Context) error) error {
	if res := cb.Check(ctx, key); !res.Allowed {
		return &OpenError{Key: key, Reason: res.Reason, RetryIn: res.RetryIn}
	}
	if err := fn(ctx); err != nil {
		if ctx.Err() != nil {
			cb.Release(key)
			return err
		}
		cb.RecordFailure(key)
		return err
	}
	cb.RecordSuccess(key)
	return nil
}

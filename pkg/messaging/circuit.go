package messaging

import (
	"sync"
	"time"
)

// CircuitState is the availability a breaker assumes for a messaging gateway.
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// StateChangeFunc observes breaker transitions of a provider.
// It is called after the breaker lock is released.
type StateChangeFunc func(provider Name, from, to CircuitState)

// BreakerOption configures a Breaker.
type BreakerOption func(*Breaker)

// WithBreakerClock overrides the clock used for the recovery window.
func WithBreakerClock(now func() time.Time) BreakerOption {
	return func(b *Breaker) {
		if now != nil {
			b.now = now
		}
	}
}

// OnStateChange registers a transition observer.
func OnStateChange(fn StateChangeFunc) BreakerOption {
	return func(b *Breaker) {
		b.onChange = fn
	}
}

// Breaker tracks whether a provider's gateway is reachable. Consecutive
// temporary failures (timeouts, transport errors, 5xx and 429) open it;
// after the recovery window a single test send is let through, and
// every other send is refused until it reports back.
type Breaker struct {
	provider  Name
	threshold int
	recovery  time.Duration
	now       func() time.Time
	onChange  StateChangeFunc

	mu       sync.Mutex
	state    CircuitState
	failures int
	openedAt time.Time
	inFlight bool
}

// NewBreaker creates the breaker for provider. Non-positive values take
// 5 failures and a 30s recovery window.
func NewBreaker(provider Name, threshold int, recovery time.Duration, opts ...BreakerOption) *Breaker {
	if threshold <= 0 {
		threshold = 5
	}
	if recovery <= 0 {
		recovery = 30 * time.Second
	}
	b := &Breaker{
		provider:  provider,
		threshold: threshold,
		recovery:  recovery,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Provider returns the provider the breaker guards.
func (b *Breaker) Provider() Name { return b.provider }

// Allow reports whether a send may go out now.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	from := b.state
	allowed := false
	switch b.state {
	case CircuitClosed:
		allowed = true
	case CircuitOpen:
		if b.now().Sub(b.openedAt) >= b.recovery {
			b.state = CircuitHalfOpen
			b.inFlight = true
			allowed = true
		}
	case CircuitHalfOpen:
		if !b.inFlight {
			b.inFlight = true
			allowed = true
		}
	}
	to := b.state
	b.mu.Unlock()

	b.notify(from, to)
	return allowed
}

// RecordSuccess marks the gateway reachable. Any answer that is not a
// temporary failure counts, including a rejected message.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	from := b.state
	b.state = CircuitClosed
	b.failures = 0
	b.inFlight = false
	b.mu.Unlock()

	b.notify(from, CircuitClosed)
}

// RecordFailure counts a temporary failure. A failed test send reopens the
// breaker for another recovery window.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	from := b.state
	switch b.state {
	case CircuitClosed:
		b.failures++
		if b.failures >= b.threshold {
			b.state = CircuitOpen
			b.openedAt = b.now()
		}
	case CircuitHalfOpen:
		b.state = CircuitOpen
		b.openedAt = b.now()
		b.inFlight = false
	case CircuitOpen:
		b.openedAt = b.now()
	}
	to := b.state
	b.mu.Unlock()

	b.notify(from, to)
}

// State returns the current state; an open breaker whose recovery window
// has passed reads as half-open.
func (b *Breaker) State() CircuitState {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == CircuitOpen && b.now().Sub(b.openedAt) >= b.recovery {
		return CircuitHalfOpen
	}
	return b.state
}

// Failures returns the consecutive temporary failures seen while closed.
func (b *Breaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}

func (b *Breaker) notify(from, to CircuitState) {
	if from != to && b.onChange != nil {
		b.onChange(b.provider, from, to)
	}
}

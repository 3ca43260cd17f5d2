package resilience

import (
	"sync"
	"time"

	"github.com/rotisserie/eris"
)

// ErrCircuitOpen is returned when a call is rejected without being tried.
var ErrCircuitOpen = eris.New("circuit breaker is open")

// Breaker is a minimal circuit breaker: consecutive transient failures
// open it, a cooldown half-opens it for one probe, and a probe success
// closes it again.
type Breaker struct {
	mu           sync.Mutex
	failures     int
	openedAt     time.Time
	threshold    int
	resetTimeout time.Duration
	now          func() time.Time
}

// NewBreaker creates a breaker that opens after threshold consecutive
// failures and allows a probe after resetTimeout.
func NewBreaker(threshold int, resetTimeout time.Duration) *Breaker {
	if threshold <= 0 {
		threshold = 5
	}
	if resetTimeout <= 0 {
		resetTimeout = 30 * time.Second
	}
	return &Breaker{
		threshold:    threshold,
		resetTimeout: resetTimeout,
		now:          time.Now,
	}
}

// Allow reports whether a call may proceed. In the open state only one
// probe per cooldown window is let through.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.failures < b.threshold {
		return true
	}
	if b.now().Sub(b.openedAt) >= b.resetTimeout {
		// Half-open: reset the window so only one probe passes until it
		// reports back.
		b.openedAt = b.now()
		return true
	}
	return false
}

// Record reports a call result to the breaker. Non-transient errors do
// not count toward opening it.
func (b *Breaker) Record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil || !IsTransient(err) {
		b.failures = 0
		return
	}
	b.failures++
	if b.failures == b.threshold {
		b.openedAt = b.now()
	}
}

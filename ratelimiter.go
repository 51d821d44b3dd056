package qgrover

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

/*
RateLimiter is a token bucket. Every run sent to a throttled device takes one
token, and one token comes back per refill interval up to the burst size.
*/
type RateLimiter struct {
	mu         sync.Mutex
	tokens     int
	maxTokens  int
	refillRate time.Duration
	lastRefill time.Time
}

// NewRateLimiter starts with a full bucket of maxTokens.
func NewRateLimiter(maxTokens int, refillRate time.Duration) *RateLimiter {
	if maxTokens < 1 {
		maxTokens = 1
	}
	return &RateLimiter{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// Limit takes a token if one is available and reports whether the caller
// has to wait instead.
func (rl *RateLimiter) Limit() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refill()
	if rl.tokens > 0 {
		rl.tokens--
		return false
	}
	return true
}

// Wait blocks until a token is taken or the context ends.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	for rl.Limit() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(rl.untilNext()):
		}
	}
	return nil
}

// Available reports the tokens left after refilling.
func (rl *RateLimiter) Available() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.refill()
	return rl.tokens
}

func (rl *RateLimiter) untilNext() time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return max(time.Until(rl.lastRefill.Add(rl.refillRate)), time.Millisecond)
}

// refill adds one token per whole interval since the last refill. Callers hold mu.
func (rl *RateLimiter) refill() {
	if rl.refillRate <= 0 {
		rl.tokens = rl.maxTokens
		return
	}

	periods := time.Since(rl.lastRefill) / rl.refillRate
	if periods <= 0 {
		return
	}
	rl.tokens = min(rl.maxTokens, rl.tokens+int(periods))
	rl.lastRefill = rl.lastRefill.Add(periods * rl.refillRate)
}

/*
ThrottledBackend sends runs to another backend no faster than its limiter
allows. Name and Qubits are the wrapped backend's.
*/
type ThrottledBackend struct {
	Backend
	limiter *RateLimiter
}

// NewThrottledBackend allows runsPerSecond runs with bursts of up to burst.
func NewThrottledBackend(b Backend, runsPerSecond float64, burst int) *ThrottledBackend {
	interval := time.Duration(float64(time.Second) / runsPerSecond)
	log.Debug("throttling device", "device", b.Name(), "interval", interval, "burst", burst)
	return &ThrottledBackend{Backend: b, limiter: NewRateLimiter(burst, interval)}
}

func (tb *ThrottledBackend) Run(ctx context.Context, program *Program, noise *NoiseModel, rng *rand.Rand) (BitString, error) {
	if err := tb.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return tb.Backend.Run(ctx, program, noise, rng)
}

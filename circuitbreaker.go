package qgrover

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

/*
BreakerState represents the state of a device's circuit breaker.
*/
type BreakerState int

const (
	BreakerClosed   BreakerState = iota // device accepts runs
	BreakerOpen                         // device rejected, runs fail fast
	BreakerHalfOpen                     // probing whether the device is back
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

/*
CircuitBreaker guards one execution device. Every batch that targets the
device shares its breaker, so a device that keeps failing stops receiving
runs and its remaining batches are marked incomplete instead of spending
their retry budget.

The breaker operates in three states:
  - Closed: all runs are allowed
  - Open: too many consecutive failures, all runs are rejected
  - Half-Open: after the reset timeout, a limited number of probe runs go through
*/
type CircuitBreaker struct {
	mu               sync.Mutex
	device           string
	maxFailures      int
	resetTimeout     time.Duration
	halfOpenMax      int
	failureCount     int
	state            BreakerState
	openTime         time.Time
	halfOpenAttempts int
}

func NewCircuitBreaker(device string, maxFailures int, resetTimeout time.Duration, halfOpenMax int) *CircuitBreaker {
	return &CircuitBreaker{
		device:       device,
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
		halfOpenMax:  halfOpenMax,
		state:        BreakerClosed,
	}
}

// RecordFailure records a failed run and opens the breaker once the
// threshold is reached.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCount++
	switch cb.state {
	case BreakerHalfOpen:
		cb.trip()
		log.Warn("breaker reopened", "device", cb.device)
	case BreakerClosed:
		if cb.failureCount >= cb.maxFailures {
			cb.trip()
			log.Warn("breaker opened", "device", cb.device, "failures", cb.failureCount)
		}
	}
}

// RecordSuccess resets the failure count, and closes a half-open breaker
// after enough successful probes.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case BreakerClosed:
		cb.failureCount = 0
	case BreakerHalfOpen:
		cb.halfOpenAttempts++
		if cb.halfOpenAttempts >= cb.halfOpenMax {
			cb.state = BreakerClosed
			cb.failureCount = 0
			cb.halfOpenAttempts = 0
			log.Info("breaker closed", "device", cb.device)
		}
	}
}

// Allow reports whether a run may be sent to the device.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case BreakerClosed:
		return true
	case BreakerOpen:
		if time.Since(cb.openTime) > cb.resetTimeout {
			cb.state = BreakerHalfOpen
			cb.halfOpenAttempts = 0
			return true
		}
		return false
	case BreakerHalfOpen:
		return cb.halfOpenAttempts < cb.halfOpenMax
	default:
		return false
	}
}

func (cb *CircuitBreaker) State() BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) trip() {
	cb.state = BreakerOpen
	cb.openTime = time.Now()
	cb.halfOpenAttempts = 0
}

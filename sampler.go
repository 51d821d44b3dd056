package qgrover

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
)

var errBreakerOpen = errors.New("breaker open")

/*
SampleOnce draws one basis state with probability dist[i] and returns it as a
bitstring over n qubits. The distribution is renormalised, so small numerical
drift does not bias the draw.
*/
func SampleOnce(dist []float64, n int, rng *rand.Rand) BitString {
	total := 0.0
	for _, p := range dist {
		total += p
	}

	r := rng.Float64() * total
	cumulative := 0.0
	last := 0
	for i, p := range dist {
		if p <= 0 {
			continue
		}
		cumulative += p
		last = i
		if r < cumulative {
			return BitStringFromIndex(i, n)
		}
	}
	return BitStringFromIndex(last, n)
}

// TrialResult is the outcome of one sampled run scored against the expected key.
type TrialResult struct {
	Bits    BitString
	Matches []bool
	Joint   bool
}

func Score(bits, expected BitString) TrialResult {
	result := TrialResult{Bits: bits, Matches: make([]bool, len(expected)), Joint: len(bits) == len(expected)}
	for q := range expected {
		result.Matches[q] = q < len(bits) && bits[q] == expected[q]
		if !result.Matches[q] {
			result.Joint = false
		}
	}
	return result
}

/*
AggregateStats is the finalised result of one (device, noise level) batch.
An incomplete batch carries the error that stopped it and no accuracies.
*/
type AggregateStats struct {
	Device        string
	Level         float64
	Trials        int
	QubitAccuracy []float64
	JointAccuracy float64
	Complete      bool
	Err           error
}

// accumulator counts matches per qubit for one batch.
type accumulator struct {
	matches []int
	joint   int
	trials  int
}

func newAccumulator(qubits int) *accumulator {
	return &accumulator{matches: make([]int, qubits)}
}

func (a *accumulator) add(r TrialResult) {
	a.trials++
	for q, ok := range r.Matches {
		if ok {
			a.matches[q]++
		}
	}
	if r.Joint {
		a.joint++
	}
}

func (a *accumulator) finalize(device string, level float64) AggregateStats {
	stats := AggregateStats{
		Device:        device,
		Level:         level,
		Trials:        a.trials,
		QubitAccuracy: make([]float64, len(a.matches)),
		Complete:      true,
	}
	if a.trials == 0 {
		return stats
	}
	for q, m := range a.matches {
		stats.QubitAccuracy[q] = float64(m) / float64(a.trials)
	}
	stats.JointAccuracy = float64(a.joint) / float64(a.trials)
	return stats
}

/*
TrialSampler runs a batch of independent trials of one program on one
backend at one noise level. Its fields are read-only while trials run.
*/
type TrialSampler struct {
	Backend  Backend
	Program  *Program
	Noise    *NoiseModel
	Expected BitString
	Retry    *RetryPolicy
	Breaker  *CircuitBreaker
}

/*
RunTrials executes trials runs, each from a fresh state, and aggregates
per-qubit and joint accuracy. It stops early when the context ends or the
backend becomes unavailable; the returned error then says why and the
partial counts are discarded.
*/
func (ts *TrialSampler) RunTrials(ctx context.Context, trials int, rng *rand.Rand) (AggregateStats, error) {
	level := 0.0
	if ts.Noise != nil {
		level = ts.Noise.Parameters().Level
	}
	if trials < 1 {
		return AggregateStats{}, fmt.Errorf("%w: %d trials", ErrInvalidConfiguration, trials)
	}
	if len(ts.Expected) != ts.Program.Qubits() {
		return AggregateStats{}, fmt.Errorf("%w: expected key has %d bits for %d qubits", ErrInvalidConfiguration, len(ts.Expected), ts.Program.Qubits())
	}

	acc := newAccumulator(ts.Program.Qubits())
	for t := 0; t < trials; t++ {
		if err := ctx.Err(); err != nil {
			return AggregateStats{}, fmt.Errorf("batch stopped after %d of %d trials: %w", t, trials, err)
		}

		bits, err := ts.runOnce(ctx, rng)
		if err != nil {
			return AggregateStats{}, err
		}
		acc.add(Score(bits, ts.Expected))
	}
	return acc.finalize(ts.Backend.Name(), level), nil
}

func (ts *TrialSampler) runOnce(ctx context.Context, rng *rand.Rand) (BitString, error) {
	var bits BitString
	err := ts.Retry.Do(ctx, ts.Backend.Name(), func() error {
		if ts.Breaker != nil && !ts.Breaker.Allow() {
			return fmt.Errorf("%w: %w for %s", ErrBackendUnavailable, errBreakerOpen, ts.Backend.Name())
		}

		out, err := ts.Backend.Run(ctx, ts.Program, ts.Noise, rng)
		if err != nil {
			if ts.Breaker != nil && isTransient(err) {
				ts.Breaker.RecordFailure()
			}
			return err
		}
		if ts.Breaker != nil {
			ts.Breaker.RecordSuccess()
		}
		bits = out
		return nil
	})
	if err == nil {
		return bits, nil
	}
	if isTransient(err) && !errors.Is(err, ErrBackendUnavailable) {
		err = fmt.Errorf("%w: %s: %w", ErrBackendUnavailable, ts.Backend.Name(), err)
	}
	return nil, err
}

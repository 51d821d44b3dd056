package qgrover

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/charmbracelet/log"
	"github.com/theapemachine/errnie"
	"golang.org/x/sync/errgroup"
)

// levelEpsilon keeps float accumulation from adding a spurious level at End.
const levelEpsilon = 1e-12

// MaxNoiseLevels bounds how many levels one sweep may expand to.
const MaxNoiseLevels = 10000

/*
SweepConfig is the immutable description of one experiment: the oracle
inputs, the key the measurements are scored against, the noise range and
the devices to run on.
*/
type SweepConfig struct {
	Key     BitString
	Target  BitString
	Correct BitString
	Offsets RowOffsets

	NoiseStart float64
	NoiseEnd   float64
	NoiseStep  float64

	Trials  int
	Devices []string

	// Rounds is the number of Grover iterations. Zero picks DefaultRounds.
	Rounds int
}

// Validate checks everything that can be checked without simulating.
func (c SweepConfig) Validate() error {
	for _, v := range []float64{c.NoiseStart, c.NoiseEnd, c.NoiseStep} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: noise range %v..%v step %v is not finite",
				ErrInvalidConfiguration, c.NoiseStart, c.NoiseEnd, c.NoiseStep)
		}
	}

	switch {
	case !(c.NoiseStart > 0):
		return fmt.Errorf("%w: noise start %v must be positive", ErrInvalidConfiguration, c.NoiseStart)
	case !(c.NoiseStart < c.NoiseEnd):
		return fmt.Errorf("%w: noise start %v must be below end %v", ErrInvalidConfiguration, c.NoiseStart, c.NoiseEnd)
	case !(c.NoiseStep > 0):
		return fmt.Errorf("%w: noise step %v must be positive", ErrInvalidConfiguration, c.NoiseStep)
	case math.Ceil((c.NoiseEnd-c.NoiseStart)/c.NoiseStep) > MaxNoiseLevels:
		return fmt.Errorf("%w: noise range %v..%v step %v exceeds %d levels",
			ErrInvalidConfiguration, c.NoiseStart, c.NoiseEnd, c.NoiseStep, MaxNoiseLevels)
	case c.Trials < 1:
		return fmt.Errorf("%w: %d trials", ErrInvalidConfiguration, c.Trials)
	case len(c.Devices) == 0:
		return fmt.Errorf("%w: no devices", ErrInvalidConfiguration)
	case c.Rounds < 0:
		return fmt.Errorf("%w: negative round count %d", ErrInvalidConfiguration, c.Rounds)
	case len(c.Correct) != len(c.Key):
		return fmt.Errorf("%w: correct key has %d bits, key has %d", ErrInvalidConfiguration, len(c.Correct), len(c.Key))
	}

	for _, d := range c.Devices {
		if d == "" {
			return fmt.Errorf("%w: empty device identifier", ErrInvalidConfiguration)
		}
	}

	_, err := NewShiftRows(c.Key, c.Target, c.Offsets)
	return err
}

// Levels expands the half-open range [NoiseStart, NoiseEnd) by NoiseStep,
// stopping at MaxNoiseLevels.
func (c SweepConfig) Levels() []float64 {
	var levels []float64
	for i := 0; i < MaxNoiseLevels; i++ {
		level := c.NoiseStart + float64(i)*c.NoiseStep
		if !(level < c.NoiseEnd-levelEpsilon) {
			break
		}
		levels = append(levels, level)
	}
	return levels
}

/*
Sweep runs one batch of trials per (device, noise level) pair on a worker
pool. The program is built once and shared read-only by every batch.
*/
type Sweep struct {
	cfg      SweepConfig
	settings *Config
	registry *DeviceRegistry
	oracle   *ShiftRows
	program  *Program
	rounds   int
	metrics  *Metrics
}

func NewSweep(cfg SweepConfig, settings *Config, registry *DeviceRegistry) (*Sweep, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if settings == nil {
		settings = NewConfig()
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if registry == nil {
		registry = NewDeviceRegistry()
	}

	oracle, err := NewShiftRows(cfg.Key, cfg.Target, cfg.Offsets)
	if err != nil {
		return nil, err
	}
	oracleCircuit, err := oracle.Oracle()
	if err != nil {
		return nil, err
	}

	rounds := cfg.Rounds
	if rounds == 0 {
		rounds = DefaultRounds(oracle.Qubits())
	}
	circuit, err := GroverCircuit(oracleCircuit, rounds)
	if err != nil {
		return nil, err
	}

	errnie.Info("NewSweep - qubits %d, rounds %d, depth %d", oracle.Qubits(), rounds, circuit.Len())

	cfg.Devices = append([]string(nil), cfg.Devices...)
	return &Sweep{
		cfg:      cfg,
		settings: settings,
		registry: registry,
		oracle:   oracle,
		program:  NewProgram(circuit),
		rounds:   rounds,
		metrics:  NewMetrics(),
	}, nil
}

func (s *Sweep) Program() *Program   { return s.program }
func (s *Sweep) Oracle() *ShiftRows  { return s.oracle }
func (s *Sweep) Rounds() int         { return s.rounds }
func (s *Sweep) Config() SweepConfig { return s.cfg }

// Metrics describes the most recent Run.
func (s *Sweep) Metrics() *Metrics { return s.metrics }

/*
Run executes every batch and returns the rows in sweep order: devices in the
given order, levels ascending within each device. Each row is passed to sink
as soon as it and every row before it are done.

A batch whose device cannot run the program is recorded as incomplete and
the sweep carries on. ErrNonUnitaryGate and context cancellation abort the
whole sweep.
*/
func (s *Sweep) Run(ctx context.Context, sink ResultSink) ([]AggregateStats, error) {
	levels := s.cfg.Levels()
	total := len(s.cfg.Devices) * len(levels)

	g, gctx := errgroup.WithContext(ctx)

	q := NewQ(gctx, s.settings.Workers, total, s.settings)
	defer q.Close()
	s.metrics = q.Metrics()

	table := NewResultTable(total, sink)
	retry := NewRetryPolicy(s.settings.Retry.MaxAttempts, s.settings.Retry.InitialDelay)
	breakers := make(map[string]*CircuitBreaker)

	log.Info("sweep starting",
		"devices", len(s.cfg.Devices),
		"levels", len(levels),
		"trials", s.cfg.Trials,
		"qubits", s.program.Qubits(),
		"rounds", s.rounds,
	)

	for d, device := range s.cfg.Devices {
		backend, resolveErr := s.resolve(device)
		breaker, ok := breakers[device]
		if !ok {
			b := s.settings.Breaker
			breaker = NewCircuitBreaker(device, b.MaxFailures, b.ResetTimeout, b.HalfOpenMax)
			breakers[device] = breaker
		}

		for l, level := range levels {
			index := d*len(levels) + l

			if resolveErr != nil {
				g.Go(func() error {
					stats := incomplete(device, level, resolveErr)
					s.metrics.recordBatch(time.Now(), stats)
					return table.Complete(index, stats)
				})
				continue
			}

			sampler := &TrialSampler{
				Backend:  backend,
				Program:  s.program,
				Expected: s.cfg.Correct,
				Retry:    retry,
				Breaker:  breaker,
			}

			g.Go(func() error {
				stats, err := s.runBatch(gctx, q, index, sampler, level)
				if err != nil {
					return err
				}
				return table.Complete(index, stats)
			})
		}
	}

	if err := g.Wait(); err != nil {
		log.Warn("sweep aborted", "error", err, "flushed", table.Flushed(), "total", total)
		return table.Rows(), err
	}

	log.Info("sweep finished", "metrics", s.metrics.ExportMetrics())
	return table.Rows(), nil
}

// resolve looks up a device and checks it can hold the program. With a rate
// limit configured the backend comes back throttled.
func (s *Sweep) resolve(device string) (Backend, error) {
	backend, err := s.registry.Resolve(device)
	if err != nil {
		return nil, err
	}
	if backend.Qubits() < s.program.Qubits() {
		return nil, fmt.Errorf("%w: %s has %d qubits, program needs %d",
			ErrBackendUnavailable, device, backend.Qubits(), s.program.Qubits())
	}
	if rl := s.settings.RateLimit; rl.RunsPerSecond > 0 {
		return NewThrottledBackend(backend, rl.RunsPerSecond, rl.Burst), nil
	}
	return backend, nil
}

/*
runBatch schedules one batch on the pool and waits for it. It returns an
error only for failures that should stop the sweep; anything else becomes an
incomplete row.
*/
func (s *Sweep) runBatch(ctx context.Context, q *Q, index int, sampler *TrialSampler, level float64) (AggregateStats, error) {
	device := sampler.Backend.Name()
	start := time.Now()

	noise, err := NewNoiseModel(s.settings.Noise.At(level), s.program.Depth())
	if err != nil {
		return AggregateStats{}, err
	}
	sampler.Noise = noise

	id := fmt.Sprintf("batch-%d-%s-%g", index, device, level)
	result := q.Schedule(id, func(jobCtx context.Context) (any, error) {
		rng := rand.New(rand.NewPCG(s.settings.Seed, uint64(index)))
		return sampler.RunTrials(jobCtx, s.cfg.Trials, rng)
	}, WithTimeout(s.settings.BatchTimeout))

	var r Result
	select {
	case r = <-result:
	case <-ctx.Done():
		return AggregateStats{}, ctx.Err()
	}

	if r.Error == nil {
		stats, ok := r.Value.(AggregateStats)
		if !ok {
			return AggregateStats{}, fmt.Errorf("batch %s returned %T", id, r.Value)
		}
		s.metrics.recordBatch(start, stats)
		log.Debug("batch done", "device", device, "level", level, "joint", stats.JointAccuracy)
		return stats, nil
	}

	switch {
	case errors.Is(r.Error, ErrNonUnitaryGate):
		return AggregateStats{}, r.Error
	case ctx.Err() != nil:
		return AggregateStats{}, ctx.Err()
	}

	log.Warn("batch incomplete", "device", device, "level", level, "error", r.Error)
	stats := incomplete(device, level, r.Error)
	s.metrics.recordBatch(start, stats)
	return stats, nil
}

func incomplete(device string, level float64, err error) AggregateStats {
	return AggregateStats{
		Device:   device,
		Level:    level,
		Complete: false,
		Err:      err,
	}
}

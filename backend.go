package qgrover

import (
	"context"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strconv"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/theapemachine/errnie"
)

/*
Backend executes a program and returns one measured bitstring per call, read
out through the program's measurement mapping and drawn from its (possibly
noisy) output distribution. Implementations must be safe for concurrent use;
each call gets its own random stream.
*/
type Backend interface {
	Name() string
	Qubits() int
	Run(ctx context.Context, program *Program, noise *NoiseModel, rng *rand.Rand) (BitString, error)
}

/*
LocalBackend runs programs on the in-process state-vector simulator. Every
call starts from a fresh |0…0⟩ state.
*/
type LocalBackend struct {
	name   string
	qubits int
}

func NewLocalBackend(name string, qubits int) *LocalBackend {
	errnie.Info("NewLocalBackend - name %s, qubits %d", name, qubits)
	return &LocalBackend{name: name, qubits: qubits}
}

func (lb *LocalBackend) Name() string { return lb.name }
func (lb *LocalBackend) Qubits() int  { return lb.qubits }

func (lb *LocalBackend) Run(ctx context.Context, program *Program, noise *NoiseModel, rng *rand.Rand) (BitString, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if program.Qubits() > lb.qubits {
		return nil, fmt.Errorf("%w: %s has %d qubits, program needs %d", ErrBackendUnavailable, lb.name, lb.qubits, program.Qubits())
	}

	state, err := NewStateVector(program.Qubits())
	if err != nil {
		return nil, err
	}
	if err := state.ApplyCircuit(program.Circuit()); err != nil {
		return nil, err
	}

	dist := noise.Apply(state.Probabilities())
	return program.Readout(SampleOnce(dist, program.Qubits(), rng)), nil
}

var qvmPattern = regexp.MustCompile(`^(\d+)q-qvm$`)

/*
DeviceRegistry resolves device identifiers to backends. Registered backends
win; otherwise an identifier of the form "<N>q-qvm" resolves to a local
simulator with N qubits.
*/
type DeviceRegistry struct {
	mu       sync.RWMutex
	backends map[string]Backend
}

func NewDeviceRegistry() *DeviceRegistry {
	return &DeviceRegistry{backends: make(map[string]Backend)}
}

func (r *DeviceRegistry) Register(b Backend) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backends[b.Name()] = b
}

func (r *DeviceRegistry) Resolve(id string) (Backend, error) {
	r.mu.RLock()
	b, ok := r.backends[id]
	r.mu.RUnlock()
	if ok {
		return b, nil
	}

	m := qvmPattern.FindStringSubmatch(id)
	if m == nil {
		return nil, fmt.Errorf("%w: unknown device %q", ErrBackendUnavailable, id)
	}
	qubits, err := strconv.Atoi(m[1])
	if err != nil || qubits < 1 {
		return nil, fmt.Errorf("%w: bad qubit count in %q", ErrBackendUnavailable, id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.backends[id]; ok {
		return b, nil
	}
	b = NewLocalBackend(id, qubits)
	r.backends[id] = b
	log.Debug("resolved device", "device", id, "qubits", qubits)
	return b, nil
}

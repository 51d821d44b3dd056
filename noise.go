package qgrover

import (
	"fmt"
	"math"
)

// Decoherence constants matching the usual T1 = T2 = 30µs, 50ns single-qubit
// gate assumptions of hosted QVMs.
const (
	DefaultDampingRate   = 1 / 30e-6
	DefaultDephasingRate = 1 / 30e-6
	DefaultGateDuration  = 50e-9
)

/*
NoiseParameters scales fixed decoherence constants by a noise level.
Level 0 is the ideal, noiseless device.
*/
type NoiseParameters struct {
	Level         float64 `mapstructure:"level"`
	DampingRate   float64 `mapstructure:"damping_rate"`   // 1/T1, per second
	DephasingRate float64 `mapstructure:"dephasing_rate"` // 1/T2, per second
	GateDuration  float64 `mapstructure:"gate_duration"`  // seconds per gate application
}

func DefaultNoiseParameters(level float64) NoiseParameters {
	return NoiseParameters{
		Level:         level,
		DampingRate:   DefaultDampingRate,
		DephasingRate: DefaultDephasingRate,
		GateDuration:  DefaultGateDuration,
	}
}

func (p NoiseParameters) Validate() error {
	switch {
	case p.Level < 0 || math.IsNaN(p.Level):
		return fmt.Errorf("%w: noise level %v", ErrInvalidConfiguration, p.Level)
	case p.DampingRate < 0, p.DephasingRate < 0, p.GateDuration < 0:
		return fmt.Errorf("%w: negative decoherence constant in %+v", ErrInvalidConfiguration, p)
	}
	return nil
}

/*
NoiseModel is a per-qubit decoherence channel applied to the outcome
distribution right before measurement. The idle window is the program depth
times the gate duration. Over that window a qubit in |1⟩ relaxes to |0⟩ with
the damping probability, and its readout is replaced by a fair coin with the
dephasing probability.
*/
type NoiseModel struct {
	params NoiseParameters
	depth  int
}

func NewNoiseModel(params NoiseParameters, depth int) (*NoiseModel, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if depth < 0 {
		return nil, fmt.Errorf("%w: negative circuit depth %d", ErrInvalidConfiguration, depth)
	}
	return &NoiseModel{params: params, depth: depth}, nil
}

func (m *NoiseModel) Parameters() NoiseParameters { return m.params }

func (m *NoiseModel) window() float64 {
	return m.params.GateDuration * float64(m.depth)
}

func (m *NoiseModel) DampingProbability() float64 {
	return 1 - math.Exp(-m.params.Level*m.params.DampingRate*m.window())
}

func (m *NoiseModel) DephasingProbability() float64 {
	return 1 - math.Exp(-m.params.Level*m.params.DephasingRate*m.window())
}

// IsIdentity reports whether the channel leaves every distribution unchanged.
// A nil model is the identity.
func (m *NoiseModel) IsIdentity() bool {
	return m == nil || (m.DampingProbability() == 0 && m.DephasingProbability() == 0)
}

/*
Apply returns the distribution after the channel. The input is not modified.
*/
func (m *NoiseModel) Apply(dist []float64) []float64 {
	out := append([]float64(nil), dist...)
	if m.IsIdentity() {
		return out
	}

	damp := m.DampingProbability()
	flip := m.DephasingProbability() / 2

	for bit := 1; bit < len(out); bit <<= 1 {
		for i := range out {
			if i&bit != 0 {
				continue
			}
			j := i | bit
			p0 := out[i] + out[j]*damp
			p1 := out[j] * (1 - damp)
			out[i] = p0*(1-flip) + p1*flip
			out[j] = p1*(1-flip) + p0*flip
		}
	}
	return out
}

package qgrover

import (
	"fmt"
	"math"
)

const normTolerance = 1e-9

/*
StateVector holds the 2^n amplitudes of an n-qubit register. Basis index bit q
is qubit q. A state vector belongs to a single simulation run.
*/
type StateVector struct {
	Amplitudes []complex128
	Qubits     int
}

// NewStateVector returns |0…0⟩ over n qubits.
func NewStateVector(qubits int) (*StateVector, error) {
	if qubits < 1 || qubits > MaxQubits {
		return nil, fmt.Errorf("%w: state over %d qubits", ErrInvalidDimension, qubits)
	}
	amps := make([]complex128, 1<<qubits)
	amps[0] = 1
	return &StateVector{Amplitudes: amps, Qubits: qubits}, nil
}

// NewBasisState returns the basis state labelled by bits.
func NewBasisState(bits BitString) (*StateVector, error) {
	s, err := NewStateVector(len(bits))
	if err != nil {
		return nil, err
	}
	s.Amplitudes[0] = 0
	s.Amplitudes[bits.Index()] = 1
	return s, nil
}

func (s *StateVector) Clone() *StateVector {
	return &StateVector{Amplitudes: append([]complex128(nil), s.Amplitudes...), Qubits: s.Qubits}
}

func (s *StateVector) Norm() float64 {
	sum := 0.0
	for _, a := range s.Amplitudes {
		sum += real(a)*real(a) + imag(a)*imag(a)
	}
	return math.Sqrt(sum)
}

// Probabilities returns |amplitude|² per basis state.
func (s *StateVector) Probabilities() []float64 {
	probs := make([]float64, len(s.Amplitudes))
	for i, a := range s.Amplitudes {
		probs[i] = real(a)*real(a) + imag(a)*imag(a)
	}
	return probs
}

/*
ApplyGate left-multiplies the state by the gate embedded at the given targets.
The embedding is done by index arithmetic and is equal to multiplying by
Embed(gate, targets, n); the targets do not need to be contiguous.
*/
func (s *StateVector) ApplyGate(gate *Gate, targets ...int) error {
	if err := validateTargets(s.Qubits, gate, targets); err != nil {
		return err
	}

	dim := gate.Dim()
	offsets := spread(targets)
	mask := offsets[dim-1]

	local := make([]complex128, dim)
	for base := range s.Amplitudes {
		if base&mask != 0 {
			continue
		}
		for l, off := range offsets {
			local[l] = s.Amplitudes[base|off]
		}
		for r, off := range offsets {
			var sum complex128
			row := gate.matrix[r]
			for l, v := range local {
				if v != 0 {
					sum += row[l] * v
				}
			}
			s.Amplitudes[base|off] = sum
		}
	}

	if drift := math.Abs(s.Norm() - 1); drift > normTolerance {
		return fmt.Errorf("%w: norm drifted by %.3g after %s on %v", ErrNonUnitaryGate, drift, gate.Name(), targets)
	}
	return nil
}

// ApplyCircuit applies every gate of c in order.
func (s *StateVector) ApplyCircuit(c *Circuit) error {
	if c.Qubits() != s.Qubits {
		return fmt.Errorf("%w: %d-qubit circuit on %d-qubit state", ErrInvalidConfiguration, c.Qubits(), s.Qubits)
	}
	for _, op := range c.ops {
		if err := s.ApplyGate(op.Gate, op.Targets...); err != nil {
			return err
		}
	}
	return nil
}

/*
Embed builds the full 2^n matrix of a gate acting on targets, the tensor
expansion with identities on every other qubit. It exists for verification;
the simulator never materialises it.
*/
func Embed(gate *Gate, targets []int, qubits int) ([][]complex128, error) {
	if qubits < 1 || qubits > MaxQubits {
		return nil, fmt.Errorf("%w: embedding into %d qubits", ErrInvalidDimension, qubits)
	}
	if err := validateTargets(qubits, gate, targets); err != nil {
		return nil, err
	}

	offsets := spread(targets)
	mask := offsets[len(offsets)-1]
	full := zeroMatrix(1 << qubits)

	for row := range full {
		for col := range full[row] {
			if row&^mask != col&^mask {
				continue
			}
			full[row][col] = gate.matrix[gather(row, targets)][gather(col, targets)]
		}
	}
	return full, nil
}

// DefaultRounds is floor(π/4 · √(2^n)), the near-optimal Grover iteration
// count for one marked state.
func DefaultRounds(qubits int) int {
	return int(math.Pi / 4 * math.Sqrt(float64(int(1)<<qubits)))
}

/*
GroverCircuit prepares the uniform superposition with a Hadamard on every
qubit, then runs rounds iterations of oracle followed by diffusion.
*/
func GroverCircuit(oracle *Circuit, rounds int) (*Circuit, error) {
	if oracle == nil {
		return nil, fmt.Errorf("%w: nil oracle", ErrInvalidConfiguration)
	}
	if rounds < 0 {
		return nil, fmt.Errorf("%w: negative round count %d", ErrInvalidConfiguration, rounds)
	}

	n := oracle.Qubits()
	diff, err := Diffusion(n)
	if err != nil {
		return nil, err
	}

	b := NewCircuitBuilder(n)
	h := Hadamard()
	for q := 0; q < n; q++ {
		b.Append(h, q)
	}
	all := allQubits(n)
	for r := 0; r < rounds; r++ {
		b.AppendCircuit(oracle)
		b.Append(diff, all...)
	}
	return b.Build()
}

// spread maps each local index to its offset in the full register.
func spread(targets []int) []int {
	offsets := make([]int, 1<<len(targets))
	for l := range offsets {
		for j, t := range targets {
			if l&(1<<j) != 0 {
				offsets[l] |= 1 << t
			}
		}
	}
	return offsets
}

// gather collects the target bits of a full index into a local index.
func gather(index int, targets []int) int {
	local := 0
	for j, t := range targets {
		if index&(1<<t) != 0 {
			local |= 1 << j
		}
	}
	return local
}

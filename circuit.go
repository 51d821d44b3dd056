package qgrover

import "fmt"

// GateApplication places a gate on an ordered list of target qubits.
type GateApplication struct {
	Gate    *Gate
	Targets []int
}

/*
Circuit is a straight-line unitary program over a fixed number of qubits.
It has no branching and no mid-circuit measurement, and it does not change
once built.
*/
type Circuit struct {
	qubits int
	ops    []GateApplication
}

func (c *Circuit) Qubits() int { return c.qubits }

// Len is the number of gate applications, which is also the circuit depth the
// noise model charges for.
func (c *Circuit) Len() int { return len(c.ops) }

// Op returns the i-th gate application.
func (c *Circuit) Op(i int) GateApplication {
	op := c.ops[i]
	return GateApplication{Gate: op.Gate, Targets: append([]int(nil), op.Targets...)}
}

// Ops returns a copy of the gate applications in order.
func (c *Circuit) Ops() []GateApplication {
	out := make([]GateApplication, len(c.ops))
	for i := range c.ops {
		out[i] = c.Op(i)
	}
	return out
}

/*
CircuitBuilder collects gate applications. The first failed Append is kept and
reported by Build, so calls can be chained.
*/
type CircuitBuilder struct {
	qubits int
	ops    []GateApplication
	err    error
}

func NewCircuitBuilder(qubits int) *CircuitBuilder {
	b := &CircuitBuilder{qubits: qubits}
	if qubits < 1 || qubits > MaxQubits {
		b.err = fmt.Errorf("%w: circuit on %d qubits", ErrInvalidDimension, qubits)
	}
	return b
}

// Append adds one gate application.
func (b *CircuitBuilder) Append(gate *Gate, targets ...int) *CircuitBuilder {
	if b.err != nil {
		return b
	}
	if gate == nil {
		b.err = fmt.Errorf("%w: nil gate", ErrInvalidConfiguration)
		return b
	}
	if err := validateTargets(b.qubits, gate, targets); err != nil {
		b.err = err
		return b
	}
	b.ops = append(b.ops, GateApplication{Gate: gate, Targets: append([]int(nil), targets...)})
	return b
}

// AppendCircuit appends every operation of c, which must have the same width.
func (b *CircuitBuilder) AppendCircuit(c *Circuit) *CircuitBuilder {
	if b.err != nil {
		return b
	}
	if c == nil {
		b.err = fmt.Errorf("%w: nil circuit", ErrInvalidConfiguration)
		return b
	}
	if c.qubits != b.qubits {
		b.err = fmt.Errorf("%w: appending %d-qubit circuit to %d-qubit builder", ErrInvalidConfiguration, c.qubits, b.qubits)
		return b
	}
	b.ops = append(b.ops, c.ops...)
	return b
}

func (b *CircuitBuilder) Build() (*Circuit, error) {
	if b.err != nil {
		return nil, b.err
	}
	return &Circuit{qubits: b.qubits, ops: append([]GateApplication(nil), b.ops...)}, nil
}

// Compose concatenates circuits that share the same qubit count.
func Compose(circuits ...*Circuit) (*Circuit, error) {
	if len(circuits) == 0 {
		return nil, fmt.Errorf("%w: nothing to compose", ErrInvalidConfiguration)
	}
	if circuits[0] == nil {
		return nil, fmt.Errorf("%w: nil circuit", ErrInvalidConfiguration)
	}
	b := NewCircuitBuilder(circuits[0].qubits)
	for _, c := range circuits {
		b.AppendCircuit(c)
	}
	return b.Build()
}

func validateTargets(qubits int, gate *Gate, targets []int) error {
	if len(targets) != gate.Qubits() {
		return fmt.Errorf("%w: %s takes %d targets, got %d", ErrOutOfRangeQubit, gate.Name(), gate.Qubits(), len(targets))
	}
	seen := make(map[int]bool, len(targets))
	for _, t := range targets {
		if t < 0 || t >= qubits {
			return fmt.Errorf("%w: %s target %d not in [0, %d)", ErrOutOfRangeQubit, gate.Name(), t, qubits)
		}
		if seen[t] {
			return fmt.Errorf("%w: %s target %d repeated", ErrOutOfRangeQubit, gate.Name(), t)
		}
		seen[t] = true
	}
	return nil
}

package qgrover

import (
	"fmt"
	"strconv"
	"strings"
)

// Gates every Quil runtime knows; anything else needs a DEFGATE.
var builtinQuilGates = map[string]bool{
	"I": true,
	"X": true,
	"H": true,
}

/*
Program is a circuit ready for an execution backend: the unitary part plus a
final measurement of qubit i into classical register bit Measurement()[i].
*/
type Program struct {
	circuit *Circuit
	measure []int
}

// NewProgram measures qubit i into ro[i].
func NewProgram(c *Circuit) *Program {
	return &Program{circuit: c, measure: allQubits(c.Qubits())}
}

// NewProgramWithMeasurement uses an explicit qubit to register mapping, which
// must be a permutation of [0, n).
func NewProgramWithMeasurement(c *Circuit, measure []int) (*Program, error) {
	n := c.Qubits()
	if len(measure) != n {
		return nil, fmt.Errorf("%w: %d measurement slots for %d qubits", ErrInvalidConfiguration, len(measure), n)
	}
	seen := make([]bool, n)
	for q, bit := range measure {
		if bit < 0 || bit >= n || seen[bit] {
			return nil, fmt.Errorf("%w: qubit %d measured into ro[%d]", ErrInvalidConfiguration, q, bit)
		}
		seen[bit] = true
	}
	return &Program{circuit: c, measure: append([]int(nil), measure...)}, nil
}

func (p *Program) Circuit() *Circuit { return p.circuit }
func (p *Program) Qubits() int       { return p.circuit.Qubits() }

// Depth is the number of gate applications before measurement.
func (p *Program) Depth() int { return p.circuit.Len() }

func (p *Program) Measurement() []int { return append([]int(nil), p.measure...) }

// Readout maps sampled qubit values into the classical register.
func (p *Program) Readout(qubits BitString) BitString {
	ro := make(BitString, len(qubits))
	for q, bit := range p.measure {
		ro[bit] = qubits[q]
	}
	return ro
}

/*
Quil renders the program as Quil text: one DEFGATE per custom unitary, the
gate sequence, a classical register and the final measurements.
*/
func (p *Program) Quil() string {
	var sb strings.Builder

	defined := make(map[string]bool)
	for _, op := range p.circuit.ops {
		name := op.Gate.Name()
		if builtinQuilGates[name] || defined[name] {
			continue
		}
		defined[name] = true
		writeDefGate(&sb, op.Gate)
	}

	fmt.Fprintf(&sb, "DECLARE ro BIT[%d]\n", p.Qubits())

	for _, op := range p.circuit.ops {
		sb.WriteString(op.Gate.Name())
		for _, t := range quilOrder(op.Targets) {
			sb.WriteByte(' ')
			sb.WriteString(strconv.Itoa(t))
		}
		sb.WriteByte('\n')
	}

	for q, bit := range p.measure {
		fmt.Fprintf(&sb, "MEASURE %d ro[%d]\n", q, bit)
	}
	return sb.String()
}

func writeDefGate(sb *strings.Builder, g *Gate) {
	fmt.Fprintf(sb, "DEFGATE %s:\n", g.Name())
	for _, row := range g.matrix {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = quilNumber(v)
		}
		sb.WriteString("    ")
		sb.WriteString(strings.Join(cells, ", "))
		sb.WriteByte('\n')
	}
	sb.WriteByte('\n')
}

// quilOrder lists targets most significant first, the Quil argument order.
func quilOrder(targets []int) []int {
	out := make([]int, len(targets))
	for i, t := range targets {
		out[len(targets)-1-i] = t
	}
	return out
}

func quilNumber(v complex128) string {
	re := strconv.FormatFloat(real(v), 'g', -1, 64)
	if imag(v) == 0 {
		return re
	}
	im := strconv.FormatFloat(imag(v), 'g', -1, 64)
	if imag(v) > 0 {
		im = "+" + im
	}
	return re + im + "i"
}

package qgrover

import (
	"fmt"
	"math"
	"math/cmplx"
)

const (
	// MaxQubits bounds every dense matrix and state vector the simulator builds.
	// A diffusion gate over MaxQubits already holds 2^20 complex entries.
	MaxQubits = 10

	unitaryTolerance = 1e-9
)

/*
Gate is an immutable unitary acting on a fixed number of qubits.

The matrix is dense and 2^k on a side. When a gate is applied to targets
[t0 .. tk-1], bit j of a local matrix index belongs to target tj.
*/
type Gate struct {
	name   string
	qubits int
	matrix [][]complex128
}

/*
NewGate validates and copies a matrix into a Gate. The qubit count must be at
least one, the matrix must be 2^qubits square, and U†U must equal the identity
within 1e-9.
*/
func NewGate(name string, qubits int, matrix [][]complex128) (*Gate, error) {
	if qubits < 1 || qubits > MaxQubits {
		return nil, fmt.Errorf("%w: gate %s on %d qubits", ErrInvalidDimension, name, qubits)
	}

	dim := 1 << qubits
	if len(matrix) != dim {
		return nil, fmt.Errorf("%w: gate %s has %d rows, want %d", ErrInvalidDimension, name, len(matrix), dim)
	}

	m := make([][]complex128, dim)
	for i, row := range matrix {
		if len(row) != dim {
			return nil, fmt.Errorf("%w: gate %s row %d has %d columns, want %d", ErrInvalidDimension, name, i, len(row), dim)
		}
		m[i] = append([]complex128(nil), row...)
	}

	if !isUnitary(m) {
		return nil, fmt.Errorf("%w: %s", ErrNonUnitaryGate, name)
	}

	return &Gate{name: name, qubits: qubits, matrix: m}, nil
}

func (g *Gate) Name() string { return g.name }

// Qubits is the number of qubits the gate acts on.
func (g *Gate) Qubits() int { return g.qubits }

// Dim is the side length of the matrix.
func (g *Gate) Dim() int { return len(g.matrix) }

// At returns the matrix entry at row i, column j.
func (g *Gate) At(i, j int) complex128 { return g.matrix[i][j] }

// Matrix returns a copy of the gate's matrix.
func (g *Gate) Matrix() [][]complex128 {
	out := make([][]complex128, len(g.matrix))
	for i, row := range g.matrix {
		out[i] = append([]complex128(nil), row...)
	}
	return out
}

// Identity returns the identity on k qubits.
func Identity(k int) (*Gate, error) {
	if k < 1 || k > MaxQubits {
		return nil, fmt.Errorf("%w: identity on %d qubits", ErrInvalidDimension, k)
	}
	m := zeroMatrix(1 << k)
	for i := range m {
		m[i][i] = 1
	}
	name := "I"
	if k > 1 {
		name = fmt.Sprintf("ID%d", k)
	}
	return NewGate(name, k, m)
}

// Not returns the Pauli-X gate.
func Not() *Gate {
	return mustGate(NewGate("X", 1, [][]complex128{
		{0, 1},
		{1, 0},
	}))
}

// Hadamard returns the single-qubit Hadamard gate.
func Hadamard() *Gate {
	h := complex(1/math.Sqrt2, 0)
	return mustGate(NewGate("H", 1, [][]complex128{
		{h, h},
		{h, -h},
	}))
}

/*
PhaseFlipAllOnes returns the n-qubit diagonal gate that negates only the
all-ones basis state. It is the marking primitive of the oracle.
*/
func PhaseFlipAllOnes(n int) (*Gate, error) {
	if n < 1 || n > MaxQubits {
		return nil, fmt.Errorf("%w: phase flip on %d qubits", ErrInvalidDimension, n)
	}
	dim := 1 << n
	m := zeroMatrix(dim)
	for i := range m {
		m[i][i] = 1
	}
	m[dim-1][dim-1] = -1
	return NewGate(fmt.Sprintf("PHASEFLIP%d", n), n, m)
}

/*
Diffusion returns (2/2^n)J - I, the inversion about the mean amplitude.
*/
func Diffusion(n int) (*Gate, error) {
	if n < 1 || n > MaxQubits {
		return nil, fmt.Errorf("%w: diffusion on %d qubits", ErrInvalidDimension, n)
	}
	dim := 1 << n
	mean := complex(2/float64(dim), 0)
	m := zeroMatrix(dim)
	for i := range m {
		for j := range m[i] {
			m[i][j] = mean
		}
		m[i][i] -= 1
	}
	return NewGate(fmt.Sprintf("DIFF%d", n), n, m)
}

// Diagonal builds a gate from its diagonal, used for phase oracles given as a table.
func Diagonal(name string, n int, diag []complex128) (*Gate, error) {
	if n < 1 || n > MaxQubits {
		return nil, fmt.Errorf("%w: diagonal gate on %d qubits", ErrInvalidDimension, n)
	}
	if len(diag) != 1<<n {
		return nil, fmt.Errorf("%w: diagonal of length %d for %d qubits", ErrInvalidDimension, len(diag), n)
	}
	m := zeroMatrix(len(diag))
	for i, d := range diag {
		m[i][i] = d
	}
	return NewGate(name, n, m)
}

func zeroMatrix(dim int) [][]complex128 {
	backing := make([]complex128, dim*dim)
	m := make([][]complex128, dim)
	for i := range m {
		m[i] = backing[i*dim : (i+1)*dim : (i+1)*dim]
	}
	return m
}

// isUnitary checks U†U = I entry by entry.
func isUnitary(m [][]complex128) bool {
	dim := len(m)
	for i := 0; i < dim; i++ {
		for j := i; j < dim; j++ {
			var sum complex128
			for k := 0; k < dim; k++ {
				sum += cmplx.Conj(m[k][i]) * m[k][j]
			}
			want := complex128(0)
			if i == j {
				want = 1
			}
			if cmplx.Abs(sum-want) > unitaryTolerance {
				return false
			}
		}
	}
	return true
}

func mustGate(g *Gate, err error) *Gate {
	if err != nil {
		panic(err)
	}
	return g
}

package qgrover

import (
	"fmt"
	"math"
)

// RowOffsets holds one cyclic shift per row of the register.
type RowOffsets []int

/*
ShiftRows describes a one-round shift-rows oracle.

The n qubits are split into r = √n contiguous rows of c = n/r qubits. The key
is rotated inside each row by that row's offset and compared against the
target. The oracle negates exactly the basis states for which every row
matches.
*/
type ShiftRows struct {
	Key     BitString
	Target  BitString
	Offsets RowOffsets

	qubits int
	rows   int
	cols   int
}

/*
NewShiftRows validates the inputs of a shift-rows oracle. The key and target
must have the same length n, n must be a perfect square, and there must be one
non-negative offset per row.
*/
func NewShiftRows(key, target BitString, offsets RowOffsets) (*ShiftRows, error) {
	n := len(key)
	if n == 0 {
		return nil, fmt.Errorf("%w: empty key", ErrInvalidConfiguration)
	}
	if len(target) != n {
		return nil, fmt.Errorf("%w: key has %d bits, target has %d", ErrInvalidConfiguration, n, len(target))
	}
	if n > MaxQubits {
		return nil, fmt.Errorf("%w: %d qubits exceeds the simulator limit of %d", ErrInvalidConfiguration, n, MaxQubits)
	}

	rows := int(math.Round(math.Sqrt(float64(n))))
	if rows*rows != n {
		return nil, fmt.Errorf("%w: qubit count %d is not a perfect square", ErrInvalidConfiguration, n)
	}
	if len(offsets) != rows {
		return nil, fmt.Errorf("%w: got %d offsets for %d rows", ErrInvalidConfiguration, len(offsets), rows)
	}
	for i, o := range offsets {
		if o < 0 {
			return nil, fmt.Errorf("%w: offset %d for row %d is negative", ErrInvalidConfiguration, o, i)
		}
	}

	return &ShiftRows{
		Key:     append(BitString(nil), key...),
		Target:  append(BitString(nil), target...),
		Offsets: append(RowOffsets(nil), offsets...),
		qubits:  n,
		rows:    rows,
		cols:    n / rows,
	}, nil
}

func (s *ShiftRows) Qubits() int { return s.qubits }
func (s *ShiftRows) Rows() int   { return s.rows }
func (s *ShiftRows) Cols() int   { return s.cols }

// ShiftedKey is the key with each row rotated by its offset.
func (s *ShiftRows) ShiftedKey() BitString {
	shifted := make(BitString, s.qubits)
	for r := 0; r < s.rows; r++ {
		start := r * s.cols
		for j := 0; j < s.cols; j++ {
			shifted[s.keyQubit(r, j)] = s.Key[start+j]
		}
	}
	return shifted
}

// MarkedState is the one basis state the oracle negates.
func (s *ShiftRows) MarkedState() BitString {
	shifted := s.ShiftedKey()
	marked := make(BitString, s.qubits)
	for p := range marked {
		marked[p] = shifted[p] ^ s.Target[p]
	}
	return marked
}

/*
Encode maps every qubit to 1 exactly where its basis value, xored with the
shifted key, equals the target bit.
*/
func (s *ShiftRows) Encode() (*Circuit, error) {
	b := NewCircuitBuilder(s.qubits)
	s.keyMapping(b)
	s.targetMapping(b)
	return b.Build()
}

// Decode undoes Encode: the target mapping first, then the key mapping.
func (s *ShiftRows) Decode() (*Circuit, error) {
	b := NewCircuitBuilder(s.qubits)
	s.targetMapping(b)
	s.keyMapping(b)
	return b.Build()
}

/*
Oracle builds encode, mark, decode. Decode restores every computational
basis label, so the only effect of the circuit is the sign on the marked state
and it composes with the diffusion step across Grover rounds.
*/
func (s *ShiftRows) Oracle() (*Circuit, error) {
	mark, err := PhaseFlipAllOnes(s.qubits)
	if err != nil {
		return nil, err
	}

	b := NewCircuitBuilder(s.qubits)
	s.keyMapping(b)
	s.targetMapping(b)
	b.Append(mark, allQubits(s.qubits)...)
	s.targetMapping(b)
	s.keyMapping(b)
	return b.Build()
}

func (s *ShiftRows) keyMapping(b *CircuitBuilder) {
	id := mustGate(Identity(1))
	for r := 0; r < s.rows; r++ {
		start := r * s.cols
		for j := 0; j < s.cols; j++ {
			if s.Key[start+j] == 1 {
				b.Append(Not(), s.keyQubit(r, j))
			} else {
				b.Append(id, s.keyQubit(r, j))
			}
		}
	}
}

func (s *ShiftRows) targetMapping(b *CircuitBuilder) {
	id := mustGate(Identity(1))
	for p := 0; p < s.qubits; p++ {
		if s.Target[p] == 0 {
			b.Append(Not(), p)
		} else {
			b.Append(id, p)
		}
	}
}

// keyQubit is where local key bit j of row r lands after the row's rotation.
func (s *ShiftRows) keyQubit(r, j int) int {
	return r*s.cols + (j+s.Offsets[r])%s.cols
}

// ShiftRowsOracle validates the inputs and builds the oracle circuit.
func ShiftRowsOracle(key, target BitString, offsets RowOffsets) (*Circuit, error) {
	s, err := NewShiftRows(key, target, offsets)
	if err != nil {
		return nil, err
	}
	return s.Oracle()
}

/*
EqualityOracle marks a single basis state with one diagonal gate over the whole
register. It is the table-driven oracle a shift-rows oracle with all offsets
zero reduces to.
*/
func EqualityOracle(marked BitString) (*Circuit, error) {
	n := len(marked)
	if n < 1 || n > MaxQubits {
		return nil, fmt.Errorf("%w: cannot mark a %d-bit state", ErrInvalidConfiguration, n)
	}
	diag := make([]complex128, 1<<n)
	for i := range diag {
		diag[i] = 1
	}
	diag[marked.Index()] = -1

	gate, err := Diagonal("MARK_"+marked.String(), n, diag)
	if err != nil {
		return nil, err
	}
	return NewCircuitBuilder(n).Append(gate, allQubits(n)...).Build()
}

func allQubits(n int) []int {
	qs := make([]int, n)
	for i := range qs {
		qs[i] = i
	}
	return qs
}

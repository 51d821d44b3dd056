package qgrover

import (
	"fmt"
	"strings"
)

/*
BitString is a fixed-length sequence of classical bits. Position i belongs to
qubit i, and in a basis index qubit i is bit i.
*/
type BitString []byte

/*
ParseBitString reads a string made of '0' and '1' characters.
*/
func ParseBitString(s string) (BitString, error) {
	if s == "" {
		return nil, fmt.Errorf("%w: empty bitstring", ErrInvalidConfiguration)
	}

	bits := make(BitString, len(s))
	for i, r := range s {
		switch r {
		case '0':
			bits[i] = 0
		case '1':
			bits[i] = 1
		default:
			return nil, fmt.Errorf("%w: bitstring %q has %q at position %d", ErrInvalidConfiguration, s, r, i)
		}
	}
	return bits, nil
}

// BitStringFromIndex expands a basis index over n qubits.
func BitStringFromIndex(index, n int) BitString {
	bits := make(BitString, n)
	for q := 0; q < n; q++ {
		bits[q] = byte((index >> q) & 1)
	}
	return bits
}

// Index returns the basis index the bitstring labels.
func (b BitString) Index() int {
	index := 0
	for q, bit := range b {
		if bit == 1 {
			index |= 1 << q
		}
	}
	return index
}

func (b BitString) Equal(other BitString) bool {
	if len(b) != len(other) {
		return false
	}
	for i := range b {
		if b[i] != other[i] {
			return false
		}
	}
	return true
}

func (b BitString) String() string {
	var sb strings.Builder
	sb.Grow(len(b))
	for _, bit := range b {
		sb.WriteByte('0' + bit)
	}
	return sb.String()
}

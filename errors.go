package qgrover

import "errors"

var (
	// ErrInvalidConfiguration covers every input rejected before simulation starts:
	// non-square qubit counts, mismatched bitstrings, bad offsets and sweep bounds.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrInvalidDimension is returned when a gate or register is sized below one qubit.
	ErrInvalidDimension = errors.New("invalid dimension")

	// ErrOutOfRangeQubit is returned when a gate target is outside [0, n) or repeated.
	ErrOutOfRangeQubit = errors.New("qubit out of range")

	// ErrNonUnitaryGate signals a broken gate or a norm drift in the simulator.
	// It is never caused by user input.
	ErrNonUnitaryGate = errors.New("non-unitary gate")

	// ErrBackendUnavailable is returned when a device cannot execute a program.
	ErrBackendUnavailable = errors.New("backend unavailable")
)

package qgrover

import (
	"errors"
	"math"
	"math/cmplx"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func unitaryError(g *Gate) float64 {
	worst := 0.0
	m := g.Matrix()
	for i := range m {
		for j := range m {
			var sum complex128
			for k := range m {
				sum += cmplx.Conj(m[k][i]) * m[k][j]
			}
			if i == j {
				sum -= 1
			}
			worst = math.Max(worst, cmplx.Abs(sum))
		}
	}
	return worst
}

func TestGateLibrary(t *testing.T) {
	Convey("Given the gate library", t, func() {
		Convey("Diffusion and phase flip should be unitary for 1 to 6 qubits", func() {
			for n := 1; n <= 6; n++ {
				diff, err := Diffusion(n)
				So(err, ShouldBeNil)
				So(unitaryError(diff), ShouldBeLessThan, 1e-9)

				flip, err := PhaseFlipAllOnes(n)
				So(err, ShouldBeNil)
				So(unitaryError(flip), ShouldBeLessThan, 1e-9)
				So(flip.Dim(), ShouldEqual, 1<<n)
			}
		})

		Convey("The phase flip should negate only the all-ones entry", func() {
			flip, err := PhaseFlipAllOnes(3)
			So(err, ShouldBeNil)
			for i := 0; i < 8; i++ {
				want := complex128(1)
				if i == 7 {
					want = -1
				}
				So(flip.At(i, i), ShouldEqual, want)
			}
			So(flip.At(0, 7), ShouldEqual, complex128(0))
		})

		Convey("Diffusion should be 2/2^n off the diagonal and 2/2^n - 1 on it", func() {
			diff, err := Diffusion(2)
			So(err, ShouldBeNil)
			So(real(diff.At(0, 1)), ShouldAlmostEqual, 0.5, 1e-12)
			So(real(diff.At(2, 2)), ShouldAlmostEqual, -0.5, 1e-12)
		})

		Convey("Single-qubit gates should have the expected entries", func() {
			x := Not()
			So(x.Qubits(), ShouldEqual, 1)
			So(x.At(0, 1), ShouldEqual, complex128(1))
			So(x.At(0, 0), ShouldEqual, complex128(0))

			h := Hadamard()
			So(real(h.At(1, 1)), ShouldAlmostEqual, -1/math.Sqrt2, 1e-12)

			id, err := Identity(2)
			So(err, ShouldBeNil)
			So(id.Name(), ShouldEqual, "ID2")
			So(id.At(3, 3), ShouldEqual, complex128(1))
		})

		Convey("Gates over zero or fewer qubits should fail with an invalid dimension", func() {
			for _, n := range []int{0, -1} {
				_, err := Identity(n)
				So(errors.Is(err, ErrInvalidDimension), ShouldBeTrue)
				_, err = PhaseFlipAllOnes(n)
				So(errors.Is(err, ErrInvalidDimension), ShouldBeTrue)
				_, err = Diffusion(n)
				So(errors.Is(err, ErrInvalidDimension), ShouldBeTrue)
			}
		})

		Convey("NewGate should reject a wrongly sized matrix", func() {
			_, err := NewGate("BAD", 1, [][]complex128{{1, 0, 0}, {0, 1, 0}})
			So(errors.Is(err, ErrInvalidDimension), ShouldBeTrue)
		})

		Convey("NewGate should reject a non-unitary matrix", func() {
			_, err := NewGate("BAD", 1, [][]complex128{{1, 1}, {0, 1}})
			So(errors.Is(err, ErrNonUnitaryGate), ShouldBeTrue)
		})

		Convey("A gate should not share its matrix with the caller", func() {
			m := [][]complex128{{0, 1}, {1, 0}}
			g, err := NewGate("X", 1, m)
			So(err, ShouldBeNil)
			m[0][0] = 5
			So(g.At(0, 0), ShouldEqual, complex128(0))

			out := g.Matrix()
			out[0][1] = 7
			So(g.At(0, 1), ShouldEqual, complex128(1))
		})
	})
}

package qgrover

import (
	"errors"
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func groverDistribution() ([]float64, *Program, BitString) {
	sr, _ := NewShiftRows(mustBits("1011"), mustBits("1100"), RowOffsets{1, 0})
	oracle, _ := sr.Oracle()
	circuit, _ := GroverCircuit(oracle, DefaultRounds(4))
	s, _ := NewStateVector(4)
	_ = s.ApplyCircuit(circuit)
	return s.Probabilities(), NewProgram(circuit), sr.MarkedState()
}

func sum(xs []float64) float64 {
	total := 0.0
	for _, x := range xs {
		total += x
	}
	return total
}

func TestNoiseModel(t *testing.T) {
	Convey("Given the ideal Grover distribution", t, func() {
		dist, program, marked := groverDistribution()
		So(program.Depth(), ShouldEqual, 58)

		Convey("Level zero should be the identity channel", func() {
			m, err := NewNoiseModel(DefaultNoiseParameters(0), program.Depth())
			So(err, ShouldBeNil)
			So(m.IsIdentity(), ShouldBeTrue)
			So(m.Apply(dist), ShouldResemble, dist)
		})

		Convey("A nil model should be the identity channel", func() {
			var m *NoiseModel
			So(m.IsIdentity(), ShouldBeTrue)
			So(m.Apply(dist), ShouldResemble, dist)
		})

		Convey("Probabilities should follow 1 - exp(-level·rate·depth·duration)", func() {
			m, err := NewNoiseModel(DefaultNoiseParameters(1), program.Depth())
			So(err, ShouldBeNil)
			want := 1 - math.Exp(-58*DefaultGateDuration*DefaultDampingRate)
			So(m.DampingProbability(), ShouldAlmostEqual, want, 1e-12)
			So(m.DephasingProbability(), ShouldAlmostEqual, want, 1e-12)
		})

		Convey("The channel should keep the distribution normalised and leave its input alone", func() {
			before := append([]float64(nil), dist...)
			for _, level := range []float64{0.1, 1, 5, 50} {
				m, err := NewNoiseModel(DefaultNoiseParameters(level), program.Depth())
				So(err, ShouldBeNil)
				out := m.Apply(dist)
				So(sum(out), ShouldAlmostEqual, 1, 1e-9)
				for _, p := range out {
					So(p, ShouldBeGreaterThanOrEqualTo, 0)
				}
			}
			So(dist, ShouldResemble, before)
		})

		Convey("Raising the level should never raise the chance of reading the marked state", func() {
			previous := dist[marked.Index()]
			for _, level := range []float64{0.1, 0.5, 1, 2, 3, 5} {
				m, err := NewNoiseModel(DefaultNoiseParameters(level), program.Depth())
				So(err, ShouldBeNil)
				p := m.Apply(dist)[marked.Index()]
				So(p, ShouldBeLessThanOrEqualTo, previous)
				previous = p
			}
			So(previous, ShouldBeLessThan, 0.2)
		})
	})

	Convey("Given pure amplitude damping on one qubit in |1⟩", t, func() {
		params := DefaultNoiseParameters(2)
		params.DephasingRate = 0
		m, err := NewNoiseModel(params, 10)
		So(err, ShouldBeNil)

		Convey("The 1 should relax to 0 with the damping probability", func() {
			out := m.Apply([]float64{0, 1})
			So(out[0], ShouldAlmostEqual, m.DampingProbability(), 1e-12)
			So(out[1], ShouldAlmostEqual, 1-m.DampingProbability(), 1e-12)
		})

		Convey("A 0 should stay put", func() {
			So(m.Apply([]float64{1, 0}), ShouldResemble, []float64{1, 0})
		})
	})

	Convey("Given invalid noise parameters", t, func() {
		_, err := NewNoiseModel(DefaultNoiseParameters(-1), 4)
		So(errors.Is(err, ErrInvalidConfiguration), ShouldBeTrue)

		params := DefaultNoiseParameters(1)
		params.GateDuration = -1
		_, err = NewNoiseModel(params, 4)
		So(errors.Is(err, ErrInvalidConfiguration), ShouldBeTrue)

		_, err = NewNoiseModel(DefaultNoiseParameters(1), -1)
		So(errors.Is(err, ErrInvalidConfiguration), ShouldBeTrue)
	})
}

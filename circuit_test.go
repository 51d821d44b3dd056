package qgrover

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestCircuitBuilder(t *testing.T) {
	Convey("Given a circuit builder over three qubits", t, func() {
		b := NewCircuitBuilder(3)

		Convey("It should keep gate applications in order", func() {
			c, err := b.Append(Hadamard(), 0).Append(Not(), 2).Build()
			So(err, ShouldBeNil)
			So(c.Qubits(), ShouldEqual, 3)
			So(c.Len(), ShouldEqual, 2)
			So(c.Op(0).Gate.Name(), ShouldEqual, "H")
			So(c.Op(1).Targets, ShouldResemble, []int{2})
		})

		Convey("A target outside the register should fail", func() {
			_, err := b.Append(Not(), 3).Build()
			So(errors.Is(err, ErrOutOfRangeQubit), ShouldBeTrue)

			_, err = NewCircuitBuilder(3).Append(Not(), -1).Build()
			So(errors.Is(err, ErrOutOfRangeQubit), ShouldBeTrue)
		})

		Convey("Repeated or missing targets should fail", func() {
			id, err := Identity(2)
			So(err, ShouldBeNil)

			_, err = b.Append(id, 1, 1).Build()
			So(errors.Is(err, ErrOutOfRangeQubit), ShouldBeTrue)

			_, err = NewCircuitBuilder(3).Append(id, 1).Build()
			So(errors.Is(err, ErrOutOfRangeQubit), ShouldBeTrue)
		})

		Convey("The first error should stick", func() {
			_, err := b.Append(Not(), 9).Append(Not(), 0).Build()
			So(errors.Is(err, ErrOutOfRangeQubit), ShouldBeTrue)
		})

		Convey("A built circuit should not change when the builder does", func() {
			c, err := b.Append(Not(), 0).Build()
			So(err, ShouldBeNil)
			b.Append(Not(), 1)
			So(c.Len(), ShouldEqual, 1)

			ops := c.Ops()
			ops[0].Targets[0] = 2
			So(c.Op(0).Targets, ShouldResemble, []int{0})
		})
	})

	Convey("Given a builder over zero qubits", t, func() {
		_, err := NewCircuitBuilder(0).Build()
		So(errors.Is(err, ErrInvalidDimension), ShouldBeTrue)
	})
}

func TestCompose(t *testing.T) {
	Convey("Given three small circuits", t, func() {
		a, _ := NewCircuitBuilder(2).Append(Hadamard(), 0).Build()
		b, _ := NewCircuitBuilder(2).Append(Not(), 1).Build()
		c, _ := NewCircuitBuilder(2).Append(Hadamard(), 1).Build()

		Convey("Composition should concatenate in order", func() {
			ab, err := Compose(a, b)
			So(err, ShouldBeNil)
			So(ab.Len(), ShouldEqual, 2)
			So(ab.Op(1).Gate.Name(), ShouldEqual, "X")
		})

		Convey("Composition should be associative", func() {
			ab, _ := Compose(a, b)
			left, err := Compose(ab, c)
			So(err, ShouldBeNil)
			bc, _ := Compose(b, c)
			right, err := Compose(a, bc)
			So(err, ShouldBeNil)

			So(left.Len(), ShouldEqual, right.Len())
			for i := 0; i < left.Len(); i++ {
				So(left.Op(i).Gate, ShouldEqual, right.Op(i).Gate)
				So(left.Op(i).Targets, ShouldResemble, right.Op(i).Targets)
			}
		})

		Convey("Circuits of different widths should not compose", func() {
			wide, _ := NewCircuitBuilder(3).Append(Not(), 2).Build()
			_, err := Compose(a, wide)
			So(errors.Is(err, ErrInvalidConfiguration), ShouldBeTrue)
		})

		Convey("Composing nothing should fail", func() {
			_, err := Compose()
			So(errors.Is(err, ErrInvalidConfiguration), ShouldBeTrue)
		})

		Convey("Nil circuits should fail instead of panicking", func() {
			_, err := Compose(nil, a)
			So(errors.Is(err, ErrInvalidConfiguration), ShouldBeTrue)

			_, err = Compose(a, nil)
			So(errors.Is(err, ErrInvalidConfiguration), ShouldBeTrue)

			_, err = NewCircuitBuilder(2).AppendCircuit(nil).Build()
			So(errors.Is(err, ErrInvalidConfiguration), ShouldBeTrue)
		})
	})
}

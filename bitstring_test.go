package qgrover

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestBitString(t *testing.T) {
	Convey("Given a bitstring", t, func() {
		b, err := ParseBitString("1011")
		So(err, ShouldBeNil)

		Convey("Position i should be bit i of the basis index", func() {
			So(b.Index(), ShouldEqual, 1+4+8)
			So(BitStringFromIndex(13, 4).Equal(b), ShouldBeTrue)
			So(b.String(), ShouldEqual, "1011")
		})

		Convey("Bad input should be rejected", func() {
			_, err := ParseBitString("")
			So(errors.Is(err, ErrInvalidConfiguration), ShouldBeTrue)
			_, err = ParseBitString("10x1")
			So(errors.Is(err, ErrInvalidConfiguration), ShouldBeTrue)
		})

		Convey("Bitstrings of different length should not be equal", func() {
			So(b.Equal(BitString{1, 0, 1}), ShouldBeFalse)
		})
	})
}

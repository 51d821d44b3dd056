package qgrover

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

const (
	testTimeout = 2 * time.Second
	timeoutMsg  = "Test timed out waiting for value retrieval"
)

func TestResultSpace(t *testing.T) {
	Convey("Given a result space", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
		defer cancel()

		rs := NewResultSpace()

		Convey("When storing before awaiting", func() {
			rs.Store("batch-0", "value", nil)
			So(rs.Pending(), ShouldEqual, 1)

			Convey("The value should be retrievable once", func() {
				select {
				case <-ctx.Done():
					t.Fatal(timeoutMsg)
				case value := <-rs.Await("batch-0"):
					So(value.Value, ShouldEqual, "value")
					So(value.Error, ShouldBeNil)
				}
				So(rs.Pending(), ShouldEqual, 0)
			})
		})

		Convey("When awaiting before storing", func() {
			ch := rs.Await("batch-1")
			go rs.Store("batch-1", nil, errors.New("boom"))

			Convey("The waiter should receive the error", func() {
				select {
				case <-ctx.Done():
					t.Fatal(timeoutMsg)
				case value := <-ch:
					So(value.Error, ShouldNotBeNil)
					So(value.CreatedAt.IsZero(), ShouldBeFalse)
				}
				So(rs.Pending(), ShouldEqual, 0)
			})
		})
	})
}

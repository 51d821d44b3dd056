package qgrover

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestPool(t *testing.T) {
	Convey("Given a new pool", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		q := NewQ(ctx, 2, 16, NewConfig())

		Reset(func() {
			q.Close()
			cancel()
		})

		Convey("When scheduling a simple job", func() {
			result := q.Schedule("test-job", func(ctx context.Context) (any, error) {
				return "success", nil
			})

			value := <-result
			So(value.Error, ShouldBeNil)
			So(value.Value, ShouldEqual, "success")
		})

		Convey("When scheduling a failing job", func() {
			result := q.Schedule("fail-job", func(ctx context.Context) (any, error) {
				return nil, ErrBackendUnavailable
			})

			value := <-result
			So(errors.Is(value.Error, ErrBackendUnavailable), ShouldBeTrue)
		})

		Convey("When scheduling more jobs than workers", func() {
			var ran atomic.Int64
			results := make([]chan Result, 12)
			for i := range results {
				results[i] = q.Schedule(fmt.Sprintf("load-test-%d", i), func(ctx context.Context) (any, error) {
					time.Sleep(5 * time.Millisecond)
					ran.Add(1)
					return i, nil
				})
			}

			for i, ch := range results {
				select {
				case <-time.After(testTimeout):
					t.Fatal(timeoutMsg)
				case value := <-ch:
					So(value.Error, ShouldBeNil)
					So(value.Value, ShouldEqual, i)
				}
			}
			So(ran.Load(), ShouldEqual, 12)
			So(q.Metrics().ExportMetrics()["worker_count"], ShouldEqual, 2)
		})
	})

	Convey("Given a pool whose queue is full", t, func() {
		cfg := NewConfig()
		cfg.SchedulingTimeout = 20 * time.Millisecond
		q := NewQ(context.Background(), 1, 1, cfg)
		release := make(chan struct{})

		Reset(func() {
			close(release)
			q.Close()
		})

		Convey("Scheduling should time out with an error", func() {
			blocked := func(ctx context.Context) (any, error) {
				select {
				case <-release:
				case <-ctx.Done():
				}
				return nil, nil
			}

			// One running, one held by the dispatcher, one queued; the rest cannot fit.
			var results []chan Result
			for i := 0; i < 5; i++ {
				results = append(results, q.Schedule(fmt.Sprintf("blocked-%d", i), blocked))
			}

			failed := 0
			for _, ch := range results {
				select {
				case value := <-ch:
					So(value.Error, ShouldNotBeNil)
					failed++
				default:
				}
			}
			So(failed, ShouldBeGreaterThanOrEqualTo, 2)

			So(q.Metrics().ExportMetrics()["scheduling_failures"], ShouldEqual, int64(failed))
		})
	})
}

package qgrover

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
)

// ResultSink receives one finished row per (device, noise level) batch.
type ResultSink interface {
	Flush(stats AggregateStats) error
}

/*
FormatLine renders a row as device,[a0,...,a(n-1),joint]. A batch that did
not finish renders as device,[incomplete] so it is never silently missing.
*/
func FormatLine(stats AggregateStats) string {
	if !stats.Complete {
		return stats.Device + ",[incomplete]"
	}

	fields := make([]string, 0, len(stats.QubitAccuracy)+1)
	for _, a := range stats.QubitAccuracy {
		fields = append(fields, strconv.FormatFloat(a, 'f', -1, 64))
	}
	fields = append(fields, strconv.FormatFloat(stats.JointAccuracy, 'f', -1, 64))
	return stats.Device + ",[" + strings.Join(fields, ",") + "]"
}

// ResultWriter writes rows as text lines.
type ResultWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func NewResultWriter(w io.Writer) *ResultWriter {
	return &ResultWriter{w: w}
}

func (rw *ResultWriter) Flush(stats AggregateStats) error {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	if _, err := fmt.Fprintln(rw.w, FormatLine(stats)); err != nil {
		return fmt.Errorf("writing result for %s at level %v: %w", stats.Device, stats.Level, err)
	}
	return nil
}

/*
ResultTable collects batch results as they finish, in any order, and hands
them to its sink in sweep order. A row is flushed as soon as every row before
it is done, so the sink never sees a gap or a half-finished batch.
*/
type ResultTable struct {
	mu   sync.Mutex
	sink ResultSink
	rows []AggregateStats
	done []bool
	next int
}

func NewResultTable(size int, sink ResultSink) *ResultTable {
	return &ResultTable{
		sink: sink,
		rows: make([]AggregateStats, size),
		done: make([]bool, size),
	}
}

// Complete records the row at index and flushes every row now in order.
func (t *ResultTable) Complete(index int, stats AggregateStats) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if index < 0 || index >= len(t.rows) {
		return fmt.Errorf("%w: result index %d of %d", ErrInvalidConfiguration, index, len(t.rows))
	}
	if t.done[index] {
		return fmt.Errorf("%w: result %d recorded twice", ErrInvalidConfiguration, index)
	}
	t.rows[index] = stats
	t.done[index] = true

	for t.next < len(t.rows) && t.done[t.next] {
		if t.sink != nil {
			if err := t.sink.Flush(t.rows[t.next]); err != nil {
				return err
			}
		}
		t.next++
	}
	return nil
}

// Flushed reports how many leading rows have reached the sink.
func (t *ResultTable) Flushed() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.next
}

// Rows returns the recorded rows in sweep order. Rows never completed are zero.
func (t *ResultTable) Rows() []AggregateStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]AggregateStats(nil), t.rows...)
}

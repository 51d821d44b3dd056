package qgrover

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Result wraps a job's value with metadata
type Result struct {
	Value     any
	Error     error
	CreatedAt time.Time
}

/*
ResultSpace holds finished job results until someone awaits them. A result
is handed out once and then forgotten.
*/
type ResultSpace struct {
	mu      sync.Mutex
	values  map[string]Result
	waiting map[string][]chan Result
}

func NewResultSpace() *ResultSpace {
	return &ResultSpace{
		values:  make(map[string]Result),
		waiting: make(map[string][]chan Result),
	}
}

// Store records a result and wakes anyone waiting for it
func (rs *ResultSpace) Store(id string, value any, err error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	r := Result{
		Value:     value,
		Error:     err,
		CreatedAt: time.Now(),
	}

	channels, ok := rs.waiting[id]
	if !ok {
		rs.values[id] = r
		return
	}

	for _, ch := range channels {
		ch <- r
		close(ch)
	}
	delete(rs.waiting, id)
	log.Debug("delivered result", "job", id, "waiters", len(channels))
}

// Await returns a channel that will receive the result when it's available
func (rs *ResultSpace) Await(id string) chan Result {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	ch := make(chan Result, 1)

	if r, ok := rs.values[id]; ok {
		delete(rs.values, id)
		ch <- r
		close(ch)
		return ch
	}

	rs.waiting[id] = append(rs.waiting[id], ch)
	return ch
}

// Pending reports how many results are stored but not yet collected
func (rs *ResultSpace) Pending() int {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return len(rs.values)
}

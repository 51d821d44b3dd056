package qgrover

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
)

// Worker processes jobs
type Worker struct {
	pool *Q
	jobs chan Job
}

func (w *Worker) run() {
	ctx := w.pool.ctx
	for {
		select {
		case <-ctx.Done():
			return
		case w.pool.workers <- w.jobs:
			select {
			case job := <-w.jobs:
				value, err := w.processJob(job)
				w.pool.space.Store(job.ID, value, err)
			case <-ctx.Done():
				return
			}
		}
	}
}

func (w *Worker) processJob(job Job) (value any, err error) {
	ctx := w.pool.ctx
	if job.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, job.Timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error("job panicked", "job", job.ID, "panic", r)
			value, err = nil, fmt.Errorf("job %s panicked: %v", job.ID, r)
		}
	}()

	return job.Fn(ctx)
}

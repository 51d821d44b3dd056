package qgrover

import (
	"context"
	"time"
)

// Job is one unit of pool work, a whole (device, noise level) batch
type Job struct {
	ID        string
	Fn        func(ctx context.Context) (any, error)
	Timeout   time.Duration
	StartTime time.Time
}

// JobOption is a function type for configuring jobs
type JobOption func(*Job)

// WithTimeout bounds the wall-clock time of a job. Zero means no bound.
func WithTimeout(timeout time.Duration) JobOption {
	return func(j *Job) {
		j.Timeout = timeout
	}
}

package qgrover

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

/*
Q is a fixed-size worker pool. Sweep batches are CPU-bound and independent,
so the pool does not scale: it starts its workers up front and hands each
job to the next idle one.
*/
type Q struct {
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	workers    chan chan Job
	jobs       chan Job
	space      *ResultSpace
	metrics    *Metrics
	workerMu   sync.Mutex
	workerList []*Worker
	config     *Config
}

// NewQ starts a pool with the given number of workers and room for
// queueSize jobs waiting to be picked up.
func NewQ(ctx context.Context, workers, queueSize int, config *Config) *Q {
	if workers < 1 {
		workers = 1
	}
	if queueSize < workers {
		queueSize = workers
	}

	ctx, cancel := context.WithCancel(ctx)
	q := &Q{
		ctx:        ctx,
		cancel:     cancel,
		workerList: make([]*Worker, 0, workers),
		jobs:       make(chan Job, queueSize),
		workers:    make(chan chan Job, workers),
		space:      NewResultSpace(),
		metrics:    NewMetrics(),
		config:     config,
	}

	for i := 0; i < workers; i++ {
		q.startWorker()
	}

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		q.manage()
	}()

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		q.collectMetrics()
	}()

	return q
}

// Pool management
func (q *Q) manage() {
	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.jobs:
			select {
			case <-q.ctx.Done():
				q.space.Store(job.ID, nil, fmt.Errorf("job %s dropped: %w", job.ID, q.ctx.Err()))
				return
			case workerChan := <-q.workers:
				select {
				case workerChan <- job:
				case <-q.ctx.Done():
					q.space.Store(job.ID, nil, fmt.Errorf("job %s dropped: %w", job.ID, q.ctx.Err()))
					return
				}
			}
		}
	}
}

func (q *Q) collectMetrics() {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-q.ctx.Done():
			return
		case <-ticker.C:
			q.metrics.mu.Lock()
			q.metrics.JobQueueSize = len(q.jobs)
			q.metrics.mu.Unlock()
		}
	}
}

/*
Schedule queues fn and returns a channel that receives its result. If the
queue stays full past the scheduling timeout, the channel carries an error
instead.
*/
func (q *Q) Schedule(id string, fn func(ctx context.Context) (any, error), opts ...JobOption) chan Result {
	ctx, cancel := context.WithTimeout(q.ctx, q.getSchedulingTimeout())
	defer cancel()

	job := Job{
		ID:        id,
		Fn:        fn,
		StartTime: time.Now(),
	}
	for _, opt := range opts {
		opt(&job)
	}

	// Await before enqueueing so a fast job cannot finish unobserved.
	result := q.space.Await(id)

	select {
	case q.jobs <- job:
		return result
	case <-ctx.Done():
		q.metrics.recordSchedulingFailure()
		err := fmt.Errorf("job scheduling timeout: %w", ctx.Err())
		q.space.Store(id, nil, err)
		return result
	}
}

func (q *Q) Metrics() *Metrics {
	return q.metrics
}

func (q *Q) startWorker() {
	worker := &Worker{
		pool: q,
		jobs: make(chan Job),
	}
	q.workerMu.Lock()
	q.workerList = append(q.workerList, worker)
	q.workerMu.Unlock()

	q.metrics.mu.Lock()
	q.metrics.WorkerCount++
	q.metrics.mu.Unlock()

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		worker.run()
	}()
}

func (q *Q) getSchedulingTimeout() time.Duration {
	if q.config != nil && q.config.SchedulingTimeout > 0 {
		return q.config.SchedulingTimeout
	}
	return 5 * time.Second
}

// Close stops every worker and waits for in-flight jobs to return.
func (q *Q) Close() {
	if q == nil {
		return
	}

	q.cancel()
	q.wg.Wait()

	q.workerMu.Lock()
	q.workerList = nil
	q.workerMu.Unlock()

	log.Debug("pool closed", "metrics", q.metrics.ExportMetrics())
}

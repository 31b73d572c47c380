package async

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/joseph-ayodele/budget-extractor/internal/metrics"
)

// ProcessorQueue feeds jobs to a fixed number of workers through a buffered channel.
// Enqueue blocks while the buffer is full.
type ProcessorQueue struct {
	handle  Handler
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.RWMutex
	closed bool
}

type Option func(*ProcessorQueue)

func WithWorkers(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}

func WithProcessTimeout(d time.Duration) Option {
	return func(q *ProcessorQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewProcessorQueue(handle Handler, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ProcessorQueue{
		handle:  handle,
		logger:  logger,
		workers: 2,
		timeout: 5 * time.Minute,
		ch:      make(chan Job, 64),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ProcessorQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go q.work(i + 1)
		}
	})
}

func (q *ProcessorQueue) work(workerID int) {
	defer q.wg.Done()
	q.logger.Info("async.worker.start", "worker_id", workerID)

	for job := range q.ch {
		metrics.DecrementJobsInQueue()
		q.run(workerID, job)
	}

	q.logger.Info("async.worker.stop", "worker_id", workerID)
}

func (q *ProcessorQueue) run(workerID int, job Job) {
	metrics.IncrementActiveWorkers()
	defer metrics.DecrementActiveWorkers()

	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()

	start := time.Now()
	err := q.invoke(ctx, job)
	elapsed := time.Since(start)

	if err != nil {
		metrics.CaptureJob("failed", elapsed)
		q.logger.Error("async.job.failed", "worker_id", workerID, "job_id", job.ID, "path", job.Path, "error", err)
		return
	}
	metrics.CaptureJob("succeeded", elapsed)
	q.logger.Info("async.job.ok", "worker_id", workerID, "job_id", job.ID, "path", job.Path,
		"wait_ms", start.Sub(job.SubmittedAt).Milliseconds(), "ms", elapsed.Milliseconds())
}

// invoke keeps a panicking handler from taking the worker down with it.
func (q *ProcessorQueue) invoke(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError{value: r}
		}
	}()
	return q.handle(ctx, job)
}

// Enqueue submits a job, assigning an ID and submission time when missing. It waits for buffer
// space until ctx is done.
func (q *ProcessorQueue) Enqueue(ctx context.Context, job Job) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}

	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.logger.Warn("async.enqueue.closed", "path", job.Path)
		return ErrQueueClosed
	}

	select {
	case q.ch <- job:
	default:
		q.logger.Warn("async.enqueue.backpressure", "path", job.Path, "capacity", cap(q.ch))
		select {
		case q.ch <- job:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	metrics.IncrementJobsInQueue()
	q.logger.Info("async.enqueue.ok", "job_id", job.ID, "path", job.Path, "budget_id", job.BudgetID)
	return nil
}

// Shutdown stops accepting jobs and waits for the workers to drain the buffer or for ctx to end.
func (q *ProcessorQueue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("async.shutdown.interrupted", "error", ctx.Err())
		return ctx.Err()
	case <-done:
		q.logger.Info("async.shutdown.ok")
		return nil
	}
}

var _ Queue = (*ProcessorQueue)(nil)

// Package async runs budget documents through a handler on a bounded pool of workers.
package async

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrQueueClosed is returned by Enqueue after Shutdown has started.
var ErrQueueClosed = errors.New("queue is shutting down")

// Job is one document waiting to be processed.
type Job struct {
	ID          uuid.UUID
	Path        string
	BudgetID    string
	FormatHint  string
	SubmittedAt time.Time
}

// Handler processes a single job. Errors are logged and counted; they do not stop the worker.
type Handler func(ctx context.Context, job Job) error

// Queue accepts jobs until it is shut down.
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context) error
}

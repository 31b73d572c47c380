package async

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestProcessorQueueRunsEveryJob(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	q := NewProcessorQueue(func(_ context.Context, job Job) error {
		if job.ID == uuid.Nil || job.SubmittedAt.IsZero() {
			t.Errorf("job %s missing id or submission time", job.Path)
		}
		mu.Lock()
		seen = append(seen, job.Path)
		mu.Unlock()
		return nil
	}, quietLogger(), WithWorkers(3), WithQueueSize(2))

	paths := []string{"a.pdf", "b.pdf", "c.pdf", "d.pdf", "e.pdf", "f.pdf"}
	for _, p := range paths {
		if err := q.Enqueue(context.Background(), Job{Path: p, BudgetID: "B-1"}); err != nil {
			t.Fatalf("Enqueue(%s): %v", p, err)
		}
	}
	if err := q.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	sort.Strings(seen)
	if len(seen) != len(paths) {
		t.Fatalf("processed %v, want %v", seen, paths)
	}
	for i := range paths {
		if seen[i] != paths[i] {
			t.Fatalf("processed %v, want %v", seen, paths)
		}
	}
}

func TestProcessorQueueSurvivesFailures(t *testing.T) {
	var calls atomic.Int32
	q := NewProcessorQueue(func(_ context.Context, job Job) error {
		calls.Add(1)
		switch job.Path {
		case "panic.pdf":
			panic("boom")
		case "err.pdf":
			return errors.New("corrupt")
		}
		return nil
	}, quietLogger(), WithWorkers(1))

	for _, p := range []string{"panic.pdf", "err.pdf", "ok.pdf"} {
		if err := q.Enqueue(context.Background(), Job{Path: p}); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}
	if err := q.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("handler calls = %d, want 3", got)
	}
}

func TestProcessorQueueAppliesTimeout(t *testing.T) {
	got := make(chan error, 1)
	q := NewProcessorQueue(func(ctx context.Context, _ Job) error {
		<-ctx.Done()
		got <- ctx.Err()
		return ctx.Err()
	}, quietLogger(), WithProcessTimeout(20*time.Millisecond))

	if err := q.Enqueue(context.Background(), Job{Path: "slow.pdf"}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	select {
	case err := <-got:
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("ctx err = %v, want deadline exceeded", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("handler never saw the deadline")
	}
	_ = q.Shutdown(context.Background())
}

func TestProcessorQueueBackpressure(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	q := NewProcessorQueue(func(context.Context, Job) error {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
		return nil
	}, quietLogger(), WithWorkers(1), WithQueueSize(1))

	if err := q.Enqueue(context.Background(), Job{Path: "1.pdf"}); err != nil {
		t.Fatal(err)
	}
	<-started
	if err := q.Enqueue(context.Background(), Job{Path: "2.pdf"}); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if err := q.Enqueue(ctx, Job{Path: "3.pdf"}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Enqueue on full queue = %v, want deadline exceeded", err)
	}

	close(release)
	if err := q.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}

func TestProcessorQueueRejectsAfterShutdown(t *testing.T) {
	q := NewProcessorQueue(func(context.Context, Job) error { return nil }, quietLogger())
	if err := q.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if err := q.Shutdown(context.Background()); err != nil {
		t.Fatalf("second Shutdown: %v", err)
	}
	if err := q.Enqueue(context.Background(), Job{Path: "late.pdf"}); !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("Enqueue after shutdown = %v, want ErrQueueClosed", err)
	}
}

func TestShutdownHonoursContext(t *testing.T) {
	release := make(chan struct{})
	q := NewProcessorQueue(func(context.Context, Job) error {
		<-release
		return nil
	}, quietLogger(), WithWorkers(1))
	defer close(release)

	if err := q.Enqueue(context.Background(), Job{Path: "stuck.pdf"}); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := q.Shutdown(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Shutdown = %v, want deadline exceeded", err)
	}
}

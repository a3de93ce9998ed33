// Package worker runs queued refresh jobs against the service.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/kpiboard/internal/adapters/mq/queue"
	"github.com/okian/kpiboard/pkg/logger"
)

const defaultJobTimeout = 30 * time.Second

// Refresher performs one refresh job.
type Refresher interface {
	Refresh(ctx context.Context, job queue.Job) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker processes refresh jobs.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker after the job in flight, if any.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker is the single consumer of the refresh queue. Jobs run one
// at a time in arrival order.
type InMemoryWorker struct {
	queue      Queue
	refresher  Refresher
	name       string
	jobTimeout time.Duration

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, r Refresher, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:      q,
		refresher:  r,
		name:       "refresh-worker",
		jobTimeout: defaultJobTimeout,
		shutdown:   make(chan struct{}),
		done:       make(chan struct{}),
		logger:     logger.Get(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	// the dequeue goroutine stops with this context
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.process(ctx, job); err != nil {
				w.logger.Error(ctx, "refresh job failed",
					logger.String("job_id", job.ID),
					logger.String("trigger", job.Trigger),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown signals the loop to stop and waits for it.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) process(ctx context.Context, job queue.Job) error {
	start := time.Now()
	jobCtx, cancel := context.WithTimeout(ctx, w.jobTimeout)
	defer cancel()

	if err := w.refresher.Refresh(jobCtx, job); err != nil {
		return fmt.Errorf("refresh %s: %w", job.ID, err)
	}
	w.logger.Debug(ctx, "refresh job done",
		logger.String("job_id", job.ID),
		logger.String("trigger", job.Trigger),
		logger.Duration("elapsed", time.Since(start)),
		logger.Duration("waited", start.Sub(job.RequestedAt)),
	)
	return nil
}

package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"thirdcoast.systems/reclip/internal/pipeline"
	"thirdcoast.systems/reclip/internal/queue"
)

const (
	pollInterval  = 5 * time.Second
	sweepInterval = time.Minute
)

// Handler processes one reserved task. Returning nil acks the task; any
// error nacks it, and errors classified as unretriable dead-letter
// immediately instead of burning the remaining attempts.
type Handler func(ctx context.Context, task *queue.Task) error

// Runner drains a single queue with a fixed pool of goroutines. Workers
// process until the queue is empty, then sleep on the wake channel with a
// poll fallback for missed notifications.
type Runner struct {
	Queue       string
	Broker      *queue.Broker
	Handler     Handler
	Concurrency int
	RatePerSec  float64
	TaskTimeout time.Duration
	StuckAfter  time.Duration
	DrainGrace  time.Duration
	WorkerID    string
	Wake        <-chan struct{}
}

// Run blocks until ctx is canceled, then waits up to DrainGrace for
// in-flight tasks to finish.
func (r *Runner) Run(ctx context.Context) {
	concurrency := r.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if r.RatePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(r.RatePerSec), 1)
	}

	slog.Info("workers started",
		"queue", r.Queue, "workers", concurrency, "worker_id", r.WorkerID)

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.workerLoop(ctx, limiter)
		}()
	}

	if r.StuckAfter > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.sweepLoop(ctx)
		}()
	}

	<-ctx.Done()
	slog.Info("workers stopping", "queue", r.Queue)

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	grace := r.DrainGrace
	if grace <= 0 {
		grace = 30 * time.Second
	}
	select {
	case <-done:
	case <-time.After(grace):
		slog.Warn("drain grace expired with tasks still running", "queue", r.Queue)
	}
}

func (r *Runner) workerLoop(ctx context.Context, limiter *rate.Limiter) {
	for {
		if ctx.Err() != nil {
			return
		}

		// Process tasks until the queue is empty
		for {
			if err := limiter.Wait(ctx); err != nil {
				return
			}

			task, err := r.Broker.Reserve(ctx, r.Queue, r.WorkerID)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				slog.Error("failed to reserve task", "queue", r.Queue, "error", err)
				time.Sleep(2 * time.Second)
				break
			}
			if task == nil {
				break
			}

			r.runTask(ctx, task)
		}

		select {
		case <-ctx.Done():
			return
		case <-r.Wake:
			// new task notification
		case <-time.After(pollInterval):
			// periodic poll
		}
	}
}

func (r *Runner) runTask(ctx context.Context, task *queue.Task) {
	// Shutdown must not corrupt a half-done task: once reserved, the task
	// runs to completion (or its own timeout) even if ctx is canceled.
	taskCtx := context.WithoutCancel(ctx)
	if r.TaskTimeout > 0 {
		var cancel context.CancelFunc
		taskCtx, cancel = context.WithTimeout(taskCtx, r.TaskTimeout)
		defer cancel()
	}

	start := time.Now()
	err := r.Handler(taskCtx, task)
	if err == nil {
		if ackErr := r.Broker.Ack(taskCtx, task); ackErr != nil {
			slog.Error("failed to ack task",
				"queue", r.Queue, "task_id", task.ID, "error", ackErr)
		}
		slog.Info("task complete",
			"queue", r.Queue, "task_id", task.ID,
			"attempt", task.Attempts, "elapsed", time.Since(start).Round(time.Millisecond))
		return
	}

	permanent := pipeline.Unretriable(err)
	slog.Error("task failed",
		"queue", r.Queue, "task_id", task.ID,
		"attempt", task.Attempts, "permanent", permanent, "error", err)
	if nackErr := r.Broker.Nack(taskCtx, task, err.Error(), permanent); nackErr != nil {
		slog.Error("failed to nack task",
			"queue", r.Queue, "task_id", task.ID, "error", nackErr)
	}
}

func (r *Runner) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := r.Broker.RequeueStuck(ctx, r.Queue, r.StuckAfter)
			if err != nil {
				if ctx.Err() == nil {
					slog.Error("failed to requeue stuck tasks", "queue", r.Queue, "error", err)
				}
				continue
			}
			if n > 0 {
				slog.Warn("requeued stuck tasks", "queue", r.Queue, "count", n)
			}
		}
	}
}

package pool

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Handler runs one job to completion. ctx carries the job's deadline. A
// non-nil error is a run-level failure: it cancels every other in-flight
// job and is returned from Run.
type Handler func(ctx context.Context, job Job) (Outcome, error)

// Pool runs jobs with bounded concurrency and a per-job deadline.
type Pool struct {
	logger  *slog.Logger
	workers int
	timeout time.Duration
}

type Option func(*Pool)

func WithWorkers(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.workers = n
		}
	}
}

func WithJobTimeout(d time.Duration) Option {
	return func(p *Pool) {
		if d > 0 {
			p.timeout = d
		}
	}
}

func New(logger *slog.Logger, opts ...Option) *Pool {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pool{
		logger:  logger,
		workers: 4,
		timeout: 600 * time.Second,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *Pool) Workers() int           { return p.workers }
func (p *Pool) Timeout() time.Duration { return p.timeout }

// Run feeds jobs in order to at most Workers() concurrent handlers and calls
// sink for every outcome, from the calling goroutine, in completion order.
// Run returns once all jobs are done or the first handler error aborts the run.
func (p *Pool) Run(ctx context.Context, jobs []Job, handle Handler, sink func(Outcome)) error {
	g, gctx := errgroup.WithContext(ctx)
	queue := make(chan Job)
	results := make(chan Outcome)

	g.Go(func() error {
		defer close(queue)
		for _, job := range jobs {
			select {
			case queue <- job:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		workerID := i + 1
		g.Go(func() error {
			defer wg.Done()
			p.logger.Debug("worker started", "worker_id", workerID)

			for job := range queue {
				if err := gctx.Err(); err != nil {
					return err
				}
				jctx, cancel := context.WithTimeout(gctx, p.timeout)
				out, err := handle(jctx, job)
				cancel()
				if err != nil {
					p.logger.Error("run aborted by job", "worker_id", workerID, "source", job.SourcePath, "error", err)
					return err
				}

				select {
				case results <- out:
				case <-gctx.Done():
					return gctx.Err()
				}
			}

			p.logger.Debug("worker stopped", "worker_id", workerID)
			return nil
		})
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	for out := range results {
		sink(out)
	}
	return g.Wait()
}

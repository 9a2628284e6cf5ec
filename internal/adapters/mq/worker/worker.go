// Package worker defines worker contracts for asynchronous pick grading.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"pickwire/internal/adapters/mq/queue"
	"pickwire/internal/domain/grading"
	"pickwire/internal/domain/model"
	"pickwire/pkg/logger"
	"pickwire/pkg/metrics"
)

// Default worker configuration constants.
const poolShutdownTimeout = 30 * time.Second

// Recorder receives the graded picks for one game.
type Recorder interface {
	RecordGrades(ctx context.Context, gameID string, grades []model.GradedPick) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker processes grade jobs and records results using the provided
// interfaces.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// GradeWorker implements Worker over a Grader and a Recorder.
type GradeWorker struct {
	queue    Queue
	grader   grading.Grader
	recorder Recorder
	name     string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewGradeWorker creates a new worker with configuration options.
func NewGradeWorker(q Queue, grader grading.Grader, recorder Recorder, opts ...Option) *GradeWorker {
	w := &GradeWorker{
		queue:    q,
		grader:   grader,
		recorder: recorder,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *GradeWorker) Run(ctx context.Context) {
	defer close(w.done)

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
			if err := w.processJob(ctx, job); err != nil {
				w.logger.Error(ctx, "error processing grade job", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *GradeWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processJob grades every pick in the job against its record. Grading is
// total, so the only failure mode here is the recorder.
func (w *GradeWorker) processJob(ctx context.Context, job queue.Job) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerLatency(float64(time.Since(start).Milliseconds()))
	}()

	graded := make([]model.GradedPick, 0, len(job.Picks))
	for _, pick := range job.Picks {
		gradeStart := time.Now()
		result := w.grader.Grade(ctx, pick.Text, job.Record)
		metrics.RecordGradingLatency(float64(time.Since(gradeStart).Milliseconds()))
		metrics.RecordGradeResult(string(result))

		graded = append(graded, model.GradedPick{Pick: pick, Result: result})
		if result == model.GradeUnknown {
			w.logger.Warn(ctx, "pick graded unknown",
				logger.String("gameID", job.GameID),
				logger.String("pick", pick.Text),
			)
		}
	}

	if err := w.recorder.RecordGrades(ctx, job.GameID, graded); err != nil {
		metrics.RecordWorkerError()
		w.logger.Error(ctx, "recording grades failed",
			logger.String("gameID", job.GameID),
			logger.Error(err),
		)
		return fmt.Errorf("record grades for %s: %w", job.GameID, err)
	}
	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers []*GradeWorker

	logger logger.Logger
}

// NewPool creates a new worker pool.
func NewPool(workerCount int, q Queue, grader grading.Grader, recorder Recorder) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{
		workers: make([]*GradeWorker, workerCount),
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewGradeWorker(q, grader, recorder, WithName("worker-"+strconv.Itoa(i)))
	}

	metrics.UpdateWorkerCount(workerCount)
	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue and waits for workers to drain.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.workers[0].queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	metrics.UpdateWorkerCount(0)
	return nil
}

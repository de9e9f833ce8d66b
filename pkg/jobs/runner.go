// Package jobs schedules the periodic store jobs.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vazco/EthereumBridgeBackend/pkg/logging"
	"github.com/vazco/EthereumBridgeBackend/pkg/metrics"
)

var (
	// ErrDuplicateJob indicates that a job name was added twice.
	ErrDuplicateJob = errors.New("job already registered")
	// ErrInvalidInterval indicates a non-positive job interval.
	ErrInvalidInterval = errors.New("job interval must be > 0")
)

// Job is one unit of scheduled work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type entry struct {
	job      Job
	interval time.Duration
	running  sync.Mutex
}

// Runner runs each job on its own fixed interval. A tick that arrives while
// the previous run of the same job is still going is skipped.
type Runner struct {
	logger  *logging.Logger
	entries []*entry
	names   map[string]struct{}
	wg      sync.WaitGroup
}

// NewRunner creates an empty runner.
func NewRunner(logger *logging.Logger) *Runner {
	if logger == nil {
		logger = logging.NewNoopLogger()
	}
	return &Runner{
		logger: logger,
		names:  make(map[string]struct{}),
	}
}

// Add registers job to run every interval.
func (r *Runner) Add(job Job, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("%w: %s: %s", ErrInvalidInterval, job.Name(), interval)
	}
	if _, ok := r.names[job.Name()]; ok {
		return ErrDuplicateJob
	}
	r.names[job.Name()] = struct{}{}
	r.entries = append(r.entries, &entry{job: job, interval: interval})
	return nil
}

// RunOnce runs every job once, sequentially, and returns the joined errors.
func (r *Runner) RunOnce(ctx context.Context) error {
	var errs []error
	for _, e := range r.entries {
		if err := r.execute(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Start runs every job immediately and then on its interval until ctx is
// cancelled. It does not block; use Wait to join the loops.
func (r *Runner) Start(ctx context.Context) {
	for _, e := range r.entries {
		r.wg.Add(1)
		go r.loop(ctx, e)
	}
}

// Wait blocks until every loop started by Start has returned.
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) loop(ctx context.Context, e *entry) {
	defer r.wg.Done()

	r.logger.Info("Starting job", "job", e.job.Name(), "interval", e.interval)
	r.tick(ctx, e)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Stopping job", "job", e.job.Name())
			return
		case <-ticker.C:
			r.tick(ctx, e)
		}
	}
}

// tick starts a run in the background unless one is already in flight.
func (r *Runner) tick(ctx context.Context, e *entry) {
	if !e.running.TryLock() {
		r.logger.Warn("Previous run still in progress, skipping tick", "job", e.job.Name())
		return
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer e.running.Unlock()
		_ = r.run(ctx, e)
	}()
}

func (r *Runner) execute(ctx context.Context, e *entry) error {
	e.running.Lock()
	defer e.running.Unlock()
	return r.run(ctx, e)
}

func (r *Runner) run(ctx context.Context, e *entry) error {
	start := time.Now()
	err := e.job.Run(ctx)
	dur := time.Since(start)
	metrics.RecordJobRun(e.job.Name(), err, dur)

	if err != nil {
		r.logger.Error("Job failed", "job", e.job.Name(), "duration", dur, "error", err)
		return err
	}
	r.logger.Debug("Job finished", "job", e.job.Name(), "duration", dur)
	return nil
}

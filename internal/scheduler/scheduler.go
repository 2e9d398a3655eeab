package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	pkgerrors "github.com/ratewatch/price-history/pkg/errors"
	"github.com/ratewatch/price-history/pkg/logger"
)

// Job is one periodic task. Handler runs on every tick of Interval.
type Job struct {
	Name     string
	Interval time.Duration
	Handler  func(ctx context.Context) error

	mu      sync.Mutex
	lastRun time.Time
	lastErr error
	runs    int
}

// JobStatus is a snapshot of one job's run history.
type JobStatus struct {
	Name    string
	LastRun time.Time
	LastErr error
	Runs    int
}

// Status returns the job's current snapshot.
func (j *Job) Status() JobStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	return JobStatus{
		Name:    j.Name,
		LastRun: j.lastRun,
		LastErr: j.lastErr,
		Runs:    j.runs,
	}
}

// Scheduler runs registered jobs on independent tickers. A job that panics
// or errors is logged and keeps its schedule.
type Scheduler struct {
	jobs   []*Job
	logger logger.Interface

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates an empty scheduler.
func New(log logger.Interface) *Scheduler {
	return &Scheduler{
		logger: log,
	}
}

// Register adds a job. Must be called before Start.
func (s *Scheduler) Register(job *Job) {
	s.jobs = append(s.jobs, job)
}

// Start launches one loop per registered job. Each handler fires once
// immediately and then on every interval tick.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	for _, job := range s.jobs {
		s.wg.Add(1)
		go s.loop(ctx, job)
	}

	s.logger.Info("scheduler started", logger.NewField("jobs", len(s.jobs)))
}

// Stop cancels every loop and waits for in-flight runs to finish, up to
// timeout.
func (s *Scheduler) Stop(timeout time.Duration) {
	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("scheduler stopped")
	case <-time.After(timeout):
		s.logger.Warn("scheduler stop timed out", logger.NewField("timeout", timeout.String()))
	}
}

// Jobs returns a status snapshot of every registered job.
func (s *Scheduler) Jobs() []JobStatus {
	statuses := make([]JobStatus, len(s.jobs))
	for i, job := range s.jobs {
		statuses[i] = job.Status()
	}
	return statuses
}

func (s *Scheduler) loop(ctx context.Context, job *Job) {
	defer s.wg.Done()

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	s.run(ctx, job)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.run(ctx, job)
		}
	}
}

// run executes one handler invocation. Panics are contained to the run so
// the loop survives.
func (s *Scheduler) run(ctx context.Context, job *Job) {
	var err error
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", job.Name, r)
			s.logger.ErrorContext(ctx, pkgerrors.TracerFromError(err),
				logger.NewField("job", job.Name),
			)
		}

		job.mu.Lock()
		job.lastRun = time.Now()
		job.lastErr = err
		job.runs++
		job.mu.Unlock()
	}()

	if err = job.Handler(ctx); err != nil && ctx.Err() == nil {
		s.logger.ErrorContext(ctx, pkgerrors.TracerFromError(err),
			logger.NewField("job", job.Name),
		)
	}
}

package backfill

import (
	"context"
	"sync"
	"time"

	candledomain "github.com/ratewatch/price-history/internal/domain/candle"
	"github.com/ratewatch/price-history/internal/domain/pricesource"
	"github.com/ratewatch/price-history/internal/usecase/coverage"
	"github.com/ratewatch/price-history/internal/usecase/reconcile"
	pkgerrors "github.com/ratewatch/price-history/pkg/errors"
	"github.com/ratewatch/price-history/pkg/logger"
	"github.com/ratewatch/price-history/pkg/timeframe"
)

// State is the lifecycle phase of one backfill job.
type State string

const (
	StateIdle        State = "idle"
	StateScanning    State = "scanning"
	StateFetching    State = "fetching"
	StateReconciling State = "reconciling"
	StateFailed      State = "failed"
)

// Job is one (item, timeframe) backfill unit.
type Job struct {
	ItemCode  string
	ItemType  candledomain.ItemType
	Timeframe timeframe.Timeframe
}

// JobStatus is a snapshot of one job's last run.
type JobStatus struct {
	Job           Job
	State         State
	LastRun       time.Time
	LastError     string
	GapsFound     int
	GapsFilled    int
	RecordsPulled int
}

// Orchestrator drives gap repair: scan coverage, pull the missing intervals
// from the upstream, reconcile the response into the store. Jobs are
// independent, one failing job never blocks the rest.
type Orchestrator struct {
	analyzer *coverage.Analyzer
	engine   *reconcile.Engine
	source   pricesource.Source
	jobs     []Job
	lookback time.Duration
	loc      *time.Location
	logger   logger.Interface

	mu     sync.RWMutex
	status map[Job]*JobStatus

	now func() time.Time
}

// NewOrchestrator creates an orchestrator over the given jobs.
func NewOrchestrator(
	analyzer *coverage.Analyzer,
	engine *reconcile.Engine,
	source pricesource.Source,
	jobs []Job,
	lookback time.Duration,
	loc *time.Location,
	log logger.Interface,
) *Orchestrator {
	status := make(map[Job]*JobStatus, len(jobs))
	for _, job := range jobs {
		status[job] = &JobStatus{Job: job, State: StateIdle}
	}

	return &Orchestrator{
		analyzer: analyzer,
		engine:   engine,
		source:   source,
		jobs:     jobs,
		lookback: lookback,
		loc:      loc,
		logger:   log,
		status:   status,
	}
}

// RunOnce runs every job once. Job errors are logged and recorded on the
// job's status, the scan continues.
func (o *Orchestrator) RunOnce(ctx context.Context) {
	for _, job := range o.jobs {
		if ctx.Err() != nil {
			return
		}
		if err := o.runJob(ctx, job); err != nil {
			o.logger.ErrorContext(ctx, pkgerrors.TracerFromError(err),
				logger.NewField("item_code", job.ItemCode),
				logger.NewField("timeframe", job.Timeframe.Name),
			)
		}
	}
}

// Status returns a snapshot of every job.
func (o *Orchestrator) Status() []JobStatus {
	o.mu.RLock()
	defer o.mu.RUnlock()

	out := make([]JobStatus, 0, len(o.jobs))
	for _, job := range o.jobs {
		out = append(out, *o.status[job])
	}
	return out
}

func (o *Orchestrator) runJob(ctx context.Context, job Job) error {
	now := o.clock()
	rangeEnd := job.Timeframe.BucketStart(now, o.loc)
	rangeStart := rangeEnd.Add(-o.lookback)

	o.transition(job, StateScanning, func(s *JobStatus) {
		s.LastRun = now
		s.LastError = ""
		s.GapsFound = 0
		s.GapsFilled = 0
		s.RecordsPulled = 0
	})

	report, err := o.analyzer.Analyze(ctx, job.ItemCode, job.ItemType, job.Timeframe, rangeStart, rangeEnd)
	if err != nil {
		return o.fail(job, err)
	}

	if len(report.MissingPeriods) == 0 {
		o.transition(job, StateIdle, nil)
		return nil
	}

	o.transition(job, StateFetching, func(s *JobStatus) {
		s.GapsFound = len(report.MissingPeriods)
	})

	for _, gap := range report.MissingPeriods {
		records, err := o.source.HistoricalOHLC(ctx, pricesource.HistoricalQuery{
			ItemCode:   job.ItemCode,
			ItemType:   job.ItemType,
			Timeframe:  job.Timeframe,
			RangeStart: gap.Start,
			RangeEnd:   gap.End,
		})
		if err != nil {
			return o.fail(job, err)
		}

		o.transition(job, StateReconciling, func(s *JobStatus) {
			s.RecordsPulled += len(records)
		})

		if _, err := o.engine.Reconcile(ctx, job.ItemCode, job.ItemType, job.Timeframe, records); err != nil {
			return o.fail(job, err)
		}

		o.transition(job, StateFetching, func(s *JobStatus) {
			s.GapsFilled++
		})
	}

	o.transition(job, StateIdle, nil)
	return nil
}

func (o *Orchestrator) transition(job Job, state State, update func(*JobStatus)) {
	o.mu.Lock()
	defer o.mu.Unlock()

	s := o.status[job]
	s.State = state
	if update != nil {
		update(s)
	}
}

// fail parks the job in failed with err recorded. The next run clears the
// state and retries.
func (o *Orchestrator) fail(job Job, err error) error {
	o.transition(job, StateFailed, func(s *JobStatus) {
		s.LastError = err.Error()
	})
	return err
}

func (o *Orchestrator) clock() time.Time {
	if o.now != nil {
		return o.now()
	}
	return time.Now()
}

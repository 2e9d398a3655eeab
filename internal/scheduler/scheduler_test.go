package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	logger_mock "github.com/ratewatch/price-history/pkg/logger/mock"
)

func newTestScheduler(t *testing.T) *Scheduler {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	log := logger_mock.NewMockInterface(ctrl)
	log.EXPECT().Info(gomock.Any(), gomock.Any()).AnyTimes()
	log.EXPECT().Info(gomock.Any()).AnyTimes()
	log.EXPECT().Warn(gomock.Any(), gomock.Any()).AnyTimes()
	log.EXPECT().ErrorContext(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()

	return New(log)
}

func TestScheduler_RunsJobOnInterval(t *testing.T) {
	s := newTestScheduler(t)

	var runs atomic.Int32
	s.Register(&Job{
		Name:     "poll",
		Interval: 10 * time.Millisecond,
		Handler: func(ctx context.Context) error {
			runs.Add(1)
			return nil
		},
	})

	s.Start(context.Background())
	time.Sleep(55 * time.Millisecond)
	s.Stop(time.Second)

	// one immediate run plus several ticks
	assert.GreaterOrEqual(t, runs.Load(), int32(3))

	statuses := s.Jobs()
	require.Len(t, statuses, 1)
	assert.Equal(t, "poll", statuses[0].Name)
	assert.NoError(t, statuses[0].LastErr)
	assert.GreaterOrEqual(t, statuses[0].Runs, 3)
}

func TestScheduler_JobErrorKeepsSchedule(t *testing.T) {
	s := newTestScheduler(t)

	var runs atomic.Int32
	s.Register(&Job{
		Name:     "flaky",
		Interval: 10 * time.Millisecond,
		Handler: func(ctx context.Context) error {
			runs.Add(1)
			return errors.New("transient")
		},
	})

	s.Start(context.Background())
	time.Sleep(35 * time.Millisecond)
	s.Stop(time.Second)

	assert.GreaterOrEqual(t, runs.Load(), int32(2))

	statuses := s.Jobs()
	require.Error(t, statuses[0].LastErr)
}

func TestScheduler_PanicIsContained(t *testing.T) {
	s := newTestScheduler(t)

	var runs atomic.Int32
	s.Register(&Job{
		Name:     "panicky",
		Interval: 10 * time.Millisecond,
		Handler: func(ctx context.Context) error {
			runs.Add(1)
			panic("boom")
		},
	})

	s.Start(context.Background())
	time.Sleep(35 * time.Millisecond)
	s.Stop(time.Second)

	// the loop survived the panic and kept ticking
	assert.GreaterOrEqual(t, runs.Load(), int32(2))
}

func TestScheduler_IndependentJobs(t *testing.T) {
	s := newTestScheduler(t)

	var fast, slow atomic.Int32
	s.Register(&Job{
		Name:     "fast",
		Interval: 10 * time.Millisecond,
		Handler: func(ctx context.Context) error {
			fast.Add(1)
			return nil
		},
	})
	s.Register(&Job{
		Name:     "slow",
		Interval: 40 * time.Millisecond,
		Handler: func(ctx context.Context) error {
			slow.Add(1)
			return nil
		},
	})

	s.Start(context.Background())
	time.Sleep(55 * time.Millisecond)
	s.Stop(time.Second)

	assert.Greater(t, fast.Load(), slow.Load())
}

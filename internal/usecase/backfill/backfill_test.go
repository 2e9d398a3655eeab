package backfill

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	candledomain "github.com/ratewatch/price-history/internal/domain/candle"
	"github.com/ratewatch/price-history/internal/domain/pricesource"
	pricesource_mock "github.com/ratewatch/price-history/internal/domain/pricesource/mock"
	candlerepo "github.com/ratewatch/price-history/internal/infrastructure/postgres/candle"
	candlerepo_mock "github.com/ratewatch/price-history/internal/infrastructure/postgres/candle/mock"
	"github.com/ratewatch/price-history/internal/usecase/coverage"
	"github.com/ratewatch/price-history/internal/usecase/reconcile"
	logger_mock "github.com/ratewatch/price-history/pkg/logger/mock"
	"github.com/ratewatch/price-history/pkg/timeframe"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func usdJob() Job {
	return Job{
		ItemCode:  "USD",
		ItemType:  candledomain.ItemTypeCurrency,
		Timeframe: timeframe.Timeframe1h,
	}
}

func completeCandle(start time.Time) *candledomain.Candle {
	price := decimal.RequireFromString("100")
	return &candledomain.Candle{
		ItemCode:    "USD",
		ItemType:    candledomain.ItemTypeCurrency,
		Timeframe:   timeframe.Timeframe1h,
		PeriodStart: start,
		Open:        price,
		High:        price,
		Low:         price,
		Close:       price,
		Source:      candledomain.SourceAPI,
		IsComplete:  true,
	}
}

func apiRecord(start time.Time) pricesource.ExternalOHLCRecord {
	return pricesource.ExternalOHLCRecord{
		PeriodStart: start,
		Open:        decimal.RequireFromString("101"),
		High:        decimal.RequireFromString("106"),
		Low:         decimal.RequireFromString("99"),
		Close:       decimal.RequireFromString("104"),
	}
}

func newTestOrchestrator(t *testing.T, jobs []Job, lookback time.Duration) (*Orchestrator, *candlerepo_mock.MockCandleRepository, *pricesource_mock.MockSource) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	log := logger_mock.NewMockInterface(ctrl)
	log.EXPECT().ErrorContext(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()

	repo := candlerepo_mock.NewMockCandleRepository(ctrl)
	source := pricesource_mock.NewMockSource(ctrl)

	o := NewOrchestrator(
		coverage.NewAnalyzer(repo, time.UTC),
		reconcile.NewEngine(repo, time.UTC, log),
		source,
		jobs,
		lookback,
		time.UTC,
		log,
	)
	o.now = func() time.Time { return testNow }

	return o, repo, source
}

func TestRunOnce_FillsGapAndConverges(t *testing.T) {
	o, repo, source := newTestOrchestrator(t, []Job{usdJob()}, 4*time.Hour)

	rangeStart := testNow.Add(-4 * time.Hour)

	// hours 8 and 9 are covered, hours 10 and 11 are the gap
	repo.EXPECT().GetRange(gomock.Any(), "USD", candledomain.ItemTypeCurrency, timeframe.Timeframe1h, rangeStart, testNow).
		Return([]*candledomain.Candle{
			completeCandle(rangeStart),
			completeCandle(rangeStart.Add(time.Hour)),
		}, nil)

	gapStart := rangeStart.Add(2 * time.Hour)
	source.EXPECT().HistoricalOHLC(gomock.Any(), pricesource.HistoricalQuery{
		ItemCode:   "USD",
		ItemType:   candledomain.ItemTypeCurrency,
		Timeframe:  timeframe.Timeframe1h,
		RangeStart: gapStart,
		RangeEnd:   testNow,
	}).Return([]pricesource.ExternalOHLCRecord{
		apiRecord(gapStart),
		apiRecord(gapStart.Add(time.Hour)),
	}, nil)

	filled := make(map[time.Time]bool)
	repo.EXPECT().UpsertWithMerge(gomock.Any(), gomock.Any(), gomock.Any()).Times(2).
		DoAndReturn(func(_ context.Context, key candledomain.Key, mergeFn candlerepo.MergeFunc) (*candledomain.Candle, error) {
			merged, err := mergeFn(nil)
			require.NoError(t, err)
			filled[key.PeriodStart] = true
			return &merged, nil
		})

	o.RunOnce(context.Background())

	assert.True(t, filled[gapStart])
	assert.True(t, filled[gapStart.Add(time.Hour)])

	status := o.Status()
	require.Len(t, status, 1)
	assert.Equal(t, StateIdle, status[0].State)
	assert.Equal(t, 1, status[0].GapsFound)
	assert.Equal(t, 1, status[0].GapsFilled)
	assert.Equal(t, 2, status[0].RecordsPulled)
	assert.Empty(t, status[0].LastError)

	// with the gap repaired the next scan finds nothing to do
	repo.EXPECT().GetRange(gomock.Any(), "USD", candledomain.ItemTypeCurrency, timeframe.Timeframe1h, rangeStart, testNow).
		Return([]*candledomain.Candle{
			completeCandle(rangeStart),
			completeCandle(rangeStart.Add(time.Hour)),
			completeCandle(gapStart),
			completeCandle(gapStart.Add(time.Hour)),
		}, nil)

	o.RunOnce(context.Background())

	status = o.Status()
	assert.Equal(t, StateIdle, status[0].State)
	assert.Equal(t, 0, status[0].GapsFound)
}

func TestRunOnce_NoGapsShortCircuits(t *testing.T) {
	o, repo, _ := newTestOrchestrator(t, []Job{usdJob()}, 2*time.Hour)

	rangeStart := testNow.Add(-2 * time.Hour)
	repo.EXPECT().GetRange(gomock.Any(), "USD", candledomain.ItemTypeCurrency, timeframe.Timeframe1h, rangeStart, testNow).
		Return([]*candledomain.Candle{
			completeCandle(rangeStart),
			completeCandle(rangeStart.Add(time.Hour)),
		}, nil)

	// no source expectations: nothing is fetched
	o.RunOnce(context.Background())

	status := o.Status()
	assert.Equal(t, StateIdle, status[0].State)
}

func TestRunOnce_FailingJobDoesNotBlockOthers(t *testing.T) {
	btcJob := Job{
		ItemCode:  "BTC",
		ItemType:  candledomain.ItemTypeCrypto,
		Timeframe: timeframe.Timeframe1h,
	}

	o, repo, source := newTestOrchestrator(t, []Job{usdJob(), btcJob}, 2*time.Hour)

	rangeStart := testNow.Add(-2 * time.Hour)

	// first job: gap found but the upstream pull fails
	repo.EXPECT().GetRange(gomock.Any(), "USD", candledomain.ItemTypeCurrency, timeframe.Timeframe1h, rangeStart, testNow).
		Return(nil, nil)
	source.EXPECT().HistoricalOHLC(gomock.Any(), gomock.Any()).
		Return(nil, errors.New("upstream down"))

	// second job still runs
	repo.EXPECT().GetRange(gomock.Any(), "BTC", candledomain.ItemTypeCrypto, timeframe.Timeframe1h, rangeStart, testNow).
		Return([]*candledomain.Candle{}, nil)
	btcRecords := source.EXPECT().HistoricalOHLC(gomock.Any(), pricesource.HistoricalQuery{
		ItemCode:   "BTC",
		ItemType:   candledomain.ItemTypeCrypto,
		Timeframe:  timeframe.Timeframe1h,
		RangeStart: rangeStart,
		RangeEnd:   testNow,
	})
	btcRecords.Return([]pricesource.ExternalOHLCRecord{apiRecord(rangeStart)}, nil)
	repo.EXPECT().UpsertWithMerge(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ candledomain.Key, mergeFn candlerepo.MergeFunc) (*candledomain.Candle, error) {
			merged, err := mergeFn(nil)
			require.NoError(t, err)
			return &merged, nil
		})

	o.RunOnce(context.Background())

	status := o.Status()
	require.Len(t, status, 2)
	assert.Equal(t, StateFailed, status[0].State)
	assert.Contains(t, status[0].LastError, "upstream down")
	assert.Equal(t, StateIdle, status[1].State)
	assert.Empty(t, status[1].LastError)
}

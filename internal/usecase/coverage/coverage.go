package coverage

import (
	"context"
	"time"

	candledomain "github.com/ratewatch/price-history/internal/domain/candle"
	candlerepo "github.com/ratewatch/price-history/internal/infrastructure/postgres/candle"
	pkgerrors "github.com/ratewatch/price-history/pkg/errors"
	"github.com/ratewatch/price-history/pkg/timeframe"
)

// Interval is a maximal contiguous run of missing periods, [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Periods returns how many periods of tf the interval spans.
func (i Interval) Periods(tf timeframe.Timeframe) int {
	return int(i.End.Sub(i.Start) / tf.Duration)
}

// CoverageReport describes how much of a window is backed by trustworthy
// candles. A period counts as covered when its candle exists, is complete
// and carries no missing-data flag.
type CoverageReport struct {
	ItemCode        string
	ItemType        candledomain.ItemType
	Timeframe       timeframe.Timeframe
	RangeStart      time.Time
	RangeEnd        time.Time
	ExpectedPeriods int
	ActualPeriods   int
	Coverage        float64
	MissingPeriods  []Interval
}

// QualityReport summarizes candle quality counters over a window.
type QualityReport struct {
	ItemCode          string
	ItemType          candledomain.ItemType
	Timeframe         timeframe.Timeframe
	TotalCandles      int
	CompleteCandles   int
	MissingDataFlags  int
	InterpolatedCount int
	BySource          map[candledomain.Source]int
	Coverage          float64
}

// Analyzer computes coverage and quality over the persisted candle store.
// It only reads, repeated calls against an unchanged store return the same
// report.
type Analyzer struct {
	repository candlerepo.CandleRepository
	loc        *time.Location
}

// NewAnalyzer creates an analyzer bucketing daily periods in loc.
func NewAnalyzer(repository candlerepo.CandleRepository, loc *time.Location) *Analyzer {
	return &Analyzer{
		repository: repository,
		loc:        loc,
	}
}

// Analyze compares the expected period grid of [rangeStart, rangeEnd)
// against the persisted candles and reports the gaps.
func (a *Analyzer) Analyze(ctx context.Context, itemCode string, itemType candledomain.ItemType, tf timeframe.Timeframe, rangeStart, rangeEnd time.Time) (*CoverageReport, error) {
	report := &CoverageReport{
		ItemCode:   itemCode,
		ItemType:   itemType,
		Timeframe:  tf,
		RangeStart: rangeStart,
		RangeEnd:   rangeEnd,
	}

	expected := tf.PeriodStartsBetween(rangeStart, rangeEnd, a.loc)
	report.ExpectedPeriods = len(expected)
	if len(expected) == 0 {
		return report, nil
	}

	candles, err := a.repository.GetRange(ctx, itemCode, itemType, tf, rangeStart, rangeEnd)
	if err != nil {
		return nil, pkgerrors.TracerFromError(err)
	}

	covered := make(map[int64]bool, len(candles))
	for _, c := range candles {
		if c.IsComplete && !c.HasMissingData {
			covered[c.PeriodStart.Unix()] = true
		}
	}

	var missing []Interval
	for _, start := range expected {
		if covered[start.Unix()] {
			report.ActualPeriods++
			continue
		}

		end := tf.BucketEnd(start)
		if n := len(missing); n > 0 && missing[n-1].End.Equal(start) {
			missing[n-1].End = end
			continue
		}
		missing = append(missing, Interval{Start: start, End: end})
	}

	report.Coverage = float64(report.ActualPeriods) / float64(report.ExpectedPeriods)
	report.MissingPeriods = missing
	return report, nil
}

// Quality tallies per-source and per-flag counters over a window, alongside
// the coverage ratio of the same window.
func (a *Analyzer) Quality(ctx context.Context, itemCode string, itemType candledomain.ItemType, tf timeframe.Timeframe, rangeStart, rangeEnd time.Time) (*QualityReport, error) {
	coverageReport, err := a.Analyze(ctx, itemCode, itemType, tf, rangeStart, rangeEnd)
	if err != nil {
		return nil, err
	}

	candles, err := a.repository.GetRange(ctx, itemCode, itemType, tf, rangeStart, rangeEnd)
	if err != nil {
		return nil, pkgerrors.TracerFromError(err)
	}

	report := &QualityReport{
		ItemCode:  itemCode,
		ItemType:  itemType,
		Timeframe: tf,
		BySource:  make(map[candledomain.Source]int),
		Coverage:  coverageReport.Coverage,
	}

	for _, c := range candles {
		report.TotalCandles++
		if c.IsComplete {
			report.CompleteCandles++
		}
		if c.HasMissingData {
			report.MissingDataFlags++
		}
		if c.Source == candledomain.SourceInterpolated {
			report.InterpolatedCount++
		}
		report.BySource[c.Source]++
	}

	return report, nil
}

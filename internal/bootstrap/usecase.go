package bootstrap

import (
	candledomain "github.com/ratewatch/price-history/internal/domain/candle"
	"github.com/ratewatch/price-history/internal/usecase/backfill"
	"github.com/ratewatch/price-history/internal/usecase/collector"
	"github.com/ratewatch/price-history/internal/usecase/coverage"
	"github.com/ratewatch/price-history/internal/usecase/reconcile"
	"github.com/ratewatch/price-history/pkg/config"
	"github.com/ratewatch/price-history/pkg/timeframe"
)

// Usecase holds the domain usecases.
type Usecase struct {
	Collector *collector.Usecase
	Coverage  *coverage.Analyzer
	Reconcile *reconcile.Engine
	Backfill  *backfill.Orchestrator
}

// registerUsecase registers the usecases. Must run after the repositories
// and infrastructure are registered.
func (b *Bootstrap) registerUsecase() error {
	market := b.Config.Market
	loc := timeframe.ReportingZone(market.ReportingOffset)

	collectorUsecase, err := collector.NewUsecase(
		b.Infrastructure.Source,
		b.Repository.CandleRepository,
		b.Infrastructure.QuoteCache,
		market,
		b.Logger,
	)
	if err != nil {
		return err
	}

	jobs, err := backfillJobs(market)
	if err != nil {
		return err
	}

	b.Usecase.Collector = collectorUsecase
	b.Usecase.Coverage = coverage.NewAnalyzer(b.Repository.CandleRepository, loc)
	b.Usecase.Reconcile = reconcile.NewEngine(b.Repository.CandleRepository, loc, b.Logger)
	b.Usecase.Backfill = backfill.NewOrchestrator(
		b.Usecase.Coverage,
		b.Usecase.Reconcile,
		b.Infrastructure.Source,
		jobs,
		market.BackfillLookback,
		loc,
		b.Logger,
	)

	return nil
}

// backfillJobs builds one job per tracked item and enabled timeframe.
func backfillJobs(market config.MarketConfig) ([]backfill.Job, error) {
	items, err := market.ParseTrackedItems()
	if err != nil {
		return nil, err
	}

	var jobs []backfill.Job
	for _, item := range items {
		itemType, err := candledomain.ParseItemType(item.Type)
		if err != nil {
			return nil, err
		}
		for _, name := range market.EnabledTimeframes {
			tf, err := timeframe.GetTimeframe(name)
			if err != nil {
				return nil, err
			}
			jobs = append(jobs, backfill.Job{
				ItemCode:  item.Code,
				ItemType:  itemType,
				Timeframe: tf,
			})
		}
	}

	return jobs, nil
}

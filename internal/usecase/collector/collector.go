package collector

import (
	"context"
	"fmt"
	"time"

	candledomain "github.com/ratewatch/price-history/internal/domain/candle"
	"github.com/ratewatch/price-history/internal/domain/pricesource"
	candlerepo "github.com/ratewatch/price-history/internal/infrastructure/postgres/candle"
	"github.com/ratewatch/price-history/internal/infrastructure/quotecache"
	"github.com/ratewatch/price-history/pkg/config"
	pkgerrors "github.com/ratewatch/price-history/pkg/errors"
	"github.com/ratewatch/price-history/pkg/logger"
	"github.com/ratewatch/price-history/pkg/timeframe"
)

// Usecase ingests latest-price ticks into candles and finalizes candles
// whose period has closed.
type Usecase struct {
	source     pricesource.Source
	repository candlerepo.CandleRepository
	cache      *quotecache.Cache
	timeframes []timeframe.Timeframe
	loc        *time.Location
	lateGrace  time.Duration
	logger     logger.Interface

	now func() time.Time
}

// NewUsecase creates a collector from cfg. The enabled timeframe names must
// all be known.
func NewUsecase(
	source pricesource.Source,
	repository candlerepo.CandleRepository,
	cache *quotecache.Cache,
	cfg config.MarketConfig,
	log logger.Interface,
) (*Usecase, error) {
	timeframes := make([]timeframe.Timeframe, 0, len(cfg.EnabledTimeframes))
	for _, name := range cfg.EnabledTimeframes {
		tf, err := timeframe.GetTimeframe(name)
		if err != nil {
			return nil, err
		}
		timeframes = append(timeframes, tf)
	}

	return &Usecase{
		source:     source,
		repository: repository,
		cache:      cache,
		timeframes: timeframes,
		loc:        timeframe.ReportingZone(cfg.ReportingOffset),
		lateGrace:  cfg.LateTickGrace,
		logger:     log,
	}, nil
}

// PollOnce pulls the latest tick of every tracked item and folds each one
// into the candle of every enabled timeframe. Invalid and stale ticks are
// logged and skipped, the batch continues. Only a source failure is
// returned.
func (u *Usecase) PollOnce(ctx context.Context) error {
	ticks, err := u.source.LatestTicks(ctx)
	if err != nil {
		return pkgerrors.TracerFromError(err)
	}

	for _, tick := range ticks {
		if err := tick.Validate(); err != nil {
			details := pkgerrors.NewErrorDetailsWithObject(
				err.Error(), string(pkgerrors.TickValidationError), "tick", tick)
			u.logger.ErrorContext(ctx, pkgerrors.TracerFromError(details),
				logger.NewField("item_code", tick.ItemCode),
			)
			continue
		}

		u.applyTick(ctx, tick)

		if err := u.cache.Put(ctx, tick); err != nil {
			u.logger.ErrorContext(ctx, pkgerrors.TracerFromError(err),
				logger.NewField("item_code", tick.ItemCode),
			)
		}
	}

	return nil
}

// applyTick fans one tick out over every enabled timeframe.
func (u *Usecase) applyTick(ctx context.Context, tick candledomain.PriceTick) {
	for _, tf := range u.timeframes {
		if err := u.applyTickToTimeframe(ctx, tick, tf); err != nil {
			u.logger.ErrorContext(ctx, pkgerrors.TracerFromError(err),
				logger.NewField("item_code", tick.ItemCode),
				logger.NewField("timeframe", tf.Name),
			)
		}
	}
}

func (u *Usecase) applyTickToTimeframe(ctx context.Context, tick candledomain.PriceTick, tf timeframe.Timeframe) error {
	periodStart, periodEnd := tf.PeriodRange(tick.ObservedAt, u.loc)

	// A tick landing after its period closed is still applied as a
	// correction within the grace window. Beyond it the tick is stale and
	// rejected, even against a finalized candle.
	if age := u.clock().Sub(periodEnd); age > u.lateGrace {
		return pkgerrors.NewErrorDetailsWithObject(
			fmt.Sprintf("tick is %s past period close, grace is %s", age, u.lateGrace),
			string(pkgerrors.LateTickError),
			"observed_at",
			tick,
		)
	}

	key := candledomain.Key{
		ItemCode:    tick.ItemCode,
		ItemType:    tick.ItemType,
		Timeframe:   tf,
		PeriodStart: periodStart,
	}

	_, err := u.repository.UpsertWithMerge(ctx, key, func(existing *candledomain.Candle) (candledomain.Candle, error) {
		return candledomain.ApplyTick(existing, tick, tf, u.loc), nil
	})
	return err
}

// FinalizeDue marks candles whose period ended at or before now as
// complete, per enabled timeframe. A failing timeframe does not stop the
// sweep.
func (u *Usecase) FinalizeDue(ctx context.Context, now time.Time) error {
	var lastErr error
	for _, tf := range u.timeframes {
		affected, err := u.repository.MarkCompleteDue(ctx, tf, now)
		if err != nil {
			lastErr = pkgerrors.TracerFromError(err)
			u.logger.ErrorContext(ctx, lastErr, logger.NewField("timeframe", tf.Name))
			continue
		}
		if affected > 0 {
			u.logger.InfoContext(ctx, "finalized candles",
				logger.NewField("timeframe", tf.Name),
				logger.NewField("count", affected),
			)
		}
	}
	return lastErr
}

func (u *Usecase) clock() time.Time {
	if u.now != nil {
		return u.now()
	}
	return time.Now()
}

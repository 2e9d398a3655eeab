package candle

import (
	"time"

	"github.com/ratewatch/price-history/pkg/timeframe"
)

// ApplyTick folds a price tick into the candle for the tick's period at the
// given timeframe and returns the updated candle. It is a pure transform:
// neither argument is mutated and persistence is the caller's concern.
//
// Ordering policy: call order is chronological order. Callers must deliver
// ticks for the same period in increasing ObservedAt order; under that
// contract open is the first price seen, close the latest, and high/low are
// order independent. Ticks never mark a period complete and never lower the
// candle's trust level.
func ApplyTick(existing *Candle, tick PriceTick, tf timeframe.Timeframe, loc *time.Location) Candle {
	periodStart := tf.BucketStart(tick.ObservedAt, loc)

	if existing == nil {
		return Candle{
			ItemCode:       tick.ItemCode,
			ItemType:       tick.ItemType,
			Timeframe:      tf,
			PeriodStart:    periodStart,
			Open:           tick.Price,
			High:           tick.Price,
			Low:            tick.Price,
			Close:          tick.Price,
			Source:         SourceCalculated,
			IsComplete:     false,
			HasMissingData: false,
		}
	}

	updated := *existing
	if tick.Price.GreaterThan(updated.High) {
		updated.High = tick.Price
	}
	if tick.Price.LessThan(updated.Low) {
		updated.Low = tick.Price
	}
	updated.Close = tick.Price

	return updated
}

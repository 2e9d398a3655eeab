package reconcile

import (
	"context"
	"fmt"
	"time"

	candledomain "github.com/ratewatch/price-history/internal/domain/candle"
	"github.com/ratewatch/price-history/internal/domain/pricesource"
	candlerepo "github.com/ratewatch/price-history/internal/infrastructure/postgres/candle"
	pkgerrors "github.com/ratewatch/price-history/pkg/errors"
	"github.com/ratewatch/price-history/pkg/logger"
	"github.com/ratewatch/price-history/pkg/timeframe"
)

// Engine folds authoritative historical records into the candle store. API
// data outranks calculated data, which outranks interpolated data; a record
// that would downgrade trust is dropped.
type Engine struct {
	repository candlerepo.CandleRepository
	loc        *time.Location
	logger     logger.Interface
}

// NewEngine creates a reconciliation engine bucketing daily periods in loc.
func NewEngine(repository candlerepo.CandleRepository, loc *time.Location, log logger.Interface) *Engine {
	return &Engine{
		repository: repository,
		loc:        loc,
		logger:     log,
	}
}

// Reconcile applies incoming records for one item and timeframe. Malformed
// records are logged and skipped. It returns the candles that were written;
// records that did not supersede the stored candle produce no write and no
// result entry.
func (e *Engine) Reconcile(ctx context.Context, itemCode string, itemType candledomain.ItemType, tf timeframe.Timeframe, incoming []pricesource.ExternalOHLCRecord) ([]*candledomain.Candle, error) {
	var written []*candledomain.Candle

	for _, record := range incoming {
		if err := validateRecord(record); err != nil {
			e.logger.ErrorContext(ctx, pkgerrors.TracerFromError(err),
				logger.NewField("item_code", itemCode),
				logger.NewField("timeframe", tf.Name),
			)
			continue
		}

		key := candledomain.Key{
			ItemCode:    itemCode,
			ItemType:    itemType,
			Timeframe:   tf,
			PeriodStart: tf.BucketStart(record.PeriodStart, e.loc),
		}

		var superseded bool
		candle, err := e.repository.UpsertWithMerge(ctx, key, func(existing *candledomain.Candle) (candledomain.Candle, error) {
			merged, ok := merge(existing, record, key)
			superseded = ok
			if !ok {
				return candledomain.Candle{}, errSkipRecord
			}
			return merged, nil
		})
		if err == errSkipRecord {
			continue
		}
		if err != nil {
			return written, pkgerrors.TracerFromError(err)
		}
		if superseded {
			written = append(written, candle)
		}
	}

	return written, nil
}

// errSkipRecord aborts an upsert whose record does not supersede the stored
// candle.
var errSkipRecord = fmt.Errorf("record does not supersede stored candle")

// supersedes reports whether record may replace existing.
func supersedes(existing *candledomain.Candle, record pricesource.ExternalOHLCRecord) bool {
	switch {
	case existing == nil:
		return true
	case existing.Source != candledomain.SourceAPI:
		return true
	case !existing.IsComplete:
		return true
	case existing.HasMissingData:
		return true
	case record.Volume != nil && existing.Volume.IsZero():
		return true
	case existing.Open.IsZero() || existing.High.IsZero() || existing.Low.IsZero() || existing.Close.IsZero():
		return true
	default:
		return false
	}
}

// merge computes the reconciled candle. The merge is asymmetric: incoming
// api data wins close and source, but a better high or low already stored
// is preserved.
func merge(existing *candledomain.Candle, record pricesource.ExternalOHLCRecord, key candledomain.Key) (candledomain.Candle, bool) {
	if !supersedes(existing, record) {
		return candledomain.Candle{}, false
	}

	merged := candledomain.Candle{
		ItemCode:       key.ItemCode,
		ItemType:       key.ItemType,
		Timeframe:      key.Timeframe,
		PeriodStart:    key.PeriodStart,
		Open:           record.Open,
		High:           record.High,
		Low:            record.Low,
		Close:          record.Close,
		Source:         candledomain.SourceAPI,
		IsComplete:     true,
		HasMissingData: false,
	}
	if record.Volume != nil {
		merged.Volume = *record.Volume
	}

	if existing == nil {
		return merged, true
	}

	// An existing open predates the record's first observation of the
	// period, keep it.
	if !existing.Open.IsZero() {
		merged.Open = existing.Open
	}
	if existing.High.GreaterThan(merged.High) {
		merged.High = existing.High
	}
	if existing.Low.LessThan(merged.Low) && !existing.Low.IsZero() {
		merged.Low = existing.Low
	}
	if record.Volume == nil {
		merged.Volume = existing.Volume
	}

	return merged, true
}

// validateRecord rejects records the upstream should never send.
func validateRecord(record pricesource.ExternalOHLCRecord) error {
	if record.PeriodStart.IsZero() {
		return pkgerrors.NewErrorDetails(
			"record has a zero period start",
			string(pkgerrors.RecordValidationError),
			"period_start",
		)
	}
	if record.High.LessThan(record.Low) {
		return pkgerrors.NewErrorDetailsWithObject(
			fmt.Sprintf("record high %s is below low %s", record.High, record.Low),
			string(pkgerrors.RecordValidationError),
			"high",
			record,
		)
	}
	if !record.Open.IsPositive() || !record.Close.IsPositive() {
		return pkgerrors.NewErrorDetails(
			"record prices must be positive",
			string(pkgerrors.RecordValidationError),
			"open",
		)
	}
	return nil
}

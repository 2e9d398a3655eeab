package candle

import (
	"context"
	"time"

	candledomain "github.com/ratewatch/price-history/internal/domain/candle"
	"github.com/ratewatch/price-history/pkg/timeframe"
)

//go:generate mockgen -source=interface.go -destination=mock/repository_mock.go -package=mock

// MergeFunc computes the candle to store given the currently persisted one
// (nil when the key is absent). Returning an error aborts the upsert.
type MergeFunc func(existing *candledomain.Candle) (candledomain.Candle, error)

// CandleRepository is the keyed candle store. One record exists per
// (item code, item type, timeframe, period start).
type CandleRepository interface {
	// GetByKey returns the candle at key, or nil when absent.
	GetByKey(ctx context.Context, key candledomain.Key) (*candledomain.Candle, error)

	// GetRange returns candles with period start in [from, to), ordered
	// by period start ascending.
	GetRange(ctx context.Context, itemCode string, itemType candledomain.ItemType, tf timeframe.Timeframe, from, to time.Time) ([]*candledomain.Candle, error)

	// InsertBatch bulk-inserts candles known not to exist yet.
	InsertBatch(ctx context.Context, candles []*candledomain.Candle) error

	// MarkCompleteDue flags candles of tf whose period ended at or before
	// cutoff as complete, skipping interpolated candles. Returns the
	// number of candles finalized. Price fields are never touched.
	MarkCompleteDue(ctx context.Context, tf timeframe.Timeframe, cutoff time.Time) (int64, error)

	// UpsertWithMerge atomically applies merge to the candle at key using
	// an optimistic read-merge-write loop with bounded retries. It is the
	// per-key serialization primitive shared by tick ingestion and
	// reconciliation.
	UpsertWithMerge(ctx context.Context, key candledomain.Key, merge MergeFunc) (*candledomain.Candle, error)
}

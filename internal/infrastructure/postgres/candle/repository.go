package candle

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	candledomain "github.com/ratewatch/price-history/internal/domain/candle"
	pkgerrors "github.com/ratewatch/price-history/pkg/errors"
	"github.com/ratewatch/price-history/pkg/postgres"
	"github.com/ratewatch/price-history/pkg/timeframe"
)

// maxUpsertAttempts bounds the optimistic read-merge-write retry loop.
const maxUpsertAttempts = 3

const selectColumns = `item_code, item_type, timeframe, period_start, open::text, high::text, low::text, close::text, volume::text, source, is_complete, has_missing_data, version`

const getByKeyQuery = `SELECT ` + selectColumns + `
		  FROM candles
		  WHERE item_code = $1 AND item_type = $2 AND timeframe = $3 AND period_start = $4`

const getRangeQuery = `SELECT ` + selectColumns + `
		  FROM candles
		  WHERE item_code = $1 AND item_type = $2 AND timeframe = $3 AND period_start >= $4 AND period_start < $5
		  ORDER BY period_start ASC`

const insertQuery = `INSERT INTO candles (item_code, item_type, timeframe, period_start, open, high, low, close, volume, source, is_complete, has_missing_data, version)
		  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 1)
		  ON CONFLICT (item_code, item_type, timeframe, period_start) DO NOTHING`

const updateVersionedQuery = `UPDATE candles
		  SET open = $5, high = $6, low = $7, close = $8, volume = $9, source = $10, is_complete = $11, has_missing_data = $12, version = version + 1
		  WHERE item_code = $1 AND item_type = $2 AND timeframe = $3 AND period_start = $4 AND version = $13`

const markCompleteQuery = `UPDATE candles
		  SET is_complete = TRUE, version = version + 1
		  WHERE timeframe = $1 AND period_start <= $2 AND is_complete = FALSE AND source <> 'interpolated'`

// Repository is the PostgreSQL-backed candle store.
type Repository struct {
	client postgres.StoreClient
}

// NewRepository creates a new candle repository.
func NewRepository(client postgres.StoreClient) *Repository {
	return &Repository{
		client: client,
	}
}

// GetByKey returns the candle at key, or nil when absent.
func (r *Repository) GetByKey(ctx context.Context, key candledomain.Key) (*candledomain.Candle, error) {
	var rec row
	err := r.client.QueryRow(ctx, getByKeyQuery,
		key.ItemCode, string(key.ItemType), key.Timeframe.Name, key.PeriodStart).Scan(
		&rec.ItemCode, &rec.ItemType, &rec.Timeframe, &rec.PeriodStart, &rec.Open,
		&rec.High, &rec.Low, &rec.Close, &rec.Volume, &rec.Source,
		&rec.IsComplete, &rec.HasMissingData, &rec.Version)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get candle: %w", err)
	}

	return rec.toDomain()
}

// GetRange returns candles with period start in [from, to), ascending.
func (r *Repository) GetRange(ctx context.Context, itemCode string, itemType candledomain.ItemType, tf timeframe.Timeframe, from, to time.Time) ([]*candledomain.Candle, error) {
	rows, err := r.client.Query(ctx, getRangeQuery, itemCode, string(itemType), tf.Name, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query candle range: %w", err)
	}
	defer rows.Close()

	var candles []*candledomain.Candle
	for rows.Next() {
		var rec row
		err := rows.Scan(&rec.ItemCode, &rec.ItemType, &rec.Timeframe, &rec.PeriodStart, &rec.Open,
			&rec.High, &rec.Low, &rec.Close, &rec.Volume, &rec.Source,
			&rec.IsComplete, &rec.HasMissingData, &rec.Version)
		if err != nil {
			return nil, fmt.Errorf("failed to scan candle: %w", err)
		}

		c, err := rec.toDomain()
		if err != nil {
			return nil, err
		}
		candles = append(candles, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return candles, nil
}

// InsertBatch bulk-inserts candles known not to exist yet.
func (r *Repository) InsertBatch(ctx context.Context, candles []*candledomain.Candle) error {
	if len(candles) == 0 {
		return nil
	}

	_, err := r.client.CopyFrom(
		ctx,
		pgx.Identifier{"candles"},
		[]string{"item_code", "item_type", "timeframe", "period_start", "open", "high", "low", "close", "volume", "source", "is_complete", "has_missing_data", "version"},
		pgx.CopyFromSlice(len(candles), func(i int) ([]any, error) {
			c := candles[i]
			return []any{
				c.ItemCode,
				string(c.ItemType),
				c.Timeframe.Name,
				c.PeriodStart,
				c.Open.String(),
				c.High.String(),
				c.Low.String(),
				c.Close.String(),
				c.Volume.String(),
				string(c.Source),
				c.IsComplete,
				c.HasMissingData,
				int64(1),
			}, nil
		}),
	)

	if err != nil {
		return fmt.Errorf("failed to copy candle batch: %w", err)
	}

	return nil
}

// MarkCompleteDue flags candles of tf whose period ended at or before cutoff
// as complete. Interpolated candles are left untouched so they keep
// signalling the gap until reconciliation replaces them.
func (r *Repository) MarkCompleteDue(ctx context.Context, tf timeframe.Timeframe, cutoff time.Time) (int64, error) {
	// period end is derived, so the predicate compares period starts:
	// period_start + duration <= cutoff.
	latestStart := cutoff.Add(-tf.Duration)

	affected, err := r.client.Exec(ctx, markCompleteQuery, tf.Name, latestStart)
	if err != nil {
		return 0, fmt.Errorf("failed to finalize candles: %w", err)
	}

	return affected, nil
}

// UpsertWithMerge atomically applies merge to the candle at key. The loop
// reads the current row and its version, lets merge compute the result, and
// writes conditionally: a versioned UPDATE for existing rows, an INSERT ...
// ON CONFLICT DO NOTHING for first writes. A concurrent writer makes the
// conditional write affect zero rows, which triggers a re-read. After
// maxUpsertAttempts lost races the write is reported as a conflict.
func (r *Repository) UpsertWithMerge(ctx context.Context, key candledomain.Key, merge MergeFunc) (*candledomain.Candle, error) {
	for attempt := 0; attempt < maxUpsertAttempts; attempt++ {
		existing, err := r.GetByKey(ctx, key)
		if err != nil {
			return nil, err
		}

		merged, err := merge(existing)
		if err != nil {
			return nil, err
		}

		if existing == nil {
			affected, err := r.client.Exec(ctx, insertQuery,
				merged.ItemCode, string(merged.ItemType), merged.Timeframe.Name, merged.PeriodStart,
				merged.Open.String(), merged.High.String(), merged.Low.String(), merged.Close.String(),
				merged.Volume.String(), string(merged.Source), merged.IsComplete, merged.HasMissingData)
			if err != nil {
				return nil, fmt.Errorf("failed to insert candle: %w", err)
			}
			if affected == 1 {
				merged.Version = 1
				return &merged, nil
			}
			// Another writer created the row first; re-read and merge again.
			continue
		}

		affected, err := r.client.Exec(ctx, updateVersionedQuery,
			key.ItemCode, string(key.ItemType), key.Timeframe.Name, key.PeriodStart,
			merged.Open.String(), merged.High.String(), merged.Low.String(), merged.Close.String(),
			merged.Volume.String(), string(merged.Source), merged.IsComplete, merged.HasMissingData,
			existing.Version)
		if err != nil {
			return nil, fmt.Errorf("failed to update candle: %w", err)
		}
		if affected == 1 {
			merged.Version = existing.Version + 1
			return &merged, nil
		}
	}

	return nil, pkgerrors.NewErrorDetailsWithObject(
		fmt.Sprintf("candle upsert lost %d optimistic races", maxUpsertAttempts),
		string(pkgerrors.WriteConflictError),
		"version",
		key,
	)
}

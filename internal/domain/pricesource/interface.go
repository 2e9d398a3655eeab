package pricesource

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ratewatch/price-history/internal/domain/candle"
	"github.com/ratewatch/price-history/pkg/timeframe"
)

//go:generate mockgen -source=interface.go -destination=mock/source_mock.go -package=mock

// ExternalOHLCRecord is one period of historical data returned by the
// upstream pricing API. Volume is nil when the upstream omits it.
type ExternalOHLCRecord struct {
	PeriodStart time.Time
	Open        decimal.Decimal
	High        decimal.Decimal
	Low         decimal.Decimal
	Close       decimal.Decimal
	Volume      *decimal.Decimal
}

// HistoricalQuery describes one historical OHLC pull.
type HistoricalQuery struct {
	ItemCode   string
	ItemType   candle.ItemType
	Timeframe  timeframe.Timeframe
	RangeStart time.Time
	RangeEnd   time.Time
}

// Source is the upstream pricing API: a latest-tick pull polled on a fixed
// interval and a historical OHLC pull used by backfill.
type Source interface {
	LatestTicks(ctx context.Context) ([]candle.PriceTick, error)
	HistoricalOHLC(ctx context.Context, query HistoricalQuery) ([]ExternalOHLCRecord, error)
}

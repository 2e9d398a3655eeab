package candle

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	candledomain "github.com/ratewatch/price-history/internal/domain/candle"
	"github.com/ratewatch/price-history/pkg/timeframe"
)

// row mirrors one candles table record. Prices are transported as text so
// NUMERIC columns round-trip through shopspring decimals without loss.
type row struct {
	ItemCode       string
	ItemType       string
	Timeframe      string
	PeriodStart    time.Time
	Open           string
	High           string
	Low            string
	Close          string
	Volume         string
	Source         string
	IsComplete     bool
	HasMissingData bool
	Version        int64
}

func (r *row) toDomain() (*candledomain.Candle, error) {
	itemType, err := candledomain.ParseItemType(r.ItemType)
	if err != nil {
		return nil, err
	}

	tf, err := timeframe.GetTimeframe(r.Timeframe)
	if err != nil {
		return nil, err
	}

	open, err := decimal.NewFromString(r.Open)
	if err != nil {
		return nil, fmt.Errorf("invalid open %q: %w", r.Open, err)
	}
	high, err := decimal.NewFromString(r.High)
	if err != nil {
		return nil, fmt.Errorf("invalid high %q: %w", r.High, err)
	}
	low, err := decimal.NewFromString(r.Low)
	if err != nil {
		return nil, fmt.Errorf("invalid low %q: %w", r.Low, err)
	}
	closePrice, err := decimal.NewFromString(r.Close)
	if err != nil {
		return nil, fmt.Errorf("invalid close %q: %w", r.Close, err)
	}
	volume, err := decimal.NewFromString(r.Volume)
	if err != nil {
		return nil, fmt.Errorf("invalid volume %q: %w", r.Volume, err)
	}

	return &candledomain.Candle{
		ItemCode:       r.ItemCode,
		ItemType:       itemType,
		Timeframe:      tf,
		PeriodStart:    r.PeriodStart,
		Open:           open,
		High:           high,
		Low:            low,
		Close:          closePrice,
		Volume:         volume,
		Source:         candledomain.Source(r.Source),
		IsComplete:     r.IsComplete,
		HasMissingData: r.HasMissingData,
		Version:        r.Version,
	}, nil
}

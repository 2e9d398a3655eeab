package candle

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ratewatch/price-history/pkg/timeframe"
)

// ItemType classifies a tracked item.
type ItemType string

const (
	// ItemTypeCurrency is a fiat currency rate.
	ItemTypeCurrency ItemType = "currency"
	// ItemTypeCrypto is a cryptocurrency rate.
	ItemTypeCrypto ItemType = "crypto"
	// ItemTypeGold is a gold quote.
	ItemTypeGold ItemType = "gold"
)

// ParseItemType validates an item type name.
func ParseItemType(name string) (ItemType, error) {
	switch ItemType(name) {
	case ItemTypeCurrency, ItemTypeCrypto, ItemTypeGold:
		return ItemType(name), nil
	default:
		return "", fmt.Errorf("unknown item type: %s", name)
	}
}

// Source describes where a candle's data came from. Trust descends from
// api through calculated down to interpolated.
type Source string

const (
	// SourceAPI marks data confirmed by the upstream pricing API.
	SourceAPI Source = "api"
	// SourceCalculated marks data derived locally from price ticks.
	SourceCalculated Source = "calculated"
	// SourceInterpolated marks synthetic data filled over a gap.
	SourceInterpolated Source = "interpolated"
)

// TrustRank orders sources by trust, higher is more trusted.
func (s Source) TrustRank() int {
	switch s {
	case SourceAPI:
		return 2
	case SourceCalculated:
		return 1
	case SourceInterpolated:
		return 0
	default:
		return -1
	}
}

// Key is the identity of a candle: one candle exists per key.
type Key struct {
	ItemCode    string
	ItemType    ItemType
	Timeframe   timeframe.Timeframe
	PeriodStart time.Time
}

// Candle is one OHLC record for one item, timeframe and period.
type Candle struct {
	ItemCode    string
	ItemType    ItemType
	Timeframe   timeframe.Timeframe
	PeriodStart time.Time

	Open  decimal.Decimal
	High  decimal.Decimal
	Low   decimal.Decimal
	Close decimal.Decimal

	Volume decimal.Decimal

	Source         Source
	IsComplete     bool
	HasMissingData bool

	// Version is the optimistic concurrency token maintained by the store.
	// Zero means the candle has not been persisted yet.
	Version int64
}

// Key returns the candle's identity.
func (c *Candle) Key() Key {
	return Key{
		ItemCode:    c.ItemCode,
		ItemType:    c.ItemType,
		Timeframe:   c.Timeframe,
		PeriodStart: c.PeriodStart,
	}
}

// PeriodEnd derives the exclusive end of the candle's period. It is never
// stored independently, so it cannot drift from the period start.
func (c *Candle) PeriodEnd() time.Time {
	return c.Timeframe.BucketEnd(c.PeriodStart)
}

// Validate checks the candle's structural invariants.
func (c *Candle) Validate() error {
	if _, err := ParseItemType(string(c.ItemType)); err != nil {
		return err
	}
	if c.ItemCode == "" {
		return fmt.Errorf("item code cannot be empty")
	}
	if !timeframe.IsValidTimeframe(c.Timeframe.Name) {
		return fmt.Errorf("unsupported timeframe: %s", c.Timeframe.Name)
	}
	if c.PeriodStart.IsZero() {
		return fmt.Errorf("period start cannot be zero")
	}
	if c.Low.GreaterThan(c.High) {
		return fmt.Errorf("low %s exceeds high %s", c.Low, c.High)
	}
	if c.Open.LessThan(c.Low) || c.Open.GreaterThan(c.High) {
		return fmt.Errorf("open %s outside [%s, %s]", c.Open, c.Low, c.High)
	}
	if c.Close.LessThan(c.Low) || c.Close.GreaterThan(c.High) {
		return fmt.Errorf("close %s outside [%s, %s]", c.Close, c.Low, c.High)
	}
	if c.Volume.IsNegative() {
		return fmt.Errorf("volume cannot be negative")
	}
	if c.Source.TrustRank() < 0 {
		return fmt.Errorf("unknown source: %s", c.Source)
	}
	if c.Source == SourceInterpolated && !c.HasMissingData {
		return fmt.Errorf("interpolated candle must carry the missing-data flag")
	}
	return nil
}

// List is a list of candles.
type List []*Candle

// PriceTick is a single observed price at a point in time. Ticks are
// transient inputs: they are folded into candles, never persisted.
type PriceTick struct {
	ItemCode   string
	ItemType   ItemType
	Price      decimal.Decimal
	ObservedAt time.Time
	Source     string
}

// Validate checks that the tick can be folded into a candle.
func (t *PriceTick) Validate() error {
	if t.ItemCode == "" {
		return fmt.Errorf("tick item code cannot be empty")
	}
	if _, err := ParseItemType(string(t.ItemType)); err != nil {
		return err
	}
	if !t.Price.IsPositive() {
		return fmt.Errorf("tick price must be greater than zero, got %s", t.Price)
	}
	if t.ObservedAt.IsZero() {
		return fmt.Errorf("tick observation time cannot be zero")
	}
	return nil
}

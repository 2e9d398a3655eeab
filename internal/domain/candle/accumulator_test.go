package candle

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ratewatch/price-history/pkg/timeframe"
)

func tick(code string, price float64, at time.Time) PriceTick {
	return PriceTick{
		ItemCode:   code,
		ItemType:   ItemTypeCurrency,
		Price:      decimal.NewFromFloat(price),
		ObservedAt: at,
		Source:     "test",
	}
}

func TestApplyTick_CreatesCandleFromFirstTick(t *testing.T) {
	at := time.Date(2025, 3, 10, 10, 0, 5, 0, time.UTC)

	got := ApplyTick(nil, tick("USD", 100, at), timeframe.Timeframe5m, time.UTC)

	assert.Equal(t, "USD", got.ItemCode)
	assert.Equal(t, ItemTypeCurrency, got.ItemType)
	assert.True(t, time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC).Equal(got.PeriodStart))
	assert.True(t, got.Open.Equal(decimal.NewFromInt(100)))
	assert.True(t, got.High.Equal(decimal.NewFromInt(100)))
	assert.True(t, got.Low.Equal(decimal.NewFromInt(100)))
	assert.True(t, got.Close.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, SourceCalculated, got.Source)
	assert.False(t, got.IsComplete)
	assert.False(t, got.HasMissingData)
}

func TestApplyTick_FoldsSubsequentTicks(t *testing.T) {
	// Tick stream from the charting scenario: 100 at 10:00:05, 105 at
	// 10:00:40, 98 at 10:04:50 against the [10:00, 10:05) period.
	base := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

	var existing *Candle
	for _, tc := range []struct {
		price  float64
		offset time.Duration
	}{
		{100, 5 * time.Second},
		{105, 40 * time.Second},
		{98, 4*time.Minute + 50*time.Second},
	} {
		updated := ApplyTick(existing, tick("USD", tc.price, base.Add(tc.offset)), timeframe.Timeframe5m, time.UTC)
		existing = &updated
	}

	assert.True(t, existing.Open.Equal(decimal.NewFromInt(100)))
	assert.True(t, existing.High.Equal(decimal.NewFromInt(105)))
	assert.True(t, existing.Low.Equal(decimal.NewFromInt(98)))
	assert.True(t, existing.Close.Equal(decimal.NewFromInt(98)))
}

func TestApplyTick_BoundsInvariantHoldsAfterEveryApplication(t *testing.T) {
	base := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	prices := []float64{50, 49.5, 51.2, 48.7, 52.9, 52.9, 47.1, 50.0}

	var existing *Candle
	for i, p := range prices {
		updated := ApplyTick(existing, tick("EUR", p, base.Add(time.Duration(i)*time.Second)), timeframe.Timeframe1m, time.UTC)
		existing = &updated

		assert.True(t, existing.Low.LessThanOrEqual(existing.Open))
		assert.True(t, existing.Low.LessThanOrEqual(existing.Close))
		assert.True(t, existing.Open.LessThanOrEqual(existing.High))
		assert.True(t, existing.Close.LessThanOrEqual(existing.High))
		assert.True(t, existing.Low.LessThanOrEqual(existing.High))
		require.NoError(t, existing.Validate())
	}
}

func TestApplyTick_DoesNotTouchCompletionOrSource(t *testing.T) {
	base := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

	existing := Candle{
		ItemCode:    "USD",
		ItemType:    ItemTypeCurrency,
		Timeframe:   timeframe.Timeframe1m,
		PeriodStart: base,
		Open:        decimal.NewFromInt(10),
		High:        decimal.NewFromInt(12),
		Low:         decimal.NewFromInt(9),
		Close:       decimal.NewFromInt(11),
		Source:      SourceAPI,
		IsComplete:  true,
	}

	updated := ApplyTick(&existing, tick("USD", 13, base.Add(30*time.Second)), timeframe.Timeframe1m, time.UTC)

	assert.Equal(t, SourceAPI, updated.Source)
	assert.True(t, updated.IsComplete)
	assert.True(t, updated.High.Equal(decimal.NewFromInt(13)))
	assert.True(t, updated.Close.Equal(decimal.NewFromInt(13)))
	assert.True(t, updated.Open.Equal(decimal.NewFromInt(10)))

	// The input candle is untouched.
	assert.True(t, existing.High.Equal(decimal.NewFromInt(12)))
}

func TestApplyTick_FansOutAcrossTimeframes(t *testing.T) {
	at := time.Date(2025, 3, 10, 10, 47, 23, 0, time.UTC)
	tk := tick("BTC", 65000, at)

	starts := make(map[string]time.Time)
	for _, tf := range timeframe.AllTimeframes {
		c := ApplyTick(nil, tk, tf, time.UTC)
		starts[tf.Name] = c.PeriodStart
	}

	assert.True(t, starts["1m"].Equal(time.Date(2025, 3, 10, 10, 47, 0, 0, time.UTC)))
	assert.True(t, starts["5m"].Equal(time.Date(2025, 3, 10, 10, 45, 0, 0, time.UTC)))
	assert.True(t, starts["15m"].Equal(time.Date(2025, 3, 10, 10, 45, 0, 0, time.UTC)))
	assert.True(t, starts["1h"].Equal(time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)))
	assert.True(t, starts["1d"].Equal(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)))
}

package quotecache

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	candledomain "github.com/ratewatch/price-history/internal/domain/candle"
	pkgerrors "github.com/ratewatch/price-history/pkg/errors"
	"github.com/ratewatch/price-history/pkg/redis/mock"
)

func testTick() candledomain.PriceTick {
	return candledomain.PriceTick{
		ItemCode:   "USD",
		ItemType:   candledomain.ItemTypeCurrency,
		Price:      decimal.RequireFromString("100.5"),
		ObservedAt: time.Date(2025, 3, 10, 10, 2, 0, 0, time.UTC),
		Source:     "api",
	}
}

func TestCache_PutAndLatest(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := mock.NewMockClient(ctrl)

	var stored []byte
	client.EXPECT().Set(gomock.Any(), "quote:USD:currency", gomock.Any(), quoteTTL).
		DoAndReturn(func(_ context.Context, _ string, value any, _ time.Duration) error {
			stored = value.([]byte)
			return nil
		})
	client.EXPECT().Get(gomock.Any(), "quote:USD:currency").
		DoAndReturn(func(_ context.Context, _ string) (string, error) {
			return string(stored), nil
		})

	cache := New(client)
	require.NoError(t, cache.Put(context.Background(), testTick()))

	got, err := cache.Latest(context.Background(), "USD", candledomain.ItemTypeCurrency)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("100.5")))
	assert.Equal(t, testTick().ObservedAt, got.ObservedAt)

	stats := cache.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(0), stats.Misses)
}

func TestCache_LatestMiss(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := mock.NewMockClient(ctrl)
	client.EXPECT().Get(gomock.Any(), "quote:BTC:crypto").
		Return("", pkgerrors.NewErrorDetails("redis: nil", string(pkgerrors.RedisGetError), "quote:BTC:crypto"))

	cache := New(client)
	got, err := cache.Latest(context.Background(), "BTC", candledomain.ItemTypeCrypto)
	require.NoError(t, err)
	assert.Nil(t, got)

	stats := cache.Stats()
	assert.Equal(t, int64(0), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
}

func TestCache_Reset(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := mock.NewMockClient(ctrl)
	client.EXPECT().Set(gomock.Any(), "quote:USD:currency", gomock.Any(), quoteTTL).Return(nil)
	client.EXPECT().Get(gomock.Any(), "quote:USD:currency").
		Return("", pkgerrors.NewErrorDetails("redis: nil", string(pkgerrors.RedisGetError), "quote:USD:currency"))
	client.EXPECT().Del(gomock.Any(), "quote:USD:currency").Return(nil)

	cache := New(client)
	require.NoError(t, cache.Put(context.Background(), testTick()))
	_, err := cache.Latest(context.Background(), "USD", candledomain.ItemTypeCurrency)
	require.NoError(t, err)

	require.NoError(t, cache.Reset(context.Background()))

	stats := cache.Stats()
	assert.Equal(t, int64(0), stats.Hits)
	assert.Equal(t, int64(0), stats.Misses)
}

package candle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	candledomain "github.com/ratewatch/price-history/internal/domain/candle"
	pkgerrors "github.com/ratewatch/price-history/pkg/errors"
	"github.com/ratewatch/price-history/pkg/postgres/mock"
	"github.com/ratewatch/price-history/pkg/timeframe"
)

// fakeRow implements pgx.Row for QueryRow expectations.
type fakeRow struct {
	scanFn func(dest ...any) error
}

func (r fakeRow) Scan(dest ...any) error {
	return r.scanFn(dest...)
}

func noRows() fakeRow {
	return fakeRow{scanFn: func(dest ...any) error {
		return pgx.ErrNoRows
	}}
}

func storedRow(version int64) fakeRow {
	return fakeRow{scanFn: func(dest ...any) error {
		*dest[0].(*string) = "USD"
		*dest[1].(*string) = "currency"
		*dest[2].(*string) = "5m"
		*dest[3].(*time.Time) = time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
		*dest[4].(*string) = "100"
		*dest[5].(*string) = "105"
		*dest[6].(*string) = "98"
		*dest[7].(*string) = "101"
		*dest[8].(*string) = "0"
		*dest[9].(*string) = "calculated"
		*dest[10].(*bool) = false
		*dest[11].(*bool) = false
		*dest[12].(*int64) = version
		return nil
	}}
}

func testKey() candledomain.Key {
	return candledomain.Key{
		ItemCode:    "USD",
		ItemType:    candledomain.ItemTypeCurrency,
		Timeframe:   timeframe.Timeframe5m,
		PeriodStart: time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC),
	}
}

func TestRepository_GetByKey(t *testing.T) {
	testCases := []struct {
		name     string
		mockFn   func(client *mock.MockStoreClient)
		assertFn func(t *testing.T, c *candledomain.Candle, err error)
	}{
		{
			name: "success",
			mockFn: func(client *mock.MockStoreClient) {
				client.EXPECT().QueryRow(gomock.Any(), getByKeyQuery,
					"USD", "currency", "5m", testKey().PeriodStart).Return(storedRow(2))
			},
			assertFn: func(t *testing.T, c *candledomain.Candle, err error) {
				assert.NoError(t, err)
				assert.True(t, c.Open.Equal(decimal.NewFromInt(100)))
				assert.True(t, c.High.Equal(decimal.NewFromInt(105)))
				assert.Equal(t, int64(2), c.Version)
			},
		},
		{
			name: "absent key yields nil candle",
			mockFn: func(client *mock.MockStoreClient) {
				client.EXPECT().QueryRow(gomock.Any(), getByKeyQuery,
					"USD", "currency", "5m", testKey().PeriodStart).Return(noRows())
			},
			assertFn: func(t *testing.T, c *candledomain.Candle, err error) {
				assert.NoError(t, err)
				assert.Nil(t, c)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			client := mock.NewMockStoreClient(ctrl)
			tc.mockFn(client)

			c, err := NewRepository(client).GetByKey(context.Background(), testKey())
			tc.assertFn(t, c, err)
		})
	}
}

func TestRepository_UpsertWithMerge(t *testing.T) {
	key := testKey()

	mergeClose := func(existing *candledomain.Candle) (candledomain.Candle, error) {
		if existing == nil {
			return candledomain.Candle{
				ItemCode:    key.ItemCode,
				ItemType:    key.ItemType,
				Timeframe:   key.Timeframe,
				PeriodStart: key.PeriodStart,
				Open:        decimal.NewFromInt(100),
				High:        decimal.NewFromInt(100),
				Low:         decimal.NewFromInt(100),
				Close:       decimal.NewFromInt(100),
				Source:      candledomain.SourceCalculated,
			}, nil
		}
		updated := *existing
		updated.Close = decimal.NewFromInt(102)
		return updated, nil
	}

	testCases := []struct {
		name     string
		mockFn   func(client *mock.MockStoreClient)
		assertFn func(t *testing.T, c *candledomain.Candle, err error)
	}{
		{
			name: "insert path when key is absent",
			mockFn: func(client *mock.MockStoreClient) {
				client.EXPECT().QueryRow(gomock.Any(), getByKeyQuery,
					"USD", "currency", "5m", key.PeriodStart).Return(noRows())
				client.EXPECT().Exec(gomock.Any(), insertQuery,
					"USD", "currency", "5m", key.PeriodStart,
					"100", "100", "100", "100", "0", "calculated", false, false).Return(int64(1), nil)
			},
			assertFn: func(t *testing.T, c *candledomain.Candle, err error) {
				assert.NoError(t, err)
				assert.Equal(t, int64(1), c.Version)
			},
		},
		{
			name: "versioned update path",
			mockFn: func(client *mock.MockStoreClient) {
				client.EXPECT().QueryRow(gomock.Any(), getByKeyQuery,
					"USD", "currency", "5m", key.PeriodStart).Return(storedRow(4))
				client.EXPECT().Exec(gomock.Any(), updateVersionedQuery,
					"USD", "currency", "5m", key.PeriodStart,
					"100", "105", "98", "102", "0", "calculated", false, false,
					int64(4)).Return(int64(1), nil)
			},
			assertFn: func(t *testing.T, c *candledomain.Candle, err error) {
				assert.NoError(t, err)
				assert.True(t, c.Close.Equal(decimal.NewFromInt(102)))
				assert.Equal(t, int64(5), c.Version)
			},
		},
		{
			name: "lost insert race falls back to update on re-read",
			mockFn: func(client *mock.MockStoreClient) {
				client.EXPECT().QueryRow(gomock.Any(), getByKeyQuery,
					"USD", "currency", "5m", key.PeriodStart).Return(noRows())
				client.EXPECT().Exec(gomock.Any(), insertQuery,
					"USD", "currency", "5m", key.PeriodStart,
					"100", "100", "100", "100", "0", "calculated", false, false).Return(int64(0), nil)
				client.EXPECT().QueryRow(gomock.Any(), getByKeyQuery,
					"USD", "currency", "5m", key.PeriodStart).Return(storedRow(1))
				client.EXPECT().Exec(gomock.Any(), updateVersionedQuery,
					"USD", "currency", "5m", key.PeriodStart,
					"100", "105", "98", "102", "0", "calculated", false, false,
					int64(1)).Return(int64(1), nil)
			},
			assertFn: func(t *testing.T, c *candledomain.Candle, err error) {
				assert.NoError(t, err)
				assert.Equal(t, int64(2), c.Version)
			},
		},
		{
			name: "exhausted retries surface a write conflict",
			mockFn: func(client *mock.MockStoreClient) {
				for i := 0; i < 3; i++ {
					client.EXPECT().QueryRow(gomock.Any(), getByKeyQuery,
						"USD", "currency", "5m", key.PeriodStart).Return(storedRow(int64(i + 1)))
					client.EXPECT().Exec(gomock.Any(), updateVersionedQuery,
						"USD", "currency", "5m", key.PeriodStart,
						"100", "105", "98", "102", "0", "calculated", false, false,
						int64(i+1)).Return(int64(0), nil)
				}
			},
			assertFn: func(t *testing.T, c *candledomain.Candle, err error) {
				assert.Nil(t, c)
				assert.True(t, pkgerrors.ErrorCodeEquals(err, string(pkgerrors.WriteConflictError)))
			},
		},
		{
			name: "read error aborts",
			mockFn: func(client *mock.MockStoreClient) {
				client.EXPECT().QueryRow(gomock.Any(), getByKeyQuery,
					"USD", "currency", "5m", key.PeriodStart).Return(fakeRow{scanFn: func(dest ...any) error {
					return errors.New("connection reset")
				}})
			},
			assertFn: func(t *testing.T, c *candledomain.Candle, err error) {
				assert.Nil(t, c)
				assert.Error(t, err)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			client := mock.NewMockStoreClient(ctrl)
			tc.mockFn(client)

			c, err := NewRepository(client).UpsertWithMerge(context.Background(), key, mergeClose)
			tc.assertFn(t, c, err)
		})
	}
}

func TestRepository_InsertBatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	price := decimal.RequireFromString("100")
	candles := []*candledomain.Candle{
		{
			ItemCode:    "USD",
			ItemType:    candledomain.ItemTypeCurrency,
			Timeframe:   timeframe.Timeframe5m,
			PeriodStart: testKey().PeriodStart,
			Open:        price,
			High:        price,
			Low:         price,
			Close:       price,
			Source:      candledomain.SourceAPI,
			IsComplete:  true,
		},
	}

	client := mock.NewMockStoreClient(ctrl)
	client.EXPECT().CopyFrom(gomock.Any(), pgx.Identifier{"candles"}, gomock.Any(), gomock.Any()).
		Return(int64(1), nil)

	assert.NoError(t, NewRepository(client).InsertBatch(context.Background(), candles))
}

func TestRepository_InsertBatch_Empty(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := mock.NewMockStoreClient(ctrl)

	// no store call for an empty batch
	assert.NoError(t, NewRepository(client).InsertBatch(context.Background(), nil))
}

func TestRepository_MarkCompleteDue(t *testing.T) {
	cutoff := time.Date(2025, 3, 10, 11, 0, 0, 0, time.UTC)

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := mock.NewMockStoreClient(ctrl)
	client.EXPECT().Exec(gomock.Any(), markCompleteQuery,
		"1h", cutoff.Add(-time.Hour)).Return(int64(7), nil)

	affected, err := NewRepository(client).MarkCompleteDue(context.Background(), timeframe.Timeframe1h, cutoff)
	assert.NoError(t, err)
	assert.Equal(t, int64(7), affected)
}

func TestRepository_GetRange(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	from := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	rows := mock.NewMockRowsInterface(ctrl)
	gomock.InOrder(
		rows.EXPECT().Next().Return(true),
		rows.EXPECT().Scan(gomock.Any()).DoAndReturn(func(dest ...any) error {
			return storedRow(1).Scan(dest...)
		}),
		rows.EXPECT().Next().Return(false),
	)
	rows.EXPECT().Err().Return(nil)
	rows.EXPECT().Close()

	client := mock.NewMockStoreClient(ctrl)
	client.EXPECT().Query(gomock.Any(), getRangeQuery,
		"USD", "currency", "5m", from, to).Return(rows, nil)

	candles, err := NewRepository(client).GetRange(context.Background(), "USD", candledomain.ItemTypeCurrency, timeframe.Timeframe5m, from, to)
	assert.NoError(t, err)
	assert.Len(t, candles, 1)
	assert.True(t, candles[0].High.Equal(decimal.NewFromInt(105)))
}

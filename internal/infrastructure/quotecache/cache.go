package quotecache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	candledomain "github.com/ratewatch/price-history/internal/domain/candle"
	pkgerrors "github.com/ratewatch/price-history/pkg/errors"
	"github.com/ratewatch/price-history/pkg/redis"
)

const quoteTTL = 10 * time.Minute

// Stats is a point-in-time cache counter snapshot.
type Stats struct {
	Hits   int64
	Misses int64
}

// Cache holds the most recent observed quote per tracked item so read paths
// can serve the current price without touching the candle store.
type Cache struct {
	client redis.Client

	hits   atomic.Int64
	misses atomic.Int64

	mu   sync.Mutex
	keys map[string]struct{}
}

// New creates a quote cache over client.
func New(client redis.Client) *Cache {
	return &Cache{
		client: client,
		keys:   make(map[string]struct{}),
	}
}

type quotePayload struct {
	ItemCode   string `json:"item_code"`
	ItemType   string `json:"item_type"`
	Price      string `json:"price"`
	ObservedAt int64  `json:"observed_at"`
	Source     string `json:"source"`
}

func quoteKey(itemCode string, itemType candledomain.ItemType) string {
	return fmt.Sprintf("quote:%s:%s", itemCode, itemType)
}

// Put stores tick as the latest quote for its item.
func (c *Cache) Put(ctx context.Context, tick candledomain.PriceTick) error {
	payload, err := json.Marshal(quotePayload{
		ItemCode:   tick.ItemCode,
		ItemType:   string(tick.ItemType),
		Price:      tick.Price.String(),
		ObservedAt: tick.ObservedAt.Unix(),
		Source:     tick.Source,
	})
	if err != nil {
		return fmt.Errorf("failed to encode quote: %w", err)
	}

	key := quoteKey(tick.ItemCode, tick.ItemType)
	if err := c.client.Set(ctx, key, payload, quoteTTL); err != nil {
		return err
	}

	c.mu.Lock()
	c.keys[key] = struct{}{}
	c.mu.Unlock()

	return nil
}

// Latest returns the most recent quote for the item, or nil on a miss.
func (c *Cache) Latest(ctx context.Context, itemCode string, itemType candledomain.ItemType) (*candledomain.PriceTick, error) {
	raw, err := c.client.Get(ctx, quoteKey(itemCode, itemType))
	if err != nil {
		if pkgerrors.ErrorCodeEquals(err, string(pkgerrors.RedisGetError)) {
			c.misses.Add(1)
			return nil, nil
		}
		return nil, err
	}

	var payload quotePayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("failed to decode quote: %w", err)
	}

	price, err := decimal.NewFromString(payload.Price)
	if err != nil {
		return nil, fmt.Errorf("invalid cached price %q: %w", payload.Price, err)
	}
	itemTypeParsed, err := candledomain.ParseItemType(payload.ItemType)
	if err != nil {
		return nil, err
	}

	c.hits.Add(1)
	return &candledomain.PriceTick{
		ItemCode:   payload.ItemCode,
		ItemType:   itemTypeParsed,
		Price:      price,
		ObservedAt: time.Unix(payload.ObservedAt, 0).UTC(),
		Source:     payload.Source,
	}, nil
}

// Reset drops every quote written through this cache instance and zeroes the
// counters.
func (c *Cache) Reset(ctx context.Context) error {
	c.mu.Lock()
	keys := make([]string, 0, len(c.keys))
	for key := range c.keys {
		keys = append(keys, key)
	}
	c.keys = make(map[string]struct{})
	c.mu.Unlock()

	c.hits.Store(0)
	c.misses.Store(0)

	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...)
}

// Stats returns the hit and miss counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
	}
}

// Close releases the underlying connection.
func (c *Cache) Close() error {
	return c.client.Close()
}

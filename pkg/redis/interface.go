package redis

import (
	"context"
	"time"
)

//go:generate mockgen -source=interface.go -destination=mock/client_mock.go -package=mock

// Client defines the Redis operations used by the service.
type Client interface {
	Connect(ctx context.Context) error
	Close() error
	Ping(ctx context.Context) error

	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/ratewatch/price-history/pkg/postgres"
	"github.com/ratewatch/price-history/pkg/redis"
)

// Config represents the application configuration.
type Config struct {
	App       AppConfig       `envPrefix:"APP_"`
	Postgres  postgres.Config `envPrefix:"POSTGRES_"`
	Redis     redis.Config    `envPrefix:"REDIS_"`
	Source    SourceConfig    `envPrefix:"SOURCE_"`
	Scheduler SchedulerConfig `envPrefix:"SCHEDULER_"`
	Market    MarketConfig    `envPrefix:"MARKET_"`
}

// AppConfig represents the application configuration.
type AppConfig struct {
	Name        string `env:"NAME" envDefault:"price-history-service"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
}

// SourceConfig represents the upstream price source configuration.
type SourceConfig struct {
	BaseURL        string        `env:"BASE_URL" envDefault:"http://localhost:9000"`
	APIKey         string        `env:"API_KEY"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`
	MaxRetries     int           `env:"MAX_RETRIES" envDefault:"3"`
	RetryBackoff   time.Duration `env:"RETRY_BACKOFF" envDefault:"500ms"`
	RatePerSecond  float64       `env:"RATE_PER_SECOND" envDefault:"5"`
	RateBurst      int           `env:"RATE_BURST" envDefault:"10"`
}

// SchedulerConfig holds the intervals for the background loops.
type SchedulerConfig struct {
	TickPollInterval     time.Duration `env:"TICK_POLL_INTERVAL" envDefault:"30s"`
	FinalizeInterval     time.Duration `env:"FINALIZE_INTERVAL" envDefault:"1m"`
	BackfillScanInterval time.Duration `env:"BACKFILL_SCAN_INTERVAL" envDefault:"5m"`
	ShutdownTimeout      time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
}

// MarketConfig describes the tracked items and bucketing rules.
type MarketConfig struct {
	// TrackedItems is a comma separated list of code:type pairs,
	// e.g. "USD:currency,BTC:crypto,GOLD18:gold".
	TrackedItems []string `env:"TRACKED_ITEMS" envSeparator:"," envDefault:"USD:currency,EUR:currency,BTC:crypto,GOLD18:gold"`

	// ReportingOffset is the fixed UTC offset of the market's reporting
	// timezone, used for daily bucketing.
	ReportingOffset time.Duration `env:"REPORTING_OFFSET" envDefault:"3h30m"`

	// EnabledTimeframes lists timeframe names candles are maintained for.
	EnabledTimeframes []string `env:"ENABLED_TIMEFRAMES" envSeparator:"," envDefault:"1m,5m,15m,1h,1d"`

	// BackfillLookback bounds the coverage scan window of the backfill loop.
	BackfillLookback time.Duration `env:"BACKFILL_LOOKBACK" envDefault:"168h"`

	// LateTickGrace is how long after a period closes a late tick is still
	// applied as a correction instead of being rejected.
	LateTickGrace time.Duration `env:"LATE_TICK_GRACE" envDefault:"2m"`
}

// TrackedItem is one parsed entry of MarketConfig.TrackedItems.
type TrackedItem struct {
	Code string
	Type string
}

// ParseTrackedItems parses the configured code:type pairs.
func (m MarketConfig) ParseTrackedItems() ([]TrackedItem, error) {
	items := make([]TrackedItem, 0, len(m.TrackedItems))
	for _, raw := range m.TrackedItems {
		parts := strings.SplitN(strings.TrimSpace(raw), ":", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("invalid tracked item %q, expected code:type", raw)
		}
		items = append(items, TrackedItem{Code: parts[0], Type: parts[1]})
	}
	return items, nil
}

// Load loads the configuration from the environment.
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

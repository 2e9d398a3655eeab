package bootstrap

import (
	candleInfra "github.com/ratewatch/price-history/internal/infrastructure/postgres/candle"
)

// Repository holds the persistence layer.
type Repository struct {
	CandleRepository candleInfra.CandleRepository
}

// registerRepository registers the repositories.
func (b *Bootstrap) registerRepository() {
	b.Repository.CandleRepository = candleInfra.NewRepository(b.Postgres)
}

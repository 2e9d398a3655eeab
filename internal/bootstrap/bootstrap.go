package bootstrap

import (
	"github.com/ratewatch/price-history/pkg/config"
	"github.com/ratewatch/price-history/pkg/logger"
	"github.com/ratewatch/price-history/pkg/postgres"
	"github.com/ratewatch/price-history/pkg/redis"
)

// Bootstrap wires the service's repositories, infrastructure clients and
// usecases.
type Bootstrap struct {
	Repository     Repository
	Infrastructure Infrastructure
	Usecase        Usecase
	Logger         logger.Interface

	Config   *config.Config
	Postgres postgres.StoreClient
	Redis    redis.Client
}

// BootstrapConfig carries the externally constructed dependencies.
type BootstrapConfig struct {
	Config   *config.Config
	Postgres postgres.StoreClient
	Redis    redis.Client
	Logger   logger.Interface
}

// Init initializes the bootstrap.
func (b *Bootstrap) Init(cfg BootstrapConfig) (Bootstrap, error) {
	b.Config = cfg.Config
	b.Postgres = cfg.Postgres
	b.Redis = cfg.Redis
	b.Logger = cfg.Logger

	b.registerRepository()
	b.registerInfrastructure()
	if err := b.registerUsecase(); err != nil {
		return *b, err
	}

	return *b, nil
}

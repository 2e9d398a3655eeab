package bootstrap

import (
	"github.com/ratewatch/price-history/internal/domain/pricesource"
	sourceHTTP "github.com/ratewatch/price-history/internal/infrastructure/pricesource/http"
	"github.com/ratewatch/price-history/internal/infrastructure/quotecache"
)

// Infrastructure holds the outbound clients.
type Infrastructure struct {
	Source     pricesource.Source
	QuoteCache *quotecache.Cache
}

// registerInfrastructure registers the upstream source client and the quote
// cache.
func (b *Bootstrap) registerInfrastructure() {
	b.Infrastructure.Source = sourceHTTP.NewClient(b.Config.Source, b.Logger)
	b.Infrastructure.QuoteCache = quotecache.New(b.Redis)
}

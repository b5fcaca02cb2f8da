package embedding

import (
	"github.com/memgraft/memgraft/internal/config"
	"github.com/memgraft/memgraft/internal/pkg/logger"
)

// NewProvider builds a Provider from configuration, or returns nil when
// no provider URL is configured. A nil provider is the signal for the
// index layer to resolve the vector backend choice down to lexical.
func NewProvider(cfg config.EmbeddingConfig, log *logger.Logger) Provider {
	if cfg.URL == "" {
		return nil
	}

	var p Provider = NewHTTPProvider(cfg)

	switch cfg.CacheType {
	case "none":
		return p
	case "redis":
		cache, err := NewRedisCache(cfg.RedisURL, log)
		if err != nil {
			log.WithError(err).Warn("redis embedding cache unavailable, using memory cache")
			return NewCachedProvider(p, NewMemoryCache(cfg.CacheSize))
		}
		return NewCachedProvider(p, cache)
	default:
		return NewCachedProvider(p, NewMemoryCache(cfg.CacheSize))
	}
}

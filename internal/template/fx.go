package template

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/smallbiznis/meritup/internal/config"
	"github.com/smallbiznis/meritup/internal/template/cache"
	"github.com/smallbiznis/meritup/internal/template/repository"
	"github.com/smallbiznis/meritup/internal/template/service"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("template.service",
	fx.Provide(repository.Provide),
	fx.Provide(provideCache),
	fx.Provide(service.New),
)

// provideCache selects the shared Redis cache when an address is configured
// and falls back to the in-process cache otherwise.
func provideCache(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) cache.TemplateCache {
	if cfg.RedisAddr == "" {
		return cache.NewMemoryCache()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return cache.NewRedisCache(client, log)
}

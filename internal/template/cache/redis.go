package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/smallbiznis/meritup/internal/template/domain"
	"go.uber.org/zap"
)

const redisKeyPrefix = "meritup:template:"

type redisCache struct {
	client *redis.Client
	log    *zap.Logger
	ttl    time.Duration
}

// NewRedisCache returns a TemplateCache shared across replicas. Failures
// degrade to cache misses.
func NewRedisCache(client *redis.Client, log *zap.Logger) TemplateCache {
	return &redisCache{
		client: client,
		log:    log.Named("template.cache"),
		ttl:    defaultTemplateTTL,
	}
}

func (c *redisCache) Get(ctx context.Context, id string) (domain.PromotionTemplate, bool) {
	payload, err := c.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Debug("redis get failed", zap.Error(err))
		}
		return domain.PromotionTemplate{}, false
	}

	var template domain.PromotionTemplate
	if err := json.Unmarshal(payload, &template); err != nil {
		c.log.Debug("corrupt cache entry dropped", zap.String("template_id", id), zap.Error(err))
		return domain.PromotionTemplate{}, false
	}
	return template, true
}

func (c *redisCache) Set(ctx context.Context, id string, template domain.PromotionTemplate) {
	payload, err := json.Marshal(template)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, redisKeyPrefix+id, payload, c.ttl).Err(); err != nil {
		c.log.Debug("redis set failed", zap.Error(err))
	}
}

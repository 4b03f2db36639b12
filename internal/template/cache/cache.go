// Package cache stores resolved promotion templates. Templates are
// immutable once authored, so a short TTL only bounds staleness of the
// active flag.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/smallbiznis/meritup/internal/template/domain"
)

const defaultTemplateTTL = 5 * time.Minute

// TemplateCache stores hot-path template lookups.
type TemplateCache interface {
	Get(ctx context.Context, id string) (domain.PromotionTemplate, bool)
	Set(ctx context.Context, id string, template domain.PromotionTemplate)
}

type entry struct {
	value     domain.PromotionTemplate
	expiresAt time.Time
}

type memoryCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
}

// NewMemoryCache returns an in-process TTL cache.
func NewMemoryCache() TemplateCache {
	return &memoryCache{
		entries: make(map[string]entry),
		ttl:     defaultTemplateTTL,
	}
}

func (c *memoryCache) Get(_ context.Context, id string) (domain.PromotionTemplate, bool) {
	c.mu.RLock()
	item, ok := c.entries[id]
	c.mu.RUnlock()
	if !ok || time.Now().After(item.expiresAt) {
		return domain.PromotionTemplate{}, false
	}
	return item.value, true
}

func (c *memoryCache) Set(_ context.Context, id string, template domain.PromotionTemplate) {
	c.mu.Lock()
	c.entries[id] = entry{value: template, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

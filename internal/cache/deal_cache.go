package cache

import (
	"context"
	"sync"
	"time"

	"github.com/Cheertaboi/bundle-deal-service/internal/models"
)

type entry struct {
	deal      models.Deal
	expiresAt time.Time
}

// DealCache is an in-process TTL cache of deals, used when no Redis is configured.
type DealCache struct {
	mu    sync.RWMutex
	store map[string]entry
	ttl   time.Duration
	now   func() time.Time
}

func NewDealCache(ttl time.Duration) *DealCache {
	return &DealCache{
		store: make(map[string]entry),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (c *DealCache) Get(_ context.Context, key string) (*models.Deal, bool, error) {
	c.mu.RLock()
	e, ok := c.store[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if c.now().After(e.expiresAt) {
		c.evictExpired(key, e.expiresAt)
		return nil, false, nil
	}
	d := e.deal
	return &d, true, nil
}

func (c *DealCache) Set(_ context.Context, key string, d *models.Deal) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[key] = entry{deal: *d, expiresAt: c.now().Add(c.ttl)}
	return nil
}

func (c *DealCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.store, k)
	}
	return nil
}

// evictExpired deletes key only if it still holds the entry that expired at
// expiresAt; a Set made after the read keeps its value.
func (c *DealCache) evictExpired(key string, expiresAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.store[key]; ok && cur.expiresAt.Equal(expiresAt) {
		delete(c.store, key)
	}
}

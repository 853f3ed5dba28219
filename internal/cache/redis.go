package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Cheertaboi/bundle-deal-service/internal/models"
)

const keyPrefix = "deal_cache:"

// RedisDealCache keeps JSON-encoded deals in Redis with a TTL.
type RedisDealCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisClient(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

func NewRedisDealCache(client *redis.Client, ttl time.Duration) *RedisDealCache {
	return &RedisDealCache{client: client, ttl: ttl}
}

func (c *RedisDealCache) Get(ctx context.Context, key string) (*models.Deal, bool, error) {
	val, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get deal from redis: %w", err)
	}

	var d models.Deal
	if err := json.Unmarshal(val, &d); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached deal: %w", err)
	}
	return &d, true, nil
}

func (c *RedisDealCache) Set(ctx context.Context, key string, d *models.Deal) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal deal: %w", err)
	}
	if err := c.client.Set(ctx, keyPrefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("set deal in redis: %w", err)
	}
	return nil
}

func (c *RedisDealCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = keyPrefix + k
	}
	if err := c.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("delete deals from redis: %w", err)
	}
	return nil
}

// Package app wires stores, cache and notifier from configuration for the
// service, seeder and lambda entrypoints.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Cheertaboi/bundle-deal-service/internal/cache"
	"github.com/Cheertaboi/bundle-deal-service/internal/config"
	"github.com/Cheertaboi/bundle-deal-service/internal/models"
	"github.com/Cheertaboi/bundle-deal-service/internal/notify"
	"github.com/Cheertaboi/bundle-deal-service/internal/repository"
	"github.com/Cheertaboi/bundle-deal-service/internal/repository/boltstore"
	"github.com/Cheertaboi/bundle-deal-service/internal/service"
	"github.com/Cheertaboi/bundle-deal-service/pkg/db"
)

type ProductStore interface {
	service.ProductRepo
	Upsert(ctx context.Context, p *models.CatalogItem) error
}

type Stores struct {
	Deals    service.DealRepo
	Usage    service.UsageRepo
	Products ProductStore
	close    func() error
}

func (s *Stores) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// OpenStores connects the configured store driver. Postgres runs migrations
// before returning.
func OpenStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Stores, error) {
	switch cfg.StoreDriver {
	case config.DriverBolt:
		st, err := boltstore.New(cfg.BoltPath)
		if err != nil {
			return nil, fmt.Errorf("open bolt store %s: %w", cfg.BoltPath, err)
		}
		logger.Info("using bolt store", "path", cfg.BoltPath)
		return &Stores{Deals: st, Usage: st, Products: st.Products(), close: st.Close}, nil

	default:
		conn, err := db.NewPostgresConnection(cfg.Postgres)
		if err != nil {
			return nil, err
		}
		if err := db.RunMigrations(ctx, conn, cfg.MigrationsDir, logger); err != nil {
			conn.Close()
			return nil, err
		}
		logger.Info("using postgres store", "host", cfg.Postgres.Host, "db", cfg.Postgres.DBName)
		return &Stores{
			Deals:    repository.NewDealRepo(conn),
			Usage:    repository.NewUsageRepo(conn),
			Products: repository.NewProductRepo(conn),
			close:    conn.Close,
		}, nil
	}
}

// NewCache returns the Redis cache when REDIS_ADDR is set and the in-process
// cache otherwise. The returned func closes the Redis client.
func NewCache(cfg *config.Config, logger *slog.Logger) (service.DealCache, func() error, error) {
	if cfg.RedisAddr == "" {
		return cache.NewDealCache(cfg.DealCacheTTL), func() error { return nil }, nil
	}
	client, err := cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("using redis deal cache", "addr", cfg.RedisAddr)
	return cache.NewRedisDealCache(client, cfg.DealCacheTTL), client.Close, nil
}

func NewNotifier(cfg *config.Config, logger *slog.Logger) notify.Notifier {
	if cfg.NotifyWebhookURL == "" {
		return notify.LogNotifier{Logger: logger}
	}
	return notify.NewWebhookNotifier(notify.WebhookConfig{
		URL:     cfg.NotifyWebhookURL,
		Timeout: 5 * time.Second,
	})
}

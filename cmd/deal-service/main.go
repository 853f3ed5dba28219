package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Cheertaboi/bundle-deal-service/internal/api"
	"github.com/Cheertaboi/bundle-deal-service/internal/app"
	"github.com/Cheertaboi/bundle-deal-service/internal/config"
	"github.com/Cheertaboi/bundle-deal-service/internal/service"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("deal-service stopped", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx := context.Background()
	stores, err := app.OpenStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer stores.Close()

	dealCache, closeCache, err := app.NewCache(cfg, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	deals := service.NewDealService(stores.Deals, stores.Usage, stores.Products, service.DealOptions{
		Cache:          dealCache,
		Notifier:       app.NewNotifier(cfg, logger),
		Logger:         logger,
		TrustCartTiers: cfg.TrustCartTiers,
	})
	tiers := service.NewTierService(stores.Products, cfg.BulkWorkers, logger)

	srv := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: api.NewRouter(deals, tiers, api.RouterConfig{
			Logger:         logger,
			AdminJWTSecret: cfg.AdminJWTSecret,
		}),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// graceful shutdown
	idleConnsClosed := make(chan struct{})
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("http server shutdown", "error", err)
		}
		close(idleConnsClosed)
	}()

	logger.Info("starting deal-service", "addr", srv.Addr, "store", cfg.StoreDriver)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen: %w", err)
	}

	<-idleConnsClosed
	logger.Info("server stopped")
	return nil
}

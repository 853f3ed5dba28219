package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/Cheertaboi/bundle-deal-service/internal/app"
	"github.com/Cheertaboi/bundle-deal-service/internal/config"
	"github.com/Cheertaboi/bundle-deal-service/internal/seed"
	"github.com/Cheertaboi/bundle-deal-service/internal/service"
)

func main() {
	file := flag.String("file", "seed.yaml", "YAML file with deals and products")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	f, err := seed.Load(*file)
	if err != nil {
		logger.Error("failed to read seed", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	stores, err := app.OpenStores(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open stores", "error", err)
		os.Exit(1)
	}
	defer stores.Close()

	deals := service.NewDealService(stores.Deals, stores.Usage, stores.Products, service.DealOptions{
		Notifier: app.NewNotifier(cfg, logger),
		Logger:   logger,
	})

	res, err := seed.Apply(ctx, f, deals, stores.Products, logger)
	if err != nil {
		logger.Error("seeding failed", "error", err, "products", res.ProductsUpserted, "deals", res.DealsCreated)
		stores.Close()
		os.Exit(1)
	}
	logger.Info("seed complete",
		"products", res.ProductsUpserted, "deals_created", res.DealsCreated, "deals_skipped", res.DealsSkipped)
}

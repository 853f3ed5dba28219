package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/Cheertaboi/bundle-deal-service/internal/app"
	"github.com/Cheertaboi/bundle-deal-service/internal/config"
	"github.com/Cheertaboi/bundle-deal-service/internal/service"
)

type ClassifyEvent struct {
	ProductIDs []string `json:"productIds"`
}

var tiers *service.TierService

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// kept open for the lifetime of the execution environment
	stores, err := app.OpenStores(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to open stores", "error", err)
		os.Exit(1)
	}
	tiers = service.NewTierService(stores.Products, cfg.BulkWorkers, logger)
}

func handler(ctx context.Context, event ClassifyEvent) (service.BulkResult, error) {
	slog.Info("auto-classify invoked", "products", len(event.ProductIDs))
	return tiers.AutoClassifyByPrice(ctx, event.ProductIDs)
}

func main() {
	lambda.Start(handler)
}

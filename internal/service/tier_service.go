package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Cheertaboi/bundle-deal-service/internal/concurrency"
	"github.com/Cheertaboi/bundle-deal-service/internal/models"
)

const (
	defaultTierPageSize = 20
	maxTierPageSize     = 100
)

// BulkResult summarises a batch tier operation. Failed and Skipped keep the
// order of the input ids.
type BulkResult struct {
	Updated int      `json:"updated"`
	Failed  []string `json:"failed"`
	Skipped []string `json:"skipped"`
}

type outcome int

const (
	outcomeUpdated outcome = iota
	outcomeFailed
	outcomeSkipped
)

type TierService struct {
	products ProductRepo
	workers  int
	logger   *slog.Logger
}

// NewTierService runs batch items on up to workers goroutines; workers <= 1
// processes them one after another.
func NewTierService(products ProductRepo, workers int, logger *slog.Logger) *TierService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TierService{products: products, workers: workers, logger: logger}
}

// BulkSetTier assigns tier to every id. A failing item never aborts the batch.
func (s *TierService) BulkSetTier(ctx context.Context, ids []string, tier models.Tier) (BulkResult, error) {
	if !tier.Valid() {
		return BulkResult{}, fmt.Errorf("%w: %q", ErrInvalidTier, tier)
	}
	return s.run(ctx, ids, func(ctx context.Context, id string) outcome {
		if err := s.products.SetTier(ctx, id, tier); err != nil {
			s.logger.Error("set tier failed", "product_id", id, "tier", tier, "error", err)
			return outcomeFailed
		}
		return outcomeUpdated
	})
}

// AutoClassifyByPrice derives each item's tier from its market price.
// Ids missing from the catalog are skipped, not failed.
func (s *TierService) AutoClassifyByPrice(ctx context.Context, ids []string) (BulkResult, error) {
	return s.run(ctx, ids, func(ctx context.Context, id string) outcome {
		item, err := s.products.GetByID(ctx, id)
		if err != nil {
			s.logger.Error("load product failed", "product_id", id, "error", err)
			return outcomeFailed
		}
		if item == nil {
			return outcomeSkipped
		}
		tier := models.Classify(models.ClassificationPrice(*item))
		if err := s.products.SetTier(ctx, id, tier); err != nil {
			s.logger.Error("auto classify failed", "product_id", id, "tier", tier, "error", err)
			return outcomeFailed
		}
		return outcomeUpdated
	})
}

// GetByTier lists available catalog items of a tier. limit <= 0 means the
// default page size; larger limits are capped.
func (s *TierService) GetByTier(ctx context.Context, tier models.Tier, limit int) ([]models.CatalogItem, error) {
	if !tier.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTier, tier)
	}
	if limit <= 0 {
		limit = defaultTierPageSize
	}
	if limit > maxTierPageSize {
		limit = maxTierPageSize
	}
	items, err := s.products.ListByTier(ctx, tier, limit)
	if err != nil {
		return nil, fmt.Errorf("list products by tier: %w", err)
	}
	if items == nil {
		items = []models.CatalogItem{}
	}
	return items, nil
}

func (s *TierService) run(ctx context.Context, ids []string, do func(ctx context.Context, id string) outcome) (BulkResult, error) {
	outcomes := make([]outcome, len(ids))
	done := make([]bool, len(ids))
	err := concurrency.ForEach(ctx, s.workers, len(ids), func(ctx context.Context, i int) {
		outcomes[i] = do(ctx, ids[i])
		done[i] = true
	})

	res := BulkResult{Failed: []string{}, Skipped: []string{}}
	for i, id := range ids {
		if !done[i] {
			continue
		}
		switch outcomes[i] {
		case outcomeUpdated:
			res.Updated++
		case outcomeFailed:
			res.Failed = append(res.Failed, id)
		case outcomeSkipped:
			res.Skipped = append(res.Skipped, id)
		}
	}
	if err != nil {
		return res, fmt.Errorf("batch interrupted: %w", err)
	}

	s.logger.Info("bulk tier operation finished",
		"requested", len(ids), "updated", res.Updated, "failed", len(res.Failed), "skipped", len(res.Skipped))
	return res, nil
}

package seed

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/Cheertaboi/bundle-deal-service/internal/models"
	"github.com/Cheertaboi/bundle-deal-service/internal/repository/boltstore"
	"github.com/Cheertaboi/bundle-deal-service/internal/service"
)

const sample = `
products:
  - id: card-1
    name: Common card
    price: "3.50"
    tier: Bronze
  - id: card-2
    name: Chase card
    price: "12"
    averageSoldPrice: "64.00"
deals:
  - code: starter
    name: Starter pack
    price: "9.99"
    requirements:
      bronze: 2
      silver: 1
  - code: retired
    price: "1"
    active: false
`

func TestApply(t *testing.T) {
	store, err := boltstore.New(filepath.Join(t.TempDir(), "seed.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	f, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	deals := service.NewDealService(store, store, store.Products(), service.DealOptions{Logger: logger})
	ctx := context.Background()

	res, err := Apply(ctx, f, deals, store.Products(), logger)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if res.ProductsUpserted != 2 || res.DealsCreated != 2 || res.DealsSkipped != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}

	d, err := store.GetByCode(ctx, "STARTER")
	if err != nil || d == nil {
		t.Fatalf("starter deal not found: %v", err)
	}
	if d.CreatedBy != CreatedBy || d.Requirements.Count(models.TierSilver) != 1 {
		t.Fatalf("unexpected deal: %+v", d)
	}

	p, err := store.Products().GetByID(ctx, "card-2")
	if err != nil || p == nil {
		t.Fatalf("card-2 not found: %v", err)
	}
	if p.Tier != nil || models.Classify(models.ClassificationPrice(*p)) != models.TierPlatinum {
		t.Fatalf("unexpected product: %+v", p)
	}

	// a second run keeps the active deal and creates another inactive copy
	res, err = Apply(ctx, f, deals, store.Products(), logger)
	if err != nil {
		t.Fatalf("second apply: %v", err)
	}
	if res.DealsSkipped != 1 || res.DealsCreated != 1 {
		t.Fatalf("unexpected second result: %+v", res)
	}
}

func TestParseRejectsUnknownTier(t *testing.T) {
	f, err := Parse([]byte("deals:\n  - code: x\n    requirements:\n      diamond: 1\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := f.Deals[0].toDeal(); err == nil {
		t.Fatal("expected unknown tier error")
	}
}

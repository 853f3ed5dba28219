package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/Cheertaboi/bundle-deal-service/internal/models"
	"github.com/Cheertaboi/bundle-deal-service/pkg/db"
)

func TestMapWriteErr(t *testing.T) {
	dup := &pq.Error{Code: uniqueViolation, Constraint: activeCodeIndexName}
	if err := mapWriteErr(fmt.Errorf("wrapped: %w", dup)); !errors.Is(err, ErrDuplicateCode) {
		t.Fatalf("expected ErrDuplicateCode, got %v", err)
	}

	other := &pq.Error{Code: uniqueViolation, Constraint: "deals_pkey"}
	if err := mapWriteErr(other); errors.Is(err, ErrDuplicateCode) {
		t.Fatal("only the active code index maps to ErrDuplicateCode")
	}
}

// newPostgresRepos connects to TEST_DATABASE_URL; tests are skipped without it.
func newPostgresRepos(t *testing.T) (*DealRepo, *UsageRepo, *ProductRepo) {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	conn, err := db.Open(dsn, 5, 5)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	ctx := context.Background()
	if err := db.RunMigrations(ctx, conn, "../../migrations", nil); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if _, err := conn.ExecContext(ctx, `TRUNCATE deals, products`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return NewDealRepo(conn), NewUsageRepo(conn), NewProductRepo(conn)
}

func TestPostgresDealLifecycle(t *testing.T) {
	deals, usage, _ := newPostgresRepos(t)
	ctx := context.Background()

	d := &models.Deal{
		Code:         "pgdeal",
		Name:         "Postgres deal",
		Price:        decimal.RequireFromString("19.50"),
		Requirements: models.Requirements{models.TierGold: 2},
		IsActive:     true,
		CreatedBy:    "admin",
	}
	if err := deals.Create(ctx, d); err != nil {
		t.Fatalf("create: %v", err)
	}

	dup := &models.Deal{Code: "PGDEAL", Price: decimal.Zero, IsActive: true}
	if err := deals.Create(ctx, dup); !errors.Is(err, ErrDuplicateCode) {
		t.Fatalf("expected ErrDuplicateCode, got %v", err)
	}
	if dup.ID != "" {
		t.Fatalf("failed create must not assign an id, got %q", dup.ID)
	}

	got, err := deals.GetByCode(ctx, "pgdeal")
	if err != nil || got == nil || got.ID != d.ID {
		t.Fatalf("get by code: %v %+v", err, got)
	}
	if got.Requirements.Count(models.TierGold) != 2 {
		t.Fatalf("requirements not round-tripped: %v", got.Requirements)
	}

	active, err := deals.ToggleActive(ctx, d.ID)
	if err != nil || active {
		t.Fatalf("toggle: %v active=%v", err, active)
	}
	if _, err := deals.ToggleActive(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := usage.IncrementUsage(ctx, d.ID); err != nil {
				t.Errorf("increment: %v", err)
			}
		}()
	}
	wg.Wait()
	got, _ = deals.GetByID(ctx, d.ID)
	if got.TimesUsed != n {
		t.Fatalf("expected timesUsed=%d, got %d", n, got.TimesUsed)
	}
	if err := usage.IncrementUsage(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := deals.Delete(ctx, d.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := deals.Delete(ctx, d.ID); err != nil {
		t.Fatalf("second delete: %v", err)
	}
}

func TestPostgresProductTiers(t *testing.T) {
	_, _, products := newPostgresRepos(t)
	ctx := context.Background()

	gold := models.TierGold
	for i, status := range []string{"sold", models.StatusAvailable, models.StatusAvailable} {
		p := &models.CatalogItem{
			ID:     fmt.Sprintf("pg-card-%d", i),
			Price:  decimal.NewFromInt(25),
			Tier:   &gold,
			Status: status,
		}
		if err := products.Upsert(ctx, p); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	items, err := products.ListByTier(ctx, models.TierGold, 5)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 available gold items, got %d", len(items))
	}

	if err := products.SetTier(ctx, "pg-card-0", models.TierSilver); err != nil {
		t.Fatalf("set tier: %v", err)
	}
	if err := products.SetTier(ctx, "nope", models.TierSilver); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	byID, err := products.GetByIDs(ctx, []string{"pg-card-0", "nope"})
	if err != nil {
		t.Fatalf("get by ids: %v", err)
	}
	if len(byID) != 1 || *byID["pg-card-0"].Tier != models.TierSilver {
		t.Fatalf("unexpected products: %+v", byID)
	}
}

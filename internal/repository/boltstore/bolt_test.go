package boltstore

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Cheertaboi/bundle-deal-service/internal/models"
	"github.com/Cheertaboi/bundle-deal-service/internal/repository"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	// deterministic, strictly increasing clock
	var mu sync.Mutex
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		clock = clock.Add(time.Second)
		return clock
	}
	return s
}

func newDeal(code string, active bool) *models.Deal {
	return &models.Deal{
		Code:  code,
		Name:  "Tier sampler",
		Price: decimal.RequireFromString("24.99"),
		Requirements: models.Requirements{
			models.TierBronze:   1,
			models.TierSilver:   1,
			models.TierGold:     1,
			models.TierPlatinum: 1,
		},
		IsActive:  active,
		CreatedBy: "admin-1",
	}
}

func TestCreateAssignsIDAndCounters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	d := newDeal("sampler", true)
	d.TimesUsed = 7
	if err := s.Create(ctx, d); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.ID == "" {
		t.Fatal("expected id to be assigned")
	}
	if d.TimesUsed != 0 {
		t.Fatalf("expected timesUsed=0, got %d", d.TimesUsed)
	}
	if d.Code != "SAMPLER" {
		t.Fatalf("expected normalized code, got %q", d.Code)
	}

	got, err := s.GetByID(ctx, d.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.Name != d.Name || !got.Price.Equal(d.Price) {
		t.Fatalf("unexpected stored deal: %+v", got)
	}
	if !got.CreatedAt.Equal(got.UpdatedAt) {
		t.Fatal("createdAt and updatedAt should match on create")
	}
}

func TestGetByIDMissing(t *testing.T) {
	s := newTestStore(t)
	got, err := s.GetByID(context.Background(), "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}

func TestCreateDuplicateActiveCode(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Create(ctx, newDeal("dup", true)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rejected := newDeal("DUP", true)
	err := s.Create(ctx, rejected)
	if !errors.Is(err, repository.ErrDuplicateCode) {
		t.Fatalf("expected ErrDuplicateCode, got %v", err)
	}
	if rejected.ID != "" || !rejected.CreatedAt.IsZero() {
		t.Fatalf("failed create must leave the deal untouched, got id=%q createdAt=%v", rejected.ID, rejected.CreatedAt)
	}

	// an inactive deal may share the code
	if err := s.Create(ctx, newDeal("dup", false)); err != nil {
		t.Fatalf("inactive duplicate should be allowed: %v", err)
	}
}

func TestUpdateMergesFields(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	d := newDeal("merge", true)
	if err := s.Create(ctx, d); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	name := "Renamed"
	price := decimal.NewFromInt(30)
	updated, err := s.Update(ctx, d.ID, models.DealUpdate{Name: &name, Price: &price})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Name != "Renamed" || !updated.Price.Equal(price) {
		t.Fatalf("fields not merged: %+v", updated)
	}
	if updated.Description != d.Description || updated.Code != "MERGE" {
		t.Fatalf("untouched fields changed: %+v", updated)
	}
	if !updated.UpdatedAt.After(d.UpdatedAt) {
		t.Fatal("expected updatedAt to be refreshed")
	}
	if !updated.CreatedAt.Equal(d.CreatedAt) {
		t.Fatal("createdAt must not change")
	}
}

func TestUpdateNotFound(t *testing.T) {
	s := newTestStore(t)
	name := "x"
	_, err := s.Update(context.Background(), "nonexistent", models.DealUpdate{Name: &name})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateCodeCollision(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := newDeal("alpha", true)
	b := newDeal("beta", true)
	for _, d := range []*models.Deal{a, b} {
		if err := s.Create(ctx, d); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	code := "alpha"
	_, err := s.Update(ctx, b.ID, models.DealUpdate{Code: &code})
	if !errors.Is(err, repository.ErrDuplicateCode) {
		t.Fatalf("expected ErrDuplicateCode, got %v", err)
	}
}

func TestToggleActive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	d := newDeal("toggle", true)
	if err := s.Create(ctx, d); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	active, err := s.ToggleActive(ctx, d.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if active {
		t.Fatal("expected deal to be inactive after first toggle")
	}
	active, err = s.ToggleActive(ctx, d.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !active {
		t.Fatal("expected deal to be active after second toggle")
	}

	if _, err := s.ToggleActive(ctx, "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestToggleOnRejectsTakenCode(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	live := newDeal("same", true)
	parked := newDeal("same", false)
	for _, d := range []*models.Deal{live, parked} {
		if err := s.Create(ctx, d); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if _, err := s.ToggleActive(ctx, parked.ID); !errors.Is(err, repository.ErrDuplicateCode) {
		t.Fatalf("expected ErrDuplicateCode, got %v", err)
	}
	got, _ := s.GetByID(ctx, parked.ID)
	if got.IsActive {
		t.Fatal("rejected toggle must not be persisted")
	}
}

func TestDeleteIdempotency(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	d := newDeal("gone", true)
	if err := s.Create(ctx, d); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Delete(ctx, d.ID); err != nil {
		t.Fatalf("unexpected error on first delete: %v", err)
	}
	if err := s.Delete(ctx, d.ID); err != nil {
		t.Fatalf("unexpected error on second delete: %v", err)
	}
	if got, _ := s.GetByID(ctx, d.ID); got != nil {
		t.Fatal("expected deal to be gone")
	}
}

func TestListOrderAndActiveFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := newDeal("one", true)
	second := newDeal("two", false)
	third := newDeal("three", true)
	for _, d := range []*models.Deal{first, second, third} {
		if err := s.Create(ctx, d); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	all, err := s.List(ctx, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 deals, got %d", len(all))
	}
	if all[0].ID != third.ID || all[1].ID != second.ID || all[2].ID != first.ID {
		t.Fatalf("expected newest first, got %s, %s, %s", all[0].Code, all[1].Code, all[2].Code)
	}

	active, err := s.List(ctx, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(active) != 2 || active[0].ID != third.ID || active[1].ID != first.ID {
		t.Fatalf("unexpected active list: %+v", active)
	}
}

func TestListEmpty(t *testing.T) {
	s := newTestStore(t)
	deals, err := s.List(context.Background(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deals == nil || len(deals) != 0 {
		t.Fatalf("expected empty non-nil list, got %v", deals)
	}
}

func TestGetByCodeCaseInsensitiveAndActiveOnly(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	d := newDeal("TestBundle", true)
	if err := s.Create(ctx, d); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lower, err := s.GetByCode(ctx, "testbundle")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	upper, err := s.GetByCode(ctx, "TESTBUNDLE")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lower == nil || upper == nil || lower.ID != d.ID || upper.ID != d.ID {
		t.Fatalf("expected both lookups to find %s", d.ID)
	}

	if _, err := s.ToggleActive(ctx, d.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := s.GetByCode(ctx, "testbundle")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Fatal("inactive deal must not be returned by code")
	}
}

func TestIncrementUsageConcurrent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	d := newDeal("busy", true)
	if err := s.Create(ctx, d); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	const n = 50
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.IncrementUsage(ctx, d.ID)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	got, _ := s.GetByID(ctx, d.ID)
	if got.TimesUsed != n {
		t.Fatalf("expected timesUsed=%d, got %d", n, got.TimesUsed)
	}
}

func TestIncrementUsageMissing(t *testing.T) {
	s := newTestStore(t)
	err := s.IncrementUsage(context.Background(), "missing")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

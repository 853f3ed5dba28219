package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestClassifyBoundaries(t *testing.T) {
	cases := []struct {
		price string
		want  Tier
	}{
		{"0", TierBronze},
		{"4.99", TierBronze},
		{"5.00", TierSilver},
		{"19.99", TierSilver},
		{"20.00", TierGold},
		{"49.99", TierGold},
		{"50.00", TierPlatinum},
		{"1250", TierPlatinum},
		{"-3", TierBronze},
	}
	for _, c := range cases {
		got := Classify(decimal.RequireFromString(c.price))
		if got != c.want {
			t.Errorf("Classify(%s) = %s, want %s", c.price, got, c.want)
		}
	}
}

func TestClassificationPricePrefersAverageSold(t *testing.T) {
	item := CatalogItem{
		Price: decimal.NewFromInt(3),
		MarketData: MarketData{
			AverageSoldPrice: decimal.NewNullDecimal(decimal.NewFromInt(60)),
		},
	}
	if got := ClassificationPrice(item); !got.Equal(decimal.NewFromInt(60)) {
		t.Fatalf("expected average sold price, got %s", got)
	}
	if Classify(ClassificationPrice(item)) != TierPlatinum {
		t.Fatal("expected platinum from average sold price")
	}
}

func TestClassificationPriceFallsBack(t *testing.T) {
	zeroAvg := CatalogItem{
		Price:      decimal.NewFromInt(12),
		MarketData: MarketData{AverageSoldPrice: decimal.NewNullDecimal(decimal.Zero)},
	}
	if got := ClassificationPrice(zeroAvg); !got.Equal(decimal.NewFromInt(12)) {
		t.Fatalf("zero average should fall back to price, got %s", got)
	}

	var empty CatalogItem
	if got := ClassificationPrice(empty); !got.IsZero() {
		t.Fatalf("expected 0 for an item without prices, got %s", got)
	}
	if Classify(ClassificationPrice(empty)) != TierBronze {
		t.Fatal("item without prices should be bronze")
	}
}

func TestParseTier(t *testing.T) {
	got, err := ParseTier(" Gold ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != TierGold {
		t.Fatalf("expected gold, got %s", got)
	}
	if _, err := ParseTier("diamond"); err == nil {
		t.Fatal("expected error for unknown tier")
	}
}

func TestTierTitle(t *testing.T) {
	if TierPlatinum.Title() != "Platinum" {
		t.Fatalf("unexpected title %q", TierPlatinum.Title())
	}
}

func TestRequirementsValidate(t *testing.T) {
	if err := (Requirements{TierGold: 2}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := (Requirements{TierGold: -1}).Validate(); err == nil {
		t.Fatal("expected error for negative count")
	}
	if err := (Requirements{Tier("diamond"): 1}).Validate(); err == nil {
		t.Fatal("expected error for unknown tier")
	}
}

func TestRequirementsScan(t *testing.T) {
	var r Requirements
	if err := r.Scan([]byte(`{"bronze":1,"platinum":2}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Count(TierBronze) != 1 || r.Count(TierPlatinum) != 2 || r.Count(TierSilver) != 0 {
		t.Fatalf("unexpected requirements: %v", r)
	}
	if err := r.Scan(nil); err != nil || len(r) != 0 {
		t.Fatalf("expected empty requirements from NULL, got %v (%v)", r, err)
	}
}

func TestNormalizeCode(t *testing.T) {
	if NormalizeCode("  testbundle ") != "TESTBUNDLE" {
		t.Fatal("expected trimmed uppercase code")
	}
}

func TestDealUpdateApply(t *testing.T) {
	d := Deal{Code: "OLD", Name: "Old", IsActive: true}
	name := "New"
	code := "fresh"
	off := false
	DealUpdate{Name: &name, Code: &code, IsActive: &off}.Apply(&d)
	if d.Name != "New" || d.Code != "FRESH" || d.IsActive {
		t.Fatalf("unexpected deal after update: %+v", d)
	}
}

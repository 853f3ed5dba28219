package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type Tier string

const (
	TierBronze   Tier = "bronze"
	TierSilver   Tier = "silver"
	TierGold     Tier = "gold"
	TierPlatinum Tier = "platinum"
)

// AllTiers is the fixed reporting order used by validation messages.
var AllTiers = []Tier{TierBronze, TierSilver, TierGold, TierPlatinum}

// price thresholds, lower bound inclusive
var (
	silverFloor   = decimal.NewFromInt(5)
	goldFloor     = decimal.NewFromInt(20)
	platinumFloor = decimal.NewFromInt(50)
)

func (t Tier) Valid() bool {
	switch t {
	case TierBronze, TierSilver, TierGold, TierPlatinum:
		return true
	}
	return false
}

// Title returns the display form used in shopper-facing messages, e.g. "Bronze".
func (t Tier) Title() string {
	s := string(t)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// ParseTier accepts any casing of the four tier names.
func ParseTier(s string) (Tier, error) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown tier %q", s)
	}
	return t, nil
}

// Classify maps a market price to a tier. Negative prices fall into bronze.
func Classify(price decimal.Decimal) Tier {
	switch {
	case price.LessThan(silverFloor):
		return TierBronze
	case price.LessThan(goldFloor):
		return TierSilver
	case price.LessThan(platinumFloor):
		return TierGold
	default:
		return TierPlatinum
	}
}

// ClassificationPrice prefers the average sold price when it is known and non-zero.
func ClassificationPrice(item CatalogItem) decimal.Decimal {
	avg := item.MarketData.AverageSoldPrice
	if avg.Valid && !avg.Decimal.IsZero() {
		return avg.Decimal
	}
	return item.Price
}

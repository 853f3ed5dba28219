package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// StatusAvailable is the only catalog status that takes part in tier browsing.
const StatusAvailable = "available"

type MarketData struct {
	AverageSoldPrice decimal.NullDecimal `json:"averageSoldPrice"`
}

// CatalogItem is the subset of a product record the deal engine reads and writes.
type CatalogItem struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	MarketData MarketData      `json:"marketData"`
	Tier       *Tier           `json:"multiCardTier,omitempty"`
	Status     string          `json:"status"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

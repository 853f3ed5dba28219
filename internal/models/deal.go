package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Requirements is the exact number of items per tier a deal needs.
// A tier absent from the map requires zero items.
type Requirements map[Tier]int

func (r Requirements) Count(t Tier) int {
	if r == nil {
		return 0
	}
	return r[t]
}

// Validate rejects unknown tiers and negative counts.
func (r Requirements) Validate() error {
	for t, n := range r {
		if !t.Valid() {
			return fmt.Errorf("unknown tier %q in requirements", t)
		}
		if n < 0 {
			return fmt.Errorf("requirement for %s must not be negative", t)
		}
	}
	return nil
}

// Value stores requirements as a JSONB document.
func (r Requirements) Value() (driver.Value, error) {
	if r == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(r)
}

func (r *Requirements) Scan(src interface{}) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		*r = Requirements{}
		return nil
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("requirements: unsupported scan type %T", src)
	}
	out := Requirements{}
	if err := json.Unmarshal(b, &out); err != nil {
		return fmt.Errorf("requirements: %w", err)
	}
	*r = out
	return nil
}

// Deal is a promotional bundle sold at a fixed price.
type Deal struct {
	ID           string          `json:"id"`
	Code         string          `json:"code"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	Requirements Requirements    `json:"requirements"`
	IsActive     bool            `json:"isActive"`
	TimesUsed    int64           `json:"timesUsed"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
	CreatedBy    string          `json:"createdBy"`
}

// DealUpdate carries the fields of a partial update; nil fields are left unchanged.
type DealUpdate struct {
	Code         *string          `json:"code,omitempty"`
	Name         *string          `json:"name,omitempty"`
	Description  *string          `json:"description,omitempty"`
	Price        *decimal.Decimal `json:"price,omitempty"`
	Requirements Requirements     `json:"requirements,omitempty"`
	IsActive     *bool            `json:"isActive,omitempty"`
}

// Apply merges the update over d. Timestamps are left to the store.
func (u DealUpdate) Apply(d *Deal) {
	if u.Code != nil {
		d.Code = NormalizeCode(*u.Code)
	}
	if u.Name != nil {
		d.Name = *u.Name
	}
	if u.Description != nil {
		d.Description = *u.Description
	}
	if u.Price != nil {
		d.Price = *u.Price
	}
	if u.Requirements != nil {
		d.Requirements = u.Requirements
	}
	if u.IsActive != nil {
		d.IsActive = *u.IsActive
	}
}

// NormalizeCode is the stored and looked-up form of a deal code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

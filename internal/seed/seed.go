// Package seed loads deals and catalog items from a YAML file into the stores.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/Cheertaboi/bundle-deal-service/internal/models"
	"github.com/Cheertaboi/bundle-deal-service/internal/repository"
)

// CreatedBy marks deals written by the seeder.
const CreatedBy = "system-seeder"

type DealSeed struct {
	Code         string         `yaml:"code"`
	Name         string         `yaml:"name"`
	Description  string         `yaml:"description"`
	Price        string         `yaml:"price"`
	Requirements map[string]int `yaml:"requirements"`
	Active       *bool          `yaml:"active"`
}

type ProductSeed struct {
	ID               string `yaml:"id"`
	Name             string `yaml:"name"`
	Price            string `yaml:"price"`
	AverageSoldPrice string `yaml:"averageSoldPrice"`
	Tier             string `yaml:"tier"`
	Status           string `yaml:"status"`
}

type File struct {
	Deals    []DealSeed    `yaml:"deals"`
	Products []ProductSeed `yaml:"products"`
}

type DealCreator interface {
	CreateDeal(ctx context.Context, d *models.Deal) (string, error)
}

type ProductWriter interface {
	Upsert(ctx context.Context, p *models.CatalogItem) error
}

type Result struct {
	DealsCreated     int
	DealsSkipped     int
	ProductsUpserted int
}

func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("seed %s: %w", path, err)
	}
	return f, nil
}

func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing seed: %w", err)
	}
	return &f, nil
}

// Apply upserts products first, then creates deals. A deal whose code is
// already held by an active deal is skipped.
func Apply(ctx context.Context, f *File, deals DealCreator, products ProductWriter, logger *slog.Logger) (Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var res Result

	for i, ps := range f.Products {
		p, err := ps.toItem()
		if err != nil {
			return res, fmt.Errorf("product %d (%s): %w", i, ps.ID, err)
		}
		if err := products.Upsert(ctx, p); err != nil {
			return res, fmt.Errorf("upsert product %s: %w", ps.ID, err)
		}
		res.ProductsUpserted++
	}

	for i, ds := range f.Deals {
		d, err := ds.toDeal()
		if err != nil {
			return res, fmt.Errorf("deal %d (%s): %w", i, ds.Code, err)
		}
		id, err := deals.CreateDeal(ctx, d)
		if errors.Is(err, repository.ErrDuplicateCode) {
			logger.Info("seed deal already exists", "code", d.Code)
			res.DealsSkipped++
			continue
		}
		if err != nil {
			return res, fmt.Errorf("create deal %s: %w", ds.Code, err)
		}
		logger.Info("seeded deal", "code", d.Code, "deal_id", id)
		res.DealsCreated++
	}
	return res, nil
}

func parseMoney(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func (ds DealSeed) toDeal() (*models.Deal, error) {
	price, err := parseMoney(ds.Price)
	if err != nil {
		return nil, fmt.Errorf("price: %w", err)
	}
	req := models.Requirements{}
	for name, n := range ds.Requirements {
		t, err := models.ParseTier(name)
		if err != nil {
			return nil, err
		}
		req[t] = n
	}
	active := true
	if ds.Active != nil {
		active = *ds.Active
	}
	return &models.Deal{
		Code:         ds.Code,
		Name:         ds.Name,
		Description:  ds.Description,
		Price:        price,
		Requirements: req,
		IsActive:     active,
		CreatedBy:    CreatedBy,
	}, nil
}

func (ps ProductSeed) toItem() (*models.CatalogItem, error) {
	if ps.ID == "" {
		return nil, errors.New("id is required")
	}
	price, err := parseMoney(ps.Price)
	if err != nil {
		return nil, fmt.Errorf("price: %w", err)
	}
	p := &models.CatalogItem{ID: ps.ID, Name: ps.Name, Price: price, Status: ps.Status}
	if ps.AverageSoldPrice != "" {
		avg, err := decimal.NewFromString(ps.AverageSoldPrice)
		if err != nil {
			return nil, fmt.Errorf("averageSoldPrice: %w", err)
		}
		p.MarketData.AverageSoldPrice = decimal.NewNullDecimal(avg)
	}
	if ps.Tier != "" {
		t, err := models.ParseTier(ps.Tier)
		if err != nil {
			return nil, err
		}
		p.Tier = &t
	}
	return p, nil
}

package boltstore

import (
	"context"
	"encoding/json"

	bolt "github.com/boltdb/bolt"

	"github.com/Cheertaboi/bundle-deal-service/internal/models"
	"github.com/Cheertaboi/bundle-deal-service/internal/repository"
)

// ProductStore is the catalog view of a Store.
type ProductStore struct {
	s *Store
}

// Products returns the catalog view sharing this store's database.
func (s *Store) Products() *ProductStore {
	return &ProductStore{s: s}
}

func getProduct(b *bolt.Bucket, id string) (*models.CatalogItem, error) {
	v := b.Get([]byte(id))
	if v == nil {
		return nil, nil
	}
	var p models.CatalogItem
	if err := json.Unmarshal(v, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func putProduct(b *bolt.Bucket, p *models.CatalogItem) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return b.Put([]byte(p.ID), data)
}

func (ps *ProductStore) GetByID(ctx context.Context, id string) (*models.CatalogItem, error) {
	var p *models.CatalogItem
	err := ps.s.db.View(func(tx *bolt.Tx) error {
		var err error
		p, err = getProduct(tx.Bucket(productsBucket), id)
		return err
	})
	return p, err
}

func (ps *ProductStore) GetByIDs(ctx context.Context, ids []string) (map[string]models.CatalogItem, error) {
	out := make(map[string]models.CatalogItem, len(ids))
	err := ps.s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(productsBucket)
		for _, id := range ids {
			p, err := getProduct(b, id)
			if err != nil {
				return err
			}
			if p != nil {
				out[id] = *p
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (ps *ProductStore) SetTier(ctx context.Context, id string, tier models.Tier) error {
	return ps.s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(productsBucket)
		p, err := getProduct(b, id)
		if err != nil {
			return err
		}
		if p == nil {
			return repository.ErrNotFound
		}
		t := tier
		p.Tier = &t
		p.UpdatedAt = ps.s.now()
		return putProduct(b, p)
	})
}

// ListByTier stops scanning once limit available items of the tier are found.
func (ps *ProductStore) ListByTier(ctx context.Context, tier models.Tier, limit int) ([]models.CatalogItem, error) {
	items := []models.CatalogItem{}
	err := ps.s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(productsBucket).Cursor()
		for k, v := c.First(); k != nil && len(items) < limit; k, v = c.Next() {
			var p models.CatalogItem
			if err := json.Unmarshal(v, &p); err != nil {
				return err
			}
			if p.Tier != nil && *p.Tier == tier && p.Status == models.StatusAvailable {
				items = append(items, p)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (ps *ProductStore) Upsert(ctx context.Context, p *models.CatalogItem) error {
	if p.Status == "" {
		p.Status = models.StatusAvailable
	}
	return ps.s.db.Update(func(tx *bolt.Tx) error {
		p.UpdatedAt = ps.s.now()
		return putProduct(tx.Bucket(productsBucket), p)
	})
}

// Package boltstore keeps deals and catalog items as JSON documents in an
// embedded BoltDB file. It implements the same repository contracts as the
// Postgres repositories and is used for single-node deployments and tests.
//
// Bolt allows one write transaction at a time, so every read-modify-write
// below (update, toggle, usage increment, code uniqueness check) runs inside
// a single db.Update call and cannot interleave with another writer.
package boltstore

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	bolt "github.com/boltdb/bolt"
	"github.com/google/uuid"

	"github.com/Cheertaboi/bundle-deal-service/internal/models"
	"github.com/Cheertaboi/bundle-deal-service/internal/repository"
)

var (
	dealsBucket    = []byte("deals")
	productsBucket = []byte("products")
)

// Store wraps a BoltDB database holding the deals and products buckets.
type Store struct {
	db  *bolt.DB
	now func() time.Time
}

// New opens (or creates) the database file and ensures both buckets exist.
func New(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{dealsBucket, productsBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Close releases the database file lock.
func (s *Store) Close() error {
	return s.db.Close()
}

func getDeal(b *bolt.Bucket, id string) (*models.Deal, error) {
	v := b.Get([]byte(id))
	if v == nil {
		return nil, nil
	}
	var d models.Deal
	if err := json.Unmarshal(v, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func putDeal(b *bolt.Bucket, d *models.Deal) error {
	data, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return b.Put([]byte(d.ID), data)
}

// activeCodeTaken reports whether another active deal already uses code.
func activeCodeTaken(b *bolt.Bucket, code, exceptID string) (bool, error) {
	taken := false
	err := b.ForEach(func(k, v []byte) error {
		if taken || string(k) == exceptID {
			return nil
		}
		var d models.Deal
		if err := json.Unmarshal(v, &d); err != nil {
			return err
		}
		if d.IsActive && d.Code == code {
			taken = true
		}
		return nil
	})
	return taken, err
}

// Create fills in d's id, counters and timestamps only after the write commits.
func (s *Store) Create(ctx context.Context, d *models.Deal) error {
	nd := *d
	nd.ID = uuid.New().String()
	nd.Code = models.NormalizeCode(nd.Code)
	nd.TimesUsed = 0
	if nd.Requirements == nil {
		nd.Requirements = models.Requirements{}
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(dealsBucket)
		if nd.IsActive {
			taken, err := activeCodeTaken(b, nd.Code, nd.ID)
			if err != nil {
				return err
			}
			if taken {
				return repository.ErrDuplicateCode
			}
		}

		now := s.now()
		nd.CreatedAt = now
		nd.UpdatedAt = now
		return putDeal(b, &nd)
	})
	if err != nil {
		return err
	}
	*d = nd
	return nil
}

func (s *Store) Update(ctx context.Context, id string, u models.DealUpdate) (*models.Deal, error) {
	var result *models.Deal
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(dealsBucket)
		d, err := getDeal(b, id)
		if err != nil {
			return err
		}
		if d == nil {
			return repository.ErrNotFound
		}

		u.Apply(d)
		if d.IsActive {
			taken, err := activeCodeTaken(b, d.Code, d.ID)
			if err != nil {
				return err
			}
			if taken {
				return repository.ErrDuplicateCode
			}
		}

		d.UpdatedAt = s.now()
		result = d
		return putDeal(b, d)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) ToggleActive(ctx context.Context, id string) (bool, error) {
	var active bool
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(dealsBucket)
		d, err := getDeal(b, id)
		if err != nil {
			return err
		}
		if d == nil {
			return repository.ErrNotFound
		}

		d.IsActive = !d.IsActive
		if d.IsActive {
			taken, err := activeCodeTaken(b, d.Code, d.ID)
			if err != nil {
				return err
			}
			if taken {
				return repository.ErrDuplicateCode
			}
		}

		d.UpdatedAt = s.now()
		active = d.IsActive
		return putDeal(b, d)
	})
	return active, err
}

// Delete removes a deal; deleting a missing key is a no-op in bolt.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(dealsBucket).Delete([]byte(id))
	})
}

func (s *Store) List(ctx context.Context, activeOnly bool) ([]models.Deal, error) {
	deals := []models.Deal{}
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(dealsBucket).ForEach(func(k, v []byte) error {
			var d models.Deal
			if err := json.Unmarshal(v, &d); err != nil {
				return err
			}
			if activeOnly && !d.IsActive {
				return nil
			}
			deals = append(deals, d)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(deals, func(i, j int) bool {
		if deals[i].CreatedAt.Equal(deals[j].CreatedAt) {
			return deals[i].ID > deals[j].ID
		}
		return deals[i].CreatedAt.After(deals[j].CreatedAt)
	})
	return deals, nil
}

func (s *Store) GetByID(ctx context.Context, id string) (*models.Deal, error) {
	var d *models.Deal
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		d, err = getDeal(tx.Bucket(dealsBucket), id)
		return err
	})
	return d, err
}

func (s *Store) GetByCode(ctx context.Context, code string) (*models.Deal, error) {
	code = models.NormalizeCode(code)
	var found *models.Deal
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(dealsBucket).ForEach(func(k, v []byte) error {
			if found != nil {
				return nil
			}
			var d models.Deal
			if err := json.Unmarshal(v, &d); err != nil {
				return err
			}
			if d.IsActive && d.Code == code {
				found = &d
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// IncrementUsage adds one to times_used inside a single write transaction.
func (s *Store) IncrementUsage(ctx context.Context, dealID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(dealsBucket)
		d, err := getDeal(b, dealID)
		if err != nil {
			return err
		}
		if d == nil {
			return repository.ErrNotFound
		}
		d.TimesUsed++
		d.UpdatedAt = s.now()
		return putDeal(b, d)
	})
}

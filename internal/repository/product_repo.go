package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/Cheertaboi/bundle-deal-service/internal/models"
)

const productColumns = `id, name, price, avg_sold_price, multi_card_tier, status, updated_at`

// ProductRepo reads and writes the catalog fields the deal engine owns.
type ProductRepo struct {
	db *sql.DB
}

func NewProductRepo(db *sql.DB) *ProductRepo {
	return &ProductRepo{db: db}
}

func scanProduct(row rowScanner) (*models.CatalogItem, error) {
	var (
		p    models.CatalogItem
		tier sql.NullString
	)
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Price,
		&p.MarketData.AverageSoldPrice,
		&tier,
		&p.Status,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if tier.Valid {
		t := models.Tier(tier.String)
		p.Tier = &t
	}
	return &p, nil
}

func (r *ProductRepo) GetByID(ctx context.Context, id string) (*models.CatalogItem, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// GetByIDs returns the products that exist, keyed by id.
func (r *ProductRepo) GetByIDs(ctx context.Context, ids []string) (map[string]models.CatalogItem, error) {
	out := make(map[string]models.CatalogItem, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out[p.ID] = *p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}
	return out, nil
}

func (r *ProductRepo) SetTier(ctx context.Context, id string, tier models.Tier) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE products SET multi_card_tier = $2, updated_at = NOW() WHERE id = $1`,
		id, string(tier))
	if err != nil {
		return fmt.Errorf("set tier: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set tier: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByTier filters on tier and status in the query, so limit counts available items only.
func (r *ProductRepo) ListByTier(ctx context.Context, tier models.Tier, limit int) ([]models.CatalogItem, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE multi_card_tier = $1 AND status = $2
		ORDER BY updated_at DESC
		LIMIT $3
	`
	rows, err := r.db.QueryContext(ctx, query, string(tier), models.StatusAvailable, limit)
	if err != nil {
		return nil, fmt.Errorf("list by tier: %w", err)
	}
	defer rows.Close()

	items := []models.CatalogItem{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		items = append(items, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list by tier: %w", err)
	}
	return items, nil
}

// Upsert inserts or replaces a catalog item by id.
func (r *ProductRepo) Upsert(ctx context.Context, p *models.CatalogItem) error {
	var tier sql.NullString
	if p.Tier != nil {
		tier = sql.NullString{String: string(*p.Tier), Valid: true}
	}
	if p.Status == "" {
		p.Status = models.StatusAvailable
	}
	query := `
		INSERT INTO products (id, name, price, avg_sold_price, multi_card_tier, status, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			price = EXCLUDED.price,
			avg_sold_price = EXCLUDED.avg_sold_price,
			multi_card_tier = EXCLUDED.multi_card_tier,
			status = EXCLUDED.status,
			updated_at = NOW()
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		p.ID,
		p.Name,
		p.Price,
		p.MarketData.AverageSoldPrice,
		tier,
		p.Status,
	).Scan(&p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert product: %w", err)
	}
	return nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Cheertaboi/bundle-deal-service/internal/models"
)

const dealColumns = `id, code, name, description, price, requirements, is_active,
	times_used, created_at, updated_at, created_by`

type DealRepo struct {
	db *sql.DB
}

func NewDealRepo(db *sql.DB) *DealRepo {
	return &DealRepo{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDeal(row rowScanner) (*models.Deal, error) {
	var d models.Deal
	err := row.Scan(
		&d.ID,
		&d.Code,
		&d.Name,
		&d.Description,
		&d.Price,
		&d.Requirements,
		&d.IsActive,
		&d.TimesUsed,
		&d.CreatedAt,
		&d.UpdatedAt,
		&d.CreatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Create assigns the id, resets the usage counter and stamps both timestamps.
// d is only modified once the insert has succeeded.
func (r *DealRepo) Create(ctx context.Context, d *models.Deal) error {
	nd := *d
	nd.ID = uuid.New().String()
	nd.Code = models.NormalizeCode(nd.Code)
	nd.TimesUsed = 0
	if nd.Requirements == nil {
		nd.Requirements = models.Requirements{}
	}

	query := `
		INSERT INTO deals
		(id, code, name, description, price, requirements, is_active, times_used, created_at, updated_at, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,0,NOW(),NOW(),$8)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		nd.ID,
		nd.Code,
		nd.Name,
		nd.Description,
		nd.Price,
		nd.Requirements,
		nd.IsActive,
		nd.CreatedBy,
	).Scan(&nd.CreatedAt, &nd.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert deal: %w", mapWriteErr(err))
	}
	*d = nd
	return nil
}

// Update locks the row, merges the supplied fields and writes it back.
func (r *DealRepo) Update(ctx context.Context, id string, u models.DealUpdate) (*models.Deal, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	d, err := scanDeal(tx.QueryRowContext(ctx,
		`SELECT `+dealColumns+` FROM deals WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lock deal: %w", err)
	}

	u.Apply(d)

	query := `
		UPDATE deals
		SET code = $2, name = $3, description = $4, price = $5,
		    requirements = $6, is_active = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err = tx.QueryRowContext(ctx, query,
		d.ID,
		d.Code,
		d.Name,
		d.Description,
		d.Price,
		d.Requirements,
		d.IsActive,
	).Scan(&d.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("update deal: %w", mapWriteErr(err))
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", mapWriteErr(err))
	}
	return d, nil
}

// ToggleActive flips is_active in a single statement.
func (r *DealRepo) ToggleActive(ctx context.Context, id string) (bool, error) {
	query := `
		UPDATE deals
		SET is_active = NOT is_active, updated_at = NOW()
		WHERE id = $1
		RETURNING is_active
	`
	var active bool
	err := r.db.QueryRowContext(ctx, query, id).Scan(&active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("toggle deal: %w", mapWriteErr(err))
	}
	return active, nil
}

// Delete is a hard delete; a missing id is not an error.
func (r *DealRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM deals WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete deal: %w", err)
	}
	return nil
}

func (r *DealRepo) List(ctx context.Context, activeOnly bool) ([]models.Deal, error) {
	query := `SELECT ` + dealColumns + ` FROM deals`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list deals: %w", err)
	}
	defer rows.Close()

	deals := []models.Deal{}
	for rows.Next() {
		d, err := scanDeal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan deal: %w", err)
		}
		deals = append(deals, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list deals: %w", err)
	}
	return deals, nil
}

func (r *DealRepo) GetByID(ctx context.Context, id string) (*models.Deal, error) {
	d, err := scanDeal(r.db.QueryRowContext(ctx,
		`SELECT `+dealColumns+` FROM deals WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get deal: %w", err)
	}
	return d, nil
}

// GetByCode only ever matches an active deal.
func (r *DealRepo) GetByCode(ctx context.Context, code string) (*models.Deal, error) {
	d, err := scanDeal(r.db.QueryRowContext(ctx,
		`SELECT `+dealColumns+` FROM deals WHERE code = $1 AND is_active = TRUE LIMIT 1`,
		models.NormalizeCode(code)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get deal by code: %w", err)
	}
	return d, nil
}

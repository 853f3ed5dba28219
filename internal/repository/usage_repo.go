package repository

import (
	"context"
	"database/sql"
	"fmt"
)

type UsageRepo struct {
	db *sql.DB
}

func NewUsageRepo(db *sql.DB) *UsageRepo {
	return &UsageRepo{db: db}
}

// IncrementUsage bumps times_used in the database so concurrent redemptions never lose a count.
func (r *UsageRepo) IncrementUsage(ctx context.Context, dealID string) error {
	query := `
		UPDATE deals
		SET times_used = times_used + 1,
		    updated_at = NOW()
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, dealID)
	if err != nil {
		return fmt.Errorf("increment usage: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("increment usage: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

package repository

import (
	"errors"

	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned by mutations whose target does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateCode is returned when a write would leave two active deals with one code.
	ErrDuplicateCode = errors.New("an active deal with this code already exists")
)

const (
	uniqueViolation     = "23505"
	activeCodeIndexName = "deals_active_code_idx"
)

// mapWriteErr turns the active-code unique index violation into ErrDuplicateCode.
func mapWriteErr(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation && pqErr.Constraint == activeCodeIndexName {
		return ErrDuplicateCode
	}
	return err
}

package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	// ErrDuplicate wraps a unique-constraint violation (SQLSTATE 23505).
	ErrDuplicate = errors.New("duplicate key")
	// ErrStaleVersion is returned when an optimistic update matched no row.
	ErrStaleVersion = errors.New("stale version")
)

const uniqueViolation = "23505"

// translate maps driver errors onto the package sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return &DuplicateError{Constraint: pgErr.ConstraintName, err: err}
	}
	return err
}

// DuplicateError names the violated constraint.
type DuplicateError struct {
	Constraint string
	err        error
}

func (e *DuplicateError) Error() string { return "duplicate key: " + e.Constraint }
func (e *DuplicateError) Unwrap() []error { return []error{ErrDuplicate, e.err} }

// IsNotFound reports whether err means the row does not exist.
func IsNotFound(err error) bool { return errors.Is(err, gorm.ErrRecordNotFound) }

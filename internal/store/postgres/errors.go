package postgres

import (
	"errors"
	"fmt"

	"github.com/JonMunkholm/estoque-sync/internal/core"
	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes the store reacts to.
const (
	codeUniqueViolation = "23505"
	codeCheckViolation  = "23514"
)

// wrapErr prefixes err with op. A CHECK violation also wraps a
// core.ValidationError naming the constraint, so callers see it as bad data
// rather than a database fault.
func wrapErr(op string, err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return fmt.Errorf("%s: %w", op, err)
	}

	switch pgErr.Code {
	case codeCheckViolation:
		ve := core.ValidationError{Field: pgErr.ConstraintName, Message: "violates check constraint"}
		return fmt.Errorf("%s: %w: %w", op, ve, err)
	case codeUniqueViolation:
		return fmt.Errorf("%s: duplicate key on %s: %w", op, pgErr.ConstraintName, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

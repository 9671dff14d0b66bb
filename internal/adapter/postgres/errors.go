package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/heartmarshall/dictimport/internal/domain"
)

// MapError converts pgx/pgconn errors to domain errors, prefixed with the
// entity and the key it was looked up by.
// context.DeadlineExceeded and context.Canceled are NOT mapped.
func MapError(err error, entity, key string) error {
	if err == nil {
		return nil
	}

	prefix := entity
	if key != "" {
		prefix = fmt.Sprintf("%s %q", entity, key)
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", prefix, err)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", prefix, domain.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%s: %w", prefix, domain.ErrAlreadyExists)
		case "23502", "23514": // not_null_violation, check_violation
			return fmt.Errorf("%s: %w", prefix, domain.ErrValidation)
		case "42P01": // undefined_table
			return fmt.Errorf("%s: %w (run with --migrate)", prefix, err)
		}
	}

	return fmt.Errorf("%s: %w", prefix, err)
}

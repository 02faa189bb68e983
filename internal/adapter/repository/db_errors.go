package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	domainerrors "github.com/cvtoletter/backend/internal/domain/errors"
)

// Postgres SQLSTATE codes that mean "try the transaction again".
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgUniqueViolation      = "23505"
)

// classifyError converts a database error into a ledger error. Serialization
// failures, deadlocks and lost unique races are conflicts; everything else is fatal.
func classifyError(ref string, err error) error {
	if err == nil {
		return nil
	}

	var ledgerErr *domainerrors.LedgerError
	if errors.As(err, &ledgerErr) {
		return err
	}

	if isConflict(err) {
		return domainerrors.NewStorageConflictError(ref, err)
	}
	return domainerrors.NewStorageFatalError(ref, err)
}

func isConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected, pgUniqueViolation:
			return true
		}
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	// sqlite reports lock contention and constraint races as plain strings
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

package persistence

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL error codes the repositories react to
const (
	CodeUniqueViolation   = "23505"
	CodeCheckViolation    = "23514"
	CodeUndefinedFunction = "42883"
)

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsUniqueViolation reports a duplicate key, optionally on a specific constraint
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != CodeUniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

// IsCheckViolation reports a violated CHECK constraint such as a non-negative balance
func IsCheckViolation(err error) bool {
	return pgErrorCode(err) == CodeCheckViolation
}

// IsUndefinedFunction reports a call to a stored procedure that does not exist
func IsUndefinedFunction(err error) bool {
	return pgErrorCode(err) == CodeUndefinedFunction
}

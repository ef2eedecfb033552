// Package repository holds the data access layer: one repo per table, each
// operation validating its input, checking references and duplicates before
// writing, and wrapping every driver failure in a StoreError.
//
// The sentinel values and error types below let handlers map outcomes to
// HTTP responses without inspecting messages.
package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when no (active) row matches.
	ErrNotFound = errors.New("not found")

	// ErrInvalidReference is returned when a referenced row (user, role,
	// project type, member) does not exist.  It is wrapped with detail.
	ErrInvalidReference = errors.New("invalid reference")

	// ErrDuplicateEmail is returned when an email is already registered,
	// soft-deleted accounts included.
	ErrDuplicateEmail = errors.New("email already exists")

	// ErrDuplicateTypeName is returned when an active project type already
	// uses the name.
	ErrDuplicateTypeName = errors.New("type name already exists")

	// ErrInvalidCredentials is returned on an unknown email or a password
	// mismatch.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrAccountDeleted is returned when the credentials match a soft-deleted
	// user.
	ErrAccountDeleted = errors.New("account has been deleted")

	// ErrNoFieldsProvided is returned by partial updates with nothing to set.
	ErrNoFieldsProvided = errors.New("no fields provided")

	// ErrNotDeleted is returned when restoring a row that is not deleted.
	ErrNotDeleted = errors.New("not deleted")

	// ErrNoFileUploaded is the validation failure for a project without a file.
	ErrNoFileUploaded = &ValidationError{Msg: "No file uploaded"}
)

// ValidationError reports malformed or missing input.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func invalid(format string, a ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, a...)}
}

// StoreError wraps a failure of the underlying database.  Its message never
// reaches clients.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *StoreError) Unwrap() error { return e.Err }

func storeErr(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}

// IsDuplicate reports whether err is one of the duplicate-key sentinels.
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicateEmail) || errors.Is(err, ErrDuplicateTypeName)
}

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// pgCode returns the SQLSTATE of a Postgres error, or "".
func pgCode(err error) (code, constraint string) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.ConstraintName
	}
	return "", ""
}

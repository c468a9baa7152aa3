package models

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned for an unknown mockup, comment or version.
	ErrNotFound = errors.New("not found")
	// ErrPasswordRequired is returned when a guarded mockup is read without a password.
	ErrPasswordRequired = errors.New("password required")
	// ErrInvalidPassword is returned when the supplied password does not match.
	ErrInvalidPassword = errors.New("invalid password")
	// ErrForbidden is returned on an author token or ownership mismatch.
	ErrForbidden = errors.New("forbidden")
	// ErrCannotDeleteCurrent is returned when deleting the live or a future version.
	ErrCannotDeleteCurrent = errors.New("cannot delete current version")
	// ErrInvalidInput is returned for malformed caller input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDuplicateID is returned by storage when an insert collides with an
	// existing id. Callers regenerate the id and retry.
	ErrDuplicateID = errors.New("duplicate id")
)

// StorageError wraps a failure of the underlying persistence layer.
// It is the only kind of error a caller may retry.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError wraps err as a StorageError unless it already is one
// or is a domain error that must keep its identity.
func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) || IsDomainError(err) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// IsDomainError reports whether err is one of the terminal outcomes above.
func IsDomainError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrPasswordRequired) ||
		errors.Is(err, ErrInvalidPassword) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrCannotDeleteCurrent) ||
		errors.Is(err, ErrInvalidInput)
}

// IsRetryable reports whether err is a transient storage failure.
func IsRetryable(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("persistence: duplicate record")
	// ErrForeignKeyViolation is returned when a write references a missing row.
	ErrForeignKeyViolation = errors.New("persistence: foreign key violation")
	// ErrConstraintViolation is returned when a CHECK or NOT NULL constraint fails.
	ErrConstraintViolation = errors.New("persistence: constraint violation")
)

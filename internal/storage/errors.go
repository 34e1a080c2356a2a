package storage

import "errors"

// Storage errors shared by all backends.
var (
	// ErrNotFound is returned when a series key has no stored points.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when attempting to insert a record
	// with a key that already exists. The bar archive is append-only and
	// does not allow updates.
	ErrDuplicateKey = errors.New("duplicate key: append-only store does not allow updates")

	// ErrInvalidInput is returned when a write carries rows the store
	// cannot key, such as a nil bar or point.
	ErrInvalidInput = errors.New("invalid input")
)

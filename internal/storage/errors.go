package storage

import "errors"

var (
	// ErrNotFound reports a run or record id with no stored row.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey reports a second write for a run that is already
	// stored. Runs are immutable once persisted.
	ErrDuplicateKey = errors.New("duplicate key: run already persisted")

	// ErrInvalidInput reports a nil record or a missing run id.
	ErrInvalidInput = errors.New("invalid input")
)

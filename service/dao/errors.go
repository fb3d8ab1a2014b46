package dao

import "errors"

// Sentinel errors returned by Service/Store implementations so callers can
// detect conditions via errors.Is instead of string comparisons.

var (
	// ErrNotFound is returned by Load/Delete when the key has no record.
	ErrNotFound = errors.New("dao: not found")

	// ErrInvalidID indicates the supplied key is empty or otherwise invalid.
	ErrInvalidID = errors.New("dao: invalid id")

	// ErrNilEntity is returned by Save when the caller passes a nil pointer.
	ErrNilEntity = errors.New("dao: nil entity")
)

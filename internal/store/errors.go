package store

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyContent rejects captures with neither html nor plain text.
	ErrEmptyContent = errors.New("clipboard content is empty")

	// ErrTooLarge rejects captures whose combined size exceeds the
	// configured cap. Nothing is stored, nothing is truncated.
	ErrTooLarge = errors.New("clipboard content exceeds max record size")

	// ErrNotFound reports a record id that was evicted or never existed.
	ErrNotFound = errors.New("record not found")

	// ErrStorageUnavailable marks failures of the underlying database.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// storageError wraps a driver error so callers can match
// ErrStorageUnavailable with errors.Is while keeping the original cause
// in the chain.
type storageError struct {
	op  string
	err error
}

func (e *storageError) Error() string {
	return fmt.Sprintf("%s: %v", e.op, e.err)
}

func (e *storageError) Unwrap() error {
	return e.err
}

func (e *storageError) Is(target error) bool {
	return target == ErrStorageUnavailable
}

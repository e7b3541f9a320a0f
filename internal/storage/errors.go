package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable means the underlying engine could not be opened at
	// all. Fatal; surfaced to the user with a retry prompt.
	ErrUnavailable = errors.New("storage engine unavailable")

	// ErrNotFound is returned when an id is absent on get/update/delete.
	ErrNotFound = errors.New("record not found")

	// ErrIndexMissing indicates a lookup against an index that was never
	// declared for the collection. This is a programmer error.
	ErrIndexMissing = errors.New("index not declared for collection")
)

// NotFoundError wraps ErrNotFound with the collection and key involved.
func NotFoundError(collection string, id int64) error {
	return fmt.Errorf("%w: %s/%d", ErrNotFound, collection, id)
}

// IndexMissingError wraps ErrIndexMissing with the lookup details.
func IndexMissingError(collection, index string) error {
	return fmt.Errorf("%w: %s.%s", ErrIndexMissing, collection, index)
}

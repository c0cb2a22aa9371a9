// Package storage holds the error taxonomy shared by every persistence adapter.
package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the addressed row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrStorageFailure is returned when the backing store failed to serve a request.
	ErrStorageFailure = errors.New("storage failure")
	// ErrStaleData is returned when a write was based on an outdated version of a row.
	ErrStaleData = errors.New("stale data")
)

// Failure wraps err in ErrStorageFailure for the named operation. The driver
// error text is kept for logs but its value does not cross the boundary.
func Failure(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrStaleData) || errors.Is(err, ErrStorageFailure) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", ErrStorageFailure, op, err)
}

package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates that a requested resource was not found.
	ErrNotFound = errors.New("resource not found")
)

// FetchError wraps any failure while reading the remote inventory. A fetch
// failure aborts the whole reconciliation run; no partial counts are kept.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("remote inventory fetch failed (%s): %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// NewFetchError wraps err with the fetch operation that failed.
func NewFetchError(op string, err error) *FetchError {
	return &FetchError{Op: op, Err: err}
}

package catalog

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when an operation targets a tutorial that does not exist.
var ErrNotFound = errors.New("tutorial not found in catalog")

// ReferenceNotFoundError reports a category or topic name that does not exist in the catalog.
type ReferenceNotFoundError struct {
	Collection string
	Field      string
	Value      string
}

func (e *ReferenceNotFoundError) Error() string {
	return fmt.Sprintf("no %s entry with %s %q", e.Collection, e.Field, e.Value)
}

// BackendError reports a transport, authentication or server failure from the catalog.
type BackendError struct {
	// Op describes the failed request, e.g. "GET /items/tutorials".
	Op string
	// StatusCode is the HTTP status, zero when no response was received.
	StatusCode int
	// Message is the server-provided error message, if any.
	Message string
	Err     error
}

func (e *BackendError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Message != "":
		return fmt.Sprintf("catalog %s: status %d: %s", e.Op, e.StatusCode, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("catalog %s: status %d", e.Op, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("catalog %s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("catalog %s failed", e.Op)
	}
}

func (e *BackendError) Unwrap() error { return e.Err }

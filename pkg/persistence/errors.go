package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrNotFound indicates no definition is stored under the given resource identifier.
	ErrNotFound = errors.New("workflow resource not found")

	// ErrInvalidResource indicates a resource identifier that cannot name a file under the root.
	ErrInvalidResource = errors.New("invalid workflow resource")

	// ErrFetchFailure indicates a remote definition could not be retrieved.
	ErrFetchFailure = errors.New("failed to fetch workflow definition")

	// ErrSpecLoadFailure indicates a declared specification file is missing or corrupt.
	ErrSpecLoadFailure = errors.New("failed to load specification file")
)

// ResourceError wraps storage errors with the operation and resource involved.
type ResourceError struct {
	Op       string // Operation being performed (e.g., "Save", "Delete")
	Resource string // Resource identifier or path
	Err      error  // Underlying error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("%s operation failed for %s: %v", e.Op, e.Resource, e.Err)
}

func (e *ResourceError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for resource errors.
func (e *ResourceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewResourceError creates a new resource error with context.
func NewResourceError(op, resource string, err error) *ResourceError {
	return &ResourceError{
		Op:       op,
		Resource: resource,
		Err:      err,
	}
}

// IsNotFound checks if an error indicates a missing definition.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalidResource checks if an error indicates an unusable resource identifier.
func IsInvalidResource(err error) bool {
	return errors.Is(err, ErrInvalidResource)
}

// IsFetchFailure checks if an error indicates a remote definition could not be read.
func IsFetchFailure(err error) bool {
	return errors.Is(err, ErrFetchFailure)
}

// IsSpecLoadFailure checks if an error indicates a specification file could not be loaded.
func IsSpecLoadFailure(err error) bool {
	return errors.Is(err, ErrSpecLoadFailure)
}

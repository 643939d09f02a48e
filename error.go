package coldbase

import "fmt"

// ErrorCode enumerates Coldbase error categories used across packages.
type ErrorCode int

const (
	// Unknown represents an unspecified error condition.
	Unknown ErrorCode = iota
	// Validation indicates a pre-storage validation failure (name, size, vector shape).
	Validation
	// SizeLimit indicates a mutation batch exceeded the configured maximum size.
	SizeLimit
	// LockActive indicates the lease lock is held (or was just taken over) by another session.
	LockActive
	// PreconditionFailed indicates a conditional blob-store write lost a race.
	PreconditionFailed
	// StorageIO represents a generic, retry-exhausted storage failure.
	StorageIO
)

// Error is a Coldbase-specific error carrying a code, the wrapped error and optional user data.
type Error struct {
	Code     ErrorCode
	Err      error
	UserData any
}

// Error implements the error interface by formatting the code, user data, and wrapped error details.
func (e Error) Error() string {
	return fmt.Errorf("coldbase error code: %d, user data: %v, details: %w", e.Code, e.UserData, e.Err).Error()
}

// Unwrap exposes the wrapped error so errors.Is/errors.As see through to it.
func (e Error) Unwrap() error {
	return e.Err
}

// ValidationError reports a pre-storage validation failure. Never reaches storage.
type ValidationError struct {
	Message string
}

func (e ValidationError) Error() string { return "validation error: " + e.Message }

// SizeLimitError reports that an encoded mutation batch exceeded maxMutationSize.
// Storage is left byte-for-byte unchanged when this is raised (spec P8).
type SizeLimitError struct {
	Size, Limit int
}

func (e SizeLimitError) Error() string {
	return fmt.Sprintf("mutation batch size %d exceeds limit %d", e.Size, e.Limit)
}

// VectorDimensionError reports a vector whose length does not match the collection's dimension.
type VectorDimensionError struct {
	Got, Want int
}

func (e VectorDimensionError) Error() string {
	return fmt.Sprintf("vector dimension %d does not match collection dimension %d", e.Got, e.Want)
}

// InvalidVectorError reports a vector containing a non-finite element.
type InvalidVectorError struct {
	Index int
}

func (e InvalidVectorError) Error() string {
	return fmt.Sprintf("vector element at index %d is not a finite number", e.Index)
}

// LockActiveError reports that the lease lock is currently held by another session.
type LockActiveError struct {
	Key string
}

func (e LockActiveError) Error() string {
	return fmt.Sprintf("lock %q is currently active", e.Key)
}

// PreconditionFailedError reports that a conditional write (putIfNoneMatch/putIfMatch) lost a race.
type PreconditionFailedError struct {
	Key string
}

func (e PreconditionFailedError) Error() string {
	return fmt.Sprintf("precondition failed for key %q", e.Key)
}

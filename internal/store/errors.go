package store

import "errors"

// Failure kinds surfaced to callers. Handlers distinguish these with
// errors.Is when classifying responses.
var (
	// ErrNotFound means the id was well-formed but no record matched.
	ErrNotFound = errors.New("bug not found")

	// ErrInvalidID means the identifier is not in the expected ULID shape.
	ErrInvalidID = errors.New("invalid bug id")

	// ErrDuplicate means a uniqueness constraint was violated.
	ErrDuplicate = errors.New("duplicate value")

	// ErrInvalidEnum means a status or priority outside the allowed set
	// reached the storage boundary.
	ErrInvalidEnum = errors.New("invalid enum value")
)

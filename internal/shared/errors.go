package shared

import "errors"

var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate indicates a uniqueness constraint was violated.
	ErrDuplicate = errors.New("duplicate")
	// ErrActorRequired indicates the caller did not supply an actor identity.
	ErrActorRequired = errors.New("actor identity required")
)

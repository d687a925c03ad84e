package core

import "errors"

var (
	// ErrNotFound indicates no row matched the requested id (and owner, when scoped).
	ErrNotFound = errors.New("not found")
	// ErrPrecondition indicates the asset state does not permit the operation.
	ErrPrecondition = errors.New("precondition failed")
	// ErrUpstream indicates a dependent external call (provider, object store, dispatcher) failed.
	ErrUpstream = errors.New("upstream failure")
	// ErrConflict indicates a uniqueness violation on a provider reference or a lost
	// compare-and-set against a concurrent writer.
	ErrConflict = errors.New("conflict")
	// ErrValidation represents user input validation failures.
	ErrValidation = errors.New("validation error")
	// ErrUnauthenticated indicates the caller identity could not be established.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrInvalidPageToken indicates pagination tokens are malformed.
	ErrInvalidPageToken = errors.New("invalid page token")
	// ErrMalformedCallback indicates an inbound callback payload cannot be interpreted.
	ErrMalformedCallback = errors.New("malformed callback")
)

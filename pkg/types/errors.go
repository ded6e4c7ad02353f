package types

import "errors"

// Store error taxonomy. Callers match with errors.Is; the store wraps these
// with context describing the failed operation.
var (
	// ErrUniquenessViolation reports a duplicate unique key: user email,
	// setting key, property triple or relation edge.
	ErrUniquenessViolation = errors.New("uniqueness violation")

	// ErrNotFound reports a referenced entity that does not exist at write time.
	ErrNotFound = errors.New("entity not found")

	// ErrValidation reports a payload that fails schema validation.
	ErrValidation = errors.New("validation failed")

	// ErrTransientStorage reports an I/O failure of the durable medium. The
	// store does not retry; the caller decides.
	ErrTransientStorage = errors.New("transient storage error")
)

// Lifecycle and contract errors.
var (
	ErrDetached        = errors.New("store is detached")
	ErrAlreadyAttached = errors.New("store is already attached")
	ErrSchemaVersion   = errors.New("unsupported schema version")
	ErrInvalidID       = errors.New("invalid entity ID")
	ErrImmutable       = errors.New("entity is immutable")
	ErrUnknownEntity   = errors.New("unknown entity type")
)

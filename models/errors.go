package models

import "errors"

// Error conditions surfaced to callers as distinguishable machine-readable
// failures. Stores and the engine wrap these with fmt.Errorf and %w;
// handlers match with errors.Is.
var (
	// ErrInvalidRange means a malformed or inverted date range. User input
	// error; never retried.
	ErrInvalidRange = errors.New("invalid date range")

	// ErrUnknownSession means an event referenced a session that does not
	// exist. The event is not appended.
	ErrUnknownSession = errors.New("unknown session")

	// ErrStoreUnavailable means a transient collaborator failure. Reads are
	// pure, so the caller may retry.
	ErrStoreUnavailable = errors.New("store unavailable")
)

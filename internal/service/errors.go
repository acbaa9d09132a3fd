package service

import "errors"

// Business error kinds. Callers branch with errors.Is; the HTTP layer maps
// them onto status codes. Provider failures keep their own types
// (gateway.Error, notify.Error) and are matched with errors.As.
var (
	// ErrNotFound marks an absent entity (product, order, transaction, link)
	ErrNotFound = errors.New("not found")

	// ErrValidation marks malformed caller input
	ErrValidation = errors.New("validation failed")

	// ErrExpired marks a download link past its expiry
	ErrExpired = errors.New("download link expired")

	// ErrLimitReached marks a download link with no remaining uses
	ErrLimitReached = errors.New("download limit reached")

	// ErrConflict marks a state transition lost to a concurrent caller
	ErrConflict = errors.New("conflicting state transition")
)

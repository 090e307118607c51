package util

import "errors"

// Sentinel errors for common failure modes
var (
	// ErrRootMissing indicates the watch root does not exist
	ErrRootMissing = errors.New("watch root missing")

	// ErrNotFound indicates a required record was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidConfig indicates invalid configuration
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrUnreadable indicates a file could not be read for fingerprinting
	ErrUnreadable = errors.New("unreadable file")

	// ErrDelivery indicates a notification could not be delivered
	ErrDelivery = errors.New("delivery failed")
)

package domain

import "errors"

var (
	// ErrNotFound is returned by repositories when a record does not exist
	ErrNotFound = errors.New("not found")

	// ErrInvalidBalance marks a balance that cannot be used as a divisor
	ErrInvalidBalance = errors.New("balance must be positive")

	// ErrInvalidThreshold marks a rule threshold that is zero or negative
	ErrInvalidThreshold = errors.New("rule threshold must be positive")

	// ErrNonFinite marks a NaN or infinite number received at the boundary
	ErrNonFinite = errors.New("value must be a finite number")

	// ErrInvalidStatus marks an unknown challenge status
	ErrInvalidStatus = errors.New("invalid challenge status")

	// ErrInvalidPosition marks an open position that cannot be valued
	ErrInvalidPosition = errors.New("invalid position")

	ErrNegativeEquity = errors.New("equity cannot be negative")

	// ErrChallengeClosed is returned when a passed or failed challenge is modified
	ErrChallengeClosed = errors.New("challenge is not active")

	// ErrStaleChallenge is returned when a challenge changed after it was read
	ErrStaleChallenge = errors.New("challenge changed concurrently")
)

package errors

import "errors"

// Common application errors for type-safe error handling.
// These errors can be checked using errors.Is() instead of string comparison.
var (
	ErrNoCandidateFiles  = errors.New("no image files found")
	ErrInvalidTimestamp  = errors.New("invalid timestamp")
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrInterrupted       = errors.New("interrupted by user")
	ErrInvalidInput      = errors.New("invalid input")
)

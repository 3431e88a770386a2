// Package errors provides error classification for the relay SDK.
// Callers that add their own retry policies can branch on the category.
package errors

import "fmt"

// ErrorCategory determines how errors should be handled by retry logic.
type ErrorCategory int

const (
	// Recoverable errors may succeed if tried again later.
	// Examples: 500 from the relay, network timeouts, connection refused.
	Recoverable ErrorCategory = iota

	// Irrecoverable errors will fail the same way every time.
	// Examples: 400 Bad Request, 404 Not Found, 409 etag conflict.
	Irrecoverable
)

// String returns a human-readable representation of the error category.
func (c ErrorCategory) String() string {
	switch c {
	case Recoverable:
		return "Recoverable"
	case Irrecoverable:
		return "Irrecoverable"
	default:
		return fmt.Sprintf("Unknown(%d)", int(c))
	}
}

// ClassifiedError wraps an error with categorization metadata for retry policies.
type ClassifiedError struct {
	Category   ErrorCategory
	StatusCode int // HTTP status code (0 for non-HTTP errors)
	Underlying error
}

// Error implements the error interface.
func (e *ClassifiedError) Error() string {
	return e.Underlying.Error()
}

// Unwrap returns the underlying error for error chain compatibility.
func (e *ClassifiedError) Unwrap() error {
	return e.Underlying
}

// IsIrrecoverable returns true if the error should not be retried.
func IsIrrecoverable(err error) bool {
	if classified, ok := err.(*ClassifiedError); ok {
		return classified.Category == Irrecoverable
	}
	return false
}

package errors

import "fmt"

// ClassifyHTTPError wraps a non-2xx relay answer.
// 4xx other than 408 and 429 are irrecoverable; 5xx and anything unexpected are recoverable.
func ClassifyHTTPError(statusCode int, underlyingErr error) *ClassifiedError {
	return &ClassifiedError{
		Category:   getHTTPErrorCategory(statusCode),
		StatusCode: statusCode,
		Underlying: underlyingErr,
	}
}

func getHTTPErrorCategory(statusCode int) ErrorCategory {
	switch {
	case statusCode == 408 || statusCode == 429:
		return Recoverable
	case statusCode >= 400 && statusCode < 500:
		return Irrecoverable
	default:
		return Recoverable
	}
}

// NewNetworkError creates a classified error for a relay that could not be reached.
// The message names the relay URL so operators can check the server is running.
func NewNetworkError(operation, baseURL string, err error) *ClassifiedError {
	return &ClassifiedError{
		Category:   Recoverable,
		Underlying: fmt.Errorf("%s: cannot reach relay at %s (is the server running?): %w", operation, baseURL, err),
	}
}

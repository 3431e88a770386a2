package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestClassifyHTTPError(t *testing.T) {
	cases := map[int]ErrorCategory{
		400: Irrecoverable,
		404: Irrecoverable,
		409: Irrecoverable,
		408: Recoverable,
		429: Recoverable,
		500: Recoverable,
		503: Recoverable,
	}
	for code, want := range cases {
		got := ClassifyHTTPError(code, errors.New("x"))
		if got.Category != want {
			t.Errorf("status %d: category = %s, want %s", code, got.Category, want)
		}
	}
}

func TestNewNetworkError(t *testing.T) {
	base := errors.New("connection refused")
	err := NewNetworkError("get template", "http://localhost:3001", base)
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error")
	}
	if !strings.Contains(err.Error(), "http://localhost:3001") {
		t.Fatalf("missing relay url: %s", err)
	}
	if IsIrrecoverable(err) {
		t.Fatalf("network errors are recoverable")
	}
}

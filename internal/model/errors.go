package model

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")
	ErrVendor     = errors.New("vendor error")
)

// EntryError reports which update entry was rejected.
type EntryError struct {
	Index int
	Key   string
	Err   error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("invalid configuration at index %d: key=%q: %v", e.Index, e.Key, e.Err)
}

func (e *EntryError) Unwrap() error { return e.Err }

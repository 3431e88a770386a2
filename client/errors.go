package client

import (
	"errors"

	errs "github.com/ILara-wd/firebase-remote-config/client/internal/errors"
	"github.com/ILara-wd/firebase-remote-config/client/internal/types"
)

// ErrConflict is matched by errors.Is when the relay answers 409: the etag sent
// no longer matches the live template. Reload and retry the edit.
var ErrConflict = types.ErrConflict

// APIError is a non-2xx relay answer. Use errors.As to inspect it.
type APIError = types.APIError

// IsRecoverable reports whether err might succeed if the operator tries again
// (relay or vendor unavailable), as opposed to a request the relay rejected.
func IsRecoverable(err error) bool {
	var ce *errs.ClassifiedError
	if errors.As(err, &ce) {
		return ce.Category == errs.Recoverable
	}
	return false
}

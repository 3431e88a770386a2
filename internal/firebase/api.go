// Package firebase talks to the Firebase Remote Config REST API on behalf of the relay.
package firebase

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ILara-wd/firebase-remote-config/internal/model"
)

// TemplateAPI is the vendor surface the relay depends on. The REST Client and the
// in-process MemoryBackend both implement it.
type TemplateAPI interface {
	ProjectID() string
	GetTemplate(ctx context.Context) (*model.Template, error)
	// PublishTemplate publishes tpl guarded by tpl.ETag ("*" forces).
	PublishTemplate(ctx context.Context, tpl *model.Template) (*model.Template, error)
	ListVersions(ctx context.Context, pageSize int) ([]model.Version, error)
	Rollback(ctx context.Context, version model.VersionNumber) (*model.Template, error)
}

// APIError is a non-2xx answer from the vendor. Message is passed through verbatim.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("remote config API returned HTTP %d", e.StatusCode)
}

// Unwrap maps the vendor status onto the model sentinels.
func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusConflict || e.StatusCode == http.StatusPreconditionFailed:
		return model.ErrConflict
	case e.StatusCode == http.StatusNotFound:
		return model.ErrNotFound
	default:
		return model.ErrVendor
	}
}

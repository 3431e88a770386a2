// Package types holds the relay wire types shared by the SDK layers.
package types

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/ILara-wd/firebase-remote-config/internal/model"
)

// ErrConflict matches a 409 from the relay: the template changed since it was loaded.
var ErrConflict = errors.New("template changed since it was loaded")

// Health is the /health body.
type Health struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Service   string `json:"service"`
	Vendor    string `json:"vendor,omitempty"`
}

// ProjectInfo is the /api/project-info body.
type ProjectInfo struct {
	ProjectID   string `json:"projectId"`
	ClientEmail string `json:"clientEmail"`
	Status      string `json:"status"`
}

// Template is the relay's view of the active template.
type Template struct {
	Parameters    map[string]model.Parameter `json:"parameters"`
	VersionNumber model.Revision             `json:"versionNumber"`
	ETag          string                     `json:"etag"`
}

// ConfigEntry is one {key, value, valueType} row of an update.
type ConfigEntry struct {
	Key       string `json:"key"`
	Value     string `json:"value"`
	ValueType string `json:"valueType"`
}

// UpdateRequest is the /api/remote-config/update body.
type UpdateRequest struct {
	Configs []ConfigEntry `json:"configs"`
	ETag    string        `json:"etag,omitempty"`
}

// MutationResult is returned by update, publish and rollback.
type MutationResult struct {
	Success        bool                `json:"success"`
	VersionNumber  model.Revision `json:"versionNumber"`
	RollbackSource model.Revision `json:"rollbackSource,omitempty"`
	Message        string              `json:"message"`
}

// ListVersionsResponse is the /api/remote-config/versions body.
type ListVersionsResponse struct {
	Versions []model.Version `json:"versions"`
	Count    int             `json:"count"`
}

// APIError is a non-2xx relay answer decoded from {error, details} or {error, path}.
type APIError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"error"`
	Details    string `json:"details,omitempty"`
	Path       string `json:"path,omitempty"`
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", msg, e.Details)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", msg, e.Path)
	}
	return msg
}

// Is lets callers test errors.Is(err, ErrConflict).
func (e *APIError) Is(target error) bool {
	return target == ErrConflict && e.StatusCode == http.StatusConflict
}

// Package client is the Go SDK for the Remote Config relay.
package client

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ILara-wd/firebase-remote-config/client/internal/api"
	"github.com/ILara-wd/firebase-remote-config/client/internal/types"
)

// DefaultUserAgent identifies SDK traffic in relay access logs.
const DefaultUserAgent = "firebase-remote-config-client/1.0"

type Client struct {
	baseURL   string
	http      *http.Client
	userAgent string
}

// New constructs a Client for the relay at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("baseURL cannot be empty")
	}
	if u, err := url.Parse(baseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.New("baseURL must be an absolute http(s) URL")
	}

	c := &Client{
		baseURL:   baseURL,
		http:      &http.Client{Timeout: 30 * time.Second},
		userAgent: DefaultUserAgent,
	}

	// Auto-enable debug via env variable without changing code.
	if debugLoggingRequested() {
		opts = append(opts, WithDebugLogging(true))
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// BaseURL returns the relay address the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) caller() api.Caller {
	return api.Caller{HTTP: c.http, BaseURL: c.baseURL, UserAgent: c.userAgent, Observe: observe}
}

// Health checks that the relay is up.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	return api.Health(ctx, c.caller())
}

// ProjectInfo reports the project the relay is bound to.
func (c *Client) ProjectInfo(ctx context.Context) (*ProjectInfo, error) {
	return api.ProjectInfo(ctx, c.caller())
}

// GetTemplate returns the active template with its version and etag.
func (c *Client) GetTemplate(ctx context.Context) (*Template, error) {
	return api.GetTemplate(ctx, c.caller())
}

// UpdateConfigs merges configs into the template and publishes it. A non-empty etag
// makes the relay reject the update with ErrConflict if the template changed since.
func (c *Client) UpdateConfigs(ctx context.Context, configs []ConfigEntry, etag string) (*MutationResult, error) {
	return api.UpdateConfigs(ctx, c.caller(), types.UpdateRequest{Configs: configs, ETag: etag})
}

// PublishTemplate republishes the active template unchanged.
func (c *Client) PublishTemplate(ctx context.Context, etag string) (*MutationResult, error) {
	return api.PublishTemplate(ctx, c.caller(), etag)
}

// ListVersions returns up to limit published versions, newest first.
func (c *Client) ListVersions(ctx context.Context, limit int) ([]Version, error) {
	return api.ListVersions(ctx, c.caller(), limit)
}

// Rollback republishes a previous version as a new version.
func (c *Client) Rollback(ctx context.Context, version VersionNumber) (*MutationResult, error) {
	return api.Rollback(ctx, c.caller(), version)
}

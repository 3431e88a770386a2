package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	errs "github.com/ILara-wd/firebase-remote-config/client/internal/errors"
	"github.com/ILara-wd/firebase-remote-config/client/internal/types"
)

// HTTPClient interface for dependency injection
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Observer is told the outcome of each call; nil is allowed.
type Observer func(op string, statusCode int, err error)

// Caller bundles what every endpoint function needs.
type Caller struct {
	HTTP      HTTPClient
	BaseURL   string
	UserAgent string
	Observe   Observer
}

// do sends body (if non-nil) as JSON and decodes a 2xx answer into out.
// Non-2xx answers become *types.APIError wrapped in a ClassifiedError.
func (c Caller) do(ctx context.Context, op, method, path string, body, out interface{}) (err error) {
	status := 0
	defer func() {
		if c.Observe != nil {
			c.Observe(op, status, err)
		}
	}()
	if err := ctx.Err(); err != nil {
		return err
	}

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	url := strings.TrimRight(c.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errs.NewNetworkError(op, c.BaseURL, err)
	}
	defer func() { _ = resp.Body.Close() }()
	status = resp.StatusCode

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errs.NewNetworkError(op, c.BaseURL, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &types.APIError{StatusCode: resp.StatusCode}
		if jerr := json.Unmarshal(raw, apiErr); jerr != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		return errs.ClassifyHTTPError(resp.StatusCode, apiErr)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

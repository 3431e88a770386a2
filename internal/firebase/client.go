package firebase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"google.golang.org/api/option"
	htransport "google.golang.org/api/transport/http"

	"github.com/ILara-wd/firebase-remote-config/internal/model"
)

const (
	// DefaultBaseURL is the public Remote Config REST endpoint.
	DefaultBaseURL = "https://firebaseremoteconfig.googleapis.com"

	remoteConfigScope = "https://www.googleapis.com/auth/firebase.remoteconfig"
	templatePath      = "/v1/projects/{project}/remoteConfig"
)

// Client is the REST implementation of TemplateAPI. Build it once at startup and
// share it across requests.
type Client struct {
	http      *resty.Client
	projectID string
}

// NewClient authenticates with the service account and targets baseURL.
func NewClient(ctx context.Context, sa *ServiceAccount, projectID, baseURL string, timeout time.Duration) (*Client, error) {
	if projectID == "" {
		projectID = sa.ProjectID
	}
	hc, _, err := htransport.NewClient(ctx,
		option.WithCredentialsJSON(sa.JSON()),
		option.WithScopes(remoteConfigScope),
	)
	if err != nil {
		return nil, fmt.Errorf("build authenticated transport: %w", err)
	}
	return NewClientWithHTTP(hc, projectID, baseURL, timeout), nil
}

// NewClientWithHTTP wraps an already authenticated http.Client.
func NewClientWithHTTP(hc *http.Client, projectID, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	r := resty.NewWithClient(hc).
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Accept", "application/json").
		SetPathParam("project", projectID)
	if timeout > 0 {
		r.SetTimeout(timeout)
	}
	return &Client{http: r, projectID: projectID}
}

// ProjectID returns the Firebase project the client is bound to.
func (c *Client) ProjectID() string { return c.projectID }

// GetTemplate fetches the active template and its ETag.
func (c *Client) GetTemplate(ctx context.Context) (*model.Template, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&model.Template{}).
		SetError(&errorEnvelope{}).
		Get(templatePath)
	if err != nil {
		return nil, fmt.Errorf("%w: get template: %v", model.ErrVendor, err)
	}
	if resp.IsError() {
		return nil, handleError(resp)
	}
	return templateFromResponse(resp)
}

// publishBody carries only the writable parts of a template.
type publishBody struct {
	Parameters      map[string]model.Parameter `json:"parameters"`
	Conditions      json.RawMessage            `json:"conditions,omitempty"`
	ParameterGroups json.RawMessage            `json:"parameterGroups,omitempty"`
	Version         *publishVersion            `json:"version,omitempty"`
}

type publishVersion struct {
	Description string `json:"description,omitempty"`
}

// PublishTemplate replaces the remote template. The vendor rejects the call when
// tpl.ETag no longer matches the active template.
func (c *Client) PublishTemplate(ctx context.Context, tpl *model.Template) (*model.Template, error) {
	etag := tpl.ETag
	if etag == "" {
		return nil, fmt.Errorf("%w: publish requires the etag of a fetched template", model.ErrValidation)
	}
	body := publishBody{
		Parameters:      tpl.Parameters,
		Conditions:      tpl.Conditions,
		ParameterGroups: tpl.ParameterGroups,
	}
	if body.Parameters == nil {
		body.Parameters = map[string]model.Parameter{}
	}
	if tpl.Version != nil && tpl.Version.Description != "" {
		body.Version = &publishVersion{Description: tpl.Version.Description}
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json; UTF-8").
		SetHeader("If-Match", etag).
		SetBody(body).
		SetResult(&model.Template{}).
		SetError(&errorEnvelope{}).
		Put(templatePath)
	if err != nil {
		return nil, fmt.Errorf("%w: publish template: %v", model.ErrVendor, err)
	}
	if resp.IsError() {
		return nil, handleError(resp)
	}
	return templateFromResponse(resp)
}

type listVersionsResponse struct {
	Versions      []model.Version `json:"versions"`
	NextPageToken string          `json:"nextPageToken,omitempty"`
}

// ListVersions returns up to pageSize published versions, newest first.
func (c *Client) ListVersions(ctx context.Context, pageSize int) ([]model.Version, error) {
	req := c.http.R().
		SetContext(ctx).
		SetResult(&listVersionsResponse{}).
		SetError(&errorEnvelope{})
	if pageSize > 0 {
		req.SetQueryParam("pageSize", fmt.Sprintf("%d", pageSize))
	}
	resp, err := req.Get(templatePath + ":listVersions")
	if err != nil {
		return nil, fmt.Errorf("%w: list versions: %v", model.ErrVendor, err)
	}
	if resp.IsError() {
		return nil, handleError(resp)
	}
	return resp.Result().(*listVersionsResponse).Versions, nil
}

// HealthPing lists a single version. It exercises auth and the project binding
// without transferring the whole template.
func (c *Client) HealthPing(ctx context.Context) error {
	_, err := c.ListVersions(ctx, 1)
	return err
}

// Rollback republishes a previous version as a new version.
func (c *Client) Rollback(ctx context.Context, version model.VersionNumber) (*model.Template, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json; UTF-8").
		SetBody(map[string]string{"versionNumber": version.String()}).
		SetResult(&model.Template{}).
		SetError(&errorEnvelope{}).
		Post(templatePath + ":rollback")
	if err != nil {
		return nil, fmt.Errorf("%w: rollback: %v", model.ErrVendor, err)
	}
	if resp.IsError() {
		return nil, handleError(resp)
	}
	return templateFromResponse(resp)
}

func templateFromResponse(resp *resty.Response) (*model.Template, error) {
	tpl, ok := resp.Result().(*model.Template)
	if !ok || tpl == nil {
		return nil, fmt.Errorf("%w: empty template response", model.ErrVendor)
	}
	if tpl.Parameters == nil {
		tpl.Parameters = map[string]model.Parameter{}
	}
	tpl.ETag = resp.Header().Get("ETag")
	return tpl, nil
}

// errorEnvelope is the Google API error body.
type errorEnvelope struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func handleError(resp *resty.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode(), Status: resp.Status()}
	if env, ok := resp.Error().(*errorEnvelope); ok && env != nil && env.Error.Message != "" {
		apiErr.Message = env.Error.Message
		if env.Error.Status != "" {
			apiErr.Status = env.Error.Status
		}
		return apiErr
	}
	if body := strings.TrimSpace(resp.String()); body != "" {
		apiErr.Message = body
	}
	return apiErr
}

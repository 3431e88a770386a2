package consumer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/ILara-wd/firebase-remote-config/client"
	"github.com/ILara-wd/firebase-remote-config/internal/model"
)

// ErrNotModified is returned by a Fetcher when the remote config matches etag.
var ErrNotModified = errors.New("remote config not modified")

// Fetcher retrieves the current parameter values. etag is the last one seen, or "".
type Fetcher interface {
	Fetch(ctx context.Context, etag string) (*Snapshot, error)
}

// TemplateGetter is the part of the relay SDK a RelayFetcher needs.
type TemplateGetter interface {
	GetTemplate(ctx context.Context) (*client.Template, error)
}

// RelayFetcher reads values through the relay's template endpoint.
type RelayFetcher struct {
	relay TemplateGetter
}

func NewRelayFetcher(relay TemplateGetter) *RelayFetcher {
	return &RelayFetcher{relay: relay}
}

// Fetch skips parameters that defer to the in-app default.
func (f *RelayFetcher) Fetch(ctx context.Context, etag string) (*Snapshot, error) {
	tpl, err := f.relay.GetTemplate(ctx)
	if err != nil {
		return nil, err
	}
	if etag != "" && tpl.ETag == etag {
		return nil, ErrNotModified
	}
	values := make(map[string]string, len(tpl.Parameters))
	for k, p := range tpl.Parameters {
		if p.DefaultValue == nil || p.DefaultValue.UseInAppDefault {
			continue
		}
		values[k] = p.DefaultValue.Value
	}
	return &Snapshot{Values: values, ETag: tpl.ETag, TemplateVersion: model.VersionNumber(tpl.VersionNumber)}, nil
}

// ClientConfig identifies a Firebase web app for the client fetch endpoint.
type ClientConfig struct {
	ProjectID    string
	APIKey       string
	AppID        string
	LanguageCode string
	// InstanceID defaults to a random UUID.
	InstanceID string
	BaseURL    string
}

// FirebaseFetcher calls the Remote Config client fetch endpoint the web SDK uses.
type FirebaseFetcher struct {
	http *resty.Client
	cfg  ClientConfig
}

const (
	clientFetchPath  = "/v1/projects/{project}/namespaces/firebase:fetch"
	clientSDKVersion = "go-consumer/1.0"
)

func NewFirebaseFetcher(cfg ClientConfig) (*FirebaseFetcher, error) {
	if cfg.ProjectID == "" || cfg.APIKey == "" || cfg.AppID == "" {
		return nil, errors.New("project id, api key and app id are required")
	}
	if cfg.InstanceID == "" {
		cfg.InstanceID = uuid.NewString()
	}
	if cfg.LanguageCode == "" {
		cfg.LanguageCode = "en-US"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://firebaseremoteconfig.googleapis.com"
	}
	r := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetPathParam("project", cfg.ProjectID).
		SetQueryParam("key", cfg.APIKey)
	return &FirebaseFetcher{http: r, cfg: cfg}, nil
}

type fetchRequest struct {
	SDKVersion    string `json:"sdk_version"`
	AppInstanceID string `json:"app_instance_id"`
	AppID         string `json:"app_id"`
	LanguageCode  string `json:"language_code"`
}

type fetchResponse struct {
	Entries         map[string]string   `json:"entries"`
	State           string              `json:"state"`
	TemplateVersion model.VersionNumber `json:"templateVersion"`
}

func (f *FirebaseFetcher) Fetch(ctx context.Context, etag string) (*Snapshot, error) {
	ifNoneMatch := etag
	if ifNoneMatch == "" {
		ifNoneMatch = "*"
	}
	resp, err := f.http.R().
		SetContext(ctx).
		SetHeader("If-None-Match", ifNoneMatch).
		SetBody(fetchRequest{
			SDKVersion:    clientSDKVersion,
			AppInstanceID: f.cfg.InstanceID,
			AppID:         f.cfg.AppID,
			LanguageCode:  f.cfg.LanguageCode,
		}).
		SetResult(&fetchResponse{}).
		Post(clientFetchPath)
	if err != nil {
		return nil, fmt.Errorf("fetch remote config: %w", err)
	}
	if resp.StatusCode() == http.StatusNotModified {
		return nil, ErrNotModified
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch remote config: %s: %s", resp.Status(), strings.TrimSpace(resp.String()))
	}
	body := resp.Result().(*fetchResponse)
	values := body.Entries
	// NO_TEMPLATE and EMPTY_CONFIG carry no entries.
	if values == nil {
		values = map[string]string{}
	}
	return &Snapshot{
		Values:          values,
		ETag:            resp.Header().Get("ETag"),
		TemplateVersion: body.TemplateVersion,
	}, nil
}

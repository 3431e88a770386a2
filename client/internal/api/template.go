package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ILara-wd/firebase-remote-config/client/internal/types"
	"github.com/ILara-wd/firebase-remote-config/internal/model"
)

// GetTemplate calls GET /api/remote-config/template.
func GetTemplate(ctx context.Context, c Caller) (*types.Template, error) {
	var out types.Template
	if err := c.do(ctx, "get template", http.MethodGet, "/api/remote-config/template", nil, &out); err != nil {
		return nil, err
	}
	if out.Parameters == nil {
		out.Parameters = map[string]model.Parameter{}
	}
	return &out, nil
}

// UpdateConfigs calls POST /api/remote-config/update.
func UpdateConfigs(ctx context.Context, c Caller, req types.UpdateRequest) (*types.MutationResult, error) {
	if req.Configs == nil {
		req.Configs = []types.ConfigEntry{}
	}
	var out types.MutationResult
	if err := c.do(ctx, "update configs", http.MethodPost, "/api/remote-config/update", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PublishTemplate calls POST /api/remote-config/publish.
func PublishTemplate(ctx context.Context, c Caller, etag string) (*types.MutationResult, error) {
	body := map[string]string{}
	if etag != "" {
		body["etag"] = etag
	}
	var out types.MutationResult
	if err := c.do(ctx, "publish template", http.MethodPost, "/api/remote-config/publish", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListVersions calls GET /api/remote-config/versions.
func ListVersions(ctx context.Context, c Caller, limit int) ([]model.Version, error) {
	path := "/api/remote-config/versions"
	if limit > 0 {
		path = fmt.Sprintf("%s?limit=%d", path, limit)
	}
	var out types.ListVersionsResponse
	if err := c.do(ctx, "list versions", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Versions, nil
}

// Rollback calls POST /api/remote-config/rollback.
func Rollback(ctx context.Context, c Caller, version model.VersionNumber) (*types.MutationResult, error) {
	body := map[string]int64{"versionNumber": int64(version)}
	var out types.MutationResult
	if err := c.do(ctx, "rollback", http.MethodPost, "/api/remote-config/rollback", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

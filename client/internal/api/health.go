package api

import (
	"context"
	"net/http"

	"github.com/ILara-wd/firebase-remote-config/client/internal/types"
)

// Health calls GET /health.
func Health(ctx context.Context, c Caller) (*types.Health, error) {
	var out types.Health
	if err := c.do(ctx, "health", http.MethodGet, "/health", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ProjectInfo calls GET /api/project-info.
func ProjectInfo(ctx context.Context, c Caller) (*types.ProjectInfo, error) {
	var out types.ProjectInfo
	if err := c.do(ctx, "project info", http.MethodGet, "/api/project-info", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

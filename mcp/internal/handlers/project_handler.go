package handlers

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"

	"github.com/ILara-wd/firebase-remote-config/client"
)

// ProjectHandler exposes relay and project status.
type ProjectHandler struct {
	client *client.Client
}

func NewProjectHandler(c *client.Client) *ProjectHandler { return &ProjectHandler{client: c} }

func (ph *ProjectHandler) RegisterTools(s *server.MCPServer) error {
	info := mcp.NewTool("project_info",
		mcp.WithDescription("Return the Firebase project id and service account email the relay uses"),
	)
	health := mcp.NewTool("relay_health",
		mcp.WithDescription("Check that the relay is up"),
	)
	s.AddTool(info, ph.handleProjectInfo)
	s.AddTool(health, ph.handleHealth)
	return nil
}

func (ph *ProjectHandler) handleProjectInfo(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	log.Debug().Msg("project_info invoked")
	info, err := ph.client.ProjectInfo(ctx)
	if err != nil {
		log.Error().Err(err).Msg("project_info failed")
		return mcp.NewToolResultError(fmt.Sprintf("failed to get project info: %v", err)), nil
	}
	return jsonResult(info)
}

func (ph *ProjectHandler) handleHealth(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	h, err := ph.client.Health(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("relay unreachable: %v", err)), nil
	}
	return jsonResult(h)
}

package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"

	"github.com/ILara-wd/firebase-remote-config/client"
)

// TemplateHandler exposes the relay's template operations as MCP tools.
type TemplateHandler struct {
	client *client.Client
}

func NewTemplateHandler(c *client.Client) *TemplateHandler { return &TemplateHandler{client: c} }

func (th *TemplateHandler) RegisterTools(s *server.MCPServer) error {
	get := mcp.NewTool("get_template",
		mcp.WithDescription("Fetch the active Remote Config template (parameters, versionNumber, etag)"),
	)

	update := mcp.NewTool("update_configs",
		mcp.WithDescription("Merge parameters into the template and publish it; returns the new versionNumber"),
		mcp.WithArray("configs", mcp.Required(),
			mcp.Description("Entries of {key, value, valueType}; valueType is string|number|boolean|json"),
			mcp.Items(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"key":       map[string]any{"type": "string"},
					"value":     map[string]any{"type": "string"},
					"valueType": map[string]any{"type": "string", "enum": []string{"string", "number", "boolean", "json"}},
				},
				"required": []string{"key", "value"},
			}),
		),
		mcp.WithString("etag", mcp.Description("Optional etag from get_template; the update is rejected if the template changed")),
	)

	publish := mcp.NewTool("publish_template",
		mcp.WithDescription("Republish the active template unchanged as a new version"),
		mcp.WithString("etag", mcp.Description("Optional etag from get_template")),
	)

	versions := mcp.NewTool("list_versions",
		mcp.WithDescription("List recently published template versions, newest first"),
		mcp.WithNumber("limit", mcp.Description("Maximum versions to return (default 10)")),
	)

	rollback := mcp.NewTool("rollback_template",
		mcp.WithDescription("Republish a previous version as the new active template"),
		mcp.WithString("version_number", mcp.Required(), mcp.Description("Version to roll back to")),
	)

	s.AddTool(get, th.handleGetTemplate)
	s.AddTool(update, th.handleUpdateConfigs)
	s.AddTool(publish, th.handlePublishTemplate)
	s.AddTool(versions, th.handleListVersions)
	s.AddTool(rollback, th.handleRollback)
	return nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

func optionalString(req mcp.CallToolRequest, name string) string {
	if v, ok := req.GetArguments()[name].(string); ok {
		return v
	}
	return ""
}

func (th *TemplateHandler) handleGetTemplate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	log.Debug().Msg("get_template invoked")

	start := time.Now()
	tpl, err := th.client.GetTemplate(ctx)
	elapsed := time.Since(start)
	if err != nil {
		log.Error().Err(err).Dur("elapsed", elapsed).Msg("get_template failed")
		return mcp.NewToolResultError(fmt.Sprintf("failed to get template: %v", err)), nil
	}
	return jsonResult(tpl)
}

// decodeConfigs accepts the configs argument as an array of objects. Non-string
// values are kept as their JSON text. An absent or null value is rejected.
func decodeConfigs(raw any) ([]client.ConfigEntry, error) {
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("configs must be an array")
	}
	out := make([]client.ConfigEntry, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("configs[%d] must be an object", i)
		}
		entry := client.ConfigEntry{}
		entry.Key, _ = m["key"].(string)
		entry.ValueType, _ = m["valueType"].(string)
		switch v := m["value"].(type) {
		case string:
			entry.Value = v
		case nil:
			return nil, fmt.Errorf("configs[%d] (%q): value is required", i, entry.Key)
		default:
			b, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("configs[%d].value: %w", i, err)
			}
			entry.Value = string(b)
		}
		out = append(out, entry)
	}
	return out, nil
}

func (th *TemplateHandler) handleUpdateConfigs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	configs, err := decodeConfigs(req.GetArguments()["configs"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	etag := optionalString(req, "etag")

	log.Debug().Int("configs", len(configs)).Bool("etag", etag != "").Msg("update_configs invoked")

	start := time.Now()
	res, err := th.client.UpdateConfigs(ctx, configs, etag)
	elapsed := time.Since(start)
	if err != nil {
		log.Error().Err(err).Dur("elapsed", elapsed).Msg("update_configs failed")
		return mcp.NewToolResultError(fmt.Sprintf("failed to update configs: %v", err)), nil
	}
	return jsonResult(res)
}

func (th *TemplateHandler) handlePublishTemplate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	etag := optionalString(req, "etag")
	log.Debug().Bool("etag", etag != "").Msg("publish_template invoked")

	start := time.Now()
	res, err := th.client.PublishTemplate(ctx, etag)
	elapsed := time.Since(start)
	if err != nil {
		log.Error().Err(err).Dur("elapsed", elapsed).Msg("publish_template failed")
		return mcp.NewToolResultError(fmt.Sprintf("failed to publish template: %v", err)), nil
	}
	return jsonResult(res)
}

func (th *TemplateHandler) handleListVersions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := 10
	if v, ok := req.GetArguments()["limit"].(float64); ok && v > 0 {
		limit = int(v)
	}
	log.Debug().Int("limit", limit).Msg("list_versions invoked")

	versions, err := th.client.ListVersions(ctx, limit)
	if err != nil {
		log.Error().Err(err).Msg("list_versions failed")
		return mcp.NewToolResultError(fmt.Sprintf("failed to list versions: %v", err)), nil
	}
	return jsonResult(versions)
}

func (th *TemplateHandler) handleRollback(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("version_number")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		return mcp.NewToolResultError(fmt.Sprintf("invalid version_number %q", raw)), nil
	}
	log.Debug().Int64("version_number", n).Msg("rollback_template invoked")

	res, err := th.client.Rollback(ctx, client.VersionNumber(n))
	if err != nil {
		log.Error().Err(err).Msg("rollback_template failed")
		return mcp.NewToolResultError(fmt.Sprintf("failed to roll back: %v", err)), nil
	}
	return jsonResult(res)
}

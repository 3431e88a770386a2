package mcp

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"

	"github.com/ILara-wd/firebase-remote-config/client"
	"github.com/ILara-wd/firebase-remote-config/internal/api"
	"github.com/ILara-wd/firebase-remote-config/internal/firebase"
	"github.com/ILara-wd/firebase-remote-config/internal/services"
)

func newInProcessClient(t *testing.T) *mcpclient.Client {
	t.Helper()
	mem := firebase.NewMemoryBackend("mcp-project", nil)
	relay := httptest.NewServer(api.NewRouter(services.NewTemplateService(mem, zerolog.Nop()), api.RouterConfig{
		ServiceName: "test",
		Info:        api.ProjectInfo{ProjectID: "mcp-project", ClientEmail: "relay@mcp-project.local"},
	}, zerolog.Nop()))
	t.Cleanup(relay.Close)

	rc, err := client.New(relay.URL, client.WithHTTPClient(relay.Client()))
	if err != nil {
		t.Fatalf("relay client: %v", err)
	}
	s, err := NewServer(rc, "test-mcp-server", "1.0.0")
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	tr := transport.NewInProcessTransport(s)
	if err := tr.Start(context.Background()); err != nil {
		t.Fatalf("failed to start in-process transport: %v", err)
	}
	t.Cleanup(func() { _ = tr.Close() })

	c := mcpclient.NewClient(tr)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := c.Initialize(ctx, mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: "2024-11-05",
			ClientInfo:      mcp.Implementation{Name: "test-client", Version: "1.0.0"},
		},
	}); err != nil {
		t.Fatalf("failed to initialize MCP client: %v", err)
	}
	return c
}

func callTool(t *testing.T, c *mcpclient.Client, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	res, err := c.CallTool(ctx, req)
	if err != nil {
		t.Fatalf("%s: %v", name, err)
	}
	return res
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("unexpected content %T", res.Content[0])
	}
	return tc.Text
}

func TestTools_Listed(t *testing.T) {
	c := newInProcessClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	tools, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		t.Fatalf("tools/list: %v", err)
	}
	names := map[string]bool{}
	for _, tool := range tools.Tools {
		names[tool.Name] = true
	}
	for _, want := range []string{"get_template", "update_configs", "publish_template", "project_info", "list_versions", "rollback_template", "relay_health"} {
		if !names[want] {
			t.Errorf("expected tool %q", want)
		}
	}
}

func TestTools_UpdateThenGet(t *testing.T) {
	c := newInProcessClient(t)

	res := callTool(t, c, "update_configs", map[string]any{
		"configs": []any{
			map[string]any{"key": "versionCode", "value": 7, "valueType": "number"},
			map[string]any{"key": "app_config", "value": `{"dark":true}`, "valueType": "json"},
		},
	})
	if res.IsError {
		t.Fatalf("update_configs error: %s", text(t, res))
	}
	var mr client.MutationResult
	if err := json.Unmarshal([]byte(text(t, res)), &mr); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if mr.VersionNumber != 1 {
		t.Fatalf("want version 1, got %d", mr.VersionNumber)
	}
	if !strings.Contains(text(t, res), `"versionNumber":1`) {
		t.Fatalf("expected numeric versionNumber, got %s", text(t, res))
	}

	res = callTool(t, c, "get_template", nil)
	var tpl client.Template
	if err := json.Unmarshal([]byte(text(t, res)), &tpl); err != nil {
		t.Fatalf("decode template: %v", err)
	}
	if got := tpl.Parameters["versionCode"].Literal(); got != "7" {
		t.Fatalf("versionCode = %q", got)
	}
	if tpl.Parameters["app_config"].ValueType != client.ValueTypeJSON {
		t.Fatalf("app_config type = %v", tpl.Parameters["app_config"].ValueType)
	}

	res = callTool(t, c, "publish_template", map[string]any{"etag": "stale"})
	if !res.IsError || !strings.Contains(text(t, res), "failed to publish") {
		t.Fatalf("expected stale etag error, got %s", text(t, res))
	}
}

func TestTools_UpdateRejectsBadJSON(t *testing.T) {
	c := newInProcessClient(t)
	res := callTool(t, c, "update_configs", map[string]any{
		"configs": []any{map[string]any{"key": "cfg", "value": "{", "valueType": "json"}},
	})
	if !res.IsError || !strings.Contains(text(t, res), "cfg") {
		t.Fatalf("expected error naming the key, got %s", text(t, res))
	}

	res = callTool(t, c, "update_configs", map[string]any{"configs": "nope"})
	if !res.IsError {
		t.Fatal("expected error for non-array configs")
	}
}

func TestTools_UpdateRejectsMissingValue(t *testing.T) {
	c := newInProcessClient(t)
	res := callTool(t, c, "update_configs", map[string]any{
		"configs": []any{map[string]any{"key": "flag", "valueType": "string"}},
	})
	if !res.IsError || !strings.Contains(text(t, res), "flag") {
		t.Fatalf("expected error naming the key, got %s", text(t, res))
	}

	res = callTool(t, c, "get_template", nil)
	var tpl client.Template
	if err := json.Unmarshal([]byte(text(t, res)), &tpl); err != nil {
		t.Fatalf("decode template: %v", err)
	}
	if _, ok := tpl.Parameters["flag"]; ok {
		t.Fatal("template should not contain flag")
	}
	if tpl.VersionNumber != 0 {
		t.Fatalf("template version moved to %d", tpl.VersionNumber)
	}
}

func TestTools_ProjectInfoAndRollback(t *testing.T) {
	c := newInProcessClient(t)
	res := callTool(t, c, "project_info", nil)
	if !strings.Contains(text(t, res), "mcp-project") {
		t.Fatalf("project_info = %s", text(t, res))
	}

	callTool(t, c, "update_configs", map[string]any{"configs": []any{map[string]any{"key": "a", "value": "1"}}})
	callTool(t, c, "update_configs", map[string]any{"configs": []any{map[string]any{"key": "a", "value": "2"}}})

	res = callTool(t, c, "rollback_template", map[string]any{"version_number": "1"})
	if res.IsError {
		t.Fatalf("rollback error: %s", text(t, res))
	}
	res = callTool(t, c, "rollback_template", map[string]any{"version_number": "x"})
	if !res.IsError {
		t.Fatal("expected invalid version error")
	}
}

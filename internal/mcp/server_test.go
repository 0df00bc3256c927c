package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/xui-mcp/internal/cache"
	"github.com/usestring/xui-mcp/internal/config"
	"github.com/usestring/xui-mcp/internal/mcp/tools"
	"github.com/usestring/xui-mcp/internal/query"
	"github.com/usestring/xui-mcp/pkg/client"
)

func newPanel(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /secret/login/", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "3x-ui", Value: "token", Path: "/", MaxAge: 3600})
		_, _ = w.Write([]byte(`{"success":true}`))
	})
	mux.HandleFunc("GET /secret/panel/api/inbounds/list", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"msg":"","obj":[
			{"id":1,"remark":"de","port":443,"protocol":"vless","settings":"{\"clients\":[{\"email\":\"a@x\"}]}"},
			{"id":2,"remark":"nl","port":8443,"protocol":"trojan","settings":"{\"clients\":[]}"}]}`))
	})
	mux.HandleFunc("GET /secret/panel/api/inbounds/get/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") == "1" {
			_, _ = w.Write([]byte(`{"success":true,"msg":"","obj":{"id":1,"remark":"de","settings":"{\"clients\":[]}"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"success":false,"msg":"record not found","obj":null}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newDeps(t *testing.T, panelURL string) *tools.Deps {
	t.Helper()
	c, err := client.New(panelURL + "/secret/")
	require.NoError(t, err)
	require.NoError(t, c.Login(context.Background(), "admin", "admin"))

	cfg := &config.Config{
		CacheTTL:             time.Minute,
		CacheMaxItems:        8,
		CompactMaxArrayItems: 5,
		CompactMaxStringLen:  300,
	}
	return &tools.Deps{
		Client: c,
		Cache:  cache.NewResponseCache(cfg.CacheMaxItems, cfg.CacheTTL),
		Config: cfg,
		Query:  query.NewEngine(),
	}
}

// connect starts s on an in-memory transport and returns a client session.
func connect(t *testing.T, s *Server) *sdkmcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	serverTransport, clientTransport := sdkmcp.NewInMemoryTransports()

	ss, err := s.MCPServer().Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ss.Close() })

	cs, err := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test", Version: "v0"}, nil).Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

func newTestServer(t *testing.T) *sdkmcp.ClientSession {
	t.Helper()
	s, err := NewServer(newDeps(t, newPanel(t).URL), WithBuiltinTools(), WithBuiltinPrompts())
	require.NoError(t, err)
	return connect(t, s)
}

func TestNewServer_RequiresDeps(t *testing.T) {
	_, err := NewServer(nil)
	assert.Error(t, err)

	_, err = NewServer(&tools.Deps{})
	assert.Error(t, err)
}

func TestServer_ListsBuiltinTools(t *testing.T) {
	cs := newTestServer(t)

	res, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{
		"xui_inbounds_list", "xui_inbound_get", "xui_client_traffic",
		"xui_backup", "xui_query", "xui_validate",
	}, names)
}

func TestServer_WithoutBuiltins(t *testing.T) {
	s, err := NewServer(newDeps(t, newPanel(t).URL), WithCustomRegistration(func(srv *sdkmcp.Server) {
		tools.AddTool(srv, &sdkmcp.Tool{Name: "ping"}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in struct{}) (*sdkmcp.CallToolResult, tools.BackupOutput, error) {
			return nil, tools.BackupOutput{Status: 204}, nil
		})
	}))
	require.NoError(t, err)
	cs := connect(t, s)

	res, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, res.Tools, 1)
	assert.Equal(t, "ping", res.Tools[0].Name)
}

func TestServer_CallTool(t *testing.T) {
	cs := newTestServer(t)

	res, err := cs.CallTool(context.Background(), &sdkmcp.CallToolParams{
		Name:      "xui_inbounds_list",
		Arguments: map[string]any{"compact": false},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)

	out, ok := res.StructuredContent.(map[string]any)
	require.True(t, ok, "structured content: %T", res.StructuredContent)
	assert.Equal(t, float64(2), out["count"])
	assert.Equal(t, false, out["cached"])
}

func TestServer_CallToolPanelError(t *testing.T) {
	cs := newTestServer(t)

	res, err := cs.CallTool(context.Background(), &sdkmcp.CallToolParams{
		Name:      "xui_inbound_get",
		Arguments: map[string]any{"id": 9},
	})
	require.NoError(t, err)
	require.True(t, res.IsError)
	require.NotEmpty(t, res.Content)
	text := res.Content[0].(*sdkmcp.TextContent).Text
	assert.Contains(t, text, tools.ErrCodePanelError)
	assert.Contains(t, text, "record not found")
}

func TestServer_ReadResources(t *testing.T) {
	cs := newTestServer(t)
	ctx := context.Background()

	res, err := cs.ReadResource(ctx, &sdkmcp.ReadResourceParams{URI: "xui://inbounds"})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	assert.Equal(t, tools.MimeJSON, res.Contents[0].MIMEType)

	var inbounds []map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.Contents[0].Text), &inbounds))
	require.Len(t, inbounds, 2)
	assert.Equal(t, []any{map[string]any{"email": "a@x"}}, inbounds[0]["settings"].(map[string]any)["clients"])

	res, err = cs.ReadResource(ctx, &sdkmcp.ReadResourceParams{URI: "xui://inbound/1"})
	require.NoError(t, err)
	var inbound map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.Contents[0].Text), &inbound))
	assert.Equal(t, "de", inbound["remark"])

	_, err = cs.ReadResource(ctx, &sdkmcp.ReadResourceParams{URI: "xui://inbound/5"})
	assert.Error(t, err)
}

func TestServer_TrafficReportPrompt(t *testing.T) {
	cs := newTestServer(t)

	res, err := cs.GetPrompt(context.Background(), &sdkmcp.GetPromptParams{
		Name:      "traffic_report",
		Arguments: map[string]string{"email": "a@x"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Traffic report for a@x", res.Description)
	require.Len(t, res.Messages, 1)

	text := res.Messages[0].Content.(*sdkmcp.TextContent).Text
	assert.Contains(t, text, `emails: ["a@x"]`)
	assert.Contains(t, text, "127.0.0.1")
	assert.NotContains(t, text, "/secret/")
}

func TestParseResourceURI(t *testing.T) {
	tests := []struct {
		uri    string
		target string
		key    string
		ok     bool
	}{
		{"xui://inbounds", tools.TargetInbounds, "", true},
		{"xui://inbound/12", tools.TargetInbound, "12", true},
		{"xui://inbound/", "", "", false},
		{"xui://inbound", "", "", false},
		{"xui://inbounds/1", "", "", false},
		{"xui://clients", "", "", false},
		{"http://inbounds", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			target, key, err := parseResourceURI(tt.uri)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.target, target)
			assert.Equal(t, tt.key, key)
		})
	}
}

// syncBuffer is a bytes.Buffer safe for the server's concurrent log writes.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestLoggingMiddleware_NamesTool(t *testing.T) {
	var buf syncBuffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	cs := newTestServer(t)
	_, err := cs.CallTool(context.Background(), &sdkmcp.CallToolParams{
		Name:      "xui_inbound_get",
		Arguments: map[string]any{"id": 9},
	})
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "method=tools/call")
	assert.Contains(t, buf.String(), "tool=xui_inbound_get")
	assert.Contains(t, buf.String(), "tool call returned error")
}

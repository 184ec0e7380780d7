package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ca-srg/bravesearch/internal/search"
	"github.com/ca-srg/bravesearch/internal/types"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSearchService struct {
	mu        sync.Mutex
	webReqs   []search.WebRequest
	localReqs []localCall

	webResult   search.Result[string]
	localResult search.Result[string]
}

type localCall struct {
	query string
	count int
}

func (f *fakeSearchService) Web(_ context.Context, req search.WebRequest) search.Result[string] {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.webReqs = append(f.webReqs, req)
	return f.webResult
}

func (f *fakeSearchService) Local(_ context.Context, query string, count int) search.Result[string] {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.localReqs = append(f.localReqs, localCall{query: query, count: count})
	return f.localResult
}

func testConfig() *types.Config {
	return &types.Config{
		MCPTransport:             types.TransportHTTP,
		MCPServerHost:            "127.0.0.1",
		MCPServerPort:            0,
		MCPServerReadTimeout:     5 * time.Second,
		MCPServerWriteTimeout:    5 * time.Second,
		MCPServerIdleTimeout:     5 * time.Second,
		MCPServerShutdownTimeout: 2 * time.Second,
	}
}

func connectInMemory(t *testing.T, sw *ServerWrapper) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := sw.SDKServer().Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = serverSession.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return text.Text
}

func TestServerWrapper_ListsToolsWithPrefix(t *testing.T) {
	cfg := testConfig()
	cfg.MCPToolPrefix = "brave_"
	sw, err := NewServerWrapper(cfg, &fakeSearchService{})
	require.NoError(t, err)

	assert.Equal(t, []string{"brave_web_search", "brave_local_search"}, sw.ToolNames())

	session := connectInMemory(t, sw)
	tools, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	names := make([]string, 0, len(tools.Tools))
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
		require.NotNil(t, tool.InputSchema)
	}
	assert.ElementsMatch(t, []string{"brave_web_search", "brave_local_search"}, names)
}

func TestWebSearchTool_PassesArguments(t *testing.T) {
	svc := &fakeSearchService{webResult: search.Ok("Title: Go\nDescription: N/A\nURL: N/A")}
	sw, err := NewServerWrapper(testConfig(), svc)
	require.NoError(t, err)
	session := connectInMemory(t, sw)

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name: WebSearchToolName,
		Arguments: map[string]any{
			"query":            "golang",
			"count":            "15",
			"include_metadata": true,
		},
	})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "Title: Go\nDescription: N/A\nURL: N/A", resultText(t, res))

	require.Len(t, svc.webReqs, 1)
	assert.Equal(t, search.WebRequest{Query: "golang", Count: 15, Detailed: true}, svc.webReqs[0])
}

func TestWebSearchTool_DefaultCount(t *testing.T) {
	svc := &fakeSearchService{webResult: search.Ok("ok")}
	sw, err := NewServerWrapper(testConfig(), svc)
	require.NoError(t, err)
	session := connectInMemory(t, sw)

	_, err = session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      WebSearchToolName,
		Arguments: map[string]any{"query": "golang"},
	})
	require.NoError(t, err)
	require.Len(t, svc.webReqs, 1)
	assert.Equal(t, search.DefaultCount, svc.webReqs[0].Count)
	assert.False(t, svc.webReqs[0].Detailed)
}

func TestWebSearchTool_FailureBecomesErrorContent(t *testing.T) {
	svc := &fakeSearchService{webResult: search.Fail[string](errors.New("upstream returned 500"))}
	sw, err := NewServerWrapper(testConfig(), svc)
	require.NoError(t, err)
	session := connectInMemory(t, sw)

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      WebSearchToolName,
		Arguments: map[string]any{"query": "golang"},
	})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, "Error: upstream returned 500", resultText(t, res))
}

func TestWebSearchTool_MissingQuery(t *testing.T) {
	svc := &fakeSearchService{}
	sw, err := NewServerWrapper(testConfig(), svc)
	require.NoError(t, err)
	session := connectInMemory(t, sw)

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      WebSearchToolName,
		Arguments: map[string]any{"count": 10},
	})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, "Error: query parameter is required", resultText(t, res))
	assert.Empty(t, svc.webReqs)
}

func TestWebSearchTool_InvalidCount(t *testing.T) {
	svc := &fakeSearchService{}
	sw, err := NewServerWrapper(testConfig(), svc)
	require.NoError(t, err)
	session := connectInMemory(t, sw)

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      WebSearchToolName,
		Arguments: map[string]any{"query": "golang", "count": "lots"},
	})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "Error: count must be an integer")
}

func TestLocalSearchTool(t *testing.T) {
	svc := &fakeSearchService{localResult: search.Ok("Name: Blue Bottle")}
	sw, err := NewServerWrapper(testConfig(), svc)
	require.NoError(t, err)
	session := connectInMemory(t, sw)

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      LocalSearchToolName,
		Arguments: map[string]any{"query": "coffee shops in San Francisco", "count": 12.0},
	})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "Name: Blue Bottle", resultText(t, res))
	require.Len(t, svc.localReqs, 1)
	assert.Equal(t, localCall{query: "coffee shops in San Francisco", count: 12}, svc.localReqs[0])
}

func TestLocalSearchTool_RateLimitIsErrorContent(t *testing.T) {
	svc := &fakeSearchService{localResult: search.Fail[string](errors.New("rate limit exceeded: 1 requests per second"))}
	sw, err := NewServerWrapper(testConfig(), svc)
	require.NoError(t, err)
	session := connectInMemory(t, sw)

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      LocalSearchToolName,
		Arguments: map[string]any{"query": "pizza"},
	})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, "Error: rate limit exceeded: 1 requests per second", resultText(t, res))
}

func TestHandler_Health(t *testing.T) {
	sw, err := NewServerWrapper(testConfig(), &fakeSearchService{})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	sw.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var status healthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, []string{WebSearchToolName, LocalSearchToolName}, status.Tools)
}

func TestHandler_IPAllowlist(t *testing.T) {
	cfg := testConfig()
	cfg.MCPIPAuthEnabled = true
	cfg.MCPAllowedIPs = []string{"10.0.0.0/8"}
	sw, err := NewServerWrapper(cfg, &fakeSearchService{})
	require.NoError(t, err)

	denied := httptest.NewRequest(http.MethodGet, "/health", nil)
	denied.RemoteAddr = "192.168.1.5:4000"
	rec := httptest.NewRecorder()
	sw.Handler().ServeHTTP(rec, denied)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	allowed := httptest.NewRequest(http.MethodGet, "/health", nil)
	allowed.RemoteAddr = "10.1.2.3:4000"
	rec = httptest.NewRecorder()
	sw.Handler().ServeHTTP(rec, allowed)
	assert.Equal(t, http.StatusOK, rec.Code)

	forged := httptest.NewRequest(http.MethodGet, "/health", nil)
	forged.RemoteAddr = "192.168.1.5:4000"
	forged.Header.Set("X-Forwarded-For", "10.0.0.1")
	rec = httptest.NewRecorder()
	sw.Handler().ServeHTTP(rec, forged)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandler_IPAllowlistBehindTrustedProxy(t *testing.T) {
	cfg := testConfig()
	cfg.MCPIPAuthEnabled = true
	cfg.MCPAllowedIPs = []string{"203.0.113.0/24"}
	cfg.MCPTrustedProxies = []string{"10.0.0.1"}
	sw, err := NewServerWrapper(cfg, &fakeSearchService{})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "10.0.0.1:4000"
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	rec := httptest.NewRecorder()
	sw.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStartStop_StreamableHTTP(t *testing.T) {
	svc := &fakeSearchService{webResult: search.Ok("over http")}
	sw, err := NewServerWrapper(testConfig(), svc)
	require.NoError(t, err)

	require.NoError(t, sw.Start())
	assert.True(t, sw.IsRunning())
	assert.Error(t, sw.Start(), "second start must fail")

	ctx := context.Background()
	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, &mcp.StreamableClientTransport{
		Endpoint: "http://" + sw.ListenAddr() + "/mcp",
	}, nil)
	require.NoError(t, err)

	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      WebSearchToolName,
		Arguments: map[string]any{"query": "golang"},
	})
	require.NoError(t, err)
	assert.Equal(t, "over http", resultText(t, res))
	require.NoError(t, session.Close())

	require.NoError(t, sw.Stop())
	assert.False(t, sw.IsRunning())
	sw.WaitForShutdown()
	assert.Error(t, sw.Stop())
}

func TestNewServerWrapper_Validation(t *testing.T) {
	_, err := NewServerWrapper(nil, &fakeSearchService{})
	assert.Error(t, err)

	_, err = NewServerWrapper(testConfig(), nil)
	assert.Error(t, err)

	cfg := testConfig()
	cfg.MCPIPAuthEnabled = true
	cfg.MCPAllowedIPs = []string{"not-an-ip"}
	_, err = NewServerWrapper(cfg, &fakeSearchService{})
	assert.Error(t, err)
}

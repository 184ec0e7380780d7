package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ca-srg/bravesearch/internal/types"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Version is reported in the MCP implementation info and /health
var Version = "dev"

const serverName = "bravesearch"

// ServerWrapper owns the SDK server, the registered search tools and the
// optional HTTP listener
type ServerWrapper struct {
	sdkServer  *mcp.Server
	httpServer *http.Server
	listener   net.Listener

	config           *types.Config
	adapter          *SearchToolAdapter
	ipAuthMiddleware *IPAuthMiddleware
	toolNames        []string

	logger       *log.Logger
	shutdownChan chan struct{}
	wg           sync.WaitGroup
	mutex        sync.RWMutex
	isRunning    bool
}

// NewServerWrapper creates the server and registers web_search and
// local_search against service
func NewServerWrapper(config *types.Config, service SearchService) (*ServerWrapper, error) {
	if config == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	if service == nil {
		return nil, fmt.Errorf("search service cannot be nil")
	}

	// stdout belongs to the stdio transport
	logger := log.New(os.Stderr, "[MCP Server] ", log.LstdFlags)

	sw := &ServerWrapper{
		config:       config,
		adapter:      NewSearchToolAdapter(service, log.New(os.Stderr, "[SearchTool] ", log.LstdFlags)),
		logger:       logger,
		shutdownChan: make(chan struct{}),
	}

	sw.sdkServer = mcp.NewServer(&mcp.Implementation{Name: serverName, Version: Version}, nil)

	webName := config.MCPToolPrefix + WebSearchToolName
	localName := config.MCPToolPrefix + LocalSearchToolName

	webDef := sw.adapter.WebSearchDefinition(webName)
	if err := sw.RegisterTool(&webDef, newSDKHandler("mcpserver.web_search", sw.adapter.HandleWebSearch)); err != nil {
		return nil, err
	}
	localDef := sw.adapter.LocalSearchDefinition(localName)
	if err := sw.RegisterTool(&localDef, newSDKHandler("mcpserver.local_search", sw.adapter.HandleLocalSearch)); err != nil {
		return nil, err
	}

	if config.MCPIPAuthEnabled {
		ipAuth, err := NewIPAuthMiddleware(config.MCPAllowedIPs, config.MCPTrustedProxies, config.MCPServerEnableAccessLogging)
		if err != nil {
			return nil, fmt.Errorf("failed to create IP authentication middleware: %w", err)
		}
		sw.ipAuthMiddleware = ipAuth
	}

	return sw, nil
}

// RegisterTool registers a tool with the SDK server
func (sw *ServerWrapper) RegisterTool(tool *mcp.Tool, handler mcp.ToolHandler) error {
	if tool == nil || tool.Name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if tool.InputSchema == nil {
		return fmt.Errorf("tool %s has no input schema", tool.Name)
	}
	for _, existing := range sw.toolNames {
		if existing == tool.Name {
			return fmt.Errorf("tool with name '%s' already registered", tool.Name)
		}
	}

	sw.sdkServer.AddTool(tool, handler)
	sw.toolNames = append(sw.toolNames, tool.Name)
	sw.logger.Printf("Registered tool: %s", tool.Name)
	return nil
}

// ToolNames returns the registered tool names in registration order
func (sw *ServerWrapper) ToolNames() []string {
	return append([]string(nil), sw.toolNames...)
}

// SDKServer returns the underlying SDK server instance
func (sw *ServerWrapper) SDKServer() *mcp.Server {
	return sw.sdkServer
}

// SetLogger sets a custom logger
func (sw *ServerWrapper) SetLogger(logger *log.Logger) {
	sw.mutex.Lock()
	defer sw.mutex.Unlock()
	if logger != nil {
		sw.logger = logger
	}
}

// RunStdio serves a single client over stdin/stdout until ctx is cancelled
// or the client disconnects
func (sw *ServerWrapper) RunStdio(ctx context.Context) error {
	sw.logger.Printf("Serving MCP over stdio")
	if err := sw.sdkServer.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		return fmt.Errorf("stdio transport: %w", err)
	}
	return nil
}

// Handler returns the HTTP handler chain: MCP endpoints and /health behind
// the optional IP allowlist and access log
func (sw *ServerWrapper) Handler() http.Handler {
	mux := http.NewServeMux()

	getServer := func(*http.Request) *mcp.Server { return sw.sdkServer }
	mcpHandler := mcp.NewStreamableHTTPHandler(getServer, nil)
	mux.Handle("/", mcpHandler)
	mux.Handle("/mcp", mcpHandler)
	mux.HandleFunc("/health", sw.handleHealthCheck)

	var handler http.Handler = mux
	if sw.ipAuthMiddleware != nil {
		handler = sw.ipAuthMiddleware.Middleware(handler)
		sw.logger.Printf("IP authentication enabled for: %s", strings.Join(sw.ipAuthMiddleware.AllowedIPs(), ", "))
	}
	if sw.config.MCPServerEnableAccessLogging {
		handler = sw.loggingMiddleware(handler)
	}
	return handler
}

// Start binds the HTTP listener and serves in the background
func (sw *ServerWrapper) Start() error {
	sw.mutex.Lock()
	defer sw.mutex.Unlock()

	if sw.isRunning {
		return fmt.Errorf("server is already running")
	}

	addr := sw.GetServerAddress()
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	sw.listener = listener
	sw.httpServer = &http.Server{
		Handler:      sw.Handler(),
		ReadTimeout:  sw.config.MCPServerReadTimeout,
		WriteTimeout: sw.config.MCPServerWriteTimeout,
		IdleTimeout:  sw.config.MCPServerIdleTimeout,
	}

	sw.wg.Add(1)
	go func() {
		defer sw.wg.Done()
		if err := sw.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			sw.logger.Printf("HTTP server error: %v", err)
		}
	}()

	sw.isRunning = true
	sw.logger.Printf("MCP server listening on %s", listener.Addr())
	return nil
}

// Stop shuts the HTTP server down, waiting up to the configured timeout for
// in-flight requests
func (sw *ServerWrapper) Stop() error {
	sw.mutex.Lock()
	defer sw.mutex.Unlock()

	if !sw.isRunning {
		return fmt.Errorf("server is not running")
	}

	sw.logger.Printf("Stopping MCP server...")

	timeout := sw.config.MCPServerShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := sw.httpServer.Shutdown(shutdownCtx); err != nil {
		sw.logger.Printf("Graceful shutdown failed: %v, forcing immediate shutdown", err)
		if err := sw.httpServer.Close(); err != nil {
			sw.logger.Printf("Failed to close HTTP server: %v", err)
		}
	}

	sw.wg.Wait()
	close(sw.shutdownChan)

	sw.isRunning = false
	sw.logger.Printf("MCP server stopped")
	return nil
}

// IsRunning returns whether the HTTP server is currently running
func (sw *ServerWrapper) IsRunning() bool {
	sw.mutex.RLock()
	defer sw.mutex.RUnlock()
	return sw.isRunning
}

// WaitForShutdown blocks until Stop has completed
func (sw *ServerWrapper) WaitForShutdown() {
	<-sw.shutdownChan
}

// GetServerAddress returns the configured host:port
func (sw *ServerWrapper) GetServerAddress() string {
	return net.JoinHostPort(sw.config.MCPServerHost, strconv.Itoa(sw.config.MCPServerPort))
}

// ListenAddr returns the bound address, which differs from the configured
// one when port 0 was requested
func (sw *ServerWrapper) ListenAddr() string {
	sw.mutex.RLock()
	defer sw.mutex.RUnlock()
	if sw.listener == nil {
		return ""
	}
	return sw.listener.Addr().String()
}

type healthStatus struct {
	Status  string   `json:"status"`
	Server  string   `json:"server"`
	Version string   `json:"version"`
	Running bool     `json:"running"`
	Tools   []string `json:"tools"`
}

func (sw *ServerWrapper) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	status := healthStatus{
		Status:  "healthy",
		Server:  serverName,
		Version: Version,
		Running: sw.IsRunning(),
		Tools:   sw.ToolNames(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(status); err != nil {
		sw.logger.Printf("Failed to write response: %v", err)
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	status int
	size   int64
}

func newLoggingResponseWriter(w http.ResponseWriter) *loggingResponseWriter {
	return &loggingResponseWriter{ResponseWriter: w, status: http.StatusOK}
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.status = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Write(b []byte) (int, error) {
	n, err := lrw.ResponseWriter.Write(b)
	lrw.size += int64(n)
	return n, err
}

// Flush keeps streamed responses working through the wrapper
func (lrw *loggingResponseWriter) Flush() {
	if f, ok := lrw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (sw *ServerWrapper) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := newLoggingResponseWriter(w)
		next.ServeHTTP(lrw, r)

		sw.logger.Printf(
			"Request: %s %s status=%d bytes=%d duration=%s remote=%s client_ip=%s user_agent=%q",
			r.Method,
			r.URL.Path,
			lrw.status,
			lrw.size,
			time.Since(start),
			r.RemoteAddr,
			extractClientIP(r),
			r.Header.Get("User-Agent"),
		)
	})
}

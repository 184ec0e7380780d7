package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	appconfig "github.com/ca-srg/bravesearch/internal/config"
	"github.com/ca-srg/bravesearch/internal/mcpserver"
	"github.com/ca-srg/bravesearch/internal/observability"
	"github.com/ca-srg/bravesearch/internal/types"
)

var (
	mcpTransport  string
	mcpServerHost string
	mcpServerPort int
	mcpToolPrefix string
)

var mcpServerCmd = &cobra.Command{
	Use:   "mcp-server",
	Short: "Start the MCP server exposing web_search and local_search",
	Long: `
Start an MCP server that exposes Brave Search as two tools:
  web_search    general web results (10-20 per request)
  local_search  businesses and places, falling back to web results

The stdio transport is what desktop MCP clients spawn. The http transport
serves the streamable HTTP protocol on / and /mcp, plus /health.

Examples:
  bravesearch mcp-server                                  # stdio
  bravesearch mcp-server --transport http --port 9000     # streamable HTTP
  bravesearch mcp-server --tool-prefix brave_             # brave_web_search, brave_local_search
`,
	RunE: runMCPServer,
}

func init() {
	mcpServerCmd.Flags().StringVar(&mcpTransport, "transport", types.TransportStdio, "Transport: stdio|http")
	mcpServerCmd.Flags().StringVar(&mcpServerHost, "host", "localhost", "Server host address (http transport)")
	mcpServerCmd.Flags().IntVar(&mcpServerPort, "port", 8080, "Server port (http transport)")
	mcpServerCmd.Flags().StringVar(&mcpToolPrefix, "tool-prefix", "", "Prefix prepended to tool names")
}

func runMCPServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadAppConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cmd.Flags().Changed("transport") {
		cfg.MCPTransport = mcpTransport
	}
	if cmd.Flags().Changed("host") {
		cfg.MCPServerHost = mcpServerHost
	}
	if cmd.Flags().Changed("port") {
		cfg.MCPServerPort = mcpServerPort
	}
	if cmd.Flags().Changed("tool-prefix") {
		cfg.MCPToolPrefix = mcpToolPrefix
	}
	if err := appconfig.Validate(cfg); err != nil {
		return err
	}

	logger := log.New(os.Stderr, "[MCP Server] ", log.LstdFlags)

	shutdownTelemetry, err := observability.Init(cfg, mcpserver.Version)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			logger.Printf("Telemetry shutdown error: %v", err)
		}
	}()

	service, client := newSearchService(cfg)
	defer client.Close()

	server, err := mcpserver.NewServerWrapper(cfg, service)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	server.SetLogger(logger)

	perSecond, perMonth := service.Limiter().Limits()
	logger.Printf("Rate limits: %d/s, %d per process lifetime", perSecond, perMonth)
	logger.Printf("Available tools: %s", strings.Join(server.ToolNames(), ", "))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.MCPTransport == types.TransportStdio {
		return server.RunStdio(ctx)
	}

	if err := server.Start(); err != nil {
		return fmt.Errorf("failed to start MCP server: %w", err)
	}
	logger.Printf("Server address: %s", server.ListenAddr())

	<-ctx.Done()
	logger.Printf("Received shutdown signal, stopping server...")
	return server.Stop()
}

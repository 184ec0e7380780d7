// Package searchclient is the interactive companion client. It talks to a
// running tool server over MCP and sizes each request by query complexity.
package searchclient

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	clientName = "bravesearch-client"

	webSearchSuffix = "web_search"
)

// Client wraps an MCP session with the search server
type Client struct {
	session *mcp.ClientSession
	logger  *log.Logger

	webTool string
}

func newClient(session *mcp.ClientSession) *Client {
	return &Client{
		session: session,
		logger:  log.New(os.Stderr, "[SearchClient] ", log.LstdFlags),
		webTool: webSearchSuffix,
	}
}

// ConnectCommand spawns the server command and speaks MCP over its stdio
func ConnectCommand(ctx context.Context, command string, args ...string) (*Client, error) {
	if strings.TrimSpace(command) == "" {
		return nil, fmt.Errorf("server command cannot be empty")
	}
	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Stderr = os.Stderr
	return connect(ctx, &mcp.CommandTransport{Command: cmd}, command)
}

// ConnectEndpoint connects to a streamable HTTP server
func ConnectEndpoint(ctx context.Context, endpoint string) (*Client, error) {
	if strings.TrimSpace(endpoint) == "" {
		return nil, fmt.Errorf("endpoint cannot be empty")
	}
	return connect(ctx, &mcp.StreamableClientTransport{Endpoint: endpoint}, endpoint)
}

// ConnectTransport connects over an arbitrary transport
func ConnectTransport(ctx context.Context, transport mcp.Transport) (*Client, error) {
	return connect(ctx, transport, "transport")
}

func connect(ctx context.Context, transport mcp.Transport, target string) (*Client, error) {
	impl := &mcp.Implementation{Name: clientName, Version: "1.0.0"}
	session, err := mcp.NewClient(impl, nil).Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to search server (%s): %w", target, err)
	}
	return newClient(session), nil
}

// Tools lists the server's tools and remembers which one performs web
// search, so prefixed names work without configuration
func (c *Client) Tools(ctx context.Context) ([]string, error) {
	var names []string
	for tool, err := range c.session.Tools(ctx, nil) {
		if err != nil {
			return nil, fmt.Errorf("failed to list tools: %w", err)
		}
		if tool == nil {
			continue
		}
		names = append(names, tool.Name)
		if strings.HasSuffix(tool.Name, webSearchSuffix) {
			c.webTool = tool.Name
		}
	}
	return names, nil
}

// Search runs web_search with the count chosen by CountFor. Every failure
// is returned as "Error: <message>" text.
func (c *Client) Search(ctx context.Context, query string) string {
	text, err := c.search(ctx, query, CountFor(query))
	if err != nil {
		c.logger.Printf("Search failed: %v", err)
		return "Error: " + strings.TrimPrefix(err.Error(), "Error: ")
	}
	return text
}

func (c *Client) search(ctx context.Context, query string, count int) (string, error) {
	res, err := c.session.CallTool(ctx, &mcp.CallToolParams{
		Name:      c.webTool,
		Arguments: map[string]any{"query": query, "count": count},
	})
	if err != nil {
		return "", err
	}

	text := contentText(res)
	if res.IsError {
		return "", errors.New(text)
	}
	return text, nil
}

// Close ends the session
func (c *Client) Close() error {
	return c.session.Close()
}

func contentText(res *mcp.CallToolResult) string {
	var b strings.Builder
	for _, content := range res.Content {
		if text, ok := content.(*mcp.TextContent); ok {
			b.WriteString(text.Text)
		}
	}
	return b.String()
}

package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/ca-srg/bravesearch/internal/search"
	"github.com/ca-srg/bravesearch/internal/types"
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/spf13/cast"
)

// Internal tool names; the registered names carry the configured prefix
const (
	WebSearchToolName   = "web_search"
	LocalSearchToolName = "local_search"
)

// SearchService is what the tools need from the search layer
type SearchService interface {
	Web(ctx context.Context, req search.WebRequest) search.Result[string]
	Local(ctx context.Context, query string, count int) search.Result[string]
}

// SearchToolAdapter turns tool arguments into search service calls
type SearchToolAdapter struct {
	service SearchService
	logger  *log.Logger
}

// NewSearchToolAdapter creates a new search tool adapter
func NewSearchToolAdapter(service SearchService, logger *log.Logger) *SearchToolAdapter {
	if logger == nil {
		logger = log.New(log.Writer(), "[SearchTool] ", log.LstdFlags)
	}
	return &SearchToolAdapter{service: service, logger: logger}
}

// WebSearchDefinition returns the MCP tool definition for web search
func (a *SearchToolAdapter) WebSearchDefinition(name string) types.MCPToolDefinition {
	schemaMap := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"query": map[string]interface{}{
				"type":        "string",
				"description": "Search terms",
			},
			"count": map[string]interface{}{
				"type":        "integer",
				"description": "Desired number of results; values outside 10-20 are clamped",
				"default":     search.DefaultCount,
			},
			"include_metadata": map[string]interface{}{
				"type":        "boolean",
				"description": "Add source, age and language lines to each result",
				"default":     false,
			},
		},
		"required": []string{"query"},
	}

	return types.MCPToolDefinition{
		Name:        name,
		Description: "Search the web with Brave Search. Use for general queries, news, articles and recent events.",
		InputSchema: schemaFromMap(schemaMap),
	}
}

// LocalSearchDefinition returns the MCP tool definition for local search
func (a *SearchToolAdapter) LocalSearchDefinition(name string) types.MCPToolDefinition {
	schemaMap := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"query": map[string]interface{}{
				"type":        "string",
				"description": "Location terms, for example \"pizza near Central Park\"",
			},
			"count": map[string]interface{}{
				"type":        "integer",
				"description": "Number of results used when falling back to web search",
				"default":     search.DefaultCount,
			},
		},
		"required": []string{"query"},
	}

	return types.MCPToolDefinition{
		Name:        name,
		Description: "Search for local businesses and places. Falls back to web search when no locations match.",
		InputSchema: schemaFromMap(schemaMap),
	}
}

// HandleWebSearch executes the web search tool
func (a *SearchToolAdapter) HandleWebSearch(ctx context.Context, params map[string]interface{}) *types.MCPToolCallResult {
	query, err := parseQuery(params)
	if err != nil {
		return CreateToolCallErrorResult(err)
	}
	count, err := parseCount(params)
	if err != nil {
		return CreateToolCallErrorResult(err)
	}
	detailed, err := parseBool(params, "include_metadata")
	if err != nil {
		return CreateToolCallErrorResult(err)
	}

	text, err := a.service.Web(ctx, search.WebRequest{Query: query, Count: count, Detailed: detailed}).Unwrap()
	if err != nil {
		a.logger.Printf("Web search failed (request %s): %v", RequestIDFromContext(ctx), err)
		return CreateToolCallErrorResult(err)
	}
	return CreateToolCallResult(text)
}

// HandleLocalSearch executes the local search tool
func (a *SearchToolAdapter) HandleLocalSearch(ctx context.Context, params map[string]interface{}) *types.MCPToolCallResult {
	query, err := parseQuery(params)
	if err != nil {
		return CreateToolCallErrorResult(err)
	}
	count, err := parseCount(params)
	if err != nil {
		return CreateToolCallErrorResult(err)
	}

	text, err := a.service.Local(ctx, query, count).Unwrap()
	if err != nil {
		a.logger.Printf("Local search failed (request %s): %v", RequestIDFromContext(ctx), err)
		return CreateToolCallErrorResult(err)
	}
	return CreateToolCallResult(text)
}

func parseQuery(params map[string]interface{}) (string, error) {
	raw, ok := params["query"]
	if !ok || raw == nil {
		return "", fmt.Errorf("query parameter is required")
	}
	query, err := cast.ToStringE(raw)
	if err != nil {
		return "", fmt.Errorf("query must be a string: %w", err)
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return "", fmt.Errorf("query parameter is required")
	}
	return query, nil
}

// parseCount accepts JSON numbers and numeric strings
func parseCount(params map[string]interface{}) (int, error) {
	raw, ok := params["count"]
	if !ok || raw == nil {
		return search.DefaultCount, nil
	}
	count, err := cast.ToIntE(raw)
	if err != nil {
		return 0, fmt.Errorf("count must be an integer: %w", err)
	}
	return count, nil
}

func parseBool(params map[string]interface{}, key string) (bool, error) {
	raw, ok := params[key]
	if !ok || raw == nil {
		return false, nil
	}
	v, err := cast.ToBoolE(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	return v, nil
}

func schemaFromMap(schemaMap map[string]interface{}) *jsonschema.Schema {
	schemaBytes, err := json.Marshal(schemaMap)
	if err != nil {
		return nil
	}
	schema := &jsonschema.Schema{}
	if err := json.Unmarshal(schemaBytes, schema); err != nil {
		return nil
	}
	return schema
}

// CreateToolCallResult creates a successful text result
func CreateToolCallResult(content string) *types.MCPToolCallResult {
	return &types.MCPToolCallResult{
		Content: []types.MCPContent{{Type: "text", Text: content}},
	}
}

// CreateToolCallErrorResult creates an error result with "Error: " text
func CreateToolCallErrorResult(err error) *types.MCPToolCallResult {
	return &types.MCPToolCallResult{
		Content: []types.MCPContent{{Type: "text", Text: "Error: " + err.Error()}},
		IsError: true,
	}
}

package types

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// MCPToolDefinition is an alias to the SDK Tool type
type MCPToolDefinition = mcp.Tool

// MCPToolCallResult is the transport-neutral result of a tool invocation.
// Tool adapters produce it and the SDK handler converts it at the boundary.
type MCPToolCallResult struct {
	Content []MCPContent `json:"content"`
	IsError bool         `json:"isError,omitempty"`
}

// MCPContent is a single content item of a tool result
type MCPContent struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// Text concatenates the text content items of the result
func (r *MCPToolCallResult) Text() string {
	if r == nil {
		return ""
	}
	var text string
	for _, c := range r.Content {
		text += c.Text
	}
	return text
}

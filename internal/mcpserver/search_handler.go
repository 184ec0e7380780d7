package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ca-srg/bravesearch/internal/types"
	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var mcpTracer = otel.Tracer("bravesearch/mcpserver")

// toolFunc is the transport-neutral form of a tool implementation
type toolFunc func(ctx context.Context, params map[string]interface{}) *types.MCPToolCallResult

// newSDKHandler adapts a toolFunc to the SDK handler signature. Failures are
// always reported in the result; the SDK never sees a Go error.
func newSDKHandler(spanName string, fn toolFunc) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		requestID := uuid.NewString()
		ctx = withRequestID(ctx, requestID)

		toolName := ""
		var rawArguments json.RawMessage
		if req != nil && req.Params != nil {
			toolName = req.Params.Name
			rawArguments = req.Params.Arguments
		}

		ctx, span := mcpTracer.Start(ctx, spanName)
		defer span.End()
		span.SetAttributes(attribute.String("mcp.request.id", requestID))

		metricAttrs := make([]attribute.KeyValue, 0, 4)
		start := time.Now()
		errType := ""
		defer func() {
			recordMCPMetrics(ctx, metricAttrs, time.Since(start), errType)
		}()

		if toolName != "" {
			span.SetAttributes(attribute.String("mcp.tool.name", toolName))
			metricAttrs = append(metricAttrs, attribute.String("mcp.tool.name", toolName))
		}
		if clientIP := getClientIPFromContext(ctx); clientIP != "" {
			span.SetAttributes(attribute.String("mcp.client.ip", clientIP))
		}

		params := make(map[string]interface{})
		if len(rawArguments) > 0 {
			if err := json.Unmarshal(rawArguments, &params); err != nil {
				errType = "invalid_arguments"
				span.RecordError(err)
				span.SetStatus(codes.Error, "invalid_arguments")
				return convertResultToSDK(CreateToolCallErrorResult(fmt.Errorf("invalid tool arguments: %w", err))), nil
			}
		}
		if query, ok := params["query"].(string); ok && query != "" {
			span.SetAttributes(attribute.String("mcp.query", truncateForAttribute(query)))
		}

		result := fn(ctx, params)
		if result != nil && result.IsError {
			errType = "tool_result_error"
			span.SetStatus(codes.Error, "tool_result_error")
		} else {
			span.SetStatus(codes.Ok, "completed")
		}
		metricAttrs = append(metricAttrs, attribute.Bool("mcp.result.is_error", result != nil && result.IsError))

		return convertResultToSDK(result), nil
	}
}

// convertResultToSDK converts a tool result to the SDK format
func convertResultToSDK(result *types.MCPToolCallResult) *mcp.CallToolResult {
	if result == nil {
		return &mcp.CallToolResult{}
	}

	content := make([]mcp.Content, 0, len(result.Content))
	for _, c := range result.Content {
		content = append(content, &mcp.TextContent{Text: c.Text})
	}

	return &mcp.CallToolResult{
		Content: content,
		IsError: result.IsError,
	}
}

func truncateForAttribute(input string) string {
	const maxAttributeLength = 120
	trimmed := strings.TrimSpace(input)
	runes := []rune(trimmed)
	if len(runes) <= maxAttributeLength {
		return trimmed
	}
	return string(runes[:maxAttributeLength]) + "..."
}

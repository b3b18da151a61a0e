package agentctl

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	internalmcp "github.com/wagiedev/agentctl-go/internal/mcp"
)

const sdkToolServerName = "sdk"

// Re-export MCP SDK types used by tool handlers.
type (
	// CallToolResult is the server's response to a tool call.
	// Use TextResult, ErrorResult, or ImageResult helpers to create results.
	CallToolResult = mcp.CallToolResult

	// CallToolRequest is the request passed to tool handlers.
	CallToolRequest = mcp.CallToolRequest

	// MCPToolHandler is the function signature for tool handlers.
	MCPToolHandler = mcp.ToolHandler

	// MCPToolAnnotations describes optional hints about tool behavior.
	MCPToolAnnotations = mcp.ToolAnnotations

	// Schema is a JSON Schema object for tool input.
	Schema = jsonschema.Schema
)

// Tool is a custom tool the agent can invoke through the in-process "sdk"
// server registered by WithSDKTools.
//
// Example:
//
//	echo := agentctl.NewTool("echo", "Echo the input text",
//	    map[string]any{
//	        "type": "object",
//	        "properties": map[string]any{"text": map[string]any{"type": "string"}},
//	        "required": []string{"text"},
//	    },
//	    func(ctx context.Context, input map[string]any) (map[string]any, error) {
//	        return map[string]any{"text": input["text"]}, nil
//	    },
//	)
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description returns a human-readable description.
	Description() string

	// InputSchema returns a JSON schema describing expected input.
	InputSchema() map[string]any

	// Execute runs the tool with the provided input.
	Execute(ctx context.Context, input map[string]any) (map[string]any, error)
}

// ToolFunc is a function-based tool implementation.
type ToolFunc func(ctx context.Context, input map[string]any) (map[string]any, error)

// NewTool creates a Tool from a function.
func NewTool(name, description string, schema map[string]any, fn ToolFunc) Tool {
	return &tool{
		name:        name,
		description: description,
		schema:      schema,
		fn:          fn,
	}
}

type tool struct {
	name        string
	description string
	schema      map[string]any
	fn          ToolFunc
}

var _ Tool = (*tool)(nil)

func (t *tool) Name() string                { return t.name }
func (t *tool) Description() string         { return t.description }
func (t *tool) InputSchema() map[string]any { return t.schema }
func (t *tool) Execute(ctx context.Context, input map[string]any) (map[string]any, error) {
	return t.fn(ctx, input)
}

// createSDKToolServer wraps Tool instances into an in-process MCP server.
func createSDKToolServer(tools []Tool) *internalmcp.SDKServer {
	server := internalmcp.NewSDKServer(sdkToolServerName, "1.0.0")

	for _, t := range tools {
		server.AddTool(
			internalmcp.NewTool(t.Name(), t.Description(), mapToJSONSchema(t.InputSchema())),
			toolToMCPHandler(t),
		)
	}

	return server
}

// toolToMCPHandler adapts Tool.Execute to an mcp.ToolHandler. Failures are
// reported as error results so the agent sees them as tool output.
func toolToMCPHandler(t Tool) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := internalmcp.ParseArguments(req)
		if err != nil {
			return internalmcp.ErrorResult(fmt.Sprintf("failed to parse arguments: %v", err)), nil
		}

		result, err := t.Execute(ctx, args)
		if err != nil {
			return internalmcp.ErrorResult(err.Error()), nil
		}

		data, err := json.Marshal(result)
		if err != nil {
			return internalmcp.ErrorResult(fmt.Sprintf("failed to marshal result: %v", err)), nil
		}

		return internalmcp.TextResult(string(data)), nil
	}
}

func mapToJSONSchema(m map[string]any) *jsonschema.Schema {
	if m == nil {
		return nil
	}

	data, err := json.Marshal(m)
	if err != nil {
		return nil
	}

	var schema jsonschema.Schema
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil
	}

	return &schema
}

// MCPToolOption configures an MCPTool during construction.
type MCPToolOption func(*MCPTool)

// WithAnnotations sets MCP tool annotations.
func WithAnnotations(annotations *mcp.ToolAnnotations) MCPToolOption {
	return func(t *MCPTool) {
		t.Annotations = annotations
	}
}

// MCPTool is a low-level tool definition for CreateMCPServer.
type MCPTool struct {
	Name        string
	Description string
	Schema      *jsonschema.Schema
	Handler     MCPToolHandler
	Annotations *mcp.ToolAnnotations
}

// NewMCPTool creates an MCPTool. Use SimpleSchema for a compact schema.
//
//	add := agentctl.NewMCPTool("add", "Add two numbers",
//	    agentctl.SimpleSchema(map[string]string{"a": "float64", "b": "float64"}),
//	    func(ctx context.Context, req *agentctl.CallToolRequest) (*agentctl.CallToolResult, error) {
//	        args, _ := agentctl.ParseArguments(req)
//	        return agentctl.TextResult(fmt.Sprint(args["a"].(float64) + args["b"].(float64))), nil
//	    },
//	)
func NewMCPTool(
	name, description string,
	inputSchema *jsonschema.Schema,
	handler MCPToolHandler,
	opts ...MCPToolOption,
) *MCPTool {
	t := &MCPTool{
		Name:        name,
		Description: description,
		Schema:      inputSchema,
		Handler:     handler,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// CreateMCPServer builds an in-process MCP server. Register it with
// WithMCPServer under the same name; the agent addresses its tools as
// mcp__<name>__<tool>.
func CreateMCPServer(name, version string, tools ...*MCPTool) MCPServer {
	server := internalmcp.NewSDKServer(name, version)

	for _, t := range tools {
		mcpTool := internalmcp.NewTool(t.Name, t.Description, t.Schema)
		mcpTool.Annotations = t.Annotations
		server.AddTool(mcpTool, t.Handler)
	}

	return server
}

// SimpleSchema creates a schema from a property name to Go type map, for
// example {"a": "float64", "b": "string"}.
func SimpleSchema(props map[string]string) *jsonschema.Schema {
	return internalmcp.SimpleSchema(props)
}

// TextResult creates a CallToolResult with text content.
func TextResult(text string) *mcp.CallToolResult {
	return internalmcp.TextResult(text)
}

// ErrorResult creates a CallToolResult indicating an error.
func ErrorResult(message string) *mcp.CallToolResult {
	return internalmcp.ErrorResult(message)
}

// ImageResult creates a CallToolResult with image content.
func ImageResult(data []byte, mimeType string) *mcp.CallToolResult {
	return internalmcp.ImageResult(data, mimeType)
}

// ParseArguments unmarshals CallToolRequest arguments into a map.
func ParseArguments(req *mcp.CallToolRequest) (map[string]any, error) {
	return internalmcp.ParseArguments(req)
}

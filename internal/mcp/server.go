package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagiedev/agentctl-go/internal/errors"
)

// ServerInstance is a tool server the Router can address by name.
type ServerInstance interface {
	Name() string
	Version() string
	// ListTools returns the tools in registration order.
	ListTools() []*mcp.Tool
	// CallTool runs a tool. A missing tool yields an error wrapping
	// errors.ErrUnknownTool.
	CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error)
}

var _ ServerInstance = (*SDKServer)(nil)

// SDKServer is an in-process tool table backed by go-sdk tool types.
// Tools keep the order they were added in.
type SDKServer struct {
	name    string
	version string

	mu    sync.RWMutex
	order []string
	tools map[string]*sdkTool
}

type sdkTool struct {
	tool     *mcp.Tool
	handler  mcp.ToolHandler
	resolved *jsonschema.Resolved
}

// NewSDKServer creates an empty tool server.
func NewSDKServer(name, version string) *SDKServer {
	return &SDKServer{
		name:    name,
		version: version,
		tools:   make(map[string]*sdkTool, 8),
	}
}

// AddTool registers a tool. Re-adding a name replaces the handler and keeps
// the original position. Arguments are validated against the tool's input
// schema when it resolves.
func (s *SDKServer) AddTool(tool *mcp.Tool, handler mcp.ToolHandler) {
	entry := &sdkTool{tool: tool, handler: handler}

	if schema := toSchema(tool.InputSchema); schema != nil {
		if rs, err := schema.Resolve(nil); err == nil {
			entry.resolved = rs
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tools[tool.Name]; !exists {
		s.order = append(s.order, tool.Name)
	}

	s.tools[tool.Name] = entry
}

// Name returns the server name.
func (s *SDKServer) Name() string { return s.name }

// Version returns the server version.
func (s *SDKServer) Version() string { return s.version }

// ListTools implements ServerInstance.
func (s *SDKServer) ListTools() []*mcp.Tool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*mcp.Tool, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.tools[name].tool)
	}

	return out
}

// CallTool implements ServerInstance.
func (s *SDKServer) CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	s.mu.RLock()
	t, ok := s.tools[name]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", errors.ErrUnknownTool, name)
	}

	if args == nil {
		args = map[string]any{}
	}

	if t.resolved != nil {
		if err := t.resolved.Validate(args); err != nil {
			return ErrorResult(fmt.Sprintf("Invalid arguments for %s: %v", name, err)), nil
		}
	}

	raw, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("marshal arguments: %w", err)
	}

	return t.handler(ctx, &mcp.CallToolRequest{
		Params: &mcp.CallToolParamsRaw{Name: name, Arguments: raw},
	})
}

// toSchema accepts the schema forms go-sdk tools carry.
func toSchema(v any) *jsonschema.Schema {
	switch s := v.(type) {
	case nil:
		return nil
	case *jsonschema.Schema:
		return s
	default:
		data, err := json.Marshal(s)
		if err != nil {
			return nil
		}

		var out jsonschema.Schema
		if err := json.Unmarshal(data, &out); err != nil {
			return nil
		}

		return &out
	}
}

// SimpleSchema builds an object schema from a map of property name to Go
// type name, e.g. {"a": "float64", "tags": "[]string"}. Every property is required.
func SimpleSchema(props map[string]string) *jsonschema.Schema {
	properties := make(map[string]*jsonschema.Schema, len(props))
	required := make([]string, 0, len(props))

	for name, goType := range props {
		properties[name] = schemaFor(goType)
		required = append(required, name)
	}

	return &jsonschema.Schema{
		Type:       "object",
		Properties: properties,
		Required:   required,
	}
}

func schemaFor(goType string) *jsonschema.Schema {
	if elem, ok := strings.CutPrefix(goType, "[]"); ok {
		return &jsonschema.Schema{Type: "array", Items: schemaFor(elem)}
	}

	switch goType {
	case "int", "int8", "int16", "int32", "int64", "uint", "uint8", "uint16", "uint32", "uint64":
		return &jsonschema.Schema{Type: "integer"}
	case "float32", "float64", "float", "number":
		return &jsonschema.Schema{Type: "number"}
	case "bool", "boolean":
		return &jsonschema.Schema{Type: "boolean"}
	case "any", "object", "map[string]any":
		return &jsonschema.Schema{Type: "object"}
	default:
		return &jsonschema.Schema{Type: "string"}
	}
}

// NewTool creates a tool definition.
func NewTool(name, description string, inputSchema *jsonschema.Schema) *mcp.Tool {
	return &mcp.Tool{
		Name:        name,
		Description: description,
		InputSchema: inputSchema,
	}
}

// TextResult wraps text in a tool result.
func TextResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}}
}

// ErrorResult wraps message in a tool result flagged as an error.
func ErrorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: message}},
		IsError: true,
	}
}

// ImageResult wraps image bytes in a tool result.
func ImageResult(data []byte, mimeType string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.ImageContent{Data: data, MIMEType: mimeType}},
	}
}

// ParseArguments decodes the raw arguments of a tool call.
func ParseArguments(req *mcp.CallToolRequest) (map[string]any, error) {
	if req == nil || req.Params == nil || len(req.Params.Arguments) == 0 {
		return map[string]any{}, nil
	}

	var args map[string]any
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return nil, fmt.Errorf("unmarshal arguments: %w", err)
	}

	return args, nil
}

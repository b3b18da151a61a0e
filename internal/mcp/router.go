package mcp

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagiedev/agentctl-go/internal/errors"
)

// JSON-RPC error codes used by the router.
const (
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// ProtocolVersion is reported in the initialize result.
const ProtocolVersion = "2024-11-05"

// RPCError is a JSON-RPC error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// MethodHandler serves one JSON-RPC method against the addressed server.
type MethodHandler func(ctx context.Context, srv ServerInstance, params map[string]any) (any, *RPCError)

// Router routes mcp_message payloads to in-process servers. Servers are
// fixed at construction; methods may be added with Handle.
type Router struct {
	log     *slog.Logger
	servers map[string]ServerInstance

	mu      sync.RWMutex
	methods map[string]MethodHandler
}

// NewRouter creates a router over servers with initialize, ping,
// notifications/initialized, tools/list and tools/call registered.
func NewRouter(log *slog.Logger, servers map[string]ServerInstance) *Router {
	r := &Router{
		log:     log.With("component", "mcp_router"),
		servers: maps.Clone(servers),
		methods: make(map[string]MethodHandler, 8),
	}

	if r.servers == nil {
		r.servers = map[string]ServerInstance{}
	}

	r.Handle("initialize", handleInitialize)
	r.Handle("notifications/initialized", handleEmpty)
	r.Handle("ping", handleEmpty)
	r.Handle("tools/list", handleToolsList)
	r.Handle("tools/call", r.handleToolsCall)

	return r
}

// Handle registers or replaces the handler for method.
func (r *Router) Handle(method string, h MethodHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.methods[method] = h
}

// ServerNames returns the registered server names, sorted.
func (r *Router) ServerNames() []string {
	return slices.Sorted(maps.Keys(r.servers))
}

// Len returns the number of registered servers.
func (r *Router) Len() int {
	return len(r.servers)
}

// Route serves one JSON-RPC message addressed to serverName and returns the
// control response payload {"mcp_response": {...}}. Routing misses are
// reported inside the JSON-RPC response, never as a Go error. An error is
// returned only when message is missing.
func (r *Router) Route(ctx context.Context, serverName string, message map[string]any) (map[string]any, error) {
	if message == nil {
		return nil, stderrors.New("mcp_message request has no message")
	}

	id := normalizeID(message["id"])
	method, _ := message["method"].(string)
	params, _ := message["params"].(map[string]any)

	srv, ok := r.servers[serverName]
	if !ok {
		r.log.Warn("mcp message for unknown server", "server", serverName, "method", method)

		return rpcError(id, CodeMethodNotFound, "MCP server not found: "+serverName), nil
	}

	r.mu.RLock()
	h, ok := r.methods[method]
	r.mu.RUnlock()

	if !ok {
		r.log.Warn("mcp method not found", "server", serverName, "method", method)

		return rpcError(id, CodeMethodNotFound, "Method not found: "+method), nil
	}

	r.log.Debug("routing mcp message", "server", serverName, "method", method)

	result, rpcErr := h(ctx, srv, params)
	if rpcErr != nil {
		return rpcError(id, rpcErr.Code, rpcErr.Message), nil
	}

	return map[string]any{
		"mcp_response": map[string]any{
			"jsonrpc": "2.0",
			"id":      id,
			"result":  result,
		},
	}, nil
}

func handleInitialize(_ context.Context, srv ServerInstance, _ map[string]any) (any, *RPCError) {
	return map[string]any{
		"protocolVersion": ProtocolVersion,
		"capabilities":    map[string]any{"tools": map[string]any{}},
		"serverInfo": map[string]any{
			"name":    srv.Name(),
			"version": srv.Version(),
		},
	}, nil
}

func handleEmpty(context.Context, ServerInstance, map[string]any) (any, *RPCError) {
	return map[string]any{}, nil
}

func handleToolsList(_ context.Context, srv ServerInstance, _ map[string]any) (any, *RPCError) {
	tools := srv.ListTools()
	out := make([]map[string]any, 0, len(tools))

	for _, t := range tools {
		entry := map[string]any{
			"name":        t.Name,
			"description": t.Description,
		}

		if m := toMap(t.InputSchema); m != nil {
			entry["inputSchema"] = m
		}

		if t.Annotations != nil {
			if m := toMap(t.Annotations); m != nil {
				entry["annotations"] = m
			}
		}

		out = append(out, entry)
	}

	return map[string]any{"tools": out}, nil
}

func (r *Router) handleToolsCall(ctx context.Context, srv ServerInstance, params map[string]any) (any, *RPCError) {
	if params == nil {
		return nil, &RPCError{Code: CodeInvalidParams, Message: "Missing params for tools/call"}
	}

	name, _ := params["name"].(string)
	if name == "" {
		return nil, &RPCError{Code: CodeInvalidParams, Message: "Missing tool name in params"}
	}

	args, _ := params["arguments"].(map[string]any)

	result, err := srv.CallTool(ctx, name, args)

	switch {
	case stderrors.Is(err, errors.ErrUnknownTool):
		r.log.Warn("unknown tool", "server", srv.Name(), "tool", name)

		return resultMap(ErrorResult("Unknown tool: " + name)), nil
	case err != nil:
		r.log.Debug("tool failed", "server", srv.Name(), "tool", name, "error", err)

		return resultMap(ErrorResult("Tool execution failed: " + err.Error())), nil
	default:
		return resultMap(result), nil
	}
}

// resultMap converts a go-sdk tool result to the agent's wire shape.
func resultMap(result *mcp.CallToolResult) map[string]any {
	if result == nil {
		return map[string]any{"content": []map[string]any{}}
	}

	content := make([]map[string]any, 0, len(result.Content))

	for _, c := range result.Content {
		switch v := c.(type) {
		case *mcp.TextContent:
			content = append(content, map[string]any{"type": "text", "text": v.Text})
		case *mcp.ImageContent:
			content = append(content, map[string]any{"type": "image", "data": v.Data, "mimeType": v.MIMEType})
		case *mcp.AudioContent:
			content = append(content, map[string]any{"type": "audio", "data": v.Data, "mimeType": v.MIMEType})
		case *mcp.ResourceLink:
			content = append(content, map[string]any{"type": "resource_link", "uri": v.URI, "name": v.Name})
		case *mcp.EmbeddedResource:
			if v.Resource == nil {
				continue
			}

			content = append(content, map[string]any{
				"type": "resource",
				"resource": map[string]any{
					"uri":      v.Resource.URI,
					"mimeType": v.Resource.MIMEType,
					"text":     v.Resource.Text,
				},
			})
		}
	}

	out := map[string]any{"content": content}

	if result.StructuredContent != nil {
		out["structuredContent"] = result.StructuredContent
	}

	if result.IsError {
		out["is_error"] = true
	}

	return out
}

func rpcError(id any, code int, msg string) map[string]any {
	return map[string]any{
		"mcp_response": map[string]any{
			"jsonrpc": "2.0",
			"id":      id,
			"error":   &RPCError{Code: code, Message: msg},
		},
	}
}

// normalizeID turns integral JSON numbers back into ints so the id echoes
// the way the agent sent it.
func normalizeID(v any) any {
	if f, ok := v.(float64); ok && f == float64(int64(f)) {
		return int(f)
	}

	return v
}

func toMap(v any) map[string]any {
	if v == nil {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}

	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}

	return m
}

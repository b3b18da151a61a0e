package agentctl

import (
	"context"
	"fmt"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textOf(t *testing.T, result *CallToolResult) string {
	t.Helper()

	require.NotNil(t, result)
	require.Len(t, result.Content, 1)

	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok)

	return text.Text
}

func TestCreateMCPServer(t *testing.T) {
	add := NewMCPTool("add", "Add two numbers",
		SimpleSchema(map[string]string{"a": "float64", "b": "float64"}),
		func(_ context.Context, req *CallToolRequest) (*CallToolResult, error) {
			args, err := ParseArguments(req)
			if err != nil {
				return ErrorResult(err.Error()), nil
			}

			return TextResult(fmt.Sprint(args["a"].(float64) + args["b"].(float64))), nil
		},
		WithAnnotations(&MCPToolAnnotations{ReadOnlyHint: true}),
	)

	server := CreateMCPServer("calc", "2.0.0", add)

	assert.Equal(t, "calc", server.Name())
	assert.Equal(t, "2.0.0", server.Version())

	tools := server.ListTools()
	require.Len(t, tools, 1)
	assert.Equal(t, "add", tools[0].Name)
	require.NotNil(t, tools[0].Annotations)
	assert.True(t, tools[0].Annotations.ReadOnlyHint)

	result, err := server.CallTool(context.Background(), "add", map[string]any{"a": 2.0, "b": 3.5})
	require.NoError(t, err)
	assert.Equal(t, "5.5", textOf(t, result))

	_, err = server.CallTool(context.Background(), "missing", nil)
	require.Error(t, err)
}

func TestSDKToolServer(t *testing.T) {
	failing := NewTool("fail", "Always fails", nil,
		func(context.Context, map[string]any) (map[string]any, error) {
			return nil, fmt.Errorf("database unavailable")
		},
	)

	greet := NewTool("greet", "Greets",
		map[string]any{
			"type":       "object",
			"properties": map[string]any{"name": map[string]any{"type": "string"}},
		},
		func(_ context.Context, input map[string]any) (map[string]any, error) {
			return map[string]any{"greeting": "hello " + input["name"].(string)}, nil
		},
	)

	server := createSDKToolServer([]Tool{failing, greet})

	assert.Equal(t, sdkToolServerName, server.Name())
	require.Len(t, server.ListTools(), 2)

	result, err := server.CallTool(context.Background(), "greet", map[string]any{"name": "ada"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"greeting":"hello ada"}`, textOf(t, result))

	result, err = server.CallTool(context.Background(), "fail", nil)
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Equal(t, "database unavailable", textOf(t, result))
}

func TestMapToJSONSchema(t *testing.T) {
	assert.Nil(t, mapToJSONSchema(nil))

	schema := mapToJSONSchema(map[string]any{
		"type":       "object",
		"properties": map[string]any{"path": map[string]any{"type": "string"}},
		"required":   []string{"path"},
	})
	require.NotNil(t, schema)
	assert.Equal(t, "object", schema.Type)
	assert.Equal(t, []string{"path"}, schema.Required)
	require.Contains(t, schema.Properties, "path")
	assert.Equal(t, "string", schema.Properties["path"].Type)
}

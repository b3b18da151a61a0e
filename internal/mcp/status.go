package mcp

import "encoding/json"

// ServerStatus is the connection status of one MCP server as reported by the agent.
type ServerStatus struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

// Status is the mcp_status response.
type Status struct {
	MCPServers []ServerStatus `json:"mcpServers"`
}

// ParseStatus decodes the payload of an mcp_status response.
func ParseStatus(payload map[string]any) (*Status, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	var st Status
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, err
	}

	return &st, nil
}

// Package mcp hosts Model Context Protocol tool servers inside the client
// process.
//
// The agent reaches these servers through mcp_message control requests that
// wrap a JSON-RPC call. Router resolves the addressed server and dispatches
// the call through an open method table, so new methods are registered
// rather than added to a switch.
package mcp

// Package client implements the interactive Client for multi-turn sessions
// with an agent process.
//
// A Client owns one protocol session. It wires the user's hooks, permission
// callback and in-process MCP servers into the dispatcher, performs the
// initialize handshake, and then offers:
//   - prompt writes and ordered message streams
//   - interrupt, set_model, set_permission_mode, mcp_status and rewind_files
//   - server info from the handshake
package client

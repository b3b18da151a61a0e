package config

import (
	"io"
	"log/slog"
	"time"

	"github.com/wagiedev/agentctl-go/internal/hook"
	"github.com/wagiedev/agentctl-go/internal/mcp"
	"github.com/wagiedev/agentctl-go/internal/permission"
)

// Options configures a client.
type Options struct {
	// Logger is the slog logger for debug output.
	// If nil, logging is disabled (silent operation).
	Logger *slog.Logger

	// Transport carries the protocol. It is required.
	Transport Transport `json:"-"`

	// Model is sent with set_model when non-empty after initialize.
	Model string

	// PermissionMode is sent with set_permission_mode when non-empty after
	// initialize. Legacy aliases are normalized.
	PermissionMode string

	// Hooks configures event hooks for tool interception.
	Hooks map[hook.Event][]*hook.Matcher

	// CanUseTool is called before each tool use for permission checking.
	// If nil, Engine.DefaultPermission decides.
	CanUseTool permission.Callback

	// MCPServers are in-process tool servers the agent reaches through
	// mcp_message requests.
	MCPServers map[string]mcp.ServerInstance

	// Agents defines custom agent configurations keyed by name.
	Agents map[string]*AgentDefinition

	// Engine tunes timeouts, grace periods and defaults. Zero fields use
	// DefaultEngine values.
	Engine Engine

	// InitializeTimeout overrides Engine.InitializeTimeout and the
	// CLAUDE_CODE_STREAM_CLOSE_TIMEOUT env var.
	// If nil, defaults to 60 seconds.
	InitializeTimeout *time.Duration
}

// GetLogger returns o.Logger or a logger that discards everything.
func (o *Options) GetLogger() *slog.Logger {
	if o == nil || o.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return o.Logger
}

// EngineConfig returns the effective tuning with defaults applied.
func (o *Options) EngineConfig() Engine {
	if o == nil {
		return DefaultEngine()
	}

	return o.Engine.WithDefaults()
}

// ResolveInitializeTimeout picks the initialize timeout: the explicit
// option first, then Engine.InitializeTimeout, then the env var, then the
// default.
func (o *Options) ResolveInitializeTimeout() time.Duration {
	if o != nil {
		if o.InitializeTimeout != nil && *o.InitializeTimeout > 0 {
			return *o.InitializeTimeout
		}

		if o.Engine.InitializeTimeout > 0 {
			return o.Engine.InitializeTimeout
		}
	}

	if d, ok := envInitializeTimeout(); ok {
		return d
	}

	return DefaultEngine().InitializeTimeout
}

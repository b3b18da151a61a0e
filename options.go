package agentctl

import (
	"log/slog"
	"maps"
	"time"

	"github.com/wagiedev/agentctl-go/internal/mcp"
)

// Option configures Options using the functional options pattern.
type Option func(*Options)

// applyOptions applies functional options to a fresh Options struct.
func applyOptions(opts []Option) *Options {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}

	return options
}

// ===== Basic Configuration =====

// WithLogger sets the logger for debug output.
// If not set, logging is disabled (silent operation).
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithTransport sets the transport the session runs over. It is required.
func WithTransport(transport Transport) Option {
	return func(o *Options) {
		o.Transport = transport
	}
}

// WithModel switches the agent's model right after initialize.
func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// WithPermissionMode switches the permission mode right after initialize.
// Valid values: "default", "acceptEdits", "plan", "bypassPermissions".
func WithPermissionMode(mode string) Option {
	return func(o *Options) {
		o.PermissionMode = mode
	}
}

// WithAgents defines custom agents announced during initialize.
func WithAgents(agents map[string]*AgentDefinition) Option {
	return func(o *Options) {
		o.Agents = agents
	}
}

// ===== Callbacks =====

// WithHooks configures event hooks for tool interception.
func WithHooks(hooks map[HookEvent][]*HookMatcher) Option {
	return func(o *Options) {
		o.Hooks = hooks
	}
}

// WithCanUseTool sets the permission callback consulted before each tool use.
func WithCanUseTool(callback ToolPermissionCallback) Option {
	return func(o *Options) {
		o.CanUseTool = callback
	}
}

// WithDefaultPermission sets the decision used when no permission callback
// is registered.
func WithDefaultPermission(behavior PermissionBehavior) Option {
	return func(o *Options) {
		o.Engine.DefaultPermission = behavior
	}
}

// ===== MCP =====

// WithMCPServers adds in-process MCP servers keyed by the name the agent uses.
func WithMCPServers(servers map[string]MCPServer) Option {
	return func(o *Options) {
		if o.MCPServers == nil {
			o.MCPServers = make(map[string]mcp.ServerInstance, len(servers))
		}

		maps.Copy(o.MCPServers, servers)
	}
}

// WithMCPServer adds one in-process MCP server.
func WithMCPServer(name string, server MCPServer) Option {
	return WithMCPServers(map[string]MCPServer{name: server})
}

// WithSDKTools registers tools on an in-process server named "sdk". The agent
// sees them as mcp__sdk__<name>.
func WithSDKTools(tools ...Tool) Option {
	return WithMCPServer(sdkToolServerName, createSDKToolServer(tools))
}

// ===== Engine Tuning =====

// WithEngineConfig replaces the engine tuning. Zero fields keep defaults.
// Apply it before the individual timeout options.
func WithEngineConfig(engine *EngineConfig) Option {
	return func(o *Options) {
		if engine != nil {
			o.Engine = *engine
		}
	}
}

// WithInitializeTimeout bounds the initialize handshake. It takes precedence
// over the engine config and the CLAUDE_CODE_STREAM_CLOSE_TIMEOUT env var.
func WithInitializeTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.InitializeTimeout = &timeout
	}
}

// WithRequestTimeout bounds outgoing control requests after initialize.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.Engine.RequestTimeout = timeout
	}
}

// WithHookTimeout sets the default deadline for hook callbacks.
func WithHookTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.Engine.HookTimeout = timeout
	}
}

// WithPermissionTimeout sets the deadline for the permission callback.
func WithPermissionTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.Engine.PermissionTimeout = timeout
	}
}

// WithMCPTimeout sets the deadline for in-process MCP calls.
func WithMCPTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.Engine.MCPTimeout = timeout
	}
}

// WithCallbackGracePeriod sets how long a signalled callback may keep
// running before it is abandoned.
func WithCallbackGracePeriod(grace time.Duration) Option {
	return func(o *Options) {
		o.Engine.CallbackGrace = grace
	}
}

// WithShutdownGrace sets how long Close waits for the agent to drain.
func WithShutdownGrace(grace time.Duration) Option {
	return func(o *Options) {
		o.Engine.ShutdownGrace = grace
	}
}

// WithMaxBufferSize sets the largest line, in bytes, accepted from the
// agent. The default is 1MB; a longer line ends the session.
func WithMaxBufferSize(size int) Option {
	return func(o *Options) {
		o.Engine.MaxBufferSize = size
	}
}

// WithMessageBufferSize sets the per-subscriber message buffer. When a
// receiver stops reading and the buffer fills, the session stops reading
// from the agent too, including control traffic, so keep draining
// ReceiveMessages or close the client.
func WithMessageBufferSize(size int) Option {
	return func(o *Options) {
		o.Engine.MessageBuffer = size
	}
}

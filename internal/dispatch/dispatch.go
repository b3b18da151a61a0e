// Package dispatch runs inbound control calls from the agent against the
// user's hook, permission and MCP callbacks.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/wagiedev/agentctl-go/internal/errors"
	"github.com/wagiedev/agentctl-go/internal/hook"
	"github.com/wagiedev/agentctl-go/internal/mcp"
	"github.com/wagiedev/agentctl-go/internal/message"
	"github.com/wagiedev/agentctl-go/internal/permission"
	"github.com/wagiedev/agentctl-go/internal/protocol"
	"github.com/wagiedev/agentctl-go/internal/signal"
)

const (
	defaultCallbackTimeout = 60 * time.Second
	defaultGracePeriod     = 2 * time.Second
)

var _ protocol.Dispatcher = (*Dispatcher)(nil)

// HandlerFunc serves one control subtype. ctx is cancelled when sig fires.
type HandlerFunc func(ctx context.Context, sig *signal.Signal, req *message.ControlRequest) (map[string]any, error)

// Config wires the dispatcher to user callbacks. Zero durations select defaults.
type Config struct {
	Hooks             *hook.Registry
	CanUseTool        permission.Callback
	DefaultPermission permission.Behavior
	Router            *mcp.Router

	HookTimeout       time.Duration
	PermissionTimeout time.Duration
	MCPTimeout        time.Duration
	// GracePeriod is how long a timed out or cancelled callback may take to
	// return before it is abandoned.
	GracePeriod time.Duration
}

type route struct {
	category protocol.Category
	timeout  time.Duration
	handler  HandlerFunc
}

// Dispatcher is a subtype route table. It implements protocol.Dispatcher.
type Dispatcher struct {
	log *slog.Logger
	cfg Config

	mu     sync.RWMutex
	routes map[string]route
}

// New creates a dispatcher with hook_callback, can_use_tool and mcp_message
// registered.
func New(log *slog.Logger, cfg Config) *Dispatcher {
	if cfg.Hooks == nil {
		cfg.Hooks = hook.NewRegistry(nil)
	}

	if cfg.Router == nil {
		cfg.Router = mcp.NewRouter(log, nil)
	}

	if cfg.DefaultPermission == "" {
		cfg.DefaultPermission = permission.BehaviorAllow
	}

	cfg.HookTimeout = orDefault(cfg.HookTimeout, defaultCallbackTimeout)
	cfg.PermissionTimeout = orDefault(cfg.PermissionTimeout, defaultCallbackTimeout)
	cfg.MCPTimeout = orDefault(cfg.MCPTimeout, defaultCallbackTimeout)
	cfg.GracePeriod = orDefault(cfg.GracePeriod, defaultGracePeriod)

	d := &Dispatcher{
		log:    log.With("component", "dispatcher"),
		cfg:    cfg,
		routes: make(map[string]route, 4),
	}

	d.Handle(message.SubtypeHookCallback, protocol.CategoryHook, cfg.HookTimeout, d.handleHook)
	d.Handle(message.SubtypeCanUseTool, protocol.CategoryPermission, cfg.PermissionTimeout, d.handleCanUseTool)
	d.Handle(message.SubtypeMCPMessage, protocol.CategoryMCP, cfg.MCPTimeout, d.handleMCPMessage)

	return d
}

func orDefault(d, def time.Duration) time.Duration {
	if d > 0 {
		return d
	}

	return def
}

// Handle registers or replaces the handler for subtype.
func (d *Dispatcher) Handle(subtype string, cat protocol.Category, timeout time.Duration, h HandlerFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.routes[subtype] = route{category: cat, timeout: timeout, handler: h}
}

// Classify implements protocol.Dispatcher. Hook calls use their matcher's
// timeout when one is set.
func (d *Dispatcher) Classify(req *message.ControlRequest) (protocol.Category, time.Duration, bool) {
	d.mu.RLock()
	r, ok := d.routes[req.Subtype()]
	d.mu.RUnlock()

	if !ok {
		return "", 0, false
	}

	timeout := r.timeout

	if req.Subtype() == message.SubtypeHookCallback {
		id, _ := req.Request["callback_id"].(string)
		if e, found := d.cfg.Hooks.Lookup(id); found && e.Timeout() > 0 {
			timeout = e.Timeout()
		}
	}

	return r.category, timeout, true
}

// Dispatch implements protocol.Dispatcher.
func (d *Dispatcher) Dispatch(sig *signal.Signal, req *message.ControlRequest, timeout time.Duration) (map[string]any, error) {
	d.mu.RLock()
	r, ok := d.routes[req.Subtype()]
	d.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", errors.ErrUnknownSubtype, req.Subtype())
	}

	return d.run(sig, r.category, req.RequestID, timeout, func(ctx context.Context) (map[string]any, error) {
		return r.handler(ctx, sig, req)
	})
}

// InitializePayload builds the initialize request body announcing hook
// callback ids and agent definitions.
func (d *Dispatcher) InitializePayload(agents map[string]any) map[string]any {
	payload := map[string]any{"hooks": d.cfg.Hooks.Config()}

	if len(agents) > 0 {
		payload["agents"] = agents
	}

	return payload
}

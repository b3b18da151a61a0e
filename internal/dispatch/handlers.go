package dispatch

import (
	"context"
	"fmt"

	"github.com/wagiedev/agentctl-go/internal/errors"
	"github.com/wagiedev/agentctl-go/internal/hook"
	"github.com/wagiedev/agentctl-go/internal/message"
	"github.com/wagiedev/agentctl-go/internal/permission"
	"github.com/wagiedev/agentctl-go/internal/signal"
)

// handleHook runs the callbacks for a hook_callback request. A known
// callback_id selects exactly that callback; otherwise every entry matching
// the event and tool runs in registration order until one stops the chain.
func (d *Dispatcher) handleHook(
	ctx context.Context,
	sig *signal.Signal,
	req *message.ControlRequest,
) (map[string]any, error) {
	payload := req.Payload()

	input, _ := payload["input"].(map[string]any)
	if input == nil {
		input = map[string]any{}
	}

	callbackID, _ := payload["callback_id"].(string)
	event, _ := input["hook_event_name"].(string)
	toolName, _ := input["tool_name"].(string)

	hc := &hook.Context{
		Event:    hook.Event(event),
		ToolName: toolName,
		Payload:  input,
		Signal:   sig,
	}

	if id, ok := payload["tool_use_id"].(string); ok {
		hc.ToolUseID = &id
	}

	typed, err := hook.ParseInput(input)
	if err != nil {
		return nil, &errors.CallbackError{Category: "hook", Err: err}
	}

	hc.Input = typed

	var entries []*hook.Entry

	if entry, ok := d.cfg.Hooks.Lookup(callbackID); ok {
		entries = []*hook.Entry{entry}
	} else {
		if callbackID != "" {
			d.log.Debug("unknown hook callback id, matching by event", "callback_id", callbackID, "event", event)
		}

		entries = d.cfg.Hooks.Match(hook.Event(event), toolName)
	}

	var out *hook.Output

	for _, entry := range entries {
		res, err := entry.Callback(ctx, hc)
		if err != nil {
			return nil, &errors.CallbackError{Category: "hook", Err: fmt.Errorf("%s: %w", entry.ID, err)}
		}

		if res != nil {
			out = res
		}

		if res.Stops() {
			break
		}
	}

	return out.Wire(), nil
}

// handleCanUseTool asks the permission callback whether a tool may run. With
// no callback configured the default policy answers.
func (d *Dispatcher) handleCanUseTool(
	ctx context.Context,
	sig *signal.Signal,
	req *message.ControlRequest,
) (map[string]any, error) {
	if d.cfg.CanUseTool == nil {
		return permission.Default(d.cfg.DefaultPermission).Wire(), nil
	}

	payload := req.Payload()

	pc := &permission.Context{Signal: sig}
	pc.ToolName, _ = payload["tool_name"].(string)
	pc.Input, _ = payload["input"].(map[string]any)

	if pc.Input == nil {
		pc.Input = map[string]any{}
	}

	if path, ok := payload["blocked_path"].(string); ok {
		pc.BlockedPath = &path
	}

	rawSuggestions, ok := payload["permission_suggestions"].([]any)
	if !ok {
		rawSuggestions, _ = payload["suggestions"].([]any)
	}

	suggestions, err := permission.ParseUpdates(rawSuggestions)
	if err != nil {
		d.log.Debug("ignoring malformed permission suggestions", "error", err)
	} else {
		pc.Suggestions = suggestions
	}

	res, err := d.cfg.CanUseTool(ctx, pc)
	if err != nil {
		return nil, &errors.CallbackError{Category: "permission", Err: err}
	}

	if res == nil {
		return nil, &errors.CallbackError{Category: "permission", Err: fmt.Errorf("no decision for tool %q", pc.ToolName)}
	}

	return res.Wire(), nil
}

// handleMCPMessage forwards a JSON-RPC message to the named in-process server.
func (d *Dispatcher) handleMCPMessage(
	ctx context.Context,
	_ *signal.Signal,
	req *message.ControlRequest,
) (map[string]any, error) {
	payload := req.Payload()

	serverName, _ := payload["server_name"].(string)
	msg, _ := payload["message"].(map[string]any)

	resp, err := d.cfg.Router.Route(ctx, serverName, msg)
	if err != nil {
		return nil, &errors.CallbackError{Category: "mcp", Err: err}
	}

	return resp, nil
}

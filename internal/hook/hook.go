package hook

import (
	"context"

	"github.com/wagiedev/agentctl-go/internal/signal"
)

// Event is the lifecycle point that triggers a hook.
type Event string

const (
	// EventPreToolUse fires before a tool runs.
	EventPreToolUse Event = "PreToolUse"
	// EventPostToolUse fires after a tool succeeds.
	EventPostToolUse Event = "PostToolUse"
	// EventPostToolUseFailure fires after a tool fails.
	EventPostToolUseFailure Event = "PostToolUseFailure"
	// EventUserPromptSubmit fires when a prompt is submitted.
	EventUserPromptSubmit Event = "UserPromptSubmit"
	// EventStop fires when the session stops.
	EventStop Event = "Stop"
	// EventSubagentStart fires when a subagent starts.
	EventSubagentStart Event = "SubagentStart"
	// EventSubagentStop fires when a subagent stops.
	EventSubagentStop Event = "SubagentStop"
	// EventPreCompact fires before transcript compaction.
	EventPreCompact Event = "PreCompact"
	// EventNotification fires when the agent emits a notification.
	EventNotification Event = "Notification"
	// EventPermissionRequest fires when a permission prompt would be shown.
	EventPermissionRequest Event = "PermissionRequest"
)

// Context is handed to a hook callback. The engine does not modify it after
// dispatch.
type Context struct {
	// Event is the lifecycle point, taken from hook_event_name.
	Event Event
	// ToolName is set for tool events and empty otherwise.
	ToolName string
	// ToolUseID identifies the tool invocation, when the agent supplied one.
	ToolUseID *string
	// Input is the typed form of Payload. It is nil for events this package
	// does not model.
	Input Input
	// Payload is the raw input object sent by the agent.
	Payload map[string]any
	// Signal fires when the call times out or the agent cancels it.
	Signal *signal.Signal
}

// Callback handles one hook invocation. ctx is cancelled when the signal
// fires. A nil Output means continue.
type Callback func(ctx context.Context, hc *Context) (*Output, error)

// Output is what a hook callback returns to the agent.
type Output struct {
	Continue       *bool
	SuppressOutput *bool
	StopReason     *string
	// Decision is "block" to stop the operation.
	Decision      *string
	SystemMessage *string
	Reason        *string
	Specific      SpecificOutput

	// Async defers the result; AsyncTimeoutMs bounds how long the agent waits.
	Async          bool
	AsyncTimeoutMs *int
}

// Continue returns an output that lets the operation proceed.
func Continue() *Output {
	return &Output{Continue: new(true)}
}

// Block returns an output that blocks the operation with reason.
func Block(reason string) *Output {
	return &Output{Decision: new("block"), Reason: &reason}
}

// Modify returns an output that lets a tool run with replaced input.
func Modify(updatedInput map[string]any) *Output {
	return &Output{
		Continue: new(true),
		Specific: &PreToolUseSpecificOutput{
			HookEventName: string(EventPreToolUse),
			UpdatedInput:  updatedInput,
		},
	}
}

// Stops reports whether o ends the callback chain for its event.
func (o *Output) Stops() bool {
	if o == nil {
		return false
	}

	return (o.Continue != nil && !*o.Continue) || (o.Decision != nil && *o.Decision == "block")
}

// Wire converts o to the response object the agent expects.
func (o *Output) Wire() map[string]any {
	if o == nil {
		return map[string]any{"continue": true}
	}

	if o.Async {
		out := map[string]any{"async": true}
		if o.AsyncTimeoutMs != nil {
			out["asyncTimeout"] = *o.AsyncTimeoutMs
		}

		return out
	}

	out := make(map[string]any, 8)
	out["continue"] = o.Continue == nil || *o.Continue

	setString := func(key string, v *string) {
		if v != nil {
			out[key] = *v
		}
	}

	setString("stopReason", o.StopReason)
	setString("decision", o.Decision)
	setString("systemMessage", o.SystemMessage)
	setString("reason", o.Reason)

	if o.SuppressOutput != nil {
		out["suppressOutput"] = *o.SuppressOutput
	}

	if o.Specific != nil {
		out["hookSpecificOutput"] = o.Specific
	}

	return out
}

// SpecificOutput carries fields that only apply to one event.
type SpecificOutput interface {
	GetHookEventName() string
}

var (
	_ SpecificOutput = (*PreToolUseSpecificOutput)(nil)
	_ SpecificOutput = (*PostToolUseSpecificOutput)(nil)
	_ SpecificOutput = (*ContextOutput)(nil)
	_ SpecificOutput = (*PermissionRequestSpecificOutput)(nil)
)

// PreToolUseSpecificOutput can override the permission decision or the tool input.
type PreToolUseSpecificOutput struct {
	HookEventName            string         `json:"hookEventName"`
	PermissionDecision       *string        `json:"permissionDecision,omitempty"`
	PermissionDecisionReason *string        `json:"permissionDecisionReason,omitempty"`
	UpdatedInput             map[string]any `json:"updatedInput,omitempty"`
	AdditionalContext        *string        `json:"additionalContext,omitempty"`
}

// GetHookEventName implements SpecificOutput.
func (p *PreToolUseSpecificOutput) GetHookEventName() string { return string(EventPreToolUse) }

// PostToolUseSpecificOutput can add context or replace an MCP tool's output.
type PostToolUseSpecificOutput struct {
	HookEventName        string  `json:"hookEventName"`
	AdditionalContext    *string `json:"additionalContext,omitempty"`
	UpdatedMCPToolOutput any     `json:"updatedMCPToolOutput,omitempty"` //nolint:tagliatelle // agent uses MCP acronym
}

// GetHookEventName implements SpecificOutput.
func (p *PostToolUseSpecificOutput) GetHookEventName() string { return string(EventPostToolUse) }

// ContextOutput adds context for events whose only specific field is
// additionalContext, such as UserPromptSubmit or Notification.
type ContextOutput struct {
	HookEventName     string  `json:"hookEventName"`
	AdditionalContext *string `json:"additionalContext,omitempty"`
}

// GetHookEventName implements SpecificOutput.
func (c *ContextOutput) GetHookEventName() string { return c.HookEventName }

// PermissionRequestSpecificOutput answers a permission prompt from a hook.
type PermissionRequestSpecificOutput struct {
	HookEventName string         `json:"hookEventName"`
	Decision      map[string]any `json:"decision,omitempty"`
}

// GetHookEventName implements SpecificOutput.
func (p *PermissionRequestSpecificOutput) GetHookEventName() string {
	return string(EventPermissionRequest)
}

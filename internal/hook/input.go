package hook

import (
	"encoding/json"
	"fmt"
)

// Input is the typed form of a hook's input object.
type Input interface {
	Base() *BaseInput
}

// BaseInput holds the fields every hook input carries.
//
//nolint:tagliatelle // the agent uses snake_case
type BaseInput struct {
	HookEventName  Event   `json:"hook_event_name"`
	SessionID      string  `json:"session_id"`
	TranscriptPath string  `json:"transcript_path"`
	Cwd            string  `json:"cwd"`
	PermissionMode *string `json:"permission_mode,omitempty"`
}

// Base implements Input.
func (b *BaseInput) Base() *BaseInput { return b }

// ToolCall is shared by the tool lifecycle events.
//
//nolint:tagliatelle // the agent uses snake_case
type ToolCall struct {
	ToolName  string         `json:"tool_name"`
	ToolInput map[string]any `json:"tool_input"`
	ToolUseID string         `json:"tool_use_id"`
}

// PreToolUseInput is sent before a tool runs.
type PreToolUseInput struct {
	BaseInput
	ToolCall
}

// PostToolUseInput is sent after a tool succeeds.
//
//nolint:tagliatelle // the agent uses snake_case
type PostToolUseInput struct {
	BaseInput
	ToolCall
	ToolResponse any `json:"tool_response"`
}

// PostToolUseFailureInput is sent after a tool fails.
//
//nolint:tagliatelle // the agent uses snake_case
type PostToolUseFailureInput struct {
	BaseInput
	ToolCall
	Error       string `json:"error"`
	IsInterrupt *bool  `json:"is_interrupt,omitempty"`
}

// UserPromptSubmitInput is sent when a prompt is submitted.
type UserPromptSubmitInput struct {
	BaseInput
	Prompt string `json:"prompt"`
}

// StopInput is sent when the session stops.
//
//nolint:tagliatelle // the agent uses snake_case
type StopInput struct {
	BaseInput
	StopHookActive bool `json:"stop_hook_active"`
}

// SubagentStartInput is sent when a subagent starts.
//
//nolint:tagliatelle // the agent uses snake_case
type SubagentStartInput struct {
	BaseInput
	AgentID   string `json:"agent_id"`
	AgentType string `json:"agent_type"`
}

// SubagentStopInput is sent when a subagent stops.
//
//nolint:tagliatelle // the agent uses snake_case
type SubagentStopInput struct {
	BaseInput
	StopHookActive      bool   `json:"stop_hook_active"`
	AgentID             string `json:"agent_id"`
	AgentTranscriptPath string `json:"agent_transcript_path"`
	AgentType           string `json:"agent_type"`
}

// PreCompactInput is sent before compaction. Trigger is "manual" or "auto".
//
//nolint:tagliatelle // the agent uses snake_case
type PreCompactInput struct {
	BaseInput
	Trigger            string  `json:"trigger"`
	CustomInstructions *string `json:"custom_instructions,omitempty"`
}

// NotificationInput is sent with agent notifications.
//
//nolint:tagliatelle // the agent uses snake_case
type NotificationInput struct {
	BaseInput
	Message          string  `json:"message"`
	Title            *string `json:"title,omitempty"`
	NotificationType string  `json:"notification_type"`
}

// PermissionRequestInput is sent when a permission prompt would be shown.
//
//nolint:tagliatelle // the agent uses snake_case
type PermissionRequestInput struct {
	BaseInput
	ToolName              string         `json:"tool_name"`
	ToolInput             map[string]any `json:"tool_input"`
	PermissionSuggestions []any          `json:"permission_suggestions"`
}

var inputFactories = map[Event]func() Input{
	EventPreToolUse:         func() Input { return &PreToolUseInput{} },
	EventPostToolUse:        func() Input { return &PostToolUseInput{} },
	EventPostToolUseFailure: func() Input { return &PostToolUseFailureInput{} },
	EventUserPromptSubmit:   func() Input { return &UserPromptSubmitInput{} },
	EventStop:               func() Input { return &StopInput{} },
	EventSubagentStart:      func() Input { return &SubagentStartInput{} },
	EventSubagentStop:       func() Input { return &SubagentStopInput{} },
	EventPreCompact:         func() Input { return &PreCompactInput{} },
	EventNotification:       func() Input { return &NotificationInput{} },
	EventPermissionRequest:  func() Input { return &PermissionRequestInput{} },
}

// ParseInput builds the typed input for payload. Events without a typed
// form return a nil Input and no error.
func ParseInput(payload map[string]any) (Input, error) {
	name, _ := payload["hook_event_name"].(string)

	factory, ok := inputFactories[Event(name)]
	if !ok {
		return nil, nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal hook input: %w", err)
	}

	in := factory()
	if err := json.Unmarshal(data, in); err != nil {
		return nil, fmt.Errorf("unmarshal %s input: %w", name, err)
	}

	return in, nil
}

package message

import "encoding/json"

// Message is a data event forwarded to subscribers: assistant, user, result,
// stream and system messages. Use a type switch to determine the concrete type.
type Message interface {
	Event
	MessageType() string
}

// Compile-time verification that all data message types implement Message.
var (
	_ Message = (*UserMessage)(nil)
	_ Message = (*AssistantMessage)(nil)
	_ Message = (*SystemMessage)(nil)
	_ Message = (*ResultMessage)(nil)
	_ Message = (*StreamEvent)(nil)
)

// UserMessageContent represents content that can be either a string or []ContentBlock.
type UserMessageContent struct {
	text   *string
	blocks []ContentBlock
}

// NewUserMessageContent creates UserMessageContent from a string.
func NewUserMessageContent(text string) UserMessageContent {
	return UserMessageContent{text: &text}
}

// NewUserMessageContentBlocks creates UserMessageContent from blocks.
func NewUserMessageContentBlocks(blocks []ContentBlock) UserMessageContent {
	return UserMessageContent{blocks: blocks}
}

// String returns the string content if it was originally a string, or empty string.
func (c *UserMessageContent) String() string {
	if c.text != nil {
		return *c.text
	}

	return ""
}

// Blocks returns content as []ContentBlock, normalizing a string to one TextBlock.
func (c *UserMessageContent) Blocks() []ContentBlock {
	if c.blocks != nil {
		return c.blocks
	}

	if c.text != nil {
		return []ContentBlock{&TextBlock{Type: BlockTypeText, Text: *c.text}}
	}

	return nil
}

// IsString returns true if content was originally a string.
func (c *UserMessageContent) IsString() bool {
	return c.text != nil
}

// MarshalJSON implements json.Marshaler.
func (c UserMessageContent) MarshalJSON() ([]byte, error) {
	if c.text != nil {
		return json.Marshal(*c.text)
	}

	return json.Marshal(c.blocks)
}

// UnmarshalJSON implements json.Unmarshaler. Accepts a string or an array of blocks.
func (c *UserMessageContent) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		c.text = &text
		c.blocks = nil

		return nil
	}

	var rawBlocks []json.RawMessage
	if err := json.Unmarshal(data, &rawBlocks); err != nil {
		return err
	}

	blocks, err := unmarshalContentBlocks(rawBlocks)
	if err != nil {
		return err
	}

	c.blocks = blocks
	c.text = nil

	return nil
}

// UserMessage represents a user turn echoed by the agent.
//
//nolint:tagliatelle // the agent uses snake_case
type UserMessage struct {
	raw

	Type            string             `json:"type"`
	Content         UserMessageContent `json:"content"`
	UUID            *string            `json:"uuid,omitempty"`
	ParentToolUseID *string            `json:"parent_tool_use_id,omitempty"`
	ToolUseResult   map[string]any     `json:"tool_use_result,omitempty"`
}

// MessageType implements the Message interface.
func (m *UserMessage) MessageType() string { return string(EventUser) }

// EventType implements the Event interface.
func (m *UserMessage) EventType() EventType { return EventUser }

// AssistantMessage represents a message from the model.
//
//nolint:tagliatelle // the agent uses snake_case
type AssistantMessage struct {
	raw

	Type            string                 `json:"type"`
	Content         []ContentBlock         `json:"content"`
	Model           string                 `json:"model"`
	ParentToolUseID *string                `json:"parent_tool_use_id,omitempty"`
	Error           *AssistantMessageError `json:"error,omitempty"`
}

// MessageType implements the Message interface.
func (m *AssistantMessage) MessageType() string { return string(EventAssistant) }

// EventType implements the Event interface.
func (m *AssistantMessage) EventType() EventType { return EventAssistant }

// AssistantMessageError represents error types reported on assistant messages.
type AssistantMessageError string

const (
	// AssistantMessageErrorAuthFailed indicates authentication failure.
	AssistantMessageErrorAuthFailed AssistantMessageError = "authentication_failed"
	// AssistantMessageErrorBilling indicates a billing error.
	AssistantMessageErrorBilling AssistantMessageError = "billing_error"
	// AssistantMessageErrorRateLimit indicates rate limiting.
	AssistantMessageErrorRateLimit AssistantMessageError = "rate_limit"
	// AssistantMessageErrorInvalidReq indicates an invalid request.
	AssistantMessageErrorInvalidReq AssistantMessageError = "invalid_request"
	// AssistantMessageErrorServer indicates a server error.
	AssistantMessageErrorServer AssistantMessageError = "server_error"
	// AssistantMessageErrorUnknown indicates an unknown error.
	AssistantMessageErrorUnknown AssistantMessageError = "unknown"
)

// SystemMessage represents a system message such as the session init notice.
type SystemMessage struct {
	raw

	Type    string         `json:"type"`
	Subtype string         `json:"subtype,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}

// MessageType implements the Message interface.
func (m *SystemMessage) MessageType() string { return string(EventSystem) }

// EventType implements the Event interface.
func (m *SystemMessage) EventType() EventType { return EventSystem }

// ResultMessage represents the final result of a turn. A session that ends in
// error reports the detail here with IsError set.
//
//nolint:tagliatelle // the agent uses snake_case
type ResultMessage struct {
	raw

	Type             string   `json:"type"`
	Subtype          string   `json:"subtype"`
	DurationMs       int      `json:"duration_ms"`
	DurationAPIMs    int      `json:"duration_api_ms"`
	IsError          bool     `json:"is_error"`
	NumTurns         int      `json:"num_turns"`
	SessionID        string   `json:"session_id"`
	TotalCostUSD     *float64 `json:"total_cost_usd,omitempty"`
	Usage            *Usage   `json:"usage,omitempty"`
	Result           *string  `json:"result,omitempty"`
	StructuredOutput any      `json:"structured_output,omitempty"`
}

// MessageType implements the Message interface.
func (m *ResultMessage) MessageType() string { return string(EventResult) }

// EventType implements the Event interface.
func (m *ResultMessage) EventType() EventType { return EventResult }

// StreamEvent represents a partial streaming update from the model API.
//
//nolint:tagliatelle // the agent uses snake_case
type StreamEvent struct {
	raw

	UUID            string         `json:"uuid"`
	SessionID       string         `json:"session_id"`
	Event           map[string]any `json:"event"`
	ParentToolUseID *string        `json:"parent_tool_use_id,omitempty"`
}

// MessageType implements the Message interface.
func (m *StreamEvent) MessageType() string { return string(EventStream) }

// EventType implements the Event interface.
func (m *StreamEvent) EventType() EventType { return EventStream }

// Usage contains token usage information.
//
//nolint:tagliatelle // the agent uses snake_case
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// StreamingMessageContent represents the content of an outgoing user message.
type StreamingMessageContent struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// StreamingMessage is a user message written to the agent's input stream.
//
//nolint:tagliatelle // the agent uses snake_case
type StreamingMessage struct {
	Type            string                  `json:"type"`
	Message         StreamingMessageContent `json:"message"`
	ParentToolUseID *string                 `json:"parent_tool_use_id,omitempty"`
	SessionID       string                  `json:"session_id,omitempty"`
}

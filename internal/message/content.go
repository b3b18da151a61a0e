package message

import "encoding/json"

// Block type constants.
const (
	BlockTypeText       = "text"
	BlockTypeThinking   = "thinking"
	BlockTypeToolUse    = "tool_use"
	BlockTypeToolResult = "tool_result"
)

// ContentBlock represents a block of content within a message.
type ContentBlock interface {
	BlockType() string
}

// Compile-time verification that all content block types implement ContentBlock.
var (
	_ ContentBlock = (*TextBlock)(nil)
	_ ContentBlock = (*ThinkingBlock)(nil)
	_ ContentBlock = (*ToolUseBlock)(nil)
	_ ContentBlock = (*ToolResultBlock)(nil)
)

// TextBlock contains plain text content.
type TextBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// BlockType implements the ContentBlock interface.
func (b *TextBlock) BlockType() string { return BlockTypeText }

// ThinkingBlock contains the model's thinking process.
type ThinkingBlock struct {
	Type      string `json:"type"`
	Thinking  string `json:"thinking"`
	Signature string `json:"signature"`
}

// BlockType implements the ContentBlock interface.
func (b *ThinkingBlock) BlockType() string { return BlockTypeThinking }

// ToolUseBlock represents the model invoking a tool.
type ToolUseBlock struct {
	Type  string         `json:"type"`
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Input map[string]any `json:"input"`
}

// BlockType implements the ContentBlock interface.
func (b *ToolUseBlock) BlockType() string { return BlockTypeToolUse }

// ToolResultBlock contains the result of a tool execution.
//
//nolint:tagliatelle // the agent uses snake_case
type ToolResultBlock struct {
	Type      string         `json:"type"`
	ToolUseID string         `json:"tool_use_id"`
	Content   []ContentBlock `json:"content,omitempty"`
	IsError   bool           `json:"is_error,omitempty"`
}

// BlockType implements the ContentBlock interface.
func (b *ToolResultBlock) BlockType() string { return BlockTypeToolResult }

// UnmarshalJSON accepts either a string or an array of blocks for content.
func (b *ToolResultBlock) UnmarshalJSON(data []byte) error {
	type alias ToolResultBlock

	aux := &struct {
		Content json.RawMessage `json:"content,omitempty"`
		*alias
	}{
		alias: (*alias)(b),
	}

	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}

	blocks, err := unmarshalFlexibleContent(aux.Content)
	if err != nil {
		return err
	}

	b.Content = blocks

	return nil
}

// unmarshalFlexibleContent decodes content that is either a plain string
// (normalized to a single TextBlock) or an array of blocks.
func unmarshalFlexibleContent(data json.RawMessage) ([]ContentBlock, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}

	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		return []ContentBlock{&TextBlock{Type: BlockTypeText, Text: text}}, nil
	}

	var rawBlocks []json.RawMessage
	if err := json.Unmarshal(data, &rawBlocks); err != nil {
		return nil, err
	}

	return unmarshalContentBlocks(rawBlocks)
}

func unmarshalContentBlocks(rawBlocks []json.RawMessage) ([]ContentBlock, error) {
	blocks := make([]ContentBlock, 0, len(rawBlocks))

	for _, raw := range rawBlocks {
		block, err := UnmarshalContentBlock(raw)
		if err != nil {
			return nil, err
		}

		blocks = append(blocks, block)
	}

	return blocks, nil
}

// UnmarshalContentBlock unmarshals a single content block from JSON.
// Unknown block types fall back to a TextBlock so newer agents do not break decoding.
func UnmarshalContentBlock(data []byte) (ContentBlock, error) {
	var typeHolder struct {
		Type string `json:"type"`
	}

	if err := json.Unmarshal(data, &typeHolder); err != nil {
		return nil, err
	}

	var block ContentBlock

	switch typeHolder.Type {
	case BlockTypeThinking:
		block = &ThinkingBlock{}
	case BlockTypeToolUse:
		block = &ToolUseBlock{}
	case BlockTypeToolResult:
		block = &ToolResultBlock{}
	default:
		block = &TextBlock{}
	}

	if err := json.Unmarshal(data, block); err != nil {
		return nil, err
	}

	return block, nil
}

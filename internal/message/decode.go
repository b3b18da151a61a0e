package message

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	sdkerrors "github.com/wagiedev/agentctl-go/internal/errors"
)

// EventType tags a decoded protocol event.
type EventType string

// Event types as they appear in the "type" field.
const (
	EventAssistant            EventType = "assistant"
	EventUser                 EventType = "user"
	EventResult               EventType = "result"
	EventStream               EventType = "stream_event"
	EventSystem               EventType = "system"
	EventControlRequest       EventType = "control_request"
	EventControlResponse      EventType = "control_response"
	EventControlCancelRequest EventType = "control_cancel_request"
	EventUnknown              EventType = "unknown"
)

// Event is one decoded line of the protocol stream.
type Event interface {
	EventType() EventType
	// RawData returns the full decoded object the event was built from.
	RawData() map[string]any
}

var (
	_ Event = (*ControlRequest)(nil)
	_ Event = (*ControlResponse)(nil)
	_ Event = (*ControlCancelRequest)(nil)
	_ Event = (*Unknown)(nil)
)

// raw is embedded in every event and keeps the undecoded object.
type raw struct {
	data map[string]any
}

// RawData implements the Event interface.
func (r raw) RawData() map[string]any { return r.data }

// Unknown is an event whose type this package does not recognize. The
// object is preserved so newer peers do not break older clients.
type Unknown struct {
	raw

	Type string
}

// EventType implements the Event interface.
func (u *Unknown) EventType() EventType { return EventUnknown }

var (
	errEmptyLine        = errors.New("empty line")
	errMissingType      = errors.New("missing or invalid type field")
	errMissingRequestID = errors.New("missing request_id")
	errMissingField     = errors.New("missing required field")
)

// Decode parses one protocol line. It has no side effects and keeps no state.
// Structural problems yield a *errors.DecodeError; an unrecognized type is
// returned as *Unknown.
func Decode(line []byte) (Event, error) {
	if len(line) == 0 {
		return nil, decodeErr(line, errEmptyLine)
	}

	var data map[string]any
	if err := json.Unmarshal(line, &data); err != nil {
		return nil, decodeErr(line, err)
	}

	if data == nil {
		return nil, decodeErr(line, errors.New("not a JSON object"))
	}

	typ, ok := data["type"].(string)
	if !ok || typ == "" {
		return nil, decodeErr(line, errMissingType)
	}

	ev, err := decodeTyped(EventType(typ), line, data)
	if err != nil {
		return nil, decodeErr(line, err)
	}

	return ev, nil
}

func decodeTyped(typ EventType, line []byte, data map[string]any) (Event, error) {
	switch typ {
	case EventControlRequest:
		requestID := requestIDString(data["request_id"])
		if requestID == "" {
			return nil, errMissingRequestID
		}

		// A missing or non-object body decodes empty; the request is still answered.
		req, _ := data["request"].(map[string]any)
		if req == nil {
			req = map[string]any{}
		}

		return &ControlRequest{raw: raw{data: data}, Type: string(typ), RequestID: requestID, Request: req}, nil

	case EventControlResponse:
		var m ControlResponse
		if err := json.Unmarshal(line, &m); err != nil {
			return nil, err
		}

		if m.Response == nil {
			return nil, fmt.Errorf("%w: response", errMissingField)
		}

		if m.RequestID() == "" {
			return nil, errMissingRequestID
		}

		m.data = data

		return &m, nil

	case EventControlCancelRequest:
		requestID := requestIDString(data["request_id"])
		if requestID == "" {
			return nil, errMissingRequestID
		}

		return &ControlCancelRequest{raw: raw{data: data}, Type: string(typ), RequestID: requestID}, nil

	case EventAssistant:
		return decodeAssistant(line, data)

	case EventUser:
		return decodeUser(line, data)

	case EventSystem:
		return decodeSystem(data)

	case EventResult:
		var m ResultMessage
		if err := json.Unmarshal(line, &m); err != nil {
			return nil, err
		}

		if m.Subtype == "" {
			return nil, fmt.Errorf("%w: subtype", errMissingField)
		}

		m.data = data

		return &m, nil

	case EventStream:
		var m StreamEvent
		if err := json.Unmarshal(line, &m); err != nil {
			return nil, err
		}

		if m.UUID == "" || m.SessionID == "" || m.Event == nil {
			return nil, fmt.Errorf("%w: uuid, session_id and event", errMissingField)
		}

		m.data = data

		return &m, nil

	default:
		return &Unknown{raw: raw{data: data}, Type: string(typ)}, nil
	}
}

//nolint:tagliatelle // the agent uses snake_case
type assistantWire struct {
	Message *struct {
		Content []json.RawMessage `json:"content"`
		Model   string            `json:"model"`
	} `json:"message"`
	ParentToolUseID *string                `json:"parent_tool_use_id,omitempty"`
	Error           *AssistantMessageError `json:"error,omitempty"`
}

func decodeAssistant(line []byte, data map[string]any) (Event, error) {
	var w assistantWire
	if err := json.Unmarshal(line, &w); err != nil {
		return nil, err
	}

	if w.Message == nil {
		return nil, fmt.Errorf("%w: message", errMissingField)
	}

	blocks, err := unmarshalContentBlocks(w.Message.Content)
	if err != nil {
		return nil, err
	}

	return &AssistantMessage{
		raw:             raw{data: data},
		Type:            string(EventAssistant),
		Content:         blocks,
		Model:           w.Message.Model,
		ParentToolUseID: w.ParentToolUseID,
		Error:           w.Error,
	}, nil
}

//nolint:tagliatelle // the agent uses snake_case
type userWire struct {
	Message *struct {
		Content UserMessageContent `json:"content"`
	} `json:"message"`
	UUID            *string        `json:"uuid,omitempty"`
	ParentToolUseID *string        `json:"parent_tool_use_id,omitempty"`
	ToolUseResult   map[string]any `json:"tool_use_result,omitempty"`
}

func decodeUser(line []byte, data map[string]any) (Event, error) {
	var w userWire
	if err := json.Unmarshal(line, &w); err != nil {
		return nil, err
	}

	if w.Message == nil {
		return nil, fmt.Errorf("%w: message", errMissingField)
	}

	return &UserMessage{
		raw:             raw{data: data},
		Type:            string(EventUser),
		Content:         w.Message.Content,
		UUID:            w.UUID,
		ParentToolUseID: w.ParentToolUseID,
		ToolUseResult:   w.ToolUseResult,
	}, nil
}

func decodeSystem(data map[string]any) (Event, error) {
	subtype, ok := data["subtype"].(string)
	if !ok || subtype == "" {
		return nil, fmt.Errorf("%w: subtype", errMissingField)
	}

	rest := make(map[string]any, len(data))
	for k, v := range data {
		if k != "type" && k != "subtype" {
			rest[k] = v
		}
	}

	return &SystemMessage{
		raw:     raw{data: data},
		Type:    string(EventSystem),
		Subtype: subtype,
		Data:    rest,
	}, nil
}

// requestIDString accepts string and numeric request ids.
func requestIDString(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	default:
		return ""
	}
}

func decodeErr(line []byte, err error) error {
	return &sdkerrors.DecodeError{RawLine: string(line), Err: err}
}

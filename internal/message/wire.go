package message

import "maps"

// Control request subtypes understood on the wire.
const (
	SubtypeInitialize        = "initialize"
	SubtypeInterrupt         = "interrupt"
	SubtypeSetModel          = "set_model"
	SubtypeSetPermissionMode = "set_permission_mode"
	SubtypeMCPStatus         = "mcp_status"
	SubtypeRewindFiles       = "rewind_files"
	SubtypeHookCallback      = "hook_callback"
	SubtypeCanUseTool        = "can_use_tool"
	SubtypeMCPMessage        = "mcp_message"
)

// Control response subtypes.
const (
	ResponseSuccess   = "success"
	ResponseError     = "error"
	ResponseCancelAck = "cancel_acknowledgment"
)

// ControlRequest is a request from either side, correlated by RequestID.
// The subtype and its arguments live in Request.
//
//nolint:tagliatelle // wire format uses snake_case
type ControlRequest struct {
	raw

	Type      string         `json:"type"`
	RequestID string         `json:"request_id"`
	Request   map[string]any `json:"request"`
}

// EventType implements the Event interface.
func (r *ControlRequest) EventType() EventType { return EventControlRequest }

// Subtype returns the request subtype, or "" if absent.
func (r *ControlRequest) Subtype() string {
	s, _ := r.Request["subtype"].(string)

	return s
}

// Payload returns the request arguments without the subtype key.
func (r *ControlRequest) Payload() map[string]any {
	out := make(map[string]any, len(r.Request))
	maps.Copy(out, r.Request)
	delete(out, "subtype")

	return out
}

// ControlResponse answers a ControlRequest. The inner Response carries
// subtype, request_id and either response or error.
type ControlResponse struct {
	raw

	Type     string         `json:"type"`
	Response map[string]any `json:"response"`
}

// EventType implements the Event interface.
func (r *ControlResponse) EventType() EventType { return EventControlResponse }

// RequestID returns the id of the request being answered.
func (r *ControlResponse) RequestID() string {
	s, _ := r.Response["request_id"].(string)

	return s
}

// Subtype returns success, error or cancel_acknowledgment.
func (r *ControlResponse) Subtype() string {
	s, _ := r.Response["subtype"].(string)

	return s
}

// IsError reports whether the peer answered with an error.
func (r *ControlResponse) IsError() bool {
	return r.Subtype() == ResponseError
}

// ErrorMessage returns the error text of an error response.
func (r *ControlResponse) ErrorMessage() string {
	s, _ := r.Response["error"].(string)

	return s
}

// Payload returns the result object of a success response. A missing or
// non-object result yields an empty map.
func (r *ControlResponse) Payload() map[string]any {
	if p, ok := r.Response["response"].(map[string]any); ok {
		return p
	}

	return map[string]any{}
}

// ControlCancelRequest asks the receiver to abandon the call identified by RequestID.
//
//nolint:tagliatelle // wire format uses snake_case
type ControlCancelRequest struct {
	raw

	Type      string `json:"type"`
	RequestID string `json:"request_id"`
}

// EventType implements the Event interface.
func (r *ControlCancelRequest) EventType() EventType { return EventControlCancelRequest }

// NewControlRequest builds an outgoing request envelope.
func NewControlRequest(requestID, subtype string, payload map[string]any) map[string]any {
	req := make(map[string]any, len(payload)+1)
	maps.Copy(req, payload)
	req["subtype"] = subtype

	return map[string]any{
		"type":       string(EventControlRequest),
		"request_id": requestID,
		"request":    req,
	}
}

// NewSuccessResponse builds a success envelope for requestID.
func NewSuccessResponse(requestID string, result map[string]any) map[string]any {
	if result == nil {
		result = map[string]any{}
	}

	return map[string]any{
		"type": string(EventControlResponse),
		"response": map[string]any{
			"subtype":    ResponseSuccess,
			"request_id": requestID,
			"response":   result,
		},
	}
}

// NewErrorResponse builds an error envelope for requestID.
func NewErrorResponse(requestID, msg string) map[string]any {
	return map[string]any{
		"type": string(EventControlResponse),
		"response": map[string]any{
			"subtype":    ResponseError,
			"request_id": requestID,
			"error":      msg,
		},
	}
}

// NewCancelAck acknowledges a cancel request. found reports whether a call
// with that id was executing; alreadyCompleted is its negation for ids that
// had finished or were never seen.
func NewCancelAck(requestID string, found bool) map[string]any {
	return map[string]any{
		"type": string(EventControlResponse),
		"response": map[string]any{
			"subtype":           ResponseCancelAck,
			"request_id":        requestID,
			"found":             found,
			"already_completed": !found,
		},
	}
}

// NewCancelRequest builds a cancel envelope for an outgoing request.
func NewCancelRequest(requestID string) map[string]any {
	return map[string]any{
		"type":       string(EventControlCancelRequest),
		"request_id": requestID,
	}
}

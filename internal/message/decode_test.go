package message

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sdkerrors "github.com/wagiedev/agentctl-go/internal/errors"
)

func TestDecode_ControlRequestRoundTrip(t *testing.T) {
	env := NewControlRequest("42", SubtypeCanUseTool, map[string]any{
		"tool":  "Bash",
		"input": map[string]any{"cmd": "ls"},
	})

	line, err := json.Marshal(env)
	require.NoError(t, err)

	ev, err := Decode(line)
	require.NoError(t, err)

	req, ok := ev.(*ControlRequest)
	require.True(t, ok, "expected *ControlRequest, got %T", ev)
	assert.Equal(t, EventControlRequest, req.EventType())
	assert.Equal(t, "42", req.RequestID)
	assert.Equal(t, SubtypeCanUseTool, req.Subtype())
	assert.Equal(t, map[string]any{
		"tool":  "Bash",
		"input": map[string]any{"cmd": "ls"},
	}, req.Payload())

	again, err := json.Marshal(req.RawData())
	require.NoError(t, err)
	assert.JSONEq(t, string(line), string(again))
}

func TestDecode_ControlRequestLenient(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		id      string
		subtype string
	}{
		{name: "missing request", line: `{"type":"control_request","request_id":"r1"}`, id: "r1"},
		{name: "non-object request", line: `{"type":"control_request","request_id":"r2","request":"oops"}`, id: "r2"},
		{
			name:    "numeric id",
			line:    `{"type":"control_request","request_id":17,"request":{"subtype":"interrupt"}}`,
			id:      "17",
			subtype: SubtypeInterrupt,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := Decode([]byte(tt.line))
			require.NoError(t, err)

			req, ok := ev.(*ControlRequest)
			require.True(t, ok)
			assert.Equal(t, tt.id, req.RequestID)
			assert.Equal(t, tt.subtype, req.Subtype())
			assert.NotNil(t, req.Request)
		})
	}
}

func TestDecode_CancelRequestNumericID(t *testing.T) {
	ev, err := Decode([]byte(`{"type":"control_cancel_request","request_id":9}`))
	require.NoError(t, err)

	c, ok := ev.(*ControlCancelRequest)
	require.True(t, ok)
	assert.Equal(t, "9", c.RequestID)
}

func TestDecode_UnknownType(t *testing.T) {
	ev, err := Decode([]byte(`{"type":"telemetry_v9","value":3}`))
	require.NoError(t, err)

	u, ok := ev.(*Unknown)
	require.True(t, ok)
	assert.Equal(t, EventUnknown, u.EventType())
	assert.Equal(t, "telemetry_v9", u.Type)
	assert.InDelta(t, 3.0, u.RawData()["value"], 0)
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{name: "empty", line: ``},
		{name: "truncated", line: `{"type":"user"`},
		{name: "array", line: `[1,2]`},
		{name: "null", line: `null`},
		{name: "missing type", line: `{"foo":1}`},
		{name: "non-string type", line: `{"type":7}`},
		{name: "request without id", line: `{"type":"control_request","request":{"subtype":"interrupt"}}`},
		{name: "response without id", line: `{"type":"control_response","response":{"subtype":"success"}}`},
		{name: "cancel without id", line: `{"type":"control_cancel_request"}`},
		{name: "assistant without message", line: `{"type":"assistant"}`},
		{name: "system without subtype", line: `{"type":"system"}`},
		{name: "result without subtype", line: `{"type":"result"}`},
		{name: "stream without uuid", line: `{"type":"stream_event","session_id":"s","event":{}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := Decode([]byte(tt.line))
			require.Error(t, err)
			assert.Nil(t, ev)

			var decErr *sdkerrors.DecodeError
			require.True(t, errors.As(err, &decErr))
			assert.Equal(t, tt.line, decErr.RawLine)
		})
	}
}

func TestDecode_ControlResponse(t *testing.T) {
	ev, err := Decode([]byte(`{"type":"control_response","response":{"subtype":"success","request_id":"7","response":{"model":"opus"}}}`))
	require.NoError(t, err)

	resp, ok := ev.(*ControlResponse)
	require.True(t, ok)
	assert.Equal(t, "7", resp.RequestID())
	assert.False(t, resp.IsError())
	assert.Equal(t, map[string]any{"model": "opus"}, resp.Payload())

	ev, err = Decode([]byte(`{"type":"control_response","response":{"subtype":"error","request_id":"8","error":"boom"}}`))
	require.NoError(t, err)

	resp = ev.(*ControlResponse)
	assert.True(t, resp.IsError())
	assert.Equal(t, "boom", resp.ErrorMessage())
	assert.Empty(t, resp.Payload())
}

func TestDecode_CancelRequest(t *testing.T) {
	ev, err := Decode([]byte(`{"type":"control_cancel_request","request_id":"abc"}`))
	require.NoError(t, err)

	c, ok := ev.(*ControlCancelRequest)
	require.True(t, ok)
	assert.Equal(t, "abc", c.RequestID)
}

func TestDecode_DataMessages(t *testing.T) {
	t.Run("assistant", func(t *testing.T) {
		ev, err := Decode([]byte(`{"type":"assistant","message":{"model":"m","content":[{"type":"text","text":"hi"},{"type":"tool_use","id":"t1","name":"Bash","input":{"cmd":"ls"}}]}}`))
		require.NoError(t, err)

		m, ok := ev.(*AssistantMessage)
		require.True(t, ok)
		assert.Equal(t, "m", m.Model)
		require.Len(t, m.Content, 2)
		assert.Equal(t, "hi", m.Content[0].(*TextBlock).Text)
		assert.Equal(t, "Bash", m.Content[1].(*ToolUseBlock).Name)
		assert.Equal(t, "assistant", m.MessageType())
	})

	t.Run("user string content", func(t *testing.T) {
		ev, err := Decode([]byte(`{"type":"user","message":{"content":"hello"}}`))
		require.NoError(t, err)

		m := ev.(*UserMessage)
		assert.True(t, m.Content.IsString())
		assert.Equal(t, "hello", m.Content.String())
		require.Len(t, m.Content.Blocks(), 1)
	})

	t.Run("user block content", func(t *testing.T) {
		ev, err := Decode([]byte(`{"type":"user","message":{"content":[{"type":"tool_result","tool_use_id":"t1","content":"ok"}]}}`))
		require.NoError(t, err)

		m := ev.(*UserMessage)
		require.Len(t, m.Content.Blocks(), 1)
		tr := m.Content.Blocks()[0].(*ToolResultBlock)
		assert.Equal(t, "t1", tr.ToolUseID)
		require.Len(t, tr.Content, 1)
	})

	t.Run("system", func(t *testing.T) {
		ev, err := Decode([]byte(`{"type":"system","subtype":"init","session_id":"s1"}`))
		require.NoError(t, err)

		m := ev.(*SystemMessage)
		assert.Equal(t, "init", m.Subtype)
		assert.Equal(t, map[string]any{"session_id": "s1"}, m.Data)
	})

	t.Run("result", func(t *testing.T) {
		ev, err := Decode([]byte(`{"type":"result","subtype":"error_during_execution","is_error":true,"num_turns":2,"session_id":"s1"}`))
		require.NoError(t, err)

		m := ev.(*ResultMessage)
		assert.True(t, m.IsError)
		assert.Equal(t, 2, m.NumTurns)
	})

	t.Run("stream event", func(t *testing.T) {
		ev, err := Decode([]byte(`{"type":"stream_event","uuid":"u","session_id":"s","event":{"type":"content_block_delta"}}`))
		require.NoError(t, err)

		m := ev.(*StreamEvent)
		assert.Equal(t, "content_block_delta", m.Event["type"])
	})
}

func TestEnvelopes(t *testing.T) {
	ack := NewCancelAck("x", false)
	inner := ack["response"].(map[string]any)
	assert.Equal(t, ResponseCancelAck, inner["subtype"])
	assert.Equal(t, false, inner["found"])
	assert.Equal(t, true, inner["already_completed"])

	errResp := NewErrorResponse("y", "method not found")
	line, err := json.Marshal(errResp)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"type":"control_response","response":{"subtype":"error","request_id":"y","error":"method not found"}}`,
		string(line))

	cancel, err := json.Marshal(NewCancelRequest("z"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"control_cancel_request","request_id":"z"}`, string(cancel))
}

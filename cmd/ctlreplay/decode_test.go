package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const transcript = `{"type":"control_request","request_id":"req_1","request":{"subtype":"initialize","hooks":{}}}
{"type":"control_response","response":{"subtype":"success","request_id":"req_1","response":{"commands":[]}}}

{"type":"system","subtype":"init","session_id":"s1"}
{"type":"control_request","request_id":"agent_1","request":{"subtype":"can_use_tool","tool_name":"Bash","input":{}}}
{"type":"control_cancel_request","request_id":"agent_1"}
not json
{"type":"telemetry","payload":1}
{"type":"result","subtype":"success","session_id":"s1","num_turns":1}
`

func writeTranscript(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "transcript.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()

	return out.String(), err
}

func TestDecodeTranscript(t *testing.T) {
	var out bytes.Buffer

	sum, err := decodeTranscript(strings.NewReader(transcript), &out, false)
	require.NoError(t, err)

	assert.Equal(t, 8, sum.lines)
	assert.Equal(t, 7, sum.events)
	assert.Equal(t, 1, sum.decodeErrors)
	assert.Equal(t, map[string]int{
		"control_request":        2,
		"control_response":       1,
		"control_cancel_request": 1,
		"system":                 1,
		"telemetry":              1,
		"result":                 1,
	}, sum.byType)

	rows := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, rows, 9)
	assert.Equal(t, []string{"1", "control_request", "req_1", "initialize"}, strings.Fields(rows[1]))
	assert.Equal(t, []string{"2", "control_response", "req_1", "success"}, strings.Fields(rows[2]))
	assert.Equal(t, []string{"4", "system", "-", "init"}, strings.Fields(rows[3]))
	assert.Equal(t, []string{"6", "control_cancel_request", "agent_1", "-"}, strings.Fields(rows[5]))
	assert.Equal(t, []string{"7", "!decode", "-"}, strings.Fields(rows[6])[:3])
	assert.Equal(t, []string{"8", "telemetry", "-", "-"}, strings.Fields(rows[7]))
}

func TestDecodeCommand(t *testing.T) {
	out, err := runCmd(t, "decode", writeTranscript(t, transcript))
	require.NoError(t, err)

	assert.Contains(t, out, "8 lines, 7 events, 1 decode errors")
	assert.Contains(t, out, "can_use_tool")
}

func TestDecodeCommandStrict(t *testing.T) {
	_, err := runCmd(t, "decode", "--strict", writeTranscript(t, transcript))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 7")
}

func TestDecodeCommandMissingFile(t *testing.T) {
	_, err := runCmd(t, "decode", filepath.Join(t.TempDir(), "missing.jsonl"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open transcript")
}

func TestDecodeCommandRequiresFile(t *testing.T) {
	_, err := runCmd(t, "decode")
	require.Error(t, err)
}

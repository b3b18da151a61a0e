package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wagiedev/agentctl-go/internal/permission"
)

func TestParseEngine(t *testing.T) {
	e, err := ParseEngine([]byte(`
request_timeout: 5s
hook_timeout: 1m30s
default_permission: deny
message_buffer: 8
max_buffer_size: 4194304
`))
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, e.RequestTimeout)
	assert.Equal(t, 90*time.Second, e.HookTimeout)
	assert.Equal(t, permission.BehaviorDeny, e.DefaultPermission)
	assert.Equal(t, 8, e.MessageBuffer)
	assert.Equal(t, 4<<20, e.MaxBufferSize)

	// untouched keys keep defaults
	assert.Equal(t, 60*time.Second, e.InitializeTimeout)
	assert.Equal(t, 2*time.Second, e.CallbackGrace)
	assert.Equal(t, 60*time.Second, e.MCPTimeout)
	assert.Equal(t, 1<<20, DefaultEngine().MaxBufferSize)
}

func TestParseEngine_Empty(t *testing.T) {
	e, err := ParseEngine(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultEngine(), *e)
}

func TestParseEngine_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{name: "bad duration", yaml: "request_timeout: soon", want: "parse engine config"},
		{name: "negative duration", yaml: "hook_timeout: -1s", want: "hook_timeout"},
		{name: "unknown permission", yaml: "default_permission: maybe", want: "default_permission"},
		{name: "negative buffer", yaml: "message_buffer: -3", want: "message_buffer"},
		{name: "negative line limit", yaml: "max_buffer_size: -1", want: "max_buffer_size"},
		{name: "not a mapping", yaml: "- a\n- b", want: "parse engine config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseEngine([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadEngine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.yaml")
	require.NoError(t, os.WriteFile(path, []byte("callback_grace: 250ms\n"), 0o600))

	e, err := LoadEngine(path)
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, e.CallbackGrace)

	_, err = LoadEngine(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestOptions_ResolveInitializeTimeout(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		t.Setenv(StreamCloseTimeoutEnv, "")
		assert.Equal(t, 60*time.Second, (&Options{}).ResolveInitializeTimeout())
	})

	t.Run("env", func(t *testing.T) {
		t.Setenv(StreamCloseTimeoutEnv, "5")
		assert.Equal(t, 5*time.Second, (&Options{}).ResolveInitializeTimeout())
	})

	t.Run("env ignored when invalid", func(t *testing.T) {
		t.Setenv(StreamCloseTimeoutEnv, "-2")
		assert.Equal(t, 60*time.Second, (&Options{}).ResolveInitializeTimeout())
	})

	t.Run("engine beats env", func(t *testing.T) {
		t.Setenv(StreamCloseTimeoutEnv, "5")

		opts := &Options{Engine: Engine{InitializeTimeout: 7 * time.Second}}
		assert.Equal(t, 7*time.Second, opts.ResolveInitializeTimeout())
	})

	t.Run("explicit beats all", func(t *testing.T) {
		t.Setenv(StreamCloseTimeoutEnv, "5")

		opts := &Options{
			Engine:            Engine{InitializeTimeout: 7 * time.Second},
			InitializeTimeout: new(3 * time.Second),
		}
		assert.Equal(t, 3*time.Second, opts.ResolveInitializeTimeout())
	})
}

func TestOptions_EngineConfig(t *testing.T) {
	var nilOpts *Options
	assert.Equal(t, DefaultEngine(), nilOpts.EngineConfig())

	opts := &Options{Engine: Engine{RequestTimeout: time.Second}}
	e := opts.EngineConfig()
	assert.Equal(t, time.Second, e.RequestTimeout)
	assert.Equal(t, permission.BehaviorAllow, e.DefaultPermission)
	assert.NotNil(t, nilOpts.GetLogger())
}

func TestAgentsPayload(t *testing.T) {
	assert.Nil(t, AgentsPayload(nil))

	payload := AgentsPayload(map[string]*AgentDefinition{
		"reviewer": {Description: "reviews code", Prompt: "review", Tools: []string{"Read"}, Model: new("haiku")},
		"plain":    {Description: "d", Prompt: "p"},
	})

	reviewer, ok := payload["reviewer"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "haiku", reviewer["model"])
	assert.Equal(t, []string{"Read"}, reviewer["tools"])

	plain, ok := payload["plain"].(map[string]any)
	require.True(t, ok)
	assert.NotContains(t, plain, "tools")
	assert.NotContains(t, plain, "model")
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wagiedev/agentctl-go/internal/permission"
)

// StreamCloseTimeoutEnv overrides the initialize timeout, in whole seconds,
// when no timeout is set explicitly.
const StreamCloseTimeoutEnv = "CLAUDE_CODE_STREAM_CLOSE_TIMEOUT"

// Engine tunes the control protocol engine. Durations are written as Go
// duration strings ("30s", "1m30s") in YAML.
type Engine struct {
	InitializeTimeout time.Duration `yaml:"initialize_timeout"`
	RequestTimeout    time.Duration `yaml:"request_timeout"`

	HookTimeout       time.Duration `yaml:"hook_timeout"`
	PermissionTimeout time.Duration `yaml:"permission_timeout"`
	MCPTimeout        time.Duration `yaml:"mcp_timeout"`
	// CallbackGrace is how long a timed out callback may take to return
	// before it is abandoned.
	CallbackGrace time.Duration `yaml:"callback_grace"`
	// ShutdownGrace bounds each wait during Close.
	ShutdownGrace time.Duration `yaml:"shutdown_grace"`

	// DefaultPermission answers can_use_tool when no callback is set.
	DefaultPermission permission.Behavior `yaml:"default_permission"`

	// MessageBuffer is the per-subscriber data message buffer.
	MessageBuffer int `yaml:"message_buffer"`
	// MaxBufferSize is the largest inbound line, in bytes. A longer line
	// ends the transport.
	MaxBufferSize int `yaml:"max_buffer_size"`
}

// DefaultEngine returns the built-in tuning.
func DefaultEngine() Engine {
	return Engine{
		InitializeTimeout: 60 * time.Second,
		RequestTimeout:    30 * time.Second,
		HookTimeout:       60 * time.Second,
		PermissionTimeout: 60 * time.Second,
		MCPTimeout:        60 * time.Second,
		CallbackGrace:     2 * time.Second,
		ShutdownGrace:     2 * time.Second,
		DefaultPermission: permission.BehaviorAllow,
		MessageBuffer:     100,
		MaxBufferSize:     1024 * 1024,
	}
}

// WithDefaults returns e with every zero field replaced by its default.
func (e Engine) WithDefaults() Engine {
	def := DefaultEngine()

	fill := func(v *time.Duration, d time.Duration) {
		if *v == 0 {
			*v = d
		}
	}

	fill(&e.InitializeTimeout, def.InitializeTimeout)
	fill(&e.RequestTimeout, def.RequestTimeout)
	fill(&e.HookTimeout, def.HookTimeout)
	fill(&e.PermissionTimeout, def.PermissionTimeout)
	fill(&e.MCPTimeout, def.MCPTimeout)
	fill(&e.CallbackGrace, def.CallbackGrace)
	fill(&e.ShutdownGrace, def.ShutdownGrace)

	if e.DefaultPermission == "" {
		e.DefaultPermission = def.DefaultPermission
	}

	if e.MessageBuffer == 0 {
		e.MessageBuffer = def.MessageBuffer
	}

	if e.MaxBufferSize == 0 {
		e.MaxBufferSize = def.MaxBufferSize
	}

	return e
}

// Validate rejects negative durations and unknown permission defaults.
func (e Engine) Validate() error {
	durations := []struct {
		name string
		v    time.Duration
	}{
		{"initialize_timeout", e.InitializeTimeout},
		{"request_timeout", e.RequestTimeout},
		{"hook_timeout", e.HookTimeout},
		{"permission_timeout", e.PermissionTimeout},
		{"mcp_timeout", e.MCPTimeout},
		{"callback_grace", e.CallbackGrace},
		{"shutdown_grace", e.ShutdownGrace},
	}

	for _, d := range durations {
		if d.v < 0 {
			return fmt.Errorf("%s must not be negative, got %s", d.name, d.v)
		}
	}

	switch e.DefaultPermission {
	case "", permission.BehaviorAllow, permission.BehaviorDeny, permission.BehaviorAsk:
	default:
		return fmt.Errorf("default_permission must be allow, deny or ask, got %q", e.DefaultPermission)
	}

	if e.MessageBuffer < 0 {
		return fmt.Errorf("message_buffer must not be negative, got %d", e.MessageBuffer)
	}

	if e.MaxBufferSize < 0 {
		return fmt.Errorf("max_buffer_size must not be negative, got %d", e.MaxBufferSize)
	}

	return nil
}

// ParseEngine decodes YAML tuning. Keys that are absent keep their defaults.
func ParseEngine(data []byte) (*Engine, error) {
	var e Engine

	if err := yaml.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("parse engine config: %w", err)
	}

	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}

	e = e.WithDefaults()

	return &e, nil
}

// LoadEngine reads and parses a YAML tuning file.
func LoadEngine(path string) (*Engine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read engine config: %w", err)
	}

	return ParseEngine(data)
}

// envInitializeTimeout reads StreamCloseTimeoutEnv. Unset, non-numeric and
// non-positive values are ignored.
func envInitializeTimeout() (time.Duration, bool) {
	raw := os.Getenv(StreamCloseTimeoutEnv)
	if raw == "" {
		return 0, false
	}

	secs, err := strconv.Atoi(raw)
	if err != nil || secs <= 0 {
		return 0, false
	}

	return time.Duration(secs) * time.Second, true
}

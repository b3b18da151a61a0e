// Package permission defines the can_use_tool callback and the decisions it
// returns.
package permission

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/wagiedev/agentctl-go/internal/signal"
)

// Mode is the agent's permission handling mode.
type Mode string

const (
	// ModeDefault uses standard permission prompts.
	ModeDefault Mode = "default"
	// ModeAcceptEdits automatically accepts file edits.
	ModeAcceptEdits Mode = "acceptEdits"
	// ModePlan enables plan mode.
	ModePlan Mode = "plan"
	// ModeBypassPermissions bypasses all permission checks.
	ModeBypassPermissions Mode = "bypassPermissions"
)

// Valid reports whether m is a mode the agent accepts.
func (m Mode) Valid() bool {
	switch m {
	case ModeDefault, ModeAcceptEdits, ModePlan, ModeBypassPermissions:
		return true
	default:
		return false
	}
}

// Behavior is the outcome of a permission check.
type Behavior string

const (
	// BehaviorAllow lets the tool run.
	BehaviorAllow Behavior = "allow"
	// BehaviorDeny refuses the tool call.
	BehaviorDeny Behavior = "deny"
	// BehaviorAsk defers the decision to the agent's own prompt.
	BehaviorAsk Behavior = "ask"
)

// UpdateType is the kind of permission rule change.
type UpdateType string

const (
	UpdateTypeAddRules          UpdateType = "addRules"
	UpdateTypeReplaceRules      UpdateType = "replaceRules"
	UpdateTypeRemoveRules       UpdateType = "removeRules"
	UpdateTypeSetMode           UpdateType = "setMode"
	UpdateTypeAddDirectories    UpdateType = "addDirectories"
	UpdateTypeRemoveDirectories UpdateType = "removeDirectories"
)

// UpdateDestination is where a rule change is persisted.
type UpdateDestination string

const (
	UpdateDestUserSettings    UpdateDestination = "userSettings"
	UpdateDestProjectSettings UpdateDestination = "projectSettings"
	UpdateDestLocalSettings   UpdateDestination = "localSettings"
	UpdateDestSession         UpdateDestination = "session"
)

// RuleValue is one permission rule.
type RuleValue struct {
	ToolName    string  `json:"toolName"`
	RuleContent *string `json:"ruleContent,omitempty"`
}

// Update is a permission rule change, either suggested by the agent or
// returned with an allow decision.
type Update struct {
	Type        UpdateType         `json:"type"`
	Rules       []*RuleValue       `json:"rules,omitempty"`
	Behavior    *Behavior          `json:"behavior,omitempty"`
	Mode        *Mode              `json:"mode,omitempty"`
	Directories []string           `json:"directories,omitempty"`
	Destination *UpdateDestination `json:"destination,omitempty"`
}

// ParseUpdates decodes the suggestions array of a can_use_tool request.
// Entries that are not objects are skipped.
func ParseUpdates(raw []any) ([]*Update, error) {
	out := make([]*Update, 0, len(raw))

	for i, item := range raw {
		if _, ok := item.(map[string]any); !ok {
			continue
		}

		data, err := json.Marshal(item)
		if err != nil {
			return nil, fmt.Errorf("suggestion %d: %w", i, err)
		}

		var u Update
		if err := json.Unmarshal(data, &u); err != nil {
			return nil, fmt.Errorf("suggestion %d: %w", i, err)
		}

		out = append(out, &u)
	}

	return out, nil
}

// Context is handed to a permission callback.
type Context struct {
	ToolName string
	Input    map[string]any
	// Suggestions are rule changes the agent would offer the user.
	Suggestions []*Update
	// BlockedPath is set when the check was triggered by a path outside the
	// allowed directories.
	BlockedPath *string
	// Signal fires when the call times out or the agent cancels it.
	Signal *signal.Signal
}

// Result is a permission decision. Use a type switch on the concrete type.
type Result interface {
	GetBehavior() Behavior
	// Wire converts the decision to the can_use_tool response object.
	Wire() map[string]any
}

var (
	_ Result = (*ResultAllow)(nil)
	_ Result = (*ResultDeny)(nil)
	_ Result = (*ResultAsk)(nil)
)

// ResultAllow lets the tool run, optionally with modified input.
type ResultAllow struct {
	UpdatedInput       map[string]any
	UpdatedPermissions []*Update
}

// GetBehavior implements Result.
func (r *ResultAllow) GetBehavior() Behavior { return BehaviorAllow }

// Wire implements Result.
func (r *ResultAllow) Wire() map[string]any {
	out := map[string]any{"behavior": string(BehaviorAllow)}

	if r.UpdatedInput != nil {
		out["updatedInput"] = r.UpdatedInput
	}

	if r.UpdatedPermissions != nil {
		out["updatedPermissions"] = r.UpdatedPermissions
	}

	return out
}

// ResultDeny refuses the tool call. Interrupt also stops the current turn.
type ResultDeny struct {
	Message   string
	Interrupt bool
}

// GetBehavior implements Result.
func (r *ResultDeny) GetBehavior() Behavior { return BehaviorDeny }

// Wire implements Result.
func (r *ResultDeny) Wire() map[string]any {
	out := map[string]any{
		"behavior": string(BehaviorDeny),
		"message":  r.Message,
	}

	if r.Interrupt {
		out["interrupt"] = true
	}

	return out
}

// ResultAsk hands the decision back to the agent's interactive prompt.
type ResultAsk struct {
	Message string
}

// GetBehavior implements Result.
func (r *ResultAsk) GetBehavior() Behavior { return BehaviorAsk }

// Wire implements Result.
func (r *ResultAsk) Wire() map[string]any {
	out := map[string]any{"behavior": string(BehaviorAsk)}

	if r.Message != "" {
		out["message"] = r.Message
	}

	return out
}

// Callback decides whether a tool may run. ctx is cancelled when the
// signal fires.
type Callback func(ctx context.Context, pc *Context) (Result, error)

// Default returns the decision applied when no callback is registered.
// Unrecognized behaviors are treated as allow.
func Default(b Behavior) Result {
	switch b {
	case BehaviorDeny:
		return &ResultDeny{Message: "denied by default permission policy"}
	case BehaviorAsk:
		return &ResultAsk{}
	default:
		return &ResultAllow{}
	}
}

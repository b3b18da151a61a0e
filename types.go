package agentctl

import (
	"iter"

	"github.com/wagiedev/agentctl-go/internal/config"
	"github.com/wagiedev/agentctl-go/internal/hook"
	"github.com/wagiedev/agentctl-go/internal/mcp"
	"github.com/wagiedev/agentctl-go/internal/message"
	"github.com/wagiedev/agentctl-go/internal/permission"
	"github.com/wagiedev/agentctl-go/internal/protocol"
)

// Re-export types from internal packages

// ===== Options and Configuration =====

// Options configures a client or a one-shot query.
type Options = config.Options

// EngineConfig tunes timeouts, grace periods and the default permission.
type EngineConfig = config.Engine

// DefaultEngineConfig returns the engine tuning used for unset fields.
var DefaultEngineConfig = config.DefaultEngine

// LoadEngineConfig reads engine tuning from a YAML file.
var LoadEngineConfig = config.LoadEngine

// ParseEngineConfig parses engine tuning from YAML.
var ParseEngineConfig = config.ParseEngine

// AgentDefinition defines a custom agent announced during initialize.
type AgentDefinition = config.AgentDefinition

// SessionState is the lifecycle state of a client's session.
type SessionState = protocol.State

const (
	// SessionInitializing is the state before the handshake succeeds.
	SessionInitializing = protocol.StateInitializing
	// SessionReady accepts requests in both directions.
	SessionReady = protocol.StateReady
	// SessionClosing is entered on Close while output drains.
	SessionClosing = protocol.StateClosing
	// SessionClosed is terminal after a clean shutdown.
	SessionClosed = protocol.StateClosed
	// SessionFailed is terminal after the transport broke.
	SessionFailed = protocol.StateFailed
)

// ===== Messages =====

// Message represents any data message from the agent.
type Message = message.Message

// UserMessage represents a message from the user.
type UserMessage = message.UserMessage

// UserMessageContent is either a string or a list of content blocks.
type UserMessageContent = message.UserMessageContent

// NewUserMessageContent creates UserMessageContent from a string.
var NewUserMessageContent = message.NewUserMessageContent

// NewUserMessageContentBlocks creates UserMessageContent from blocks.
var NewUserMessageContentBlocks = message.NewUserMessageContentBlocks

// AssistantMessage represents a message from the model.
type AssistantMessage = message.AssistantMessage

// AssistantMessageError represents error types reported on assistant messages.
type AssistantMessageError = message.AssistantMessageError

const (
	// AssistantMessageErrorAuthFailed indicates authentication failure.
	AssistantMessageErrorAuthFailed = message.AssistantMessageErrorAuthFailed
	// AssistantMessageErrorBilling indicates a billing error.
	AssistantMessageErrorBilling = message.AssistantMessageErrorBilling
	// AssistantMessageErrorRateLimit indicates rate limiting.
	AssistantMessageErrorRateLimit = message.AssistantMessageErrorRateLimit
	// AssistantMessageErrorInvalidReq indicates an invalid request.
	AssistantMessageErrorInvalidReq = message.AssistantMessageErrorInvalidReq
	// AssistantMessageErrorServer indicates a server error.
	AssistantMessageErrorServer = message.AssistantMessageErrorServer
	// AssistantMessageErrorUnknown indicates an unknown error.
	AssistantMessageErrorUnknown = message.AssistantMessageErrorUnknown
)

// SystemMessage represents a system notice such as session init.
type SystemMessage = message.SystemMessage

// ResultMessage ends a turn.
type ResultMessage = message.ResultMessage

// StreamEvent represents a partial streaming update.
type StreamEvent = message.StreamEvent

// Usage reports token counts.
type Usage = message.Usage

// ===== Content Blocks =====

// ContentBlock is one block of message content.
type ContentBlock = message.ContentBlock

// TextBlock contains text content.
type TextBlock = message.TextBlock

// ThinkingBlock contains the model's reasoning.
type ThinkingBlock = message.ThinkingBlock

// ToolUseBlock represents a tool invocation.
type ToolUseBlock = message.ToolUseBlock

// ToolResultBlock contains the result of a tool invocation.
type ToolResultBlock = message.ToolResultBlock

// ===== Hooks =====

// HookEvent names a lifecycle point that can trigger hooks.
type HookEvent = hook.Event

const (
	// HookEventPreToolUse runs before a tool executes.
	HookEventPreToolUse = hook.EventPreToolUse
	// HookEventPostToolUse runs after a tool succeeds.
	HookEventPostToolUse = hook.EventPostToolUse
	// HookEventPostToolUseFailure runs after a tool fails.
	HookEventPostToolUseFailure = hook.EventPostToolUseFailure
	// HookEventUserPromptSubmit runs when a prompt is submitted.
	HookEventUserPromptSubmit = hook.EventUserPromptSubmit
	// HookEventStop runs when the agent stops.
	HookEventStop = hook.EventStop
	// HookEventSubagentStart runs when a subagent starts.
	HookEventSubagentStart = hook.EventSubagentStart
	// HookEventSubagentStop runs when a subagent stops.
	HookEventSubagentStop = hook.EventSubagentStop
	// HookEventPreCompact runs before context compaction.
	HookEventPreCompact = hook.EventPreCompact
	// HookEventNotification runs on agent notifications.
	HookEventNotification = hook.EventNotification
	// HookEventPermissionRequest runs when a permission prompt would show.
	HookEventPermissionRequest = hook.EventPermissionRequest
)

// HookInput is the typed input of a hook invocation.
type HookInput = hook.Input

// BaseHookInput holds the fields every hook input carries.
type BaseHookInput = hook.BaseInput

// PreToolUseHookInput is the input for PreToolUse hooks.
type PreToolUseHookInput = hook.PreToolUseInput

// PostToolUseHookInput is the input for PostToolUse hooks.
type PostToolUseHookInput = hook.PostToolUseInput

// PostToolUseFailureHookInput is the input for PostToolUseFailure hooks.
type PostToolUseFailureHookInput = hook.PostToolUseFailureInput

// UserPromptSubmitHookInput is the input for UserPromptSubmit hooks.
type UserPromptSubmitHookInput = hook.UserPromptSubmitInput

// StopHookInput is the input for Stop hooks.
type StopHookInput = hook.StopInput

// SubagentStartHookInput is the input for SubagentStart hooks.
type SubagentStartHookInput = hook.SubagentStartInput

// SubagentStopHookInput is the input for SubagentStop hooks.
type SubagentStopHookInput = hook.SubagentStopInput

// PreCompactHookInput is the input for PreCompact hooks.
type PreCompactHookInput = hook.PreCompactInput

// NotificationHookInput is the input for Notification hooks.
type NotificationHookInput = hook.NotificationInput

// PermissionRequestHookInput is the input for PermissionRequest hooks.
type PermissionRequestHookInput = hook.PermissionRequestInput

// HookOutput is what a hook callback returns.
type HookOutput = hook.Output

// HookSpecificOutput carries event-specific hook output.
type HookSpecificOutput = hook.SpecificOutput

// PreToolUseHookSpecificOutput is the PreToolUse specific output.
type PreToolUseHookSpecificOutput = hook.PreToolUseSpecificOutput

// PostToolUseHookSpecificOutput is the PostToolUse specific output.
type PostToolUseHookSpecificOutput = hook.PostToolUseSpecificOutput

// HookContextOutput adds context for events that only take additionalContext.
type HookContextOutput = hook.ContextOutput

// PermissionRequestHookSpecificOutput is the PermissionRequest specific output.
type PermissionRequestHookSpecificOutput = hook.PermissionRequestSpecificOutput

// HookContext is handed to a hook callback.
type HookContext = hook.Context

// HookCallback handles one hook invocation.
type HookCallback = hook.Callback

// HookMatcher selects tools for a list of hook callbacks.
type HookMatcher = hook.Matcher

// HookContinue returns an output that lets the operation proceed.
var HookContinue = hook.Continue

// HookBlock returns an output that blocks the operation with a reason.
var HookBlock = hook.Block

// HookModify returns an output that replaces the tool input.
var HookModify = hook.Modify

// ===== Permissions =====

// PermissionMode controls how the agent asks for tool permission.
type PermissionMode = permission.Mode

const (
	// PermissionModeDefault uses standard permission prompts.
	PermissionModeDefault = permission.ModeDefault
	// PermissionModeAcceptEdits auto-accepts file edits.
	PermissionModeAcceptEdits = permission.ModeAcceptEdits
	// PermissionModePlan plans without executing.
	PermissionModePlan = permission.ModePlan
	// PermissionModeBypassPermissions skips all permission checks.
	PermissionModeBypassPermissions = permission.ModeBypassPermissions
)

// PermissionBehavior is allow, deny or ask.
type PermissionBehavior = permission.Behavior

const (
	// PermissionAllow lets the tool run.
	PermissionAllow = permission.BehaviorAllow
	// PermissionDeny refuses the tool call.
	PermissionDeny = permission.BehaviorDeny
	// PermissionAsk defers to the agent's own prompt.
	PermissionAsk = permission.BehaviorAsk
)

// PermissionUpdateType is the kind of a permission rule change.
type PermissionUpdateType = permission.UpdateType

// PermissionUpdateDestination is where a permission change is stored.
type PermissionUpdateDestination = permission.UpdateDestination

// PermissionRuleValue is one permission rule.
type PermissionRuleValue = permission.RuleValue

// PermissionUpdate is a permission rule change.
type PermissionUpdate = permission.Update

// ToolPermissionContext is handed to a permission callback.
type ToolPermissionContext = permission.Context

// PermissionResult is a permission decision.
type PermissionResult = permission.Result

// PermissionResultAllow lets the tool run.
type PermissionResultAllow = permission.ResultAllow

// PermissionResultDeny refuses the tool call.
type PermissionResultDeny = permission.ResultDeny

// PermissionResultAsk defers to the agent's prompt.
type PermissionResultAsk = permission.ResultAsk

// ToolPermissionCallback decides whether a tool may run.
type ToolPermissionCallback = permission.Callback

// ===== MCP =====

// MCPServer is an in-process MCP server reachable through mcp_message.
type MCPServer = mcp.ServerInstance

// MCPServerStatus is one server's entry in an mcp_status reply.
type MCPServerStatus = mcp.ServerStatus

// MCPStatus is the parsed mcp_status reply.
type MCPStatus = mcp.Status

// ===== Streaming Input =====

// MessageStream is an iterator of user messages written to the agent.
type MessageStream = iter.Seq[StreamingMessage]

// StreamingMessage is a user message written to the agent's input.
type StreamingMessage = message.StreamingMessage

// StreamingMessageContent is the body of a StreamingMessage.
type StreamingMessageContent = message.StreamingMessageContent

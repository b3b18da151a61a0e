package agentctl

import (
	"context"
	"iter"
)

// Client runs one control protocol session with an agent.
//
// Lifecycle: Clients are single-use. After Close(), create a new client with NewClient().
//
// Example usage:
//
//	client := agentctl.NewClient()
//	defer client.Close()
//
//	err := client.Start(ctx,
//	    agentctl.WithTransport(agentctl.NewCommandTransport(log, exec.Command("agent", "--stdio"))),
//	    agentctl.WithCanUseTool(allowReads),
//	)
//	if err != nil {
//	    return err
//	}
//
//	if err := client.Query(ctx, "What is 2+2?"); err != nil {
//	    return err
//	}
//
//	for msg, err := range client.ReceiveResponse(ctx) {
//	    if err != nil {
//	        return err
//	    }
//	    // Process message...
//	}
type Client interface {
	// Start starts the transport and runs the initialize handshake. It
	// returns after the agent accepted initialize; callbacks are served
	// from then on.
	Start(ctx context.Context, opts ...Option) error

	// StartWithPrompt starts the session and sends an initial prompt.
	StartWithPrompt(ctx context.Context, prompt string, opts ...Option) error

	// StartWithStream starts the session and writes messages from the
	// iterator in the background. EndInput is called when the iterator
	// completes; cancel ctx to abort streaming.
	StartWithStream(ctx context.Context, messages iter.Seq[StreamingMessage], opts ...Option) error

	// Query sends a user prompt and returns once it is written.
	// Optional sessionID defaults to "default".
	Query(ctx context.Context, prompt string, sessionID ...string) error

	// ReceiveMessages yields data messages until the session ends, an error
	// occurs, or ctx is cancelled.
	ReceiveMessages(ctx context.Context) iter.Seq2[Message, error]

	// ReceiveResponse yields data messages up to and including the next
	// ResultMessage.
	ReceiveResponse(ctx context.Context) iter.Seq2[Message, error]

	// Interrupt asks the agent to stop the current turn.
	Interrupt(ctx context.Context) error

	// SetPermissionMode changes the permission mode during the session.
	// Valid modes: "default", "acceptEdits", "plan", "bypassPermissions".
	SetPermissionMode(ctx context.Context, mode string) error

	// SetModel changes the model. Pass nil to use the default model.
	SetModel(ctx context.Context, model *string) error

	// GetServerInfo returns the initialize result, or nil before Start.
	GetServerInfo() map[string]any

	// GetMCPStatus asks the agent for MCP server status.
	GetMCPStatus(ctx context.Context) (*MCPStatus, error)

	// RewindFiles rewinds tracked files to their state at a user message.
	RewindFiles(ctx context.Context, userMessageID string) error

	// State reports the session lifecycle state.
	State() SessionState

	// Close ends input, waits briefly for the agent to drain, cancels
	// outstanding work and releases the transport. Safe to call multiple times.
	Close() error
}

// NewClient creates a new client. Call Start with options to begin a session.
func NewClient() Client {
	return newClientImpl()
}

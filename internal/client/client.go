package client

import (
	"context"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/wagiedev/agentctl-go/internal/config"
	"github.com/wagiedev/agentctl-go/internal/dispatch"
	"github.com/wagiedev/agentctl-go/internal/errors"
	"github.com/wagiedev/agentctl-go/internal/hook"
	"github.com/wagiedev/agentctl-go/internal/mcp"
	"github.com/wagiedev/agentctl-go/internal/message"
	"github.com/wagiedev/agentctl-go/internal/protocol"
)

// Client implements the interactive client interface.
type Client struct {
	log       *slog.Logger
	options   *config.Options
	engine    config.Engine
	transport config.Transport
	session   *protocol.Session
	router    *mcp.Router
	sub       *protocol.Subscription

	// eg runs the input streamer started by StartWithStream.
	eg *errgroup.Group

	mu        sync.Mutex
	done      chan struct{}
	connected bool
	closed    bool
	closeOnce sync.Once
}

// New creates a new interactive client.
//
// The client is not connected after creation. Call Start() with options to connect.
func New() *Client {
	return &Client{
		log:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		done: make(chan struct{}),
		eg:   &errgroup.Group{},
	}
}

// isConnected returns true if the client is connected.
func (c *Client) isConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.connected
}

// Start connects over options.Transport and performs the initialize
// handshake. The caller's ctx bounds only the startup; the session keeps
// running until Close.
func (c *Client) Start(ctx context.Context, options *config.Options) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errors.ErrClientClosed
	}

	if c.connected {
		return errors.ErrClientAlreadyConnected
	}

	if err := c.initializeCore(ctx, options); err != nil {
		return err
	}

	c.connected = true
	c.log.Info("client started")

	return nil
}

// initializeCore builds the engine and runs the handshake.
// Caller must hold c.mu.
func (c *Client) initializeCore(ctx context.Context, options *config.Options) error {
	if options == nil {
		options = &config.Options{}
	}

	c.log = options.GetLogger().With("component", "client")

	if options.Transport == nil {
		return errors.ErrNoTransport
	}

	if err := options.Engine.Validate(); err != nil {
		return fmt.Errorf("engine config: %w", err)
	}

	if options.PermissionMode != "" {
		if _, err := config.NormalizePermissionMode(options.PermissionMode); err != nil {
			return err
		}
	}

	c.options = options
	c.engine = options.EngineConfig()
	c.transport = options.Transport

	if bl, ok := c.transport.(config.BufferLimiter); ok {
		bl.SetMaxBufferSize(c.engine.MaxBufferSize)
	}

	if err := c.transport.Start(ctx); err != nil {
		return fmt.Errorf("start transport: %w", err)
	}

	log := options.GetLogger()

	c.router = mcp.NewRouter(log, options.MCPServers)

	dispatcher := dispatch.New(log, dispatch.Config{
		Hooks:             hook.NewRegistry(options.Hooks),
		CanUseTool:        options.CanUseTool,
		DefaultPermission: c.engine.DefaultPermission,
		Router:            c.router,
		HookTimeout:       c.engine.HookTimeout,
		PermissionTimeout: c.engine.PermissionTimeout,
		MCPTimeout:        c.engine.MCPTimeout,
		GracePeriod:       c.engine.CallbackGrace,
	})

	c.session = protocol.NewSession(log, c.transport, dispatcher, protocol.Config{
		ShutdownGrace:    c.engine.ShutdownGrace,
		SubscriberBuffer: c.engine.MessageBuffer,
	})

	// subscribe before reading starts so nothing is dropped
	c.sub = c.session.Subscribe()

	if err := c.session.Start(); err != nil {
		_ = c.transport.Close()

		return fmt.Errorf("start session: %w", err)
	}

	payload := dispatcher.InitializePayload(config.AgentsPayload(options.Agents))

	if _, err := c.session.Initialize(ctx, payload, options.ResolveInitializeTimeout()); err != nil {
		_ = c.session.Close(context.Background())

		return fmt.Errorf("initialize session: %w", err)
	}

	if options.Model != "" {
		if err := c.setModel(ctx, &options.Model); err != nil {
			_ = c.session.Close(context.Background())

			return err
		}
	}

	if options.PermissionMode != "" {
		if err := c.setPermissionMode(ctx, options.PermissionMode); err != nil {
			_ = c.session.Close(context.Background())

			return err
		}
	}

	return nil
}

// StartWithPrompt establishes a connection and immediately sends an initial prompt.
func (c *Client) StartWithPrompt(ctx context.Context, prompt string, options *config.Options) error {
	if err := c.Start(ctx, options); err != nil {
		return err
	}

	return c.Query(ctx, prompt)
}

// StartWithStream establishes a connection and writes messages from the
// iterator in the background. EndInput is called when the iterator is
// exhausted; use ctx to abort streaming.
func (c *Client) StartWithStream(
	ctx context.Context,
	messages iter.Seq[message.StreamingMessage],
	options *config.Options,
) error {
	if err := c.Start(ctx, options); err != nil {
		return err
	}

	c.eg.Go(func() error {
		return c.streamMessages(ctx, messages)
	})

	return nil
}

func (c *Client) streamMessages(ctx context.Context, messages iter.Seq[message.StreamingMessage]) (err error) {
	defer func() {
		if endErr := c.transport.EndInput(); endErr != nil && err == nil {
			err = fmt.Errorf("end input: %w", endErr)
		}
	}()

	for msg := range messages {
		select {
		case <-ctx.Done():
			c.log.Debug("context cancelled during message streaming")

			return ctx.Err()
		case <-c.done:
			return nil
		default:
		}

		if msg.Type == "" {
			msg.Type = "user"
		}

		if err := c.session.Send(ctx, msg); err != nil {
			select {
			case <-c.done:
				return nil
			default:
			}

			c.log.Error("failed to send streaming message", "error", err)

			return fmt.Errorf("send streaming message: %w", err)
		}
	}

	c.log.Debug("finished streaming messages")

	return nil
}

// Query sends a user prompt. Use ReceiveResponse or ReceiveMessages to read
// the replies. sessionID defaults to "default".
func (c *Client) Query(ctx context.Context, prompt string, sessionID ...string) error {
	if !c.isConnected() {
		return errors.ErrClientNotConnected
	}

	sid := "default"
	if len(sessionID) > 0 && sessionID[0] != "" {
		sid = sessionID[0]
	}

	c.log.Debug("sending query", "prompt_len", len(prompt), "session_id", sid)

	return c.session.Send(ctx, &message.StreamingMessage{
		Type:      "user",
		Message:   message.StreamingMessageContent{Role: "user", Content: prompt},
		SessionID: sid,
	})
}

// receive returns the next data message. It returns io.EOF when the session
// ended cleanly and the session error when it failed.
func (c *Client) receive(ctx context.Context) (message.Message, error) {
	select {
	case msg, ok := <-c.sub.C():
		if !ok {
			if err := c.session.Err(); err != nil {
				return nil, err
			}

			return nil, io.EOF
		}

		return msg, nil

	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ReceiveMessages returns an iterator over data messages in arrival order.
// Unlike ReceiveResponse it does not stop at a ResultMessage.
func (c *Client) ReceiveMessages(ctx context.Context) iter.Seq2[message.Message, error] {
	return func(yield func(message.Message, error) bool) {
		if !c.isConnected() {
			yield(nil, errors.ErrClientNotConnected)

			return
		}

		for {
			msg, err := c.receive(ctx)
			if err != nil {
				yield(nil, err)

				return
			}

			if !yield(msg, nil) {
				return
			}
		}
	}
}

// ReceiveResponse returns an iterator that stops after the next ResultMessage.
func (c *Client) ReceiveResponse(ctx context.Context) iter.Seq2[message.Message, error] {
	return func(yield func(message.Message, error) bool) {
		if !c.isConnected() {
			yield(nil, errors.ErrClientNotConnected)

			return
		}

		for {
			msg, err := c.receive(ctx)
			if err != nil {
				yield(nil, fmt.Errorf("receive response: %w", err))

				return
			}

			if !yield(msg, nil) {
				return
			}

			if _, ok := msg.(*message.ResultMessage); ok {
				return
			}
		}
	}
}

// Interrupt asks the agent to stop its current turn.
func (c *Client) Interrupt(ctx context.Context) error {
	if !c.isConnected() {
		return errors.ErrClientNotConnected
	}

	c.log.Info("sending interrupt")

	if _, err := c.session.SendRequest(ctx, message.SubtypeInterrupt, nil, c.engine.RequestTimeout); err != nil {
		return fmt.Errorf("send interrupt: %w", err)
	}

	return nil
}

// RewindFiles rewinds tracked files to their state at a user message.
func (c *Client) RewindFiles(ctx context.Context, userMessageID string) error {
	if !c.isConnected() {
		return errors.ErrClientNotConnected
	}

	c.log.Info("rewinding files", "user_message_id", userMessageID)

	payload := map[string]any{"user_message_id": userMessageID}

	if _, err := c.session.SendRequest(ctx, message.SubtypeRewindFiles, payload, c.engine.RequestTimeout); err != nil {
		return fmt.Errorf("rewind files: %w", err)
	}

	return nil
}

// SetPermissionMode changes the permission mode. Legacy names are normalized.
func (c *Client) SetPermissionMode(ctx context.Context, mode string) error {
	if !c.isConnected() {
		return errors.ErrClientNotConnected
	}

	return c.setPermissionMode(ctx, mode)
}

func (c *Client) setPermissionMode(ctx context.Context, mode string) error {
	normalized, err := config.NormalizePermissionMode(mode)
	if err != nil {
		return err
	}

	c.log.Info("setting permission mode", "mode", normalized)

	payload := map[string]any{"mode": string(normalized)}

	if _, err := c.session.SendRequest(ctx, message.SubtypeSetPermissionMode, payload, c.engine.RequestTimeout); err != nil {
		return fmt.Errorf("set permission mode to %q: %w", normalized, err)
	}

	return nil
}

// SetModel changes the model. Pass nil to return to the default model.
func (c *Client) SetModel(ctx context.Context, model *string) error {
	if !c.isConnected() {
		return errors.ErrClientNotConnected
	}

	return c.setModel(ctx, model)
}

func (c *Client) setModel(ctx context.Context, model *string) error {
	c.log.Info("setting model", "model", model)

	payload := map[string]any{"model": model}

	if _, err := c.session.SendRequest(ctx, message.SubtypeSetModel, payload, c.engine.RequestTimeout); err != nil {
		return fmt.Errorf("set model: %w", err)
	}

	return nil
}

// GetMCPStatus asks the agent for MCP server status. In-process servers the
// agent does not report are appended as connected.
func (c *Client) GetMCPStatus(ctx context.Context) (*mcp.Status, error) {
	if !c.isConnected() {
		return nil, errors.ErrClientNotConnected
	}

	resp, err := c.session.SendRequest(ctx, message.SubtypeMCPStatus, nil, c.engine.RequestTimeout)
	if err != nil {
		return nil, fmt.Errorf("get mcp status: %w", err)
	}

	status, err := mcp.ParseStatus(resp)
	if err != nil {
		return nil, fmt.Errorf("parse mcp status: %w", err)
	}

	reported := make(map[string]bool, len(status.MCPServers))
	for _, s := range status.MCPServers {
		reported[s.Name] = true
	}

	for _, name := range c.router.ServerNames() {
		if !reported[name] {
			status.MCPServers = append(status.MCPServers, mcp.ServerStatus{Name: name, Status: "connected"})
		}
	}

	return status, nil
}

// GetServerInfo returns the initialize result, or nil before Start.
func (c *Client) GetServerInfo() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return nil
	}

	return c.session.InitializationResult()
}

// State returns the session state, or StateInitializing before Start.
func (c *Client) State() protocol.State {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return protocol.StateInitializing
	}

	return c.session.State()
}

// Close shuts the session down and releases the transport.
//
// After Close(), the client cannot be reused - create a new client with New().
// This method is safe to call multiple times.
func (c *Client) Close() error {
	var closeErr error

	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		wasConnected := c.connected
		c.connected = false
		c.mu.Unlock()

		if !wasConnected {
			return
		}

		c.log.Info("closing client")

		close(c.done)

		closeErr = c.session.Close(context.Background())

		if err := c.eg.Wait(); err != nil && closeErr == nil {
			closeErr = err
		}

		c.log.Info("client closed")
	})

	return closeErr
}

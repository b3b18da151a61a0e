package agentctl

import (
	"context"
	"iter"

	"github.com/wagiedev/agentctl-go/internal/client"
)

// clientWrapper adapts the internal client to the public interface.
type clientWrapper struct {
	impl *client.Client
}

var _ Client = (*clientWrapper)(nil)

func newClientImpl() Client {
	return &clientWrapper{impl: client.New()}
}

func (c *clientWrapper) Start(ctx context.Context, opts ...Option) error {
	return c.impl.Start(ctx, applyOptions(opts))
}

func (c *clientWrapper) StartWithPrompt(ctx context.Context, prompt string, opts ...Option) error {
	return c.impl.StartWithPrompt(ctx, prompt, applyOptions(opts))
}

func (c *clientWrapper) StartWithStream(
	ctx context.Context,
	messages iter.Seq[StreamingMessage],
	opts ...Option,
) error {
	return c.impl.StartWithStream(ctx, messages, applyOptions(opts))
}

func (c *clientWrapper) Query(ctx context.Context, prompt string, sessionID ...string) error {
	return c.impl.Query(ctx, prompt, sessionID...)
}

func (c *clientWrapper) ReceiveMessages(ctx context.Context) iter.Seq2[Message, error] {
	return c.impl.ReceiveMessages(ctx)
}

func (c *clientWrapper) ReceiveResponse(ctx context.Context) iter.Seq2[Message, error] {
	return c.impl.ReceiveResponse(ctx)
}

func (c *clientWrapper) Interrupt(ctx context.Context) error {
	return c.impl.Interrupt(ctx)
}

func (c *clientWrapper) SetPermissionMode(ctx context.Context, mode string) error {
	return c.impl.SetPermissionMode(ctx, mode)
}

func (c *clientWrapper) SetModel(ctx context.Context, model *string) error {
	return c.impl.SetModel(ctx, model)
}

func (c *clientWrapper) GetServerInfo() map[string]any {
	return c.impl.GetServerInfo()
}

func (c *clientWrapper) GetMCPStatus(ctx context.Context) (*MCPStatus, error) {
	return c.impl.GetMCPStatus(ctx)
}

func (c *clientWrapper) RewindFiles(ctx context.Context, userMessageID string) error {
	return c.impl.RewindFiles(ctx, userMessageID)
}

func (c *clientWrapper) State() SessionState {
	return c.impl.State()
}

func (c *clientWrapper) Close() error {
	return c.impl.Close()
}

package agentctl

import (
	"io"
	"log/slog"
	"os/exec"

	"github.com/wagiedev/agentctl-go/internal/config"
	"github.com/wagiedev/agentctl-go/internal/transport"
)

// Transport carries newline-delimited JSON between the client and the agent.
// Implement this to provide custom transports for testing, mocking,
// or alternative communication methods (e.g., remote connections).
type Transport = config.Transport

// NewPipeTransport returns a transport that reads agent output from r and
// writes to w. EndInput closes w when it is an io.Closer.
func NewPipeTransport(log *slog.Logger, r io.Reader, w io.Writer) Transport {
	if log == nil {
		log = NopLogger()
	}

	return transport.NewPipe(log, r, w)
}

// CommandOption configures a command transport.
type CommandOption func(*transport.Command)

// WithStderrCallback receives each line the agent writes to stderr.
func WithStderrCallback(fn func(string)) CommandOption {
	return func(c *transport.Command) {
		c.OnStderr(fn)
	}
}

// NewCommandTransport returns a transport that runs cmd and speaks the
// protocol over its stdio. cmd must not be started and must not have its
// standard streams set. A non-zero exit surfaces as a *ProcessError.
func NewCommandTransport(log *slog.Logger, cmd *exec.Cmd, opts ...CommandOption) Transport {
	if log == nil {
		log = NopLogger()
	}

	c := transport.NewCommand(log, cmd)
	for _, opt := range opts {
		opt(c)
	}

	return c
}

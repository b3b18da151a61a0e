package transport

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/wagiedev/agentctl-go/internal/config"
	"github.com/wagiedev/agentctl-go/internal/errors"
)

var (
	_ config.Transport     = (*Pipe)(nil)
	_ config.BufferLimiter = (*Pipe)(nil)
)

// Pipe is a transport over an existing reader and writer.
type Pipe struct {
	log *slog.Logger
	r   io.Reader
	out *lineWriter

	lineLimit

	readOnce sync.Once
	lines    chan []byte
	errs     chan error

	mu      sync.Mutex
	started bool
	closed  bool
}

// NewPipe creates a transport that reads lines from r and writes to w. If
// w is an io.Closer, EndInput closes it. If r is an io.Closer, Close closes it.
func NewPipe(log *slog.Logger, r io.Reader, w io.Writer) *Pipe {
	log = log.With("component", "pipe_transport")

	return &Pipe{
		log: log,
		r:   r,
		out: &lineWriter{log: log, w: w},
	}
}

// Start marks the pipe usable.
func (p *Pipe) Start(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return errors.ErrTransportClosed
	}

	p.started = true

	return nil
}

// ReadMessages starts reading on the first call; later calls return the
// same channels.
func (p *Pipe) ReadMessages(ctx context.Context) (<-chan []byte, <-chan error) {
	p.readOnce.Do(func() {
		p.lines = make(chan []byte)
		p.errs = make(chan error)

		go func() {
			defer close(p.lines)
			defer close(p.errs)

			if err := scanLines(ctx, p.log, p.r, p.size(), p.lines); err != nil && ctx.Err() == nil {
				deliver(ctx, p.errs, &errors.TransportError{Err: err})
			}
		}()
	})

	return p.lines, p.errs
}

// SendMessage writes one line.
func (p *Pipe) SendMessage(ctx context.Context, data []byte) error {
	p.mu.Lock()
	started, closed := p.started, p.closed
	p.mu.Unlock()

	switch {
	case closed:
		return errors.ErrTransportClosed
	case !started:
		return errors.ErrTransportNotConnected
	}

	return p.out.send(ctx, data)
}

// IsReady reports whether Start was called and the write side is open.
func (p *Pipe) IsReady() bool {
	p.mu.Lock()
	ok := p.started && !p.closed
	p.mu.Unlock()

	return ok && p.out.ready()
}

// EndInput closes the write side.
func (p *Pipe) EndInput() error {
	return p.out.close()
}

// Close closes both sides.
func (p *Pipe) Close() error {
	p.mu.Lock()

	if p.closed {
		p.mu.Unlock()

		return nil
	}

	p.closed = true
	p.mu.Unlock()

	err := p.out.close()

	if c, ok := p.r.(io.Closer); ok {
		if cerr := c.Close(); err == nil {
			err = cerr
		}
	}

	return err
}

package transport

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/wagiedev/agentctl-go/internal/config"
	"github.com/wagiedev/agentctl-go/internal/errors"
)

var (
	_ config.Transport     = (*Command)(nil)
	_ config.BufferLimiter = (*Command)(nil)
)

// Command runs an agent process and speaks the protocol over its stdio.
type Command struct {
	log *slog.Logger
	cmd *exec.Cmd

	stdout io.ReadCloser
	stderr io.ReadCloser
	in     *lineWriter

	lineLimit

	onStderr func(string)

	readOnce sync.Once
	lines    chan []byte
	errs     chan error

	mu      sync.Mutex
	closing bool
}

// NewCommand wraps cmd, which must not have been started and must not have
// Stdin, Stdout or Stderr set.
func NewCommand(log *slog.Logger, cmd *exec.Cmd) *Command {
	log = log.With("component", "command_transport")

	return &Command{
		log: log,
		cmd: cmd,
		in:  &lineWriter{log: log},
	}
}

// OnStderr registers fn to receive each stderr line. Call it before Start.
func (c *Command) OnStderr(fn func(string)) {
	c.onStderr = fn
}

// Start creates the pipes and starts the process.
func (c *Command) Start(context.Context) error {
	c.log.Info("starting agent process", "path", c.cmd.Path)

	stdin, err := c.cmd.StdinPipe()
	if err != nil {
		return &errors.TransportError{Err: fmt.Errorf("stdin pipe: %w", err)}
	}

	stdout, err := c.cmd.StdoutPipe()
	if err != nil {
		return &errors.TransportError{Err: fmt.Errorf("stdout pipe: %w", err)}
	}

	stderr, err := c.cmd.StderrPipe()
	if err != nil {
		return &errors.TransportError{Err: fmt.Errorf("stderr pipe: %w", err)}
	}

	if err := c.cmd.Start(); err != nil {
		c.log.Error("failed to start agent process", "error", err)

		return &errors.TransportError{Err: fmt.Errorf("start process: %w", err)}
	}

	c.stdout = stdout
	c.stderr = stderr

	c.in.mu.Lock()
	c.in.w = stdin
	c.in.mu.Unlock()

	c.log.Info("agent process started", "pid", c.cmd.Process.Pid)

	return nil
}

// ReadMessages streams stdout lines. When stdout ends the process is
// reaped; a non-zero exit outside Close is reported as a *errors.ProcessError
// carrying the captured stderr.
func (c *Command) ReadMessages(ctx context.Context) (<-chan []byte, <-chan error) {
	c.readOnce.Do(func() {
		c.lines = make(chan []byte)
		c.errs = make(chan error)

		go c.read(ctx)
	})

	return c.lines, c.errs
}

func (c *Command) read(ctx context.Context) {
	defer close(c.lines)
	defer close(c.errs)

	if c.stdout == nil {
		deliver(ctx, c.errs, errors.ErrTransportNotConnected)

		return
	}

	var (
		stderrMu  sync.Mutex
		stderrBuf strings.Builder
	)

	var g errgroup.Group

	// stderr must be drained before Wait
	g.Go(func() error {
		scanner := bufio.NewScanner(c.stderr)
		for scanner.Scan() {
			line := scanner.Text()

			stderrMu.Lock()
			if stderrBuf.Len() < maxStderrBufferSize {
				if stderrBuf.Len() > 0 {
					stderrBuf.WriteString("\n")
				}

				stderrBuf.WriteString(line)
			}
			stderrMu.Unlock()

			if c.onStderr != nil {
				c.onStderr(line)
			}
		}

		if err := scanner.Err(); err != nil {
			c.log.Debug("stderr scanner error", "error", err)
		}

		return nil
	})

	g.Go(func() error {
		return scanLines(ctx, c.log, c.stdout, c.size(), c.lines)
	})

	readErr := g.Wait()

	waitErr := c.cmd.Wait()

	c.mu.Lock()
	closing := c.closing
	c.mu.Unlock()

	switch {
	case closing || ctx.Err() != nil:
		c.log.Debug("agent process stopped during shutdown")
	case waitErr != nil:
		exitCode := -1
		if exitErr, ok := stderrors.AsType[*exec.ExitError](waitErr); ok {
			exitCode = exitErr.ExitCode()
		}

		stderrMu.Lock()
		stderrOut := strings.TrimSpace(stderrBuf.String())
		stderrMu.Unlock()

		c.log.Error("agent process exited with error", "exit_code", exitCode, "stderr", stderrOut)

		deliver(ctx, c.errs, &errors.TransportError{Err: &errors.ProcessError{
			ExitCode: exitCode,
			Stderr:   stderrOut,
			Err:      waitErr,
		}})
	case readErr != nil:
		deliver(ctx, c.errs, &errors.TransportError{Err: readErr})
	default:
		c.log.Info("agent process exited")
	}
}

// SendMessage writes one line to stdin.
func (c *Command) SendMessage(ctx context.Context, data []byte) error {
	return c.in.send(ctx, data)
}

// IsReady reports whether the process is running with stdin open.
func (c *Command) IsReady() bool {
	return c.cmd.Process != nil && c.in.ready()
}

// EndInput closes stdin so the process can finish and exit on its own.
func (c *Command) EndInput() error {
	return c.in.close()
}

// Close kills the process. It is safe to call more than once.
func (c *Command) Close() error {
	c.mu.Lock()
	if c.closing {
		c.mu.Unlock()

		return nil
	}

	c.closing = true
	c.mu.Unlock()

	_ = c.in.close()

	if c.cmd.Process == nil {
		return nil
	}

	c.log.Debug("killing agent process", "pid", c.cmd.Process.Pid)

	if err := c.cmd.Process.Kill(); err != nil && !stderrors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("kill agent process (pid %d): %w", c.cmd.Process.Pid, err)
	}

	return nil
}

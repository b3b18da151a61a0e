package transport

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/wagiedev/agentctl-go/internal/errors"
)

const (
	// defaultMaxLineSize is the largest inbound line accepted unless
	// SetMaxBufferSize raises it.
	defaultMaxLineSize = 1024 * 1024 // 1MB
	// maxStderrBufferSize caps the stderr kept for exit errors.
	maxStderrBufferSize = 10 * 1024 * 1024 // 10MB
	// writeAbandonWait bounds the wait for a write goroutine after stdin
	// was closed under it.
	writeAbandonWait = time.Second
)

// lineLimit holds the inbound line limit of a transport.
type lineLimit struct {
	mu  sync.Mutex
	max int
}

// SetMaxBufferSize sets the largest inbound line, in bytes. Values <= 0
// restore the 1MB default. It takes effect when reading starts.
func (l *lineLimit) SetMaxBufferSize(size int) {
	l.mu.Lock()
	l.max = size
	l.mu.Unlock()
}

func (l *lineLimit) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.max <= 0 {
		return defaultMaxLineSize
	}

	return l.max
}

// scanLines sends each non-blank line of r to lines until EOF, a read error
// or ctx is done. Lines are copied; the scanner reuses its buffer.
func scanLines(ctx context.Context, log *slog.Logger, r io.Reader, maxLine int, lines chan<- []byte) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, min(64*1024, maxLine)), maxLine)

	count := 0

	for scanner.Scan() {
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		count++

		select {
		case lines <- bytes.Clone(raw):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read line %d: %w", count+1, err)
	}

	log.Debug("line stream ended", "lines", count)

	return nil
}

// deliver hands err to the reader. errs is unbuffered so the error is seen
// before the line channel closes.
func deliver(ctx context.Context, errs chan<- error, err error) {
	select {
	case errs <- err:
	case <-ctx.Done():
	}
}

// lineWriter serializes newline-terminated writes.
type lineWriter struct {
	log *slog.Logger

	mu     sync.Mutex
	w      io.Writer
	closed bool
}

func (lw *lineWriter) send(ctx context.Context, data []byte) error {
	lw.mu.Lock()
	defer lw.mu.Unlock()

	if lw.w == nil {
		return errors.ErrTransportNotConnected
	}

	if lw.closed {
		return errors.ErrStdinClosed
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	// copy so a caller's spare capacity is never written to
	if len(data) == 0 || data[len(data)-1] != '\n' {
		line := make([]byte, len(data)+1)
		copy(line, data)
		line[len(data)] = '\n'
		data = line
	}

	done := make(chan error, 1)

	go func() {
		_, err := lw.w.Write(data)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			lw.log.Error("write failed", "error", err)

			return &errors.TransportError{Err: fmt.Errorf("write: %w", err)}
		}

		return nil

	case <-ctx.Done():
		lw.log.Debug("context cancelled during write, closing input")

		lw.closeLocked()

		select {
		case <-done:
		case <-time.After(writeAbandonWait):
			lw.log.Warn("write goroutine did not exit after input close")
		}

		return ctx.Err()
	}
}

func (lw *lineWriter) close() error {
	lw.mu.Lock()
	defer lw.mu.Unlock()

	return lw.closeLocked()
}

func (lw *lineWriter) closeLocked() error {
	if lw.closed {
		return nil
	}

	lw.closed = true

	if c, ok := lw.w.(io.Closer); ok {
		return c.Close()
	}

	return nil
}

func (lw *lineWriter) ready() bool {
	lw.mu.Lock()
	defer lw.mu.Unlock()

	return lw.w != nil && !lw.closed
}

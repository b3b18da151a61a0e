// Package config holds the client options, engine tuning and the transport
// contract shared by the engine and its callers.
package config

import "context"

// Transport carries newline-delimited JSON between the client and the agent
// process. Implement this to run the engine over pipes, sockets or a mock.
type Transport interface {
	// Start prepares the transport. It is called once before any other method.
	Start(ctx context.Context) error

	// ReadMessages returns the inbound line stream and its error channel.
	// Each value on the line channel is one raw JSON object without the
	// trailing newline. The line channel is closed at end of stream.
	ReadMessages(ctx context.Context) (<-chan []byte, <-chan error)

	// SendMessage writes one JSON object; a newline is appended when missing.
	// It must be safe for concurrent use.
	SendMessage(ctx context.Context, data []byte) error

	// Close releases the transport. It may be called more than once.
	Close() error

	// IsReady reports whether the transport can send.
	IsReady() bool

	// EndInput closes the write side. For a process this closes stdin.
	EndInput() error
}

// BufferLimiter is implemented by transports with a configurable inbound
// line limit. The client applies Engine.MaxBufferSize through it before
// reading starts.
type BufferLimiter interface {
	SetMaxBufferSize(size int)
}

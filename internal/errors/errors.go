package errors

import (
	"errors"
	"fmt"
)

// AgentCtlError is the base interface for all typed engine errors.
type AgentCtlError interface {
	error
	IsAgentCtlError() bool
}

// Compile-time verification that all error types implement AgentCtlError.
var (
	_ AgentCtlError = (*DecodeError)(nil)
	_ AgentCtlError = (*TransportError)(nil)
	_ AgentCtlError = (*ControlError)(nil)
	_ AgentCtlError = (*CallbackError)(nil)
	_ AgentCtlError = (*ProcessError)(nil)
)

// Sentinel errors for commonly checked conditions.
var (
	// ErrClientNotConnected indicates the client is not connected.
	ErrClientNotConnected = errors.New("client not connected")

	// ErrClientAlreadyConnected indicates the client is already connected.
	ErrClientAlreadyConnected = errors.New("client already connected")

	// ErrClientClosed indicates the client has been closed and cannot be reused.
	ErrClientClosed = errors.New("client closed: clients are single-use, create a new one with NewClient()")

	// ErrNoTransport indicates no transport was configured.
	ErrNoTransport = errors.New("no transport configured")

	// ErrTransportNotConnected indicates the transport is not connected.
	ErrTransportNotConnected = errors.New("transport not connected")

	// ErrTransportClosed indicates the transport closed or failed. It is fatal to a session.
	ErrTransportClosed = errors.New("transport closed")

	// ErrStdinClosed indicates the write side of a transport was closed.
	ErrStdinClosed = errors.New("stdin closed")

	// ErrRequestTimeout indicates an outgoing control request was not answered in time.
	ErrRequestTimeout = errors.New("request timeout")

	// ErrCallbackTimeout indicates an inbound callback did not finish before its deadline.
	ErrCallbackTimeout = errors.New("callback timeout")

	// ErrOperationCancelled indicates an operation was cancelled via cancel request.
	ErrOperationCancelled = errors.New("operation cancelled")

	// ErrSessionClosed indicates the session is closing or closed.
	ErrSessionClosed = errors.New("session closed")

	// ErrSessionNotReady indicates the session has not completed its handshake.
	ErrSessionNotReady = errors.New("session not ready")

	// ErrUnknownSubtype indicates an inbound control request subtype has no handler.
	ErrUnknownSubtype = errors.New("method not found")

	// ErrUnknownMethod indicates an MCP method is not in the router's method table.
	ErrUnknownMethod = errors.New("method not found")

	// ErrUnknownTool indicates a tools/call named a tool the server does not have.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrDuplicateRequestID indicates a request id is already live in a table.
	ErrDuplicateRequestID = errors.New("duplicate request id")
)

// DecodeError indicates one inbound line could not be decoded.
// The raw line is preserved for logging.
type DecodeError struct {
	RawLine string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode protocol line: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsAgentCtlError implements AgentCtlError.
func (e *DecodeError) IsAgentCtlError() bool { return true }

// TransportError indicates the transport failed or closed underneath a session.
// It always matches ErrTransportClosed.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return ErrTransportClosed.Error()
	}

	return fmt.Sprintf("%s: %v", ErrTransportClosed, e.Err)
}

func (e *TransportError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrTransportClosed}
	}

	return []error{ErrTransportClosed, e.Err}
}

// IsAgentCtlError implements AgentCtlError.
func (e *TransportError) IsAgentCtlError() bool { return true }

// ControlError indicates the peer answered a control request with an error response.
type ControlError struct {
	Subtype string
	Message string
}

func (e *ControlError) Error() string {
	return fmt.Sprintf("%s request error: %s", e.Subtype, e.Message)
}

// IsAgentCtlError implements AgentCtlError.
func (e *ControlError) IsAgentCtlError() bool { return true }

// CallbackError indicates a user callback failed or returned an invalid shape.
type CallbackError struct {
	Category string
	Err      error
}

func (e *CallbackError) Error() string {
	return fmt.Sprintf("%s callback error: %v", e.Category, e.Err)
}

func (e *CallbackError) Unwrap() error {
	return e.Err
}

// IsAgentCtlError implements AgentCtlError.
func (e *CallbackError) IsAgentCtlError() bool { return true }

// ProcessError indicates the agent process behind a command transport failed.
type ProcessError struct {
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ProcessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("agent process failed (exit %d): %v", e.ExitCode, e.Err)
	}

	return fmt.Sprintf("agent process failed (exit %d): %s", e.ExitCode, e.Stderr)
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

// IsAgentCtlError implements AgentCtlError.
func (e *ProcessError) IsAgentCtlError() bool { return true }

// IsTimeout reports whether err is a timeout of either direction.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrRequestTimeout) || errors.Is(err, ErrCallbackTimeout)
}

package agentctl

import "github.com/wagiedev/agentctl-go/internal/errors"

// Re-export error types from internal package

// AgentCtlError is the base interface for all typed engine errors.
type AgentCtlError = errors.AgentCtlError

// DecodeError indicates one inbound line could not be decoded.
type DecodeError = errors.DecodeError

// TransportError indicates the transport failed or closed underneath a
// session. It always matches ErrTransportClosed.
type TransportError = errors.TransportError

// ControlError indicates the agent answered a control request with an error.
type ControlError = errors.ControlError

// CallbackError indicates a hook, permission or MCP callback failed.
type CallbackError = errors.CallbackError

// ProcessError indicates the agent process behind a command transport failed.
type ProcessError = errors.ProcessError

// IsTimeout reports whether err is a request or callback timeout.
func IsTimeout(err error) bool {
	return errors.IsTimeout(err)
}

// Re-export sentinel errors from internal package.
var (
	// ErrClientNotConnected indicates the client is not connected.
	ErrClientNotConnected = errors.ErrClientNotConnected

	// ErrClientAlreadyConnected indicates the client is already connected.
	ErrClientAlreadyConnected = errors.ErrClientAlreadyConnected

	// ErrClientClosed indicates the client has been closed and cannot be reused.
	ErrClientClosed = errors.ErrClientClosed

	// ErrNoTransport indicates no transport was configured.
	ErrNoTransport = errors.ErrNoTransport

	// ErrTransportNotConnected indicates the transport is not connected.
	ErrTransportNotConnected = errors.ErrTransportNotConnected

	// ErrTransportClosed indicates the transport closed or failed.
	ErrTransportClosed = errors.ErrTransportClosed

	// ErrStdinClosed indicates the write side of the transport was closed.
	ErrStdinClosed = errors.ErrStdinClosed

	// ErrRequestTimeout indicates a control request was not answered in time.
	ErrRequestTimeout = errors.ErrRequestTimeout

	// ErrCallbackTimeout indicates a callback ran past its deadline.
	ErrCallbackTimeout = errors.ErrCallbackTimeout

	// ErrOperationCancelled indicates the agent cancelled an operation.
	ErrOperationCancelled = errors.ErrOperationCancelled

	// ErrSessionClosed indicates the session is closing or closed.
	ErrSessionClosed = errors.ErrSessionClosed

	// ErrSessionNotReady indicates the handshake has not completed.
	ErrSessionNotReady = errors.ErrSessionNotReady
)

// Package errors defines the error taxonomy of the control protocol engine.
//
// Decode and routing failures are contained where they occur and reported to
// the peer; only transport failure is fatal to a session. Timeouts are always
// distinguishable from ordinary failures via errors.Is against
// ErrRequestTimeout (outgoing requests) or ErrCallbackTimeout (inbound
// callbacks). All typed errors support errors.Is, errors.As and errors.AsType.
package errors

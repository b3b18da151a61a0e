// Package signal provides the cancellation token shared between the session
// and a running callback.
//
// A Signal fires at most once and can be observed any number of times. It is
// backed by a context so callbacks can pass it straight into blocking calls.
package signal

import (
	"context"
	"sync"
)

// Signal is a fire-once cancellation token.
type Signal struct {
	ctx    context.Context
	cancel context.CancelCauseFunc

	once  sync.Once
	cause error
}

// New creates a Signal derived from parent. Cancelling parent fires the signal.
func New(parent context.Context) *Signal {
	ctx, cancel := context.WithCancelCause(parent)

	return &Signal{ctx: ctx, cancel: cancel}
}

// Fire fires the signal with the given cause. It reports whether this call
// was the one that fired it; later calls are no-ops.
func (s *Signal) Fire(cause error) bool {
	fired := false

	s.once.Do(func() {
		s.cause = cause
		s.cancel(cause)
		fired = true
	})

	return fired
}

// Fired reports whether the signal has fired, either directly or through its parent.
func (s *Signal) Fired() bool {
	return s.ctx.Err() != nil
}

// Done returns a channel closed when the signal fires.
func (s *Signal) Done() <-chan struct{} {
	return s.ctx.Done()
}

// Cause returns the error the signal fired with, or nil if it has not fired.
func (s *Signal) Cause() error {
	if s.ctx.Err() == nil {
		return nil
	}

	return context.Cause(s.ctx)
}

// Context returns a context cancelled when the signal fires.
func (s *Signal) Context() context.Context {
	return s.ctx
}

// Release frees the resources held by the signal without reporting a cause
// to observers that have not already seen one.
func (s *Signal) Release() {
	s.once.Do(func() {
		s.cancel(context.Canceled)
	})
}

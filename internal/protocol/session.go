package protocol

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/wagiedev/agentctl-go/internal/errors"
	"github.com/wagiedev/agentctl-go/internal/message"
	"github.com/wagiedev/agentctl-go/internal/signal"
)

const (
	defaultShutdownGrace    = 2 * time.Second
	defaultSubscriberBuffer = 100
	maxLoggedLine           = 256
)

// Transport is the line channel a Session drives. ReadMessages yields one
// protocol line per element and closes the line channel at end of output.
type Transport interface {
	ReadMessages(ctx context.Context) (<-chan []byte, <-chan error)
	SendMessage(ctx context.Context, data []byte) error
	EndInput() error
	Close() error
}

// Dispatcher runs inbound control calls.
type Dispatcher interface {
	// Classify reports the call's category and deadline. ok is false for
	// subtypes the dispatcher does not serve.
	Classify(req *message.ControlRequest) (cat Category, timeout time.Duration, ok bool)
	// Dispatch runs the call to completion, timeout or cancellation and
	// returns the response payload. It must return within timeout plus a
	// bounded grace period, and must observe sig.
	Dispatch(sig *signal.Signal, req *message.ControlRequest, timeout time.Duration) (map[string]any, error)
}

// Config tunes a Session. Zero values select defaults.
type Config struct {
	// ShutdownGrace bounds how long Close waits for the agent to finish
	// its output and for running callbacks to return.
	ShutdownGrace time.Duration
	// SubscriberBuffer is the channel capacity of each subscription.
	SubscriberBuffer int
	// NewRequestID overrides request id generation.
	NewRequestID func() string
}

// Session owns protocol state for one agent connection.
type Session struct {
	log        *slog.Logger
	transport  Transport
	dispatcher Dispatcher
	cfg        Config

	mu         sync.Mutex
	state      State
	started    bool
	draining   bool
	err        error
	initResult map[string]any

	pending  *pendingTable
	inflight *inflightTable

	writeMu sync.Mutex

	subsMu   sync.Mutex
	subs     map[*Subscription]struct{}
	subsDone bool

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	calls  sync.WaitGroup

	closeOnce sync.Once
}

// NewSession creates a Session in the initializing state. Call Start to
// begin reading.
func NewSession(log *slog.Logger, transport Transport, dispatcher Dispatcher, cfg Config) *Session {
	if cfg.ShutdownGrace <= 0 {
		cfg.ShutdownGrace = defaultShutdownGrace
	}

	if cfg.SubscriberBuffer <= 0 {
		cfg.SubscriberBuffer = defaultSubscriberBuffer
	}

	if cfg.NewRequestID == nil {
		cfg.NewRequestID = func() string { return ulid.Make().String() }
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Session{
		log:        log.With("component", "session"),
		transport:  transport,
		dispatcher: dispatcher,
		cfg:        cfg,
		pending:    newPendingTable(),
		inflight:   newInflightTable(),
		subs:       make(map[*Subscription]struct{}, 2),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

// Start launches the read loop. The loop runs until the transport ends or
// the session is closed, independent of any caller context.
func (s *Session) Start() error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()

		return stderrors.New("session already started")
	}

	s.started = true
	s.mu.Unlock()

	lines, errs := s.transport.ReadMessages(s.ctx)

	go s.readLoop(lines, errs)

	s.log.Debug("session started")

	return nil
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// Err returns the error that failed the session, or nil.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.err
}

// Done is closed when the read loop has stopped.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// PendingCount returns the number of outgoing requests awaiting a response.
func (s *Session) PendingCount() int {
	return s.pending.len()
}

// InFlightCount returns the number of inbound calls still executing.
func (s *Session) InFlightCount() int {
	return s.inflight.len()
}

// IsPending reports whether requestID is awaiting a response.
func (s *Session) IsPending(requestID string) bool {
	return s.pending.has(requestID)
}

// InitializationResult returns a copy of the initialize response, or nil
// before the handshake completed.
func (s *Session) InitializationResult() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	return maps.Clone(s.initResult)
}

// Initialize performs the handshake and moves the session to ready.
func (s *Session) Initialize(ctx context.Context, payload map[string]any, timeout time.Duration) (map[string]any, error) {
	if st := s.State(); st != StateInitializing {
		return nil, fmt.Errorf("%w: initialize in state %s", errors.ErrSessionNotReady, st)
	}

	s.log.Debug("sending initialize request")

	result, err := s.roundTrip(ctx, message.SubtypeInitialize, payload, timeout)
	if err != nil {
		return nil, fmt.Errorf("initialize: %w", err)
	}

	s.mu.Lock()
	if s.state == StateInitializing {
		s.state = StateReady
		s.initResult = result
	}
	st := s.state
	s.mu.Unlock()

	if st != StateReady {
		return nil, fmt.Errorf("%w: session %s during initialize", errors.ErrSessionNotReady, st)
	}

	s.log.Info("session ready")

	return maps.Clone(result), nil
}

// SendRequest sends a control request and waits for its response, the
// timeout, ctx cancellation or session failure, whichever comes first.
// A peer error response is returned as *errors.ControlError.
func (s *Session) SendRequest(
	ctx context.Context,
	subtype string,
	payload map[string]any,
	timeout time.Duration,
) (map[string]any, error) {
	if st := s.State(); st != StateReady {
		if err := s.Err(); err != nil {
			return nil, err
		}

		return nil, fmt.Errorf("%w: %s in state %s", errors.ErrSessionNotReady, subtype, st)
	}

	return s.roundTrip(ctx, subtype, payload, timeout)
}

func (s *Session) roundTrip(
	ctx context.Context,
	subtype string,
	payload map[string]any,
	timeout time.Duration,
) (map[string]any, error) {
	requestID := s.cfg.NewRequestID()

	p, err := s.pending.add(requestID, subtype, timeout)
	if err != nil {
		return nil, err
	}

	s.log.Debug("sending control request", "request_id", requestID, "subtype", subtype)

	if err := s.write(ctx, message.NewControlRequest(requestID, subtype, payload)); err != nil {
		if s.pending.claim(requestID) != nil {
			return nil, fmt.Errorf("send %s request: %w", subtype, err)
		}

		// Session failure claimed it first.
		res := <-p.waiter

		return res.payload, res.err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-p.waiter:
		return res.payload, res.err

	case <-timer.C:
		if s.pending.claim(requestID) == nil {
			res := <-p.waiter

			return res.payload, res.err
		}

		s.log.Warn("control request timed out", "request_id", requestID, "subtype", subtype, "timeout", timeout)
		s.sendCancel(requestID)

		return nil, fmt.Errorf("%s: %w after %s", subtype, errors.ErrRequestTimeout, timeout)

	case <-ctx.Done():
		if s.pending.claim(requestID) == nil {
			res := <-p.waiter

			return res.payload, res.err
		}

		s.log.Debug("control request cancelled", "request_id", requestID, "subtype", subtype)
		s.sendCancel(requestID)

		return nil, fmt.Errorf("%s: %w: %w", subtype, errors.ErrOperationCancelled, ctx.Err())
	}
}

// Send writes a data message such as a user prompt. The session must be ready.
func (s *Session) Send(ctx context.Context, v any) error {
	if st := s.State(); st != StateReady {
		if err := s.Err(); err != nil {
			return err
		}

		return fmt.Errorf("%w: send in state %s", errors.ErrSessionNotReady, st)
	}

	return s.write(ctx, v)
}

// write is the single path to the transport.
func (s *Session) write(ctx context.Context, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	return s.transport.SendMessage(ctx, data)
}

func (s *Session) sendCancel(requestID string) {
	if err := s.write(s.ctx, message.NewCancelRequest(requestID)); err != nil {
		s.log.Debug("could not send cancel request", "request_id", requestID, "error", err)
	}
}

func (s *Session) respond(env map[string]any, requestID string) {
	if err := s.write(s.ctx, env); err != nil {
		if s.State().terminal() || s.ctx.Err() != nil {
			s.log.Debug("could not send response after shutdown", "request_id", requestID, "error", err)

			return
		}

		s.log.Error("failed to send control response", "request_id", requestID, "error", err)
	}
}

func (s *Session) readLoop(lines <-chan []byte, errs <-chan error) {
	defer close(s.done)
	defer s.closeSubscribers()
	defer s.log.Debug("read loop stopped")

	for {
		select {
		case line, ok := <-lines:
			if !ok {
				s.transportEnded(nil)

				return
			}

			s.handleLine(line)

		case err, ok := <-errs:
			if !ok {
				errs = nil

				continue
			}

			if err != nil {
				s.transportEnded(err)

				return
			}

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Session) handleLine(line []byte) {
	ev, err := message.Decode(line)
	if err != nil {
		raw := line
		if len(raw) > maxLoggedLine {
			raw = raw[:maxLoggedLine]
		}

		s.log.Warn("dropping undecodable line", "error", err, "line", string(raw))

		return
	}

	switch e := ev.(type) {
	case *message.ControlResponse:
		s.handleResponse(e)
	case *message.ControlRequest:
		s.handleRequest(e)
	case *message.ControlCancelRequest:
		s.handleCancel(e)
	case message.Message:
		s.broadcast(e)
	default:
		s.log.Debug("ignoring event", "type", ev.EventType(), "raw_type", ev.RawData()["type"])
	}
}

func (s *Session) handleResponse(resp *message.ControlResponse) {
	requestID := resp.RequestID()

	if resp.Subtype() == message.ResponseCancelAck {
		s.log.Debug("cancel acknowledged", "request_id", requestID)

		return
	}

	p := s.pending.claim(requestID)
	if p == nil {
		s.log.Debug("dropping response for unknown request", "request_id", requestID)

		return
	}

	if resp.IsError() {
		s.log.Warn("control request failed", "request_id", requestID, "subtype", p.subtype, "error", resp.ErrorMessage())
		p.waiter <- outcome{err: &errors.ControlError{Subtype: p.subtype, Message: resp.ErrorMessage()}}

		return
	}

	s.log.Debug("control response received", "request_id", requestID, "subtype", p.subtype)
	p.waiter <- outcome{payload: resp.Payload()}
}

func (s *Session) handleRequest(req *message.ControlRequest) {
	requestID := req.RequestID
	subtype := req.Subtype()

	cat, timeout, ok := s.dispatcher.Classify(req)
	if !ok {
		s.log.Warn("no handler for control request", "request_id", requestID, "subtype", subtype)
		s.respond(message.NewErrorResponse(requestID, fmt.Sprintf("%v: %s", errors.ErrUnknownSubtype, subtype)), requestID)

		return
	}

	sig := signal.New(s.ctx)

	// The draining check and registration share mu with shutdown.
	s.mu.Lock()

	if s.draining {
		s.mu.Unlock()
		sig.Release()

		s.log.Debug("rejecting control request during shutdown", "request_id", requestID, "subtype", subtype)
		s.respond(message.NewErrorResponse(requestID, errors.ErrSessionClosed.Error()), requestID)

		return
	}

	if !s.inflight.add(requestID, cat, sig, timeout) {
		s.mu.Unlock()
		sig.Release()

		s.log.Warn("dropping duplicate control request", "request_id", requestID, "subtype", subtype)

		return
	}

	s.log.Debug("dispatching control request", "request_id", requestID, "subtype", subtype, "category", cat)

	s.calls.Go(func() {
		defer sig.Release()

		result, err := s.dispatcher.Dispatch(sig, req, timeout)

		s.inflight.remove(requestID)

		if err != nil {
			s.log.Debug("control request handler failed", "request_id", requestID, "error", err)
			s.respond(message.NewErrorResponse(requestID, err.Error()), requestID)

			return
		}

		s.respond(message.NewSuccessResponse(requestID, result), requestID)
	})

	s.mu.Unlock()
}

func (s *Session) handleCancel(c *message.ControlCancelRequest) {
	call := s.inflight.get(c.RequestID)
	if call == nil {
		s.log.Debug("cancel for unknown or finished request", "request_id", c.RequestID)
		s.respond(message.NewCancelAck(c.RequestID, false), c.RequestID)

		return
	}

	call.signal.Fire(errors.ErrOperationCancelled)
	s.log.Debug("cancelled in-flight request", "request_id", c.RequestID, "category", call.category)
	s.respond(message.NewCancelAck(c.RequestID, true), c.RequestID)
}

// transportEnded handles end of output. During shutdown it is expected;
// otherwise the session fails.
func (s *Session) transportEnded(err error) {
	st := s.State()
	if st == StateClosing || st.terminal() {
		s.log.Debug("transport ended", "state", st, "error", err)

		return
	}

	if err == nil {
		err = io.EOF
	}

	s.fail(&errors.TransportError{Err: err})
}

func (s *Session) fail(err error) {
	s.mu.Lock()
	if s.state.terminal() {
		s.mu.Unlock()

		return
	}

	prev := s.state
	s.state = StateFailed
	s.err = err
	s.mu.Unlock()

	failed := s.pending.failAll(err)
	fired := s.inflight.fireAll(err)

	s.log.Error("session failed",
		"error", err,
		"previous_state", prev,
		"failed_requests", failed,
		"cancelled_calls", fired,
	)
}

// Close shuts the session down. It ends input, waits up to the shutdown
// grace for remaining output, cancels what is still running and closes the
// transport. Close is idempotent; a failed session stays failed.
func (s *Session) Close(ctx context.Context) error {
	var closeErr error

	s.closeOnce.Do(func() {
		closeErr = s.shutdown(ctx)
	})

	return closeErr
}

func (s *Session) shutdown(ctx context.Context) error {
	s.mu.Lock()
	wasFailed := s.state == StateFailed
	if !wasFailed {
		s.state = StateClosing
	}
	started := s.started
	s.mu.Unlock()

	s.log.Debug("closing session", "failed", wasFailed)

	if !wasFailed && started {
		if err := s.transport.EndInput(); err != nil {
			s.log.Debug("end input", "error", err)
		}

		s.wait(ctx, s.done)
	}

	s.mu.Lock()
	s.draining = true
	s.mu.Unlock()

	s.pending.failAll(errors.ErrSessionClosed)
	s.inflight.fireAll(errors.ErrSessionClosed)

	callsDone := make(chan struct{})
	go func() {
		s.calls.Wait()
		close(callsDone)
	}()

	s.wait(ctx, callsDone)

	s.cancel()

	err := s.transport.Close()

	if started {
		<-s.done
	} else {
		s.closeSubscribers()
		close(s.done)
	}

	if !wasFailed {
		s.mu.Lock()
		s.state = StateClosed
		s.mu.Unlock()
	}

	s.log.Info("session closed")

	if err != nil {
		return fmt.Errorf("close transport: %w", err)
	}

	return nil
}

func (s *Session) wait(ctx context.Context, ch <-chan struct{}) {
	timer := time.NewTimer(s.cfg.ShutdownGrace)
	defer timer.Stop()

	select {
	case <-ch:
	case <-timer.C:
	case <-ctx.Done():
	}
}

package protocol

import (
	"fmt"
	"sync"
	"time"

	"github.com/wagiedev/agentctl-go/internal/errors"
)

// outcome resolves one outgoing request.
type outcome struct {
	payload map[string]any
	err     error
}

// pendingRequest is an outgoing request awaiting its response.
type pendingRequest struct {
	requestID string
	subtype   string
	createdAt time.Time
	deadline  time.Time
	// waiter has capacity one and receives exactly one outcome from
	// whoever claims the entry.
	waiter chan outcome
}

// pendingTable holds outgoing requests by id. An entry is resolved by
// claiming it first, so the response path, the timeout path and session
// failure can race without delivering twice.
type pendingTable struct {
	mu      sync.Mutex
	entries map[string]*pendingRequest
	// closed is set once the table was failed; later adds are rejected.
	closed error
}

func newPendingTable() *pendingTable {
	return &pendingTable{entries: make(map[string]*pendingRequest, 8)}
}

func (t *pendingTable) add(requestID, subtype string, timeout time.Duration) (*pendingRequest, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed != nil {
		return nil, t.closed
	}

	if _, exists := t.entries[requestID]; exists {
		return nil, fmt.Errorf("%w: %s", errors.ErrDuplicateRequestID, requestID)
	}

	now := time.Now()
	p := &pendingRequest{
		requestID: requestID,
		subtype:   subtype,
		createdAt: now,
		deadline:  now.Add(timeout),
		waiter:    make(chan outcome, 1),
	}
	t.entries[requestID] = p

	return p, nil
}

// claim removes and returns the entry, or nil if it is already gone.
func (t *pendingTable) claim(requestID string) *pendingRequest {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.entries[requestID]
	if !ok {
		return nil
	}

	delete(t.entries, requestID)

	return p
}

// failAll resolves every entry with err and rejects future adds.
func (t *pendingTable) failAll(err error) int {
	t.mu.Lock()

	if t.closed == nil {
		t.closed = err
	}

	claimed := make([]*pendingRequest, 0, len(t.entries))
	for id, p := range t.entries {
		claimed = append(claimed, p)
		delete(t.entries, id)
	}

	t.mu.Unlock()

	for _, p := range claimed {
		p.waiter <- outcome{err: err}
	}

	return len(claimed)
}

func (t *pendingTable) has(requestID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, ok := t.entries[requestID]

	return ok
}

func (t *pendingTable) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.entries)
}

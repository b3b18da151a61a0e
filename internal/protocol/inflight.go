package protocol

import (
	"sync"
	"time"

	"github.com/wagiedev/agentctl-go/internal/signal"
)

// Category is the kind of inbound control call.
type Category string

const (
	CategoryHook       Category = "hook"
	CategoryPermission Category = "permission"
	CategoryMCP        Category = "mcp"
)

// inflightCall is an inbound control request whose callback is running.
type inflightCall struct {
	requestID string
	category  Category
	signal    *signal.Signal
	startedAt time.Time
	deadline  time.Time
}

// inflightTable holds at most one call per inbound request id.
type inflightTable struct {
	mu    sync.Mutex
	calls map[string]*inflightCall
}

func newInflightTable() *inflightTable {
	return &inflightTable{calls: make(map[string]*inflightCall, 8)}
}

// add records a call. It returns false if the id is already executing.
func (t *inflightTable) add(requestID string, cat Category, sig *signal.Signal, timeout time.Duration) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.calls[requestID]; exists {
		return false
	}

	now := time.Now()
	t.calls[requestID] = &inflightCall{
		requestID: requestID,
		category:  cat,
		signal:    sig,
		startedAt: now,
		deadline:  now.Add(timeout),
	}

	return true
}

func (t *inflightTable) get(requestID string) *inflightCall {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.calls[requestID]
}

func (t *inflightTable) remove(requestID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.calls, requestID)
}

// fireAll fires the signal of every running call. Entries stay until their
// callbacks return.
func (t *inflightTable) fireAll(cause error) int {
	t.mu.Lock()

	sigs := make([]*signal.Signal, 0, len(t.calls))
	for _, c := range t.calls {
		sigs = append(sigs, c.signal)
	}

	t.mu.Unlock()

	for _, s := range sigs {
		s.Fire(cause)
	}

	return len(sigs)
}

func (t *inflightTable) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.calls)
}

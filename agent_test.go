package agentctl

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"
)

// fakeAgent plays the agent side of the protocol over in-memory pipes.
// It answers host control requests, runs onUser for each user message and
// closes its output once the host ends input.
type fakeAgent struct {
	t *testing.T

	in  *io.PipeReader
	out *io.PipeWriter

	transport Transport
	onUser    func(a *fakeAgent, msg map[string]any)

	writeMu sync.Mutex

	mu       sync.Mutex
	seq      int
	waiting  map[string]chan map[string]any
	requests []map[string]any

	handlers sync.WaitGroup
	done     chan struct{}
}

func newFakeAgent(t *testing.T, onUser func(a *fakeAgent, msg map[string]any)) *fakeAgent {
	t.Helper()

	hostR, agentW := io.Pipe()
	agentR, hostW := io.Pipe()

	a := &fakeAgent{
		t:         t,
		in:        agentR,
		out:       agentW,
		transport: NewPipeTransport(nil, hostR, hostW),
		onUser:    onUser,
		waiting:   make(map[string]chan map[string]any),
		done:      make(chan struct{}),
	}

	go a.run()

	t.Cleanup(func() {
		_ = agentR.Close()
		_ = agentW.Close()
	})

	return a
}

// replyWith answers every user message with one assistant text and a result.
func replyWith(text string) func(a *fakeAgent, msg map[string]any) {
	return func(a *fakeAgent, _ map[string]any) {
		a.assistant(text)
		a.result(text)
	}
}

func (a *fakeAgent) run() {
	defer close(a.done)
	defer a.out.Close()

	scanner := bufio.NewScanner(a.in)
	for scanner.Scan() {
		var msg map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			a.t.Errorf("agent received invalid JSON: %v", err)

			continue
		}

		switch msg["type"] {
		case "control_request":
			a.answer(msg)
		case "control_response":
			a.resolve(msg)
		case "user":
			if a.onUser != nil {
				a.handlers.Go(func() { a.onUser(a, msg) })
			}
		}
	}

	a.handlers.Wait()
}

func (a *fakeAgent) answer(msg map[string]any) {
	id, _ := msg["request_id"].(string)
	req, _ := msg["request"].(map[string]any)

	a.mu.Lock()
	a.requests = append(a.requests, req)
	a.mu.Unlock()

	var result map[string]any

	switch req["subtype"] {
	case "initialize":
		result = map[string]any{"commands": []any{"help"}}
	case "mcp_status":
		result = map[string]any{"mcpServers": []any{
			map[string]any{"name": "remote", "status": "failed"},
		}}
	default:
		result = map[string]any{}
	}

	a.write(map[string]any{
		"type": "control_response",
		"response": map[string]any{
			"subtype":    "success",
			"request_id": id,
			"response":   result,
		},
	})
}

func (a *fakeAgent) resolve(msg map[string]any) {
	resp, _ := msg["response"].(map[string]any)
	id, _ := resp["request_id"].(string)

	a.mu.Lock()
	ch, ok := a.waiting[id]
	delete(a.waiting, id)
	a.mu.Unlock()

	if ok {
		ch <- resp
	}
}

// request sends an agent-initiated control request and returns the host's
// response envelope.
func (a *fakeAgent) request(subtype string, payload map[string]any) map[string]any {
	a.mu.Lock()
	a.seq++
	id := fmt.Sprintf("agent_req_%d", a.seq)
	ch := make(chan map[string]any, 1)
	a.waiting[id] = ch
	a.mu.Unlock()

	req := map[string]any{"subtype": subtype}
	for k, v := range payload {
		req[k] = v
	}

	a.write(map[string]any{"type": "control_request", "request_id": id, "request": req})

	select {
	case resp := <-ch:
		return resp
	case <-time.After(5 * time.Second):
		a.t.Errorf("no response to %s", subtype)

		return nil
	}
}

// hostRequests returns the subtypes of control requests the host sent.
func (a *fakeAgent) hostRequests() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]string, 0, len(a.requests))
	for _, r := range a.requests {
		s, _ := r["subtype"].(string)
		out = append(out, s)
	}

	return out
}

func (a *fakeAgent) assistant(text string) {
	a.write(map[string]any{
		"type": "assistant",
		"message": map[string]any{
			"model":   "test-model",
			"content": []any{map[string]any{"type": "text", "text": text}},
		},
	})
}

func (a *fakeAgent) result(text string) {
	a.write(map[string]any{
		"type":       "result",
		"subtype":    "success",
		"session_id": "default",
		"num_turns":  1,
		"result":     text,
	})
}

func (a *fakeAgent) write(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		a.t.Errorf("marshal agent message: %v", err)

		return
	}

	a.writeMu.Lock()
	defer a.writeMu.Unlock()

	// The host may already be gone.
	_, _ = a.out.Write(append(data, '\n'))
}

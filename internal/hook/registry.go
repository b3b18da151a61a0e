package hook

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// Matcher selects which tools a group of hooks applies to.
type Matcher struct {
	// Matcher is a tool name glob such as "Bash" or "mcp__*", with "|"
	// separating alternatives ("Write|Edit"). Nil or empty matches everything.
	Matcher *string
	Hooks   []Callback
	// Timeout overrides the session hook timeout when positive.
	Timeout time.Duration
}

// Matches reports whether toolName is selected by m.
func (m *Matcher) Matches(toolName string) bool {
	if m.Matcher == nil || *m.Matcher == "" {
		return true
	}

	for alt := range strings.SplitSeq(*m.Matcher, "|") {
		alt = strings.TrimSpace(alt)

		ok, err := doublestar.Match(alt, toolName)
		if err != nil {
			ok = alt == toolName
		}

		if ok {
			return true
		}
	}

	return false
}

// Entry is one registered callback with the id announced to the agent.
type Entry struct {
	ID       string
	Event    Event
	Matcher  *Matcher
	Callback Callback
}

// Timeout returns the entry's own timeout, or zero for the session default.
func (e *Entry) Timeout() time.Duration {
	return e.Matcher.Timeout
}

// Registry assigns callback ids to hooks and resolves them on invocation.
// It is immutable after construction.
type Registry struct {
	events  []Event
	byEvent map[Event][]*Entry
	byID    map[string]*Entry
	groups  map[Event][]*Matcher
}

// NewRegistry numbers every callback as hook_<n>, walking events in name
// order and matchers in slice order.
func NewRegistry(hooks map[Event][]*Matcher) *Registry {
	r := &Registry{
		events:  slices.Sorted(maps.Keys(hooks)),
		byEvent: make(map[Event][]*Entry, len(hooks)),
		byID:    make(map[string]*Entry, 16),
		groups:  hooks,
	}

	n := 0

	for _, ev := range r.events {
		for _, m := range hooks[ev] {
			if m == nil {
				continue
			}

			for _, cb := range m.Hooks {
				e := &Entry{
					ID:       fmt.Sprintf("hook_%d", n),
					Event:    ev,
					Matcher:  m,
					Callback: cb,
				}
				n++

				r.byEvent[ev] = append(r.byEvent[ev], e)
				r.byID[e.ID] = e
			}
		}
	}

	return r
}

// Len returns the number of registered callbacks.
func (r *Registry) Len() int {
	return len(r.byID)
}

// Lookup finds a callback by the id the agent echoes back.
func (r *Registry) Lookup(id string) (*Entry, bool) {
	e, ok := r.byID[id]

	return e, ok
}

// Match returns the callbacks for event whose matcher selects toolName,
// in registration order.
func (r *Registry) Match(event Event, toolName string) []*Entry {
	var out []*Entry

	for _, e := range r.byEvent[event] {
		if e.Matcher.Matches(toolName) {
			out = append(out, e)
		}
	}

	return out
}

// Config renders the hooks section of the initialize request.
func (r *Registry) Config() map[string]any {
	cfg := make(map[string]any, len(r.events))

	for _, ev := range r.events {
		groups := make([]map[string]any, 0, len(r.groups[ev]))

		for _, m := range r.groups[ev] {
			if m == nil {
				continue
			}

			ids := make([]string, 0, len(m.Hooks))

			for _, e := range r.byEvent[ev] {
				if e.Matcher == m {
					ids = append(ids, e.ID)
				}
			}

			group := map[string]any{
				"matcher":         m.Matcher,
				"hookCallbackIds": ids,
			}

			if m.Timeout > 0 {
				group["timeout"] = m.Timeout.Seconds()
			}

			groups = append(groups, group)
		}

		cfg[string(ev)] = groups
	}

	return cfg
}

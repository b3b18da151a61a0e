package protocol

// State is the lifecycle state of a Session.
type State int32

const (
	// StateInitializing is the state before the handshake succeeds.
	StateInitializing State = iota
	// StateReady accepts requests in both directions.
	StateReady
	// StateClosing is entered on Close while output drains.
	StateClosing
	// StateClosed is terminal after a clean shutdown.
	StateClosed
	// StateFailed is terminal after the transport broke.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// terminal reports whether no further transitions are possible.
func (s State) terminal() bool {
	return s == StateClosed || s == StateFailed
}

package domain

// State is the externally observable orchestrator state:
// Idle, Pending, Settled or Failed.
type State interface {
	isState()
}

// Idle is the initial state and the state after a session reset.
type Idle struct{}

// Pending means a request for Query is in flight.
type Pending struct {
	Query string
	Seq   uint64
	// Session is the session the request was issued under.
	Session Session
}

// Settled holds the last successfully applied result.
type Settled struct {
	Query               string
	Result              SearchResult
	Session             Session
	ConversationContext string
	// Dropped counts malformed product records skipped while parsing.
	Dropped int
}

// Failed holds a user-facing error message and the session from before the attempt.
type Failed struct {
	Query   string
	Message string
	Err     error
	Session Session
}

func (Idle) isState()    {}
func (Pending) isState() {}
func (Settled) isState() {}
func (Failed) isState()  {}

// StateName returns a short label for logs and metrics.
func StateName(s State) string {
	switch s.(type) {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Settled:
		return "settled"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

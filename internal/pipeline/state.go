package pipeline

// State is the controller's position in a run's lifecycle.
type State int

const (
	StateIdle State = iota
	StateOpeningInput
	StateRemuxRunning
	StateDecodingEncoding
	StateFinalizing
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateOpeningInput:
		return "opening_input"
	case StateRemuxRunning:
		return "remux_running"
	case StateDecodingEncoding:
		return "decoding_encoding"
	case StateFinalizing:
		return "finalizing"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// transitions lists the allowed successors of each state. The branch out of
// OpeningInput is chosen once; a failed open goes straight to Finalizing.
var transitions = map[State][]State{
	StateIdle:             {StateOpeningInput},
	StateAborted:          {StateOpeningInput},
	StateOpeningInput:     {StateRemuxRunning, StateDecodingEncoding, StateFinalizing},
	StateRemuxRunning:     {StateFinalizing},
	StateDecodingEncoding: {StateFinalizing},
	StateFinalizing:       {StateIdle, StateAborted},
}

// CanTransition reports whether to may follow s.
func (s State) CanTransition(to State) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether s ends a run.
func (s State) Terminal() bool { return s == StateIdle || s == StateAborted }

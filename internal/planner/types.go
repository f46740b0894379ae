package planner

import "errors"

// ErrNoVideoStream is returned when re-encoding is requested for an input
// without any video stream.
var ErrNoVideoStream = errors.New("no video stream found for re-encoding")

// Unmapped marks an input stream that is not carried into the output.
const Unmapped = -1

// Action describes the processing path for a run.
type Action int

const (
	ActionRemux Action = iota
	ActionTranscode
)

func (a Action) String() string {
	if a == ActionTranscode {
		return "transcode"
	}
	return "remux"
}

// Mapping is the dense stream map indexed by input stream index. Each entry
// is Unmapped or the output stream index. Mapped entries are assigned in
// increasing input order without gaps.
type Mapping []int

// Output returns the output index of input stream in, and false when the
// stream is unmapped or out of range.
func (m Mapping) Output(in int) (int, bool) {
	if in < 0 || in >= len(m) || m[in] == Unmapped {
		return 0, false
	}
	return m[in], true
}

// Mapped returns the number of mapped streams.
func (m Mapping) Mapped() int {
	n := 0
	for _, o := range m {
		if o != Unmapped {
			n++
		}
	}
	return n
}

// Plan holds the decisions for one run. It is produced once by BuildPlan
// before any packet is read and never mutated afterward.
type Plan struct {
	Action  Action
	Mapping Mapping

	// VideoIndex is the input index of the first video stream, or -1.
	VideoIndex int

	// RegenerateVideo is set when the video stream's output parameters come
	// from the encoder instead of a copy of the input's.
	RegenerateVideo bool
}

// Regenerated reports whether input stream in is rebuilt by the encoder.
func (p *Plan) Regenerated(in int) bool {
	return p.RegenerateVideo && in == p.VideoIndex
}

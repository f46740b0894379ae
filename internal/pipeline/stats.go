package pipeline

import "time"

// Stats are the counters of one run.
type Stats struct {
	PacketsRead      int64
	PacketsCopied    int64
	PacketsEncoded   int64
	PacketsDiscarded int64
	FramesDecoded    int64
	BytesWritten     int64
	MessagesDropped  int64
	Elapsed          time.Duration
	InputBytes       int64
	OutputBytes      int64
}

// SpaceSaved returns the byte difference between input and output.
// Positive means the output is smaller; negative means it grew.
func (s Stats) SpaceSaved() int64 {
	return s.InputBytes - s.OutputBytes
}

// Ratio returns the output size as a percentage of the input size, or 100
// when the input size is unknown.
func (s Stats) Ratio() int64 {
	if s.InputBytes <= 0 {
		return 100
	}
	return s.OutputBytes * 100 / s.InputBytes
}

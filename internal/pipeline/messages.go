package pipeline

import (
	"sync/atomic"

	"github.com/backmassage/muxconv/internal/metrics"
	"github.com/backmassage/muxconv/internal/progress"
)

// Message is one entry of a run's message stream: either "PROGRESS:<n>" or
// a human-readable log line.
type Message string

// Progress returns the percentage of a progress message.
func (m Message) Progress() (int, bool) { return progress.Parse(string(m)) }

// IsProgress reports whether m is a progress message.
func (m Message) IsProgress() bool {
	_, ok := m.Progress()
	return ok
}

func (m Message) String() string { return string(m) }

// sink is the producer side of the message stream. post never blocks: when
// the consumer lags and the buffer is full the message is dropped and
// counted. Only the worker goroutine posts and closes.
type sink struct {
	ch      chan Message
	dropped atomic.Int64
}

func newSink(size int) *sink {
	if size < 1 {
		size = 1
	}
	return &sink{ch: make(chan Message, size)}
}

func (s *sink) post(m Message) {
	select {
	case s.ch <- m:
	default:
		s.dropped.Add(1)
		metrics.MessagesDropped.Inc()
	}
}

func (s *sink) close() { close(s.ch) }

func (s *sink) Dropped() int64 { return s.dropped.Load() }

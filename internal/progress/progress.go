// Package progress turns a presentation timestamp into a completion
// percentage and renders it as a progress message.
package progress

import (
	"math"
	"strconv"

	"github.com/backmassage/muxconv/internal/media"
)

// NoPts mirrors libav's AV_NOPTS_VALUE so this package stays free of cgo.
const NoPts int64 = math.MinInt64

// Prefix starts every progress message.
const Prefix = "PROGRESS:"

// Percent returns clamp(0, 100, round(pts_seconds / duration_seconds * 100)).
// durationMicros is the container duration in microseconds. ok is false when
// the duration is unknown or pts is the NoPts sentinel; nothing should be
// reported in that case.
func Percent(pts int64, tb media.Rational, durationMicros int64) (pct int, ok bool) {
	if durationMicros <= 0 || pts == NoPts || tb.Den == 0 {
		return 0, false
	}
	seconds := float64(pts) * tb.Float()
	total := float64(durationMicros) / 1e6
	p := math.Round(seconds * 100 / total)
	switch {
	case math.IsNaN(p) || p < 0:
		return 0, true
	case p > 100:
		return 100, true
	}
	return int(p), true
}

// Message renders pct as "PROGRESS:<n>".
func Message(pct int) string {
	return Prefix + strconv.Itoa(pct)
}

// Parse extracts the percentage from a progress message.
func Parse(msg string) (int, bool) {
	if len(msg) <= len(Prefix) || msg[:len(Prefix)] != Prefix {
		return 0, false
	}
	n, err := strconv.Atoi(msg[len(Prefix):])
	if err != nil {
		return 0, false
	}
	return n, true
}

// Tracker suppresses repeated emissions of the same percentage.
type Tracker struct {
	last int
	seen bool
}

// Update reports whether pct differs from the previously accepted value.
func (t *Tracker) Update(pct int) bool {
	if t.seen && t.last == pct {
		return false
	}
	t.last, t.seen = pct, true
	return true
}

// Last returns the last accepted percentage, or -1 before the first update.
func (t *Tracker) Last() int {
	if !t.seen {
		return -1
	}
	return t.last
}

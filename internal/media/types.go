// Package media holds the plain value types shared by the probe, planner,
// progress and pipeline packages. Nothing here touches libav, so the
// decision logic built on top of it can be tested without native media.
package media

import "fmt"

// Kind is the media kind of an elementary stream.
type Kind int

const (
	KindOther Kind = iota // Data, attachment, subtitle, or anything unrecognized.
	KindVideo
	KindAudio
)

func (k Kind) String() string {
	switch k {
	case KindVideo:
		return "video"
	case KindAudio:
		return "audio"
	default:
		return "other"
	}
}

// DurationUnknown is the catalog duration when the container does not report one.
const DurationUnknown int64 = -1

// Rational is a time base or frame rate expressed as Num/Den.
type Rational struct {
	Num int
	Den int
}

// Valid reports whether r can be used as a divisor-free time unit.
func (r Rational) Valid() bool { return r.Num > 0 && r.Den > 0 }

// Float returns r as a float64 (0 when the denominator is zero).
func (r Rational) Float() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

func (r Rational) String() string { return fmt.Sprintf("%d/%d", r.Num, r.Den) }

// StreamDescriptor describes one input stream as read from the container.
// The codec parameter block itself stays with the native stream; the
// descriptor only carries what mapping and reporting need.
type StreamDescriptor struct {
	Index    int
	Kind     Kind
	Codec    string // Codec short name, e.g. "h264" or "aac".
	TimeBase Rational
	Width    int // Video only.
	Height   int // Video only.
}

// Catalog is the ordered stream table of an input plus its total duration.
// Duration is in microseconds, or DurationUnknown.
type Catalog struct {
	Path     string
	Format   string
	Streams  []StreamDescriptor
	Duration int64
}

// DurationKnown reports whether the container reported a usable duration.
func (c Catalog) DurationKnown() bool { return c.Duration > 0 }

// FirstVideo returns the index of the first video stream, or -1.
func (c Catalog) FirstVideo() int {
	for _, s := range c.Streams {
		if s.Kind == KindVideo {
			return s.Index
		}
	}
	return -1
}

// Count returns the number of streams of kind k.
func (c Catalog) Count(k Kind) int {
	n := 0
	for _, s := range c.Streams {
		if s.Kind == k {
			n++
		}
	}
	return n
}

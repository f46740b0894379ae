package testutil

import (
	"errors"
	"testing"

	"github.com/asticode/go-astiav"
)

// Packet is the timing of one packet read back from a file.
type Packet struct {
	Stream int
	Pts    int64
	Dts    int64
}

// Summary is what a test needs to know about a produced file.
type Summary struct {
	Kinds   []astiav.MediaType
	Codecs  []astiav.CodecID
	Packets []Packet
}

// PerStream returns the number of packets read for stream i.
func (s Summary) PerStream(i int) int {
	n := 0
	for _, p := range s.Packets {
		if p.Stream == i {
			n++
		}
	}
	return n
}

// Read opens path, probes it and reads every packet. Failing to open or
// probe means the file is not a valid container and fails the test.
func Read(t testing.TB, path string) Summary {
	t.Helper()

	fc := astiav.AllocFormatContext()
	if fc == nil {
		t.Fatal("format context is nil")
	}
	defer fc.Free()
	if err := fc.OpenInput(path, nil, nil); err != nil {
		t.Fatalf("opening %s: %v", path, err)
	}
	defer fc.CloseInput()
	if err := fc.FindStreamInfo(nil); err != nil {
		t.Fatalf("probing %s: %v", path, err)
	}

	var s Summary
	for _, st := range fc.Streams() {
		s.Kinds = append(s.Kinds, st.CodecParameters().MediaType())
		s.Codecs = append(s.Codecs, st.CodecParameters().CodecID())
	}

	pkt := astiav.AllocPacket()
	defer pkt.Free()
	for {
		if err := fc.ReadFrame(pkt); err != nil {
			if errors.Is(err, astiav.ErrEof) {
				break
			}
			t.Fatalf("reading %s: %v", path, err)
		}
		s.Packets = append(s.Packets, Packet{Stream: pkt.StreamIndex(), Pts: pkt.Pts(), Dts: pkt.Dts()})
		pkt.Unref()
	}
	return s
}

// Package testutil generates small media fixtures in-process with libav's
// built-in encoders and reads packets back for assertions. It is only
// imported by tests.
package testutil

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/asticode/go-astiav"
	"github.com/asticode/go-astikit"
)

const (
	fixtureWidth      = 64
	fixtureHeight     = 48
	fixtureFPS        = 25
	fixtureSampleRate = 8000
)

// Fixture describes the media to generate.
type Fixture struct {
	Name   string // File name inside the target directory.
	Muxer  string // libav muxer name, e.g. "matroska".
	Video  bool   // One mpeg4 video stream.
	Audio  bool   // One mono pcm_s16le stream.
	Frames int    // Video frames (and audio chunks) at 25 per second.
}

// Write generates f in dir and returns its path. The test is skipped when
// the libav build lacks the needed encoders or muxer.
func Write(t testing.TB, dir string, f Fixture) string {
	t.Helper()
	if f.Frames <= 0 {
		f.Frames = 50
	}
	if astiav.FindOutputFormat(f.Muxer) == nil {
		t.Skipf("muxer %s not available", f.Muxer)
	}
	if f.Video && astiav.FindEncoder(astiav.CodecIDMpeg4) == nil {
		t.Skip("mpeg4 encoder not available")
	}
	if f.Audio && astiav.FindEncoder(astiav.CodecIDPcmS16Le) == nil {
		t.Skip("pcm_s16le encoder not available")
	}

	path := filepath.Join(dir, f.Name)
	if err := write(path, f); err != nil {
		t.Fatalf("writing fixture %s: %v", path, err)
	}
	return path
}

type track struct {
	enc    *astiav.CodecContext
	stream *astiav.Stream
	frame  *astiav.Frame
	step   int64
}

func write(path string, f Fixture) error {
	c := astikit.NewCloser()
	defer c.Close()

	oc, err := astiav.AllocOutputFormatContext(nil, f.Muxer, path)
	if err != nil {
		return err
	}
	c.Add(oc.Free)
	globalHeader := oc.OutputFormat().Flags().Has(astiav.IOFormatFlagGlobalheader)

	var tracks []*track
	if f.Video {
		tr, err := videoTrack(c, oc, globalHeader)
		if err != nil {
			return err
		}
		tracks = append(tracks, tr)
	}
	if f.Audio {
		tr, err := audioTrack(c, oc, globalHeader)
		if err != nil {
			return err
		}
		tracks = append(tracks, tr)
	}

	pb, err := astiav.OpenIOContext(path, astiav.NewIOContextFlags(astiav.IOContextFlagWrite), nil, nil)
	if err != nil {
		return err
	}
	c.AddWithError(pb.Close)
	oc.SetPb(pb)
	if err := oc.WriteHeader(nil); err != nil {
		return err
	}

	pkt := astiav.AllocPacket()
	c.Add(pkt.Free)

	for i := 0; i < f.Frames; i++ {
		for _, tr := range tracks {
			if err := tr.frame.MakeWritable(); err != nil {
				return err
			}
			tr.frame.SetPts(int64(i) * tr.step)
			if err := encode(oc, tr, tr.frame, pkt); err != nil {
				return err
			}
		}
	}
	for _, tr := range tracks {
		if err := encode(oc, tr, nil, pkt); err != nil {
			return err
		}
	}
	return oc.WriteTrailer()
}

func videoTrack(c *astikit.Closer, oc *astiav.FormatContext, globalHeader bool) (*track, error) {
	codec := astiav.FindEncoder(astiav.CodecIDMpeg4)
	enc := astiav.AllocCodecContext(codec)
	if enc == nil {
		return nil, errors.New("video codec context is nil")
	}
	c.Add(enc.Free)
	enc.SetWidth(fixtureWidth)
	enc.SetHeight(fixtureHeight)
	enc.SetPixelFormat(astiav.PixelFormatYuv420P)
	enc.SetTimeBase(astiav.NewRational(1, fixtureFPS))
	enc.SetFramerate(astiav.NewRational(fixtureFPS, 1))
	enc.SetBitRate(200000)
	if globalHeader {
		enc.SetFlags(enc.Flags().Add(astiav.CodecContextFlagGlobalHeader))
	}
	if err := enc.Open(codec, nil); err != nil {
		return nil, err
	}

	frame := astiav.AllocFrame()
	c.Add(frame.Free)
	frame.SetWidth(fixtureWidth)
	frame.SetHeight(fixtureHeight)
	frame.SetPixelFormat(astiav.PixelFormatYuv420P)
	if err := frame.AllocBuffer(0); err != nil {
		return nil, err
	}
	return newTrack(oc, enc, frame, 1)
}

func audioTrack(c *astikit.Closer, oc *astiav.FormatContext, globalHeader bool) (*track, error) {
	codec := astiav.FindEncoder(astiav.CodecIDPcmS16Le)
	enc := astiav.AllocCodecContext(codec)
	if enc == nil {
		return nil, errors.New("audio codec context is nil")
	}
	c.Add(enc.Free)
	enc.SetSampleRate(fixtureSampleRate)
	enc.SetSampleFormat(astiav.SampleFormatS16)
	enc.SetChannelLayout(astiav.ChannelLayoutMono)
	enc.SetTimeBase(astiav.NewRational(1, fixtureSampleRate))
	if globalHeader {
		enc.SetFlags(enc.Flags().Add(astiav.CodecContextFlagGlobalHeader))
	}
	if err := enc.Open(codec, nil); err != nil {
		return nil, err
	}

	samples := fixtureSampleRate / fixtureFPS
	frame := astiav.AllocFrame()
	c.Add(frame.Free)
	frame.SetNbSamples(samples)
	frame.SetSampleFormat(astiav.SampleFormatS16)
	frame.SetChannelLayout(astiav.ChannelLayoutMono)
	frame.SetSampleRate(fixtureSampleRate)
	if err := frame.AllocBuffer(0); err != nil {
		return nil, err
	}
	return newTrack(oc, enc, frame, int64(samples))
}

func newTrack(oc *astiav.FormatContext, enc *astiav.CodecContext, frame *astiav.Frame, step int64) (*track, error) {
	s := oc.NewStream(nil)
	if s == nil {
		return nil, errors.New("stream is nil")
	}
	if err := s.CodecParameters().FromCodecContext(enc); err != nil {
		return nil, err
	}
	s.SetTimeBase(enc.TimeBase())
	return &track{enc: enc, stream: s, frame: frame, step: step}, nil
}

func encode(oc *astiav.FormatContext, tr *track, frame *astiav.Frame, pkt *astiav.Packet) error {
	if err := tr.enc.SendFrame(frame); err != nil {
		return err
	}
	for {
		if err := tr.enc.ReceivePacket(pkt); err != nil {
			if errors.Is(err, astiav.ErrEagain) || errors.Is(err, astiav.ErrEof) {
				return nil
			}
			return err
		}
		pkt.RescaleTs(tr.enc.TimeBase(), tr.stream.TimeBase())
		pkt.SetStreamIndex(tr.stream.Index())
		if err := oc.WriteInterleavedFrame(pkt); err != nil {
			return err
		}
	}
}

package ffmpeg

import (
	"errors"
	"strings"

	"github.com/asticode/go-astiav"
)

// muxerNames maps container tokens (file extensions) to libav muxer names
// where the two differ.
var muxerNames = map[string]string{
	"mkv":  "matroska",
	"mk3d": "matroska",
	"mka":  "matroska",
	"ts":   "mpegts",
	"m4v":  "mp4",
}

// MuxerName returns the libav muxer name for a container token. Unknown
// tokens are returned unchanged and left for libav to accept or reject.
func MuxerName(token string) string {
	t := strings.ToLower(token)
	if name, ok := muxerNames[t]; ok {
		return name
	}
	return t
}

// Muxer is the output side of a run: the container, its IO handle, and the
// header/trailer lifecycle. Both paths write through [Muxer.WritePacket].
type Muxer struct {
	fc   *astiav.FormatContext
	pb   *astiav.IOContext
	path string
	name string

	headerWritten  bool
	trailerWritten bool
	closed         bool

	packets []int64
	bytes   int64
}

// NewMuxer allocates the output container for token at path. Nothing is
// opened yet; streams are added before [Muxer.Open].
func NewMuxer(token, path string) (*Muxer, error) {
	name := MuxerName(token)
	fc, err := astiav.AllocOutputFormatContext(nil, name, path)
	if err != nil {
		return nil, Wrap(ErrOutputContext, err)
	}
	if fc == nil {
		return nil, ErrOutputContext
	}
	return &Muxer{fc: fc, path: path, name: name}, nil
}

// Name returns the libav muxer name in use.
func (m *Muxer) Name() string { return m.name }

// Path returns the output path.
func (m *Muxer) Path() string { return m.path }

// NeedsGlobalHeader reports whether encoders feeding this muxer must put
// codec headers in extradata instead of in-band.
func (m *Muxer) NeedsGlobalHeader() bool {
	return m.fc.OutputFormat().Flags().Has(astiav.IOFormatFlagGlobalheader)
}

// AddCopyStream creates an output stream carrying in's codec parameters
// verbatim. The container-specific codec tag is cleared and in's time base
// is offered as a hint; the muxer may change it when the header is written.
func (m *Muxer) AddCopyStream(in *astiav.Stream) (*astiav.Stream, error) {
	out := m.fc.NewStream(nil)
	if out == nil {
		return nil, ErrStreamAllocation
	}
	if err := in.CodecParameters().Copy(out.CodecParameters()); err != nil {
		return nil, Wrap(ErrCodecParameterCopy, err)
	}
	out.CodecParameters().SetCodecTag(0)
	out.SetTimeBase(in.TimeBase())
	m.packets = append(m.packets, 0)
	return out, nil
}

// AddEncodedStream creates an output stream whose parameters and time base
// come from an opened encoder.
func (m *Muxer) AddEncodedStream(enc *Encoder) (*astiav.Stream, error) {
	out := m.fc.NewStream(nil)
	if out == nil {
		return nil, ErrStreamAllocation
	}
	if err := out.CodecParameters().FromCodecContext(enc.ctx); err != nil {
		return nil, Wrap(ErrCodecParameterCopy, err)
	}
	out.CodecParameters().SetCodecTag(0)
	out.SetTimeBase(enc.TimeBase())
	m.packets = append(m.packets, 0)
	return out, nil
}

// Open opens the output file (unless the format needs none) and writes the
// container header.
func (m *Muxer) Open() error {
	if !m.fc.OutputFormat().Flags().Has(astiav.IOFormatFlagNofile) {
		pb, err := astiav.OpenIOContext(m.path, astiav.NewIOContextFlags(astiav.IOContextFlagWrite), nil, nil)
		if err != nil {
			return Wrap(ErrOutputOpen, err)
		}
		m.pb = pb
		m.fc.SetPb(pb)
	}
	if err := m.fc.WriteHeader(nil); err != nil {
		return Wrap(ErrHeaderWrite, err)
	}
	m.headerWritten = true
	return nil
}

// Stream returns output stream i.
func (m *Muxer) Stream(i int) *astiav.Stream { return m.fc.Streams()[i] }

// NbStreams returns the number of output streams.
func (m *Muxer) NbStreams() int { return len(m.packets) }

// WritePacket hands pkt to the interleaving writer. pkt must already carry
// its output stream index and output time base. libav takes ownership of
// the payload; pkt is left blank for reuse.
func (m *Muxer) WritePacket(pkt *astiav.Packet) error {
	idx, size := pkt.StreamIndex(), int64(pkt.Size())
	if err := m.fc.WriteInterleavedFrame(pkt); err != nil {
		return Wrap(ErrMux, err)
	}
	if idx >= 0 && idx < len(m.packets) {
		m.packets[idx]++
	}
	m.bytes += size
	return nil
}

// Packets returns the number of packets written to output stream i.
func (m *Muxer) Packets(i int) int64 {
	if i < 0 || i >= len(m.packets) {
		return 0
	}
	return m.packets[i]
}

// Bytes returns the payload bytes handed to the writer.
func (m *Muxer) Bytes() int64 { return m.bytes }

// Finish flushes interleaving queues and writes the trailer. It is a no-op
// when the header was never written or the trailer already was.
func (m *Muxer) Finish() error {
	if !m.headerWritten || m.trailerWritten {
		return nil
	}
	m.trailerWritten = true
	if err := m.fc.WriteTrailer(); err != nil {
		return Wrap(ErrMux, err)
	}
	return nil
}

// Close finalizes and releases the output: trailer (if the header was
// written and Finish was not called), IO handle, then the container. It is
// safe to call more than once.
func (m *Muxer) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true

	var errs []error
	if err := m.Finish(); err != nil {
		errs = append(errs, err)
	}
	if m.pb != nil {
		if err := m.pb.Close(); err != nil {
			errs = append(errs, Wrap(ErrMux, err))
		}
		m.pb = nil
	}
	m.fc.Free()
	return errors.Join(errs...)
}

package ffmpeg

import (
	"errors"
	"fmt"

	"github.com/asticode/go-astiav"
	"github.com/asticode/go-astikit"
)

// EncoderOptions configures the video encoder of the re-encode path.
type EncoderOptions struct {
	// Name is looked up first (e.g. "libx264"); the default H.264 encoder
	// is used when it is empty or unavailable.
	Name    string
	BitRate int64
	// GlobalHeader must be set when the muxer requires global headers.
	GlobalHeader bool
}

// TargetPixelFormat is the pixel format every converted frame is produced in.
const TargetPixelFormat = astiav.PixelFormatYuv420P

// ChooseFrameRate returns the first valid rate of guess and nominal, else
// fallback.
func ChooseFrameRate(guess, nominal, fallback astiav.Rational) astiav.Rational {
	for _, r := range []astiav.Rational{guess, nominal} {
		if r.Num() > 0 && r.Den() > 0 {
			return r
		}
	}
	return fallback
}

// drained reports whether err only means the codec has nothing more to give
// for now (needs input) or ever (flushed).
func drained(err error) bool {
	return errors.Is(err, astiav.ErrEagain) || errors.Is(err, astiav.ErrEof)
}

// --- Decoder ---

// Decoder wraps an opened decoding context for one input stream.
type Decoder struct {
	ctx    *astiav.CodecContext
	stream *astiav.Stream
	name   string
}

// OpenDecoder finds, configures and opens a decoder for s. The context is
// registered on c as soon as it is allocated.
func OpenDecoder(c *astikit.Closer, s *astiav.Stream, framerate astiav.Rational) (*Decoder, error) {
	codec := astiav.FindDecoder(s.CodecParameters().CodecID())
	if codec == nil {
		return nil, Wrap(ErrDecoderNotFound, fmt.Errorf("codec %s", s.CodecParameters().CodecID()))
	}
	ctx := astiav.AllocCodecContext(codec)
	if ctx == nil {
		return nil, Wrap(ErrDecoderOpen, errors.New("codec context is nil"))
	}
	c.Add(ctx.Free)

	if err := s.CodecParameters().ToCodecContext(ctx); err != nil {
		return nil, Wrap(ErrDecoderOpen, err)
	}
	ctx.SetFramerate(framerate)
	if err := ctx.Open(codec, nil); err != nil {
		return nil, Wrap(ErrDecoderOpen, err)
	}
	return &Decoder{ctx: ctx, stream: s, name: codec.Name()}, nil
}

// Name returns the decoder's codec name.
func (d *Decoder) Name() string { return d.name }

// Send submits pkt. A nil pkt starts draining.
func (d *Decoder) Send(pkt *astiav.Packet) error {
	if err := d.ctx.SendPacket(pkt); err != nil && !errors.Is(err, astiav.ErrEof) {
		return Wrap(ErrDecode, err)
	}
	return nil
}

// Receive fills f with the next decoded frame. ok is false once the decoder
// needs more input or is fully drained.
func (d *Decoder) Receive(f *astiav.Frame) (ok bool, err error) {
	if err := d.ctx.ReceiveFrame(f); err != nil {
		if drained(err) {
			return false, nil
		}
		return false, Wrap(ErrDecode, err)
	}
	return true, nil
}

// --- Encoder ---

// Encoder wraps an opened video encoding context.
type Encoder struct {
	ctx  *astiav.CodecContext
	name string
}

// FindVideoEncoder resolves name, falling back to the default H.264 encoder.
func FindVideoEncoder(name string) *astiav.Codec {
	if name != "" {
		if codec := astiav.FindEncoderByName(name); codec != nil {
			return codec
		}
	}
	return astiav.FindEncoder(astiav.CodecIDH264)
}

// OpenEncoder configures an encoder from the decoder's geometry: same
// width, height and sample aspect ratio, YUV420P, the given frame rate, a
// time base of 1/framerate, and the configured bit rate.
func OpenEncoder(c *astikit.Closer, dec *Decoder, framerate astiav.Rational, opts EncoderOptions) (*Encoder, error) {
	codec := FindVideoEncoder(opts.Name)
	if codec == nil {
		return nil, Wrap(ErrEncoderNotFound, fmt.Errorf("encoder %q", opts.Name))
	}
	ctx := astiav.AllocCodecContext(codec)
	if ctx == nil {
		return nil, Wrap(ErrEncoderOpen, errors.New("codec context is nil"))
	}
	c.Add(ctx.Free)

	ctx.SetWidth(dec.ctx.Width())
	ctx.SetHeight(dec.ctx.Height())
	ctx.SetSampleAspectRatio(dec.ctx.SampleAspectRatio())
	ctx.SetPixelFormat(TargetPixelFormat)
	ctx.SetFramerate(framerate)
	ctx.SetTimeBase(astiav.NewRational(framerate.Den(), framerate.Num()))
	ctx.SetBitRate(opts.BitRate)
	if opts.GlobalHeader {
		ctx.SetFlags(ctx.Flags().Add(astiav.CodecContextFlagGlobalHeader))
	}

	if err := ctx.Open(codec, nil); err != nil {
		return nil, Wrap(ErrEncoderOpen, err)
	}
	return &Encoder{ctx: ctx, name: codec.Name()}, nil
}

// Name returns the encoder's codec name.
func (e *Encoder) Name() string { return e.name }

// TimeBase returns the encoding time base.
func (e *Encoder) TimeBase() astiav.Rational { return e.ctx.TimeBase() }

// Width and Height return the encoded frame size.
func (e *Encoder) Width() int  { return e.ctx.Width() }
func (e *Encoder) Height() int { return e.ctx.Height() }

// Send submits f. A nil f signals that no more frames will arrive.
func (e *Encoder) Send(f *astiav.Frame) error {
	if err := e.ctx.SendFrame(f); err != nil && !errors.Is(err, astiav.ErrEof) {
		return Wrap(ErrEncode, err)
	}
	return nil
}

// Receive fills pkt with the next encoded packet. ok is false once the
// encoder needs more input or is fully drained.
func (e *Encoder) Receive(pkt *astiav.Packet) (ok bool, err error) {
	if err := e.ctx.ReceivePacket(pkt); err != nil {
		if drained(err) {
			return false, nil
		}
		return false, Wrap(ErrEncode, err)
	}
	return true, nil
}

// --- Scaler ---

// Scaler converts decoded frames to the encoder's size and pixel format
// with bilinear resampling. The native context is rebuilt when the source
// geometry changes mid-stream.
type Scaler struct {
	ssc *astiav.SoftwareScaleContext
	dst *astiav.Frame

	srcW, srcH int
	srcFmt     astiav.PixelFormat
	dstW, dstH int
	dstFmt     astiav.PixelFormat
}

// NewScaler allocates the destination frame for w x h in format. The frame
// and the (lazily created) scale context are released through c.
func NewScaler(c *astikit.Closer, w, h int, format astiav.PixelFormat) (*Scaler, error) {
	dst := astiav.AllocFrame()
	if dst == nil {
		return nil, Wrap(ErrEncode, errors.New("frame is nil"))
	}
	c.Add(dst.Free)
	dst.SetWidth(w)
	dst.SetHeight(h)
	dst.SetPixelFormat(format)
	if err := dst.AllocBuffer(0); err != nil {
		return nil, Wrap(ErrEncode, fmt.Errorf("allocating %dx%d frame: %w", w, h, err))
	}

	s := &Scaler{dst: dst, dstW: w, dstH: h, dstFmt: format}
	c.Add(s.release)
	return s, nil
}

func (s *Scaler) ensure(src *astiav.Frame) error {
	sw, sh, sp := src.Width(), src.Height(), src.PixelFormat()
	if s.ssc != nil && sw == s.srcW && sh == s.srcH && sp == s.srcFmt {
		return nil
	}
	s.release()

	ssc, err := astiav.CreateSoftwareScaleContext(
		sw, sh, sp,
		s.dstW, s.dstH, s.dstFmt,
		astiav.NewSoftwareScaleContextFlags(astiav.SoftwareScaleContextFlagBilinear),
	)
	if err != nil {
		return Wrap(ErrEncode, fmt.Errorf("scaler %dx%d %s -> %dx%d %s: %w", sw, sh, sp, s.dstW, s.dstH, s.dstFmt, err))
	}
	s.ssc = ssc
	s.srcW, s.srcH, s.srcFmt = sw, sh, sp
	return nil
}

// Convert scales src into the destination frame and returns it. The
// returned frame is reused by the next call.
func (s *Scaler) Convert(src *astiav.Frame) (*astiav.Frame, error) {
	if err := s.ensure(src); err != nil {
		return nil, err
	}
	// The encoder may still reference the previous picture.
	if err := s.dst.MakeWritable(); err != nil {
		return nil, Wrap(ErrEncode, err)
	}
	if err := s.ssc.ScaleFrame(src, s.dst); err != nil {
		return nil, Wrap(ErrEncode, err)
	}
	return s.dst, nil
}

func (s *Scaler) release() {
	if s.ssc != nil {
		s.ssc.Free()
		s.ssc = nil
	}
}

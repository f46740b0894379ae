package probe

import (
	"errors"
	"io"

	"github.com/asticode/go-astiav"
	"github.com/asticode/go-astikit"

	"github.com/backmassage/muxconv/internal/ffmpeg"
	"github.com/backmassage/muxconv/internal/media"
)

// Input is an opened and probed input container. It belongs to the
// goroutine that opened it.
type Input struct {
	fc      *astiav.FormatContext
	catalog media.Catalog
}

// Open opens path and probes its streams. The native handles are
// registered on c as they are acquired, so the caller releases them with
// the rest of the run. Errors wrap ffmpeg.ErrOpenInput or ffmpeg.ErrStreamInfo.
func Open(c *astikit.Closer, path string) (*Input, error) {
	fc := astiav.AllocFormatContext()
	if fc == nil {
		return nil, ffmpeg.Wrap(ffmpeg.ErrOpenInput, errors.New("format context is nil"))
	}
	c.Add(fc.Free)

	if err := fc.OpenInput(path, nil, nil); err != nil {
		return nil, ffmpeg.Wrap(ffmpeg.ErrOpenInput, err)
	}
	c.Add(fc.CloseInput)

	if err := fc.FindStreamInfo(nil); err != nil {
		return nil, ffmpeg.Wrap(ffmpeg.ErrStreamInfo, err)
	}

	in := &Input{fc: fc}
	in.catalog = buildCatalog(fc, path)
	return in, nil
}

// Probe opens path, returns its catalog, and closes it again.
func Probe(path string) (media.Catalog, error) {
	c := astikit.NewCloser()
	defer c.Close()

	in, err := Open(c, path)
	if err != nil {
		return media.Catalog{}, err
	}
	return in.Catalog(), nil
}

func buildCatalog(fc *astiav.FormatContext, path string) media.Catalog {
	cat := media.Catalog{
		Path:     path,
		Duration: media.DurationUnknown,
	}
	if f := fc.InputFormat(); f != nil {
		cat.Format = f.Name()
	}
	if d := fc.Duration(); d > 0 && d != astiav.NoPtsValue {
		cat.Duration = d
	}
	for _, s := range fc.Streams() {
		cp := s.CodecParameters()
		desc := media.StreamDescriptor{
			Index:    s.Index(),
			Kind:     kindOf(cp.MediaType()),
			Codec:    cp.CodecID().String(),
			TimeBase: ffmpeg.ToMedia(s.TimeBase()),
		}
		if desc.Kind == media.KindVideo {
			desc.Width, desc.Height = cp.Width(), cp.Height()
		}
		cat.Streams = append(cat.Streams, desc)
	}
	return cat
}

func kindOf(t astiav.MediaType) media.Kind {
	switch t {
	case astiav.MediaTypeVideo:
		return media.KindVideo
	case astiav.MediaTypeAudio:
		return media.KindAudio
	default:
		return media.KindOther
	}
}

// Catalog returns the stream table read at open time.
func (in *Input) Catalog() media.Catalog { return in.catalog }

// Stream returns native input stream i.
func (in *Input) Stream(i int) *astiav.Stream { return in.fc.Streams()[i] }

// ReadPacket reads the next packet into pkt. It returns io.EOF at the end
// of input; any other error is the demuxer's.
func (in *Input) ReadPacket(pkt *astiav.Packet) error {
	if err := in.fc.ReadFrame(pkt); err != nil {
		if errors.Is(err, astiav.ErrEof) {
			return io.EOF
		}
		return err
	}
	return nil
}

// GuessFrameRate returns libav's best guess of stream i's frame rate, or a
// zero rational when there is none.
func (in *Input) GuessFrameRate(i int) astiav.Rational {
	return in.fc.GuessFrameRate(in.Stream(i), nil)
}

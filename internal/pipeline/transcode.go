package pipeline

import (
	"errors"

	"github.com/asticode/go-astiav"

	"github.com/backmassage/muxconv/internal/ffmpeg"
)

// transcoder carries the re-encode state of the video stream.
type transcoder struct {
	cv     *conversion
	dec    *ffmpeg.Decoder
	enc    *ffmpeg.Encoder
	scaler *ffmpeg.Scaler

	frame  *astiav.Frame
	encPkt *astiav.Packet

	videoIn  int
	videoOut int
	inTb     astiav.Rational

	lastDecodedPts int64 // Input time base, for progress.
	lastEncodedPts int64 // Encoder time base.
}

// transcode is the re-encode path: the first video stream is decoded,
// scaled to YUV420P and encoded; the remaining mapped streams are copied.
func (cv *conversion) transcode() error {
	cv.say("Starting encoding conversion...")

	vi := cv.plan.VideoIndex
	vs := cv.in.Stream(vi)
	framerate := ffmpeg.ChooseFrameRate(
		cv.in.GuessFrameRate(vi),
		vs.RFrameRate(),
		astiav.NewRational(cv.settings.FallbackFrameRate, 1),
	)

	dec, err := ffmpeg.OpenDecoder(cv.closer, vs, framerate)
	if err != nil {
		if errors.Is(err, ffmpeg.ErrDecoderNotFound) {
			return cv.fail("Decoder not found", err)
		}
		return cv.fail("Failed to open decoder", err)
	}

	if err := cv.createMuxer(); err != nil {
		return err
	}

	enc, err := ffmpeg.OpenEncoder(cv.closer, dec, framerate, ffmpeg.EncoderOptions{
		Name:         cv.settings.VideoEncoder,
		BitRate:      cv.settings.VideoBitRate,
		GlobalHeader: cv.out.NeedsGlobalHeader(),
	})
	if err != nil {
		if errors.Is(err, ffmpeg.ErrEncoderNotFound) {
			return cv.fail("H.264 encoder not found", err)
		}
		return cv.fail("Failed to open encoder", err)
	}
	cv.log.Debug("Video %s -> %s %dx%d @ %d/%d", dec.Name(), enc.Name(), enc.Width(), enc.Height(), framerate.Num(), framerate.Den())

	if err := cv.addStreams(enc); err != nil {
		return err
	}
	if err := cv.openOutput(); err != nil {
		return err
	}

	scaler, err := ffmpeg.NewScaler(cv.closer, enc.Width(), enc.Height(), ffmpeg.TargetPixelFormat)
	if err != nil {
		return cv.fail("Could not initialize the conversion context", err)
	}
	frame := astiav.AllocFrame()
	cv.closer.Add(frame.Free)
	encPkt := astiav.AllocPacket()
	cv.closer.Add(encPkt.Free)

	videoOut, _ := cv.plan.Mapping.Output(vi)
	t := &transcoder{
		cv:             cv,
		dec:            dec,
		enc:            enc,
		scaler:         scaler,
		frame:          frame,
		encPkt:         encPkt,
		videoIn:        vi,
		videoOut:       videoOut,
		inTb:           vs.TimeBase(),
		lastDecodedPts: astiav.NoPtsValue,
		lastEncodedPts: astiav.NoPtsValue,
	}

	if err := cv.loop(t.handle); err != nil {
		return err
	}
	if err := t.flush(); err != nil {
		return err
	}
	return cv.finish()
}

func (t *transcoder) handle(pkt *astiav.Packet) error {
	if pkt.StreamIndex() != t.videoIn {
		return t.cv.copyPacket(pkt, false)
	}
	if err := t.dec.Send(pkt); err != nil {
		return t.cv.fail("Error sending packet to decoder", err)
	}
	if err := t.drainDecoder(); err != nil {
		return err
	}
	// Progress uses the decoded pts in the input video stream's time base.
	t.cv.report(t.lastDecodedPts, t.inTb)
	return nil
}

func (t *transcoder) drainDecoder() error {
	for {
		ok, err := t.dec.Receive(t.frame)
		if err != nil {
			return t.cv.fail("Error during decoding", err)
		}
		if !ok {
			return nil
		}
		t.cv.stats.FramesDecoded++
		err = t.encodeFrame(t.frame)
		t.frame.Unref()
		if err != nil {
			return err
		}
	}
}

// encodeFrame scales f and submits it with its presentation time expressed
// in the encoder time base. Encoders reject non-increasing pts, so a pts
// that does not advance is bumped past the previous one.
func (t *transcoder) encodeFrame(f *astiav.Frame) error {
	src := f.Pts()
	if src != astiav.NoPtsValue {
		t.lastDecodedPts = src
	}

	dst, err := t.scaler.Convert(f)
	if err != nil {
		return t.cv.fail("Error during encoding", err)
	}

	pts := int64(0)
	if src != astiav.NoPtsValue {
		pts = ffmpeg.RescaleTs(src, t.inTb, t.enc.TimeBase())
	}
	if t.lastEncodedPts != astiav.NoPtsValue && (src == astiav.NoPtsValue || pts <= t.lastEncodedPts) {
		pts = t.lastEncodedPts + 1
	}
	t.lastEncodedPts = pts
	dst.SetPts(pts)

	if err := t.enc.Send(dst); err != nil {
		return t.cv.fail("Error sending frame to encoder", err)
	}
	return t.drainEncoder()
}

func (t *transcoder) drainEncoder() error {
	outTb := t.cv.out.Stream(t.videoOut).TimeBase()
	for {
		ok, err := t.enc.Receive(t.encPkt)
		if err != nil {
			return t.cv.fail("Error during encoding", err)
		}
		if !ok {
			return nil
		}
		ffmpeg.RescalePacket(t.encPkt, t.enc.TimeBase(), outTb)
		t.encPkt.SetStreamIndex(t.videoOut)
		err = t.cv.out.WritePacket(t.encPkt)
		t.encPkt.Unref()
		if err != nil {
			return t.cv.fail("Error muxing encoded packet", err)
		}
		t.cv.stats.PacketsEncoded++
	}
}

// flush drains the decoder through the encoder, then the encoder itself.
func (t *transcoder) flush() error {
	if err := t.dec.Send(nil); err != nil {
		return t.cv.fail("Error sending packet to decoder", err)
	}
	if err := t.drainDecoder(); err != nil {
		return err
	}
	if err := t.enc.Send(nil); err != nil {
		return t.cv.fail("Error sending frame to encoder", err)
	}
	return t.drainEncoder()
}

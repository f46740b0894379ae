package pipeline

import (
	"errors"
	"fmt"
	"io"

	"github.com/asticode/go-astiav"
	"github.com/asticode/go-astikit"

	"github.com/backmassage/muxconv/internal/ffmpeg"
	"github.com/backmassage/muxconv/internal/logging"
	"github.com/backmassage/muxconv/internal/media"
	"github.com/backmassage/muxconv/internal/planner"
	"github.com/backmassage/muxconv/internal/probe"
	"github.com/backmassage/muxconv/internal/progress"
)

// conversion is the per-run working set. Every native handle it acquires
// is registered on closer right away and released in reverse order when
// the run finalizes.
type conversion struct {
	c        *Controller
	run      *Run
	settings Settings
	log      *logging.Logger
	closer   *astikit.Closer

	in   *probe.Input
	plan *planner.Plan
	out  *ffmpeg.Muxer
	pkt  *astiav.Packet

	duration  int64
	tracker   progress.Tracker
	stats     Stats
	cancelled bool
}

func newConversion(c *Controller, r *Run, log *logging.Logger) *conversion {
	return &conversion{
		c:        c,
		run:      r,
		settings: c.settings,
		log:      log,
		closer:   astikit.NewCloser(),
	}
}

// say posts a log line to the message stream.
func (cv *conversion) say(format string, args ...interface{}) {
	line := fmt.Sprintf(format, args...)
	cv.log.Debug("%s", line)
	cv.run.msgs.post(Message(line))
}

// fail posts line and returns err, so each failure is reported once.
func (cv *conversion) fail(line string, err error) error {
	cv.run.msgs.post(Message(line))
	cv.log.Debug("%s: %v", line, err)
	return err
}

// open is the OpeningInput step: open and probe the input, then plan.
func (cv *conversion) open() error {
	in, err := probe.Open(cv.closer, cv.run.input)
	if err != nil {
		if errors.Is(err, ffmpeg.ErrStreamInfo) {
			return cv.fail("Failed to find stream info", err)
		}
		return cv.fail("Failed to open input: "+cv.run.input, err)
	}
	cv.in = in
	cat := in.Catalog()
	cv.duration = cat.Duration
	cv.log.Debug("Input %s: %d streams (%d video, %d audio)", cat.Format, len(cat.Streams),
		cat.Count(media.KindVideo), cat.Count(media.KindAudio))
	if !cat.DurationKnown() {
		cv.log.Debug("Input duration unknown, progress disabled")
	}

	plan, err := planner.BuildPlan(cat.Streams, cv.run.reencode)
	if err != nil {
		return cv.fail("No video stream found for re-encoding", err)
	}
	cv.plan = plan

	cv.pkt = astiav.AllocPacket()
	if cv.pkt == nil {
		return cv.fail("Failed to open input: "+cv.run.input, ffmpeg.Wrap(ffmpeg.ErrOpenInput, errors.New("packet is nil")))
	}
	cv.closer.Add(cv.pkt.Free)
	return nil
}

// createMuxer allocates the output container.
func (cv *conversion) createMuxer() error {
	m, err := ffmpeg.NewMuxer(cv.run.format, cv.run.output)
	if err != nil {
		return cv.fail("Could not create output context (unsupported format?)", err)
	}
	cv.closer.AddWithError(m.Close)
	cv.out = m
	return nil
}

// addStreams creates one output stream per mapped input stream in mapping
// order. The regenerated video stream, if any, takes enc's parameters.
func (cv *conversion) addStreams(enc *ffmpeg.Encoder) error {
	for in, o := range cv.plan.Mapping {
		if o == planner.Unmapped {
			continue
		}
		var err error
		if cv.plan.Regenerated(in) {
			_, err = cv.out.AddEncodedStream(enc)
		} else {
			_, err = cv.out.AddCopyStream(cv.in.Stream(in))
		}
		if err != nil {
			if errors.Is(err, ffmpeg.ErrStreamAllocation) {
				return cv.fail("Failed allocating output stream", err)
			}
			return cv.fail("Failed to copy codec parameters", err)
		}
	}
	return nil
}

// openOutput opens the output file and writes the header.
func (cv *conversion) openOutput() error {
	if err := cv.out.Open(); err != nil {
		if errors.Is(err, ffmpeg.ErrOutputOpen) {
			return cv.fail("Could not open output file: "+cv.run.output, err)
		}
		return cv.fail("Error occurred when writing header", err)
	}
	cv.log.Debug("Output %s (%s), %d streams", cv.out.Path(), cv.out.Name(), cv.out.NbStreams())
	return nil
}

// finish writes the trailer on the normal and cancelled paths.
func (cv *conversion) finish() error {
	if err := cv.out.Finish(); err != nil {
		return cv.fail("Error writing trailer", err)
	}
	for i := 0; i < cv.out.NbStreams(); i++ {
		cv.log.Debug("Output stream %d: %d packets", i, cv.out.Packets(i))
	}
	return nil
}

// loop reads packets until end of input or cancellation and hands each to
// handle. Cancellation is checked before every read and ends input the
// same way EOF does.
func (cv *conversion) loop(handle func(*astiav.Packet) error) error {
	for {
		if cv.run.ctx.Err() != nil {
			cv.cancelled = true
			cv.say("Conversion cancelled")
			return nil
		}
		if err := cv.in.ReadPacket(cv.pkt); err != nil {
			if !errors.Is(err, io.EOF) {
				cv.log.Warn("Read error, treating as end of input: %v", err)
			}
			return nil
		}
		cv.stats.PacketsRead++

		err := handle(cv.pkt)
		cv.pkt.Unref()
		if err != nil {
			return err
		}
		if cv.c.afterPacket != nil {
			cv.c.afterPacket(cv.run, cv.stats.PacketsRead)
		}
	}
}

// copyPacket remaps, rescales and writes a stream-copied packet. Packets of
// unmapped streams are discarded. With report set, progress is derived from
// the written packet's output pts.
func (cv *conversion) copyPacket(pkt *astiav.Packet, report bool) error {
	inIdx := pkt.StreamIndex()
	outIdx, ok := cv.plan.Mapping.Output(inIdx)
	if !ok {
		cv.stats.PacketsDiscarded++
		return nil
	}
	outTb := cv.out.Stream(outIdx).TimeBase()

	pkt.SetStreamIndex(outIdx)
	ffmpeg.RescalePacket(pkt, cv.in.Stream(inIdx).TimeBase(), outTb)
	pkt.SetPos(-1)
	pts := pkt.Pts()

	if err := cv.out.WritePacket(pkt); err != nil {
		return cv.fail("Error muxing packet", err)
	}
	cv.stats.PacketsCopied++
	if report {
		cv.report(pts, outTb)
	}
	return nil
}

// report posts a progress message when the percentage changed.
func (cv *conversion) report(pts int64, tb astiav.Rational) {
	pct, ok := progress.Percent(pts, ffmpeg.ToMedia(tb), cv.duration)
	if !ok || !cv.tracker.Update(pct) {
		return
	}
	cv.run.progress.Store(int32(pct))
	cv.run.msgs.post(Message(progress.Message(pct)))
}

func (cv *conversion) finishedLine() string {
	if cv.plan != nil && cv.plan.Action == planner.ActionTranscode {
		return "Conversion finished. Output: " + cv.run.output
	}
	return "Remux finished. Output: " + cv.run.output
}

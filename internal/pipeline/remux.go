package pipeline

import "github.com/asticode/go-astiav"

// remux is the stream-copy path: every mapped stream is copied packet by
// packet with timestamps rescaled to the output time base.
func (cv *conversion) remux() error {
	cv.say("Starting remux (stream-copy) conversion...")

	if err := cv.createMuxer(); err != nil {
		return err
	}
	if err := cv.addStreams(nil); err != nil {
		return err
	}
	if err := cv.openOutput(); err != nil {
		return err
	}

	if err := cv.loop(func(pkt *astiav.Packet) error {
		return cv.copyPacket(pkt, true)
	}); err != nil {
		return err
	}
	return cv.finish()
}

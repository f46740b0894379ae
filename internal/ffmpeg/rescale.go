package ffmpeg

import (
	"github.com/asticode/go-astiav"

	"github.com/backmassage/muxconv/internal/media"
)

// rounding rounds half away from zero and passes INT64_MIN/MAX (which
// includes the NoPts sentinel) through unchanged instead of overflowing.
const rounding = astiav.RoundingNearInf | astiav.RoundingPassMinmax

// RescaleTs converts ts from time base src to dst.
func RescaleTs(ts int64, src, dst astiav.Rational) int64 {
	return astiav.RescaleQRnd(ts, src, dst, rounding)
}

// RescalePacket converts pts, dts and duration of pkt from src to dst.
func RescalePacket(pkt *astiav.Packet, src, dst astiav.Rational) {
	pkt.SetPts(RescaleTs(pkt.Pts(), src, dst))
	pkt.SetDts(RescaleTs(pkt.Dts(), src, dst))
	pkt.SetDuration(astiav.RescaleQ(pkt.Duration(), src, dst))
}

// ToMedia converts a libav rational into the cgo-free media type.
func ToMedia(r astiav.Rational) media.Rational {
	return media.Rational{Num: r.Num(), Den: r.Den()}
}

// FromMedia converts a media rational into a libav rational.
func FromMedia(r media.Rational) astiav.Rational {
	return astiav.NewRational(r.Num, r.Den)
}

// Package check provides libav diagnostics (--check mode) and the pre-run
// capability validation (CheckDeps) for the configured container and video
// encoder.
package check

import (
	"errors"
	"fmt"

	"github.com/asticode/go-astiav"

	"github.com/backmassage/muxconv/internal/config"
	"github.com/backmassage/muxconv/internal/ffmpeg"
)

// Sentinel errors returned by CheckDeps when a required muxer or encoder is
// missing from the linked libav build.
var (
	ErrMuxerNotFound        = errors.New("output muxer not available in libav")
	ErrEncoderNotFound      = errors.New("no H.264 encoder available in libav")
	ErrEncoderNotConfigured = errors.New("configured video encoder not available")
)

// Logger is the minimal logging interface needed by RunCheck.
// Defined here (rather than importing the logging package) so that check
// remains dependency-light and testable with a mock logger.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
	Debug(string, ...interface{})
}

// RunCheck runs the interactive --check flow: prints muxer availability
// for the known containers, the video encoder that --reencode would use,
// and the common decoders. This is informational only; it does not stop
// on failure.
func RunCheck(cfg *config.Config, log Logger) {
	log.Info("=== System Check ===")

	checkMuxers(cfg, log)
	checkEncoder(cfg, log)
	checkDecoders(log)
}

// checkMuxers reports the libav muxer behind each known container token
// plus the configured one.
func checkMuxers(cfg *config.Config, log Logger) {
	log.Info("Output containers:")
	tokens := append([]config.Container(nil), config.KnownContainers...)
	if !containsToken(tokens, cfg.Format) {
		tokens = append(tokens, cfg.Format)
	}
	for _, c := range tokens {
		name := ffmpeg.MuxerName(string(c))
		f := astiav.FindOutputFormat(name)
		if f == nil {
			log.Error("  %s: muxer %s not found", c, name)
			continue
		}
		log.Info("  %s: %s", c, f.Name())
	}
}

// checkEncoder reports which encoder --reencode resolves to.
func checkEncoder(cfg *config.Config, log Logger) {
	codec := ffmpeg.FindVideoEncoder(cfg.VideoEncoder)
	switch {
	case codec == nil:
		log.Error("No H.264 encoder found (wanted %s)", cfg.VideoEncoder)
	case codec.Name() != cfg.VideoEncoder:
		log.Warn("Encoder %s not found, falling back to %s", cfg.VideoEncoder, codec.Name())
	default:
		log.Success("Encoder: %s", codec.Name())
	}
}

// checkDecoders logs whether the common input video codecs can be decoded.
func checkDecoders(log Logger) {
	log.Info("Video decoders:")
	for _, id := range []astiav.CodecID{astiav.CodecIDH264, astiav.CodecIDHevc, astiav.CodecIDMpeg4} {
		if d := astiav.FindDecoder(id); d != nil {
			log.Info("  %s: %s", id, d.Name())
		} else {
			log.Warn("  %s: not available", id)
		}
	}
}

// CheckDeps is the pre-run validation: the muxer for cfg.Format must exist
// and, when re-encoding, some H.264 encoder must be available. A configured
// encoder that is missing is only an error when no fallback exists.
// Returns a sentinel error on failure.
func CheckDeps(cfg *config.Config) error {
	name := ffmpeg.MuxerName(string(cfg.Format))
	if astiav.FindOutputFormat(name) == nil {
		return fmt.Errorf("%w: %s", ErrMuxerNotFound, name)
	}
	if !cfg.Reencode {
		return nil
	}
	if ffmpeg.FindVideoEncoder(cfg.VideoEncoder) == nil {
		if cfg.VideoEncoder != "" {
			return fmt.Errorf("%w: %s", ErrEncoderNotConfigured, cfg.VideoEncoder)
		}
		return ErrEncoderNotFound
	}
	return nil
}

func containsToken(list []config.Container, c config.Container) bool {
	for _, v := range list {
		if v == c {
			return true
		}
	}
	return false
}

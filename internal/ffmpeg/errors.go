package ffmpeg

import (
	"errors"
	"fmt"
)

// Taxonomy of run failures. Each aborts only the current run. Native causes
// are wrapped with [Wrap] so callers match with errors.Is.
var (
	ErrOpenInput          = errors.New("open input failed")
	ErrStreamInfo         = errors.New("stream info probe failed")
	ErrOutputContext      = errors.New("output context creation failed")
	ErrStreamAllocation   = errors.New("output stream allocation failed")
	ErrCodecParameterCopy = errors.New("codec parameter copy failed")
	ErrOutputOpen         = errors.New("output open failed")
	ErrHeaderWrite        = errors.New("header write failed")
	ErrDecoderNotFound    = errors.New("decoder not found")
	ErrDecoderOpen        = errors.New("decoder open failed")
	ErrEncoderNotFound    = errors.New("encoder not found")
	ErrEncoderOpen        = errors.New("encoder open failed")
	ErrDecode             = errors.New("decode failed")
	ErrEncode             = errors.New("encode failed")
	ErrMux                = errors.New("mux failed")
)

// kinds maps each sentinel to a short label for metrics and API responses.
var kinds = []struct {
	err   error
	label string
}{
	{ErrOpenInput, "open_input"},
	{ErrStreamInfo, "stream_info"},
	{ErrOutputContext, "output_context"},
	{ErrStreamAllocation, "stream_allocation"},
	{ErrCodecParameterCopy, "codec_parameter_copy"},
	{ErrOutputOpen, "output_open"},
	{ErrHeaderWrite, "header_write"},
	{ErrDecoderNotFound, "decoder_not_found"},
	{ErrDecoderOpen, "decoder_open"},
	{ErrEncoderNotFound, "encoder_not_found"},
	{ErrEncoderOpen, "encoder_open"},
	{ErrDecode, "decode"},
	{ErrEncode, "encode"},
	{ErrMux, "mux"},
}

// Wrap tags cause with a taxonomy sentinel. A nil cause returns kind alone.
func Wrap(kind, cause error) error {
	if cause == nil {
		return kind
	}
	return fmt.Errorf("%w: %w", kind, cause)
}

// Kind returns the taxonomy label of err, "" for nil, or "other" when err
// carries no sentinel from this package.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.label
		}
	}
	return "other"
}

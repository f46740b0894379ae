package ffmpeg

import (
	"testing"

	"github.com/asticode/go-astiav"
	"github.com/stretchr/testify/assert"

	"github.com/backmassage/muxconv/internal/config"
)

func TestLibavLevel(t *testing.T) {
	tests := []struct {
		in   config.LibavLogLevel
		want astiav.LogLevel
	}{
		{config.LibavQuiet, astiav.LogLevelQuiet},
		{config.LibavError, astiav.LogLevelError},
		{config.LibavWarning, astiav.LogLevelWarning},
		{config.LibavInfo, astiav.LogLevelInfo},
		{config.LibavDebug, astiav.LogLevelDebug},
		{"", astiav.LogLevelError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LibavLevel(tt.in), string(tt.in))
	}
}

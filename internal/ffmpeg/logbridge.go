package ffmpeg

import (
	"strings"

	"github.com/asticode/go-astiav"

	"github.com/backmassage/muxconv/internal/config"
	"github.com/backmassage/muxconv/internal/logging"
)

// LibavLevel maps the configured threshold to a libav log level.
func LibavLevel(l config.LibavLogLevel) astiav.LogLevel {
	switch l {
	case config.LibavQuiet:
		return astiav.LogLevelQuiet
	case config.LibavWarning:
		return astiav.LogLevelWarning
	case config.LibavInfo:
		return astiav.LogLevelInfo
	case config.LibavDebug:
		return astiav.LogLevelDebug
	default:
		return astiav.LogLevelError
	}
}

// RouteLogs installs a libav log callback that forwards messages at or
// above level into log, tagged component=libav. libav may call it from its
// own threads.
func RouteLogs(log *logging.Logger, level config.LibavLogLevel) {
	astiav.SetLogLevel(LibavLevel(level))
	lg := log.With("component", "libav")
	astiav.SetLogCallback(func(c astiav.Classer, l astiav.LogLevel, _, msg string) {
		msg = strings.TrimSpace(msg)
		if msg == "" {
			return
		}
		if c != nil {
			if cl := c.Class(); cl != nil {
				msg = cl.String() + ": " + msg
			}
		}
		switch {
		case l <= astiav.LogLevelError:
			lg.Error("%s", msg)
		case l <= astiav.LogLevelWarning:
			lg.Warn("%s", msg)
		case l <= astiav.LogLevelInfo:
			lg.Info("%s", msg)
		default:
			lg.Debug("%s", msg)
		}
	})
}

// ResetLogs restores libav's default stderr logging.
func ResetLogs() {
	astiav.ResetLogCallback()
}

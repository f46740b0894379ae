// Package term holds the ANSI color palette shared by logging and display,
// and the terminal detection used to pick color and progress output.
package term

import (
	"os"
	"strings"

	"github.com/backmassage/muxconv/internal/config"
)

// Palette entries. Each is empty while colors are off, so concatenating
// them is always safe.
var (
	Red     string
	Green   string
	Yellow  string
	Blue    string
	Cyan    string
	Magenta string
	NC      string // Reset.
)

var palette = []struct {
	dst  *string
	code string
}{
	{&Red, "\033[1;91m"},
	{&Green, "\033[1;92m"},
	{&Yellow, "\033[1;93m"},
	{&Blue, "\033[1;94m"},
	{&Cyan, "\033[1;96m"},
	{&Magenta, "\033[1;95m"},
	{&NC, "\033[0m"},
}

// Configure turns the palette on or off for mode. [logging.NewLogger]
// calls it once at startup.
func Configure(mode config.ColorMode) {
	on := colorsWanted(mode)
	for _, p := range palette {
		*p.dst = ""
		if on {
			*p.dst = p.code
		}
	}
}

// Enabled reports whether the palette is on.
func Enabled() bool { return NC != "" }

// LevelColor returns the color of a log level label.
func LevelColor(level string) string {
	switch strings.ToUpper(level) {
	case "ERROR", "FATAL", "PANIC":
		return Red
	case "WARN":
		return Yellow
	case "SUCCESS":
		return Green
	case "DEBUG", "TRACE":
		return Cyan
	default:
		return Blue
	}
}

// Paint wraps s in color. It is a no-op while the palette is off.
func Paint(color, s string) string {
	if color == "" {
		return s
	}
	return color + s + NC
}

// colorsWanted applies mode; auto means stdout is a terminal, NO_COLOR
// (https://no-color.org) is unset and TERM is not "dumb".
func colorsWanted(mode config.ColorMode) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}
	if os.Getenv("NO_COLOR") != "" || strings.EqualFold(os.Getenv("TERM"), "dumb") {
		return false
	}
	return IsTerminal(os.Stdout)
}

// IsTerminal reports whether f is a character device.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	fi, err := f.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}

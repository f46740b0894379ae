// Package config holds runtime configuration: defaults, the optional YAML
// config file, CLI flag parsing, and validation. Defaults are the stock
// H.264 re-encode settings.
package config

import (
	"errors"
	"fmt"
	"strings"
)

// --- Enum types for validated string fields ---

// Container is the output container token. It is also the output file
// extension. Tokens outside the known set are passed through to the muxer.
type Container string

const (
	ContainerMP4 Container = "mp4" // MPEG-4 Part 14 (default).
	ContainerMKV Container = "mkv" // Matroska.
	ContainerAVI Container = "avi" // AVI.
	ContainerMOV Container = "mov" // QuickTime.
)

// KnownContainers lists the tokens offered in help and checked by --check.
var KnownContainers = []Container{ContainerMP4, ContainerMKV, ContainerAVI, ContainerMOV}

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Enable colors when stdout is a TTY (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

// LibavLogLevel is the threshold for messages forwarded from libav.
type LibavLogLevel string

const (
	LibavQuiet   LibavLogLevel = "quiet"
	LibavError   LibavLogLevel = "error" // Default.
	LibavWarning LibavLogLevel = "warning"
	LibavInfo    LibavLogLevel = "info"
	LibavDebug   LibavLogLevel = "debug"
)

// Config holds all runtime settings. It is populated by [DefaultConfig],
// optionally overlaid by a YAML file, and then by [ParseFlags] before being
// passed (by pointer) to packages that need it.
type Config struct {
	// Run request (set from the positional arg and flags).
	InputPath string    `yaml:"-"`
	Format    Container `yaml:"format"`   // Default: "mp4".
	Reencode  bool      `yaml:"reencode"` // Default: false (stream copy).

	// Encoder settings for the re-encode path.
	VideoEncoder      string `yaml:"video_encoder"`       // Default: "libx264". Falls back to the default H.264 encoder.
	VideoBitRate      int64  `yaml:"video_bitrate"`       // Default: 800000 bps.
	FallbackFrameRate int    `yaml:"fallback_frame_rate"` // Default: 25 fps.

	// Worker to consumer message queue capacity.
	MessageQueueSize int `yaml:"message_queue_size"` // Default: 256.

	// HTTP control service. Empty disables it and runs one conversion.
	ServeAddr string `yaml:"serve_addr"`

	// Display and logging.
	Verbose       bool          `yaml:"verbose"`
	ColorMode     ColorMode     `yaml:"color"`     // Default: "auto".
	LogFile       string        `yaml:"log_file"`  // Optional log file path.
	LibavLogLevel LibavLogLevel `yaml:"libav_log"` // Default: "error".
	CheckOnly     bool          `yaml:"-"`         // Run --check diagnostics and exit.

	// ConfigFile is the YAML file the settings above were read from, if any.
	ConfigFile string `yaml:"-"`
}

// DefaultConfig returns a Config with the stock encoder settings. Used as
// the base before a config file and [ParseFlags] apply overrides.
func DefaultConfig() Config {
	return Config{
		Format:            ContainerMP4,
		Reencode:          false,
		VideoEncoder:      "libx264",
		VideoBitRate:      800000,
		FallbackFrameRate: 25,
		MessageQueueSize:  256,
		ColorMode:         ColorAuto,
		LibavLogLevel:     LibavError,
	}
}

// Serving reports whether the HTTP control service was requested.
func (c *Config) Serving() bool { return c.ServeAddr != "" }

// Validate checks enum and numeric fields. When neither CheckOnly nor the
// HTTP service is requested it also requires an input path.
func (c *Config) Validate() error {
	if err := validateToken(string(c.Format)); err != nil {
		return err
	}

	switch c.ColorMode {
	case ColorAuto, ColorAlways, ColorNever:
		// valid
	default:
		return errors.New("invalid color mode (use 'auto', 'always' or 'never')")
	}

	switch c.LibavLogLevel {
	case LibavQuiet, LibavError, LibavWarning, LibavInfo, LibavDebug:
		// valid
	default:
		return fmt.Errorf("invalid libav log level %q (use quiet, error, warning, info or debug)", c.LibavLogLevel)
	}

	if c.VideoBitRate <= 0 {
		return fmt.Errorf("video bitrate must be positive (got %d)", c.VideoBitRate)
	}
	if c.FallbackFrameRate <= 0 {
		return fmt.Errorf("fallback frame rate must be positive (got %d)", c.FallbackFrameRate)
	}
	if c.MessageQueueSize <= 0 {
		return fmt.Errorf("message queue size must be positive (got %d)", c.MessageQueueSize)
	}

	if c.CheckOnly || c.Serving() {
		return nil
	}
	if strings.TrimSpace(c.InputPath) == "" {
		return errors.New("need exactly one input file")
	}
	return nil
}

// validateToken accepts any short lowercase alphanumeric token. Whether the
// muxer recognizes it is decided when the output is created.
func validateToken(s string) error {
	if s == "" {
		return errors.New("output format must not be empty")
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return fmt.Errorf("invalid output format %q (use mp4, mkv, avi or mov)", s)
		}
	}
	return nil
}

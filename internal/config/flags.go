package config

// This file implements CLI flag parsing and help text.
// Flags are grouped into conversion, encoding, service, display, and utility.
// Negated flags (e.g. --no-color) are applied after Parse so Config defaults hold unless set.

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
)

// ParseFlags parses args (without the program name) into cfg. On --help or
// --version it prints and exits. On error it returns non-nil (e.g. unknown
// flag, missing positional arg, unreadable config file).
//
// When --config is given, or a config file is found in a standard location,
// the file is applied over DefaultConfig() first and the flags are parsed
// again on top of it.
func ParseFlags(cfg *Config, args []string, version string) error {
	parsed := *cfg
	fs, n := newFlagSet(&parsed, io.Discard)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if n.showHelp {
		printUsage(os.Stderr, version)
		os.Exit(0)
	}
	if n.showVersion {
		fmt.Fprintln(os.Stdout, "muxconv v"+version)
		os.Exit(0)
	}

	path := parsed.ConfigFile
	if path == "" {
		path = FindConfigFile()
	}
	if path != "" {
		layered := DefaultConfig()
		if err := LoadFile(path, &layered); err != nil {
			return err
		}
		fs, n = newFlagSet(&layered, io.Discard)
		if err := fs.Parse(args); err != nil {
			return err
		}
		layered.ConfigFile = path
		parsed = layered
	}

	applyNegatedFlags(&parsed, n)
	if err := parsePositionalArgs(fs, &parsed); err != nil {
		return err
	}
	*cfg = parsed
	return nil
}

// negatedFlags holds boolean flags that are applied after Parse.
// These either override a default (noColor -> ColorMode=never) or trigger exit (showHelp, showVersion).
type negatedFlags struct {
	forceColor  bool
	noColor     bool
	showVersion bool
	showHelp    bool
}

func newFlagSet(cfg *Config, out io.Writer) (*flag.FlagSet, *negatedFlags) {
	fs := flag.NewFlagSet("muxconv", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.Usage = func() {}

	n := &negatedFlags{}
	defineConversionFlags(fs, cfg)
	defineEncodingFlags(fs, cfg)
	defineServiceFlags(fs, cfg)
	defineDisplayFlags(fs, cfg, n)
	defineUtilityFlags(fs, cfg, n)
	return fs, n
}

// defineConversionFlags registers -f/--format and -r/--reencode.
func defineConversionFlags(fs *flag.FlagSet, cfg *Config) {
	fs.Var(&containerValue{&cfg.Format}, "format", "Output container: mp4 | mkv | avi | mov")
	fs.Var(&containerValue{&cfg.Format}, "f", "Same as --format")
	fs.BoolVar(&cfg.Reencode, "reencode", cfg.Reencode, "Re-encode video to H.264 (default: stream copy)")
	fs.BoolVar(&cfg.Reencode, "r", cfg.Reencode, "Same as --reencode")
}

// defineEncodingFlags registers --encoder, --bitrate, --fallback-fps.
func defineEncodingFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.VideoEncoder, "encoder", cfg.VideoEncoder, "Video encoder name for --reencode")
	fs.Int64Var(&cfg.VideoBitRate, "bitrate", cfg.VideoBitRate, "Target video bitrate in bits/s")
	fs.IntVar(&cfg.FallbackFrameRate, "fallback-fps", cfg.FallbackFrameRate, "Frame rate used when the input has none")
}

// defineServiceFlags registers --serve, --queue.
func defineServiceFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.ServeAddr, "serve", cfg.ServeAddr, "Run the HTTP control service on addr")
	fs.IntVar(&cfg.MessageQueueSize, "queue", cfg.MessageQueueSize, "Message queue capacity per run")
}

// defineDisplayFlags registers --color, --no-color, verbose, --check, --log, --libav-log.
func defineDisplayFlags(fs *flag.FlagSet, cfg *Config, n *negatedFlags) {
	fs.BoolVar(&n.forceColor, "color", false, "Force colored logs")
	fs.BoolVar(&n.noColor, "no-color", false, "Disable colored logs")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "Verbose output")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "Same as --verbose")
	fs.BoolVar(&cfg.CheckOnly, "check", false, "Run libav diagnostics and exit")
	fs.BoolVar(&cfg.CheckOnly, "c", false, "Same as --check")
	fs.StringVar(&cfg.LogFile, "log", cfg.LogFile, "Append logs to file")
	fs.StringVar(&cfg.LogFile, "l", cfg.LogFile, "Same as --log")
	fs.Var(&libavLogValue{&cfg.LibavLogLevel}, "libav-log", "libav log level: quiet | error | warning | info | debug")
}

// defineUtilityFlags registers --config, --version and --help.
func defineUtilityFlags(fs *flag.FlagSet, cfg *Config, n *negatedFlags) {
	fs.StringVar(&cfg.ConfigFile, "config", cfg.ConfigFile, "YAML config file")
	fs.BoolVar(&n.showVersion, "version", false, "Print version and exit")
	fs.BoolVar(&n.showVersion, "V", false, "Same as --version")
	fs.BoolVar(&n.showHelp, "help", false, "Show this help and exit")
	fs.BoolVar(&n.showHelp, "h", false, "Same as --help")
}

// applyNegatedFlags copies negated and override flag values into cfg.
func applyNegatedFlags(cfg *Config, n *negatedFlags) {
	if n.noColor {
		cfg.ColorMode = ColorNever
	} else if n.forceColor {
		cfg.ColorMode = ColorAlways
	}
}

// parsePositionalArgs sets InputPath from the single positional arg. The
// arg is optional with --check and --serve.
func parsePositionalArgs(fs *flag.FlagSet, cfg *Config) error {
	args := fs.Args()
	switch {
	case len(args) == 1:
		cfg.InputPath = args[0]
		return nil
	case len(args) == 0 && (cfg.CheckOnly || cfg.Serving()):
		return nil
	default:
		return fmt.Errorf("need exactly one input file (got %d args)", len(args))
	}
}

// printUsage writes the help text to w. Column-aligned for readability.
func printUsage(w io.Writer, version string) {
	const col1 = 28 // width of "  -x, --long-name <arg>  "
	lines := []struct {
		flags string
		desc  string
	}{
		{"", "muxconv v" + version + " - single-file remux / H.264 re-encode"},
		{"", ""},
		{"  muxconv [OPTIONS] <input>", ""},
		{"  muxconv --serve <addr> [OPTIONS]", ""},
		{"", ""},
		{"Conversion", ""},
		{"  -f, --format <token>", "Output container: mp4, mkv, avi, mov (default: mp4)"},
		{"  -r, --reencode", "Re-encode video to H.264 (default: stream copy)"},
		{"", ""},
		{"Encoding", ""},
		{"  --encoder <name>", "Video encoder (default: libx264)"},
		{"  --bitrate <bps>", "Target video bitrate (default: 800000)"},
		{"  --fallback-fps <n>", "Frame rate when input has none (default: 25)"},
		{"", ""},
		{"Service", ""},
		{"  --serve <addr>", "Run the HTTP control service (e.g. :8080)"},
		{"  --queue <n>", "Message queue capacity (default: 256)"},
		{"", ""},
		{"Display", ""},
		{"  --color", "Force colored logs"},
		{"  --no-color", "Disable colored logs"},
		{"  -v, --verbose", "Verbose output"},
		{"  --libav-log <level>", "libav log level (default: error)"},
		{"", ""},
		{"Utility", ""},
		{"  --config <path>", "YAML config file (flags override it)"},
		{"  -l, --log <path>", "Append logs to file"},
		{"  -c, --check", "libav diagnostics (muxers, encoders)"},
		{"  -V, --version", "Print version and exit"},
		{"  -h, --help", "Show this help and exit"},
	}

	for _, l := range lines {
		if l.flags == "" && l.desc == "" {
			fmt.Fprintln(w)
			continue
		}
		if l.desc == "" {
			fmt.Fprintln(w, l.flags)
			continue
		}
		if l.flags == "" {
			fmt.Fprintln(w, l.desc)
			continue
		}
		padding := col1 - len(l.flags)
		if padding < 1 {
			padding = 1
		}
		fmt.Fprintf(w, "%s%*s%s\n", l.flags, padding, "", l.desc)
	}
}

// flag.Value adapters so we can use enum types (Container, LibavLogLevel) with flag.Var.

type containerValue struct{ p *Container }

func (c *containerValue) String() string {
	if c.p == nil {
		return ""
	}
	return string(*c.p)
}

func (c *containerValue) Set(s string) error {
	s = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))
	if err := validateToken(s); err != nil {
		return err
	}
	*c.p = Container(s)
	return nil
}

type libavLogValue struct{ p *LibavLogLevel }

func (l *libavLogValue) String() string {
	if l.p == nil {
		return ""
	}
	return string(*l.p)
}

func (l *libavLogValue) Set(s string) error {
	switch v := LibavLogLevel(strings.ToLower(s)); v {
	case LibavQuiet, LibavError, LibavWarning, LibavInfo, LibavDebug:
		*l.p = v
	case "warn":
		*l.p = LibavWarning
	default:
		return fmt.Errorf("invalid libav log level %q (use quiet, error, warning, info or debug)", s)
	}
	return nil
}

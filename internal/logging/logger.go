// Package logging provides the leveled, printf-style logger used across
// muxconv. Output is rendered by zerolog's console writer: INFO, SUCCESS,
// WARN and DEBUG go to stdout, ERROR to stderr, and every line is also
// appended to the optional log file without colors.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/backmassage/muxconv/internal/config"
	"github.com/backmassage/muxconv/internal/term"
)

const timeFormat = "2006-01-02 15:04:05"

// Logger is a thin facade over zerolog that keeps printf-style call sites.
// Loggers derived with [Logger.With] share the parent's sinks.
type Logger struct {
	zl   zerolog.Logger
	file io.Closer // Only set on the root logger.
}

// NewLogger configures colors from cfg and optionally opens cfg.LogFile.
// Call Close() when done if LogFile was set.
func NewLogger(cfg *config.Config) (*Logger, error) {
	term.Configure(cfg.ColorMode)

	var file *os.File
	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
			return nil, err
		}
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		file = f
	}

	var fileOut io.Writer
	if file != nil {
		fileOut = file
	}
	l := New(os.Stdout, os.Stderr, fileOut, cfg.Verbose)
	if file != nil {
		l.file = file
	}
	return l, nil
}

// New builds a Logger over explicit writers. errOut receives ERROR lines;
// fileOut may be nil.
func New(out, errOut, fileOut io.Writer, verbose bool) *Logger {
	color := term.Enabled()
	writers := []io.Writer{
		levelSplit{
			out: consoleWriter(out, color),
			err: consoleWriter(errOut, color),
		},
	}
	if fileOut != nil {
		writers = append(writers, consoleWriter(fileOut, false))
	}

	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	zl := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().
		Timestamp().
		Logger()
	return &Logger{zl: zl}
}

// Discard returns a Logger that drops everything.
func Discard() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

func consoleWriter(w io.Writer, color bool) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:         w,
		NoColor:     !color,
		TimeFormat:  timeFormat,
		FormatLevel: levelFormatter(color),
	}
}

func levelFormatter(color bool) zerolog.Formatter {
	return func(i interface{}) string {
		s, _ := i.(string)
		s = strings.ToUpper(s)
		if s == "" {
			s = "LOG"
		}
		label := "[" + s + "]"
		if !color {
			return label
		}
		return term.Paint(term.LevelColor(s), label)
	}
}

// levelSplit routes ERROR and above to err, everything else to out.
type levelSplit struct {
	out io.Writer
	err io.Writer
}

func (w levelSplit) Write(p []byte) (int, error) { return w.out.Write(p) }

func (w levelSplit) WriteLevel(l zerolog.Level, p []byte) (int, error) {
	if l >= zerolog.ErrorLevel && l < zerolog.NoLevel {
		return w.err.Write(p)
	}
	return w.out.Write(p)
}

// Close closes the log file if one was opened.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// With returns a child logger that adds key=value to every line.
func (l *Logger) With(key, value string) *Logger {
	return &Logger{zl: l.zl.With().Str(key, value).Logger()}
}

// Info logs at INFO level.
func (l *Logger) Info(format string, args ...interface{}) {
	l.zl.Info().Msgf(format, args...)
}

// Success logs at SUCCESS level. It is never filtered.
func (l *Logger) Success(format string, args ...interface{}) {
	l.zl.Log().Str(zerolog.LevelFieldName, "success").Msgf(format, args...)
}

// Warn logs at WARN level.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.zl.Warn().Msgf(format, args...)
}

// Error logs at ERROR level, to stderr.
func (l *Logger) Error(format string, args ...interface{}) {
	l.zl.Error().Msgf(format, args...)
}

// Debug logs at DEBUG level only when the logger was built verbose.
func (l *Logger) Debug(format string, args ...interface{}) {
	l.zl.Debug().Msgf(format, args...)
}

// Err logs err at ERROR level with msg as the line text.
func (l *Logger) Err(err error, msg string) {
	l.zl.Error().Err(err).Msg(msg)
}

package check

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/asticode/go-astiav"

	"github.com/backmassage/muxconv/internal/config"
)

type recLogger struct {
	lines []string
}

func (l *recLogger) add(level, format string, args ...interface{}) {
	l.lines = append(l.lines, level+" "+fmt.Sprintf(format, args...))
}

func (l *recLogger) Info(f string, a ...interface{})    { l.add("INFO", f, a...) }
func (l *recLogger) Success(f string, a ...interface{}) { l.add("SUCCESS", f, a...) }
func (l *recLogger) Warn(f string, a ...interface{})    { l.add("WARN", f, a...) }
func (l *recLogger) Error(f string, a ...interface{})   { l.add("ERROR", f, a...) }
func (l *recLogger) Debug(f string, a ...interface{})   { l.add("DEBUG", f, a...) }

func (l *recLogger) has(substr string) bool {
	for _, line := range l.lines {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}

func TestRunCheck_ListsContainers(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Format = "webm"
	log := &recLogger{}
	RunCheck(&cfg, log)

	if !log.has("=== System Check ===") {
		t.Error("missing header")
	}
	for _, c := range []string{"mp4:", "mkv:", "avi:", "mov:", "webm:"} {
		if !log.has(c) {
			t.Errorf("container %s not reported", c)
		}
	}
	if !log.has("Video decoders:") {
		t.Error("decoders not reported")
	}
}

func TestCheckDeps_UnknownMuxer(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Format = "definitely_not_a_muxer"
	if err := CheckDeps(&cfg); !errors.Is(err, ErrMuxerNotFound) {
		t.Errorf("CheckDeps() = %v, want ErrMuxerNotFound", err)
	}
}

func TestCheckDeps_Remux(t *testing.T) {
	if astiav.FindOutputFormat("matroska") == nil {
		t.Skip("matroska muxer not available")
	}
	cfg := config.DefaultConfig()
	cfg.Format = config.ContainerMKV
	if err := CheckDeps(&cfg); err != nil {
		t.Errorf("CheckDeps() = %v", err)
	}
}

func TestCheckDeps_Reencode(t *testing.T) {
	if astiav.FindOutputFormat("matroska") == nil {
		t.Skip("matroska muxer not available")
	}
	cfg := config.DefaultConfig()
	cfg.Format = config.ContainerMKV
	cfg.Reencode = true
	cfg.VideoEncoder = "no_such_encoder"

	err := CheckDeps(&cfg)
	if astiav.FindEncoder(astiav.CodecIDH264) != nil {
		if err != nil {
			t.Errorf("CheckDeps() = %v, want fallback to the default H.264 encoder", err)
		}
		return
	}
	if !errors.Is(err, ErrEncoderNotConfigured) {
		t.Errorf("CheckDeps() = %v, want ErrEncoderNotConfigured", err)
	}
}

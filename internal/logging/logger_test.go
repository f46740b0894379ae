package logging

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/backmassage/muxconv/internal/config"
)

func TestNewLogger_NoFile(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.LogFile = ""
	cfg.ColorMode = config.ColorNever
	l, err := NewLogger(&cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()
	l.Info("test message")
}

func TestNewLogger_WithFile(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.ColorMode = config.ColorNever
	cfg.LogFile = filepath.Join(dir, "nested", "muxconv.log")
	l, err := NewLogger(&cfg)
	if err != nil {
		t.Fatal(err)
	}
	l.Info("to file")
	l.With("run_id", "abc").Success("done")
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}
	b, _ := os.ReadFile(cfg.LogFile)
	for _, want := range []string{"[INFO]", "to file", "[SUCCESS]", "done", "run_id=abc"} {
		if !bytes.Contains(b, []byte(want)) {
			t.Errorf("log file missing %q: %s", want, string(b))
		}
	}
	if bytes.Contains(b, []byte("\033[")) {
		t.Error("log file must not contain ANSI sequences")
	}
}

func TestLevelRouting(t *testing.T) {
	var out, errOut bytes.Buffer
	l := New(&out, &errOut, nil, false)

	l.Info("info line")
	l.Warn("warn line")
	l.Success("success line")
	l.Error("error line")
	l.Err(errors.New("boom"), "failed")
	l.Debug("hidden")

	stdout := out.String()
	stderr := errOut.String()
	for _, want := range []string{"[INFO] info line", "[WARN] warn line", "[SUCCESS] success line"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("stdout missing %q:\n%s", want, stdout)
		}
	}
	if strings.Contains(stdout, "error line") {
		t.Error("ERROR lines must not go to stdout")
	}
	if !strings.Contains(stderr, "[ERROR] error line") || !strings.Contains(stderr, "boom") {
		t.Errorf("stderr = %q", stderr)
	}
	if strings.Contains(stdout+stderr, "hidden") {
		t.Error("DEBUG must be filtered when not verbose")
	}
}

func TestDebugWhenVerbose(t *testing.T) {
	var out bytes.Buffer
	l := New(&out, &out, nil, true)
	l.Debug("shown %d", 1)
	if !strings.Contains(out.String(), "[DEBUG] shown 1") {
		t.Errorf("out = %q", out.String())
	}
}

func TestDiscard(t *testing.T) {
	l := Discard()
	l.Info("nothing")
	l.Error("nothing")
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}
}

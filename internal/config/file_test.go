package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, "format: mov\ncolor: never\nmessage_queue_size: 16\nlibav_log: warning\n")

	cfg := DefaultConfig()
	if err := LoadFile(path, &cfg); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Format != ContainerMOV {
		t.Errorf("Format = %q", cfg.Format)
	}
	if cfg.ColorMode != ColorNever {
		t.Errorf("ColorMode = %q", cfg.ColorMode)
	}
	if cfg.MessageQueueSize != 16 {
		t.Errorf("MessageQueueSize = %d", cfg.MessageQueueSize)
	}
	if cfg.LibavLogLevel != LibavWarning {
		t.Errorf("LibavLogLevel = %q", cfg.LibavLogLevel)
	}
	if cfg.VideoEncoder != "libx264" {
		t.Errorf("VideoEncoder = %q, absent keys must keep defaults", cfg.VideoEncoder)
	}
}

func TestLoadFile_Empty(t *testing.T) {
	cfg := DefaultConfig()
	if err := LoadFile(writeFile(t, ""), &cfg); err != nil {
		t.Fatalf("LoadFile() on empty file error = %v", err)
	}
	if cfg.Format != ContainerMP4 {
		t.Errorf("Format = %q", cfg.Format)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown key", "formt: mkv\n"},
		{"wrong type", "video_bitrate: fast\n"},
		{"not yaml", "format: [mkv\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			if err := LoadFile(writeFile(t, tt.body), &cfg); err == nil {
				t.Error("LoadFile() = nil, want error")
			}
		})
	}

	cfg := DefaultConfig()
	if err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), &cfg); err == nil {
		t.Error("LoadFile() on missing file = nil, want error")
	}
}

package config

// This file implements the optional YAML config file layer.
// Precedence: CLI flags > config file > DefaultConfig().

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoadFile overlays the YAML file at path onto cfg. Keys absent from the
// file keep their current values. Unknown keys are rejected so typos surface.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	cfg.ConfigFile = path
	return nil
}

// FindConfigFile searches the standard locations and returns the first that
// exists, or "" when none does (non-fatal).
func FindConfigFile() string {
	var locations []string
	locations = append(locations, "./muxconv.yaml", "./muxconv.yml")
	if home, err := os.UserHomeDir(); err == nil {
		locations = append(locations,
			filepath.Join(home, ".config", "muxconv", "config.yaml"),
			filepath.Join(home, ".config", "muxconv", "config.yml"),
		)
	}
	locations = append(locations, "/etc/muxconv/config.yaml")

	for _, path := range locations {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

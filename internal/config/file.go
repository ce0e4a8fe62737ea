package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	yaml "go.yaml.in/yaml/v3"

	"mapforge/internal/verify"
)

// File is the optional on-disk configuration overlay. Pointer fields
// distinguish "absent" from "explicitly false"; command-line values take
// precedence over anything set here.
type File struct {
	Input      string             `yaml:"input" json:"input"`
	Output     string             `yaml:"output" json:"output"`
	Maps       *bool              `yaml:"maps" json:"maps"`
	Vmaps      *bool              `yaml:"vmaps" json:"vmaps"`
	Mmaps      *bool              `yaml:"mmaps" json:"mmaps"`
	Verbose    *bool              `yaml:"verbose" json:"verbose"`
	Shell      *bool              `yaml:"shell" json:"shell"`
	LogFile    string             `yaml:"log_file" json:"log_file"`
	Thresholds *verify.Thresholds `yaml:"thresholds" json:"thresholds"`
}

// LoadFile reads a configuration overlay (YAML or JSON) from path.
// Format is detected by extension (.yaml/.yml/.json) or by content.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return parseFile(data, filepath.Ext(path))
}

// parseFile parses overlay bytes. ext is the file extension for the format
// hint; empty = detect from content (JSON objects start with "{").
func parseFile(data []byte, ext string) (*File, error) {
	ext = strings.ToLower(ext)
	if ext == ".yml" {
		ext = ".yaml"
	}
	if ext == "" {
		if strings.HasPrefix(strings.TrimSpace(string(data)), "{") {
			ext = ".json"
		} else {
			ext = ".yaml"
		}
	}

	var f File
	switch ext {
	case ".json":
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parse config json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parse config yaml: %w", err)
		}
	}
	return &f, nil
}

// apply copies the overlay's non-stage fields onto cfg. Stage toggles are
// merged by the caller so the all-enabled default rule sees them as flags.
func (f *File) apply(cfg *Config) {
	if f.Input != "" {
		cfg.InputDir = f.Input
	}
	if f.Output != "" {
		cfg.OutputDir = f.Output
	}
	if f.Verbose != nil {
		cfg.Verbose = *f.Verbose
	}
	if f.Shell != nil {
		cfg.Shell = *f.Shell
	}
	if f.LogFile != "" {
		cfg.LogFile = f.LogFile
	}
	if f.Thresholds != nil {
		cfg.Thresholds = *f.Thresholds
	}
}

// Package config resolves the run configuration for the extraction
// orchestrator: defaults, an optional on-disk overlay, the environment, and
// command-line options, in that precedence order. The resolved Config is
// built once and passed explicitly; nothing in the run mutates it afterward.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"mapforge/internal/verify"
)

const (
	// DefaultInputDir is the conventional mount point of the game client.
	DefaultInputDir = "/World_of_Warcraft"
	// DefaultOutputDir is where extracted artifacts land.
	DefaultOutputDir = "/artifacts"
	// DebugEnv forces verbose configuration echo when set to any value.
	DebugEnv = "MAPFORGE_DEBUG"
)

// Stages records which extraction stages are enabled for this run.
type Stages struct {
	Maps  bool `yaml:"maps" json:"maps"`
	Vmaps bool `yaml:"vmaps" json:"vmaps"`
	Mmaps bool `yaml:"mmaps" json:"mmaps"`
}

// Config is the immutable run configuration.
type Config struct {
	InputDir   string
	OutputDir  string
	Stages     Stages
	Verbose    bool
	Shell      bool
	LogFile    string
	Thresholds verify.Thresholds
}

// Options carries the raw command-line values into Resolve. Empty strings
// and false booleans mean "not set on the command line".
type Options struct {
	Input      string
	Output     string
	Maps       bool
	Vmaps      bool
	Mmaps      bool
	Verbose    bool
	Shell      bool
	LogFile    string
	ConfigFile string
}

// SelectStages applies the default rule: when no stage is explicitly
// requested, everything runs; otherwise exactly the requested subset runs.
func SelectStages(maps, vmaps, mmaps bool) Stages {
	if !maps && !vmaps && !mmaps {
		return Stages{Maps: true, Vmaps: true, Mmaps: true}
	}
	return Stages{Maps: maps, Vmaps: vmaps, Mmaps: mmaps}
}

// Resolve builds the Config. Directory validation happens here so that a bad
// --input/--output fails before any stage is attempted.
func Resolve(opts Options) (*Config, error) {
	cfg := &Config{
		InputDir:   DefaultInputDir,
		OutputDir:  DefaultOutputDir,
		Thresholds: verify.DefaultThresholds(),
	}

	maps, vmaps, mmaps := opts.Maps, opts.Vmaps, opts.Mmaps
	if opts.ConfigFile != "" {
		f, err := LoadFile(opts.ConfigFile)
		if err != nil {
			return nil, err
		}
		f.apply(cfg)
		maps = maps || boolVal(f.Maps)
		vmaps = vmaps || boolVal(f.Vmaps)
		mmaps = mmaps || boolVal(f.Mmaps)
	}

	if opts.Input != "" {
		cfg.InputDir = opts.Input
	}
	if opts.Output != "" {
		cfg.OutputDir = opts.Output
	}
	if opts.LogFile != "" {
		cfg.LogFile = opts.LogFile
	}
	cfg.Stages = SelectStages(maps, vmaps, mmaps)
	cfg.Verbose = cfg.Verbose || opts.Verbose || DebugEnabled()
	cfg.Shell = cfg.Shell || opts.Shell

	// The pipeline changes the working directory around tool invocations, so
	// relative paths must be pinned down before anything runs.
	var err error
	if cfg.InputDir, err = filepath.Abs(cfg.InputDir); err != nil {
		return nil, fmt.Errorf("resolve input path: %w", err)
	}
	if cfg.OutputDir, err = filepath.Abs(cfg.OutputDir); err != nil {
		return nil, fmt.Errorf("resolve output path: %w", err)
	}

	if err := EnsureDir("input", cfg.InputDir); err != nil {
		return nil, err
	}
	if err := EnsureDir("output", cfg.OutputDir); err != nil {
		return nil, err
	}
	return cfg, nil
}

// EnsureDir reports an error unless path names an existing directory.
// flag is the option name used in the error message.
func EnsureDir(flag, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("--%s: %q does not exist", flag, path)
	}
	if !info.IsDir() {
		return fmt.Errorf("--%s: %q is not a directory", flag, path)
	}
	return nil
}

// ValidateInput confirms the input tree has the client's Data subdirectory.
// This is a hard precondition: no stage runs when it fails.
func ValidateInput(inputDir string) error {
	dataDir := filepath.Join(inputDir, "Data")
	info, err := os.Stat(dataDir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("missing %s: the input directory must contain the client's Data subdirectory; point --input at the game installation root", dataDir)
	}
	return nil
}

// DebugEnabled reports whether the debug environment signal is present.
func DebugEnabled() bool {
	return os.Getenv(DebugEnv) != ""
}

// Echo writes the resolved configuration, one key = value pair per line.
func (c *Config) Echo(w io.Writer) {
	fmt.Fprintf(w, "input = %s\n", c.InputDir)
	fmt.Fprintf(w, "output = %s\n", c.OutputDir)
	fmt.Fprintf(w, "maps = %t\n", c.Stages.Maps)
	fmt.Fprintf(w, "vmaps = %t\n", c.Stages.Vmaps)
	fmt.Fprintf(w, "mmaps = %t\n", c.Stages.Mmaps)
	fmt.Fprintf(w, "shell = %t\n", c.Shell)
	fmt.Fprintf(w, "verbose = %t\n", c.Verbose)
	if c.LogFile != "" {
		fmt.Fprintf(w, "log_file = %s\n", c.LogFile)
	}
}

func boolVal(p *bool) bool {
	return p != nil && *p
}

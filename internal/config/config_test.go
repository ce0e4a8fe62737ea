package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"mapforge/internal/verify"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}

func TestSelectStages(t *testing.T) {
	tests := []struct {
		name               string
		maps, vmaps, mmaps bool
		want               Stages
	}{
		{"none set enables all", false, false, false, Stages{true, true, true}},
		{"maps only", true, false, false, Stages{Maps: true}},
		{"vmaps only", false, true, false, Stages{Vmaps: true}},
		{"mmaps only", false, false, true, Stages{Mmaps: true}},
		{"two set", true, false, true, Stages{Maps: true, Mmaps: true}},
		{"all set", true, true, true, Stages{true, true, true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectStages(tt.maps, tt.vmaps, tt.mmaps)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("SelectStages mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResolve_Defaults(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	cfg, err := Resolve(Options{Input: in, Output: out})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cfg.InputDir != in || cfg.OutputDir != out {
		t.Errorf("dirs: %s %s", cfg.InputDir, cfg.OutputDir)
	}
	if !cfg.Stages.Maps || !cfg.Stages.Vmaps || !cfg.Stages.Mmaps {
		t.Errorf("expected all stages enabled by default: %+v", cfg.Stages)
	}
	if diff := cmp.Diff(verify.DefaultThresholds(), cfg.Thresholds); diff != "" {
		t.Errorf("thresholds (-want +got):\n%s", diff)
	}
	if cfg.Verbose || cfg.Shell {
		t.Errorf("flags should default off: %+v", cfg)
	}
}

func TestResolve_BadDirectories(t *testing.T) {
	out := t.TempDir()
	if _, err := Resolve(Options{Input: filepath.Join(out, "nope"), Output: out}); err == nil {
		t.Error("expected error for missing input dir")
	}

	file := filepath.Join(out, "plain")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Resolve(Options{Input: out, Output: file}); err == nil {
		t.Error("expected error for non-directory output")
	}
}

func TestResolve_RelativeDirsMadeAbsolute(t *testing.T) {
	base := t.TempDir()
	chdir(t, base)
	for _, dir := range []string{"in", "out"} {
		if err := os.Mkdir(dir, 0755); err != nil {
			t.Fatal(err)
		}
	}

	cfg, err := Resolve(Options{Input: "in", Output: "out"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	// The pipeline chdirs into the output directory mid-run; relative paths
	// would then resolve against the wrong tree.
	if !filepath.IsAbs(cfg.InputDir) || !filepath.IsAbs(cfg.OutputDir) {
		t.Fatalf("paths not absolute: %s %s", cfg.InputDir, cfg.OutputDir)
	}
	if filepath.Base(cfg.InputDir) != "in" || filepath.Base(cfg.OutputDir) != "out" {
		t.Errorf("wrong directories: %s %s", cfg.InputDir, cfg.OutputDir)
	}
	marker := filepath.Join(cfg.OutputDir, "marker")
	if err := os.WriteFile(marker, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(base, "out", "marker")); err != nil {
		t.Errorf("resolved output does not point at ./out: %v", err)
	}
}

func TestResolve_DebugEnvForcesVerbose(t *testing.T) {
	t.Setenv(DebugEnv, "1")
	in, out := t.TempDir(), t.TempDir()
	cfg, err := Resolve(Options{Input: in, Output: out})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !cfg.Verbose {
		t.Error("debug env should force verbose")
	}
}

func TestResolve_FileOverlay(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	path := filepath.Join(t.TempDir(), "mapforge.yaml")
	yml := "input: " + in + "\noutput: " + out + "\nvmaps: true\nshell: true\nthresholds:\n  maps: 100\n  dbc: 10\n  vmaps: 200\n  mmaps: 50\n"
	if err := os.WriteFile(path, []byte(yml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Resolve(Options{ConfigFile: path})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cfg.InputDir != in || cfg.OutputDir != out {
		t.Errorf("dirs from file: %s %s", cfg.InputDir, cfg.OutputDir)
	}
	want := Stages{Vmaps: true}
	if diff := cmp.Diff(want, cfg.Stages); diff != "" {
		t.Errorf("stages (-want +got):\n%s", diff)
	}
	if !cfg.Shell {
		t.Error("shell from file not applied")
	}
	if cfg.Thresholds.Vmaps != 200 {
		t.Errorf("thresholds from file not applied: %+v", cfg.Thresholds)
	}
}

func TestResolve_FlagsWinOverFile(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	otherIn := t.TempDir()
	path := filepath.Join(t.TempDir(), "mapforge.json")
	jsn := `{"input": "` + otherIn + `", "output": "` + out + `", "maps": true}`
	if err := os.WriteFile(path, []byte(jsn), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Resolve(Options{ConfigFile: path, Input: in, Mmaps: true})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cfg.InputDir != in {
		t.Errorf("command-line input should win: got %s", cfg.InputDir)
	}
	// File's maps toggle and the command line's mmaps toggle both count as
	// explicit, so vmaps stays off.
	want := Stages{Maps: true, Mmaps: true}
	if diff := cmp.Diff(want, cfg.Stages); diff != "" {
		t.Errorf("stages (-want +got):\n%s", diff)
	}
}

func TestValidateInput(t *testing.T) {
	in := t.TempDir()
	err := ValidateInput(in)
	if err == nil {
		t.Fatal("expected error for missing Data subdirectory")
	}
	if !strings.Contains(err.Error(), filepath.Join(in, "Data")) {
		t.Errorf("error should name the missing subdirectory: %v", err)
	}

	if err := os.MkdirAll(filepath.Join(in, "Data"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := ValidateInput(in); err != nil {
		t.Errorf("valid input rejected: %v", err)
	}
}

func TestEcho_OnePairPerLine(t *testing.T) {
	cfg := &Config{
		InputDir:  "/in",
		OutputDir: "/out",
		Stages:    Stages{Maps: true},
		Verbose:   true,
	}
	var sb strings.Builder
	cfg.Echo(&sb)

	lines := strings.Split(strings.TrimSpace(sb.String()), "\n")
	if len(lines) != 7 {
		t.Fatalf("expected 7 lines, got %d:\n%s", len(lines), sb.String())
	}
	for _, line := range lines {
		if !strings.Contains(line, " = ") {
			t.Errorf("line %q is not a key = value pair", line)
		}
	}
	if lines[0] != "input = /in" {
		t.Errorf("first line: %q", lines[0])
	}
}

func TestParseFile_DetectsContent(t *testing.T) {
	f, err := parseFile([]byte(`{"input": "/somewhere"}`), "")
	if err != nil {
		t.Fatalf("json detect: %v", err)
	}
	if f.Input != "/somewhere" {
		t.Errorf("json input: %q", f.Input)
	}

	f, err = parseFile([]byte("output: /elsewhere\n"), "")
	if err != nil {
		t.Fatalf("yaml detect: %v", err)
	}
	if f.Output != "/elsewhere" {
		t.Errorf("yaml output: %q", f.Output)
	}
}

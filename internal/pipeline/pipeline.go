// Package pipeline runs the enabled extraction stages in fixed dependency
// order: maps, then vmaps, then mmaps. Each stage is one external tool
// invocation (vmaps is two: extract then assemble) followed by an advisory
// completeness check. Stages share the output tree on purpose; mmaps reads
// what vmaps left behind.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"mapforge/internal/config"
	"mapforge/internal/logging"
	"mapforge/internal/verify"
)

// Stage identifies one extraction phase.
type Stage string

const (
	StageMaps  Stage = "maps"
	StageVmaps Stage = "vmaps"
	StageMmaps Stage = "mmaps"
)

// Order is the fixed execution order. mmaps depends on vmaps output; maps is
// independent of both.
var Order = []Stage{StageMaps, StageVmaps, StageMmaps}

// StageResult is the advisory classification of one executed stage. It is
// logged immediately and carried only for the end-of-run summary; nothing
// persists it.
type StageResult struct {
	Stage    Stage
	Outcome  verify.Outcome
	Counts   map[string]int
	Duration time.Duration
}

// Pipeline drives the external extraction tools for one run.
type Pipeline struct {
	cfg    *config.Config
	runner Runner
	log    *slog.Logger
}

// New returns a Pipeline bound to cfg. A nil runner selects the real
// os/exec-backed ExecRunner.
func New(cfg *config.Config, runner Runner) *Pipeline {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Pipeline{cfg: cfg, runner: runner, log: logging.New("pipeline")}
}

// Run executes the enabled stages sequentially. It returns the results of
// the stages that completed; an Uncertain classification never stops the
// run, a tool failure does.
func (p *Pipeline) Run(ctx context.Context) ([]StageResult, error) {
	for _, sub := range []string{"vmaps", "mmaps"} {
		if err := os.MkdirAll(filepath.Join(p.cfg.OutputDir, sub), 0755); err != nil {
			return nil, fmt.Errorf("prepare output tree: %w", err)
		}
	}

	var results []StageResult
	for _, stage := range Order {
		if !p.enabled(stage) {
			continue
		}
		res, err := p.runStage(ctx, stage)
		if err != nil {
			return results, err
		}
		p.logResult(res)
		results = append(results, *res)
	}
	return results, nil
}

func (p *Pipeline) enabled(stage Stage) bool {
	switch stage {
	case StageMaps:
		return p.cfg.Stages.Maps
	case StageVmaps:
		return p.cfg.Stages.Vmaps
	case StageMmaps:
		return p.cfg.Stages.Mmaps
	}
	return false
}

// runStage invokes the stage's tool(s) with the output directory as the
// working context, restoring the previous directory on every exit path.
func (p *Pipeline) runStage(ctx context.Context, stage Stage) (*StageResult, error) {
	p.log.Info("stage starting", "stage", string(stage))

	restore, err := enterDir(p.cfg.OutputDir)
	if err != nil {
		return nil, err
	}
	defer restore()

	start := time.Now()
	switch stage {
	case StageMaps:
		err = p.runMaps(ctx)
	case StageVmaps:
		err = p.runVmaps(ctx)
	case StageMmaps:
		err = p.runMmaps(ctx)
	}
	if err != nil {
		return nil, err
	}

	res := p.classify(stage)
	res.Duration = time.Since(start)
	return res, nil
}

// runMaps extracts base terrain and DBC tables.
func (p *Pipeline) runMaps(ctx context.Context) error {
	return p.runner.Run(ctx, Tool{
		Name: "map_extractor",
		Args: []string{"-i", p.cfg.InputDir, "-o", p.cfg.OutputDir},
	})
}

// runVmaps extracts collision geometry from the client Data tree into the
// Buildings staging directory, then assembles it into vmaps.
func (p *Pipeline) runVmaps(ctx context.Context) error {
	if err := p.runner.Run(ctx, Tool{
		Name: "vmap4extractor",
		Args: []string{"-l", "-d", filepath.Join(p.cfg.InputDir, "Data")},
	}); err != nil {
		return err
	}
	return p.runner.Run(ctx, Tool{
		Name: "vmap4assembler",
		Args: []string{"Buildings", "vmaps"},
	})
}

// runMmaps generates navigation meshes. The generator finds maps and vmaps
// in the working directory on its own, so it takes no path arguments.
func (p *Pipeline) runMmaps(ctx context.Context) error {
	vmapsDir := filepath.Join(p.cfg.OutputDir, "vmaps")
	if verify.CountFiles(vmapsDir) == 0 {
		p.log.Warn("movement-map generation normally requires visual maps, but none were found; proceeding anyway",
			"expected", vmapsDir)
	}
	return p.runner.Run(ctx, Tool{Name: "mmaps_generator"})
}

// classify applies the per-stage completeness heuristics.
func (p *Pipeline) classify(stage Stage) *StageResult {
	out := p.cfg.OutputDir
	th := p.cfg.Thresholds
	res := &StageResult{Stage: stage, Counts: map[string]int{}}

	switch stage {
	case StageMaps:
		mapsOutcome, mapsCount := verify.Classify(filepath.Join(out, "maps"), th.Maps)
		dbcOutcome, dbcCount := verify.Classify(filepath.Join(out, "dbc"), th.DBC)
		res.Counts["maps"] = mapsCount
		res.Counts["dbc"] = dbcCount
		res.Outcome = verify.Succeeded
		if mapsOutcome != verify.Succeeded || dbcOutcome != verify.Succeeded {
			res.Outcome = verify.Uncertain
		}
	case StageVmaps:
		res.Outcome, res.Counts["vmaps"] = verify.Classify(filepath.Join(out, "vmaps"), th.Vmaps)
	case StageMmaps:
		res.Outcome, res.Counts["mmaps"] = verify.Classify(filepath.Join(out, "mmaps"), th.Mmaps)
	}
	return res
}

// logResult records the advisory classification. Uncertain is logged as a
// warning, never as an error: it does not change the exit status.
func (p *Pipeline) logResult(res *StageResult) {
	attrs := []any{"stage", string(res.Stage), "duration", res.Duration.Round(time.Millisecond)}
	for sub, count := range res.Counts {
		attrs = append(attrs, sub, count)
	}
	if res.Outcome == verify.Succeeded {
		p.log.Info("stage succeeded", attrs...)
		return
	}
	p.log.Warn("stage may have failed: output below completeness threshold", attrs...)
}

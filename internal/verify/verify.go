// Package verify implements the heuristic completeness check applied after
// each extraction stage. The external tools do not signal partial failure
// through their exit status, so a recursive file count against a per-artifact
// threshold is used as a proxy for success.
package verify

import (
	"io/fs"
	"path/filepath"
)

// Outcome classifies a stage's output tree. There is no "failed": a count
// below threshold only means the stage may have failed.
type Outcome string

const (
	Succeeded Outcome = "succeeded"
	Uncertain Outcome = "uncertain"
)

// Thresholds holds the minimum file counts for each artifact tree.
type Thresholds struct {
	Maps  int `yaml:"maps" json:"maps"`
	DBC   int `yaml:"dbc" json:"dbc"`
	Vmaps int `yaml:"vmaps" json:"vmaps"`
	Mmaps int `yaml:"mmaps" json:"mmaps"`
}

// DefaultThresholds returns the known-good counts for a full client extract.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Maps:  5700,
		DBC:   240,
		Vmaps: 9800,
		Mmaps: 3600,
	}
}

// CountFiles counts regular files recursively under root. A missing or
// unreadable path counts as zero; unreadable subtrees are skipped rather
// than aborting the walk.
func CountFiles(root string) int {
	count := 0
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			count++
		}
		return nil
	})
	return count
}

// Classify counts regular files under path and compares against minCount.
// Returns the outcome and the observed count. Monotonic in the count:
// any count >= minCount is Succeeded, anything below is Uncertain.
func Classify(path string, minCount int) (Outcome, int) {
	count := CountFiles(path)
	if count >= minCount {
		return Succeeded, count
	}
	return Uncertain, count
}

package pipeline

import (
	"fmt"
	"os"

	"mapforge/internal/logging"
)

// enterDir switches the process working directory to dir and returns a
// restore function. Restore must run on every exit path: a stage that aborts
// mid-flight must not leave the process in the wrong directory for later
// stages or for diagnostic reporting.
func enterDir(dir string) (restore func(), err error) {
	prev, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}
	if err := os.Chdir(dir); err != nil {
		return nil, fmt.Errorf("enter %s: %w", dir, err)
	}
	return func() {
		if err := os.Chdir(prev); err != nil {
			logging.New("pipeline").Error("restore working directory", "dir", prev, "error", err)
		}
	}, nil
}

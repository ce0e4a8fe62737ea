package pipeline

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"

	"golang.org/x/sync/errgroup"

	"mapforge/internal/logging"
)

// Tool describes one external collaborator invocation. The extraction
// binaries are opaque: fixed names, fixed argument shapes, no contract
// beyond their exit status and the files they leave behind.
type Tool struct {
	Name string
	Args []string
}

// CommandLine renders the invocation the way an operator would type it.
func (t Tool) CommandLine() string {
	if len(t.Args) == 0 {
		return t.Name
	}
	return t.Name + " " + strings.Join(t.Args, " ")
}

// ToolError wraps a failed external invocation with its originating command.
// A non-zero tool exit aborts the whole run; it is never a per-stage retry.
type ToolError struct {
	Tool Tool
	Err  error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("%s: %v", e.Tool.CommandLine(), e.Err)
}

func (e *ToolError) Unwrap() error { return e.Err }

// Runner abstracts tool execution so tests can record invocations without
// spawning processes.
type Runner interface {
	Run(ctx context.Context, tool Tool) error
}

// ExecRunner launches tools as child processes in the current working
// directory, streaming their output line-by-line into the structured log.
type ExecRunner struct{}

// Run starts the tool and blocks until it exits. No timeout is imposed;
// a hung tool hangs the run.
func (ExecRunner) Run(ctx context.Context, tool Tool) error {
	log := logging.New("exec")

	cmd := exec.CommandContext(ctx, tool.Name, tool.Args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return &ToolError{Tool: tool, Err: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return &ToolError{Tool: tool, Err: err}
	}

	log.Info("tool starting", "command", tool.CommandLine())
	if err := cmd.Start(); err != nil {
		return &ToolError{Tool: tool, Err: err}
	}

	var g errgroup.Group
	g.Go(func() error {
		streamLines(log, tool.Name, "stdout", stdout)
		return nil
	})
	g.Go(func() error {
		streamLines(log, tool.Name, "stderr", stderr)
		return nil
	})
	_ = g.Wait() // drain both pipes before Wait closes them

	if err := cmd.Wait(); err != nil {
		return &ToolError{Tool: tool, Err: err}
	}
	log.Info("tool finished", "command", tool.CommandLine())
	return nil
}

func streamLines(log *slog.Logger, name, channel string, r io.Reader) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		log.Info(sc.Text(), "tool", name, "stream", channel)
	}
	// A line over the scanner cap stops the loop while the tool keeps
	// writing; keep draining or the full pipe blocks the child forever.
	if err := sc.Err(); err != nil {
		log.Warn("tool output truncated", "tool", name, "stream", channel, "error", err)
		_, _ = io.Copy(io.Discard, r)
	}
}

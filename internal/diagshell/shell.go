// Package diagshell implements the optional diagnostic escalation: when a run
// dies on an unexpected error and --shell was given, the operator gets a
// failure report and an interactive session over the run's state snapshot
// instead of an immediate exit. At most one session per run; never concurrent
// with pipeline stages.
package diagshell

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"sort"
	"strings"

	"mapforge/internal/config"
	"mapforge/internal/pipeline"
)

// Report is the state snapshot handed to the operator.
type Report struct {
	Err     error
	Command string // originating tool command line, when the error came from a tool
	Stack   []byte
	Config  *config.Config
	Args    []string
	WorkDir string
	Environ []string
}

// Capture builds a Report for err at the current call site.
func Capture(err error, cfg *config.Config) *Report {
	r := &Report{
		Err:     err,
		Config:  cfg,
		Args:    os.Args,
		Stack:   debug.Stack(),
		Environ: os.Environ(),
	}
	var te *pipeline.ToolError
	if errors.As(err, &te) {
		r.Command = te.Tool.CommandLine()
	}
	r.WorkDir, _ = os.Getwd()
	return r
}

// Print writes the failure report: the error and its originating command,
// the call trace, then the operator-oriented summary block.
func (r *Report) Print(w io.Writer) {
	fmt.Fprintf(w, "unexpected error: %v\n", r.Err)
	if r.Command != "" {
		fmt.Fprintf(w, "originating command: %s\n", r.Command)
	}
	fmt.Fprintf(w, "\ntrace:\n%s\n", r.Stack)
	fmt.Fprintln(w, "--- run summary ---")
	if r.Config != nil {
		fmt.Fprintf(w, "input directory:  %s\n", r.Config.InputDir)
		fmt.Fprintf(w, "output directory: %s\n", r.Config.OutputDir)
	}
	fmt.Fprintf(w, "command line:     %s\n", strings.Join(r.Args, " "))
	fmt.Fprintf(w, "working dir:      %s\n", r.WorkDir)
}

const shellHelp = `commands:
  config   resolved run configuration
  error    the error that ended the run
  stack    call trace captured at failure
  env      process environment
  pwd      working directory at failure
  help     this text
  exit     terminate the process`

// Enter prints the report and runs a line-oriented read-evaluate loop over
// the snapshot until the operator exits (or input ends).
func Enter(r *Report, in io.Reader, out io.Writer) {
	r.Print(out)
	fmt.Fprintln(out, `entering diagnostic shell; type "help" for commands, "exit" to terminate`)

	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "(mapforge) ")
		if !sc.Scan() {
			return
		}
		switch strings.TrimSpace(sc.Text()) {
		case "":
		case "help":
			fmt.Fprintln(out, shellHelp)
		case "config":
			if r.Config != nil {
				r.Config.Echo(out)
			} else {
				fmt.Fprintln(out, "no configuration was resolved")
			}
		case "error":
			fmt.Fprintf(out, "%v\n", r.Err)
		case "stack":
			out.Write(r.Stack)
		case "env":
			env := append([]string(nil), r.Environ...)
			sort.Strings(env)
			for _, kv := range env {
				fmt.Fprintln(out, kv)
			}
		case "pwd":
			fmt.Fprintln(out, r.WorkDir)
		case "exit", "quit":
			return
		default:
			fmt.Fprintf(out, "unknown command %q (try \"help\")\n", strings.TrimSpace(sc.Text()))
		}
	}
}

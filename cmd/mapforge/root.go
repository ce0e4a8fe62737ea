// mapforge orchestrates the client-data extraction pipeline: it drives the
// external map/DBC, vmap and mmap tools against a game client installation
// and heuristically validates what they produce.
//
// Usage:
//
//	mapforge [-i <client-dir>] [-o <artifact-dir>] [-m] [-V] [-M] [-s] [-v]
//	mapforge <executable> [args...]   # pass-through: delegate and exit
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"mapforge/internal/config"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	input      string
	output     string
	maps       bool
	vmaps      bool
	mmaps      bool
	shell      bool
	verbose    bool
	logFile    string
	configFile string
}

var rootCmd = &cobra.Command{
	Use:   "mapforge",
	Short: "Extract maps, vmaps and mmaps from a game client installation",
	Long: `Mapforge runs the external extraction tools (map/DBC extractor, vmap
extractor and assembler, mmap generator) in dependency order against a game
client installation, then checks each stage's output tree against known-good
file counts. A stage below threshold is reported as "may have failed" but
never stops the run.

With no stage flags, all three stages run. With -s, an unexpected failure
drops into an interactive diagnostic shell instead of exiting.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runExtract,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&rootFlags.input, "input", "i", config.DefaultInputDir, "Game client installation root (must exist)")
	f.StringVarP(&rootFlags.output, "output", "o", config.DefaultOutputDir, "Artifact output directory (must exist)")
	f.BoolVarP(&rootFlags.maps, "maps", "m", false, "Extract base maps and DBC tables")
	f.BoolVarP(&rootFlags.vmaps, "vmaps", "V", false, "Extract and assemble visual (collision) maps")
	f.BoolVarP(&rootFlags.mmaps, "mmaps", "M", false, "Generate movement (navigation) maps")
	f.BoolVarP(&rootFlags.shell, "shell", "s", false, "Drop into a diagnostic shell on unexpected errors")
	f.BoolVarP(&rootFlags.verbose, "verbose", "v", false, "Echo the resolved configuration before running")
	f.StringVar(&rootFlags.logFile, "log-file", "", "Also write logs to this rotating file")
	f.StringVar(&rootFlags.configFile, "config", "", "Optional YAML/JSON configuration overlay")
	rootCmd.Version = version
}

func main() {
	_ = godotenv.Load()

	// Pass-through mode: when the first argument names an executable file,
	// delegate to it verbatim and skip the pipeline entirely.
	if len(os.Args) > 1 && isExecutable(os.Args[1]) {
		os.Exit(delegate(os.Args[1], os.Args[2:]))
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

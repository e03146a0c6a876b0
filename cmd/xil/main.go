package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"xil/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "xil",
	Short: "XIL assembler, graph exporter and virtual machine",
	Long: `xil translates XIL text into programs, links units of one module,
flattens programs into ID-addressed graphs and runs them on a stack VM
that can call native libraries`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// init registers subcommands and persistent flags.
func init() {
	// Устанавливаем версию для автоматического флага --version
	rootCmd.Version = version.Semver

	// Добавляем команды
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(storeCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(versionCmd)

	// Глобальные флаги
	flags := rootCmd.PersistentFlags()
	flags.String("color", "auto", "colorize output (auto|on|off)")
	flags.Bool("quiet", false, "suppress non-essential output")
	flags.Bool("timings", false, "show timing information")
	flags.Int("max-diagnostics", 100, "maximum number of diagnostics to show")
	flags.String("diagnostics-format", "pretty", "diagnostics output format (pretty|json)")
	flags.String("log-level", "warn", "log level (debug|info|warn|error)")
	flags.String("trace", "", "trace output file (- for stderr)")
	flags.String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	flags.String("trace-mode", "stream", "trace mode (stream|log|both)")
	flags.Int("jobs", 0, "max parallel translation workers (0=auto)")
	flags.Bool("no-cache", false, "disable the translation cache")
	flags.String("cpu-profile", "", "write a CPU profile to file")
	flags.String("mem-profile", "", "write a heap profile to file on exit")
	flags.String("runtime-trace", "", "write a Go runtime trace to file")
}

// main executes the root command.
// If command execution returns an error, the process exits with status code 1.
func main() {
	if err := rootCmd.Execute(); err != nil {
		// диагностики уже напечатаны
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

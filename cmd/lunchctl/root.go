package main

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/samirrijal/lunchpick/internal/pkg/logging"
)

var (
	logLevel  string
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "lunchctl",
	Short: "pick somewhere to eat near a coordinate",
	Long: `
lunchctl runs the lunchpick recommendation pipeline from the command line,
converts between TM128 grid points and WGS 84 coordinates, and tails the
recommendation events a running server publishes to NATS.
`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		format := logFormat
		if format == "" || format == "auto" {
			format = "json"
			if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
				format = "text"
			}
		}
		logging.SetupWriter(os.Stderr, logLevel, format)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "auto", "text, json or auto (text on a terminal)")
}

func Execute(v string) {
	rootCmd.Version = v
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

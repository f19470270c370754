// Package cmd implements the ctrip CLI commands.
package cmd

import (
	"log/slog"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/ctrip/internal/config"
)

var (
	flagTripComputer bool
	flagDebug        bool
	flagTranscript   string
	flagSession      string
	flagDataDir      string
)

var rootCmd = &cobra.Command{
	Use:   "ctrip",
	Short: "Session analytics for Claude Code",
	Long: "Reports token usage, cost, cache efficiency and a health score for the current\n" +
		"Claude Code session. Run as a status line command, or with --trip-computer for\n" +
		"the full report.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		mode := modeStatus
		if flagTripComputer {
			mode = modeTrip
		}
		return runReport(cmd, mode)
	},
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Log diagnostics to stderr (also CTRIP_DEBUG=1)")
	rootCmd.PersistentFlags().StringVarP(&flagDataDir, "data-dir", "d", "", "Claude data directory (default ~/.claude)")

	rootCmd.Flags().BoolVar(&flagTripComputer, "trip-computer", false, "Print the detailed trip computer report")
	rootCmd.PersistentFlags().StringVar(&flagTranscript, "transcript", "", "Transcript to report on instead of discovering one")
	rootCmd.PersistentFlags().StringVar(&flagSession, "session", "", "Session id to report on within the current project")

	rootCmd.PersistentPreRun = func(_ *cobra.Command, _ []string) {
		slog.SetDefault(newLogger())
		if os.Getenv("NO_COLOR") == "" {
			// Output is piped into Claude Code, so color can't be detected from the terminal.
			lipgloss.SetColorProfile(termenv.ANSI)
		}
	}
}

// newLogger writes text logs to stderr so stdout stays a clean status line.
func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if flagDebug || os.Getenv("CTRIP_DEBUG") != "" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// loadConfig loads the config file and applies command-line overrides.
// A broken config file is logged and replaced by defaults.
func loadConfig() config.Config {
	cfg, err := config.Load()
	if err != nil {
		slog.Warn("using default config", "path", config.ConfigPath(), "err", err)
		cfg = config.DefaultConfig()
	}
	if flagDataDir != "" {
		cfg.General.ClaudeDir = flagDataDir
		if !config.Exists() {
			// Legacy billing lives under the data dir, which Load could not know.
			cfg.Billing = config.DefaultBilling()
			if legacy, ok := config.ReadLegacyBilling(flagDataDir); ok {
				cfg.Billing = legacy
			}
		}
	}
	return cfg
}

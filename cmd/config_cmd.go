package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/ctrip/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, _ []string) error {
	cfg := loadConfig()
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "  Config file: %s\n", config.ConfigPath())
	switch {
	case config.Exists():
		fmt.Fprintln(out, "  Status: loaded")
	case fileExists(config.LegacyConfigPath(cfg.ClaudeDirPath())):
		fmt.Fprintf(out, "  Status: billing from legacy %s\n", config.LegacyConfigPath(cfg.ClaudeDirPath()))
	default:
		fmt.Fprintln(out, "  Status: using defaults (no config file)")
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "  [General]")
	fmt.Fprintf(out, "    Claude directory: %s\n", cfg.ClaudeDirPath())
	fmt.Fprintf(out, "    Rate limits:      %v\n", cfg.General.RateLimits)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "  [Billing]")
	fmt.Fprintf(out, "    Mode:          %s\n", cfg.Billing.Mode)
	fmt.Fprintf(out, "    Icon:          %s\n", cfg.Billing.Icon)
	fmt.Fprintf(out, "    Safety margin: %.2fx\n", cfg.Billing.SafetyMargin)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "  [Cache]")
	fmt.Fprintf(out, "    Max age:       %dh\n", cfg.Cache.MaxAgeHours)
	fmt.Fprintf(out, "    Max count:     %d\n", cfg.Cache.MaxCount)
	fmt.Fprintf(out, "    Session cache: %s\n", cfg.SessionStatsDir())
	fmt.Fprintf(out, "    Rate limits:   %s\n", config.RateLimitDBPath())
	fmt.Fprintln(out)

	fmt.Fprintln(out, "  Run `ctrip setup` to reconfigure.")
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

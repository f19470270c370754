package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/ctrip/internal/cli"
	"github.com/theirongolddev/ctrip/internal/config"
	"github.com/theirongolddev/ctrip/internal/store"
)

var (
	flagMaxAgeHours int
	flagMaxCount    int
	flagDryRun      bool
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove old session cache entries and expired rate-limit snapshots",
	RunE:  runCleanup,
}

func init() {
	cleanupCmd.Flags().IntVar(&flagMaxAgeHours, "max-age-hours", 0, "Delete entries older than this (default from config)")
	cleanupCmd.Flags().IntVar(&flagMaxCount, "max-count", 0, "Keep at most this many entries (default from config)")
	cleanupCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "List what would be removed without deleting")
	rootCmd.AddCommand(cleanupCmd)
}

func runCleanup(cmd *cobra.Command, _ []string) error {
	cfg := loadConfig()
	out := cmd.OutOrStdout()

	maxAgeHours := cfg.Cache.MaxAgeHours
	if flagMaxAgeHours > 0 {
		maxAgeHours = flagMaxAgeHours
	}
	maxCount := cfg.Cache.MaxCount
	if cmd.Flags().Changed("max-count") {
		maxCount = max(0, flagMaxCount)
	}
	maxAge := time.Duration(maxAgeHours) * time.Hour

	sessions := store.NewSessionStore(cfg.SessionStatsDir())

	if flagDryRun {
		expired, err := sessions.Expired(maxAge, maxCount)
		if err != nil {
			return fmt.Errorf("listing cache: %w", err)
		}
		if len(expired) == 0 {
			fmt.Fprintf(out, "  Nothing to remove in %s\n", sessions.Dir())
			return nil
		}

		rows := make([][]string, 0, len(expired))
		for _, e := range expired {
			rows = append(rows, []string{filepath.Base(e.Path), humanize.Time(e.ModTime)})
		}
		fmt.Fprint(out, cli.RenderTable(cli.Table{
			Title:   fmt.Sprintf("Would remove %d from %s", len(expired), sessions.Dir()),
			Headers: []string{"Entry", "Modified"},
			Rows:    rows,
		}))
		return nil
	}

	removed, err := sessions.Cleanup(maxAge, maxCount)
	if err != nil {
		return fmt.Errorf("cleaning cache: %w", err)
	}
	fmt.Fprintf(out, "  Removed %d session cache %s from %s\n",
		removed, pluralize(removed, "entry", "entries"), sessions.Dir())

	if _, err := os.Stat(config.RateLimitDBPath()); err == nil {
		purgeRateLimits(cmd)
	}
	return nil
}

func purgeRateLimits(cmd *cobra.Command) {
	cache, err := store.OpenRateLimitCache(config.RateLimitDBPath())
	if err != nil {
		slog.Warn("opening rate limit cache", "err", err)
		return
	}
	defer func() { _ = cache.Close() }()

	n, err := cache.Purge(time.Now())
	if err != nil {
		slog.Warn("purging rate limit cache", "err", err)
		return
	}
	if n > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "  Purged %d expired rate-limit %s\n", n, pluralize(int(n), "snapshot", "snapshots"))
	}
}

func pluralize(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

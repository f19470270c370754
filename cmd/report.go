package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/ctrip/internal/activity"
	"github.com/theirongolddev/ctrip/internal/analytics"
	"github.com/theirongolddev/ctrip/internal/claudeai"
	"github.com/theirongolddev/ctrip/internal/cli"
	"github.com/theirongolddev/ctrip/internal/config"
	"github.com/theirongolddev/ctrip/internal/gitinfo"
	"github.com/theirongolddev/ctrip/internal/hookinput"
	"github.com/theirongolddev/ctrip/internal/pipeline"
	"github.com/theirongolddev/ctrip/internal/source"
	"github.com/theirongolddev/ctrip/internal/store"
)

type reportMode int

const (
	modeStatus reportMode = iota
	modeTrip
)

var tripCmd = &cobra.Command{
	Use:   "trip",
	Short: "Print the detailed trip computer report",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runReport(cmd, modeTrip)
	},
}

func init() {
	rootCmd.AddCommand(tripCmd)
}

// runReport renders the status line or trip computer. Failures are logged
// and degrade to the zero line so Claude Code always has something to show.
func runReport(cmd *cobra.Command, mode reportMode) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()
	log := slog.Default()
	cfg := loadConfig()

	in, err := hookinput.FromStdin(os.Stdin)
	if err != nil {
		log.Debug("ignoring hook input", "err", err)
	}

	cwd := in.Dir()
	if cwd == "" {
		cwd, _ = os.Getwd()
	}

	transcript := resolveTranscript(in, cfg, cwd)
	if transcript == "" {
		log.Debug("no transcript found", "cwd", cwd)
		return cli.RenderEmptyStatusLine(out)
	}

	engine := &pipeline.Engine{
		Cache:           store.NewSessionStore(cfg.SessionStatsDir()),
		Scorer:          analytics.NewScorer(cfg.Billing),
		Roots:           source.ProjectsRoots(cfg.ClaudeDirPath()),
		CleanupMaxAge:   time.Duration(cfg.Cache.MaxAgeHours) * time.Hour,
		CleanupMaxCount: cfg.Cache.MaxCount,
		Logger:          log,
	}
	if cfg.Billing.Normalized().IsSubscription() && cfg.General.RateLimits {
		fetcher, closeFn := newRateLimitFetcher(cfg, log)
		defer closeFn()
		engine.RateLimits = fetcher
	}

	sessionID := ""
	if in != nil {
		sessionID = in.SessionID
	}
	res := engine.Run(ctx, pipeline.Request{
		TranscriptPath: transcript,
		SessionID:      sessionID,
		Context:        in.ContextWindow(),
		ModelName:      in.ModelName(),
	})
	log.Debug("session computed", "session", res.SessionID, "cached", res.FromCache,
		"messages", res.Metrics.MessageCount, "cost", res.Metrics.TotalCost)

	if mode == modeTrip {
		return cli.RenderTripComputer(out, cli.TripData{
			Metrics:    res.Metrics,
			ModelName:  res.ModelName,
			Project:    source.ProjectName(transcript),
			Context:    res.Context,
			RateLimits: res.RateLimits,
			Analytics:  res.Analytics,
			Billing:    cfg.Billing,
		})
	}

	git, err := gitinfo.Lookup(ctx, cwd)
	if err != nil {
		log.Debug("git lookup", "err", err)
	}
	act, err := activity.Parse(transcript)
	if err != nil {
		log.Debug("activity parse", "err", err)
	}

	return cli.RenderStatusLine(out, cli.StatusData{
		Metrics:    res.Metrics,
		ModelName:  res.ModelName,
		Context:    res.Context,
		RateLimits: res.RateLimits,
		Git:        git,
		Activity:   act,
		Billing:    cfg.Billing,
	})
}

// resolveTranscript picks the transcript to report on: the hook input, then
// --transcript, then --session within the current project, then the most
// recent session for cwd.
func resolveTranscript(in *hookinput.Input, cfg config.Config, cwd string) string {
	if in != nil && in.TranscriptPath != "" {
		return in.TranscriptPath
	}
	if flagTranscript != "" {
		return flagTranscript
	}

	roots := source.ProjectsRoots(cfg.ClaudeDirPath())
	if flagSession != "" {
		for _, root := range roots {
			p := filepath.Join(root, source.EncodeProjectDir(cwd), flagSession+".jsonl")
			if _, err := os.Stat(p); err == nil {
				return p
			}
		}
		slog.Debug("session not found", "session", flagSession)
		return ""
	}

	for _, root := range roots {
		p, err := source.FindCurrentSession(root, cwd)
		if err == nil {
			return p
		}
		if !errors.Is(err, source.ErrNoSession) {
			slog.Debug("session discovery", "root", root, "err", err)
		}
	}
	return ""
}

// newRateLimitFetcher wires the usage API to the snapshot cache. The cache is
// optional: if it cannot be opened every call goes to the API.
func newRateLimitFetcher(cfg config.Config, log *slog.Logger) (*pipeline.RateLimitFetcher, func()) {
	f := &pipeline.RateLimitFetcher{
		CredentialsPath: claudeai.CredentialsPath(cfg.ClaudeDirPath()),
		Logger:          log,
	}

	cache, err := store.OpenRateLimitCache(config.RateLimitDBPath())
	if err != nil {
		log.Debug("rate limit cache unavailable", "err", err)
		return f, func() {}
	}
	f.Cache = cache
	return f, func() { _ = cache.Close() }
}

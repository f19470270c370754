package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/ctrip/internal/claudeai"
	"github.com/theirongolddev/ctrip/internal/cli"
)

var limitsCmd = &cobra.Command{
	Use:   "limits",
	Short: "Show live claude.ai subscription rate limits",
	RunE:  runLimits,
}

func init() {
	rootCmd.AddCommand(limitsCmd)
}

func runLimits(cmd *cobra.Command, _ []string) error {
	cfg := loadConfig()
	out := cmd.OutOrStdout()

	credsPath := claudeai.CredentialsPath(cfg.ClaudeDirPath())
	creds, err := claudeai.LoadCredentials(credsPath, time.Now())
	if errors.Is(err, claudeai.ErrNoCredentials) {
		fmt.Fprintln(out)
		fmt.Fprintf(out, "  No usable claude.ai login in %s\n", credsPath)
		fmt.Fprintln(out, "  Sign in with `claude` using a Pro or Max account, then retry.")
		fmt.Fprintln(out)
		return nil
	}
	if err != nil {
		return err
	}

	plan := claudeai.PlanName(creds.SubscriptionType)
	if plan == "" {
		fmt.Fprintln(out, "  This account has no subscription rate limits.")
		return nil
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	usage, err := claudeai.NewClient(creds.AccessToken).FetchUsage(ctx)
	switch {
	case errors.Is(err, claudeai.ErrUnauthorized):
		return errors.New("login expired or revoked: run `claude` to sign in again")
	case errors.Is(err, claudeai.ErrRateLimited):
		return errors.New("usage endpoint is rate limited: try again in a minute")
	case err != nil:
		return fmt.Errorf("fetching usage: %w", err)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, cli.RenderTitle(plan+" PLAN LIMITS"))
	fmt.Fprintln(out)

	var rows [][]string
	if w := usage.FiveHour; w != nil {
		rows = append(rows, limitRow("5-hour window", w))
	}
	if w := usage.SevenDay; w != nil {
		rows = append(rows, limitRow("7-day window", w))
	}
	if len(rows) == 0 {
		fmt.Fprintln(out, "  The usage endpoint returned no rate-limit windows.")
		return nil
	}

	fmt.Fprint(out, cli.RenderTable(cli.Table{
		Title:   "Rate Limits",
		Headers: []string{"Window", "Used", "Bar", "Resets"},
		Rows:    rows,
	}))
	fmt.Fprintf(out, "\n  Fetched at %s\n\n", time.Now().Format("3:04:05 PM"))
	return nil
}

func limitRow(label string, w *claudeai.ParsedWindow) []string {
	resets := ""
	if !w.ResetsAt.IsZero() {
		if d := time.Until(w.ResetsAt); d > 0 {
			resets = cli.FormatCountdown(int(d.Hours()), int(d.Minutes())%60)
		} else {
			resets = "now"
		}
	}
	return []string{label, fmt.Sprintf("%d%%", w.Percent), cli.UsageBar(w.Percent, 20), resets}
}

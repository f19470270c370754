package cmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/ctrip/internal/cli"
	"github.com/theirongolddev/ctrip/internal/config"
	"github.com/theirongolddev/ctrip/internal/source"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive configuration wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

// setupValues holds the form's string-typed fields until they are validated.
type setupValues struct {
	mode       string
	icon       string
	margin     string
	rateLimits bool
	maxAge     string
	maxCount   string
}

func newSetupValues(cfg config.Config) *setupValues {
	return &setupValues{
		mode:       string(cfg.Billing.Mode),
		icon:       cfg.Billing.Icon,
		margin:     strconv.FormatFloat(cfg.Billing.SafetyMargin, 'f', -1, 64),
		rateLimits: cfg.General.RateLimits,
		maxAge:     strconv.Itoa(cfg.Cache.MaxAgeHours),
		maxCount:   strconv.Itoa(cfg.Cache.MaxCount),
	}
}

// apply copies validated form values into cfg.
func (v *setupValues) apply(cfg *config.Config) error {
	margin, err := parseMargin(v.margin)
	if err != nil {
		return err
	}
	maxAge, err := parseNonNegative(v.maxAge)
	if err != nil {
		return fmt.Errorf("max age: %w", err)
	}
	maxCount, err := parseNonNegative(v.maxCount)
	if err != nil {
		return fmt.Errorf("max count: %w", err)
	}

	cfg.Billing = config.BillingConfig{
		Mode:         config.BillingMode(v.mode),
		Icon:         strings.TrimSpace(v.icon),
		SafetyMargin: margin,
	}.Normalized()
	cfg.General.RateLimits = v.rateLimits
	cfg.Cache.MaxAgeHours = maxAge
	cfg.Cache.MaxCount = maxCount
	return nil
}

func parseMargin(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, errors.New("enter a number such as 1.0")
	}
	if f <= 0 {
		return 0, errors.New("margin must be greater than zero")
	}
	return f, nil
}

func parseNonNegative(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, errors.New("enter a whole number")
	}
	if n < 0 {
		return 0, errors.New("must not be negative")
	}
	return n, nil
}

func newSetupForm(v *setupValues) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Billing mode").
				Description("How session costs are presented").
				Options(
					huh.NewOption("API: pay per token, costs are real spend", string(config.BillingAPI)),
					huh.NewOption("Sub: Pro/Max plan, costs are equivalent value", string(config.BillingSub)),
				).
				Value(&v.mode),
			huh.NewInput().
				Title("Cost icon").
				Value(&v.icon),
			huh.NewInput().
				Title("Safety margin").
				Description("Multiplier applied to subscription value estimates").
				Value(&v.margin).
				Validate(func(s string) error {
					_, err := parseMargin(s)
					return err
				}),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Show claude.ai plan rate limits?").
				Description("Reads your Claude Code login and queries the usage endpoint").
				Value(&v.rateLimits),
			huh.NewInput().
				Title("Session cache max age (hours)").
				Value(&v.maxAge).
				Validate(func(s string) error {
					_, err := parseNonNegative(s)
					return err
				}),
			huh.NewInput().
				Title("Session cache max entries").
				Value(&v.maxCount).
				Validate(func(s string) error {
					_, err := parseNonNegative(s)
					return err
				}),
		),
	)
}

func runSetup(cmd *cobra.Command, _ []string) error {
	cfg := loadConfig()
	out := cmd.OutOrStdout()

	var sessions int
	for _, root := range source.ProjectsRoots(cfg.ClaudeDirPath()) {
		files, _ := filepath.Glob(filepath.Join(root, "*", "*.jsonl"))
		sessions += len(files)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "  Welcome to ctrip!")
	if sessions > 0 {
		fmt.Fprintf(out, "  Found %s session transcripts in %s\n", cli.FormatNumber(int64(sessions)), cfg.ClaudeDirPath())
	}
	fmt.Fprintln(out)

	v := newSetupValues(cfg)
	if err := newSetupForm(v).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Fprintln(out, "  Setup cancelled, nothing saved.")
			return nil
		}
		return fmt.Errorf("setup form: %w", err)
	}
	if err := v.apply(&cfg); err != nil {
		return err
	}

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "  Saved to %s\n", config.ConfigPath())
	fmt.Fprintln(out, "  Run `ctrip setup` anytime to reconfigure.")
	fmt.Fprintln(out)
	return nil
}

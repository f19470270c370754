package cli

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/ctrip/internal/config"
	"github.com/theirongolddev/ctrip/internal/gitinfo"
	"github.com/theirongolddev/ctrip/internal/model"
)

// Status line colors use the 16-color ANSI palette so they follow the
// host terminal's theme.
var (
	ColorRed     = lipgloss.Color("1")
	ColorGreen   = lipgloss.Color("2")
	ColorYellow  = lipgloss.Color("3")
	ColorMagenta = lipgloss.Color("5")
	ColorCyan    = lipgloss.Color("6")
)

// Styles
var (
	greenStyle   = lipgloss.NewStyle().Foreground(ColorGreen)
	yellowStyle  = lipgloss.NewStyle().Foreground(ColorYellow)
	redStyle     = lipgloss.NewStyle().Foreground(ColorRed)
	cyanStyle    = lipgloss.NewStyle().Foreground(ColorCyan)
	magentaStyle = lipgloss.NewStyle().Foreground(ColorMagenta)
	dimStyle     = lipgloss.NewStyle().Faint(true)
	headerStyle  = lipgloss.NewStyle().Bold(true)
)

const (
	separator       = " | "
	contextBarWidth = 10
	tripHint        = "📈 /trip"
)

// StatusData is everything the status line shows.
type StatusData struct {
	Metrics    model.SessionMetrics
	ModelName  string
	Context    *model.ContextWindow
	RateLimits *model.RateLimits
	Git        *gitinfo.Info
	Activity   *model.Activity
	Billing    config.BillingConfig
	Now        time.Time
}

// RenderEmptyStatusLine writes the line shown before any transcript exists.
func RenderEmptyStatusLine(w io.Writer) error {
	_, err := fmt.Fprintln(w, strings.Join([]string{"💬 0 msgs", "🔧 0 tools", "🎯 0 tok", tripHint}, separator))
	return err
}

// RenderStatusLine writes the main status line followed by optional tool,
// agent and todo lines.
func RenderStatusLine(w io.Writer, d StatusData) error {
	now := d.Now
	if now.IsZero() {
		now = time.Now()
	}

	lines := []string{mainLine(d, now)}
	if d.Activity != nil {
		if l := toolsLine(d.Activity); l != "" {
			lines = append(lines, l)
		}
		lines = append(lines, agentLines(d.Activity, now)...)
		if l := todosLine(d.Activity); l != "" {
			lines = append(lines, l)
		}
	}

	_, err := fmt.Fprintln(w, strings.Join(lines, "\n"))
	return err
}

func mainLine(d StatusData, now time.Time) string {
	m := d.Metrics
	billing := d.Billing.Normalized()

	parts := []string{
		fmt.Sprintf("💬 %d msgs (%s)", m.MessageCount, d.ModelName),
		fmt.Sprintf("🔧 %d tools (%.1f/msg)", m.ToolCount, m.ToolsPerMessage),
		fmt.Sprintf("🎯 %s tok", FormatTokens(m.TotalTokens.Total())),
	}

	if d.Git != nil && d.Git.Branch != "" {
		branch := d.Git.Branch
		if d.Git.Dirty {
			branch += "*"
		}
		parts = append(parts, cyanStyle.Render("⎇ "+branch))
	}

	if d.Context != nil {
		parts = append(parts, ContextBar(d.Context.UsagePercent))
	}

	parts = append(parts,
		fmt.Sprintf("⚡ %d%% cached", int(math.Round(m.CacheEfficiency))),
		fmt.Sprintf("📝 %s/msg", FormatTokenRate(m.TokensPerMessage)),
	)

	if d.Activity != nil && !d.Activity.SessionStart.IsZero() {
		parts = append(parts, "⏱️ "+FormatSessionDuration(now.Sub(d.Activity.SessionStart)))
	}

	if billing.IsSubscription() {
		if rl := d.RateLimits; rl != nil && rl.PlanName != "" {
			parts = append(parts, rateLimitPart(rl))
		}
		parts = append(parts, fmt.Sprintf("%s ~$%.2f value", billing.Icon, m.TotalCost*billing.SafetyMargin))
	}

	parts = append(parts, tripHint)
	return strings.Join(parts, separator)
}

// ContextBar renders a 10-cell usage bar colored by context health.
func ContextBar(percent int) string {
	percent = max(0, min(100, percent))
	filled := min(contextBarWidth, (percent*contextBarWidth+50)/100)

	style := healthStyle(model.ClassifyContextHealth(percent))
	bar := style.Render(strings.Repeat("█", filled)) + dimStyle.Render(strings.Repeat("░", contextBarWidth-filled))
	return fmt.Sprintf("%s %s", bar, style.Render(fmt.Sprintf("%d%%", percent)))
}

func healthStyle(h model.ContextHealth) lipgloss.Style {
	switch h {
	case model.ContextCritical:
		return redStyle
	case model.ContextWarning:
		return yellowStyle
	default:
		return greenStyle
	}
}

func rateLimitPart(rl *model.RateLimits) string {
	if rl.APIUnavailable {
		return fmt.Sprintf("📊 %s %s", rl.PlanName, dimStyle.Render("limits unavailable"))
	}
	return fmt.Sprintf("📊 %s 5h %s | 7d %s", rl.PlanName, percentOrDash(rl.FiveHourPercent), percentOrDash(rl.SevenDayPercent))
}

func percentOrDash(p *int) string {
	if p == nil {
		return "--"
	}
	s := fmt.Sprintf("%d%%", *p)
	switch {
	case *p >= 90:
		return redStyle.Render(s)
	case *p >= 70:
		return yellowStyle.Render(s)
	}
	return s
}

// toolsLine shows running tools, then the five most used completed tools.
func toolsLine(a *model.Activity) string {
	var parts []string
	for _, t := range a.RunningTools {
		s := yellowStyle.Render("◐") + " " + cyanStyle.Render(t.Name)
		if target := ShortPath(t.Target); target != "" {
			s += dimStyle.Render(": " + target)
		}
		parts = append(parts, s)
	}

	type count struct {
		name string
		n    int
	}
	counts := make([]count, 0, len(a.CompletedTools))
	for name, n := range a.CompletedTools {
		counts = append(counts, count{name, n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].n != counts[j].n {
			return counts[i].n > counts[j].n
		}
		return counts[i].name < counts[j].name
	})
	if len(counts) > 5 {
		counts = counts[:5]
	}
	for _, c := range counts {
		parts = append(parts, fmt.Sprintf("%s %s %s", greenStyle.Render("✓"), c.name, dimStyle.Render(fmt.Sprintf("×%d", c.n))))
	}

	return strings.Join(parts, separator)
}

// agentLines shows running agents and the two most recently completed,
// at most three lines.
func agentLines(a *model.Activity, now time.Time) []string {
	var running, done []model.AgentEntry
	for _, ag := range a.Agents {
		if ag.Status == model.ToolRunning {
			running = append(running, ag)
		} else {
			done = append(done, ag)
		}
	}
	if len(done) > 2 {
		done = done[len(done)-2:]
	}
	show := append(running, done...)
	if len(show) > 3 {
		show = show[len(show)-3:]
	}

	lines := make([]string, 0, len(show))
	for _, ag := range show {
		icon := greenStyle.Render("✓")
		end := ag.EndTime
		if ag.Status == model.ToolRunning {
			icon = yellowStyle.Render("◐")
			end = now
		}

		s := icon + " " + magentaStyle.Render(ag.Type)
		if ag.Description != "" {
			s += dimStyle.Render(": " + Truncate(ag.Description, 40))
		}
		if !ag.StartTime.IsZero() && !end.IsZero() {
			s += " " + dimStyle.Render("("+FormatElapsed(end.Sub(ag.StartTime))+")")
		}
		lines = append(lines, s)
	}
	return lines
}

// todosLine shows the in-progress todo, or a completion note when every
// todo is done.
func todosLine(a *model.Activity) string {
	if len(a.Todos) == 0 {
		return ""
	}

	completed := 0
	var current *model.TodoItem
	for i, t := range a.Todos {
		switch t.Status {
		case "completed":
			completed++
		case "in_progress":
			if current == nil {
				current = &a.Todos[i]
			}
		}
	}
	progress := dimStyle.Render(fmt.Sprintf("(%d/%d)", completed, len(a.Todos)))

	if current == nil {
		if completed == len(a.Todos) {
			return greenStyle.Render("✓") + " All todos complete " + progress
		}
		return ""
	}
	return yellowStyle.Render("▸") + " " + Truncate(current.Content, 50) + " " + progress
}

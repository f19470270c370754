package cli

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/theirongolddev/ctrip/internal/analytics"
	"github.com/theirongolddev/ctrip/internal/config"
	"github.com/theirongolddev/ctrip/internal/model"
)

const (
	tripWidth  = 63
	wrapWidth  = tripWidth - 2
	topActions = 3
)

// TripData is everything the trip computer shows.
type TripData struct {
	Metrics    model.SessionMetrics
	ModelName  string
	Project    string
	Context    *model.ContextWindow
	RateLimits *model.RateLimits
	Analytics  model.SessionAnalytics
	Billing    config.BillingConfig
	Now        time.Time
}

// displayScore is the health score shown to the user. Without a context
// window the context component is left out and the maximum drops to 70.
func (d TripData) displayScore() (score, maxScore int) {
	hasContext := d.Context != nil
	if hasContext {
		return d.Analytics.HealthScore, analytics.MaxScore(true)
	}
	return d.Analytics.CacheScore + d.Analytics.EfficiencyScore, analytics.MaxScore(false)
}

// RenderTripComputer writes the multi-section session report.
func RenderTripComputer(w io.Writer, d TripData) error {
	if d.Now.IsZero() {
		d.Now = time.Now()
	}
	d.Billing = d.Billing.Normalized()

	var b strings.Builder
	rule := strings.Repeat("═", tripWidth)

	b.WriteString("\n" + rule + "\n")
	b.WriteString(headerStyle.Render("  📊 TRIP COMPUTER - Session Analytics Dashboard") + "\n")
	b.WriteString(rule + "\n\n")

	renderQuickSummary(&b, d)
	renderSessionHealth(&b, d)
	renderModelMix(&b, d.Metrics)
	if d.Billing.IsSubscription() {
		renderCostDrivers(&b, d)
	} else {
		renderTokenDistribution(&b, d.Metrics)
	}
	renderEfficiency(&b, d)
	renderActions(&b, d.Analytics.OptimizationActions)
	renderBehavior(&b, d.Analytics.BehavioralAnalysis)

	b.WriteString("\n" + rule + "\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func section(b *strings.Builder, title string) {
	b.WriteString(headerStyle.Render(title) + "\n")
	b.WriteString(dimStyle.Render(strings.Repeat("─", tripWidth)) + "\n")
}

func renderQuickSummary(b *strings.Builder, d TripData) {
	m := d.Metrics
	score, maxScore := d.displayScore()

	section(b, "📊 QUICK SUMMARY")
	fmt.Fprintf(b, "  Health: %s (%d/%d)\n", analytics.LabelFor(score, maxScore), score, maxScore)
	fmt.Fprintf(b, "  Messages: %d | Tools: %d | Tokens: %s\n",
		m.MessageCount, m.ToolCount, FormatTokens(m.TotalTokens.Total()))
	switch {
	case d.ModelName != "" && d.Project != "":
		fmt.Fprintf(b, "  Model: %s | Project: %s\n", d.ModelName, d.Project)
	case d.ModelName != "":
		fmt.Fprintf(b, "  Model: %s\n", d.ModelName)
	case d.Project != "":
		fmt.Fprintf(b, "  Project: %s\n", d.Project)
	}
	if c := d.Context; c != nil {
		fmt.Fprintf(b, "  Context: %d%% (%s %s)\n", c.UsagePercent, healthIcon(c.Health), c.Health)
	}
	if rl := d.RateLimits; rl != nil && rl.PlanName != "" && d.Billing.IsSubscription() {
		renderLimits(b, rl, d.Now)
	}
	b.WriteString("\n")
}

func renderLimits(b *strings.Builder, rl *model.RateLimits, now time.Time) {
	if rl.APIUnavailable {
		fmt.Fprintf(b, "  Limits (%s): unavailable\n", rl.PlanName)
		return
	}
	window := func(label string, pct *int, reset *time.Time) {
		if pct == nil {
			return
		}
		line := fmt.Sprintf("  %s limit (%s): %d%%", label, rl.PlanName, *pct)
		if reset != nil && reset.After(now) {
			line += ", resets " + humanize.RelTime(*reset, now, "ago", "from now")
		}
		b.WriteString(line + "\n")
	}
	window("5-hour", rl.FiveHourPercent, rl.FiveHourResetAt)
	window("7-day", rl.SevenDayPercent, rl.SevenDayResetAt)
}

func renderSessionHealth(b *strings.Builder, d TripData) {
	a := d.Analytics
	m := d.Metrics
	score, maxScore := d.displayScore()

	section(b, fmt.Sprintf("📈 SESSION HEALTH (0-%d)", maxScore))
	fmt.Fprintf(b, "  Overall: %s %d/%d\n\n", stars(score*100/maxScore), score, maxScore)

	fmt.Fprintf(b, "  ⚡ Cache Efficiency: %s %d/40 points\n", indicator(a.CacheScore, 40), a.CacheScore)
	fmt.Fprintf(b, "     %d%% cache hit rate\n\n", int(math.Round(m.CacheEfficiency)))

	if c := d.Context; c != nil {
		fmt.Fprintf(b, "  ⚙️  Context Management: %s %d/30 points\n", indicator(a.ContextScore, 30), a.ContextScore)
		fmt.Fprintf(b, "     %d%% of context window used\n\n", c.UsagePercent)
	}

	fmt.Fprintf(b, "  🎯 Efficiency: %s %d/30 points\n", indicator(a.EfficiencyScore, 30), a.EfficiencyScore)
	fmt.Fprintf(b, "     %.1f tools/msg, %s tok/msg\n\n", m.ToolsPerMessage, FormatTokenRate(m.TokensPerMessage))
}

func renderModelMix(b *strings.Builder, m model.SessionMetrics) {
	section(b, "🤖 MODEL MIX")

	ids := m.ModelIDs()
	if len(ids) == 0 {
		b.WriteString("  No model usage data available\n\n")
		return
	}

	for _, id := range ids {
		mu := m.Models[id]
		share := 0.0
		if m.TotalCost > 0 {
			share = mu.Cost / m.TotalCost * 100
		}
		fmt.Fprintf(b, "  %s\n", mu.DisplayName)
		fmt.Fprintf(b, "  %s %.1f%% of cost\n", MiniBar(share), share)
		fmt.Fprintf(b, "  Tokens: %s across %s requests\n\n",
			FormatTokens(mu.Tokens.Total()), FormatNumber(int64(mu.Requests)))
	}
}

func renderCostDrivers(b *strings.Builder, d TripData) {
	section(b, "💵 COST DRIVERS")

	var total config.CostBreakdown
	for _, id := range d.Metrics.ModelIDs() {
		total.Add(config.BreakdownCost(id, d.Metrics.Models[id].Tokens))
	}
	margin := d.Billing.SafetyMargin
	sum := total.Total() * margin

	line := func(label string, cost float64) {
		cost *= margin
		share := 0.0
		if sum > 0 {
			share = cost / sum * 100
		}
		fmt.Fprintf(b, "  %s: $%.4f (%.1f%%) %s\n", label, cost, share, MiniBar(share))
	}
	line("Input tokens", total.Input)
	line("Output tokens", total.Output)
	line("Cache writes", total.CacheWrite)
	line("Cache reads", total.CacheRead)
	fmt.Fprintf(b, "  Total value: %s\n\n", FormatCost(sum))
}

func renderTokenDistribution(b *strings.Builder, m model.SessionMetrics) {
	section(b, "📊 TOKEN DISTRIBUTION")

	t := m.TotalTokens
	total := t.Total()
	line := func(label string, n int64) {
		share := 0.0
		if total > 0 {
			share = float64(n) / float64(total) * 100
		}
		fmt.Fprintf(b, "  %s: %.1f%% %s\n", label, share, MiniBar(share))
	}
	line("Input", t.Input)
	line("Output", t.Output)
	line("Cache writes", t.CacheCreation)
	line("Cache reads", t.CacheRead)
	b.WriteString("\n")
}

func renderEfficiency(b *strings.Builder, d TripData) {
	m := d.Metrics
	a := d.Analytics

	section(b, "⚡ EFFICIENCY METRICS")

	fmt.Fprintf(b, "  Tool Intensity: %s\n", a.ToolIntensityLabel)
	fmt.Fprintf(b, "    %d tools (%.1f tools/msg) across %d msgs\n\n", m.ToolCount, m.ToolsPerMessage, m.MessageCount)

	fmt.Fprintf(b, "  Response Verbosity: %s\n", a.VerbosityLabel)
	fmt.Fprintf(b, "    %s tokens/msg average\n\n", FormatTokenRate(m.TokensPerMessage))

	fmt.Fprintf(b, "  Context Growth: %s\n\n", a.ContextGrowthLabel)

	ratio := 0.0
	if m.TotalTokens.Input > 0 {
		ratio = float64(m.TotalTokens.Output) / float64(m.TotalTokens.Input)
	}
	fmt.Fprintf(b, "  Output/Input Ratio: %.2fx\n\n", ratio)

	fmt.Fprintf(b, "  Cache Hit Rate: %s\n", FormatPercent(m.CacheEfficiency))
	fmt.Fprintf(b, "    %s\n\n", a.CacheGuidance)
}

func renderActions(b *strings.Builder, actions []model.OptimizationAction) {
	section(b, "🎯 TOP OPTIMIZATION ACTIONS")

	if len(actions) == 0 {
		b.WriteString("  ✅ Session looks well-optimized! Keep up the good work.\n\n")
		return
	}
	for i, a := range actions[:min(topActions, len(actions))] {
		fmt.Fprintf(b, "  %d. [Priority: %d] %s\n", i+1, a.Priority, a.Action)
		fmt.Fprintf(b, "     → %s\n\n", a.Impact)
	}
}

func renderBehavior(b *strings.Builder, observations []string) {
	section(b, "🧠 SESSION ASSESSMENT")

	for _, obs := range observations {
		for i, line := range WrapText(obs, wrapWidth) {
			if i == 0 {
				b.WriteString("  • " + line + "\n")
			} else {
				b.WriteString("    " + line + "\n")
			}
		}
		b.WriteString("\n")
	}
}

// MiniBar renders a 10-cell bar for a 0-100 share, one cell per full 10%.
func MiniBar(percent float64) string {
	filled := max(0, min(10, int(percent/10)))
	return strings.Repeat("█", filled) + strings.Repeat("░", 10-filled)
}

func stars(percent int) string {
	n := max(1, min(5, (percent+19)/20))
	return strings.Repeat("⭐", n)
}

func indicator(score, maxScore int) string {
	pct := score * 100 / maxScore
	switch {
	case pct >= 80:
		return "✅"
	case pct >= 50:
		return "➡️"
	default:
		return "⚠️"
	}
}

func healthIcon(h model.ContextHealth) string {
	switch h {
	case model.ContextCritical:
		return "🔴"
	case model.ContextWarning:
		return "🟡"
	case model.ContextHealthy:
		return "🟢"
	}
	return "⚪"
}

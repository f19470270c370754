package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/theirongolddev/ctrip/internal/analytics"
	"github.com/theirongolddev/ctrip/internal/config"
	"github.com/theirongolddev/ctrip/internal/model"
)

func renderTrip(t *testing.T, d TripData) string {
	t.Helper()
	var buf bytes.Buffer
	if err := RenderTripComputer(&buf, d); err != nil {
		t.Fatal(err)
	}
	return buf.String()
}

func TestRenderTripComputer_API(t *testing.T) {
	m := sampleMetrics()
	ctx := &model.ContextWindow{Size: 200_000, Usage: 40_000, UsagePercent: 43, Health: model.ContextHealthy}
	a := analytics.NewScorer(config.DefaultBilling()).Compute(m, ctx)

	out := renderTrip(t, TripData{Metrics: m, ModelName: "Sonnet 4.5", Project: "gitlore", Context: ctx, Analytics: a, Billing: config.DefaultBilling()})

	for _, want := range []string{
		"TRIP COMPUTER",
		"Model: Sonnet 4.5 | Project: gitlore",
		"📊 QUICK SUMMARY",
		"Messages: 2 | Tools: 1 | Tokens: 5.6K",
		"Context: 43% (🟢 healthy)",
		"📈 SESSION HEALTH (0-100)",
		"Context Management:",
		"🤖 MODEL MIX",
		"Sonnet 4.5",
		"100.0% of cost",
		"📊 TOKEN DISTRIBUTION",
		"Input: 44.6%",
		"Output/Input Ratio: 0.60x",
		"Cache Hit Rate: 81.",
		"🎯 TOP OPTIMIZATION ACTIONS",
		"🧠 SESSION ASSESSMENT",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("trip computer missing %q", want)
		}
	}
	if strings.Contains(out, "COST DRIVERS") {
		t.Error("API mode should show token distribution, not cost drivers")
	}
	if want := analytics.LabelFor(a.HealthScore, 100); !strings.Contains(out, want) {
		t.Errorf("missing health label %q", want)
	}
}

func TestRenderTripComputer_NoContext(t *testing.T) {
	m := sampleMetrics()
	a := analytics.NewScorer(config.DefaultBilling()).Compute(m, nil)
	out := renderTrip(t, TripData{Metrics: m, Analytics: a})

	score := a.CacheScore + a.EfficiencyScore
	if !strings.Contains(out, "📈 SESSION HEALTH (0-70)") {
		t.Error("missing 0-70 health scale without context")
	}
	if !strings.Contains(out, "Health: "+analytics.LabelFor(score, 70)) {
		t.Error("health label should be rescaled from 70")
	}
	if strings.Contains(out, "Context Management") {
		t.Error("context management shown without context data")
	}
}

func TestRenderTripComputer_Subscription(t *testing.T) {
	m := sampleMetrics()
	billing := config.BillingConfig{Mode: config.BillingSub, Icon: "💳", SafetyMargin: 1.0}
	a := analytics.NewScorer(billing).Compute(m, nil)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	reset := now.Add(3 * time.Hour)
	five := 38

	out := renderTrip(t, TripData{
		Metrics:    m,
		Analytics:  a,
		Billing:    billing,
		Now:        now,
		RateLimits: &model.RateLimits{PlanName: "Max", FiveHourPercent: &five, FiveHourResetAt: &reset},
	})

	for _, want := range []string{
		"💵 COST DRIVERS",
		"Input tokens: $0.0075 (23.8%)",
		"Output tokens: $0.0225 (71.4%)",
		"Total value: $0.03",
		"5-hour limit (Max): 38%, resets 3 hours from now",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("trip computer missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "TOKEN DISTRIBUTION") {
		t.Error("subscription mode should show cost drivers")
	}
}

func TestRenderTripComputer_ActionsAndWrapping(t *testing.T) {
	a := model.SessionAnalytics{
		OptimizationActions: []model.OptimizationAction{
			{Action: "first", Impact: "i1", Priority: 5},
			{Action: "second", Impact: "i2", Priority: 4},
			{Action: "third", Impact: "i3", Priority: 3},
			{Action: "fourth", Impact: "i4", Priority: 2},
		},
		BehavioralAnalysis: []string{strings.Repeat("lorem ipsum ", 20)},
	}
	out := renderTrip(t, TripData{Metrics: model.EmptyMetrics("x"), Analytics: a})

	if !strings.Contains(out, "3. [Priority: 3] third") || strings.Contains(out, "fourth") {
		t.Error("expected exactly the top three actions")
	}
	if !strings.Contains(out, "No model usage data available") {
		t.Error("missing empty model mix note")
	}

	inBehavior := false
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "SESSION ASSESSMENT") {
			inBehavior = true
			continue
		}
		if inBehavior && strings.Contains(line, "lorem") {
			text := strings.TrimPrefix(strings.TrimPrefix(line, "  • "), "    ")
			if n := len([]rune(text)); n > wrapWidth {
				t.Errorf("behavior line is %d runes wide: %q", n, text)
			}
		}
	}
}

func TestRenderTripComputer_NoActions(t *testing.T) {
	out := renderTrip(t, TripData{Metrics: model.EmptyMetrics("x")})
	if !strings.Contains(out, "Session looks well-optimized") {
		t.Error("missing well-optimized note")
	}
}

func TestMiniBarAndStars(t *testing.T) {
	if got := MiniBar(44.6); got != "████░░░░░░" {
		t.Errorf("MiniBar(44.6) = %q", got)
	}
	if got := MiniBar(150); got != "██████████" {
		t.Errorf("MiniBar(150) = %q", got)
	}
	if got := stars(0); got != "⭐" {
		t.Errorf("stars(0) = %q", got)
	}
	if got := stars(81); got != "⭐⭐⭐⭐⭐" {
		t.Errorf("stars(81) = %q", got)
	}
}

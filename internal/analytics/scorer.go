// Package analytics turns session metrics into a health score, labels and
// ranked suggestions. Everything here is a pure function of its inputs.
package analytics

import (
	"fmt"
	"sort"

	"github.com/theirongolddev/ctrip/internal/config"
	"github.com/theirongolddev/ctrip/internal/model"
)

// Maximum attainable health score. Without a context window the context
// component is excluded from the displayed maximum.
const (
	MaxScoreWithContext    = 100
	MaxScoreWithoutContext = 70
)

// MaxScore returns the display maximum for the given context availability.
func MaxScore(hasContext bool) int {
	if hasContext {
		return MaxScoreWithContext
	}
	return MaxScoreWithoutContext
}

// Scorer computes SessionAnalytics under a fixed billing configuration.
type Scorer struct {
	billing config.BillingConfig
}

// NewScorer returns a Scorer for the given billing settings.
func NewScorer(billing config.BillingConfig) *Scorer {
	return &Scorer{billing: billing.Normalized()}
}

// Compute scores m. ctx may be nil when the context window is unknown.
func (s *Scorer) Compute(m model.SessionMetrics, ctx *model.ContextWindow) model.SessionAnalytics {
	cache := CacheScore(m.CacheEfficiency)
	context := ContextScore(ctx)
	efficiency := EfficiencyScore(m.TokensPerMessage, m.ToolsPerMessage)
	health := cache + context + efficiency

	return model.SessionAnalytics{
		HealthScore:         health,
		HealthLabel:         HealthLabel(health),
		CacheScore:          cache,
		ContextScore:        context,
		EfficiencyScore:     efficiency,
		ToolIntensityLabel:  ToolIntensity(m.ToolCount, m.ToolsPerMessage, m.MessageCount),
		VerbosityLabel:      Verbosity(m.TokensPerMessage),
		ContextGrowthLabel:  ContextGrowth(m.TokensPerMessage),
		CacheGuidance:       CacheGuidance(m.CacheEfficiency),
		OptimizationActions: s.actions(m),
		BehavioralAnalysis:  s.behavior(m, ctx),
	}
}

// CacheScore awards up to 40 points for cache efficiency.
func CacheScore(efficiency float64) int {
	switch {
	case efficiency >= 90:
		return 40
	case efficiency >= 70:
		return 30
	case efficiency >= 50:
		return 20
	default:
		return 10
	}
}

// ContextScore awards up to 30 points for context headroom; 15 when unknown.
func ContextScore(ctx *model.ContextWindow) int {
	switch {
	case ctx == nil:
		return 15
	case ctx.UsagePercent < 70:
		return 30
	case ctx.UsagePercent < 85:
		return 20
	default:
		return 10
	}
}

// EfficiencyScore awards up to 30 points for balanced verbosity and tool use.
func EfficiencyScore(tokensPerMsg, toolsPerMsg float64) int {
	score := 30
	if tokensPerMsg > 15000 && toolsPerMsg < 10 {
		score -= 10
	}
	if toolsPerMsg >= 5 && toolsPerMsg <= 20 {
		score = min(30, score+5)
	}
	return max(0, min(30, score))
}

func (s *Scorer) actions(m model.SessionMetrics) []model.OptimizationAction {
	actions := []model.OptimizationAction{}

	if m.TokensPerMessage > 15000 && m.ToolsPerMessage < 10 {
		actions = append(actions, model.OptimizationAction{
			Action:   "Add brevity constraints to prompts",
			Impact:   s.savingsImpact(m, 0.25, "High"),
			Priority: 25,
		})
	}

	if m.CacheEfficiency < 70 {
		actions = append(actions, model.OptimizationAction{
			Action:   "Start fresh session to rebuild cache",
			Impact:   s.savingsImpact(m, 0.20, "Moderate"),
			Priority: 20,
		})
	}

	if m.ToolsPerMessage > 30 && m.MessageCount > 10 {
		actions = append(actions, model.OptimizationAction{
			Action:   "Review if tasks could be simplified",
			Impact:   "Potential workflow optimization",
			Priority: 15,
		})
	}

	sort.SliceStable(actions, func(i, j int) bool {
		return actions[i].Priority > actions[j].Priority
	})
	return actions
}

// savingsImpact phrases the benefit of cutting a fraction of spend. Subscription
// users see a dollar value per 10 messages; API users see a percentage.
func (s *Scorer) savingsImpact(m model.SessionMetrics, fraction float64, grade string) string {
	pct := int(fraction * 100)
	if !s.billing.IsSubscription() {
		return fmt.Sprintf("%s efficiency gain (%d%% improvement)", grade, pct)
	}

	perTen := 0.0
	if m.MessageCount > 0 {
		perTen = m.TotalCost * fraction / float64(m.MessageCount) * 10 * s.billing.SafetyMargin
	}
	return fmt.Sprintf("Save ~$%.2f/10 msgs (%d%% reduction)", perTen, pct)
}

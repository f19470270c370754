package analytics

// HealthLabel maps a 0-100 health score to a star rating.
func HealthLabel(score int) string {
	switch {
	case score >= 90:
		return "⭐⭐⭐⭐⭐ Excellent"
	case score >= 75:
		return "⭐⭐⭐⭐ Good"
	case score >= 60:
		return "⭐⭐⭐ Fair"
	case score >= 40:
		return "⭐⭐ Poor"
	default:
		return "⭐ Critical"
	}
}

// LabelFor rescales score from [0, maxScore] to [0, 100] before labelling.
func LabelFor(score, maxScore int) string {
	if maxScore <= 0 {
		return HealthLabel(0)
	}
	return HealthLabel(score * 100 / maxScore)
}

// ToolIntensity classifies how tool-heavy the session is.
func ToolIntensity(toolCount int, toolsPerMsg float64, messageCount int) string {
	switch {
	case toolCount >= 250 && toolsPerMsg >= 15:
		return "Very intensive - heavy implementation with high tool rate"
	case toolCount >= 100 && toolsPerMsg >= 15 && messageCount < 20:
		return "Intensive - focused implementation burst"
	case toolCount >= 100 && messageCount >= 20:
		return "Moderate - steady workflow over extended session"
	case toolCount >= 25 && toolsPerMsg < 10:
		return "Light - planning/exploration phase"
	default:
		return "Minimal - early session or simple tasks"
	}
}

// Verbosity classifies output tokens per message.
func Verbosity(tokensPerMsg float64) string {
	switch {
	case tokensPerMsg > 15000:
		return "High - detailed responses"
	case tokensPerMsg > 8000:
		return "Moderate - balanced responses"
	default:
		return "Concise - brief responses"
	}
}

// ContextGrowth classifies how fast each message fills the context window.
func ContextGrowth(tokensPerMsg float64) string {
	switch {
	case tokensPerMsg > 50000:
		return "Fast growth → consider /clear soon"
	case tokensPerMsg > 20000:
		return "Moderate growth → monitor context size"
	default:
		return "Slow growth → healthy pace"
	}
}

// CacheGuidance advises whether to keep the session based on cache efficiency.
func CacheGuidance(efficiency float64) string {
	switch {
	case efficiency > 90:
		return "Excellent → stay in session"
	case efficiency > 70:
		return "Good → cache is helping"
	default:
		return "Low → consider /clear to rebuild cache"
	}
}

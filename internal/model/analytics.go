package model

// OptimizationAction is one ranked suggestion produced by the scorer.
type OptimizationAction struct {
	Action   string `json:"action"`
	Impact   string `json:"impact"`
	Priority int    `json:"priority"`
}

// SessionAnalytics is the scoring result for one session.
type SessionAnalytics struct {
	HealthScore     int    `json:"health_score"`
	HealthLabel     string `json:"health_label"`
	CacheScore      int    `json:"cache_score"`
	ContextScore    int    `json:"context_score"`
	EfficiencyScore int    `json:"efficiency_score"`

	ToolIntensityLabel string `json:"tool_intensity_label"`
	VerbosityLabel     string `json:"verbosity_label"`
	ContextGrowthLabel string `json:"context_growth_label"`
	CacheGuidance      string `json:"cache_guidance"`

	OptimizationActions []OptimizationAction `json:"optimization_actions"`
	BehavioralAnalysis  []string             `json:"behavioral_analysis"`
}

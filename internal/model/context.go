package model

// ContextHealth classifies how full the context window is.
type ContextHealth string

const (
	ContextHealthy  ContextHealth = "healthy"
	ContextWarning  ContextHealth = "warning"
	ContextCritical ContextHealth = "critical"
)

// Context window thresholds, in percent.
const (
	ContextWarningPercent  = 70
	ContextCriticalPercent = 85
)

// ContextWindow is a snapshot of the model's context usage supplied by the hook input.
type ContextWindow struct {
	Size         int64         `json:"size"`
	Usage        int64         `json:"usage"`
	UsagePercent int           `json:"usage_percent"`
	Health       ContextHealth `json:"health_status"`
}

// ClassifyContextHealth maps a usage percentage to a health state.
func ClassifyContextHealth(percent int) ContextHealth {
	switch {
	case percent >= ContextCriticalPercent:
		return ContextCritical
	case percent >= ContextWarningPercent:
		return ContextWarning
	default:
		return ContextHealthy
	}
}

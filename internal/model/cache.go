package model

// CacheVersion tags the on-disk SessionCache format.
const CacheVersion = "1.0.0"

// SessionCache is the persisted result of one slow-path pass.
// LastUpdated and TranscriptMtime are unix seconds.
type SessionCache struct {
	Version         string           `json:"version"`
	SessionID       string           `json:"session_id"`
	LastUpdated     int64            `json:"last_updated"`
	TranscriptMtime int64            `json:"transcript_mtime"`
	TranscriptPath  string           `json:"transcript_path"`
	Metrics         SessionMetrics   `json:"metrics"`
	ContextWindow   *ContextWindow   `json:"context_window,omitempty"`
	ModelName       string           `json:"model_name,omitempty"`
	Analytics       SessionAnalytics `json:"analytics"`
	RateLimits      *RateLimits      `json:"rate_limits,omitempty"`
}

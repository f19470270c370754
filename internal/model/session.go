// Package model defines domain types for ctrip session metrics and analytics.
package model

import "sort"

// TokenUsage holds billed token counts for one request, one model, or a whole session.
type TokenUsage struct {
	Input         int64 `json:"input"`
	Output        int64 `json:"output"`
	CacheCreation int64 `json:"cache_creation"`
	CacheRead     int64 `json:"cache_read"`
}

// Add folds o into u.
func (u *TokenUsage) Add(o TokenUsage) {
	u.Input += o.Input
	u.Output += o.Output
	u.CacheCreation += o.CacheCreation
	u.CacheRead += o.CacheRead
}

// Max returns the per-category maximum of u and o.
func (u TokenUsage) Max(o TokenUsage) TokenUsage {
	return TokenUsage{
		Input:         max(u.Input, o.Input),
		Output:        max(u.Output, o.Output),
		CacheCreation: max(u.CacheCreation, o.CacheCreation),
		CacheRead:     max(u.CacheRead, o.CacheRead),
	}
}

// Total returns the sum of all four categories.
func (u TokenUsage) Total() int64 {
	return u.Input + u.Output + u.CacheCreation + u.CacheRead
}

// ModelUsage tracks per-model token usage within a session.
type ModelUsage struct {
	ModelID     string     `json:"model_id"`
	DisplayName string     `json:"display_name"`
	Requests    int        `json:"requests"`
	Tokens      TokenUsage `json:"tokens"`
	Cost        float64    `json:"cost"`
}

// SessionMetrics holds aggregated metrics for one session (primary transcript plus its agents).
type SessionMetrics struct {
	SessionID    string                 `json:"session_id"`
	MessageCount int                    `json:"message_count"`
	ToolCount    int                    `json:"tool_count"`
	TotalTokens  TokenUsage             `json:"total_tokens"`
	Models       map[string]*ModelUsage `json:"models"`

	CacheEfficiency  float64 `json:"cache_efficiency"`
	TokensPerMessage float64 `json:"tokens_per_message"`
	ToolsPerMessage  float64 `json:"tools_per_message"`
	TotalCost        float64 `json:"total_cost"`
}

// EmptyMetrics returns all-zero metrics for the given session.
func EmptyMetrics(sessionID string) SessionMetrics {
	return SessionMetrics{
		SessionID: sessionID,
		Models:    make(map[string]*ModelUsage),
	}
}

// ModelIDs returns the model identifiers in lexicographic order.
func (m SessionMetrics) ModelIDs() []string {
	ids := make([]string, 0, len(m.Models))
	for id := range m.Models {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

package claudeai

import (
	"encoding/json"
	"time"
)

// UsageResponse is the raw API response from the OAuth usage endpoint.
type UsageResponse struct {
	FiveHour *UsageWindow `json:"five_hour"`
	SevenDay *UsageWindow `json:"seven_day"`
}

// UsageWindow is a single rate-limit window from the API.
// Utilization can be int, float, or string, so it is kept as raw JSON.
type UsageWindow struct {
	Utilization json.RawMessage `json:"utilization"`
	ResetsAt    *string         `json:"resets_at"`
}

// ParsedUsage holds normalized usage windows. A nil window was not reported.
type ParsedUsage struct {
	FiveHour *ParsedWindow
	SevenDay *ParsedWindow
}

// ParsedWindow is a single rate-limit window, normalized for display.
type ParsedWindow struct {
	Percent  int // 0-100
	ResetsAt time.Time
}

// credentialsFile mirrors ~/.claude/.credentials.json.
type credentialsFile struct {
	ClaudeAiOauth *struct {
		AccessToken      string `json:"accessToken"`
		SubscriptionType string `json:"subscriptionType"`
		ExpiresAt        int64  `json:"expiresAt"` // unix milliseconds
	} `json:"claudeAiOauth"`
}

// Credentials is the OAuth login Claude Code stores for claude.ai accounts.
type Credentials struct {
	AccessToken      string
	SubscriptionType string
	ExpiresAt        time.Time // zero if not recorded
}

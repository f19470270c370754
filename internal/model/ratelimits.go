package model

import "time"

// RateLimits is a snapshot of subscription usage windows.
// Percent fields are nil when the window was not reported.
type RateLimits struct {
	PlanName        string     `json:"plan_name,omitempty"`
	FiveHourPercent *int       `json:"five_hour_percent,omitempty"`
	SevenDayPercent *int       `json:"seven_day_percent,omitempty"`
	FiveHourResetAt *time.Time `json:"five_hour_reset_at,omitempty"`
	SevenDayResetAt *time.Time `json:"seven_day_reset_at,omitempty"`
	APIUnavailable  bool       `json:"api_unavailable"`
}

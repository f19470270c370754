package config

import (
	"strings"

	"github.com/theirongolddev/ctrip/internal/model"
)

// ModelPricing holds per-million-token prices for a model.
// Cache writes and reads are billed as multiples of the input rate.
type ModelPricing struct {
	InputPerMTok   float64
	OutputPerMTok  float64
	CacheWriteMult float64
	CacheReadMult  float64
}

type pricingEntry struct {
	Key     string
	Pricing ModelPricing
}

// defaultPricing is consulted in order; the first key contained in the model
// identifier wins, so more specific keys must precede their prefixes.
var defaultPricing = []pricingEntry{
	{"opus-4-6", ModelPricing{InputPerMTok: 5.00, OutputPerMTok: 25.00, CacheWriteMult: 1.25, CacheReadMult: 0.10}},
	{"opus-4-5", ModelPricing{InputPerMTok: 5.00, OutputPerMTok: 25.00, CacheWriteMult: 1.25, CacheReadMult: 0.10}},
	{"opus-4", ModelPricing{InputPerMTok: 15.00, OutputPerMTok: 75.00, CacheWriteMult: 1.25, CacheReadMult: 0.10}},
	{"opus-3", ModelPricing{InputPerMTok: 15.00, OutputPerMTok: 75.00, CacheWriteMult: 1.25, CacheReadMult: 0.10}},
	{"sonnet-4-6", ModelPricing{InputPerMTok: 3.00, OutputPerMTok: 15.00, CacheWriteMult: 1.25, CacheReadMult: 0.10}},
	{"sonnet-4-5", ModelPricing{InputPerMTok: 3.00, OutputPerMTok: 15.00, CacheWriteMult: 1.25, CacheReadMult: 0.10}},
	{"sonnet-4", ModelPricing{InputPerMTok: 3.00, OutputPerMTok: 15.00, CacheWriteMult: 1.25, CacheReadMult: 0.10}},
	{"sonnet-3-7", ModelPricing{InputPerMTok: 3.00, OutputPerMTok: 15.00, CacheWriteMult: 1.25, CacheReadMult: 0.10}},
	{"haiku-4-5", ModelPricing{InputPerMTok: 1.00, OutputPerMTok: 5.00, CacheWriteMult: 1.25, CacheReadMult: 0.10}},
	{"haiku-3-5", ModelPricing{InputPerMTok: 0.80, OutputPerMTok: 4.00, CacheWriteMult: 1.25, CacheReadMult: 0.10}},
	{"haiku-3", ModelPricing{InputPerMTok: 0.25, OutputPerMTok: 1.25, CacheWriteMult: 1.20, CacheReadMult: 0.12}},
}

// DefaultPricing applies to any model no table key matches.
var DefaultPricing = ModelPricing{InputPerMTok: 3.00, OutputPerMTok: 15.00, CacheWriteMult: 1.25, CacheReadMult: 0.10}

// LookupPricing returns the pricing for a model by substring match against the
// table keys. Returns DefaultPricing and false if no key matches.
func LookupPricing(modelID string) (ModelPricing, bool) {
	for _, e := range defaultPricing {
		if strings.Contains(modelID, e.Key) {
			return e.Pricing, true
		}
	}
	return DefaultPricing, false
}

// CostBreakdown is a cost split by token category, in USD.
type CostBreakdown struct {
	Input      float64
	Output     float64
	CacheWrite float64
	CacheRead  float64
}

// Total sums the categories.
func (c CostBreakdown) Total() float64 {
	return c.Input + c.Output + c.CacheWrite + c.CacheRead
}

// Add accumulates other into c.
func (c *CostBreakdown) Add(other CostBreakdown) {
	c.Input += other.Input
	c.Output += other.Output
	c.CacheWrite += other.CacheWrite
	c.CacheRead += other.CacheRead
}

// BreakdownCost prices each token category of u separately.
func BreakdownCost(modelID string, u model.TokenUsage) CostBreakdown {
	p, _ := LookupPricing(modelID)
	return CostBreakdown{
		Input:      float64(u.Input) * p.InputPerMTok / 1_000_000,
		Output:     float64(u.Output) * p.OutputPerMTok / 1_000_000,
		CacheWrite: float64(u.CacheCreation) * p.InputPerMTok * p.CacheWriteMult / 1_000_000,
		CacheRead:  float64(u.CacheRead) * p.InputPerMTok * p.CacheReadMult / 1_000_000,
	}
}

// CalculateCost computes the estimated cost in USD for the given token usage.
func CalculateCost(modelID string, u model.TokenUsage) float64 {
	return BreakdownCost(modelID, u).Total()
}

type displayRule struct {
	keys []string
	name string
}

var displayNames = []displayRule{
	{[]string{"opus-4-6", "opus-4.6"}, "Opus 4.6"},
	{[]string{"opus-4-5", "opus-4.5"}, "Opus 4.5"},
	{[]string{"opus-4"}, "Opus 4"},
	{[]string{"opus"}, "Opus"},
	{[]string{"sonnet-4-6", "sonnet-4.6"}, "Sonnet 4.6"},
	{[]string{"sonnet-4-5", "sonnet-4.5"}, "Sonnet 4.5"},
	{[]string{"sonnet-4"}, "Sonnet 4"},
	{[]string{"sonnet-3-7", "sonnet-3.7"}, "Sonnet 3.7"},
	{[]string{"sonnet"}, "Sonnet"},
	{[]string{"haiku-4-5", "haiku-4.5"}, "Haiku 4.5"},
	{[]string{"haiku-3-5", "haiku-3.5"}, "Haiku 3.5"},
	{[]string{"haiku"}, "Haiku"},
}

// DisplayName returns a short human name for a model identifier,
// e.g. "claude-sonnet-4-5-20250929" -> "Sonnet 4.5". Unknown ids are returned as-is.
func DisplayName(modelID string) string {
	lower := strings.ToLower(modelID)
	for _, r := range displayNames {
		for _, k := range r.keys {
			if strings.Contains(lower, k) {
				return r.name
			}
		}
	}
	return modelID
}

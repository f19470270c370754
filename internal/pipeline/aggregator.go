package pipeline

import (
	"github.com/theirongolddev/ctrip/internal/config"
	"github.com/theirongolddev/ctrip/internal/model"
	"github.com/theirongolddev/ctrip/internal/source"
)

// Fold combines parse results into SessionMetrics. Only the primary result
// contributes message and tool counts. Each deduplicated bucket is added once
// to the session total and once to its model, counting one request.
// Results with an error contribute whatever they parsed before failing.
func Fold(sessionID string, lr *LoadResult) model.SessionMetrics {
	m := model.EmptyMetrics(sessionID)

	m.MessageCount = lr.Primary.MessageCount
	m.ToolCount = lr.Primary.ToolCount
	addBuckets(&m, lr.Primary.Buckets)

	for _, agent := range lr.Agents {
		addBuckets(&m, agent.Buckets)
	}

	Derive(&m)
	return m
}

func addBuckets(m *model.SessionMetrics, buckets []source.Bucket) {
	for _, b := range buckets {
		m.TotalTokens.Add(b.Usage)

		mu, ok := m.Models[b.Model]
		if !ok {
			mu = &model.ModelUsage{
				ModelID:     b.Model,
				DisplayName: config.DisplayName(b.Model),
			}
			m.Models[b.Model] = mu
		}
		mu.Requests++
		mu.Tokens.Add(b.Usage)
	}
}

// Derive fills per-model costs, total cost and the ratio fields of m.
// Costs are summed in model-id order so the float total is reproducible.
func Derive(m *model.SessionMetrics) {
	m.TotalCost = 0
	for _, id := range m.ModelIDs() {
		mu := m.Models[id]
		mu.Cost = config.CalculateCost(id, mu.Tokens)
		m.TotalCost += mu.Cost
	}

	m.CacheEfficiency = 0
	if cached := m.TotalTokens.CacheRead + m.TotalTokens.CacheCreation; cached > 0 {
		m.CacheEfficiency = float64(m.TotalTokens.CacheRead) / float64(cached) * 100
	}

	m.TokensPerMessage = 0
	m.ToolsPerMessage = 0
	if m.MessageCount > 0 {
		m.TokensPerMessage = float64(m.TotalTokens.Output) / float64(m.MessageCount)
		m.ToolsPerMessage = float64(m.ToolCount) / float64(m.MessageCount)
	}
}

package analytics

import (
	"fmt"
	"math"

	"github.com/theirongolddev/ctrip/internal/model"
)

// DefaultContextSize is assumed for projections when no context window is known.
const DefaultContextSize = 200_000

// autocompactThreshold is the fraction of the window usable before autocompact.
const autocompactThreshold = 0.85

// EarlySession is emitted when no other observation applies.
const EarlySession = "Early session - behavioral patterns not yet established. Continue working to generate meaningful insights."

func (s *Scorer) behavior(m model.SessionMetrics, ctx *model.ContextWindow) []string {
	var out []string

	tools := m.ToolsPerMessage
	tpm := m.TokensPerMessage

	switch {
	case tools > 15 && tpm > 8000:
		out = append(out, fmt.Sprintf(
			"Intensive implementation: %.1f tools/msg alongside detailed %s/msg responses. "+
				"Complex features are being built and explained at the same time, which is expensive but valuable when learning.",
			tools, compactTokens(tpm)))
	case tools > 10 && tpm < 5000:
		out = append(out, fmt.Sprintf(
			"Focused execution: heavy tool activity (%.1f tools/msg) with terse %s/msg replies. "+
				"This is an efficient pattern for well-defined tasks that need little explanation.",
			tools, compactTokens(tpm)))
	case tools < 5 && tpm > 10000:
		out = append(out, fmt.Sprintf(
			"Conversation-heavy: few tools (%.1f tools/msg) but long %s/msg responses. "+
				"The session is explaining or planning rather than executing. Ask for more action and less prose if that detail is not needed.",
			tools, compactTokens(tpm)))
	case tools >= 5 && tpm >= 5000 && tpm <= 10000:
		out = append(out, fmt.Sprintf(
			"Balanced workflow: moderate tool use (%.1f tools/msg) with %s/msg responses. "+
				"Work is being both executed and explained at a sustainable pace.",
			tools, compactTokens(tpm)))
	}

	switch {
	case m.CacheEfficiency > 90:
		out = append(out, fmt.Sprintf(
			"Exceptional cache efficiency (%d%%): prior context is being reused instead of reprocessed. "+
				"A new session would give up this roughly 10x cost advantage, so stay here as long as the task allows.",
			roundPct(m.CacheEfficiency)))
	case m.CacheEfficiency < 50 && m.MessageCount > 5:
		out = append(out, fmt.Sprintf(
			"Low cache efficiency (%d%%) points to frequent context switching or a cold start. "+
				"Most input is processed from scratch. If the session stays unfocused, /clear and rebuild the cache around the current task.",
			roundPct(m.CacheEfficiency)))
	}

	if ctx != nil {
		pct := ctx.UsagePercent
		switch {
		case pct > model.ContextCriticalPercent:
			remaining := 100 - pct
			out = append(out, fmt.Sprintf(
				"Context window is at %d%% with about %d%% left. At %s/msg that is %s before autocompact triggers "+
					"and earlier context starts being dropped. Consider /clear or asking for shorter responses.",
				pct, remaining, compactTokens(tpm), messagesLeft(remaining, tpm, ctx.Size)))
		case pct > model.ContextWarningPercent && tpm > 15000:
			out = append(out, fmt.Sprintf(
				"Context at %d%% with high verbosity (%s/msg) is filling quickly. "+
					`Asking for brevity ("be concise", "just show the code changes") typically cuts output by 50-70%%.`,
				pct, compactTokens(tpm)))
		case pct < 50:
			out = append(out, fmt.Sprintf(
				"Healthy context headroom (%d%% used). The full conversation history fits without compression, "+
					"which keeps references to earlier work coherent.",
				pct))
		}
	}

	avgCost := m.TotalCost / float64(max(m.MessageCount, 1))
	if avgCost > 2.0 && s.billing.IsSubscription() {
		out = append(out, fmt.Sprintf(
			"Averaging $%.2f per message, which is premium territory, with %s of output per message. "+
				"That is justified for hard multi-step problems, but simpler tasks could use a cheaper model or tighter prompts.",
			avgCost, compactTokens(tpm)))
	}

	if m.MessageCount > 10 && tpm > 0 {
		size, usage := float64(DefaultContextSize), 0.0
		if ctx != nil {
			size, usage = float64(ctx.Size), float64(ctx.Usage)
		}
		projected := int(math.Floor((size*autocompactThreshold - usage) / tpm))
		if projected < 5 {
			out = append(out, fmt.Sprintf(
				"At the current pace roughly %d messages remain before the context limit. "+
					"This pattern will not last a long session: reduce verbosity now or plan a /clear soon.",
				max(projected, 0)))
		}
	}

	if len(out) == 0 {
		return []string{EarlySession}
	}
	return out
}

// messagesLeft estimates how many messages fit in the remaining percentage of
// the window at tpm tokens per message.
func messagesLeft(remainingPct int, tpm float64, size int64) string {
	if tpm <= 0 || size <= 0 {
		return "plenty of messages"
	}
	n := int(math.Floor(float64(remainingPct) * float64(size) / 100 / tpm))
	if n == 1 {
		return "about 1 message"
	}
	return fmt.Sprintf("about %d messages", n)
}

func roundPct(v float64) int {
	return int(math.Round(v))
}

// compactTokens formats a token count as 1.2M, 3.4K or 950.
func compactTokens(n float64) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", n/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", n/1_000)
	default:
		return fmt.Sprintf("%d", int(math.Round(n)))
	}
}

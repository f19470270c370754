package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/theirongolddev/ctrip/internal/analytics"
	"github.com/theirongolddev/ctrip/internal/config"
	"github.com/theirongolddev/ctrip/internal/model"
	"github.com/theirongolddev/ctrip/internal/store"
)

type fakeRateLimits struct {
	calls int
	rl    *model.RateLimits
}

func (f *fakeRateLimits) RateLimits(context.Context) *model.RateLimits {
	f.calls++
	return f.rl
}

type testEnv struct {
	engine     *Engine
	store      *store.SessionStore
	transcript string
	now        time.Time
}

func newTestEnv(t *testing.T, lines ...string) *testEnv {
	t.Helper()
	root := t.TempDir()
	transcript := filepath.Join(root, "projects", "-work-app", "sess-1.jsonl")
	writeFile(t, transcript, lines...)

	env := &testEnv{
		store:      store.NewSessionStore(filepath.Join(root, "session-stats")),
		transcript: transcript,
		now:        time.Now(),
	}
	env.store.SetClock(func() time.Time { return env.now })
	env.engine = &Engine{
		Cache:           env.store,
		Scorer:          analytics.NewScorer(config.DefaultBilling()),
		Roots:           []string{filepath.Join(root, "projects")},
		CleanupMaxAge:   24 * time.Hour,
		CleanupMaxCount: 50,
		Now:             func() time.Time { return env.now },
	}
	return env
}

func TestEngine_EmptyRequest(t *testing.T) {
	e := &Engine{Scorer: analytics.NewScorer(config.DefaultBilling())}
	res := e.Run(context.Background(), Request{})
	if !res.Empty {
		t.Error("Empty = false, want true")
	}
	if res.Metrics.MessageCount != 0 || res.Metrics.Models == nil {
		t.Errorf("Metrics = %+v", res.Metrics)
	}
}

func TestEngine_SlowThenFast(t *testing.T) {
	env := newTestEnv(t, basicSession...)
	ctx := context.Background()
	req := Request{TranscriptPath: env.transcript}

	first := env.engine.Run(ctx, req)
	if first.FromCache {
		t.Fatal("first run served from cache")
	}
	if first.SessionID != "sess-1" {
		t.Errorf("SessionID = %q, want sess-1", first.SessionID)
	}
	if first.Metrics.MessageCount != 2 || first.ModelName != "Sonnet 4.5" {
		t.Errorf("first = %d msgs, model %q", first.Metrics.MessageCount, first.ModelName)
	}

	cached, ok := env.store.Read("sess-1")
	if !ok {
		t.Fatal("cache entry not written")
	}
	if cached.ModelName != "Sonnet 4.5" || cached.Version != model.CacheVersion {
		t.Errorf("cached = %+v", cached)
	}

	env.now = env.now.Add(3 * time.Second)
	second := env.engine.Run(ctx, req)
	if !second.FromCache {
		t.Fatal("second run within freshness window missed the cache")
	}
	if second.Metrics.TotalCost != first.Metrics.TotalCost || second.Analytics.HealthScore != first.Analytics.HealthScore {
		t.Errorf("cached result differs: %+v vs %+v", second.Metrics, first.Metrics)
	}
	if second.ModelName != "Sonnet 4.5" {
		t.Errorf("ModelName = %q", second.ModelName)
	}
}

func TestEngine_Invalidation(t *testing.T) {
	tests := []struct {
		name  string
		apply func(t *testing.T, env *testEnv)
	}{
		{"stale", func(_ *testing.T, env *testEnv) { env.now = env.now.Add(6 * time.Second) }},
		{"transcript modified", func(t *testing.T, env *testEnv) {
			info, err := os.Stat(env.transcript)
			if err != nil {
				t.Fatal(err)
			}
			mtime := info.ModTime().Add(-10 * time.Second)
			if err := os.Chtimes(env.transcript, mtime, mtime); err != nil {
				t.Fatal(err)
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, basicSession...)
			req := Request{TranscriptPath: env.transcript}

			env.engine.Run(context.Background(), req)
			tt.apply(t, env)

			if res := env.engine.Run(context.Background(), req); res.FromCache {
				t.Error("served an invalid cache entry")
			}
		})
	}
}

func TestEngine_ModelName(t *testing.T) {
	t.Run("hook input wins", func(t *testing.T) {
		env := newTestEnv(t, basicSession...)
		res := env.engine.Run(context.Background(), Request{TranscriptPath: env.transcript, ModelName: "Opus 4.6"})
		if res.ModelName != "Opus 4.6" {
			t.Errorf("ModelName = %q", res.ModelName)
		}
	})

	t.Run("unknown is not cached", func(t *testing.T) {
		env := newTestEnv(t, `{"type":"user","message":{"role":"user","content":"hello"}}`)
		res := env.engine.Run(context.Background(), Request{TranscriptPath: env.transcript})
		if res.ModelName != UnknownModel {
			t.Errorf("ModelName = %q, want %q", res.ModelName, UnknownModel)
		}
		cached, ok := env.store.Read("sess-1")
		if !ok {
			t.Fatal("cache entry not written")
		}
		if cached.ModelName != "" {
			t.Errorf("cached ModelName = %q, want empty", cached.ModelName)
		}

		again := env.engine.Run(context.Background(), Request{TranscriptPath: env.transcript})
		if !again.FromCache || again.ModelName != UnknownModel {
			t.Errorf("fast path = %v / %q", again.FromCache, again.ModelName)
		}
	})
}

func TestEngine_MissingTranscript(t *testing.T) {
	env := newTestEnv(t)
	missing := filepath.Join(filepath.Dir(env.transcript), "gone.jsonl")

	res := env.engine.Run(context.Background(), Request{TranscriptPath: missing})
	if res.Empty {
		t.Error("Empty = true for a named transcript")
	}
	if res.Metrics.MessageCount != 0 || res.Metrics.TotalTokens.Total() != 0 {
		t.Errorf("Metrics = %+v, want zeros", res.Metrics)
	}
	if _, ok := env.store.Read("gone"); ok {
		t.Error("cache written for a missing transcript")
	}
}

func TestEngine_IncludesAgents(t *testing.T) {
	env := newTestEnv(t, append(basicSession,
		`{"type":"user","toolUseResult":{"agentId":"agent-7f3a"},"message":{"role":"user","content":[{"type":"tool_result","tool_use_id":"t9","content":"done"}]}}`,
	)...)
	agent := filepath.Join(filepath.Dir(env.transcript), "sess-1", "subagents", "agent-7f3a.jsonl")
	writeFile(t, agent,
		`{"type":"assistant","requestId":"a1","message":{"model":"claude-haiku-4-5","usage":{"input_tokens":500,"output_tokens":50}}}`,
	)

	res := env.engine.Run(context.Background(), Request{TranscriptPath: env.transcript})
	if res.Metrics.TotalTokens.Input != 3000 {
		t.Errorf("Input = %d, want 3000", res.Metrics.TotalTokens.Input)
	}
	if res.Metrics.MessageCount != 2 {
		t.Errorf("MessageCount = %d, want 2", res.Metrics.MessageCount)
	}
	if _, ok := res.Metrics.Models["claude-haiku-4-5"]; !ok {
		t.Error("agent model missing from metrics")
	}
}

func TestEngine_RateLimitsAndContext(t *testing.T) {
	env := newTestEnv(t, basicSession...)
	pct := 42
	rl := &fakeRateLimits{rl: &model.RateLimits{PlanName: "Max", FiveHourPercent: &pct}}
	env.engine.RateLimits = rl

	cw := &model.ContextWindow{Size: 200_000, Usage: 50_000, UsagePercent: 48, Health: model.ContextHealthy}
	first := env.engine.Run(context.Background(), Request{TranscriptPath: env.transcript, Context: cw})
	if first.RateLimits == nil || first.RateLimits.PlanName != "Max" {
		t.Fatalf("RateLimits = %+v", first.RateLimits)
	}
	if first.Analytics.ContextScore != 30 {
		t.Errorf("ContextScore = %d, want 30", first.Analytics.ContextScore)
	}

	second := env.engine.Run(context.Background(), Request{TranscriptPath: env.transcript})
	if !second.FromCache {
		t.Fatal("expected cache hit")
	}
	if rl.calls != 1 {
		t.Errorf("rate limit source called %d times, want 1", rl.calls)
	}
	if second.Context == nil || second.Context.UsagePercent != 48 {
		t.Errorf("Context = %+v, want cached window", second.Context)
	}
	if second.RateLimits == nil || *second.RateLimits.FiveHourPercent != 42 {
		t.Errorf("RateLimits = %+v", second.RateLimits)
	}
}

func TestEngine_NoCache(t *testing.T) {
	env := newTestEnv(t, basicSession...)
	env.engine.Cache = nil

	res := env.engine.Run(context.Background(), Request{TranscriptPath: env.transcript})
	if res.FromCache || res.Metrics.MessageCount != 2 {
		t.Errorf("res = %+v", res)
	}
	if entries, _ := env.store.List(); len(entries) != 0 {
		t.Errorf("store has %d entries, want 0", len(entries))
	}
}

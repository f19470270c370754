package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/theirongolddev/ctrip/internal/claudeai"
	"github.com/theirongolddev/ctrip/internal/store"
)

type fakeUsage struct {
	calls int
	usage *claudeai.ParsedUsage
	err   error
}

func (f *fakeUsage) FetchUsage(context.Context) (*claudeai.ParsedUsage, error) {
	f.calls++
	return f.usage, f.err
}

func writeCredentials(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".credentials.json")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

const maxCredentials = `{"claudeAiOauth":{"accessToken":"tok","subscriptionType":"max"}}`

func newFetcher(t *testing.T, creds string, client *fakeUsage, now *time.Time) *RateLimitFetcher {
	t.Helper()
	cache, err := store.OpenRateLimitCache(filepath.Join(t.TempDir(), "ratelimits.db"))
	if err != nil {
		t.Fatalf("OpenRateLimitCache: %v", err)
	}
	t.Cleanup(func() { _ = cache.Close() })

	return &RateLimitFetcher{
		CredentialsPath: writeCredentials(t, creds),
		Cache:           cache,
		Now:             func() time.Time { return *now },
		NewClient:       func(string) UsageFetcher { return client },
	}
}

func TestRateLimitFetcher_FetchAndCache(t *testing.T) {
	now := time.Unix(1_750_000_000, 0)
	reset := now.Add(2 * time.Hour).UTC()
	client := &fakeUsage{usage: &claudeai.ParsedUsage{
		FiveHour: &claudeai.ParsedWindow{Percent: 38, ResetsAt: reset},
		SevenDay: &claudeai.ParsedWindow{Percent: 12},
	}}
	f := newFetcher(t, maxCredentials, client, &now)

	rl := f.RateLimits(context.Background())
	if rl == nil {
		t.Fatal("RateLimits = nil")
	}
	if rl.PlanName != "Max" || rl.APIUnavailable {
		t.Errorf("rl = %+v", rl)
	}
	if rl.FiveHourPercent == nil || *rl.FiveHourPercent != 38 {
		t.Errorf("FiveHourPercent = %v", rl.FiveHourPercent)
	}
	if rl.FiveHourResetAt == nil || !rl.FiveHourResetAt.Equal(reset) {
		t.Errorf("FiveHourResetAt = %v", rl.FiveHourResetAt)
	}
	if rl.SevenDayResetAt != nil {
		t.Errorf("SevenDayResetAt = %v, want nil for zero reset", rl.SevenDayResetAt)
	}

	now = now.Add(30 * time.Second)
	if again := f.RateLimits(context.Background()); again == nil || *again.FiveHourPercent != 38 {
		t.Errorf("cached = %+v", again)
	}
	if client.calls != 1 {
		t.Errorf("FetchUsage calls = %d, want 1", client.calls)
	}

	now = now.Add(store.RateLimitTTL)
	f.RateLimits(context.Background())
	if client.calls != 2 {
		t.Errorf("FetchUsage calls = %d, want 2 after expiry", client.calls)
	}
}

func TestRateLimitFetcher_APIFailure(t *testing.T) {
	now := time.Unix(1_750_000_000, 0)
	client := &fakeUsage{err: claudeai.ErrRateLimited}
	f := newFetcher(t, maxCredentials, client, &now)

	rl := f.RateLimits(context.Background())
	if rl == nil || !rl.APIUnavailable || rl.PlanName != "Max" {
		t.Fatalf("rl = %+v, want unavailable Max snapshot", rl)
	}
	if rl.FiveHourPercent != nil {
		t.Errorf("FiveHourPercent = %v, want nil", *rl.FiveHourPercent)
	}

	now = now.Add(store.RateLimitFailureTTL)
	f.RateLimits(context.Background())
	if client.calls != 2 {
		t.Errorf("FetchUsage calls = %d, want retry after failure TTL", client.calls)
	}
}

func TestRateLimitFetcher_NoPlan(t *testing.T) {
	tests := []struct {
		name  string
		creds string
	}{
		{"api account", `{"claudeAiOauth":{"accessToken":"tok","subscriptionType":"api"}}`},
		{"no oauth block", `{}`},
		{"expired", `{"claudeAiOauth":{"accessToken":"tok","subscriptionType":"pro","expiresAt":1000}}`},
		{"malformed", `{not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := time.Unix(1_750_000_000, 0)
			client := &fakeUsage{err: errors.New("unexpected call")}
			f := newFetcher(t, tt.creds, client, &now)

			if rl := f.RateLimits(context.Background()); rl != nil {
				t.Errorf("RateLimits = %+v, want nil", rl)
			}
			if client.calls != 0 {
				t.Errorf("FetchUsage calls = %d, want 0", client.calls)
			}
		})
	}
}

func TestRateLimitFetcher_MissingCredentials(t *testing.T) {
	f := &RateLimitFetcher{CredentialsPath: filepath.Join(t.TempDir(), "absent.json")}
	if rl := f.RateLimits(context.Background()); rl != nil {
		t.Errorf("RateLimits = %+v, want nil", rl)
	}
}

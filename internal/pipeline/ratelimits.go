package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/theirongolddev/ctrip/internal/claudeai"
	"github.com/theirongolddev/ctrip/internal/model"
)

// UsageFetcher is satisfied by *claudeai.Client.
type UsageFetcher interface {
	FetchUsage(ctx context.Context) (*claudeai.ParsedUsage, error)
}

// SnapshotCache is satisfied by *store.RateLimitCache.
type SnapshotCache interface {
	Get(account string, now time.Time) (*model.RateLimits, bool, error)
	Put(account string, rl *model.RateLimits, now time.Time) error
}

// RateLimitFetcher resolves subscription rate limits, serving recent
// snapshots from a local cache before calling the usage API.
type RateLimitFetcher struct {
	CredentialsPath string
	Cache           SnapshotCache // optional
	Logger          *slog.Logger
	Now             func() time.Time

	// NewClient builds the API client for a token; defaults to claudeai.NewClient.
	NewClient func(token string) UsageFetcher
}

// RateLimits returns the current snapshot, or nil when the account has no
// subscription plan or no credentials. API failures yield a snapshot with
// APIUnavailable set.
func (f *RateLimitFetcher) RateLimits(ctx context.Context) *model.RateLimits {
	now := f.now()
	log := f.logger()

	creds, err := claudeai.LoadCredentials(f.CredentialsPath, now)
	if err != nil {
		if !errors.Is(err, claudeai.ErrNoCredentials) {
			log.Debug("loading credentials", "err", err)
		}
		return nil
	}

	plan := claudeai.PlanName(creds.SubscriptionType)
	if plan == "" {
		return nil
	}

	account := creds.SubscriptionType
	if f.Cache != nil {
		rl, ok, err := f.Cache.Get(account, now)
		if err != nil {
			log.Debug("reading rate limit cache", "err", err)
		} else if ok {
			return rl
		}
	}

	rl := &model.RateLimits{PlanName: plan}

	client := f.client(creds.AccessToken)
	if client == nil {
		rl.APIUnavailable = true
	} else if usage, err := client.FetchUsage(ctx); err != nil {
		log.Debug("fetching usage", "err", err)
		rl.APIUnavailable = true
	} else {
		if w := usage.FiveHour; w != nil {
			rl.FiveHourPercent = intPtr(w.Percent)
			rl.FiveHourResetAt = timePtr(w.ResetsAt)
		}
		if w := usage.SevenDay; w != nil {
			rl.SevenDayPercent = intPtr(w.Percent)
			rl.SevenDayResetAt = timePtr(w.ResetsAt)
		}
	}

	if f.Cache != nil {
		if err := f.Cache.Put(account, rl, now); err != nil {
			log.Debug("writing rate limit cache", "err", err)
		}
	}
	return rl
}

func (f *RateLimitFetcher) client(token string) UsageFetcher {
	if f.NewClient != nil {
		return f.NewClient(token)
	}
	if c := claudeai.NewClient(token); c != nil {
		return c
	}
	return nil
}

func (f *RateLimitFetcher) now() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now()
}

func (f *RateLimitFetcher) logger() *slog.Logger {
	if f.Logger != nil {
		return f.Logger
	}
	return slog.Default()
}

func intPtr(v int) *int { return &v }

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

package pipeline

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/theirongolddev/ctrip/internal/model"
	"github.com/theirongolddev/ctrip/internal/source"
)

// UnknownModel is shown when neither the hook input nor the transcript names a model.
const UnknownModel = "Unknown"

// Scorer is satisfied by *analytics.Scorer.
type Scorer interface {
	Compute(m model.SessionMetrics, ctx *model.ContextWindow) model.SessionAnalytics
}

// SessionCache is satisfied by *store.SessionStore.
type SessionCache interface {
	Read(sessionID string) (*model.SessionCache, bool)
	Write(c *model.SessionCache) error
	IsValid(c *model.SessionCache, transcriptPath string) bool
	Cleanup(maxAge time.Duration, maxCount int) (int, error)
}

// RateLimitSource returns a rate-limit snapshot, or nil when none applies.
type RateLimitSource interface {
	RateLimits(ctx context.Context) *model.RateLimits
}

// Engine computes a session result, serving it from the session cache when
// the cached entry is still valid.
type Engine struct {
	Scorer     Scorer
	Cache      SessionCache    // nil disables caching
	Roots      []string        // project roots searched for agent transcripts
	RateLimits RateLimitSource // nil disables rate-limit lookup

	CleanupMaxAge   time.Duration
	CleanupMaxCount int

	Logger *slog.Logger
	Now    func() time.Time
}

// Request describes one invocation.
type Request struct {
	TranscriptPath string
	SessionID      string               // derived from TranscriptPath when empty
	Context        *model.ContextWindow // from hook input, may be nil
	ModelName      string               // from hook input, may be empty
}

// Result is everything the renderers need.
type Result struct {
	Empty          bool // no transcript to report on
	SessionID      string
	TranscriptPath string
	Metrics        model.SessionMetrics
	Analytics      model.SessionAnalytics
	Context        *model.ContextWindow
	ModelName      string
	RateLimits     *model.RateLimits
	FromCache      bool
}

// Run never fails: missing transcripts produce zero metrics, and cache or
// collaborator errors are logged at debug level and otherwise ignored.
func (e *Engine) Run(ctx context.Context, req Request) Result {
	if req.TranscriptPath == "" {
		return Result{Empty: true, Metrics: model.EmptyMetrics("")}
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = source.SessionID(req.TranscriptPath)
	}

	res := Result{
		SessionID:      sessionID,
		TranscriptPath: req.TranscriptPath,
		Context:        req.Context,
		ModelName:      req.ModelName,
	}

	if e.Cache != nil {
		if cached, ok := e.Cache.Read(sessionID); ok && e.Cache.IsValid(cached, req.TranscriptPath) {
			e.logger().Debug("session cache hit", "session", sessionID)
			res.FromCache = true
			res.Metrics = cached.Metrics
			res.Analytics = cached.Analytics
			if res.Context == nil {
				res.Context = cached.ContextWindow
			}
			if res.ModelName == "" {
				res.ModelName = cached.ModelName
			}
			res.RateLimits = cached.RateLimits
			if res.ModelName == "" {
				res.ModelName = UnknownModel
			}
			return res
		}
	}

	return e.slowPath(ctx, res)
}

func (e *Engine) slowPath(ctx context.Context, res Result) Result {
	log := e.logger()

	res.Metrics = e.aggregate(ctx, res.SessionID, res.TranscriptPath)

	if res.ModelName == "" {
		if ids := res.Metrics.ModelIDs(); len(ids) > 0 {
			res.ModelName = res.Metrics.Models[ids[0]].DisplayName
		} else {
			res.ModelName = UnknownModel
		}
	}

	if e.RateLimits != nil {
		res.RateLimits = e.RateLimits.RateLimits(ctx)
	}

	res.Analytics = e.Scorer.Compute(res.Metrics, res.Context)

	if e.Cache == nil {
		return res
	}

	info, err := os.Stat(res.TranscriptPath)
	if err != nil {
		log.Debug("skipping cache write", "path", res.TranscriptPath, "err", err)
		return res
	}

	entry := &model.SessionCache{
		Version:         model.CacheVersion,
		SessionID:       res.SessionID,
		LastUpdated:     e.now().Unix(),
		TranscriptMtime: info.ModTime().Unix(),
		TranscriptPath:  res.TranscriptPath,
		Metrics:         res.Metrics,
		ContextWindow:   res.Context,
		Analytics:       res.Analytics,
		RateLimits:      res.RateLimits,
	}
	if res.ModelName != UnknownModel {
		entry.ModelName = res.ModelName
	}

	if err := e.Cache.Write(entry); err != nil {
		log.Debug("writing session cache", "session", res.SessionID, "err", err)
		return res
	}

	if e.CleanupMaxCount > 0 {
		if n, err := e.Cache.Cleanup(e.CleanupMaxAge, e.CleanupMaxCount); err != nil {
			log.Debug("session cache cleanup", "err", err)
		} else if n > 0 {
			log.Debug("session cache cleanup", "removed", n)
		}
	}

	return res
}

// aggregate parses the transcript and its agent transcripts into metrics.
func (e *Engine) aggregate(ctx context.Context, sessionID, path string) model.SessionMetrics {
	log := e.logger()

	agents, err := source.FindAgentTranscripts(path, e.Roots)
	if err != nil {
		log.Debug("finding agent transcripts", "err", err)
	}

	lr, err := Load(ctx, path, agents)
	if err != nil {
		log.Debug("loading transcripts", "err", err)
		return model.EmptyMetrics(sessionID)
	}

	if err := lr.Primary.Err; err != nil && !os.IsNotExist(err) {
		log.Debug("parsing transcript", "path", path, "err", err)
	}
	for _, a := range lr.Agents {
		if a.Err != nil {
			log.Debug("parsing agent transcript", "path", a.Path, "err", a.Err)
		}
	}
	if n := lr.Primary.ParseErrors; n > 0 {
		log.Debug("skipped malformed lines", "path", path, "count", n)
	}

	return Fold(sessionID, lr)
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

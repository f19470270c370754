// Package store persists computed session results and rate-limit snapshots.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/theirongolddev/ctrip/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

// Snapshot lifetimes. Failures are retried sooner than successes.
const (
	RateLimitTTL        = 60 * time.Second
	RateLimitFailureTTL = 15 * time.Second
)

// RateLimitCache provides SQLite-backed caching of usage API responses so
// status-line refreshes do not hit the network every few seconds.
type RateLimitCache struct {
	db *sql.DB
}

// OpenRateLimitCache opens or creates the cache database at the given path.
func OpenRateLimitCache(dbPath string) (*RateLimitCache, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=busy_timeout(500)")
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &RateLimitCache{db: db}, nil
}

// Close closes the cache database.
func (c *RateLimitCache) Close() error {
	return c.db.Close()
}

// Get returns the snapshot for account if it has not expired at now.
func (c *RateLimitCache) Get(account string, now time.Time) (*model.RateLimits, bool, error) {
	row := c.db.QueryRow(`SELECT plan_name, five_hour_percent, seven_day_percent,
		five_hour_reset_at, seven_day_reset_at, api_unavailable, expires_at
		FROM rate_limit_snapshots WHERE account = ?`, account)

	var (
		planName               sql.NullString
		fiveHour, sevenDay     sql.NullInt64
		fiveHourAt, sevenDayAt sql.NullString
		unavailable, expiresAt int64
	)
	err := row.Scan(&planName, &fiveHour, &sevenDay, &fiveHourAt, &sevenDayAt, &unavailable, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading rate limit snapshot: %w", err)
	}
	if now.Unix() >= expiresAt {
		return nil, false, nil
	}

	rl := &model.RateLimits{
		PlanName:        planName.String,
		FiveHourPercent: nullInt(fiveHour),
		SevenDayPercent: nullInt(sevenDay),
		FiveHourResetAt: nullTime(fiveHourAt),
		SevenDayResetAt: nullTime(sevenDayAt),
		APIUnavailable:  unavailable != 0,
	}
	return rl, true, nil
}

// Put stores rl for account. Snapshots flagged APIUnavailable expire after
// RateLimitFailureTTL, others after RateLimitTTL.
func (c *RateLimitCache) Put(account string, rl *model.RateLimits, now time.Time) error {
	ttl := RateLimitTTL
	unavailable := 0
	if rl.APIUnavailable {
		ttl = RateLimitFailureTTL
		unavailable = 1
	}

	_, err := c.db.Exec(`INSERT OR REPLACE INTO rate_limit_snapshots
		(account, plan_name, five_hour_percent, seven_day_percent,
		 five_hour_reset_at, seven_day_reset_at, api_unavailable, fetched_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		account, rl.PlanName, toNullInt(rl.FiveHourPercent), toNullInt(rl.SevenDayPercent),
		toNullTime(rl.FiveHourResetAt), toNullTime(rl.SevenDayResetAt),
		unavailable, now.Unix(), now.Add(ttl).Unix(),
	)
	if err != nil {
		return fmt.Errorf("saving rate limit snapshot: %w", err)
	}
	return nil
}

// Purge deletes snapshots that expired before now.
func (c *RateLimitCache) Purge(now time.Time) (int64, error) {
	res, err := c.db.Exec("DELETE FROM rate_limit_snapshots WHERE expires_at <= ?", now.Unix())
	if err != nil {
		return 0, fmt.Errorf("purging rate limit snapshots: %w", err)
	}
	return res.RowsAffected()
}

func nullInt(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func nullTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s.String)
	if err != nil {
		return nil
	}
	return &t
}

func toNullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func toNullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}

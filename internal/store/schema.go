package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS rate_limit_snapshots (
    account              TEXT PRIMARY KEY,
    plan_name            TEXT,
    five_hour_percent    INTEGER,
    seven_day_percent    INTEGER,
    five_hour_reset_at   TEXT,
    seven_day_reset_at   TEXT,
    api_unavailable      INTEGER NOT NULL DEFAULT 0,
    fetched_at           INTEGER NOT NULL,
    expires_at           INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_rate_limit_expires ON rate_limit_snapshots(expires_at);
`

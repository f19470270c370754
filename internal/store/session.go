package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/theirongolddev/ctrip/internal/model"
)

// FreshnessWindow is how long a session cache entry stays valid once written.
const FreshnessWindow = 5 * time.Second

// ErrInvalidSessionID is returned for ids that could escape the cache directory.
var ErrInvalidSessionID = errors.New("store: invalid session id")

// SessionStore persists one JSON file per session under a single directory.
// It has no locking: writers replace files atomically so readers always see
// either the previous or the new complete entry.
type SessionStore struct {
	dir string
	now func() time.Time
}

// NewSessionStore returns a store rooted at dir. The directory is created on first write.
func NewSessionStore(dir string) *SessionStore {
	return &SessionStore{dir: dir, now: time.Now}
}

// SetClock replaces the wall clock used for freshness and age checks.
func (s *SessionStore) SetClock(now func() time.Time) {
	s.now = now
}

// Dir returns the cache directory.
func (s *SessionStore) Dir() string {
	return s.dir
}

// Path returns the cache file path for a session.
func (s *SessionStore) Path(sessionID string) (string, error) {
	if sessionID == "" || sessionID == "." || strings.Contains(sessionID, "..") ||
		strings.ContainsAny(sessionID, `/\`) {
		return "", ErrInvalidSessionID
	}
	return filepath.Join(s.dir, sessionID+".json"), nil
}

// Read returns the cached entry for a session. Missing, unreadable, corrupt
// and version-mismatched entries all report false.
func (s *SessionStore) Read(sessionID string) (*model.SessionCache, bool) {
	path, err := s.Path(sessionID)
	if err != nil {
		return nil, false
	}

	data, err := os.ReadFile(path) //nolint:gosec // path is validated by Path
	if err != nil {
		return nil, false
	}

	var c model.SessionCache
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, false
	}
	if c.Version != model.CacheVersion || c.SessionID != sessionID {
		return nil, false
	}
	if c.Metrics.Models == nil {
		c.Metrics.Models = make(map[string]*model.ModelUsage)
	}
	return &c, true
}

// Write persists c, replacing any previous entry atomically. On failure the
// previous entry is left untouched and the temporary file is removed.
func (s *SessionStore) Write(c *model.SessionCache) error {
	path, err := s.Path(c.SessionID)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding session cache: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}

	tmp := filepath.Join(s.dir, "."+c.SessionID+"."+uuid.NewString()+".tmp")
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600) //nolint:gosec // tmp is inside the cache dir
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replacing cache file: %w", err)
	}

	return nil
}

// IsValid reports whether c can be served for transcriptPath: the transcript
// must still exist, its mtime (whole seconds) must match the recorded one, and
// the entry must be no older than FreshnessWindow.
func (s *SessionStore) IsValid(c *model.SessionCache, transcriptPath string) bool {
	if c == nil {
		return false
	}

	info, err := os.Stat(transcriptPath)
	if err != nil {
		return false
	}
	if info.ModTime().Unix() != c.TranscriptMtime {
		return false
	}

	age := s.now().Unix() - c.LastUpdated
	return age <= int64(FreshnessWindow/time.Second)
}

// Entry is one cache file on disk.
type Entry struct {
	Path    string
	ModTime time.Time
}

// List returns cache files ordered newest first. Dotfiles (in-flight temp
// files) and non-JSON names are ignored. A missing directory yields no entries.
func (s *SessionStore) List() ([]Entry, error) {
	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading cache dir: %w", err)
	}

	var entries []Entry
	for _, de := range dirEntries {
		name := de.Name()
		if de.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".json") {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue // removed concurrently
		}
		entries = append(entries, Entry{Path: filepath.Join(s.dir, name), ModTime: info.ModTime()})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].ModTime.After(entries[j].ModTime)
	})
	return entries, nil
}

// Expired returns the entries Cleanup would delete: those older than maxAge
// or beyond the maxCount most recently modified.
func (s *SessionStore) Expired(maxAge time.Duration, maxCount int) ([]Entry, error) {
	entries, err := s.List()
	if err != nil {
		return nil, err
	}

	now := s.now()
	var expired []Entry
	for i, e := range entries {
		if now.Sub(e.ModTime) > maxAge || i >= maxCount {
			expired = append(expired, e)
		}
	}
	return expired, nil
}

// Cleanup deletes expired entries and returns how many were removed.
// Entries that vanish concurrently are not errors.
func (s *SessionStore) Cleanup(maxAge time.Duration, maxCount int) (int, error) {
	expired, err := s.Expired(maxAge, maxCount)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, e := range expired {
		if err := os.Remove(e.Path); err != nil && !os.IsNotExist(err) {
			continue
		}
		removed++
	}
	return removed, nil
}

// Package claudeai fetches subscription rate-limit usage for the logged-in claude.ai account.
package claudeai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

const (
	// DefaultUsageURL is the OAuth usage endpoint.
	DefaultUsageURL = "https://api.anthropic.com/api/oauth/usage"
	betaHeader      = "oauth-2025-04-20"
	requestTimeout  = 5 * time.Second
	maxBodySize     = 1 << 20 // 1 MB
)

var (
	// ErrUnauthorized indicates the OAuth token is expired or invalid.
	ErrUnauthorized = errors.New("claudeai: unauthorized (token expired or invalid)")
	// ErrRateLimited indicates the API rate limit was hit.
	ErrRateLimited = errors.New("claudeai: rate limited")
	// ErrNoCredentials indicates no usable OAuth login was found.
	ErrNoCredentials = errors.New("claudeai: no usable credentials")
)

// CredentialsPath returns the credentials file under the Claude data directory.
func CredentialsPath(claudeDir string) string {
	return filepath.Join(claudeDir, ".credentials.json")
}

// LoadCredentials reads the OAuth login from path. It returns ErrNoCredentials
// when the file is missing, has no access token, or the token has expired at now.
func LoadCredentials(path string, now time.Time) (*Credentials, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is constructed from known claudeDir
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoCredentials
		}
		return nil, fmt.Errorf("claudeai: reading credentials: %w", err)
	}

	var raw credentialsFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("claudeai: parsing credentials: %w", err)
	}
	if raw.ClaudeAiOauth == nil || raw.ClaudeAiOauth.AccessToken == "" {
		return nil, ErrNoCredentials
	}

	creds := &Credentials{
		AccessToken:      raw.ClaudeAiOauth.AccessToken,
		SubscriptionType: raw.ClaudeAiOauth.SubscriptionType,
	}
	if ms := raw.ClaudeAiOauth.ExpiresAt; ms > 0 {
		creds.ExpiresAt = time.UnixMilli(ms)
		if !creds.ExpiresAt.After(now) {
			return nil, ErrNoCredentials
		}
	}
	return creds, nil
}

// PlanName maps a subscription type to a display name. API-key accounts and
// empty types return "", meaning there are no subscription limits to show.
func PlanName(subscriptionType string) string {
	lower := strings.ToLower(subscriptionType)
	switch {
	case strings.Contains(lower, "max"):
		return "Max"
	case strings.Contains(lower, "pro"):
		return "Pro"
	case strings.Contains(lower, "team"):
		return "Team"
	case lower == "" || lower == "api":
		return ""
	}
	r, size := utf8.DecodeRuneInString(subscriptionType)
	return string(unicode.ToUpper(r)) + subscriptionType[size:]
}

// Client fetches usage data from the OAuth usage endpoint.
type Client struct {
	token string
	url   string
	http  *http.Client
}

// NewClient creates a client for the given access token.
// Returns nil if the token is empty.
func NewClient(token string) *Client {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	return &Client{
		token: token,
		url:   DefaultUsageURL,
		http:  &http.Client{},
	}
}

// WithURL points the client at a different endpoint.
func (c *Client) WithURL(url string) *Client {
	c.url = url
	return c
}

// FetchUsage returns the parsed five-hour and seven-day windows.
func (c *Client) FetchUsage(ctx context.Context) (*ParsedUsage, error) {
	body, err := c.get(ctx)
	if err != nil {
		return nil, err
	}

	var raw UsageResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("claudeai: parsing usage: %w", err)
	}

	return &ParsedUsage{
		FiveHour: parseWindow(raw.FiveHour),
		SevenDay: parseWindow(raw.SevenDay),
	}, nil
}

// get performs an authenticated GET request and returns the response body.
func (c *Client) get(ctx context.Context) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("claudeai: creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("anthropic-beta", betaHeader)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "github.com/theirongolddev/ctrip/1.0")

	//nolint:gosec // URL is the fixed usage endpoint unless overridden in tests
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("claudeai: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrUnauthorized
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("claudeai: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("claudeai: reading response: %w", err)
	}
	return body, nil
}

// parseWindow converts a raw UsageWindow into a normalized ParsedWindow.
// Returns nil if the input is nil or unparseable.
func parseWindow(w *UsageWindow) *ParsedWindow {
	if w == nil {
		return nil
	}

	pct, ok := parseUtilization(w.Utilization)
	if !ok {
		return nil
	}

	pw := &ParsedWindow{Percent: pct}

	if w.ResetsAt != nil {
		if t, err := time.Parse(time.RFC3339, *w.ResetsAt); err == nil {
			pw.ResetsAt = t
		}
	}

	return pw
}

// parseUtilization defensively parses the polymorphic utilization field.
// Handles int (75), float (75.4), and string ("75%"). The value is a
// percentage; it is clamped to 0-100 and rounded.
func parseUtilization(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "%")
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = v
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(math.Round(math.Max(0, math.Min(100, f)))), true
}

package claudeai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFetchUsage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("anthropic-beta"); got != "oauth-2025-04-20" {
			t.Errorf("anthropic-beta = %q", got)
		}
		_, _ = w.Write([]byte(`{
			"five_hour": {"utilization": 37.6, "resets_at": "2025-06-01T15:00:00Z"},
			"seven_day": {"utilization": "120%", "resets_at": null},
			"seven_day_opus": null
		}`))
	}))
	defer srv.Close()

	u, err := NewClient("tok").WithURL(srv.URL).FetchUsage(context.Background())
	if err != nil {
		t.Fatalf("FetchUsage: %v", err)
	}
	if u.FiveHour == nil || u.FiveHour.Percent != 38 {
		t.Errorf("FiveHour = %+v, want 38%%", u.FiveHour)
	}
	if want := time.Date(2025, 6, 1, 15, 0, 0, 0, time.UTC); !u.FiveHour.ResetsAt.Equal(want) {
		t.Errorf("FiveHour.ResetsAt = %v, want %v", u.FiveHour.ResetsAt, want)
	}
	if u.SevenDay == nil || u.SevenDay.Percent != 100 {
		t.Errorf("SevenDay = %+v, want clamped 100%%", u.SevenDay)
	}
}

func TestFetchUsage_StatusErrors(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrUnauthorized},
		{http.StatusTooManyRequests, ErrRateLimited},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(tt.status)
		}))
		_, err := NewClient("tok").WithURL(srv.URL).FetchUsage(context.Background())
		srv.Close()
		if !errors.Is(err, tt.want) {
			t.Errorf("status %d: err = %v, want %v", tt.status, err, tt.want)
		}
	}
}

func TestFetchUsage_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	}))
	defer srv.Close()

	if _, err := NewClient("tok").WithURL(srv.URL).FetchUsage(context.Background()); err == nil {
		t.Error("FetchUsage with HTML body returned nil error")
	}
}

func TestNewClient_EmptyToken(t *testing.T) {
	if NewClient("  ") != nil {
		t.Error("NewClient(blank) != nil")
	}
}

func TestParseUtilization(t *testing.T) {
	tests := []struct {
		raw    string
		want   int
		wantOK bool
	}{
		{`75`, 75, true},
		{`75.5`, 76, true},
		{`"42%"`, 42, true},
		{`-3`, 0, true},
		{`250`, 100, true},
		{`null`, 0, false},
		{`"abc"`, 0, false},
		{`{}`, 0, false},
	}
	for _, tt := range tests {
		got, ok := parseUtilization(json.RawMessage(tt.raw))
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("parseUtilization(%s) = %d, %v; want %d, %v", tt.raw, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestPlanName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"max", "Max"},
		{"claude_max_20x", "Max"},
		{"pro", "Pro"},
		{"team", "Team"},
		{"", ""},
		{"api", ""},
		{"enterprise", "Enterprise"},
		{"API", ""},
		{"rapid", "Rapid"},
		{"élite", "Élite"},
	}
	for _, tt := range tests {
		if got := PlanName(tt.in); got != tt.want {
			t.Errorf("PlanName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoadCredentials(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	dir := t.TempDir()

	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
		return path
	}

	valid := write("valid.json", `{"claudeAiOauth":{"accessToken":"abc","subscriptionType":"pro","expiresAt":1700000100000}}`)
	creds, err := LoadCredentials(valid, now)
	if err != nil {
		t.Fatalf("LoadCredentials: %v", err)
	}
	if creds.AccessToken != "abc" || creds.SubscriptionType != "pro" {
		t.Errorf("creds = %+v", creds)
	}

	expired := write("expired.json", `{"claudeAiOauth":{"accessToken":"abc","expiresAt":1699999999000}}`)
	if _, err := LoadCredentials(expired, now); !errors.Is(err, ErrNoCredentials) {
		t.Errorf("expired: err = %v, want ErrNoCredentials", err)
	}

	noToken := write("notoken.json", `{"claudeAiOauth":{}}`)
	if _, err := LoadCredentials(noToken, now); !errors.Is(err, ErrNoCredentials) {
		t.Errorf("no token: err = %v, want ErrNoCredentials", err)
	}

	if _, err := LoadCredentials(filepath.Join(dir, "missing.json"), now); !errors.Is(err, ErrNoCredentials) {
		t.Errorf("missing: err = %v, want ErrNoCredentials", err)
	}

	garbage := write("garbage.json", `{{`)
	if _, err := LoadCredentials(garbage, now); err == nil || errors.Is(err, ErrNoCredentials) {
		t.Errorf("garbage: err = %v, want parse error", err)
	}
}

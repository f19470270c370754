package hookinput

import (
	"strings"
	"testing"

	"github.com/theirongolddev/ctrip/internal/model"
)

const samplePayload = `{
  "session_id": "abc-123",
  "transcript_path": "/home/me/.claude/projects/-work-app/abc-123.jsonl",
  "cwd": "/work/app",
  "model": {"id": "claude-opus-4-6", "display_name": "Opus 4.6"},
  "workspace": {"current_dir": "/work/app/sub"},
  "context_window": {
    "context_window_size": 200000,
    "current_usage": {"input_tokens": 1000, "cache_creation_input_tokens": 4000, "cache_read_input_tokens": 95000}
  }
}`

func TestRead(t *testing.T) {
	in, err := Read(strings.NewReader(samplePayload))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if in.SessionID != "abc-123" || !strings.HasSuffix(in.TranscriptPath, "abc-123.jsonl") {
		t.Errorf("in = %+v", in)
	}
	if got := in.ModelName(); got != "Opus 4.6" {
		t.Errorf("ModelName = %q", got)
	}
	if got := in.Dir(); got != "/work/app/sub" {
		t.Errorf("Dir = %q", got)
	}
}

func TestRead_BlankAndInvalid(t *testing.T) {
	in, err := Read(strings.NewReader("  \n"))
	if in != nil || err != nil {
		t.Errorf("blank input = %v, %v; want nil, nil", in, err)
	}

	if _, err := Read(strings.NewReader("{oops")); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestContextWindow(t *testing.T) {
	tests := []struct {
		name        string
		payload     string
		wantNil     bool
		wantUsage   int64
		wantPercent int
		wantHealth  model.ContextHealth
	}{
		{
			name:        "healthy",
			payload:     `{"context_window":{"context_window_size":200000,"current_usage":{"input_tokens":21000}}}`,
			wantUsage:   21000,
			wantPercent: 33, // (21000 + 45000) / 200000
			wantHealth:  model.ContextHealthy,
		},
		{
			name:        "warning",
			payload:     `{"context_window":{"context_window_size":200000,"current_usage":{"input_tokens":1000,"cache_creation_input_tokens":4000,"cache_read_input_tokens":95200}}}`,
			wantUsage:   100200,
			wantPercent: 73,
			wantHealth:  model.ContextWarning,
		},
		{
			name:        "critical",
			payload:     `{"context_window":{"context_window_size":200000,"current_usage":{"cache_read_input_tokens":125000}}}`,
			wantUsage:   125000,
			wantPercent: 85,
			wantHealth:  model.ContextCritical,
		},
		{
			name:        "clamped",
			payload:     `{"context_window":{"context_window_size":100000,"current_usage":{"input_tokens":150000}}}`,
			wantUsage:   150000,
			wantPercent: 100,
			wantHealth:  model.ContextCritical,
		},
		{
			name:        "no usage yet",
			payload:     `{"context_window":{"context_window_size":200000}}`,
			wantUsage:   0,
			wantPercent: 23, // buffer only
			wantHealth:  model.ContextHealthy,
		},
		{
			name:    "zero size",
			payload: `{"context_window":{"context_window_size":0,"current_usage":{"input_tokens":5}}}`,
			wantNil: true,
		},
		{
			name:    "absent",
			payload: `{"session_id":"x"}`,
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := Read(strings.NewReader(tt.payload))
			if err != nil {
				t.Fatalf("Read: %v", err)
			}
			cw := in.ContextWindow()
			if tt.wantNil {
				if cw != nil {
					t.Errorf("ContextWindow = %+v, want nil", cw)
				}
				return
			}
			if cw == nil {
				t.Fatal("ContextWindow = nil")
			}
			if cw.Usage != tt.wantUsage || cw.UsagePercent != tt.wantPercent || cw.Health != tt.wantHealth {
				t.Errorf("ContextWindow = %+v, want usage %d, %d%%, %s",
					cw, tt.wantUsage, tt.wantPercent, tt.wantHealth)
			}
		})
	}
}

func TestModelName_Fallbacks(t *testing.T) {
	in, _ := Read(strings.NewReader(`{"model":{"id":"claude-haiku-4-5"},"cwd":"/tmp/x"}`))
	if got := in.ModelName(); got != "claude-haiku-4-5" {
		t.Errorf("ModelName = %q, want id fallback", got)
	}
	if got := in.Dir(); got != "/tmp/x" {
		t.Errorf("Dir = %q, want cwd fallback", got)
	}

	var nilInput *Input
	if nilInput.ModelName() != "" || nilInput.ContextWindow() != nil || nilInput.Dir() != "" {
		t.Error("nil Input should yield zero values")
	}
}

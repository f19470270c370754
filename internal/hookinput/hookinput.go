// Package hookinput decodes the JSON document Claude Code pipes to status-line commands.
package hookinput

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"golang.org/x/term"

	"github.com/theirongolddev/ctrip/internal/model"
)

// AutocompactBuffer is the share of the context window Claude Code reserves
// before auto-compacting. It is added to usage so percentages match /context.
const AutocompactBuffer = 0.225

// Input is the subset of the hook payload ctrip reads.
type Input struct {
	SessionID      string `json:"session_id"`
	TranscriptPath string `json:"transcript_path"`
	Cwd            string `json:"cwd"`

	Model struct {
		ID          string `json:"id"`
		DisplayName string `json:"display_name"`
	} `json:"model"`

	Workspace struct {
		CurrentDir string `json:"current_dir"`
	} `json:"workspace"`

	Context *struct {
		Size         int64         `json:"context_window_size"`
		CurrentUsage *CurrentUsage `json:"current_usage"`
	} `json:"context_window"`
}

// CurrentUsage is the token usage of the latest request.
type CurrentUsage struct {
	InputTokens              int64 `json:"input_tokens"`
	CacheCreationInputTokens int64 `json:"cache_creation_input_tokens"`
	CacheReadInputTokens     int64 `json:"cache_read_input_tokens"`
}

// Read decodes a hook payload. Blank input returns (nil, nil).
func Read(r io.Reader) (*Input, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading hook input: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var in Input
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("decoding hook input: %w", err)
	}
	return &in, nil
}

// FromStdin reads the payload from f unless f is an interactive terminal.
func FromStdin(f *os.File) (*Input, error) {
	if term.IsTerminal(int(f.Fd())) { //nolint:gosec // fd fits in int on supported platforms
		return nil, nil
	}
	return Read(f)
}

// ContextWindow derives context usage. It returns nil when the window size
// is unknown. Before the first request there is no current usage, which
// counts as zero tokens used.
func (in *Input) ContextWindow() *model.ContextWindow {
	if in == nil || in.Context == nil || in.Context.Size <= 0 {
		return nil
	}

	size := in.Context.Size
	var usage int64
	if u := in.Context.CurrentUsage; u != nil {
		usage = max(0, u.InputTokens) + max(0, u.CacheCreationInputTokens) + max(0, u.CacheReadInputTokens)
	}

	buffered := float64(usage) + float64(size)*AutocompactBuffer
	percent := min(100, int(math.Round(buffered/float64(size)*100)))

	return &model.ContextWindow{
		Size:         size,
		Usage:        usage,
		UsagePercent: percent,
		Health:       model.ClassifyContextHealth(percent),
	}
}

// ModelName returns the model's display name, falling back to its id.
func (in *Input) ModelName() string {
	if in == nil {
		return ""
	}
	if in.Model.DisplayName != "" {
		return in.Model.DisplayName
	}
	return in.Model.ID
}

// Dir returns the working directory reported by Claude Code.
func (in *Input) Dir() string {
	if in == nil {
		return ""
	}
	if in.Workspace.CurrentDir != "" {
		return in.Workspace.CurrentDir
	}
	return in.Cwd
}

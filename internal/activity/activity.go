// Package activity extracts running tools, sub-agents and the todo list from a transcript.
package activity

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/tidwall/gjson"

	"github.com/theirongolddev/ctrip/internal/model"
	"github.com/theirongolddev/ctrip/internal/source"
)

const (
	maxRunningTools = 2
	maxAgents       = 10
	maxCommandLen   = 30
)

// Parse reads the activity surface of a transcript. A missing file yields
// an empty Activity.
func Parse(path string) (*model.Activity, error) {
	f, err := os.Open(path) //nolint:gosec // transcript path comes from the hook input or discovery
	if err != nil {
		if os.IsNotExist(err) {
			return empty(), nil
		}
		return nil, fmt.Errorf("opening transcript: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ParseReader(f, time.Now())
}

// ParseReader is Parse over an arbitrary reader. Records without a timestamp
// are stamped with now. Oversized lines are skipped. On a read error the
// activity seen so far is returned with the error.
func ParseReader(r io.Reader, now time.Time) (*model.Activity, error) {
	tr := newTracker()

	_, err := source.ReadLines(r, func(line []byte) {
		if rec, ok := source.DecodeRecord(line); ok {
			tr.observe(rec, now)
		}
	})
	if err != nil {
		return tr.result(), fmt.Errorf("reading transcript: %w", err)
	}

	return tr.result(), nil
}

func empty() *model.Activity {
	return &model.Activity{CompletedTools: make(map[string]int)}
}

// tracker keeps tools and agents in first-seen order keyed by tool_use id.
type tracker struct {
	act *model.Activity

	tools     []*model.ToolEntry
	toolByID  map[string]*model.ToolEntry
	agents    []*model.AgentEntry
	agentByID map[string]*model.AgentEntry
}

func newTracker() *tracker {
	return &tracker{
		act:       empty(),
		toolByID:  make(map[string]*model.ToolEntry),
		agentByID: make(map[string]*model.AgentEntry),
	}
}

func (t *tracker) observe(rec source.Record, now time.Time) {
	ts := rec.Timestamp
	if !ts.IsZero() && t.act.SessionStart.IsZero() {
		t.act.SessionStart = ts
	}
	if ts.IsZero() {
		ts = now
	}

	if !rec.ContentIsArray {
		return
	}

	for _, b := range rec.Blocks {
		switch {
		case b.Type == "tool_use" && rec.Kind == source.KindAssistant:
			t.toolUse(b, ts)
		case b.Type == "tool_result" && rec.Kind != source.KindOther:
			t.toolResult(b, ts)
		}
	}
}

func (t *tracker) toolUse(b source.Block, ts time.Time) {
	switch b.Name {
	case "Task":
		agent := &model.AgentEntry{
			ID:          b.ID,
			Type:        stringOr(b.Input.Get("subagent_type"), "unknown"),
			Model:       b.Input.Get("model").String(),
			Description: b.Input.Get("description").String(),
			Status:      model.ToolRunning,
			StartTime:   ts,
		}
		if prev, seen := t.agentByID[b.ID]; seen {
			*prev = *agent
			return
		}
		t.agents = append(t.agents, agent)
		t.agentByID[b.ID] = agent

	case "TodoWrite":
		todos := b.Input.Get("todos")
		if !todos.IsArray() {
			return
		}
		items := make([]model.TodoItem, 0, len(todos.Array()))
		todos.ForEach(func(_, td gjson.Result) bool {
			items = append(items, model.TodoItem{
				Content: td.Get("content").String(),
				Status:  stringOr(td.Get("status"), "pending"),
			})
			return true
		})
		t.act.Todos = items

	default:
		tool := &model.ToolEntry{
			ID:        b.ID,
			Name:      b.Name,
			Target:    Target(b.Name, b.Input),
			Status:    model.ToolRunning,
			StartTime: ts,
		}
		if prev, seen := t.toolByID[b.ID]; seen {
			*prev = *tool
			return
		}
		t.tools = append(t.tools, tool)
		t.toolByID[b.ID] = tool
	}
}

func (t *tracker) toolResult(b source.Block, ts time.Time) {
	if agent, ok := t.agentByID[b.ToolUseID]; ok {
		agent.Status = model.ToolCompleted
		agent.EndTime = ts
	}
	if tool, ok := t.toolByID[b.ToolUseID]; ok {
		tool.Status = model.ToolCompleted
		if b.IsError {
			tool.Status = model.ToolError
		}
		tool.EndTime = ts
	}
}

func (t *tracker) result() *model.Activity {
	var running []model.ToolEntry
	for _, tool := range t.tools {
		if tool.Status == model.ToolRunning {
			running = append(running, *tool)
		} else {
			t.act.CompletedTools[tool.Name]++
		}
	}
	if len(running) > maxRunningTools {
		running = running[len(running)-maxRunningTools:]
	}
	t.act.RunningTools = running

	agents := make([]model.AgentEntry, 0, len(t.agents))
	for _, a := range t.agents {
		agents = append(agents, *a)
	}
	if len(agents) > maxAgents {
		agents = agents[len(agents)-maxAgents:]
	}
	t.act.Agents = agents

	return t.act
}

// Target summarizes what a tool call operates on, or "" when the tool
// has no meaningful target.
func Target(tool string, input gjson.Result) string {
	switch tool {
	case "Read", "Write", "Edit", "MultiEdit", "NotebookEdit":
		return first(input, "file_path", "path", "notebook_path")
	case "Glob", "Grep":
		return input.Get("pattern").String()
	case "Bash":
		cmd := []rune(input.Get("command").String())
		if len(cmd) > maxCommandLen {
			return string(cmd[:maxCommandLen]) + "..."
		}
		return string(cmd)
	case "WebFetch", "WebSearch":
		return first(input, "url", "query")
	case "LSP":
		return input.Get("operation").String()
	}
	return ""
}

func first(input gjson.Result, keys ...string) string {
	for _, k := range keys {
		if v := input.Get(k); v.Type == gjson.String && v.Str != "" {
			return v.Str
		}
	}
	return ""
}

func stringOr(r gjson.Result, fallback string) string {
	if r.Type == gjson.String && r.Str != "" {
		return r.Str
	}
	return fallback
}

package model

import "time"

// ToolStatus is the lifecycle state of a tool invocation.
type ToolStatus string

const (
	ToolRunning   ToolStatus = "running"
	ToolCompleted ToolStatus = "completed"
	ToolError     ToolStatus = "error"
)

// ToolEntry is one tool_use block observed in the transcript.
type ToolEntry struct {
	ID        string
	Name      string
	Target    string
	Status    ToolStatus
	StartTime time.Time
	EndTime   time.Time
}

// AgentEntry is one sub-agent spawned through the Task tool.
type AgentEntry struct {
	ID          string
	Type        string
	Model       string
	Description string
	Status      ToolStatus
	StartTime   time.Time
	EndTime     time.Time
}

// TodoItem is one entry of the latest TodoWrite list.
type TodoItem struct {
	Content string
	Status  string
}

// Activity is the recent-activity surface rendered below the status line.
type Activity struct {
	RunningTools   []ToolEntry
	CompletedTools map[string]int
	Agents         []AgentEntry
	Todos          []TodoItem
	SessionStart   time.Time
}

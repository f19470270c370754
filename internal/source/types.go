package source

import (
	"time"

	"github.com/tidwall/gjson"

	"github.com/theirongolddev/ctrip/internal/model"
)

// RecordKind tags a transcript record by its top-level "type".
type RecordKind int

const (
	KindOther RecordKind = iota
	KindUser
	KindAssistant
)

// Block is one element of an array-valued message.content.
type Block struct {
	Type      string // "text", "tool_use", "tool_result", ...
	ID        string
	Name      string
	ToolUseID string
	IsError   bool
	Input     gjson.Result
}

// Record is one decoded transcript line. Every field is optional in the
// source data; absent fields are left at their zero value.
type Record struct {
	Kind      RecordKind
	IsMeta    bool
	RequestID string
	Timestamp time.Time

	Model string
	Usage *model.TokenUsage

	// Exactly one of Text or Blocks is meaningful, selected by ContentIsArray.
	Text           string
	Blocks         []Block
	ContentIsArray bool
	HasContent     bool
}

// DecodeRecord parses one JSONL line field by field.
// Returns false if the line is not a JSON object.
func DecodeRecord(line []byte) (Record, bool) {
	if !gjson.ValidBytes(line) {
		return Record{}, false
	}
	root := gjson.ParseBytes(line)
	if !root.IsObject() {
		return Record{}, false
	}

	msg := root.Get("message")

	var rec Record
	switch kind := root.Get("type").String(); kind {
	case "user":
		rec.Kind = KindUser
	case "assistant":
		rec.Kind = KindAssistant
	case "":
		switch msg.Get("role").String() {
		case "user":
			rec.Kind = KindUser
		case "assistant":
			rec.Kind = KindAssistant
		}
	}

	rec.IsMeta = root.Get("isMeta").Type == gjson.True
	rec.RequestID = root.Get("requestId").String()
	if ts := root.Get("timestamp"); ts.Type == gjson.String {
		if t, err := time.Parse(time.RFC3339Nano, ts.String()); err == nil {
			rec.Timestamp = t
		}
	}

	if !msg.IsObject() {
		return rec, true
	}

	if m := msg.Get("model"); m.Type == gjson.String {
		rec.Model = m.String()
	}
	if u := msg.Get("usage"); u.IsObject() {
		rec.Usage = &model.TokenUsage{
			Input:         nonNegative(u.Get("input_tokens")),
			Output:        nonNegative(u.Get("output_tokens")),
			CacheCreation: nonNegative(u.Get("cache_creation_input_tokens")),
			CacheRead:     nonNegative(u.Get("cache_read_input_tokens")),
		}
	}

	content := msg.Get("content")
	switch {
	case content.IsArray():
		rec.HasContent = true
		rec.ContentIsArray = true
		content.ForEach(func(_, b gjson.Result) bool {
			rec.Blocks = append(rec.Blocks, Block{
				Type:      b.Get("type").String(),
				ID:        b.Get("id").String(),
				Name:      b.Get("name").String(),
				ToolUseID: b.Get("tool_use_id").String(),
				IsError:   b.Get("is_error").Type == gjson.True,
				Input:     b.Get("input"),
			})
			return true
		})
	case content.Type == gjson.String:
		rec.HasContent = true
		rec.Text = content.String()
	}

	return rec, true
}

func nonNegative(r gjson.Result) int64 {
	if n := r.Int(); n > 0 {
		return n
	}
	return 0
}

// CountsAsTool returns the number of tool_use blocks in an assistant record.
func (r Record) CountsAsTool() int {
	if r.Kind != KindAssistant || !r.ContentIsArray {
		return 0
	}
	n := 0
	for _, b := range r.Blocks {
		if b.Type == "tool_use" {
			n++
		}
	}
	return n
}

// IsHumanMessage reports whether r is a user turn typed by a person: not meta,
// not solely tool results, and not a slash-command wrapper.
func (r Record) IsHumanMessage() bool {
	if r.Kind != KindUser || r.IsMeta {
		return false
	}
	if r.ContentIsArray {
		for _, b := range r.Blocks {
			if b.Type != "tool_result" {
				return true
			}
		}
		return false
	}
	return !commandMarker.MatchString(r.Text)
}

// HasTokenUsage reports whether r contributes billed tokens.
func (r Record) HasTokenUsage() bool {
	return r.Usage != nil && r.Model != ""
}

// Package source discovers and parses Claude Code JSONL session transcripts.
package source

import (
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/theirongolddev/ctrip/internal/model"
)

// commandMarker matches the wrappers Claude Code puts around slash commands.
var commandMarker = regexp.MustCompile(`<command-name>|<command-args>|<local-command-stdout>|<command-message>`)

// maxLineSize bounds a single transcript line; longer lines are skipped.
const maxLineSize = 16 * 1024 * 1024

// requestKey identifies one logical API call for deduplication.
type requestKey struct {
	RequestID string
	Model     string
}

// Bucket is the deduplicated usage of one logical API call.
type Bucket struct {
	RequestID string
	Model     string
	Usage     model.TokenUsage
}

// ParseResult holds the output of parsing a single JSONL file.
type ParseResult struct {
	Path         string
	MessageCount int
	ToolCount    int
	Buckets      []Bucket // first-seen order
	Lines        int
	ParseErrors  int
	Err          error
}

// Options controls what ParseFile extracts.
type Options struct {
	// CountTurns enables message and tool counting. Agent transcripts only
	// contribute tokens, so it is set for the primary transcript alone.
	CountTurns bool
}

// SessionID derives the session identifier from a transcript path.
func SessionID(transcriptPath string) string {
	return strings.TrimSuffix(filepath.Base(transcriptPath), ".jsonl")
}

// ParseFile reads a JSONL transcript and produces counts and deduplicated usage.
//
// Records sharing a (requestId, model) pair are collapsed by taking the
// maximum of each token category; they are never summed. Malformed lines are
// counted in ParseErrors and skipped, as are lines over maxLineSize.
func ParseFile(path string, opts Options) ParseResult {
	f, err := os.Open(path) //nolint:gosec // transcript path comes from the hook input or discovery
	if err != nil {
		return ParseResult{Path: path, Err: err}
	}
	defer func() { _ = f.Close() }()

	res := ParseReader(f, opts)
	res.Path = path
	return res
}

// ParseReader is ParseFile over an arbitrary reader.
func ParseReader(r io.Reader, opts Options) ParseResult {
	var res ParseResult

	seen := make(map[requestKey]int)

	oversized, err := ReadLines(r, func(line []byte) {
		res.Lines++

		rec, ok := DecodeRecord(line)
		if !ok {
			res.ParseErrors++
			return
		}

		if opts.CountTurns {
			if rec.IsHumanMessage() {
				res.MessageCount++
			}
			res.ToolCount += rec.CountsAsTool()
		}

		if !rec.HasTokenUsage() {
			return
		}

		key := requestKey{RequestID: rec.RequestID, Model: rec.Model}
		if idx, ok := seen[key]; ok {
			res.Buckets[idx].Usage = res.Buckets[idx].Usage.Max(*rec.Usage)
			return
		}
		seen[key] = len(res.Buckets)
		res.Buckets = append(res.Buckets, Bucket{
			RequestID: rec.RequestID,
			Model:     rec.Model,
			Usage:     *rec.Usage,
		})
	})
	res.Lines += oversized
	res.ParseErrors += oversized
	res.Err = err

	return res
}

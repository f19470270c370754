package source

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// agentRef matches agent transcript identifiers embedded in a primary transcript.
var agentRef = regexp.MustCompile(`agent-[a-z0-9]+`)

// gitBashDrive matches Git Bash style drive prefixes like "/c/".
var gitBashDrive = regexp.MustCompile(`^/[a-z]/`)

// ErrNoSession indicates no transcript exists for the working directory.
var ErrNoSession = errors.New("source: no session transcript for directory")

// ProjectsRoots returns the directories that may hold Claude Code project
// transcripts: <claudeDir>/projects plus the XDG location when present.
func ProjectsRoots(claudeDir string) []string {
	roots := []string{filepath.Join(claudeDir, "projects")}

	xdg := os.Getenv("XDG_CONFIG_HOME")
	if xdg == "" {
		if home, err := os.UserHomeDir(); err == nil {
			xdg = filepath.Join(home, ".config")
		}
	}
	if xdg != "" {
		alt := filepath.Join(xdg, "claude", "projects")
		if info, err := os.Stat(alt); err == nil && info.IsDir() && alt != roots[0] {
			roots = append(roots, alt)
		}
	}
	return roots
}

// AgentIDs returns the distinct agent identifiers referenced in data, sorted.
func AgentIDs(data []byte) []string {
	seen := make(map[string]struct{})
	for _, m := range agentRef.FindAll(data, -1) {
		seen[string(m)] = struct{}{}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// FindAgentTranscripts locates the agent transcripts referenced by the primary
// transcript. When an agent id exists under several project directories the
// lexicographically first path is used. The result is sorted.
func FindAgentTranscripts(primaryPath string, roots []string) ([]string, error) {
	data, err := os.ReadFile(primaryPath) //nolint:gosec // transcript path comes from the hook input or discovery
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading transcript: %w", err)
	}

	ids := AgentIDs(data)
	if len(ids) == 0 {
		return nil, nil
	}

	wanted := make(map[string]string, len(ids))
	for _, id := range ids {
		wanted[id+".jsonl"] = id
	}

	primaryAbs, _ := filepath.Abs(primaryPath)
	candidates := make(map[string][]string)

	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return nil //nolint:nilerr // intentionally skip unreadable entries
			}
			if d.IsDir() {
				return nil
			}
			id, ok := wanted[d.Name()]
			if !ok {
				return nil
			}
			if abs, _ := filepath.Abs(path); abs == primaryAbs {
				return nil
			}
			candidates[id] = append(candidates[id], path)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", root, err)
		}
	}

	var paths []string
	for _, id := range ids {
		found := candidates[id]
		if len(found) == 0 {
			continue
		}
		sort.Strings(found)
		paths = append(paths, found[0])
	}
	sort.Strings(paths)

	return paths, nil
}

// EncodeProjectDir converts a working directory into Claude Code's project
// directory name, e.g. "/home/me/my_app" -> "-home-me-my-app" and
// "/c/Dev/app" -> "C--Dev-app".
func EncodeProjectDir(cwd string) string {
	p := cwd
	if gitBashDrive.MatchString(p) {
		p = strings.ToUpper(p[1:2]) + ":" + p[2:]
	}
	p = strings.ReplaceAll(p, `\`, "/")
	return strings.NewReplacer(":", "-", "/", "-", "_", "-").Replace(p)
}

// FindCurrentSession returns the most recently modified non-agent transcript
// for cwd. Ties on modification time are broken by name, descending.
func FindCurrentSession(projectsDir, cwd string) (string, error) {
	dir := filepath.Join(projectsDir, EncodeProjectDir(cwd))

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNoSession
		}
		return "", fmt.Errorf("reading project dir: %w", err)
	}

	type candidate struct {
		name  string
		mtime int64
	}
	var files []candidate
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".jsonl") || strings.HasPrefix(name, "agent-") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, candidate{name: name, mtime: info.ModTime().UnixNano()})
	}
	if len(files) == 0 {
		return "", ErrNoSession
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].mtime != files[j].mtime {
			return files[i].mtime > files[j].mtime
		}
		return files[i].name > files[j].name
	})

	return filepath.Join(dir, files[0].name), nil
}

// projectParents are directory names that usually sit directly above a checkout.
var projectParents = []string{"projects", "repos", "src", "code", "workspace", "dev"}

// ProjectName labels the project a transcript belongs to. Dashes in the
// encoded directory are ambiguous, so the name is everything after the last
// well-known parent ("-projects-my-app" -> "my-app"), else the last segment.
func ProjectName(transcriptPath string) string {
	encoded := filepath.Base(filepath.Dir(transcriptPath))
	lower := strings.ToLower(encoded)

	at, start := -1, 0
	for _, p := range projectParents {
		if i := strings.LastIndex(lower, "-"+p+"-"); i > at {
			at, start = i, i+len(p)+2
		}
	}
	if at >= 0 && start < len(encoded) {
		return encoded[start:]
	}

	segments := strings.FieldsFunc(encoded, func(r rune) bool { return r == '-' })
	if len(segments) == 0 {
		return encoded
	}
	return segments[len(segments)-1]
}

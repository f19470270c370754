// Package gitinfo reports the branch and dirty state of a working tree.
package gitinfo

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Timeout bounds each git invocation.
const Timeout = 500 * time.Millisecond

// Info is the git state shown in the status line.
type Info struct {
	Branch string
	Dirty  bool
}

// Lookup returns the git state of dir. It returns (nil, nil) when dir is not
// inside a work tree or git is unavailable.
func Lookup(ctx context.Context, dir string) (*Info, error) {
	if dir == "" {
		return nil, nil
	}
	if _, err := exec.LookPath("git"); err != nil {
		return nil, nil //nolint:nilerr // no git means no git info
	}

	branch, err := run(ctx, dir, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return nil, nil //nolint:nilerr // not a repository
	}

	status, err := run(ctx, dir, "status", "--porcelain")
	if err != nil {
		return nil, fmt.Errorf("git status: %w", err)
	}

	return &Info{
		Branch: strings.TrimSpace(string(branch)),
		Dirty:  len(bytes.TrimSpace(status)) > 0,
	}, nil
}

func run(ctx context.Context, dir string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	return cmd.Output()
}

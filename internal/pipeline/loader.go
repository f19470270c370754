// Package pipeline turns transcripts into scored session results.
package pipeline

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/theirongolddev/ctrip/internal/source"
)

// LoadResult holds the parsed primary transcript and its agent transcripts.
type LoadResult struct {
	Primary source.ParseResult
	Agents  []source.ParseResult // same order as the input paths
}

// Load parses the primary transcript and every agent transcript. Agent files
// are parsed concurrently with bounded parallelism; results are stored by
// input index so the caller folds them in a deterministic order.
func Load(ctx context.Context, primaryPath string, agentPaths []string) (*LoadResult, error) {
	result := &LoadResult{
		Agents: make([]source.ParseResult, len(agentPaths)),
	}

	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers < 1 {
		numWorkers = 4
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(numWorkers)

	g.Go(func() error {
		result.Primary = source.ParseFile(primaryPath, source.Options{CountTurns: true})
		return nil
	})

	for i, path := range agentPaths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			result.Agents[i] = source.ParseFile(path, source.Options{})
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

package batch

import (
	"context"
	"io"
	"os"
	"runtime"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"github.com/viant/afs/url"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/gocodewalk/pgraph"
	"github.com/gocodewalk/pgraph/graph"
)

// FileResult is the outcome of building one file's program graph.
type FileResult struct {
	Path  string
	Graph *graph.Graph
	// Err is set when pgraph.Build failed outright (e.g. ErrEmptyProgram,
	// or a SyntaxError under PolicyRaise). A SyntaxError surfaced under
	// PolicyWarn is not set here — it is folded into Result.Warnings
	// instead, since Graph is still usable in that case.
	Err error
}

// Result is the outcome of a Walk call.
type Result struct {
	Files []*FileResult
	// Warnings aggregates every per-file SyntaxError seen under
	// PolicyWarn, via multierr, without aborting the walk.
	Warnings error
}

// Walk traverses root with fs, matching files per lang's default (or an
// overriding WithMatcher), and runs pgraph.Build over each match
// concurrently, bounded by runtime.GOMAXPROCS unless overridden by
// WithConcurrency. A single independent build failure (other than a
// PolicyWarn SyntaxError) does not abort the walk; it is recorded on that
// file's FileResult.Err.
func Walk(ctx context.Context, fs afs.Service, root string, lang pgraph.Language, opts ...Option) (*Result, error) {
	cfg := newConfig(lang, opts...)

	var paths []string
	var visitor storage.OnVisit = func(_ context.Context, baseURL, parent string, info os.FileInfo, _ io.Reader) (bool, error) {
		if !cfg.match(info) {
			return false, nil
		}
		if info.IsDir() {
			return true, nil
		}
		paths = append(paths, url.Join(baseURL, parent, info.Name()))
		return true, nil
	}
	if err := fs.Walk(ctx, root, visitor); err != nil {
		return nil, err
	}

	limit := cfg.concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	files := make([]*FileResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	var (
		warnMu   sync.Mutex
		warnings error
	)
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			code, err := fs.DownloadWithURL(gctx, p)
			if err != nil {
				files[i] = &FileResult{Path: p, Err: err}
				return nil
			}
			gr, err := pgraph.Build(code, lang, cfg.buildOpts...)
			res := &FileResult{Path: p, Graph: gr}
			if synErr, isSyn := err.(*pgraph.SyntaxError); isSyn && gr != nil {
				warnMu.Lock()
				warnings = multierr.Append(warnings, synErr)
				warnMu.Unlock()
			} else if err != nil {
				res.Err = err
			}
			files[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Result{Files: files, Warnings: warnings}, nil
}

package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sevigo/argus/internal/codemap"
	"github.com/sevigo/argus/internal/core"
	"github.com/sevigo/argus/internal/ids"
	"github.com/sevigo/argus/internal/parser"
)

// Options configure a build.
type Options struct {
	IgnoreGlobs     []string
	ExtraExtensions map[string]parser.Language
	Workers         int
}

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return 8
}

// parseOutcome is one file's parse result, kept alongside any error so a
// per-file failure degrades that file without aborting the batch.
type parseOutcome struct {
	path  ids.FilePath
	entry codemap.FileEntry
	edges []codemap.Edge
	err   error
}

// FullBuild walks root, parses every file concurrently, and assembles a new
// CodebaseMap at targetSHA. A structural failure (missing root, I/O error)
// aborts with *core.IndexingError; a per-file parse failure degrades that
// file to an empty entry and is logged by the caller via outcome.err.
func FullBuild(ctx context.Context, root string, targetSHA ids.CommitSHA, opts Options) (*codemap.CodebaseMap, []error, error) {
	paths, err := walk(root, opts.IgnoreGlobs)
	if err != nil {
		return nil, nil, &core.IndexingError{Path: root, Stage: "walk", Cause: err}
	}
	return buildFrom(ctx, root, targetSHA, paths, opts)
}

func buildFrom(ctx context.Context, root string, targetSHA ids.CommitSHA, paths []ids.FilePath, opts Options) (*codemap.CodebaseMap, []error, error) {
	outcomes := parseAll(ctx, root, paths, opts)

	entries := make(map[ids.FilePath]codemap.FileEntry, len(outcomes))
	var allEdges []codemap.Edge
	var parseErrs []error
	for _, o := range outcomes {
		var ioErr *core.IndexingError
		if errors.As(o.err, &ioErr) {
			return nil, nil, ioErr
		}
		if o.err != nil {
			parseErrs = append(parseErrs, o.err)
			entries[o.path] = codemap.FileEntry{Path: o.path, LastIndexedSHA: targetSHA}
			continue
		}
		entry := o.entry
		entry.LastIndexedSHA = targetSHA
		entries[o.path] = entry
		allEdges = append(allEdges, o.edges...)
	}

	resolved := resolveEdges(entries, allEdges)
	codemap.SortEdges(resolved)

	return codemap.New(targetSHA, entries, resolved), parseErrs, nil
}

func parseAll(ctx context.Context, root string, paths []ids.FilePath, opts Options) []parseOutcome {
	type job struct{ path ids.FilePath }

	jobs := make(chan job, len(paths))
	results := make(chan parseOutcome, len(paths))

	var wg sync.WaitGroup
	for i := 0; i < opts.workers(); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				results <- parseOne(ctx, root, j.path, opts)
			}
		}()
	}
	for _, p := range paths {
		jobs <- job{path: p}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	outcomes := make([]parseOutcome, 0, len(paths))
	for r := range results {
		outcomes = append(outcomes, r)
	}
	return outcomes
}

func parseOne(ctx context.Context, root string, path ids.FilePath, opts Options) parseOutcome {
	lang, ok := parser.DetectLanguage(string(path), opts.ExtraExtensions)
	if !ok {
		return parseOutcome{path: path, entry: codemap.FileEntry{Path: path}}
	}

	source, err := os.ReadFile(filepath.Join(root, string(path)))
	if err != nil {
		return parseOutcome{path: path, err: &core.IndexingError{Path: string(path), Stage: "read", Cause: err}}
	}

	p, err := parser.New(lang)
	if err != nil {
		return parseOutcome{path: path, err: err}
	}

	result, err := p.Parse(ctx, path, source)
	if err != nil {
		return parseOutcome{path: path, err: fmt.Errorf("parse %s: %w", path, err)}
	}
	return parseOutcome{path: path, entry: result.Entry, edges: result.Edges}
}

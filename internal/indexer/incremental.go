package indexer

import (
	"context"
	"errors"

	"github.com/sevigo/argus/internal/codemap"
	"github.com/sevigo/argus/internal/core"
	"github.com/sevigo/argus/internal/ids"
)

// ChangeSet is the set of paths that changed between a prior map's
// indexed_at and a new target_sha.
type ChangeSet struct {
	Added    []ids.FilePath
	Modified []ids.FilePath
	Removed  []ids.FilePath
}

// IncrementalBuild applies a ChangeSet to prior, reparsing added/modified
// files and dropping removed ones, per spec §4.2. The resulting map's
// indexed_at is targetSHA.
func IncrementalBuild(ctx context.Context, root string, prior *codemap.CodebaseMap, changes ChangeSet, targetSHA ids.CommitSHA, opts Options) (*codemap.CodebaseMap, []error, error) {
	entries := make(map[ids.FilePath]codemap.FileEntry, len(prior.Entries))
	for path, entry := range prior.Entries {
		entries[path] = entry
	}
	edges := append([]codemap.Edge(nil), prior.Graph.Edges()...)

	for _, path := range changes.Removed {
		delete(entries, path)
		edges = dropEdgesForFile(edges, path, prior.Entries)
	}

	toReparse := append(append([]ids.FilePath(nil), changes.Added...), changes.Modified...)
	outcomes := parseAll(ctx, root, toReparse, opts)

	var parseErrs []error
	for _, o := range outcomes {
		var ioErr *core.IndexingError
		if errors.As(o.err, &ioErr) {
			return nil, nil, ioErr
		}
		edges = dropEdgesForFile(edges, o.path, prior.Entries)
		if o.err != nil {
			parseErrs = append(parseErrs, o.err)
			entries[o.path] = codemap.FileEntry{Path: o.path, LastIndexedSHA: targetSHA}
			continue
		}
		entry := o.entry
		entry.LastIndexedSHA = targetSHA
		entries[o.path] = entry
		edges = append(edges, o.edges...)
	}

	resolved := resolveEdges(entries, edges)
	codemap.SortEdges(resolved)

	return codemap.New(targetSHA, entries, resolved), parseErrs, nil
}

// dropEdgesForFile removes every edge whose source or target resolves into
// path, using prior's symbol membership to decide whether a qualified-name
// endpoint belongs to the file being replaced or removed.
func dropEdgesForFile(edges []codemap.Edge, path ids.FilePath, prior map[ids.FilePath]codemap.FileEntry) []codemap.Edge {
	owned := ownedQualifiedNames(path, prior)

	out := edges[:0:0]
	for _, e := range edges {
		if e.Source == string(path) || e.Target == string(path) {
			continue
		}
		if owned[e.Source] || owned[e.Target] {
			continue
		}
		out = append(out, e)
	}
	return out
}

func ownedQualifiedNames(path ids.FilePath, prior map[ids.FilePath]codemap.FileEntry) map[string]bool {
	owned := make(map[string]bool)
	if entry, ok := prior[path]; ok {
		for _, sym := range entry.Symbols {
			owned[sym.QualifiedName] = true
		}
	}
	return owned
}

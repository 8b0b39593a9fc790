package indexer

import (
	"testing"

	"github.com/sevigo/argus/internal/codemap"
	"github.com/sevigo/argus/internal/ids"
)

func TestResolveEdgesSameFilePreferred(t *testing.T) {
	entries := map[ids.FilePath]codemap.FileEntry{
		"a/x.py": {
			Path: "a/x.py",
			Symbols: []codemap.Symbol{
				{Name: "f", QualifiedName: "f"},
				{Name: "helper", QualifiedName: "f.helper"},
			},
		},
		"b/y.py": {
			Path: "b/y.py",
			Symbols: []codemap.Symbol{
				{Name: "helper", QualifiedName: "helper"},
			},
		},
	}
	edges := []codemap.Edge{
		{Source: "f", Target: "helper", Kind: codemap.EdgeCalls},
	}

	resolved := resolveEdges(entries, edges)
	if len(resolved) != 1 {
		t.Fatalf("expected 1 edge, got %d", len(resolved))
	}
	if resolved[0].Target != "f.helper" {
		t.Errorf("expected same-file resolution to win, got %q", resolved[0].Target)
	}
}

func TestDropEdgesForFileRemovesOwnedEndpoints(t *testing.T) {
	prior := map[ids.FilePath]codemap.FileEntry{
		"a/x.py": {
			Path: "a/x.py",
			Symbols: []codemap.Symbol{
				{Name: "f", QualifiedName: "f"},
			},
		},
	}
	edges := []codemap.Edge{
		{Source: "f", Target: "g", Kind: codemap.EdgeCalls},
		{Source: "other", Target: "unrelated", Kind: codemap.EdgeCalls},
	}

	out := dropEdgesForFile(edges, "a/x.py", prior)
	if len(out) != 1 || out[0].Source != "other" {
		t.Errorf("expected only the unrelated edge to survive, got %+v", out)
	}
}

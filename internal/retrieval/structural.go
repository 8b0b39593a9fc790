package retrieval

import (
	"context"

	"github.com/sevigo/argus/internal/codemap"
	"github.com/sevigo/argus/internal/ids"
)

const (
	scoreStructuralEdge     = 1.0
	scoreStructuralSameFile = 0.7
)

// StructuralStrategy walks the loaded dependency graph from the query's
// changed symbols: direct dependents, direct dependencies, and every other
// symbol in the same file (spec §4.5). It is deterministic, never suspends,
// and never calls out — Retrieve only touches the in-memory map and the
// local source files it reads through Source.
type StructuralStrategy struct {
	Map    *codemap.CodebaseMap
	Source SourceProvider
}

func (s *StructuralStrategy) Name() StrategyName { return StrategyStructural }

func (s *StructuralStrategy) Retrieve(ctx context.Context, query RetrievalQuery) ([]ContextItem, error) {
	if s.Map == nil {
		return nil, nil
	}

	locations := symbolLocations(s.Map)

	type candidate struct {
		node  string
		score float64
	}
	seen := make(map[string]bool)
	var candidates []candidate
	add := func(node string, score float64) {
		if seen[node] {
			return
		}
		seen[node] = true
		candidates = append(candidates, candidate{node: node, score: score})
	}

	for _, sym := range query.ChangedSymbols {
		seen[sym] = true // never surface the changed symbol itself
		for _, dep := range s.Map.Graph.Dependencies(sym) {
			add(dep, scoreStructuralEdge)
		}
		for _, dep := range s.Map.Graph.Dependents(sym) {
			add(dep, scoreStructuralEdge)
		}
		if loc, ok := locations[sym]; ok {
			for _, other := range s.Map.Entries[loc.path].Symbols {
				if other.QualifiedName == sym {
					continue
				}
				add(other.QualifiedName, scoreStructuralSameFile)
			}
		}
	}

	var items []ContextItem
	for _, c := range candidates {
		select {
		case <-ctx.Done():
			return items, ctx.Err()
		default:
		}
		item, ok := s.buildItem(ctx, c.node, c.score, locations)
		if ok {
			items = append(items, item)
		}
	}
	return items, nil
}

type symbolLocation struct {
	path ids.FilePath
	lr   ids.LineRange
}

// symbolLocations indexes every declared symbol by qualified_name so graph
// node strings (which may be a qualified_name or, for unresolved edges, a
// bare FilePath) can be mapped back to where their text lives.
func symbolLocations(m *codemap.CodebaseMap) map[string]symbolLocation {
	out := make(map[string]symbolLocation)
	for path, entry := range m.Entries {
		for _, sym := range entry.Symbols {
			out[sym.QualifiedName] = symbolLocation{path: path, lr: sym.LineRange}
		}
	}
	return out
}

func (s *StructuralStrategy) buildItem(ctx context.Context, node string, score float64, locations map[string]symbolLocation) (ContextItem, bool) {
	if loc, ok := locations[node]; ok {
		return s.readItem(ctx, loc.path, loc.lr, score)
	}
	// Unresolved edge target: the node is a bare FilePath, not a symbol.
	// Surface the whole file, since there is no finer-grained location.
	path := ids.FilePath(node)
	if _, ok := s.Map.Entries[path]; !ok {
		return ContextItem{}, false
	}
	return s.readItem(ctx, path, ids.LineRange{Start: 1, End: 1 << 20}, score)
}

func (s *StructuralStrategy) readItem(ctx context.Context, path ids.FilePath, lr ids.LineRange, score float64) (ContextItem, bool) {
	if s.Source == nil {
		return ContextItem{}, false
	}
	source, err := s.Source.ReadFile(ctx, path)
	if err != nil {
		return ContextItem{}, false
	}
	text, clamped := sliceLines(source, lr)
	if text == "" {
		return ContextItem{}, false
	}
	return ContextItem{
		SourceStrategy: StrategyStructural,
		FilePath:       path,
		LineRange:      clamped,
		Text:           text,
		Score:          score,
		Fingerprint:    Fingerprint(path, clamped),
	}, true
}

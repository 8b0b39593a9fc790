package codemap

import "github.com/sevigo/argus/internal/ids"

// CodebaseMap is the full aggregate: an indexed_at watermark, every file
// entry keyed by path, and the dependency graph over their edges. A
// partial map (a subset of shards loaded) is structurally identical to a
// full map; consumers must tolerate missing edge targets.
type CodebaseMap struct {
	IndexedAt ids.CommitSHA
	Entries   map[ids.FilePath]FileEntry
	Graph     *DependencyGraph
}

// New builds a CodebaseMap from entries and the edges gathered across all
// of them. Edges must be sorted by (source, kind, target) before being
// passed in.
func New(indexedAt ids.CommitSHA, entries map[ids.FilePath]FileEntry, edges []Edge) *CodebaseMap {
	return &CodebaseMap{
		IndexedAt: indexedAt,
		Entries:   entries,
		Graph:     NewDependencyGraph(edges),
	}
}

// FileForSymbol returns the FilePath of the entry that declares
// qualifiedName, if any entry in the map does.
func (m *CodebaseMap) FileForSymbol(qualifiedName string) (ids.FilePath, bool) {
	for path, entry := range m.Entries {
		for _, sym := range entry.Symbols {
			if sym.QualifiedName == qualifiedName {
				return path, true
			}
		}
	}
	return "", false
}

// SymbolsInFile returns the symbols declared in path, or nil if path is
// not present in the map.
func (m *CodebaseMap) SymbolsInFile(path ids.FilePath) []Symbol {
	entry, ok := m.Entries[path]
	if !ok {
		return nil
	}
	return entry.Symbols
}

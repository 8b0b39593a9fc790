package codemap

import "sort"

// EdgeKind is the closed set of dependency relationships between symbols.
type EdgeKind string

const (
	EdgeImports    EdgeKind = "imports"
	EdgeCalls      EdgeKind = "calls"
	EdgeExtends    EdgeKind = "extends"
	EdgeImplements EdgeKind = "implements"
	EdgeReferences EdgeKind = "references"
)

// Edge is a directed dependency from a source qualified_name to a target,
// which is either another qualified_name or a bare FilePath (e.g. a module
// import whose target symbol wasn't resolved).
type Edge struct {
	Source string   `json:"source"`
	Target string   `json:"target"`
	Kind   EdgeKind `json:"kind"`
}

// SortEdges orders edges by (source, kind, target) so that serialized
// content, and therefore content hashes, are stable across runs on
// identical inputs (spec §4.2).
func SortEdges(edges []Edge) {
	sort.Slice(edges, func(i, j int) bool {
		a, b := edges[i], edges[j]
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.Target < b.Target
	})
}

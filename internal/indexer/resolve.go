package indexer

import (
	"strings"

	"github.com/sevigo/argus/internal/codemap"
	"github.com/sevigo/argus/internal/ids"
)

// resolveEdges rewrites call/extends/implements/references edges whose
// target is a bare identifier into the qualified_name of the symbol it
// refers to, first preferring a match within the edge's own file, then
// falling back to a unique match anywhere in the map. Import edges are
// resolved to the file they point at when one can be found by path suffix.
// Targets that cannot be resolved are left as-is; downstream consumers
// tolerate unresolved edges (spec §3, §4.2).
func resolveEdges(entries map[ids.FilePath]codemap.FileEntry, edges []codemap.Edge) []codemap.Edge {
	byName := make(map[string][]string)       // bare name -> qualified names, global
	fileOfQualified := make(map[string]ids.FilePath)
	fileOfSymbol := make(map[string]map[string]string) // file -> bare name -> qualified name

	for path, entry := range entries {
		local := make(map[string]string, len(entry.Symbols))
		for _, sym := range entry.Symbols {
			bare := lastSegment(sym.Name)
			byName[bare] = append(byName[bare], sym.QualifiedName)
			fileOfQualified[sym.QualifiedName] = path
			local[bare] = sym.QualifiedName
		}
		fileOfSymbol[string(path)] = local
	}

	out := make([]codemap.Edge, 0, len(edges))
	for _, e := range edges {
		resolved := e
		switch e.Kind {
		case codemap.EdgeCalls, codemap.EdgeExtends, codemap.EdgeImplements, codemap.EdgeReferences:
			if target, ok := resolveSymbolTarget(e, fileOfSymbol, fileOfQualified, byName); ok {
				resolved.Target = target
			}
		case codemap.EdgeImports:
			if target, ok := resolveImportTarget(e.Target, entries); ok {
				resolved.Target = string(target)
			}
		}
		out = append(out, resolved)
	}
	return out
}

func resolveSymbolTarget(
	e codemap.Edge,
	fileOfSymbol map[string]map[string]string,
	fileOfQualified map[string]ids.FilePath,
	byName map[string][]string,
) (string, bool) {
	bare := lastSegment(e.Target)

	sourceFile, ok := fileOfQualified[e.Source]
	if ok {
		if local, ok := fileOfSymbol[string(sourceFile)]; ok {
			if qn, ok := local[bare]; ok {
				return qn, true
			}
		}
	}

	candidates := byName[bare]
	if len(candidates) == 1 {
		return candidates[0], true
	}
	return "", false
}

func resolveImportTarget(module string, entries map[ids.FilePath]codemap.FileEntry) (ids.FilePath, bool) {
	suffix := strings.ReplaceAll(module, ".", "/")
	for path := range entries {
		trimmed := strings.TrimSuffix(string(path), fileExt(string(path)))
		if strings.HasSuffix(trimmed, suffix) {
			return path, true
		}
	}
	return "", false
}

func lastSegment(name string) string {
	if idx := strings.LastIndexByte(name, '.'); idx >= 0 {
		return name[idx+1:]
	}
	return name
}

func fileExt(path string) string {
	if idx := strings.LastIndexByte(path, '.'); idx >= 0 {
		return path[idx:]
	}
	return ""
}

package memory

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sevigo/argus/internal/codemap"
	"github.com/sevigo/argus/internal/ids"
)

// maxSymbolsPerFile caps how many symbols are listed per file before the
// "...(+K more)" marker takes over (spec §4.7 "truncated after their first
// N symbols").
const maxSymbolsPerFile = 12

// DefaultOutlineCharBudget is used when a caller has not derived a tighter
// budget from the run's token budget.
const DefaultOutlineCharBudget = 8000

// RenderOutline builds a CodebaseOutline over m, either the full file set
// or (for ScopeScoped) changedFiles and their 1-hop graph neighbors.
// Truncation is deterministic: files are rendered in lexicographic order
// and rendering stops, whole-file, once charBudget would be exceeded.
func RenderOutline(m *codemap.CodebaseMap, scope Scope, changedFiles []ids.FilePath, charBudget int) CodebaseOutline {
	if m == nil {
		return CodebaseOutline{}
	}

	var paths []ids.FilePath
	if scope == ScopeScoped {
		paths = ScopedFiles(m, changedFiles)
	} else {
		paths = make([]ids.FilePath, 0, len(m.Entries))
		for p := range m.Entries {
			paths = append(paths, p)
		}
	}
	sort.Slice(paths, func(i, j int) bool { return paths[i] < paths[j] })

	var files []OutlineFile
	used := 0
	for _, p := range paths {
		entry := m.Entries[p]
		text := renderSymbols(entry.Symbols)
		line := string(p) + ": " + text
		if charBudget > 0 && used+len(line)+1 > charBudget && len(files) > 0 {
			break
		}
		files = append(files, OutlineFile{Path: p, SymbolsText: text})
		used += len(line) + 1
	}
	return CodebaseOutline{Files: files}
}

// RenderOutlineText flattens an outline to the plain-text form handed to
// the pattern analyzer and the prompt assembler.
func RenderOutlineText(o CodebaseOutline) string {
	var b strings.Builder
	for _, f := range o.Files {
		b.WriteString(string(f.Path))
		b.WriteString(": ")
		b.WriteString(f.SymbolsText)
		b.WriteString("\n")
	}
	return b.String()
}

// ScopedFiles resolves spec §4.7's scoped outline file set: the changed
// files plus every file reachable in one graph hop from any symbol they
// declare.
func ScopedFiles(m *codemap.CodebaseMap, changedFiles []ids.FilePath) []ids.FilePath {
	set := make(map[ids.FilePath]bool, len(changedFiles))
	for _, f := range changedFiles {
		set[f] = true
	}
	if m.Graph != nil {
		for _, f := range changedFiles {
			for _, sym := range m.SymbolsInFile(f) {
				for _, neighbor := range m.Graph.Neighbors(sym.QualifiedName, 1) {
					if path, ok := m.FileForSymbol(neighbor); ok {
						set[path] = true
					}
				}
			}
		}
	}
	paths := make([]ids.FilePath, 0, len(set))
	for p := range set {
		paths = append(paths, p)
	}
	sort.Slice(paths, func(i, j int) bool { return paths[i] < paths[j] })
	return paths
}

func renderSymbols(symbols []codemap.Symbol) string {
	if len(symbols) == 0 {
		return ""
	}
	sorted := append([]codemap.Symbol(nil), symbols...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].LineRange.Start < sorted[j].LineRange.Start
	})

	shown := sorted
	more := 0
	if len(sorted) > maxSymbolsPerFile {
		shown = sorted[:maxSymbolsPerFile]
		more = len(sorted) - maxSymbolsPerFile
	}

	parts := make([]string, 0, len(shown))
	for _, s := range shown {
		parts = append(parts, fmt.Sprintf("%s(%s)", s.Name, kindCode(s.Kind)))
	}
	text := strings.Join(parts, ", ")
	if more > 0 {
		text += fmt.Sprintf(", …(+%d more)", more)
	}
	return text
}

func kindCode(k codemap.SymbolKind) string {
	switch k {
	case codemap.SymbolFunction:
		return "f"
	case codemap.SymbolMethod:
		return "m"
	case codemap.SymbolClass:
		return "c"
	case codemap.SymbolInterface:
		return "i"
	case codemap.SymbolStruct:
		return "s"
	case codemap.SymbolEnum:
		return "e"
	case codemap.SymbolType:
		return "t"
	case codemap.SymbolConstant:
		return "k"
	default:
		return "?"
	}
}

package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/argus/internal/codemap"
	"github.com/sevigo/argus/internal/ids"
)

func TestRenderOutlineFullIsLexicographicAndTruncatesSymbols(t *testing.T) {
	entries := map[ids.FilePath]codemap.FileEntry{
		"b.py": {Path: "b.py", Symbols: []codemap.Symbol{
			{Name: "z", Kind: codemap.SymbolFunction, LineRange: ids.LineRange{Start: 1, End: 2}},
		}},
		"a.py": {Path: "a.py", Symbols: func() []codemap.Symbol {
			var syms []codemap.Symbol
			for i := 0; i < maxSymbolsPerFile+3; i++ {
				syms = append(syms, codemap.Symbol{
					Name:      "f",
					Kind:      codemap.SymbolFunction,
					LineRange: ids.LineRange{Start: i + 1, End: i + 1},
				})
			}
			return syms
		}()},
	}
	m := codemap.New("sha", entries, nil)

	outline := RenderOutline(m, ScopeFull, nil, 0)
	require.Len(t, outline.Files, 2)
	assert.Equal(t, ids.FilePath("a.py"), outline.Files[0].Path)
	assert.Equal(t, ids.FilePath("b.py"), outline.Files[1].Path)
	assert.Contains(t, outline.Files[0].SymbolsText, "…(+3 more)")
}

func TestRenderOutlineStopsAtCharBudget(t *testing.T) {
	entries := map[ids.FilePath]codemap.FileEntry{
		"a.py": {Path: "a.py", Symbols: []codemap.Symbol{{Name: "f", Kind: codemap.SymbolFunction}}},
		"b.py": {Path: "b.py", Symbols: []codemap.Symbol{{Name: "g", Kind: codemap.SymbolFunction}}},
		"c.py": {Path: "c.py", Symbols: []codemap.Symbol{{Name: "h", Kind: codemap.SymbolFunction}}},
	}
	m := codemap.New("sha", entries, nil)

	outline := RenderOutline(m, ScopeFull, nil, 14)
	require.NotEmpty(t, outline.Files)
	assert.Less(t, len(outline.Files), 3, "a tight budget must drop trailing files wholesale")
}

func TestRenderOutlineScopedIncludesOneHopNeighbors(t *testing.T) {
	entries := map[ids.FilePath]codemap.FileEntry{
		"a/y.py": {Path: "a/y.py", Symbols: []codemap.Symbol{
			{Name: "y", QualifiedName: "a.y.y", Kind: codemap.SymbolFunction},
		}},
		"b/z.py": {Path: "b/z.py", Symbols: []codemap.Symbol{
			{Name: "g", QualifiedName: "b.z.g", Kind: codemap.SymbolFunction},
		}},
		"c/unrelated.py": {Path: "c/unrelated.py", Symbols: []codemap.Symbol{
			{Name: "u", QualifiedName: "c.unrelated.u", Kind: codemap.SymbolFunction},
		}},
	}
	edges := []codemap.Edge{{Source: "a.y.y", Target: "b.z.g", Kind: codemap.EdgeCalls}}
	codemap.SortEdges(edges)
	m := codemap.New("sha", entries, edges)

	outline := RenderOutline(m, ScopeScoped, []ids.FilePath{"a/y.py"}, 0)
	require.Len(t, outline.Files, 2)
	assert.Equal(t, ids.FilePath("a/y.py"), outline.Files[0].Path)
	assert.Equal(t, ids.FilePath("b/z.py"), outline.Files[1].Path)
}

func TestRenderOutlineNilMapYieldsEmptyOutline(t *testing.T) {
	outline := RenderOutline(nil, ScopeFull, nil, 0)
	assert.Empty(t, outline.Files)
}

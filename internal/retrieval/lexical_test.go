package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/argus/internal/codemap"
	"github.com/sevigo/argus/internal/ids"
)

func TestTokenizeSplitsCamelSnakeAndDotPaths(t *testing.T) {
	assert.Equal(t, []string{"get", "user", "name"}, tokenize("getUserName"))
	assert.Equal(t, []string{"parse", "config", "file"}, tokenize("parse_config_file"))
	assert.Equal(t, []string{"pkg", "sub", "func"}, tokenize("pkg.sub.Func"))
}

func TestLexicalRetrieveRanksMatchingChunkHighest(t *testing.T) {
	entries := map[ids.FilePath]codemap.FileEntry{
		"a.py": {
			Path: "a.py",
			Symbols: []codemap.Symbol{
				{Name: "computeTotal", QualifiedName: "a.computeTotal", LineRange: ids.LineRange{Start: 1, End: 3}},
				{Name: "unrelated", QualifiedName: "a.unrelated", LineRange: ids.LineRange{Start: 5, End: 7}},
			},
		},
	}
	m := codemap.New("sha", entries, nil)
	source := fakeSource{
		"a.py": []byte("def computeTotal():\n    return sum_values()\n\n\ndef unrelated():\n    return None\n\n"),
	}

	strat := &LexicalStrategy{Map: m, Source: source}
	items, err := strat.Retrieve(context.Background(), RetrievalQuery{ChangedSymbols: []string{"computeTotal"}})
	require.NoError(t, err)
	require.NotEmpty(t, items)
	assert.Contains(t, items[0].Text, "computeTotal")
	assert.Equal(t, 1.0, items[0].Score, "top hit is normalized to the max score")
}

func TestLexicalRetrieveEmptyQueryYieldsNoItems(t *testing.T) {
	entries := map[ids.FilePath]codemap.FileEntry{
		"a.py": {Path: "a.py"},
	}
	m := codemap.New("sha", entries, nil)
	source := fakeSource{"a.py": []byte("print(1)\n")}

	strat := &LexicalStrategy{Map: m, Source: source}
	items, err := strat.Retrieve(context.Background(), RetrievalQuery{})
	require.NoError(t, err)
	assert.Empty(t, items)
}

type fakeSource map[ids.FilePath][]byte

func (f fakeSource) ReadFile(_ context.Context, path ids.FilePath) ([]byte, error) {
	return f[path], nil
}

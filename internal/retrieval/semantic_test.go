package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/argus/internal/ids"
)

type fakeEmbedder struct {
	vector []float32
	err    error
}

func (f fakeEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return f.vector, f.err
}

func TestSemanticRetrieveRanksByCosineSimilarityAboveFloor(t *testing.T) {
	idx := &EmbeddingIndex{Vectors: []ChunkVector{
		{FilePath: "close.py", LineRange: ids.LineRange{Start: 1, End: 1}, Text: "close", Vector: []float32{1, 0}},
		{FilePath: "far.py", LineRange: ids.LineRange{Start: 1, End: 1}, Text: "far", Vector: []float32{0, 1}},
	}}
	strat := &SemanticStrategy{Provider: fakeEmbedder{vector: []float32{1, 0}}, Index: idx}

	items, err := strat.Retrieve(context.Background(), RetrievalQuery{DiffText: "query"})
	require.NoError(t, err)
	require.Len(t, items, 1, "the orthogonal vector falls below the 0.2 similarity floor")
	assert.Equal(t, ids.FilePath("close.py"), items[0].FilePath)
	assert.InDelta(t, 1.0, items[0].Score, 1e-9)
}

func TestSemanticRetrieveDegradesOnProviderFailure(t *testing.T) {
	idx := &EmbeddingIndex{Vectors: []ChunkVector{
		{FilePath: "a.py", Vector: []float32{1, 0}},
	}}
	strat := &SemanticStrategy{Provider: fakeEmbedder{err: errors.New("provider down")}, Index: idx}

	items, err := strat.Retrieve(context.Background(), RetrievalQuery{DiffText: "query"})
	require.NoError(t, err, "provider failure degrades to zero items, not an error")
	assert.Empty(t, items)
}

func TestSemanticRetrieveNotConfiguredYieldsNoItems(t *testing.T) {
	strat := &SemanticStrategy{}
	items, err := strat.Retrieve(context.Background(), RetrievalQuery{DiffText: "query"})
	require.NoError(t, err)
	assert.Empty(t, items)
}

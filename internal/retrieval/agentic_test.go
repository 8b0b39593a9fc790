package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/argus/internal/core"
	"github.com/sevigo/argus/internal/ids"
)

type fakeAgenticSession struct {
	results    []core.AgenticResult
	err        error
	gotIterCap int
}

func (f *fakeAgenticSession) Explore(_ context.Context, _ string, _ core.AgenticTools, maxIterations int) ([]core.AgenticResult, error) {
	f.gotIterCap = maxIterations
	return f.results, f.err
}

type fakeAgenticTools struct{}

func (fakeAgenticTools) FindSymbol(context.Context, string) ([]core.AgenticChunk, error) { return nil, nil }
func (fakeAgenticTools) ReadFile(context.Context, string, ids.LineRange) (string, error)  { return "", nil }
func (fakeAgenticTools) ListDependents(context.Context, string) ([]string, error)         { return nil, nil }

func TestAgenticRetrieveClampsRelevance(t *testing.T) {
	session := &fakeAgenticSession{results: []core.AgenticResult{
		{FilePath: "a.py", LineRange: ids.LineRange{Start: 1, End: 2}, Text: "x", Relevance: 0.2},
		{FilePath: "b.py", LineRange: ids.LineRange{Start: 1, End: 2}, Text: "y", Relevance: 1.5},
		{FilePath: "c.py", LineRange: ids.LineRange{Start: 1, End: 2}, Text: "z", Relevance: 0.75},
	}}
	strat := &AgenticStrategy{Session: session, Tools: fakeAgenticTools{}}

	items, err := strat.Retrieve(context.Background(), RetrievalQuery{DiffText: "diff"})
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, 0.5, items[0].Score)
	assert.Equal(t, 1.0, items[1].Score)
	assert.Equal(t, 0.75, items[2].Score)
	assert.Equal(t, defaultAgenticIterationCap, session.gotIterCap)
}

func TestAgenticRetrieveHonorsIterationCapOverride(t *testing.T) {
	session := &fakeAgenticSession{}
	strat := &AgenticStrategy{Session: session, Tools: fakeAgenticTools{}, IterationCap: 3}
	_, err := strat.Retrieve(context.Background(), RetrievalQuery{})
	require.NoError(t, err)
	assert.Equal(t, 3, session.gotIterCap)
}

func TestAgenticRetrieveDegradesOnSessionFailure(t *testing.T) {
	session := &fakeAgenticSession{err: errors.New("llm unavailable")}
	strat := &AgenticStrategy{Session: session, Tools: fakeAgenticTools{}}
	items, err := strat.Retrieve(context.Background(), RetrievalQuery{})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestAgenticRetrieveNotConfiguredYieldsNoItems(t *testing.T) {
	strat := &AgenticStrategy{}
	items, err := strat.Retrieve(context.Background(), RetrievalQuery{})
	require.NoError(t, err)
	assert.Empty(t, items)
}

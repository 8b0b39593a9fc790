package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/argus/internal/codemap"
	"github.com/sevigo/argus/internal/core"
	"github.com/sevigo/argus/internal/ids"
)

type fakeAnalyzer struct {
	candidates []core.PatternCandidate
	err        error
	gotOutline string
	gotDiff    string
}

func (f *fakeAnalyzer) AnalyzePatterns(_ context.Context, outline, diff string) ([]core.PatternCandidate, error) {
	f.gotOutline = outline
	f.gotDiff = diff
	return f.candidates, f.err
}

func testMap() *codemap.CodebaseMap {
	entries := map[ids.FilePath]codemap.FileEntry{
		"a.py": {Path: "a.py", Symbols: []codemap.Symbol{{Name: "f", Kind: codemap.SymbolFunction}}},
	}
	return codemap.New("sha", entries, nil)
}

func TestBootstrapAnalysisAdvancesAnalyzedAtOnSuccess(t *testing.T) {
	analyzer := &fakeAnalyzer{candidates: []core.PatternCandidate{
		{Category: "style", Description: "x", Confidence: 0.5},
	}}
	mem, err := BootstrapAnalysis(context.Background(), analyzer, testMap(), "deadbeef", 0)
	require.NoError(t, err)
	require.NotNil(t, mem.AnalyzedAt)
	assert.Equal(t, ids.CommitSHA("deadbeef"), *mem.AnalyzedAt)
	require.Len(t, mem.Patterns, 1)
	assert.NotEmpty(t, mem.Outline.Files)
	assert.Contains(t, analyzer.gotOutline, "a.py")
	assert.Empty(t, analyzer.gotDiff)
}

func TestBootstrapAnalysisDoesNotAdvanceOnFailure(t *testing.T) {
	analyzer := &fakeAnalyzer{err: errors.New("llm unavailable")}
	mem, err := BootstrapAnalysis(context.Background(), analyzer, testMap(), "deadbeef", 0)
	require.Error(t, err)
	assert.Nil(t, mem)
}

func TestIncrementalAnalysisPreservesStoredOutlineButUsesScopedForTheCall(t *testing.T) {
	existingSHA := ids.CommitSHA("old")
	existing := &CodebaseMemory{
		AnalyzedAt: &existingSHA,
		Outline:    CodebaseOutline{Files: []OutlineFile{{Path: "full-outline-marker.py", SymbolsText: ""}}},
		Patterns:   []PatternEntry{{Category: PatternStyle, Description: "x", Confidence: 0.5}},
	}
	analyzer := &fakeAnalyzer{candidates: []core.PatternCandidate{
		{Category: "naming", Description: "y", Confidence: 0.6},
	}}

	mem, err := IncrementalAnalysis(context.Background(), analyzer, existing, testMap(), []ids.FilePath{"a.py"}, "diff text", "newsha", 0)
	require.NoError(t, err)
	require.NotNil(t, mem.AnalyzedAt)
	assert.Equal(t, ids.CommitSHA("newsha"), *mem.AnalyzedAt)
	assert.Equal(t, existing.Outline, mem.Outline, "the persisted outline must not be replaced by the scoped one")
	require.Len(t, mem.Patterns, 2)
	assert.Contains(t, analyzer.gotOutline, "a.py")
	assert.Equal(t, "diff text", analyzer.gotDiff)
}

func TestDiffBaseFallsBackToIndexedAt(t *testing.T) {
	assert.Equal(t, ids.CommitSHA("indexed"), DiffBase(nil, "indexed"))
	assert.Equal(t, ids.CommitSHA("indexed"), DiffBase(&CodebaseMemory{}, "indexed"))

	analyzed := ids.CommitSHA("analyzed-sha")
	assert.Equal(t, analyzed, DiffBase(&CodebaseMemory{AnalyzedAt: &analyzed}, "indexed"))
}

func TestLoadStatus(t *testing.T) {
	assert.Equal(t, Status{State: StateAbsent}, LoadStatus(nil, "head"))
	assert.Equal(t, Status{State: StateAbsent}, LoadStatus(&CodebaseMemory{}, "head"))

	sha := ids.CommitSHA("head")
	assert.Equal(t, Status{State: StateReady}, LoadStatus(&CodebaseMemory{AnalyzedAt: &sha}, "head"))

	old := ids.CommitSHA("old")
	assert.Equal(t, Status{State: StateStale, BehindBy: "head"}, LoadStatus(&CodebaseMemory{AnalyzedAt: &old}, "head"))
}

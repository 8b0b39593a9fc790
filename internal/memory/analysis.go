package memory

import (
	"context"
	"fmt"

	"github.com/sevigo/argus/internal/codemap"
	"github.com/sevigo/argus/internal/core"
	"github.com/sevigo/argus/internal/ids"
)

// BootstrapAnalysis re-renders the full outline and runs pattern analysis
// against it (spec §4.7 "Bootstrap analysis"). analyzed_at is set to target
// only because the analyzer call below returned successfully; a failing
// call never advances it.
func BootstrapAnalysis(ctx context.Context, analyzer core.PatternAnalyzer, m *codemap.CodebaseMap, target ids.CommitSHA, charBudget int) (*CodebaseMemory, error) {
	outline := RenderOutline(m, ScopeFull, nil, charBudget)
	candidates, err := analyzer.AnalyzePatterns(ctx, RenderOutlineText(outline), "")
	if err != nil {
		return nil, fmt.Errorf("bootstrap pattern analysis: %w", err)
	}
	patterns := MergePatterns(nil, candidates)
	sha := target
	return &CodebaseMemory{AnalyzedAt: &sha, Outline: outline, Patterns: patterns}, nil
}

// IncrementalAnalysis runs scoped pattern analysis for the index path
// (spec §4.7 "Incremental analysis"). The scoped outline is built only to
// feed the analyzer call; the persisted outline carried over from existing
// is left untouched, since a scoped render would otherwise silently shrink
// what the next full outline render considers current.
func IncrementalAnalysis(ctx context.Context, analyzer core.PatternAnalyzer, existing *CodebaseMemory, m *codemap.CodebaseMap, changedFiles []ids.FilePath, diffText string, target ids.CommitSHA, charBudget int) (*CodebaseMemory, error) {
	scoped := RenderOutline(m, ScopeScoped, changedFiles, charBudget)
	candidates, err := analyzer.AnalyzePatterns(ctx, RenderOutlineText(scoped), diffText)
	if err != nil {
		return nil, fmt.Errorf("incremental pattern analysis: %w", err)
	}

	var existingPatterns []PatternEntry
	outline := CodebaseOutline{}
	if existing != nil {
		existingPatterns = existing.Patterns
		outline = existing.Outline
	}
	merged := MergePatterns(existingPatterns, candidates)

	sha := target
	return &CodebaseMemory{AnalyzedAt: &sha, Outline: outline, Patterns: merged}, nil
}

// DiffBase resolves the base commit for an incremental diff: analyzed_at,
// falling back to indexedAt -- never indexedAt alone, so that bootstrap
// running after a series of index-only updates never misses a change
// (spec §4.7 "Bootstrap analysis").
func DiffBase(mem *CodebaseMemory, indexedAt ids.CommitSHA) ids.CommitSHA {
	if mem != nil && mem.AnalyzedAt != nil && *mem.AnalyzedAt != "" {
		return *mem.AnalyzedAt
	}
	return indexedAt
}

// LoadStatus computes the memory analysis state (spec §4.9) by comparing
// analyzed_at to the current HEAD, without mutating storage. Analyzing is
// a transient in-process state the caller holds directly while an analysis
// call is in flight; it is never derived from a loaded artifact.
func LoadStatus(mem *CodebaseMemory, head ids.CommitSHA) Status {
	if mem == nil || mem.AnalyzedAt == nil || *mem.AnalyzedAt == "" {
		return Status{State: StateAbsent}
	}
	if *mem.AnalyzedAt == head {
		return Status{State: StateReady}
	}
	return Status{State: StateStale, BehindBy: head}
}

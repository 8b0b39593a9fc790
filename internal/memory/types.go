// Package memory implements spec §4.7: rendering the codebase outline and
// maintaining the pruned pattern store that together form a repository's
// persisted CodebaseMemory artifact.
package memory

import "github.com/sevigo/argus/internal/ids"

// PatternCategory is the closed set of pattern kinds an analysis call may
// report.
type PatternCategory string

const (
	PatternStyle         PatternCategory = "style"
	PatternNaming        PatternCategory = "naming"
	PatternArchitecture  PatternCategory = "architecture"
	PatternTesting       PatternCategory = "testing"
	PatternErrorHandling PatternCategory = "error_handling"
	PatternConcurrency   PatternCategory = "concurrency"
)

// MinPatternConfidence and MaxPatterns are the storage invariants of spec
// §4.7: "confidence >= 0.3 for stored entries; at most 30 entries total,
// sorted descending by confidence."
const (
	MinPatternConfidence = 0.3
	MaxPatterns          = 30
)

// PatternEntry is one persisted observation about the codebase's
// conventions, with the file:line evidence that grounded it.
type PatternEntry struct {
	Category    PatternCategory `json:"category"`
	Description string          `json:"description"`
	Confidence  float64         `json:"confidence"`
	Examples    []string        `json:"examples"`
}

// OutlineFile is one rendered line of a CodebaseOutline: a file path and
// its truncated symbol list.
type OutlineFile struct {
	Path        ids.FilePath `json:"path"`
	SymbolsText string       `json:"symbols_text"`
}

// CodebaseOutline is the rendered, budget-bounded summary of a map (or a
// scoped subset of one) handed to the pattern analyzer and, at review time,
// to the prompt assembler.
type CodebaseOutline struct {
	Files []OutlineFile `json:"files"`
}

// CodebaseMemory is the persisted artifact of spec §6's memory schema:
// analyzed_at is independent of the map's indexed_at so an index-only run
// that skips analysis never falsely claims the patterns are current.
type CodebaseMemory struct {
	AnalyzedAt *ids.CommitSHA  `json:"analyzed_at"`
	Outline    CodebaseOutline `json:"outline"`
	Patterns   []PatternEntry  `json:"patterns"`
}

// Scope selects which files an outline covers.
type Scope int

const (
	// ScopeFull renders every file in the map, in lexicographic order.
	ScopeFull Scope = iota
	// ScopeScoped renders only the changed files and their 1-hop graph
	// neighbors.
	ScopeScoped
)

// AnalysisState is the memory analysis state machine of spec §4.9:
// Absent -> Analyzing -> Ready -> Stale(behind_by).
type AnalysisState string

const (
	StateAbsent    AnalysisState = "absent"
	StateAnalyzing AnalysisState = "analyzing"
	StateReady     AnalysisState = "ready"
	StateStale     AnalysisState = "stale"
)

// Status is the result of comparing a loaded memory's analyzed_at against
// the current HEAD. BehindBy is only meaningful when State is StateStale;
// it carries the current HEAD since computing a commit-distance count
// would require a git log walk this package deliberately leaves to the
// caller (a gitutil client, if one cares about the exact distance).
type Status struct {
	State    AnalysisState
	BehindBy ids.CommitSHA
}

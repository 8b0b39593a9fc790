package core

import (
	"context"

	"github.com/sevigo/argus/internal/ids"
)

// Comment is a single finding attached to a location in the diff.
type Comment struct {
	FilePath   string       `json:"file_path"`
	Line       int          `json:"line"`
	Severity   ids.Severity `json:"severity"`
	Category   ids.Category `json:"category"`
	Body       string       `json:"body"`
	Confidence float64      `json:"confidence,omitempty"`
}

// ReviewOutput is the structured-output contract the opaque generator must
// satisfy: diff, PR context, retrieved items, outline, and patterns go in;
// this comes out.
type ReviewOutput struct {
	Summary  string    `json:"summary"`
	Comments []Comment `json:"comments"`
}

// PromptSections is the fully-assembled input handed to the generator.
type PromptSections struct {
	Diff           string
	PRContext      string
	RetrievedItems string
	Outline        string
	Patterns       string
}

// Generator is the opaque structured-output LLM boundary. The core treats
// the provider as a black box: only the request/response shape is
// specified (§9 design notes).
type Generator interface {
	Generate(ctx context.Context, model string, sections PromptSections) (*ReviewOutput, error)
}

// EmbeddingProvider computes a dense vector for a piece of text. Used once
// per run to embed the retrieval query, and offline to produce the
// embeddings artifact stored beside the manifest.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// AgenticTools is the capability set exposed to the agentic retrieval
// strategy's LLM session (§4.5).
type AgenticTools interface {
	FindSymbol(ctx context.Context, name string) ([]AgenticChunk, error)
	ReadFile(ctx context.Context, path string, lineRange ids.LineRange) (string, error)
	ListDependents(ctx context.Context, symbol string) ([]string, error)
}

// AgenticChunk is the shape the find_symbol tool returns; kept separate
// from retrieval.CodeChunk to avoid a core -> retrieval import.
type AgenticChunk struct {
	FilePath string
	LineRange ids.LineRange
	Text     string
}

// AgenticSession runs a bounded tool-using LLM exploration and reports the
// chunks it found with their self-reported relevance.
type AgenticSession interface {
	Explore(ctx context.Context, query string, tools AgenticTools, maxIterations int) ([]AgenticResult, error)
}

// AgenticResult is one chunk surfaced by an agentic session, with the
// session's self-reported relevance before the [0.5,1.0] clamp is applied.
type AgenticResult struct {
	FilePath  string
	LineRange ids.LineRange
	Text      string
	Relevance float64
}

// PatternCandidate is one pattern observation an analysis call reports,
// before the memory package's merge-and-prune policy is applied. Kept
// separate from memory.PatternEntry to avoid a core -> memory import,
// mirroring AgenticChunk.
type PatternCandidate struct {
	Category    string
	Description string
	Confidence  float64
	Examples    []string
}

// PatternAnalyzer is the opaque LLM boundary for codebase pattern analysis
// (§4.7). outline is the rendered text of either the full or scoped
// outline; diff is empty for bootstrap analysis.
type PatternAnalyzer interface {
	AnalyzePatterns(ctx context.Context, outline, diff string) ([]PatternCandidate, error)
}

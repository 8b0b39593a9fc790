// Package retrieval implements spec §4.5-4.6: the four retrieval
// strategies (structural, lexical, semantic, agentic), the orchestrator
// that runs them concurrently and merges their output in a fixed order, and
// the ranker that merges their output
// into a single budget-constrained result.
package retrieval

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/sevigo/argus/internal/ids"
)

// StrategyName identifies which of the closed set of strategies surfaced a
// ContextItem.
type StrategyName string

const (
	StrategyStructural StrategyName = "structural"
	StrategyLexical    StrategyName = "lexical"
	StrategySemantic   StrategyName = "semantic"
	StrategyAgentic    StrategyName = "agentic"
)

// order is the fixed merge order of spec §4.6: "structural -> lexical ->
// semantic -> agentic". Strategies run concurrently; merging in this order
// keeps the ranker's input reproducible regardless of which strategy
// happens to finish first.
var order = []StrategyName{StrategyStructural, StrategyLexical, StrategySemantic, StrategyAgentic}

// RetrievalQuery is the input every strategy receives (spec §3).
type RetrievalQuery struct {
	ChangedFiles   []ids.FilePath
	ChangedSymbols []string
	DiffText       string
	Depth          string
	Budget         ids.TokenBudget
}

// ContextItem is one piece of retrieved context, tagged with the strategy
// that found it and a fingerprint used for cross-strategy deduplication.
type ContextItem struct {
	SourceStrategy StrategyName
	FilePath       ids.FilePath
	LineRange      ids.LineRange
	Text           string
	Score          float64
	Fingerprint    string
}

// Fingerprint computes the stable dedup key for a (file_path, line_range)
// pair: a content-independent location identity, so the same location
// surfaced by two strategies collides regardless of how each strategy
// phrased its snippet.
func Fingerprint(path ids.FilePath, lr ids.LineRange) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%s\x00%d\x00%d", path, lr.Start, lr.End))
	return hex.EncodeToString(sum[:])[:16]
}

// Strategy is the capability set every retrieval strategy implements (§9
// design notes: "a small capability set {retrieve(query) -> items}").
type Strategy interface {
	Name() StrategyName
	Retrieve(ctx context.Context, query RetrievalQuery) ([]ContextItem, error)
}

// RetrievalResult is the orchestrator+ranker's final output.
type RetrievalResult struct {
	Items        []ContextItem
	TokensUsed   ids.TokenCount
	DroppedCount int
}

package retrieval

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/sevigo/argus/internal/core"
	"github.com/sevigo/argus/internal/ids"
)

const (
	semanticTopK          = 10
	semanticMinSimilarity = 0.2
)

// EmbeddingIndex is a precomputed vector file, one per manifest, loaded from
// the optional "<hash>_embeddings.json" blob keyed by the manifest hash
// (spec §4.4 step 5, §6 schema).
type EmbeddingIndex struct {
	Vectors []ChunkVector `json:"vectors"`
}

// ChunkVector is one embedded code chunk.
type ChunkVector struct {
	FilePath  ids.FilePath  `json:"file_path"`
	LineRange ids.LineRange `json:"line_range"`
	Text      string        `json:"text"`
	Vector    []float32     `json:"vector"`
}

// SemanticStrategy is gated on embedding_model being configured (the
// caller only constructs this strategy when that's true). When the
// embedding provider fails, Retrieve degrades to zero items rather than
// aborting the run (spec §4.5, §7 Provider policy).
type SemanticStrategy struct {
	Provider core.EmbeddingProvider
	Index    *EmbeddingIndex
	Logger   *slog.Logger
}

func (s *SemanticStrategy) Name() StrategyName { return StrategySemantic }

func (s *SemanticStrategy) Retrieve(ctx context.Context, query RetrievalQuery) ([]ContextItem, error) {
	if s.Provider == nil || s.Index == nil || len(s.Index.Vectors) == 0 {
		return nil, nil
	}

	queryText := buildQueryText(query)
	if strings.TrimSpace(queryText) == "" {
		return nil, nil
	}

	queryVec, err := s.Provider.Embed(ctx, queryText)
	if err != nil {
		s.log().Warn("semantic retrieval: embedding provider failed, yielding zero items", "error", err)
		return nil, nil
	}

	type scored struct {
		vec ChunkVector
		sim float64
	}
	var candidates []scored
	for _, v := range s.Index.Vectors {
		sim := cosineSimilarity(queryVec, v.Vector)
		if sim >= semanticMinSimilarity {
			candidates = append(candidates, scored{vec: v, sim: sim})
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].sim != candidates[j].sim {
			return candidates[i].sim > candidates[j].sim
		}
		return candidates[i].vec.FilePath < candidates[j].vec.FilePath
	})
	if len(candidates) > semanticTopK {
		candidates = candidates[:semanticTopK]
	}

	items := make([]ContextItem, 0, len(candidates))
	for _, c := range candidates {
		items = append(items, ContextItem{
			SourceStrategy: StrategySemantic,
			FilePath:       c.vec.FilePath,
			LineRange:      c.vec.LineRange,
			Text:           c.vec.Text,
			Score:          c.sim,
			Fingerprint:    Fingerprint(c.vec.FilePath, c.vec.LineRange),
		})
	}
	return items, nil
}

func (s *SemanticStrategy) log() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func buildQueryText(query RetrievalQuery) string {
	var b strings.Builder
	for _, sym := range query.ChangedSymbols {
		b.WriteString(sym)
		b.WriteString("\n")
	}
	b.WriteString(query.DiffText)
	return b.String()
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

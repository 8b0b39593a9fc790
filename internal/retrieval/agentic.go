package retrieval

import (
	"context"

	"github.com/sevigo/argus/internal/core"
	"github.com/sevigo/argus/internal/ids"
)

// defaultAgenticIterationCap is the bounded tool-using session's hard
// iteration cap (spec §4.5) when AgenticStrategy.IterationCap is unset; no
// config key sets it.
const defaultAgenticIterationCap = 8

const (
	agenticScoreFloor = 0.5
	agenticScoreCeil  = 1.0
)

// AgenticStrategy is gated on enable_agentic (the caller only constructs
// this strategy when that's true). It runs a bounded tool-using LLM
// session and clamps its self-reported relevance to [0.5, 1.0].
type AgenticStrategy struct {
	Session      core.AgenticSession
	Tools        core.AgenticTools
	IterationCap int
}

func (s *AgenticStrategy) Name() StrategyName { return StrategyAgentic }

func (s *AgenticStrategy) Retrieve(ctx context.Context, query RetrievalQuery) ([]ContextItem, error) {
	if s.Session == nil || s.Tools == nil {
		return nil, nil
	}

	iterCap := s.IterationCap
	if iterCap <= 0 {
		iterCap = defaultAgenticIterationCap
	}

	results, err := s.Session.Explore(ctx, agenticQueryText(query), s.Tools, iterCap)
	if err != nil {
		// Provider policy: the strategy yields zero items on failure; the
		// run continues as long as some other strategy produced output.
		return nil, nil
	}

	items := make([]ContextItem, 0, len(results))
	for _, r := range results {
		score := r.Relevance
		if score < agenticScoreFloor {
			score = agenticScoreFloor
		}
		if score > agenticScoreCeil {
			score = agenticScoreCeil
		}
		path := ids.FilePath(r.FilePath)
		items = append(items, ContextItem{
			SourceStrategy: StrategyAgentic,
			FilePath:       path,
			LineRange:      r.LineRange,
			Text:           r.Text,
			Score:          score,
			Fingerprint:    Fingerprint(path, r.LineRange),
		})
	}
	return items, nil
}

func agenticQueryText(query RetrievalQuery) string {
	return query.DiffText
}

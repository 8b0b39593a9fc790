package retrieval

import (
	"sort"

	"github.com/sevigo/argus/internal/ids"
)

const consensusBonus = 0.05

// structuralBudgetFraction is the sub-budget structural evidence is
// admitted within first, even at a lower raw score, so it is never fully
// starved by lexical/semantic noise (spec §4.6 "Budget contract").
const structuralBudgetFraction = 0.4

// mergedItem is one fingerprint group after deduplication: the
// highest-scoring representative item, plus the set of strategies that
// independently surfaced it.
type mergedItem struct {
	item         ContextItem
	final        float64
	strategies   map[StrategyName]bool
	isStructural bool
}

// Rank implements spec §4.6's ranker algorithm: dedup by fingerprint, score
// with the cross-strategy consensus bonus, admit structural evidence within
// its own sub-budget first, then fill the remaining budget by descending
// final score. Given identical strategy outputs, Rank always returns the
// identical ordered result regardless of the order items were concatenated
// in (testable property 6).
func Rank(items []ContextItem, budget ids.TokenBudget) RetrievalResult {
	merged := dedupe(items)
	sortByFinalDesc(merged)

	admitted := make(map[string]bool, len(merged))
	var tokensUsed ids.TokenCount

	structuralBudget := ids.TokenCount(float64(budget.Retrieval) * structuralBudgetFraction)
	var structuralUsed ids.TokenCount
	for _, m := range merged {
		if !m.isStructural {
			continue
		}
		cost := ids.EstimateTokens(m.item.Text)
		if structuralUsed+cost > structuralBudget {
			continue
		}
		if tokensUsed+cost > budget.Retrieval {
			continue
		}
		admitted[m.item.Fingerprint] = true
		structuralUsed += cost
		tokensUsed += cost
	}

	var result []ContextItem
	for _, m := range merged {
		if admitted[m.item.Fingerprint] {
			result = append(result, m.item)
		}
	}

	for _, m := range merged {
		if admitted[m.item.Fingerprint] {
			continue
		}
		cost := ids.EstimateTokens(m.item.Text)
		if tokensUsed+cost > budget.Retrieval {
			continue
		}
		admitted[m.item.Fingerprint] = true
		tokensUsed += cost
		result = append(result, m.item)
	}

	// Re-sort the final admitted set by score: the structural-first pass
	// may have interleaved a lower-scoring structural item ahead of a
	// higher-scoring one from the second pass.
	sort.SliceStable(result, func(i, j int) bool {
		si, sj := scoreOf(merged, result[i].Fingerprint), scoreOf(merged, result[j].Fingerprint)
		if si != sj {
			return si > sj
		}
		return result[i].Fingerprint < result[j].Fingerprint
	})

	return RetrievalResult{
		Items:        result,
		TokensUsed:   tokensUsed,
		DroppedCount: len(merged) - len(result),
	}
}

func scoreOf(merged []mergedItem, fingerprint string) float64 {
	for _, m := range merged {
		if m.item.Fingerprint == fingerprint {
			return m.final
		}
	}
	return 0
}

func dedupe(items []ContextItem) []mergedItem {
	byFingerprint := make(map[string]*mergedItem)
	var orderOfFirstSeen []string

	for _, it := range items {
		existing, ok := byFingerprint[it.Fingerprint]
		if !ok {
			byFingerprint[it.Fingerprint] = &mergedItem{
				item:         it,
				strategies:   map[StrategyName]bool{it.SourceStrategy: true},
				isStructural: it.SourceStrategy == StrategyStructural,
			}
			orderOfFirstSeen = append(orderOfFirstSeen, it.Fingerprint)
			continue
		}
		existing.strategies[it.SourceStrategy] = true
		if it.SourceStrategy == StrategyStructural {
			existing.isStructural = true
		}
		if it.Score > existing.item.Score {
			existing.item = it
		}
	}

	out := make([]mergedItem, 0, len(orderOfFirstSeen))
	for _, fp := range orderOfFirstSeen {
		m := byFingerprint[fp]
		maxScore := m.item.Score
		final := maxScore + consensusBonus*float64(len(m.strategies)-1)
		if final > 1.0 {
			final = 1.0
		}
		m.final = final
		m.item.Score = final
		out = append(out, *m)
	}
	return out
}

func sortByFinalDesc(merged []mergedItem) {
	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].final != merged[j].final {
			return merged[i].final > merged[j].final
		}
		return merged[i].item.Fingerprint < merged[j].item.Fingerprint
	})
}

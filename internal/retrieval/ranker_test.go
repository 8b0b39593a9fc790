package retrieval

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/argus/internal/ids"
)

func item(strategy StrategyName, path string, start, end int, score float64) ContextItem {
	lr := ids.LineRange{Start: start, End: end}
	return ContextItem{
		SourceStrategy: strategy,
		FilePath:       ids.FilePath(path),
		LineRange:      lr,
		Text:           "x",
		Score:          score,
		Fingerprint:    Fingerprint(ids.FilePath(path), lr),
	}
}

// TestRankerConsensusBonus is spec §8 scenario S4: two strategies surfacing
// the same location get a small consensus bonus; a single strategy does not.
func TestRankerConsensusBonus(t *testing.T) {
	items := []ContextItem{
		item(StrategyLexical, "a.py", 1, 5, 0.6),
		item(StrategySemantic, "a.py", 1, 5, 0.4),
	}
	result := Rank(items, ids.TokenBudget{Total: 10000, Retrieval: 10000})
	require.Len(t, result.Items, 1)
	assert.InDelta(t, 0.65, result.Items[0].Score, 1e-9)

	single := []ContextItem{item(StrategyLexical, "a.py", 1, 5, 0.6)}
	resultSingle := Rank(single, ids.TokenBudget{Total: 10000, Retrieval: 10000})
	require.Len(t, resultSingle.Items, 1)
	assert.InDelta(t, 0.60, resultSingle.Items[0].Score, 1e-9)
}

func TestRankerConsensusBonusCapsAtOne(t *testing.T) {
	items := []ContextItem{
		item(StrategyStructural, "a.py", 1, 5, 0.95),
		item(StrategyLexical, "a.py", 1, 5, 0.9),
		item(StrategySemantic, "a.py", 1, 5, 0.9),
		item(StrategyAgentic, "a.py", 1, 5, 0.9),
	}
	result := Rank(items, ids.TokenBudget{Total: 10000, Retrieval: 10000})
	require.Len(t, result.Items, 1)
	assert.Equal(t, 1.0, result.Items[0].Score)
}

// TestRankerDeterminism is testable property 6: identical strategy outputs
// yield an identical ordered result regardless of input concatenation
// order (standing in for "regardless of completion order", since the
// orchestrator always hands Rank a fixed-order concatenation — Rank itself
// must not depend on that order either).
func TestRankerDeterminism(t *testing.T) {
	base := []ContextItem{
		item(StrategyStructural, "a.py", 1, 5, 0.9),
		item(StrategyLexical, "b.py", 10, 20, 0.8),
		item(StrategySemantic, "c.py", 3, 3, 0.55),
		item(StrategyLexical, "a.py", 1, 5, 0.3),
	}
	budget := ids.TokenBudget{Total: 10000, Retrieval: 10000}

	first := Rank(append([]ContextItem(nil), base...), budget)

	shuffled := append([]ContextItem(nil), base...)
	rand.New(rand.NewSource(42)).Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	second := Rank(shuffled, budget)

	require.Equal(t, len(first.Items), len(second.Items))
	for i := range first.Items {
		assert.Equal(t, first.Items[i].Fingerprint, second.Items[i].Fingerprint)
		assert.Equal(t, first.Items[i].Score, second.Items[i].Score)
	}
	assert.Equal(t, first.TokensUsed, second.TokensUsed)
	assert.Equal(t, first.DroppedCount, second.DroppedCount)
}

// TestRankerBudgetConformance is testable property 5: the summed token
// estimate of returned items never exceeds budget.retrieval.
func TestRankerBudgetConformance(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for trial := 0; trial < 50; trial++ {
		n := r.Intn(40) + 1
		items := make([]ContextItem, 0, n)
		for i := 0; i < n; i++ {
			text := make([]byte, r.Intn(500)+1)
			for j := range text {
				text[j] = 'a'
			}
			strategies := []StrategyName{StrategyStructural, StrategyLexical, StrategySemantic, StrategyAgentic}
			items = append(items, ContextItem{
				SourceStrategy: strategies[r.Intn(len(strategies))],
				FilePath:       ids.FilePath("f.py"),
				LineRange:      ids.LineRange{Start: i, End: i},
				Text:           string(text),
				Score:          r.Float64(),
				Fingerprint:    Fingerprint(ids.FilePath("f.py"), ids.LineRange{Start: i, End: i}),
			})
		}
		budget := ids.TokenBudget{Total: 1000, Retrieval: ids.TokenCount(r.Intn(500))}
		result := Rank(items, budget)

		var sum ids.TokenCount
		for _, it := range result.Items {
			sum += ids.EstimateTokens(it.Text)
		}
		assert.LessOrEqual(t, int(sum), int(budget.Retrieval))
		assert.Equal(t, sum, result.TokensUsed)
	}
}

// TestRankerStructuralSubBudget verifies structural evidence is admitted
// even when its raw score is lower than competing lexical/semantic noise,
// within its own 0.4*budget.retrieval sub-budget.
func TestRankerStructuralSubBudget(t *testing.T) {
	structural := item(StrategyStructural, "dep.py", 1, 20, 0.1)
	structural.Text = repeatStr("a", 40) // ~10 tokens

	var noise []ContextItem
	for i := 0; i < 10; i++ {
		it := item(StrategyLexical, "noise.py", i*10, i*10+5, 0.99)
		it.Text = repeatStr("b", 40)
		noise = append(noise, it)
	}

	items := append([]ContextItem{structural}, noise...)
	budget := ids.TokenBudget{Total: 100, Retrieval: 20} // structural sub-budget = 8 tokens, structural costs 10

	result := Rank(items, budget)
	found := false
	for _, it := range result.Items {
		if it.SourceStrategy == StrategyStructural {
			found = true
		}
	}
	assert.False(t, found, "structural item exceeding its own sub-budget should not be force-admitted")

	budget2 := ids.TokenBudget{Total: 100, Retrieval: 40} // sub-budget = 16 tokens, enough for the 10-token structural item
	result2 := Rank(items, budget2)
	found2 := false
	for _, it := range result2.Items {
		if it.SourceStrategy == StrategyStructural {
			found2 = true
		}
	}
	assert.True(t, found2, "structural item within its sub-budget should be admitted despite a low raw score")
}

func repeatStr(s string, n int) string {
	out := make([]byte, 0, n)
	for len(out) < n {
		out = append(out, s...)
	}
	return string(out[:n])
}

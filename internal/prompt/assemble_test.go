package prompt

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/argus/internal/core"
	"github.com/sevigo/argus/internal/ids"
)

func repeat(s string, n int) string {
	out := make([]byte, 0, n)
	for len(out) < n {
		out = append(out, s...)
	}
	return string(out[:n])
}

func TestAssembleIncludesAllSectionsWithinBudget(t *testing.T) {
	in := Input{
		Diff:           "diff",
		PRContext:      "pr context",
		RetrievedItems: "items",
		Outline:        "outline",
		Patterns:       "patterns",
	}
	sections, err := Assemble(nil, in, ids.TokenBudget{Total: 1000})
	require.NoError(t, err)
	assert.Equal(t, in.Diff, sections.Diff)
	assert.Equal(t, in.PRContext, sections.PRContext)
	assert.Equal(t, in.RetrievedItems, sections.RetrievedItems)
	assert.Equal(t, in.Outline, sections.Outline)
	assert.Equal(t, in.Patterns, sections.Patterns)
}

// TestAssembleDropsLowestPrioritySectionsFirst is spec §8 scenario-adjacent:
// top-down assembly drops whatever would overflow, in reverse priority
// order, never touching a higher-priority section already admitted.
func TestAssembleDropsLowestPrioritySectionsFirst(t *testing.T) {
	diff := repeat("d", 40)   // 10 tokens
	prCtx := repeat("p", 40)  // 10 tokens
	items := repeat("i", 40)  // 10 tokens
	outline := repeat("o", 40) // 10 tokens
	patterns := repeat("x", 40) // 10 tokens

	in := Input{Diff: diff, PRContext: prCtx, RetrievedItems: items, Outline: outline, Patterns: patterns}
	sections, err := Assemble(nil, in, ids.TokenBudget{Total: 30})
	require.NoError(t, err)

	assert.Equal(t, diff, sections.Diff)
	assert.Equal(t, prCtx, sections.PRContext)
	assert.Equal(t, items, sections.RetrievedItems)
	assert.Empty(t, sections.Outline, "outline must be dropped before budget is exhausted")
	assert.Empty(t, sections.Patterns, "patterns is lowest priority and must be dropped first")
}

func TestAssembleFailsWhenDiffAloneExceedsBudget(t *testing.T) {
	in := Input{Diff: repeat("d", 4000)}
	_, err := Assemble(nil, in, ids.TokenBudget{Total: 10})
	require.Error(t, err)

	var tooLarge *core.PromptTooLargeError
	require.True(t, errors.As(err, &tooLarge))
	assert.Equal(t, 10, tooLarge.BudgetTotal)
}

func TestAssembleNeverTruncatesDiffEvenWhenOtherSectionsAreDropped(t *testing.T) {
	diff := repeat("d", 40) // 10 tokens
	in := Input{Diff: diff, Patterns: repeat("x", 400)}
	sections, err := Assemble(nil, in, ids.TokenBudget{Total: 10})
	require.NoError(t, err)
	assert.Equal(t, diff, sections.Diff)
	assert.Empty(t, sections.Patterns)
}

func TestAssembleSkipsEmptySectionsWithoutConsumingBudget(t *testing.T) {
	in := Input{Diff: "diff"}
	sections, err := Assemble(nil, in, ids.TokenBudget{Total: 1})
	require.NoError(t, err)
	assert.Empty(t, sections.PRContext)
	assert.Empty(t, sections.RetrievedItems)
}

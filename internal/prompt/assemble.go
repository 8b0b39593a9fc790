// Package prompt implements spec §4.8's prompt assembly: sections are
// added top-down in a mandatory priority order under a total token budget,
// and anything that would overflow is dropped wholly and logged -- except
// the diff, which is never truncated or dropped; if it alone exceeds the
// budget, assembly fails with *core.PromptTooLargeError.
package prompt

import (
	"log/slog"

	"github.com/sevigo/argus/internal/core"
	"github.com/sevigo/argus/internal/ids"
)

// Input is everything a single assembly call draws its sections from,
// already rendered to plain text by their owning packages (branch diff,
// PR-context collector, retrieval's ranker, memory's outline/patterns).
type Input struct {
	Diff           string
	PRContext      string
	RetrievedItems string
	Outline        string
	Patterns       string
}

type section struct {
	name   string
	text   string
	assign func(*core.PromptSections, string)
}

// Assemble builds core.PromptSections under budget.Total. Sections are
// considered in priority order; a section that would push the running
// total over budget is dropped wholly (never partially truncated) and
// logged. The diff is assigned unconditionally after the size check:
// either it fits alone, or assembly aborts before anything is built.
func Assemble(logger *slog.Logger, in Input, budget ids.TokenBudget) (core.PromptSections, error) {
	if logger == nil {
		logger = slog.Default()
	}

	diffTokens := ids.EstimateTokens(in.Diff)
	if int(diffTokens) > int(budget.Total) {
		return core.PromptSections{}, &core.PromptTooLargeError{
			DiffTokens:  int(diffTokens),
			BudgetTotal: int(budget.Total),
		}
	}

	sections := core.PromptSections{Diff: in.Diff}
	used := diffTokens

	// Priority order after the mandatory diff: PR context > retrieved
	// items > outline > patterns (spec §4.8).
	candidates := []section{
		{"pr_context", in.PRContext, func(s *core.PromptSections, v string) { s.PRContext = v }},
		{"retrieved_items", in.RetrievedItems, func(s *core.PromptSections, v string) { s.RetrievedItems = v }},
		{"outline", in.Outline, func(s *core.PromptSections, v string) { s.Outline = v }},
		{"patterns", in.Patterns, func(s *core.PromptSections, v string) { s.Patterns = v }},
	}

	for _, c := range candidates {
		if c.text == "" {
			continue
		}
		tokens := ids.EstimateTokens(c.text)
		if used+tokens > budget.Total {
			logger.Warn("prompt section dropped: would exceed token budget",
				"section", c.name, "section_tokens", tokens, "used_tokens", used, "budget_total", budget.Total)
			continue
		}
		c.assign(&sections, c.text)
		used += tokens
	}

	return sections, nil
}

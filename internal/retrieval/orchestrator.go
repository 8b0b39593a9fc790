package retrieval

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Orchestrator runs a fixed set of strategies and hands their concatenated,
// deterministically-ordered output to the ranker (spec §4.6). Strategies
// execute concurrently — their shared inputs (the loaded map, the source
// checkout, precomputed embeddings) are fixed before Collect starts and the
// lexical index is built privately inside its own strategy, so nothing but
// the ranker serializes — but results are always merged in the §4.6 fixed
// order (structural, lexical, semantic, agentic) regardless of which
// goroutine finishes first.
type Orchestrator struct {
	strategies map[StrategyName]Strategy
	logger     *slog.Logger
}

// NewOrchestrator builds an orchestrator from the strategies the caller has
// constructed for this run (semantic/agentic are simply omitted when their
// config gates are off).
func NewOrchestrator(logger *slog.Logger, strategies ...Strategy) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	byName := make(map[StrategyName]Strategy, len(strategies))
	for _, st := range strategies {
		byName[st.Name()] = st
	}
	return &Orchestrator{strategies: byName, logger: logger}
}

// Collect runs every configured strategy and returns their items
// concatenated in the fixed §4.6 order. An individual strategy's error
// degrades that strategy to zero items (§7 Provider/Timeout policy) and is
// logged; Collect only returns an error when structural retrieval itself
// failed and no other strategy produced any output, since structural
// retrieval is specified to never suspend or call out and so should never
// legitimately fail.
func (o *Orchestrator) Collect(ctx context.Context, query RetrievalQuery) ([]ContextItem, error) {
	results := make([][]ContextItem, len(order))
	errs := make([]error, len(order))

	g, gctx := errgroup.WithContext(ctx)
	for i, name := range order {
		st, ok := o.strategies[name]
		if !ok {
			continue
		}
		i, name, st := i, name, st
		g.Go(func() error {
			items, err := st.Retrieve(gctx, query)
			if err != nil {
				errs[i] = err
				o.logger.Warn("retrieval strategy failed, degrading to zero items", "strategy", name, "error", err)
				return nil
			}
			results[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []ContextItem
	for _, items := range results {
		all = append(all, items...)
	}

	structuralIdx := indexOf(StrategyStructural)
	if structuralIdx >= 0 && errs[structuralIdx] != nil && len(all) == 0 {
		return nil, errs[structuralIdx]
	}
	return all, nil
}

func indexOf(name StrategyName) int {
	for i, n := range order {
		if n == name {
			return i
		}
	}
	return -1
}

package app

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sevigo/argus/internal/branchsync"
	"github.com/sevigo/argus/internal/config"
	"github.com/sevigo/argus/internal/ghclient"
	"github.com/sevigo/argus/internal/ids"
	"github.com/sevigo/argus/internal/memory"
	"github.com/sevigo/argus/internal/prompt"
	"github.com/sevigo/argus/internal/retrieval"
	"github.com/sevigo/argus/internal/shardstore"
)

// ReviewResult summarizes one review run for the caller.
type ReviewResult struct {
	CommentsPosted int
	RetrievalUsed  ids.TokenCount
	RetrievalItems int
}

// RunReview performs spec §4.5-§4.8's review path: load the PR from its
// event payload, pull just the shards its changed files touch, run the
// retrieval strategies and rank their output, assemble the prompt, call the
// generator, and publish the result as a PR review. It never writes to the
// argus-data branch -- the sync run ends at Loaded, not Pushed.
func (a *App) RunReview(ctx context.Context) (*ReviewResult, error) {
	if a.Generator == nil {
		return nil, fmt.Errorf("review mode requires a configured generator")
	}

	target, err := ReviewTargetFromPayload(a.Secrets.EventPayloadPath)
	if err != nil {
		return nil, err
	}

	run := branchsync.NewRun()
	sess, err := run.Pull(ctx, a.BranchSync)
	if err != nil {
		return nil, fmt.Errorf("pull branch state: %w", err)
	}
	if sess.IsLegacy() || sess.Manifest() == nil {
		return nil, fmt.Errorf("review mode requires an existing sharded manifest; run bootstrap first")
	}
	manifest := sess.Manifest()

	repoPath, cleanupRepo, err := a.Git.CloneAndCheckoutTemp(ctx, target.CloneURL, target.HeadSHA, a.Secrets.GitHubToken)
	if err != nil {
		return nil, fmt.Errorf("checkout pull request head %s: %w", target.HeadSHA, err)
	}
	defer cleanupRepo()

	effective := *a.Cfg
	if repoCfg, rcErr := config.LoadRepoConfig(repoPath); rcErr == nil {
		effective = a.Cfg.Merge(repoCfg)
	}

	diff, err := a.GitHub.GetPullRequestDiff(ctx, target.Owner, target.Repo, target.Number)
	if err != nil {
		return nil, fmt.Errorf("fetch pull request diff: %w", err)
	}
	changedFiles, err := a.GitHub.GetChangedFiles(ctx, target.Owner, target.Repo, target.Number)
	if err != nil {
		return nil, fmt.Errorf("fetch changed files: %w", err)
	}
	pr, err := a.GitHub.GetPullRequest(ctx, target.Owner, target.Repo, target.Number)
	if err != nil {
		return nil, fmt.Errorf("fetch pull request metadata: %w", err)
	}

	changedPaths := make([]ids.FilePath, 0, len(changedFiles))
	for _, f := range changedFiles {
		p, normErr := ids.Normalize(f.Filename)
		if normErr != nil {
			a.Logger.Warn("skipping unindexable changed path", "path", f.Filename, "error", normErr)
			continue
		}
		changedPaths = append(changedPaths, p)
	}

	m, err := shardstore.LoadSelected(ctx, manifest, sess, changedPaths)
	if err != nil {
		return nil, fmt.Errorf("load required shards: %w", err)
	}

	var changedSymbols []string
	for _, p := range changedPaths {
		for _, sym := range m.SymbolsInFile(p) {
			changedSymbols = append(changedSymbols, sym.QualifiedName)
		}
	}

	budget := a.tokenBudget(effective)
	query := retrieval.RetrievalQuery{
		ChangedFiles:   changedPaths,
		ChangedSymbols: changedSymbols,
		DiffText:       diff,
		Depth:          string(effective.ReviewDepth),
		Budget:         budget,
	}

	source := retrieval.FileSystemSource{Root: repoPath}
	strategies := []retrieval.Strategy{
		&retrieval.StructuralStrategy{Map: m, Source: source},
		&retrieval.LexicalStrategy{Map: m, Source: source},
	}

	manifestHash, err := manifestContentHash(manifest)
	if err != nil {
		return nil, err
	}

	if effective.EmbeddingModel != "" && a.Embedder != nil {
		if raw, ok, fetchErr := sess.FetchOptionalBlob(ctx, retrieval.BlobName(manifestHash)); fetchErr == nil && ok {
			if idx, unmarshalErr := retrieval.UnmarshalEmbeddingIndex(raw); unmarshalErr == nil {
				strategies = append(strategies, &retrieval.SemanticStrategy{Provider: a.Embedder, Index: idx, Logger: a.Logger})
			} else {
				a.Logger.Warn("embedding index unmarshal failed, skipping semantic retrieval", "error", unmarshalErr)
			}
		}
	}
	if effective.EnableAgentic && a.AgenticSession != nil && a.AgenticTools != nil {
		strategies = append(strategies, &retrieval.AgenticStrategy{Session: a.AgenticSession, Tools: a.AgenticTools})
	}

	orchestrator := retrieval.NewOrchestrator(a.Logger, strategies...)
	items, err := orchestrator.Collect(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("collect retrieval context: %w", err)
	}
	ranked := retrieval.Rank(items, budget)
	if ranked.DroppedCount > 0 {
		a.Logger.Info("retrieval dropped items over budget", "dropped", ranked.DroppedCount, "admitted", len(ranked.Items))
	}

	var outlineText, patternsText string
	if effective.ReviewDepth != config.ReviewDepthQuick {
		var existing *memory.CodebaseMemory
		if raw, ok, fetchErr := sess.FetchOptionalBlob(ctx, memory.BlobName(manifestHash)); fetchErr == nil && ok {
			existing, _ = memory.Unmarshal(raw)
		}
		if existing != nil {
			outlineText = memory.RenderOutlineText(existing.Outline)
			if effective.ReviewDepth == config.ReviewDepthDeep {
				patternsText = renderPatternsText(existing.Patterns)
			}
		}
	}

	in := prompt.Input{
		Diff:           diff,
		PRContext:      renderPRContext(pr),
		RetrievedItems: renderRetrievedItems(ranked.Items),
		Outline:        outlineText,
		Patterns:       patternsText,
	}
	sections, err := prompt.Assemble(a.Logger, in, budget)
	if err != nil {
		return nil, err
	}

	output, err := a.Generator.Generate(ctx, effective.Model, sections)
	if err != nil {
		return nil, fmt.Errorf("generate review: %w", err)
	}

	comments := make([]ghclient.DraftReviewComment, 0, len(output.Comments))
	for _, c := range output.Comments {
		if c.Confidence != 0 && c.Confidence < effective.ConfidenceThreshold {
			continue
		}
		comments = append(comments, ghclient.DraftReviewComment{Path: c.FilePath, Line: c.Line, Body: c.Body})
	}

	if err := a.GitHub.CreateReview(ctx, target.Owner, target.Repo, target.Number, output.Summary, comments); err != nil {
		return nil, fmt.Errorf("publish review: %w", err)
	}

	return &ReviewResult{
		CommentsPosted: len(comments),
		RetrievalUsed:  ranked.TokensUsed,
		RetrievalItems: len(ranked.Items),
	}, nil
}

// tokenBudget splits max_tokens into the total prompt budget and the
// retrieval sub-budget: half is reserved for retrieved context, the other
// half for the diff, PR context, outline, and patterns sections (spec §4.8
// leaves the exact split to the implementation).
func (a *App) tokenBudget(cfg config.Config) ids.TokenBudget {
	total := ids.TokenCount(cfg.MaxTokens)
	return ids.TokenBudget{Total: total, Retrieval: total / 2}
}

func renderPRContext(pr interface {
	GetTitle() string
	GetBody() string
}) string {
	var b strings.Builder
	b.WriteString(pr.GetTitle())
	if body := pr.GetBody(); body != "" {
		b.WriteString("\n\n")
		b.WriteString(body)
	}
	return b.String()
}

func renderRetrievedItems(items []retrieval.ContextItem) string {
	var b strings.Builder
	for _, it := range items {
		fmt.Fprintf(&b, "--- %s:%d-%d (%s) ---\n%s\n\n", it.FilePath, it.LineRange.Start, it.LineRange.End, it.SourceStrategy, it.Text)
	}
	return b.String()
}

func renderPatternsText(entries []memory.PatternEntry) string {
	sorted := append([]memory.PatternEntry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Confidence > sorted[j].Confidence })
	var b strings.Builder
	for _, e := range sorted {
		fmt.Fprintf(&b, "[%s] %s (confidence %.2f)\n", e.Category, e.Description, e.Confidence)
	}
	return b.String()
}

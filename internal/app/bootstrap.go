package app

import (
	"context"
	"fmt"

	"github.com/sevigo/argus/internal/branchsync"
	"github.com/sevigo/argus/internal/ids"
	"github.com/sevigo/argus/internal/indexer"
	"github.com/sevigo/argus/internal/localcache"
	"github.com/sevigo/argus/internal/memory"
	"github.com/sevigo/argus/internal/retrieval"
	"github.com/sevigo/argus/internal/shardstore"
)

// BootstrapResult summarizes one bootstrap run for the caller (cmd/argus's
// logging and exit-code mapping).
type BootstrapResult struct {
	FileCount    int
	ParseErrs    []error
	Pushed       bool
	Analyzed     bool
	ManifestHash string
}

// RunBootstrap performs spec §4.2/§4.4's full-build path: clone and check
// out target, build a fresh CodebaseMap from scratch, shard it, optionally
// run a full pattern analysis, and push everything to the argus-data
// branch in one commit.
func (a *App) RunBootstrap(ctx context.Context, target ids.CommitSHA) (*BootstrapResult, error) {
	run := branchsync.NewRun()
	sess, err := run.Pull(ctx, a.BranchSync)
	if err != nil {
		return nil, fmt.Errorf("pull branch state: %w", err)
	}

	repoPath, cleanupRepo, err := a.Git.CloneAndCheckoutTemp(ctx, a.cloneURL(), string(target), a.Secrets.GitHubToken)
	if err != nil {
		return nil, fmt.Errorf("checkout repository at %s: %w", target, err)
	}
	defer cleanupRepo()

	m, parseErrs, err := indexer.FullBuild(ctx, repoPath, target, a.indexOptions())
	if err != nil {
		return nil, fmt.Errorf("full build: %w", err)
	}
	for _, e := range parseErrs {
		a.Logger.Warn("parse error during bootstrap build", "error", e)
	}

	result := &BootstrapResult{FileCount: len(m.Entries), ParseErrs: parseErrs}
	source := retrieval.FileSystemSource{Root: repoPath}

	err = run.Push(ctx, a.BranchSync, sess, func(pushSess *branchsync.Session) (*branchsync.Artifacts, error) {
		var prior *shardstore.Manifest
		if !pushSess.IsLegacy() {
			prior = pushSess.Manifest()
		}
		manifest, blobs, err := shardstore.Shard(m, prior)
		if err != nil {
			return nil, fmt.Errorf("shard codebase map: %w", err)
		}
		hash, err := manifestContentHash(manifest)
		if err != nil {
			return nil, err
		}
		result.ManifestHash = hash

		artifacts := &branchsync.Artifacts{
			Manifest:      manifest,
			ChangedBlobs:  blobs,
			OptionalFiles: map[string][]byte{},
			CommitMessage: fmt.Sprintf("argus: bootstrap at %s", target),
		}

		if a.PatternAnalyzer != nil {
			mem, err := memory.BootstrapAnalysis(ctx, a.PatternAnalyzer, m, target, a.outlineCharBudget())
			if err != nil {
				a.Logger.Warn("bootstrap pattern analysis failed, publishing without memory", "error", err)
			} else {
				raw, err := memory.Marshal(mem)
				if err != nil {
					return nil, fmt.Errorf("marshal codebase memory: %w", err)
				}
				artifacts.OptionalFiles[memory.BlobName(hash)] = raw
				result.Analyzed = true
			}
		}

		if a.Embedder != nil {
			allPaths := make([]ids.FilePath, 0, len(m.Entries))
			for p := range m.Entries {
				allPaths = append(allPaths, p)
			}
			idx, err := retrieval.BuildEmbeddingIndex(ctx, a.Embedder, m, source, allPaths)
			if err != nil {
				a.Logger.Warn("bootstrap embedding build failed, publishing without embeddings", "error", err)
			} else {
				raw, err := retrieval.MarshalEmbeddingIndex(idx)
				if err != nil {
					return nil, fmt.Errorf("marshal embedding index: %w", err)
				}
				artifacts.OptionalFiles[retrieval.BlobName(hash)] = raw
			}
		}

		return artifacts, nil
	})
	if err != nil {
		return result, fmt.Errorf("push bootstrap artifacts: %w", err)
	}
	result.Pushed = true

	if a.Cache != nil {
		w := &localcache.Watermark{
			RepoFullName:          a.repoFullName(),
			LastPulledManifestSHA: result.ManifestHash,
			LastIndexedSHA:        target,
		}
		if result.Analyzed {
			w.LastAnalyzedSHA = target
		}
		if err := a.Cache.UpsertWatermark(ctx, w); err != nil {
			a.Logger.Warn("failed to update local cache watermark", "error", err)
		}
	}

	return result, nil
}

func (a *App) repoFullName() string {
	return a.Secrets.RepositorySlug
}

// outlineCharBudget derives the outline's character budget from the
// configured token budget, mirroring memory.DefaultOutlineCharBudget's
// scale (spec §4.7 leaves the exact ratio to the implementation).
func (a *App) outlineCharBudget() int {
	if a.Cfg.MaxTokens <= 0 {
		return memory.DefaultOutlineCharBudget
	}
	return a.Cfg.MaxTokens / 4
}

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

// IndexResult summarizes one incremental-index run for the caller.
type IndexResult struct {
	PriorSHA     ids.CommitSHA
	DirtyShards  int
	Pushed       bool
	Analyzed     bool
	ManifestHash string
}

// RunIndex performs spec §4.4's dirty-shards path: diff the branch's last
// indexed commit against target, load only the shards the diff touched,
// rebuild just those, and merge the result back into the full manifest
// rather than replacing it.
func (a *App) RunIndex(ctx context.Context, target ids.CommitSHA) (*IndexResult, error) {
	run := branchsync.NewRun()
	sess, err := run.Pull(ctx, a.BranchSync)
	if err != nil {
		return nil, fmt.Errorf("pull branch state: %w", err)
	}
	if sess.IsLegacy() || sess.Manifest() == nil {
		return nil, fmt.Errorf("index mode requires an existing sharded manifest; run bootstrap first")
	}
	prior := sess.Manifest()
	result := &IndexResult{PriorSHA: prior.IndexedAt}

	repoPath, cleanupRepo, err := a.Git.CloneAndCheckoutTemp(ctx, a.cloneURL(), string(target), a.Secrets.GitHubToken)
	if err != nil {
		return nil, fmt.Errorf("checkout repository at %s: %w", target, err)
	}
	defer cleanupRepo()

	gitRepo, err := a.Git.Open(repoPath)
	if err != nil {
		return nil, fmt.Errorf("open checked out repository: %w", err)
	}
	changes, err := a.Git.ChangeSetBetween(gitRepo, string(prior.IndexedAt), string(target))
	if err != nil {
		return nil, fmt.Errorf("diff %s..%s: %w", prior.IndexedAt, target, err)
	}

	changedPaths := make([]ids.FilePath, 0, len(changes.Added)+len(changes.Modified)+len(changes.Removed))
	changedPaths = append(changedPaths, changes.Added...)
	changedPaths = append(changedPaths, changes.Modified...)
	changedPaths = append(changedPaths, changes.Removed...)

	dirty := branchsync.DirtyShards(prior, changedPaths)
	for _, p := range changedPaths {
		dirty[ids.ShardOf(p)] = true // new files land in shards the prior manifest never recorded
	}
	result.DirtyShards = len(dirty)

	if len(dirty) == 0 {
		result.Pushed = false
		return result, nil
	}

	partial, err := shardstore.LoadSelected(ctx, prior, sess, changedPaths)
	if err != nil {
		return nil, fmt.Errorf("load dirty shards: %w", err)
	}

	// loadedShards is wider than dirty: LoadSelected extends one hop over
	// cross-edges (spec §4.3 step 2), pulling neighbor shards into partial
	// purely for context. mergeManifest needs the full loaded set, not just
	// the directly-changed one, so it treats neighbor shards' cross-edges as
	// superseded-and-recomputed too rather than keeping stale duplicates.
	loadedShards := make(map[ids.ShardId]bool, len(dirty))
	for p := range partial.Entries {
		loadedShards[ids.ShardOf(p)] = true
	}
	for id := range dirty {
		loadedShards[id] = true
	}

	updated, parseErrs, err := indexer.IncrementalBuild(ctx, repoPath, partial, changes, target, a.indexOptions())
	if err != nil {
		return nil, fmt.Errorf("incremental build: %w", err)
	}
	for _, e := range parseErrs {
		a.Logger.Warn("parse error during incremental build", "error", e)
	}

	source := retrieval.FileSystemSource{Root: repoPath}

	err = run.Push(ctx, a.BranchSync, sess, func(pushSess *branchsync.Session) (*branchsync.Artifacts, error) {
		touched, blobs, err := shardstore.Shard(updated, prior)
		if err != nil {
			return nil, fmt.Errorf("shard touched codebase map: %w", err)
		}
		merged := mergeManifest(prior, touched, loadedShards)
		merged.IndexedAt = target

		hash, err := manifestContentHash(merged)
		if err != nil {
			return nil, err
		}
		result.ManifestHash = hash

		artifacts := &branchsync.Artifacts{
			Manifest:      merged,
			ChangedBlobs:  blobs,
			OptionalFiles: map[string][]byte{},
			CommitMessage: fmt.Sprintf("argus: index at %s", target),
		}

		if a.Cfg.Index.AnalyzePatterns && a.PatternAnalyzer != nil {
			existing, loadErr := a.loadExistingMemory(ctx, pushSess, prior)
			if loadErr != nil {
				a.Logger.Warn("could not load existing codebase memory, skipping pattern analysis", "error", loadErr)
			} else {
				// gitutil only exposes changed-path lists, not unified diff
				// text, so the analyzer sees the scoped outline but an empty
				// diff; AnalyzePatterns is expected to tolerate that.
				mem, err := memory.IncrementalAnalysis(ctx, a.PatternAnalyzer, existing, updated, changedPaths, "", target, a.outlineCharBudget())
				if err != nil {
					a.Logger.Warn("incremental pattern analysis failed, publishing without updated memory", "error", err)
				} else {
					raw, err := memory.Marshal(mem)
					if err != nil {
						return nil, fmt.Errorf("marshal codebase memory: %w", err)
					}
					artifacts.OptionalFiles[memory.BlobName(hash)] = raw
					result.Analyzed = true
				}
			}
		}

		if a.Embedder != nil {
			idx, err := retrieval.BuildEmbeddingIndex(ctx, a.Embedder, updated, source, changedPaths)
			if err != nil {
				a.Logger.Warn("incremental embedding build failed, publishing without embeddings", "error", err)
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
		return result, fmt.Errorf("push index artifacts: %w", err)
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

// loadExistingMemory fetches the prior run's codebase memory blob, keyed on
// the manifest content hash the pull session already carries (spec §4.4
// step 5: memory is optional, so a miss here just means no prior memory to
// merge patterns against, not an error).
func (a *App) loadExistingMemory(ctx context.Context, sess *branchsync.Session, prior *shardstore.Manifest) (*memory.CodebaseMemory, error) {
	priorHash, err := manifestContentHash(prior)
	if err != nil {
		return nil, err
	}
	raw, ok, err := sess.FetchOptionalBlob(ctx, memory.BlobName(priorHash))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return memory.Unmarshal(raw)
}

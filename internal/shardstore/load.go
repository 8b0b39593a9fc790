package shardstore

import (
	"context"
	"fmt"

	"github.com/sevigo/argus/internal/codemap"
	"github.com/sevigo/argus/internal/ids"
)

// BlobFetcher fetches a shard blob by name from wherever branchsync pulled
// it (the in-memory tree cache for a single run).
type BlobFetcher interface {
	FetchShardBlob(ctx context.Context, blobName string) (*ShardBlob, error)
}

// LoadSelected implements spec §4.3's load_selected: resolve required
// shards, extend by one hop over cross-edges, fetch exactly those shard
// blobs, and assemble a partial CodebaseMap. Unresolved edge targets remain
// unresolved; callers must tolerate this.
func LoadSelected(ctx context.Context, manifest *Manifest, fetcher BlobFetcher, requiredPaths []ids.FilePath) (*codemap.CodebaseMap, error) {
	required := make(map[ids.ShardId]bool)
	for _, p := range requiredPaths {
		required[ids.ShardOf(p)] = true
	}

	seed := make(map[ids.ShardId]bool, len(required))
	for id := range required {
		seed[id] = true
	}
	for _, e := range manifest.CrossEdges {
		srcShard, srcOK := manifest.SymbolShards[e.Source]
		tgtShard, tgtOK := manifest.SymbolShards[e.Target]
		if srcOK && seed[srcShard] && tgtOK {
			required[tgtShard] = true
		}
		if tgtOK && seed[tgtShard] && srcOK {
			required[srcShard] = true
		}
	}

	entries := make(map[ids.FilePath]codemap.FileEntry)
	var edges []codemap.Edge

	for shardID := range required {
		desc, ok := manifest.Shards[shardID]
		if !ok {
			continue
		}
		blob, err := fetcher.FetchShardBlob(ctx, desc.BlobName)
		if err != nil {
			return nil, fmt.Errorf("fetch shard %q (%s): %w", shardID, desc.BlobName, err)
		}
		for _, entry := range blob.Entries {
			entries[entry.Path] = entry
		}
		edges = append(edges, blob.InternalEdges...)
	}

	for _, e := range manifest.CrossEdges {
		srcShard, srcOK := manifest.SymbolShards[e.Source]
		tgtShard, tgtOK := manifest.SymbolShards[e.Target]
		if (srcOK && required[srcShard]) || (tgtOK && required[tgtShard]) {
			edges = append(edges, e)
		}
	}

	codemap.SortEdges(edges)
	return codemap.New(manifest.IndexedAt, entries, edges), nil
}

// RequiredShards resolves the shards that directly own paths, without
// fetching anything and without LoadSelected's one-hop cross-edge
// extension — used by the index path to compute "dirty shards" (spec §4.4
// pull protocol, index path).
func RequiredShards(manifest *Manifest, paths []ids.FilePath) map[ids.ShardId]bool {
	required := make(map[ids.ShardId]bool)
	for _, p := range paths {
		required[ids.ShardOf(p)] = true
	}
	return required
}

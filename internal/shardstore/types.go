// Package shardstore implements the sharded persistence model of spec §4.3:
// splitting a CodebaseMap into per-directory shard blobs, maintaining the
// cross-shard manifest, and the selective load operation that fetches only
// the shards a review needs.
package shardstore

import (
	"github.com/sevigo/argus/internal/codemap"
	"github.com/sevigo/argus/internal/ids"
)

// ShardDescriptor is the manifest's per-shard record.
type ShardDescriptor struct {
	ShardId     ids.ShardId    `json:"shard_id"`
	BlobName    string         `json:"blob_name"`
	ContentHash string         `json:"content_hash"`
	FileCount   int            `json:"file_count"`
	FilePaths   []ids.FilePath `json:"file_paths"`
}

// Manifest is the DAG index of shards plus cross-edges, the single entry
// point for selective loading. SymbolShards is an implementation-detail
// index beyond spec §6's essential schema fields: it records, for every
// qualified_name that appears as a cross-edge endpoint, which shard
// declares it, so load_selected's one-hop extension (§4.3 step 2) doesn't
// require fetching every shard to find out.
type Manifest struct {
	IndexedAt    ids.CommitSHA              `json:"indexed_at"`
	Shards       map[ids.ShardId]ShardDescriptor `json:"shards"`
	CrossEdges   []codemap.Edge             `json:"cross_edges"`
	SymbolShards map[string]ids.ShardId     `json:"symbol_shards,omitempty"`
}

// ShardBlob is the persisted content of one shard.
type ShardBlob struct {
	ShardId       ids.ShardId        `json:"shard_id"`
	Entries       []codemap.FileEntry `json:"entries"`
	InternalEdges []codemap.Edge      `json:"internal_edges"`
}

// BlobName derives `shard_<content_hash>.json` from a content hash.
func BlobName(contentHash string) string {
	return "shard_" + contentHash + ".json"
}

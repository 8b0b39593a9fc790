package branchsync

import (
	"context"
	"fmt"

	"github.com/sevigo/argus/internal/ids"
	"github.com/sevigo/argus/internal/shardstore"
)

const manifestPath = "manifest.json"

// Session is one run's frozen view of the branch: the tree listing is read
// once and reused for every subsequent fetch (spec §4.4 ordering
// guarantees). It implements shardstore.BlobFetcher.
type Session struct {
	client    *Client
	tree      *treeCache
	manifest  *shardstore.Manifest
	legacy    bool
}

// Pull fetches the ref and root tree, then reads manifest.json. If no
// manifest is present the store falls back to the legacy flat-map blob
// (spec §4.3 "Legacy compatibility").
func (c *Client) Pull(ctx context.Context) (*Session, error) {
	tree, err := c.fetchTree(ctx)
	if err != nil {
		return nil, err
	}

	sess := &Session{client: c, tree: tree}

	manifestSHA, ok := tree.entries[manifestPath]
	if !ok {
		sess.legacy = true
		return sess, nil
	}

	raw, err := c.fetchBlobBytes(ctx, manifestSHA)
	if err != nil {
		return nil, err
	}
	manifest, err := shardstore.UnmarshalManifest(raw)
	if err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}
	sess.manifest = manifest
	return sess, nil
}

// Manifest returns the pulled manifest, or nil if this run fell back to
// the legacy flat-map layout.
func (s *Session) Manifest() *shardstore.Manifest { return s.manifest }

// IsLegacy reports whether no manifest was found and a single flat-map
// blob should be read instead.
func (s *Session) IsLegacy() bool { return s.legacy }

// LegacyBlobPath is the well-known name of the pre-sharding flat map blob.
const LegacyBlobPath = "codebase_map.json"

// FetchLegacy reads the flat-map blob for the legacy fallback path.
func (s *Session) FetchLegacy(ctx context.Context) ([]byte, bool, error) {
	sha, ok := s.tree.entries[LegacyBlobPath]
	if !ok {
		return nil, false, nil
	}
	data, err := s.client.fetchBlobBytes(ctx, sha)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// FetchShardBlob implements shardstore.BlobFetcher against this run's
// frozen tree cache.
func (s *Session) FetchShardBlob(ctx context.Context, blobName string) (*shardstore.ShardBlob, error) {
	sha, ok := s.tree.entries[blobName]
	if !ok {
		return nil, fmt.Errorf("blob %q not present in branch tree", blobName)
	}
	data, err := s.client.fetchBlobBytes(ctx, sha)
	if err != nil {
		return nil, err
	}
	return shardstore.UnmarshalShardBlob(data)
}

// FetchOptionalBlob fetches `<hash>_memory.json` / `<hash>_embeddings.json`
// style blobs whose presence is discovered from the cached tree listing
// (spec §4.4 pull protocol step 5).
func (s *Session) FetchOptionalBlob(ctx context.Context, name string) ([]byte, bool, error) {
	sha, ok := s.tree.entries[name]
	if !ok {
		return nil, false, nil
	}
	data, err := s.client.fetchBlobBytes(ctx, sha)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// DirtyShards implements the index-path pull: shards whose file set
// intersects changedPaths (spec §4.4 "Pull protocol (index path)").
func DirtyShards(manifest *shardstore.Manifest, changedPaths []ids.FilePath) map[ids.ShardId]bool {
	changed := make(map[ids.ShardId]bool, len(changedPaths))
	for _, p := range changedPaths {
		changed[ids.ShardOf(p)] = true
	}
	dirty := make(map[ids.ShardId]bool)
	for shardID := range manifest.Shards {
		if changed[shardID] {
			dirty[shardID] = true
		}
	}
	return dirty
}

package app

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/argus/internal/codemap"
	"github.com/sevigo/argus/internal/ids"
	"github.com/sevigo/argus/internal/shardstore"
)

func TestSplitSlugParsesOwnerAndRepo(t *testing.T) {
	owner, repo, err := splitSlug("sevigo/argus")
	require.NoError(t, err)
	assert.Equal(t, "sevigo", owner)
	assert.Equal(t, "argus", repo)
}

func TestSplitSlugRejectsMalformedInput(t *testing.T) {
	for _, raw := range []string{"", "argus", "sevigo/", "/argus", "a/b/c"} {
		_, _, err := splitSlug(raw)
		assert.Error(t, err, "expected an error for %q", raw)
	}
}

func TestModeFromEnvAcceptsKnownModes(t *testing.T) {
	for _, m := range []Mode{ModeBootstrap, ModeIndex, ModeReview} {
		t.Setenv("ARGUS_MODE", string(m))
		got, err := ModeFromEnv()
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
}

func TestModeFromEnvRejectsUnknownMode(t *testing.T) {
	t.Setenv("ARGUS_MODE", "rebuild-everything")
	_, err := ModeFromEnv()
	assert.Error(t, err)
}

func TestTargetSHAValidatesFormat(t *testing.T) {
	valid := "a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2"
	t.Setenv("ARGUS_TARGET_SHA", valid)
	sha, err := TargetSHA()
	require.NoError(t, err)
	assert.Equal(t, ids.CommitSHA(valid), sha)
}

func TestTargetSHARejectsShortOrEmptyValue(t *testing.T) {
	for _, raw := range []string{"", "deadbeef", "not-a-sha"} {
		t.Setenv("ARGUS_TARGET_SHA", raw)
		_, err := TargetSHA()
		assert.Error(t, err, "expected an error for %q", raw)
	}
}

func TestReviewTargetFromPayloadExtractsPRFields(t *testing.T) {
	payload := map[string]any{
		"pull_request": map[string]any{
			"number": 42,
			"head":   map[string]any{"sha": "deadbeefdeadbeefdeadbeefdeadbeefdeadbeef"},
		},
		"repository": map[string]any{
			"name":      "argus",
			"clone_url": "https://github.com/sevigo/argus.git",
			"owner":     map[string]any{"login": "sevigo"},
		},
	}
	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "event.json")
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	target, err := ReviewTargetFromPayload(path)
	require.NoError(t, err)
	assert.Equal(t, "sevigo", target.Owner)
	assert.Equal(t, "argus", target.Repo)
	assert.Equal(t, 42, target.Number)
	assert.Equal(t, "deadbeefdeadbeefdeadbeefdeadbeefdeadbeef", target.HeadSHA)
	assert.Equal(t, "https://github.com/sevigo/argus.git", target.CloneURL)
}

func TestReviewTargetFromPayloadRequiresPath(t *testing.T) {
	_, err := ReviewTargetFromPayload("")
	assert.Error(t, err)
}

func TestReviewTargetFromPayloadRejectsMissingFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "event.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))

	_, err := ReviewTargetFromPayload(path)
	assert.Error(t, err)
}

func TestMergeManifestKeepsUnloadedShardsFromPrior(t *testing.T) {
	prior := &shardstore.Manifest{
		IndexedAt: "priorsha",
		Shards: map[ids.ShardId]shardstore.ShardDescriptor{
			"a": {ShardId: "a", BlobName: "shard_a.json", ContentHash: "a-hash", FileCount: 1, FilePaths: []ids.FilePath{"a/x.go"}},
			"b": {ShardId: "b", BlobName: "shard_b.json", ContentHash: "b-hash", FileCount: 1, FilePaths: []ids.FilePath{"b/y.go"}},
		},
		SymbolShards: map[string]ids.ShardId{
			"a.x.Foo": "a",
			"b.y.Bar": "b",
		},
		CrossEdges: []codemap.Edge{
			{Source: "a.x.Foo", Target: "b.y.Bar", Kind: codemap.EdgeCalls},
		},
	}

	touched := &shardstore.Manifest{
		IndexedAt: "newsha",
		Shards: map[ids.ShardId]shardstore.ShardDescriptor{
			"a": {ShardId: "a", BlobName: "shard_a2.json", ContentHash: "a-hash-2", FileCount: 1, FilePaths: []ids.FilePath{"a/x.go"}},
		},
		SymbolShards: map[string]ids.ShardId{
			"a.x.Foo": "a",
		},
		CrossEdges: nil,
	}

	loaded := map[ids.ShardId]bool{"a": true}

	merged := mergeManifest(prior, touched, loaded)

	assert.Equal(t, ids.CommitSHA("newsha"), merged.IndexedAt)
	require.Contains(t, merged.Shards, ids.ShardId("a"))
	assert.Equal(t, "a-hash-2", merged.Shards["a"].ContentHash, "loaded shard must come from touched, not prior")
	require.Contains(t, merged.Shards, ids.ShardId("b"))
	assert.Equal(t, "b-hash", merged.Shards["b"].ContentHash, "unloaded shard must be carried forward unchanged")

	// The cross-edge touched one endpoint ("a") that was reloaded this run, so
	// it is dropped rather than carried forward stale; touched reported no
	// replacement because shard "b" (the other endpoint) wasn't loaded too.
	assert.Empty(t, merged.CrossEdges)
}

func TestMergeManifestDropsShardsThatEmptiedOut(t *testing.T) {
	prior := &shardstore.Manifest{
		IndexedAt: "priorsha",
		Shards: map[ids.ShardId]shardstore.ShardDescriptor{
			"a": {ShardId: "a", BlobName: "shard_a.json", ContentHash: "a-hash", FileCount: 1, FilePaths: []ids.FilePath{"a/x.go"}},
		},
		SymbolShards: map[string]ids.ShardId{},
	}
	touched := &shardstore.Manifest{
		IndexedAt:    "newsha",
		Shards:       map[ids.ShardId]shardstore.ShardDescriptor{},
		SymbolShards: map[string]ids.ShardId{},
	}
	loaded := map[ids.ShardId]bool{"a": true}

	merged := mergeManifest(prior, touched, loaded)
	assert.NotContains(t, merged.Shards, ids.ShardId("a"), "a shard whose last file was removed must not reappear")
}

func TestMergeManifestWithNilPriorReturnsTouched(t *testing.T) {
	touched := &shardstore.Manifest{IndexedAt: "onlysha"}
	merged := mergeManifest(nil, touched, nil)
	assert.Same(t, touched, merged)
}

package shardstore

import (
	"github.com/sevigo/argus/internal/codemap"
	"github.com/sevigo/argus/internal/ids"
)

// MarshalManifest and MarshalShardBlob produce the stable, sorted-key JSON
// bytes persisted on the branch (spec §6: "Keys are sorted").
func MarshalManifest(m *Manifest) ([]byte, error) { return stableJSON.Marshal(m) }

func UnmarshalManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := stableJSON.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func MarshalShardBlob(b ShardBlob) ([]byte, error) { return stableJSON.Marshal(b) }

func UnmarshalShardBlob(data []byte) (*ShardBlob, error) {
	var b ShardBlob
	if err := stableJSON.Unmarshal(data, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// LegacyFlatMap is the pre-sharding single-blob layout. The store falls
// back to it when no manifest is present, and replaces it with a sharded
// manifest+blobs on the next save (spec §4.3 "Legacy compatibility").
type LegacyFlatMap struct {
	IndexedAt ids.CommitSHA                    `json:"indexed_at"`
	Entries   map[ids.FilePath]codemap.FileEntry `json:"entries"`
	Edges     []codemap.Edge                   `json:"edges"`
}

func MarshalLegacy(m *codemap.CodebaseMap) ([]byte, error) {
	return stableJSON.Marshal(LegacyFlatMap{IndexedAt: m.IndexedAt, Entries: m.Entries, Edges: m.Graph.Edges()})
}

func UnmarshalLegacy(data []byte) (*codemap.CodebaseMap, error) {
	var legacy LegacyFlatMap
	if err := stableJSON.Unmarshal(data, &legacy); err != nil {
		return nil, err
	}
	return codemap.New(legacy.IndexedAt, legacy.Entries, legacy.Edges), nil
}

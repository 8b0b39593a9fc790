package shardstore

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"

	jsoniter "github.com/json-iterator/go"

	"github.com/sevigo/argus/internal/codemap"
	"github.com/sevigo/argus/internal/ids"
)

var stableJSON = jsoniter.Config{SortMapKeys: true, EscapeHTML: false}.Froze()

// Shard groups a CodebaseMap into shard blobs and produces the new
// manifest, reusing any prior descriptor whose content hash is unchanged
// (spec §4.3: "carrying the prior descriptor unchanged when the hash
// matches, and otherwise emitting a new descriptor").
func Shard(m *codemap.CodebaseMap, prior *Manifest) (*Manifest, map[string]ShardBlob, error) {
	grouped := make(map[ids.ShardId][]ids.FilePath)
	for path := range m.Entries {
		shardID := ids.ShardOf(path)
		grouped[shardID] = append(grouped[shardID], path)
	}

	fileOfQualified := make(map[string]ids.FilePath)
	for path, entry := range m.Entries {
		for _, sym := range entry.Symbols {
			fileOfQualified[sym.QualifiedName] = path
		}
	}
	endpointFile := func(endpoint string) (ids.FilePath, bool) {
		if _, ok := m.Entries[ids.FilePath(endpoint)]; ok {
			return ids.FilePath(endpoint), true
		}
		if f, ok := fileOfQualified[endpoint]; ok {
			return f, true
		}
		return "", false
	}

	internalByShard := make(map[ids.ShardId][]codemap.Edge)
	var crossEdges []codemap.Edge
	symbolShards := make(map[string]ids.ShardId)

	for _, e := range m.Graph.Edges() {
		srcFile, srcOK := endpointFile(e.Source)
		tgtFile, tgtOK := endpointFile(e.Target)

		if srcOK {
			symbolShards[e.Source] = ids.ShardOf(srcFile)
		}
		if tgtOK {
			symbolShards[e.Target] = ids.ShardOf(tgtFile)
		}

		switch {
		case srcOK && tgtOK && ids.ShardOf(srcFile) == ids.ShardOf(tgtFile):
			shardID := ids.ShardOf(srcFile)
			internalByShard[shardID] = append(internalByShard[shardID], e)
		case srcOK && tgtOK:
			crossEdges = append(crossEdges, e)
		case srcOK:
			internalByShard[ids.ShardOf(srcFile)] = append(internalByShard[ids.ShardOf(srcFile)], e)
		}
	}

	newManifest := &Manifest{
		IndexedAt:    m.IndexedAt,
		Shards:       make(map[ids.ShardId]ShardDescriptor, len(grouped)),
		CrossEdges:   sortedEdges(crossEdges),
		SymbolShards: symbolShards,
	}
	blobs := make(map[string]ShardBlob, len(grouped))

	for shardID, paths := range grouped {
		sort.Slice(paths, func(i, j int) bool { return paths[i] < paths[j] })

		entries := make([]codemap.FileEntry, 0, len(paths))
		for _, p := range paths {
			entries = append(entries, m.Entries[p])
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })

		internal := sortedEdges(internalByShard[shardID])

		blob := ShardBlob{ShardId: shardID, Entries: entries, InternalEdges: internal}
		raw, err := stableJSON.Marshal(blob)
		if err != nil {
			return nil, nil, err
		}
		sum := sha256.Sum256(raw)
		hash := hex.EncodeToString(sum[:])

		desc := ShardDescriptor{
			ShardId:     shardID,
			BlobName:    BlobName(hash),
			ContentHash: hash,
			FileCount:   len(paths),
			FilePaths:   paths,
		}
		newManifest.Shards[shardID] = desc

		if prior != nil {
			if priorDesc, ok := prior.Shards[shardID]; ok && priorDesc.ContentHash == hash {
				continue // unchanged: caller must not rewrite this blob
			}
		}
		blobs[desc.BlobName] = blob
	}

	return newManifest, blobs, nil
}

func sortedEdges(in []codemap.Edge) []codemap.Edge {
	out := append([]codemap.Edge(nil), in...)
	codemap.SortEdges(out)
	return out
}

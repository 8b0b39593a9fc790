package retrieval

import (
	"context"
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/sevigo/argus/internal/chunk"
	"github.com/sevigo/argus/internal/codemap"
	"github.com/sevigo/argus/internal/core"
	"github.com/sevigo/argus/internal/ids"
)

var embeddingsJSON = jsoniter.Config{SortMapKeys: true, EscapeHTML: false}.Froze()

// BuildEmbeddingIndex splits every file in paths into chunks and embeds
// each one, producing the precomputed vector file the semantic strategy
// loads on a later review (spec §4.4 step 5, §4.5 "Semantic"). A chunk
// whose file can't be read, or whose embed call fails, is skipped; the run
// continues with whatever chunks succeeded rather than aborting indexing
// over a single embedding-provider hiccup.
func BuildEmbeddingIndex(ctx context.Context, provider core.EmbeddingProvider, m *codemap.CodebaseMap, source SourceProvider, paths []ids.FilePath) (*EmbeddingIndex, error) {
	if provider == nil {
		return &EmbeddingIndex{}, nil
	}

	var vectors []ChunkVector
	for _, path := range paths {
		entry, ok := m.Entries[path]
		if !ok {
			continue
		}
		raw, err := source.ReadFile(ctx, path)
		if err != nil {
			continue
		}
		for _, c := range chunk.Split(entry, raw) {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
			vec, err := provider.Embed(ctx, c.Text)
			if err != nil {
				continue
			}
			vectors = append(vectors, ChunkVector{
				FilePath:  c.FilePath,
				LineRange: c.LineRange,
				Text:      c.Text,
				Vector:    vec,
			})
		}
	}
	return &EmbeddingIndex{Vectors: vectors}, nil
}

// BlobName derives the `<hash>_embeddings.json` optional-artifact name
// (spec §6 persisted artifact layout) from a manifest content hash.
func BlobName(manifestHash string) string {
	return manifestHash + "_embeddings.json"
}

func MarshalEmbeddingIndex(idx *EmbeddingIndex) ([]byte, error) {
	return embeddingsJSON.Marshal(idx)
}

func UnmarshalEmbeddingIndex(data []byte) (*EmbeddingIndex, error) {
	var idx EmbeddingIndex
	if err := embeddingsJSON.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("unmarshal embedding index: %w", err)
	}
	return &idx, nil
}

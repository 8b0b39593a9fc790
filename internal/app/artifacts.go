package app

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/sevigo/argus/internal/shardstore"
)

// manifestContentHash is the "<hash>" spec §6's optional artifact names
// ("<hash>_memory.json", "<hash>_embeddings.json") are keyed on. Pull
// discovers these blobs from the branch's cached tree listing rather than
// a field on the manifest itself (spec §4.4 pull protocol step 5), so both
// push and pull must derive the same name independently from the
// manifest they just produced or fetched.
func manifestContentHash(manifest *shardstore.Manifest) (string, error) {
	raw, err := shardstore.MarshalManifest(manifest)
	if err != nil {
		return "", fmt.Errorf("marshal manifest for content hash: %w", err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

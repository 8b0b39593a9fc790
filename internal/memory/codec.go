package memory

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var stableJSON = jsoniter.Config{SortMapKeys: true, EscapeHTML: false}.Froze()

// BlobName derives the `<hash>_memory.json` optional-artifact name (spec
// §6 persisted artifact layout) from a manifest content hash.
func BlobName(manifestHash string) string {
	return manifestHash + "_memory.json"
}

// Marshal produces the stable, sorted-key JSON bytes persisted on the
// branch (spec §6: "Keys are sorted").
func Marshal(mem *CodebaseMemory) ([]byte, error) {
	return stableJSON.Marshal(mem)
}

// Unmarshal parses a persisted memory artifact.
func Unmarshal(data []byte) (*CodebaseMemory, error) {
	var mem CodebaseMemory
	if err := stableJSON.Unmarshal(data, &mem); err != nil {
		return nil, fmt.Errorf("unmarshal codebase memory: %w", err)
	}
	return &mem, nil
}

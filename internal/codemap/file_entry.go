package codemap

import "github.com/sevigo/argus/internal/ids"

// FileEntry is the per-file record in a CodebaseMap. Invariant: ContentHash
// matches what was actually parsed; LastIndexedSHA is the commit at which
// this entry was last produced.
type FileEntry struct {
	Path           ids.FilePath `json:"path"`
	Language       string       `json:"language"`
	ContentHash    string       `json:"content_hash"`
	LastIndexedSHA ids.CommitSHA `json:"last_indexed_sha"`
	Symbols        []Symbol     `json:"symbols"`
	Imports        []string     `json:"imports"`
	Exports        []string     `json:"exports"`
	Summary        string       `json:"summary,omitempty"`
}

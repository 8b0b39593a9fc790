package retrieval

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sevigo/argus/internal/ids"
)

// SourceProvider reads a file's current text, the raw material every
// non-structural strategy chunks or embeds. Structural retrieval also uses
// it to extract the text backing the symbols it surfaces.
type SourceProvider interface {
	ReadFile(ctx context.Context, path ids.FilePath) ([]byte, error)
}

// FileSystemSource reads files relative to a local checkout root — the
// review path's diff target, checked out by internal/gitutil.
type FileSystemSource struct {
	Root string
}

func (s FileSystemSource) ReadFile(_ context.Context, path ids.FilePath) ([]byte, error) {
	b, err := os.ReadFile(filepath.Join(s.Root, string(path)))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return b, nil
}

// sliceLines returns the 1-based inclusive [start,end] line range of
// source, clamped to the file's actual bounds.
func sliceLines(source []byte, lr ids.LineRange) (string, ids.LineRange) {
	lines := strings.Split(string(source), "\n")
	start, end := lr.Start, lr.End
	if start < 1 {
		start = 1
	}
	if end > len(lines) {
		end = len(lines)
	}
	if end < start {
		end = start
	}
	if start > len(lines) {
		return "", ids.LineRange{Start: start, End: start}
	}
	return strings.Join(lines[start-1:end], "\n"), ids.LineRange{Start: start, End: end}
}

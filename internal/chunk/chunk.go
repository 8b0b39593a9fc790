// Package chunk splits a parsed file into coherent semantic units — each
// chunk a function body, a class header, or a contiguous run of top-level
// constants — for the lexical and semantic retrieval strategies to index.
package chunk

import (
	"sort"
	"strings"

	"github.com/sevigo/argus/internal/codemap"
	"github.com/sevigo/argus/internal/ids"
)

// CodeChunk is a retrieval-only slice of a file's text, anchored (when
// known) to the symbol whose body it is.
type CodeChunk struct {
	FilePath     ids.FilePath
	LineRange    ids.LineRange
	Text         string
	AnchorSymbol string
}

// Split breaks entry's source into chunks around its symbol boundaries. Any
// lines not covered by a symbol (package-level imports, top-level constant
// runs, file header) become one unanchored chunk per contiguous gap.
func Split(entry codemap.FileEntry, source []byte) []CodeChunk {
	lines := strings.Split(string(source), "\n")
	if len(lines) == 0 {
		return nil
	}

	symbols := append([]codemap.Symbol(nil), entry.Symbols...)
	sort.Slice(symbols, func(i, j int) bool {
		return symbols[i].LineRange.Start < symbols[j].LineRange.Start
	})

	var chunks []CodeChunk
	cursor := 1
	for _, sym := range symbols {
		if sym.LineRange.Start > cursor {
			chunks = append(chunks, textChunk(entry.Path, cursor, sym.LineRange.Start-1, lines, ""))
		}
		end := sym.LineRange.End
		if end < sym.LineRange.Start {
			end = sym.LineRange.Start
		}
		chunks = append(chunks, textChunk(entry.Path, sym.LineRange.Start, end, lines, sym.QualifiedName))
		if end+1 > cursor {
			cursor = end + 1
		}
	}
	if cursor <= len(lines) {
		chunks = append(chunks, textChunk(entry.Path, cursor, len(lines), lines, ""))
	}

	out := chunks[:0]
	for _, c := range chunks {
		if strings.TrimSpace(c.Text) != "" {
			out = append(out, c)
		}
	}
	return out
}

func textChunk(path ids.FilePath, start, end int, lines []string, anchor string) CodeChunk {
	if start < 1 {
		start = 1
	}
	if end > len(lines) {
		end = len(lines)
	}
	if end < start {
		end = start
	}
	text := strings.Join(lines[start-1:end], "\n")
	return CodeChunk{
		FilePath:     path,
		LineRange:    ids.LineRange{Start: start, End: end},
		Text:         text,
		AnchorSymbol: anchor,
	}
}

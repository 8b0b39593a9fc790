package chunk

import (
	"testing"

	"github.com/sevigo/argus/internal/codemap"
	"github.com/sevigo/argus/internal/ids"
)

func TestSplitAnchorsOnSymbols(t *testing.T) {
	source := []byte("package a\n\nfunc f() {\n\treturn\n}\n")
	entry := codemap.FileEntry{
		Path: "a/x.go",
		Symbols: []codemap.Symbol{
			{Name: "f", QualifiedName: "f", LineRange: ids.LineRange{Start: 3, End: 5}},
		},
	}

	chunks := Split(entry, source)
	if len(chunks) == 0 {
		t.Fatal("expected at least one chunk")
	}

	var found bool
	for _, c := range chunks {
		if c.AnchorSymbol == "f" {
			found = true
			if c.LineRange.Start != 3 || c.LineRange.End != 5 {
				t.Errorf("unexpected anchored range: %+v", c.LineRange)
			}
		}
	}
	if !found {
		t.Error("expected a chunk anchored to symbol f")
	}
}

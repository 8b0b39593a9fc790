// Package codemap holds the in-memory codebase aggregate: symbols, edges,
// file entries, the dependency graph built over them, and the CodebaseMap
// that ties them together.
package codemap

import "github.com/sevigo/argus/internal/ids"

// SymbolKind is the closed set of symbol kinds a parser may emit.
type SymbolKind string

const (
	SymbolFunction  SymbolKind = "function"
	SymbolMethod    SymbolKind = "method"
	SymbolClass     SymbolKind = "class"
	SymbolInterface SymbolKind = "interface"
	SymbolStruct    SymbolKind = "struct"
	SymbolEnum      SymbolKind = "enum"
	SymbolType      SymbolKind = "type"
	SymbolConstant  SymbolKind = "constant"
)

// Symbol is one named code element within a file. QualifiedName is unique
// within the file and is the key used for graph nodes.
type Symbol struct {
	Name          string        `json:"name"`
	Kind          SymbolKind    `json:"kind"`
	LineRange     ids.LineRange `json:"line_range"`
	QualifiedName string        `json:"qualified_name"`
}

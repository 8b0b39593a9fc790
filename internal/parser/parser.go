package parser

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/sevigo/argus/internal/codemap"
	"github.com/sevigo/argus/internal/core"
	"github.com/sevigo/argus/internal/ids"
)

// Result is what Parse produces for one file: the FileEntry (with its Path
// set) and its local edges.
type Result struct {
	Entry codemap.FileEntry
	Edges []codemap.Edge
}

// Parser wraps a tree-sitter grammar for one language. Adapter for spec
// §4.1's `parse(path, bytes) → FileEntry | ParseError` contract.
type Parser struct {
	language Language
	rules    langRules
	sitter   *sitter.Parser
}

// New creates a Parser for lang, or an error if the language isn't wired
// to a tree-sitter grammar.
func New(lang Language) (*Parser, error) {
	grammar := grammarFor(lang)
	if grammar == nil {
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}
	p := sitter.NewParser()
	p.SetLanguage(grammar)
	return &Parser{language: lang, rules: rulesFor(lang), sitter: p}, nil
}

// Parse extracts a FileEntry and its local edges from source. A parse
// failure is wrapped in *core.ParseError, which callers degrade to an
// empty entry for (spec §4.1: "parse errors are non-fatal at the map
// level").
func (p *Parser) Parse(ctx context.Context, path ids.FilePath, source []byte) (*Result, error) {
	tree, err := p.sitter.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, &core.ParseError{Path: string(path), Cause: err}
	}
	defer tree.Close()

	ex := &extractor{rules: p.rules, source: source, path: path}
	ex.walk(tree.RootNode(), "")

	codemap.SortEdges(ex.edges)

	hash := sha256.Sum256(source)
	entry := codemap.FileEntry{
		Path:        path,
		Language:    string(p.language),
		ContentHash: hex.EncodeToString(hash[:]),
		Symbols:     ex.symbols,
		Imports:     ex.imports,
		Exports:     nil,
	}
	return &Result{Entry: entry, Edges: ex.edges}, nil
}

// extractor walks one parsed tree, collecting symbols and edges according
// to the active language's declarative rule table.
type extractor struct {
	rules   langRules
	source  []byte
	path    ids.FilePath
	symbols []codemap.Symbol
	edges   []codemap.Edge
	imports []string
}

func (ex *extractor) walk(node *sitter.Node, scope string) {
	if node == nil {
		return
	}
	nodeType := node.Type()

	if rule, ok := ex.rules.decls[nodeType]; ok {
		ex.emitDecl(node, rule, scope)
		return
	}
	if contains(ex.rules.imports, nodeType) {
		ex.emitImport(node)
	}
	if contains(ex.rules.calls, nodeType) {
		ex.emitCall(node, scope)
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		ex.walk(node.Child(i), scope)
	}
}

func (ex *extractor) emitDecl(node *sitter.Node, rule declRule, scope string) {
	name := ex.fieldText(node, rule.nameField)
	if name == "" {
		name = firstIdentifier(node, ex.source)
	}
	qualified := name
	if scope != "" && name != "" {
		qualified = scope + "." + name
	}

	kind := rule.kind
	if kind == codemap.SymbolFunction && scope != "" {
		kind = codemap.SymbolMethod
	}

	if name != "" {
		ex.symbols = append(ex.symbols, codemap.Symbol{
			Name: name,
			Kind: kind,
			LineRange: ids.LineRange{
				Start: int(node.StartPoint().Row) + 1,
				End:   int(node.EndPoint().Row) + 1,
			},
			QualifiedName: qualified,
		})
	}

	if rule.container && name != "" {
		ex.emitHeritage(node, qualified)
	}

	nextScope := scope
	if rule.container && name != "" {
		nextScope = qualified
	}

	body := ex.rules.bodyField
	if child := node.ChildByFieldName(body); child != nil {
		ex.walk(child, nextScope)
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		ex.walk(node.Child(i), nextScope)
	}
}

func (ex *extractor) emitHeritage(node *sitter.Node, qualified string) {
	for _, field := range []struct {
		name string
		kind codemap.EdgeKind
	}{
		{ex.rules.extendsField, codemap.EdgeExtends},
		{ex.rules.implementsField, codemap.EdgeImplements},
	} {
		if field.name == "" {
			continue
		}
		child := node.ChildByFieldName(field.name)
		if child == nil {
			continue
		}
		for _, target := range identifierTexts(child, ex.source) {
			ex.edges = append(ex.edges, codemap.Edge{
				Source: qualified,
				Target: target,
				Kind:   field.kind,
			})
		}
	}
}

func (ex *extractor) emitImport(node *sitter.Node) {
	text := firstStringLiteral(node, ex.source)
	if text == "" {
		text = firstIdentifier(node, ex.source)
	}
	if text == "" {
		return
	}
	ex.imports = append(ex.imports, text)
	ex.edges = append(ex.edges, codemap.Edge{
		Source: string(ex.path),
		Target: text,
		Kind:   codemap.EdgeImports,
	})
}

func (ex *extractor) emitCall(node *sitter.Node, scope string) {
	if scope == "" || node.ChildCount() == 0 {
		return
	}
	callee := node.Child(0)
	target := callee.Content(ex.source)
	if target == "" {
		return
	}
	ex.edges = append(ex.edges, codemap.Edge{
		Source: scope,
		Target: target,
		Kind:   codemap.EdgeCalls,
	})
}

func (ex *extractor) fieldText(node *sitter.Node, field string) string {
	if field == "" {
		return ""
	}
	child := node.ChildByFieldName(field)
	if child == nil {
		return ""
	}
	return child.Content(ex.source)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

var identifierNodeTypes = map[string]bool{
	"identifier":         true,
	"type_identifier":    true,
	"field_identifier":   true,
	"property_identifier": true,
	"constant":           true,
}

func firstIdentifier(node *sitter.Node, source []byte) string {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if identifierNodeTypes[child.Type()] {
			return child.Content(source)
		}
	}
	return ""
}

func identifierTexts(node *sitter.Node, source []byte) []string {
	var out []string
	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		if identifierNodeTypes[n.Type()] {
			out = append(out, n.Content(source))
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			visit(n.Child(i))
		}
	}
	visit(node)
	return out
}

func firstStringLiteral(node *sitter.Node, source []byte) string {
	var found string
	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		if found != "" {
			return
		}
		t := n.Type()
		if t == "string" || t == "interpreted_string_literal" || t == "string_literal" {
			text := n.Content(source)
			found = trimQuotes(text)
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			visit(n.Child(i))
		}
	}
	visit(node)
	return found
}

func trimQuotes(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') || (first == '`' && last == '`') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

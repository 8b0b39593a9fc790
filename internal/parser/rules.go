package parser

import "github.com/sevigo/argus/internal/codemap"

// declRule maps one tree-sitter node type to the symbol kind it declares,
// the field holding its name, and whether it opens a new qualifying scope
// (methods nested under it get "Outer.Inner" qualified names).
type declRule struct {
	kind      codemap.SymbolKind
	nameField string
	container bool
}

// langRules is the per-language declarative grammar: which node types are
// declarations, which are import statements, which are calls, and which
// field (on a container declaration) names a base type for an extends/
// implements edge. Node type names follow each grammar's published tree-
// sitter node-types.json; languages sharing a family (C/C++, JS/TS) share
// most entries.
type langRules struct {
	decls        map[string]declRule
	bodyField    string // field name holding a declaration's nested body
	imports      []string
	stringField  string // field/child type used to pull an import's module text
	calls        []string
	calleeIndex  int // child index of the callee within a call node (0 unless noted)
	extendsField string
	implementsField string
}

var defaultNameField = "name"

func rulesFor(lang Language) langRules {
	switch lang {
	case LanguageGo:
		return langRules{
			decls: map[string]declRule{
				"function_declaration": {codemap.SymbolFunction, "name", false},
				"method_declaration":   {codemap.SymbolMethod, "name", false},
				"type_spec":            {codemap.SymbolType, "name", true},
			},
			bodyField: "body",
			imports:   []string{"import_spec"},
			calls:     []string{"call_expression"},
		}
	case LanguagePython:
		return langRules{
			decls: map[string]declRule{
				"function_definition": {codemap.SymbolFunction, "name", true},
				"class_definition":    {codemap.SymbolClass, "name", true},
			},
			bodyField:    "body",
			imports:      []string{"import_statement", "import_from_statement"},
			calls:        []string{"call"},
			extendsField: "superclasses",
		}
	case LanguageJavaScript, LanguageTypeScript:
		return langRules{
			decls: map[string]declRule{
				"function_declaration":  {codemap.SymbolFunction, "name", true},
				"class_declaration":     {codemap.SymbolClass, "name", true},
				"method_definition":     {codemap.SymbolMethod, "name", false},
				"interface_declaration": {codemap.SymbolInterface, "name", true},
				"type_alias_declaration": {codemap.SymbolType, "name", false},
				"enum_declaration":      {codemap.SymbolEnum, "name", false},
			},
			bodyField:    "body",
			imports:      []string{"import_statement"},
			calls:        []string{"call_expression"},
			extendsField: "class_heritage",
		}
	case LanguageJava:
		return langRules{
			decls: map[string]declRule{
				"class_declaration":       {codemap.SymbolClass, "name", true},
				"interface_declaration":   {codemap.SymbolInterface, "name", true},
				"method_declaration":      {codemap.SymbolMethod, "name", false},
				"constructor_declaration": {codemap.SymbolMethod, "name", false},
				"enum_declaration":        {codemap.SymbolEnum, "name", true},
			},
			bodyField:       "body",
			imports:         []string{"import_declaration"},
			calls:           []string{"method_invocation"},
			extendsField:    "superclass",
			implementsField: "interfaces",
		}
	case LanguageC:
		return langRules{
			decls: map[string]declRule{
				"function_definition": {codemap.SymbolFunction, "declarator", false},
				"struct_specifier":    {codemap.SymbolStruct, "name", false},
				"enum_specifier":      {codemap.SymbolEnum, "name", false},
				"type_definition":     {codemap.SymbolType, "declarator", false},
			},
			bodyField: "body",
			imports:   []string{"preproc_include"},
			calls:     []string{"call_expression"},
		}
	case LanguageCPP:
		return langRules{
			decls: map[string]declRule{
				"function_definition": {codemap.SymbolFunction, "declarator", false},
				"class_specifier":     {codemap.SymbolClass, "name", true},
				"struct_specifier":    {codemap.SymbolStruct, "name", true},
				"enum_specifier":      {codemap.SymbolEnum, "name", false},
			},
			bodyField:    "body",
			imports:      []string{"preproc_include"},
			calls:        []string{"call_expression"},
			extendsField: "base_class_clause",
		}
	case LanguageRust:
		return langRules{
			decls: map[string]declRule{
				"function_item": {codemap.SymbolFunction, "name", false},
				"struct_item":   {codemap.SymbolStruct, "name", false},
				"enum_item":     {codemap.SymbolEnum, "name", false},
				"trait_item":    {codemap.SymbolInterface, "name", true},
				"type_item":     {codemap.SymbolType, "name", false},
				"const_item":    {codemap.SymbolConstant, "name", false},
			},
			bodyField:       "body",
			imports:         []string{"use_declaration"},
			calls:           []string{"call_expression"},
			implementsField: "trait",
		}
	case LanguageRuby:
		return langRules{
			decls: map[string]declRule{
				"method": {codemap.SymbolMethod, "name", false},
				"class":  {codemap.SymbolClass, "name", true},
				"module": {codemap.SymbolType, "name", true},
			},
			bodyField:    "body",
			calls:        []string{"call", "method_call"},
			extendsField: "superclass",
		}
	case LanguagePHP:
		return langRules{
			decls: map[string]declRule{
				"function_definition":  {codemap.SymbolFunction, "name", false},
				"method_declaration":   {codemap.SymbolMethod, "name", false},
				"class_declaration":    {codemap.SymbolClass, "name", true},
				"interface_declaration": {codemap.SymbolInterface, "name", true},
			},
			bodyField:       "body",
			imports:         []string{"namespace_use_declaration"},
			calls:           []string{"function_call_expression", "member_call_expression"},
			extendsField:    "base_clause",
			implementsField: "class_interface_clause",
		}
	case LanguageCSharp:
		return langRules{
			decls: map[string]declRule{
				"class_declaration":     {codemap.SymbolClass, "name", true},
				"interface_declaration": {codemap.SymbolInterface, "name", true},
				"struct_declaration":    {codemap.SymbolStruct, "name", true},
				"enum_declaration":      {codemap.SymbolEnum, "name", false},
				"method_declaration":    {codemap.SymbolMethod, "name", false},
			},
			bodyField:    "body",
			imports:      []string{"using_directive"},
			calls:        []string{"invocation_expression"},
			extendsField: "base_list",
		}
	default:
		return langRules{}
	}
}

package parser

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/csharp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/php"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/ruby"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

func grammarFor(lang Language) *sitter.Language {
	switch lang {
	case LanguageGo:
		return golang.GetLanguage()
	case LanguagePython:
		return python.GetLanguage()
	case LanguageJavaScript:
		return javascript.GetLanguage()
	case LanguageTypeScript:
		return typescript.GetLanguage()
	case LanguageJava:
		return java.GetLanguage()
	case LanguageC:
		return c.GetLanguage()
	case LanguageCPP:
		return cpp.GetLanguage()
	case LanguageRust:
		return rust.GetLanguage()
	case LanguageRuby:
		return ruby.GetLanguage()
	case LanguagePHP:
		return php.GetLanguage()
	case LanguageCSharp:
		return csharp.GetLanguage()
	default:
		return nil
	}
}

// Package lang provides a language registry mapping file extensions to
// tree-sitter grammars and the hooks that translate each grammar into the
// shared definition/call model.
package lang

import (
	"regexp"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/callmap/internal/model"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// Language holds tree-sitter configuration for a supported language.
type Language struct {
	Name       model.Language
	Extensions []string
	lang       *sitter.Language

	// DefinitionTypes and CallTypes are the node types handed to Definition
	// and Call respectively.
	DefinitionTypes map[string]struct{}
	CallTypes       map[string]struct{}

	// Definition maps a declaration node to a Definition. File and ID are
	// filled in by the caller. Returns false for anonymous declarations.
	Definition func(node *sitter.Node, source []byte) (model.Definition, bool)

	// Call maps a call node to a CallSite. File and the enclosing definition
	// are filled in by the caller. Returns false for dynamic callees.
	Call func(node *sitter.Node, source []byte) (model.CallSite, bool)
}

// GetLanguage returns the tree-sitter Language pointer.
func (l *Language) GetLanguage() *sitter.Language {
	return l.lang
}

// NewParser creates a fresh tree-sitter parser for this language.
// Each goroutine must use its own parser (not thread-safe).
func (l *Language) NewParser() *sitter.Parser {
	p := sitter.NewParser()
	p.SetLanguage(l.lang)
	return p
}

// IsDefinition reports whether nodeType declares a function.
func (l *Language) IsDefinition(nodeType string) bool {
	_, ok := l.DefinitionTypes[nodeType]
	return ok
}

// IsCall reports whether nodeType is a call expression.
func (l *Language) IsCall(nodeType string) bool {
	_, ok := l.CallTypes[nodeType]
	return ok
}

// Languages maps language tags to their configuration.
// Populated by init() functions in per-language files.
var Languages = map[model.Language]*Language{}

// extensionMap is built lazily after all init() functions have run.
var extensionMap map[string]model.Language
var extensionOnce sync.Once

func getExtensionMap() map[string]model.Language {
	extensionOnce.Do(func() {
		extensionMap = make(map[string]model.Language)
		for _, l := range Languages {
			for _, ext := range l.Extensions {
				extensionMap[ext] = l.Name
			}
		}
	})
	return extensionMap
}

// ForExtension returns the language for a file extension, or "" if unsupported.
func ForExtension(ext string) model.Language {
	return getExtensionMap()[strings.ToLower(ext)]
}

// NodeText returns the source text of a tree-sitter node.
func NodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	start, end := node.StartByte(), node.EndByte()
	if start > end || int(end) > len(source) {
		return ""
	}
	return string(source[start:end])
}

// CollapseWhitespace replaces runs of whitespace with a single space and trims.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// Line returns the 1-based start line of node.
func Line(node *sitter.Node) int {
	return int(node.StartPoint().Row) + 1
}

func namedChildren(node *sitter.Node) []*sitter.Node {
	if node == nil {
		return nil
	}
	n := int(node.NamedChildCount())
	out := make([]*sitter.Node, 0, n)
	for i := 0; i < n; i++ {
		child := node.NamedChild(i)
		if child.Type() == "comment" {
			continue
		}
		out = append(out, child)
	}
	return out
}

// lastSegment returns the final identifier of a qualified or dotted name.
func lastSegment(s string, seps string) string {
	if i := strings.LastIndexAny(s, seps); i >= 0 {
		return s[i+1:]
	}
	return s
}

// Package parse walks tree-sitter syntax trees and extracts function
// definitions and call sites into the shared model.
package parse

import (
	"context"
	"fmt"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/callmap/internal/lang"
	"github.com/phobologic/callmap/internal/model"
)

// ParseError reports a file that could not be parsed. The file contributes
// nothing to the analysis.
type ParseError struct {
	Path   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

// Result holds everything extracted from one file, in source order.
type Result struct {
	Definitions []model.Definition
	Calls       []model.CallSite
}

type scope struct {
	name string
	line int
}

// Extract parses file with parser, which must be configured for l.
// Definitions come back with ID unset; the registry assigns it.
func Extract(ctx context.Context, l *lang.Language, parser *sitter.Parser, file model.SourceFile) (Result, error) {
	if !utf8.Valid(file.Content) {
		return Result{}, &ParseError{Path: file.Path, Reason: "invalid UTF-8"}
	}
	if len(file.Content) == 0 {
		return Result{}, nil
	}

	tree, err := parser.ParseCtx(ctx, nil, file.Content)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, ctxErr
		}
		return Result{}, &ParseError{Path: file.Path, Reason: err.Error()}
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return Result{}, &ParseError{Path: file.Path, Reason: syntaxErrorReason(root)}
	}

	var res Result
	walk(l, root, file, scope{}, &res)
	return res, nil
}

// walk visits nodes in preorder so definitions and calls keep source order.
// Nested definitions are flattened; enclosing tracks the innermost one.
func walk(l *lang.Language, node *sitter.Node, file model.SourceFile, enclosing scope, res *Result) {
	typ := node.Type()

	if l.IsDefinition(typ) {
		if def, ok := l.Definition(node, file.Content); ok {
			def.File = file.Path
			def.ID = model.NoDef
			res.Definitions = append(res.Definitions, def)
			enclosing = scope{name: def.Name, line: def.Line}
		}
	} else if l.IsCall(typ) {
		if call, ok := l.Call(node, file.Content); ok {
			call.File = file.Path
			call.Enclosing = enclosing.name
			call.EnclosingLine = enclosing.line
			res.Calls = append(res.Calls, call)
		}
	}

	for i := 0; i < int(node.NamedChildCount()); i++ {
		walk(l, node.NamedChild(i), file, enclosing, res)
	}
}

func syntaxErrorReason(root *sitter.Node) string {
	if n := firstError(root); n != nil {
		return fmt.Sprintf("syntax error at line %d", lang.Line(n))
	}
	return "syntax error"
}

func firstError(node *sitter.Node) *sitter.Node {
	if node.Type() == "ERROR" || node.IsMissing() {
		return node
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.HasError() || child.IsMissing() {
			if n := firstError(child); n != nil {
				return n
			}
		}
	}
	return nil
}

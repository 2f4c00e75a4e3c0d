package lang

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/php"

	"github.com/phobologic/callmap/internal/model"
)

func init() {
	Languages[model.PHP] = &Language{
		Name:       model.PHP,
		Extensions: []string{".php"},
		lang:       php.GetLanguage(),
		DefinitionTypes: map[string]struct{}{
			"function_definition": {},
			"method_declaration":  {},
		},
		CallTypes: map[string]struct{}{
			"function_call_expression":        {},
			"member_call_expression":          {},
			"nullsafe_member_call_expression": {},
			"scoped_call_expression":          {},
		},
		Definition: phpDefinition,
		Call:       phpCall,
	}
}

var phpLiteralTypes = map[string]struct{}{
	"integer":         {},
	"float":           {},
	"string":          {},
	"encapsed_string": {},
	"boolean":         {},
	"null":            {},
	"heredoc":         {},
	"nowdoc":          {},
}

var phpClassTypes = map[string]struct{}{
	"class_declaration":     {},
	"trait_declaration":     {},
	"interface_declaration": {},
	"enum_declaration":      {},
}

func phpDefinition(node *sitter.Node, source []byte) (model.Definition, bool) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return model.Definition{}, false
	}
	return model.Definition{
		Name:      NodeText(nameNode, source),
		Line:      Line(node),
		Params:    phpParameters(node.ChildByFieldName("parameters"), source),
		Signature: phpSignature(node, source),
		Language:  model.PHP,
		Class:     phpEnclosingClass(node, source),
	}, true
}

// phpParameters maps formal_parameters. PHP calls are checked positionally,
// so every non-variadic parameter is Positional.
func phpParameters(params *sitter.Node, source []byte) []model.Parameter {
	var out []model.Parameter
	for _, child := range namedChildren(params) {
		switch child.Type() {
		case "simple_parameter", "property_promotion_parameter":
			value := child.ChildByFieldName("default_value")
			p := model.Parameter{
				Name: phpVarName(NodeText(child.ChildByFieldName("name"), source)),
				Kind: model.Positional,
				Type: NodeText(child.ChildByFieldName("type"), source),
			}
			if value != nil {
				p.HasDefault = true
				p.Default = CollapseWhitespace(NodeText(value, source))
				p.DefaultKnown = isLiteral(value, phpLiteralTypes)
			}
			out = append(out, p)
		case "variadic_parameter":
			out = append(out, model.Parameter{
				Name: phpVarName(NodeText(child.ChildByFieldName("name"), source)),
				Kind: model.VariadicPositional,
				Type: NodeText(child.ChildByFieldName("type"), source),
			})
		}
	}
	return out
}

func phpCall(node *sitter.Node, source []byte) (model.CallSite, bool) {
	call := model.CallSite{Line: Line(node), Language: model.PHP}

	switch node.Type() {
	case "function_call_expression":
		fn := node.ChildByFieldName("function")
		if fn == nil {
			return model.CallSite{}, false
		}
		switch fn.Type() {
		case "name":
			call.Callee = NodeText(fn, source)
		case "qualified_name":
			call.Callee = lastSegment(NodeText(fn, source), `\`)
		default:
			// $fn(), $$name(), closures: dynamic dispatch is not resolved.
			return model.CallSite{}, false
		}
	default:
		name := node.ChildByFieldName("name")
		if name == nil || name.Type() != "name" {
			return model.CallSite{}, false
		}
		call.Callee = NodeText(name, source)
		receiver := node.ChildByFieldName("object")
		if receiver == nil {
			receiver = node.ChildByFieldName("scope")
		}
		call.Receiver = CollapseWhitespace(NodeText(receiver, source))
	}

	if call.Callee == "" {
		return model.CallSite{}, false
	}
	args := node.ChildByFieldName("arguments")
	call.Reference = isCallableReference(args)
	call.Args = phpArguments(args, source)
	return call, true
}

// isCallableReference reports whether args is the (...) of a first-class
// callable, which creates a closure and invokes nothing.
func isCallableReference(args *sitter.Node) bool {
	for _, child := range namedChildren(args) {
		if child.Type() == "variadic_placeholder" {
			return true
		}
	}
	return false
}

func phpArguments(args *sitter.Node, source []byte) []model.Argument {
	var out []model.Argument
	for _, child := range namedChildren(args) {
		text := CollapseWhitespace(NodeText(child, source))
		switch {
		case child.Type() == "variadic_placeholder":
			continue
		case child.Type() == "variadic_unpacking" || strings.HasPrefix(text, "..."):
			out = append(out, model.Argument{Kind: model.ArgPositionalSplat, Text: text})
		default:
			out = append(out, model.Argument{Kind: model.ArgPositional, Text: text})
		}
	}
	return out
}

func phpEnclosingClass(node *sitter.Node, source []byte) string {
	for current := node.Parent(); current != nil; current = current.Parent() {
		if _, ok := phpClassTypes[current.Type()]; ok {
			return NodeText(current.ChildByFieldName("name"), source)
		}
		if current.Type() == "function_definition" || current.Type() == "method_declaration" {
			return ""
		}
	}
	return ""
}

func phpSignature(node *sitter.Node, source []byte) string {
	sig := NodeText(node.ChildByFieldName("name"), source) +
		CollapseWhitespace(NodeText(node.ChildByFieldName("parameters"), source))
	if returnType := node.ChildByFieldName("return_type"); returnType != nil {
		sig += ": " + CollapseWhitespace(NodeText(returnType, source))
	}
	return sig
}

func phpVarName(s string) string {
	return strings.TrimLeft(s, "&$")
}

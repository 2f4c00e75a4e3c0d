package lang

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/phobologic/callmap/internal/model"
)

func init() {
	Languages[model.Python] = &Language{
		Name:            model.Python,
		Extensions:      []string{".py"},
		lang:            python.GetLanguage(),
		DefinitionTypes: map[string]struct{}{"function_definition": {}},
		CallTypes:       map[string]struct{}{"call": {}},
		Definition:      pythonDefinition,
		Call:            pythonCall,
	}
}

var pythonLiteralTypes = map[string]struct{}{
	"integer":             {},
	"float":               {},
	"string":              {},
	"concatenated_string": {},
	"true":                {},
	"false":               {},
	"none":                {},
}

func pythonDefinition(node *sitter.Node, source []byte) (model.Definition, bool) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return model.Definition{}, false
	}

	params := pythonParameters(node.ChildByFieldName("parameters"), source)
	def := model.Definition{
		Name:      NodeText(nameNode, source),
		Line:      Line(node),
		Params:    params,
		Signature: pythonSignature(node, source),
		Language:  model.Python,
		Class:     pythonFindMethodClass(node, source),
	}

	// Instance and class methods bind their first parameter implicitly.
	if def.Class != "" && !pythonIsStaticMethod(node, source) &&
		len(params) > 0 && params[0].Kind.AcceptsPositional() {
		def.Receiver = params[0].Name
		def.Params = params[1:]
	}
	return def, true
}

func pythonParameters(params *sitter.Node, source []byte) []model.Parameter {
	if params == nil {
		return nil
	}

	var out []model.Parameter
	keywordOnly := false
	plainKind := func() model.ParamKind {
		if keywordOnly {
			return model.KeywordOnly
		}
		return model.KeywordOrPositional
	}

	for i := 0; i < int(params.ChildCount()); i++ {
		child := params.Child(i)
		switch child.Type() {
		case "positional_separator", "/":
			for j := range out {
				if out[j].Kind == model.KeywordOrPositional {
					out[j].Kind = model.Positional
				}
			}
		case "keyword_separator", "*":
			keywordOnly = true
		case "identifier":
			out = append(out, model.Parameter{Name: NodeText(child, source), Kind: plainKind()})
		case "list_splat_pattern":
			out = append(out, pythonSplatParam(child, nil, source))
			keywordOnly = true
		case "dictionary_splat_pattern":
			out = append(out, pythonSplatParam(child, nil, source))
		case "typed_parameter":
			inner := child.NamedChild(0)
			typ := child.ChildByFieldName("type")
			if inner == nil {
				continue
			}
			switch inner.Type() {
			case "list_splat_pattern":
				out = append(out, pythonSplatParam(inner, typ, source))
				keywordOnly = true
			case "dictionary_splat_pattern":
				out = append(out, pythonSplatParam(inner, typ, source))
			default:
				out = append(out, model.Parameter{
					Name: NodeText(inner, source),
					Kind: plainKind(),
					Type: NodeText(typ, source),
				})
			}
		case "default_parameter", "typed_default_parameter":
			value := child.ChildByFieldName("value")
			out = append(out, model.Parameter{
				Name:         NodeText(child.ChildByFieldName("name"), source),
				Kind:         plainKind(),
				HasDefault:   true,
				Default:      CollapseWhitespace(NodeText(value, source)),
				DefaultKnown: isLiteral(value, pythonLiteralTypes),
				Type:         NodeText(child.ChildByFieldName("type"), source),
			})
		}
	}
	return out
}

func pythonSplatParam(node, typ *sitter.Node, source []byte) model.Parameter {
	kind := model.VariadicPositional
	if node.Type() == "dictionary_splat_pattern" {
		kind = model.VariadicKeyword
	}
	return model.Parameter{
		Name: strings.TrimLeft(NodeText(node, source), "*"),
		Kind: kind,
		Type: NodeText(typ, source),
	}
}

func pythonCall(node *sitter.Node, source []byte) (model.CallSite, bool) {
	fn := node.ChildByFieldName("function")
	if fn == nil {
		return model.CallSite{}, false
	}

	call := model.CallSite{Line: Line(node), Language: model.Python}
	switch fn.Type() {
	case "identifier":
		call.Callee = NodeText(fn, source)
	case "attribute":
		attr := fn.ChildByFieldName("attribute")
		if attr == nil {
			return model.CallSite{}, false
		}
		call.Callee = NodeText(attr, source)
		call.Receiver = CollapseWhitespace(NodeText(fn.ChildByFieldName("object"), source))
	default:
		return model.CallSite{}, false
	}

	call.Args = pythonArguments(node.ChildByFieldName("arguments"), source)
	return call, true
}

func pythonArguments(args *sitter.Node, source []byte) []model.Argument {
	if args == nil {
		return nil
	}
	if args.Type() == "generator_expression" {
		return []model.Argument{{Kind: model.ArgPositional, Text: CollapseWhitespace(NodeText(args, source))}}
	}

	var out []model.Argument
	for _, child := range namedChildren(args) {
		text := CollapseWhitespace(NodeText(child, source))
		switch child.Type() {
		case "keyword_argument":
			out = append(out, model.Argument{
				Kind: model.ArgKeyword,
				Name: NodeText(child.ChildByFieldName("name"), source),
				Text: CollapseWhitespace(NodeText(child.ChildByFieldName("value"), source)),
			})
		case "list_splat":
			out = append(out, model.Argument{Kind: model.ArgPositionalSplat, Text: text})
		case "dictionary_splat":
			out = append(out, model.Argument{Kind: model.ArgKeywordSplat, Text: text})
		default:
			out = append(out, model.Argument{Kind: model.ArgPositional, Text: text})
		}
	}
	return out
}

func pythonFindMethodClass(funcNode *sitter.Node, source []byte) string {
	classNode := pythonFindEnclosingClass(funcNode)
	if classNode == nil {
		return ""
	}
	return NodeText(classNode.ChildByFieldName("name"), source)
}

func pythonFindEnclosingClass(funcNode *sitter.Node) *sitter.Node {
	parent := funcNode.Parent()
	if parent == nil {
		return nil
	}

	// Direct: func -> block -> class_definition
	if parent.Type() == "block" && parent.Parent() != nil && parent.Parent().Type() == "class_definition" {
		return parent.Parent()
	}

	// Decorated: func -> decorated_definition -> block -> class_definition
	if parent.Type() == "decorated_definition" {
		gp := parent.Parent()
		if gp != nil && gp.Type() == "block" && gp.Parent() != nil && gp.Parent().Type() == "class_definition" {
			return gp.Parent()
		}
	}

	return nil
}

func pythonIsStaticMethod(funcNode *sitter.Node, source []byte) bool {
	parent := funcNode.Parent()
	if parent == nil || parent.Type() != "decorated_definition" {
		return false
	}
	for _, child := range namedChildren(parent) {
		if child.Type() != "decorator" {
			continue
		}
		name := strings.TrimSpace(strings.TrimPrefix(NodeText(child, source), "@"))
		if name == "staticmethod" || strings.HasSuffix(name, ".staticmethod") {
			return true
		}
	}
	return false
}

func pythonSignature(node *sitter.Node, source []byte) string {
	sig := NodeText(node.ChildByFieldName("name"), source) +
		CollapseWhitespace(NodeText(node.ChildByFieldName("parameters"), source))
	if returnType := node.ChildByFieldName("return_type"); returnType != nil {
		sig += " -> " + NodeText(returnType, source)
	}
	return sig
}

// isLiteral reports whether node is a static literal, allowing a unary minus.
func isLiteral(node *sitter.Node, literalTypes map[string]struct{}) bool {
	if node == nil {
		return false
	}
	if _, ok := literalTypes[node.Type()]; ok {
		return true
	}
	if (node.Type() == "unary_operator" || node.Type() == "unary_op_expression") && node.NamedChildCount() > 0 {
		if operand := node.NamedChild(int(node.NamedChildCount()) - 1); operand != nil {
			switch operand.Type() {
			case "integer", "float":
				return true
			}
		}
	}
	return false
}

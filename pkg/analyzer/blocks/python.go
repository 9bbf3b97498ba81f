package blocks

import (
	"bytes"
	"context"
	"fmt"

	"github.com/panbanda/reach/pkg/models"
	"github.com/panbanda/reach/pkg/parser"
	sitter "github.com/smacker/go-tree-sitter"
)

// scanIndented reads function spans from the Python syntax tree. A tree that
// contains syntax errors yields no spans and a single parse warning.
func scanIndented(ctx context.Context, psr *parser.Parser, file string, content []byte) ([]models.BlockSpan, []models.Warning) {
	result, err := psr.ParseCtx(ctx, content, parser.LangPython, file)
	if err != nil {
		return nil, []models.Warning{parseWarning(file, 0, err.Error())}
	}
	defer result.Close()

	root := result.Tree.RootNode()
	if bad := parser.FirstError(root); bad != nil {
		line := int(bad.StartPoint().Row) + 1
		msg := fmt.Sprintf("invalid syntax (line %d)", line)
		if bad.IsMissing() {
			msg = fmt.Sprintf("expected %q (line %d)", bad.Type(), line)
		}
		return nil, []models.Warning{parseWarning(file, line, msg)}
	}
	if line, msg, bad := invalidStatement(root); bad {
		return nil, []models.Warning{parseWarning(file, line, msg)}
	}

	var spans []models.BlockSpan
	for _, fn := range parser.FindNodesByType(root, result.Source, "function_definition") {
		start := int(fn.StartPoint().Row) + 1
		spans = append(spans, models.BlockSpan{
			File:      file,
			Name:      parser.GetNodeText(fn.ChildByFieldName("name"), result.Source),
			StartLine: start,
			EndLine:   lastLine(result.Source, fn),
			Params:    pythonParams(fn.ChildByFieldName("parameters"), result.Source),
		})
	}
	return spans, nil
}

// invalidStatement finds constructs the grammar recovers from without an
// error node but the Python 3 compiler rejects: a definition with no indented
// body, and the Python 2 print and exec statements.
func invalidStatement(root *sitter.Node) (line int, msg string, bad bool) {
	parser.Walk(root, nil, func(node *sitter.Node, _ []byte) bool {
		if bad {
			return false
		}
		row := int(node.StartPoint().Row) + 1
		switch node.Type() {
		case "function_definition", "class_definition":
			if !indentedBody(node) {
				kind := "function"
				if node.Type() == "class_definition" {
					kind = "class"
				}
				line, msg, bad = row, fmt.Sprintf("expected an indented block after %s definition on line %d", kind, row), true
			}
		case "print_statement":
			if !parenthesizedPrint(node) {
				line, msg, bad = row, fmt.Sprintf("Missing parentheses in call to 'print' (line %d)", row), true
			}
		case "exec_statement":
			line, msg, bad = row, fmt.Sprintf("Missing parentheses in call to 'exec' (line %d)", row), true
		}
		return !bad
	})
	return line, msg, bad
}

// indentedBody reports whether def has a statement in its body that is
// either on the header line or indented past it. Comments do not count.
func indentedBody(def *sitter.Node) bool {
	body := def.ChildByFieldName("body")
	if body == nil {
		return false
	}
	for i := range int(body.NamedChildCount()) {
		stmt := body.NamedChild(i)
		if stmt.Type() == "comment" {
			continue
		}
		if stmt.StartPoint().Row == def.StartPoint().Row {
			return true
		}
		return stmt.StartPoint().Column > def.StartPoint().Column
	}
	return false
}

// parenthesizedPrint accepts print("x") and print("a", "b"), which are valid
// calls even when the grammar reads them as a statement.
func parenthesizedPrint(node *sitter.Node) bool {
	if node.NamedChildCount() != 1 {
		return false
	}
	switch node.NamedChild(0).Type() {
	case "parenthesized_expression", "tuple", "generator_expression":
		return true
	}
	return false
}

// lastLine returns the 1-based line of the last non-blank byte of node.
func lastLine(source []byte, node *sitter.Node) int {
	body := bytes.TrimRight(source[node.StartByte():node.EndByte()], " \t\r\n")
	return bytes.Count(source[:int(node.StartByte())+len(body)], []byte("\n")) + 1
}

func parseWarning(file string, line int, msg string) models.Warning {
	return models.Warnf(models.WarnParse, file, line, "Python AST parse failed for %s: %s", file, msg)
}

// pythonParams lists parameter names in declaration order. Variadic
// parameters keep their star prefix.
func pythonParams(params *sitter.Node, source []byte) []string {
	if params == nil {
		return nil
	}
	var names []string
	for i := range int(params.NamedChildCount()) {
		child := params.NamedChild(i)
		if name := paramName(child, source); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func paramName(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	switch node.Type() {
	case "identifier":
		return parser.GetNodeText(node, source)
	case "default_parameter", "typed_default_parameter":
		return paramName(node.ChildByFieldName("name"), source)
	case "typed_parameter":
		if node.NamedChildCount() == 0 {
			return ""
		}
		return paramName(node.NamedChild(0), source)
	case "list_splat_pattern":
		return "*" + firstIdentifier(node, source)
	case "dictionary_splat_pattern":
		return "**" + firstIdentifier(node, source)
	}
	return ""
}

func firstIdentifier(node *sitter.Node, source []byte) string {
	for i := range int(node.NamedChildCount()) {
		if child := node.NamedChild(i); child.Type() == "identifier" {
			return parser.GetNodeText(child, source)
		}
	}
	return ""
}

// Package parser wraps tree-sitter and maps file paths to languages and
// language families.
package parser

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/panbanda/reach/pkg/models"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// Language represents a supported programming language.
type Language string

const (
	LangPython     Language = "python"
	LangTypeScript Language = "typescript"
	LangJavaScript Language = "javascript"
	LangTSX        Language = "tsx"
	LangJSON       Language = "json"
	LangUnknown    Language = "unknown"
)

func (l Language) String() string { return string(l) }

// Family returns the block-structure family of the language.
func (l Language) Family() models.Family {
	switch l {
	case LangPython:
		return models.FamilyIndented
	case LangTypeScript, LangJavaScript, LangTSX:
		return models.FamilyCurly
	default:
		return models.FamilyUnknown
	}
}

// Parser wraps tree-sitter for syntax-tree parsing.
// A Parser is not safe for concurrent use; give each worker its own.
type Parser struct {
	parser *sitter.Parser
}

// ParseResult contains the parsed AST and metadata.
type ParseResult struct {
	Tree     *sitter.Tree
	Language Language
	Source   []byte
	Path     string
}

// Close releases the syntax tree.
func (r *ParseResult) Close() {
	if r.Tree != nil {
		r.Tree.Close()
	}
}

// New creates a new parser instance.
func New() *Parser {
	return &Parser{
		parser: sitter.NewParser(),
	}
}

// Parse parses source code with a specified language.
func (p *Parser) Parse(source []byte, lang Language, path string) (*ParseResult, error) {
	return p.ParseCtx(context.Background(), source, lang, path)
}

// ParseCtx parses source code, honouring cancellation of ctx.
func (p *Parser) ParseCtx(ctx context.Context, source []byte, lang Language, path string) (*ParseResult, error) {
	tsLang, err := GetTreeSitterLanguage(lang)
	if err != nil {
		return nil, err
	}

	p.parser.SetLanguage(tsLang)
	tree, err := p.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse: %w", err)
	}

	return &ParseResult{
		Tree:     tree,
		Language: lang,
		Source:   source,
		Path:     path,
	}, nil
}

// GetTreeSitterLanguage returns the tree-sitter grammar for lang. Only
// Python is parsed into a syntax tree; the curly-brace languages are
// detected by extension and scanned lexically.
func GetTreeSitterLanguage(lang Language) (*sitter.Language, error) {
	if lang == LangPython {
		return python.GetLanguage(), nil
	}
	return nil, fmt.Errorf("unsupported language: %s", lang)
}

// DetectLanguage determines the language from a file path.
func DetectLanguage(path string) Language {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".py", ".pyw", ".pyi":
		return LangPython
	case ".ts", ".mts", ".cts":
		return LangTypeScript
	case ".tsx":
		return LangTSX
	case ".js", ".mjs", ".cjs":
		return LangJavaScript
	case ".jsx":
		return LangTSX
	case ".json":
		return LangJSON
	default:
		return LangUnknown
	}
}

// DetectFamily is shorthand for DetectLanguage(path).Family().
func DetectFamily(path string) models.Family {
	return DetectLanguage(path).Family()
}

// Close releases parser resources.
func (p *Parser) Close() {
	p.parser.Close()
}

// NodeVisitor is a function that visits AST nodes.
type NodeVisitor func(node *sitter.Node, source []byte) bool

// Walk traverses the AST calling visitor for each node.
func Walk(node *sitter.Node, source []byte, visitor NodeVisitor) {
	if node == nil {
		return
	}

	if !visitor(node, source) {
		return
	}

	for i := range int(node.ChildCount()) {
		Walk(node.Child(i), source, visitor)
	}
}

// FindNodes returns all nodes matching a predicate.
func FindNodes(root *sitter.Node, source []byte, predicate func(*sitter.Node) bool) []*sitter.Node {
	var results []*sitter.Node
	Walk(root, source, func(node *sitter.Node, source []byte) bool {
		if predicate(node) {
			results = append(results, node)
		}
		return true
	})
	return results
}

// FindNodesByType returns all nodes of a specific type.
func FindNodesByType(root *sitter.Node, source []byte, nodeType string) []*sitter.Node {
	return FindNodes(root, source, func(n *sitter.Node) bool {
		return n.Type() == nodeType
	})
}

// FirstError returns the first ERROR or MISSING node in document order,
// or nil when the tree parsed cleanly.
func FirstError(root *sitter.Node) *sitter.Node {
	if root == nil || !root.HasError() {
		return nil
	}
	var found *sitter.Node
	Walk(root, nil, func(node *sitter.Node, _ []byte) bool {
		if found != nil {
			return false
		}
		if node.IsError() || node.IsMissing() {
			found = node
			return false
		}
		return node.HasError()
	})
	return found
}

// GetNodeText extracts the source text for a node.
// Returns empty string if node is nil or byte offsets are out of bounds.
func GetNodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	start := node.StartByte()
	end := node.EndByte()
	if start > end || end > uint32(len(source)) {
		return ""
	}
	return string(source[start:end])
}

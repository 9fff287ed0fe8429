package index

import (
	"unicode"
	"unicode/utf8"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// goExtractor extracts symbols from Go source files.
type goExtractor struct{}

func (e *goExtractor) Extract(root *tree_sitter.Node, source []byte, filePath string) []Symbol {
	var symbols []Symbol

	cursor := root.Walk()
	defer cursor.Close()

	e.walk(cursor, source, filePath, &symbols)
	return symbols
}

func (e *goExtractor) walk(cursor *tree_sitter.TreeCursor, source []byte, filePath string, symbols *[]Symbol) {
	node := cursor.Node()

	switch node.Kind() {
	case "function_declaration":
		if sym := e.extractNamed(node, source, filePath, SymbolKindFunction); sym != nil {
			*symbols = append(*symbols, *sym)
		}

	case "method_declaration":
		if sym := e.extractNamed(node, source, filePath, SymbolKindMethod); sym != nil {
			*symbols = append(*symbols, *sym)
		}

	case "type_declaration":
		extracted := e.extractTypeDeclaration(node, source, filePath)
		*symbols = append(*symbols, extracted...)

	case "const_declaration":
		extracted := e.extractConstDeclaration(node, source, filePath)
		*symbols = append(*symbols, extracted...)
	}

	if cursor.GotoFirstChild() {
		e.walk(cursor, source, filePath, symbols)
		for cursor.GotoNextSibling() {
			e.walk(cursor, source, filePath, symbols)
		}
		cursor.GotoParent()
	}
}

func (e *goExtractor) extractNamed(node *tree_sitter.Node, source []byte, filePath string, kind SymbolKind) *Symbol {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := nameNode.Utf8Text(source)
	sym := symbolAt(node, name, kind, isGoExported(name), filePath)
	return &sym
}

// extractTypeDeclaration emits one symbol per type_spec. Struct types map to
// type, interface types to interface.
func (e *goExtractor) extractTypeDeclaration(node *tree_sitter.Node, source []byte, filePath string) []Symbol {
	var result []Symbol
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil || child.Kind() != "type_spec" {
			continue
		}
		nameNode := child.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		kind := SymbolKindType
		if typeNode := child.ChildByFieldName("type"); typeNode != nil && typeNode.Kind() == "interface_type" {
			kind = SymbolKindInterface
		}
		name := nameNode.Utf8Text(source)
		result = append(result, symbolAt(child, name, kind, isGoExported(name), filePath))
	}
	return result
}

// extractConstDeclaration emits one symbol per const_spec name.
func (e *goExtractor) extractConstDeclaration(node *tree_sitter.Node, source []byte, filePath string) []Symbol {
	var result []Symbol
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil || child.Kind() != "const_spec" {
			continue
		}
		nameNode := child.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		name := nameNode.Utf8Text(source)
		result = append(result, symbolAt(child, name, SymbolKindConstant, isGoExported(name), filePath))
	}
	return result
}

// isGoExported reports whether the first rune of the name is upper case.
func isGoExported(name string) bool {
	if name == "" {
		return false
	}
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}

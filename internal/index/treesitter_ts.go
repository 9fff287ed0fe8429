package index

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// tsExtractor extracts symbols from TypeScript source files.
type tsExtractor struct{}

func (e *tsExtractor) Extract(root *tree_sitter.Node, source []byte, filePath string) []Symbol {
	var symbols []Symbol

	cursor := root.Walk()
	defer cursor.Close()

	e.walk(cursor, source, filePath, &symbols)
	return symbols
}

func (e *tsExtractor) walk(cursor *tree_sitter.TreeCursor, source []byte, filePath string, symbols *[]Symbol) {
	node := cursor.Node()

	switch node.Kind() {
	case "function_declaration":
		if sym := e.extractNamed(node, source, filePath, SymbolKindFunction); sym != nil {
			*symbols = append(*symbols, *sym)
		}

	case "class_declaration":
		e.extractClass(node, source, filePath, symbols)

	case "interface_declaration":
		if sym := e.extractHeader(node, source, filePath, SymbolKindInterface); sym != nil {
			*symbols = append(*symbols, *sym)
		}

	case "type_alias_declaration":
		if sym := e.extractNamed(node, source, filePath, SymbolKindType); sym != nil {
			*symbols = append(*symbols, *sym)
		}

	case "enum_declaration":
		if sym := e.extractNamed(node, source, filePath, SymbolKindEnum); sym != nil {
			*symbols = append(*symbols, *sym)
		}

	case "lexical_declaration":
		extracted := e.extractDeclarators(node, source, filePath)
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

func (e *tsExtractor) extractNamed(node *tree_sitter.Node, source []byte, filePath string, kind SymbolKind) *Symbol {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	sym := symbolAt(node, nameNode.Utf8Text(source), kind, isTSExported(node), filePath)
	return &sym
}

func (e *tsExtractor) extractHeader(node *tree_sitter.Node, source []byte, filePath string, kind SymbolKind) *Symbol {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	body := node.ChildByFieldName("body")
	sym := headerSymbolAt(node, body, nameNode.Utf8Text(source), kind, isTSExported(node), filePath)
	return &sym
}

// extractClass emits the class with a header-only span plus one method symbol
// per method_definition in its body.
func (e *tsExtractor) extractClass(node *tree_sitter.Node, source []byte, filePath string, symbols *[]Symbol) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	body := node.ChildByFieldName("body")
	exported := isTSExported(node)
	*symbols = append(*symbols, headerSymbolAt(node, body, nameNode.Utf8Text(source), SymbolKindClass, exported, filePath))

	if body == nil {
		return
	}
	for i := uint(0); i < body.ChildCount(); i++ {
		child := body.Child(i)
		if child == nil || child.Kind() != "method_definition" {
			continue
		}
		methodName := child.ChildByFieldName("name")
		if methodName == nil {
			continue
		}
		*symbols = append(*symbols, symbolAt(child, methodName.Utf8Text(source), SymbolKindMethod, exported, filePath))
	}
}

// extractDeclarators handles `const f = () => ...` (function) and top-level
// `const X = ...` (constant) declarations.
func (e *tsExtractor) extractDeclarators(node *tree_sitter.Node, source []byte, filePath string) []Symbol {
	var out []Symbol
	isConst := false
	if first := node.Child(0); first != nil && first.Kind() == "const" {
		isConst = true
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		decl := node.Child(i)
		if decl == nil || decl.Kind() != "variable_declarator" {
			continue
		}
		nameNode := decl.ChildByFieldName("name")
		if nameNode == nil || nameNode.Kind() != "identifier" {
			continue
		}
		name := nameNode.Utf8Text(source)
		value := decl.ChildByFieldName("value")

		if value != nil && (value.Kind() == "arrow_function" || value.Kind() == "function_expression") {
			out = append(out, symbolAt(decl, name, SymbolKindFunction, isTSExported(node), filePath))
			continue
		}
		if isConst && isTSTopLevel(node) {
			out = append(out, symbolAt(decl, name, SymbolKindConstant, isTSExported(node), filePath))
		}
	}
	return out
}

// isTSTopLevel reports whether a declaration sits at program scope, directly
// or under an export_statement.
func isTSTopLevel(node *tree_sitter.Node) bool {
	parent := node.Parent()
	if parent == nil {
		return false
	}
	if parent.Kind() == "program" {
		return true
	}
	if parent.Kind() == "export_statement" {
		grandparent := parent.Parent()
		return grandparent != nil && grandparent.Kind() == "program"
	}
	return false
}

// isTSExported reports whether the declaration is wrapped in an export_statement.
func isTSExported(node *tree_sitter.Node) bool {
	parent := node.Parent()
	return parent != nil && parent.Kind() == "export_statement"
}

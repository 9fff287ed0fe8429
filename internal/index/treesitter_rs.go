package index

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// rsExtractor extracts symbols from Rust source files.
type rsExtractor struct{}

func (e *rsExtractor) Extract(root *tree_sitter.Node, source []byte, filePath string) []Symbol {
	var symbols []Symbol

	cursor := root.Walk()
	defer cursor.Close()

	e.walk(cursor, source, filePath, &symbols)
	return symbols
}

func (e *rsExtractor) walk(cursor *tree_sitter.TreeCursor, source []byte, filePath string, symbols *[]Symbol) {
	node := cursor.Node()

	switch node.Kind() {
	case "function_item":
		if !isRustImplMember(node) {
			if sym := e.extractNamed(node, source, filePath, SymbolKindFunction); sym != nil {
				*symbols = append(*symbols, *sym)
			}
		}

	case "struct_item", "type_item", "union_item":
		if sym := e.extractNamed(node, source, filePath, SymbolKindType); sym != nil {
			*symbols = append(*symbols, *sym)
		}

	case "enum_item":
		if sym := e.extractNamed(node, source, filePath, SymbolKindEnum); sym != nil {
			*symbols = append(*symbols, *sym)
		}

	case "trait_item":
		// Traits contain method signatures and default methods; the trait
		// symbol spans only its header so members could be indexed without
		// overlap. Members are not currently extracted.
		if sym := e.extractHeader(node, source, filePath, SymbolKindInterface); sym != nil {
			*symbols = append(*symbols, *sym)
		}

	case "const_item", "static_item":
		if sym := e.extractNamed(node, source, filePath, SymbolKindConstant); sym != nil {
			*symbols = append(*symbols, *sym)
		}

	case "impl_item":
		e.extractImplMethods(node, source, filePath, symbols)
	}

	if cursor.GotoFirstChild() {
		e.walk(cursor, source, filePath, symbols)
		for cursor.GotoNextSibling() {
			e.walk(cursor, source, filePath, symbols)
		}
		cursor.GotoParent()
	}
}

// extractNamed extracts a symbol from a node with a "name" field child.
func (e *rsExtractor) extractNamed(node *tree_sitter.Node, source []byte, filePath string, kind SymbolKind) *Symbol {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	sym := symbolAt(node, nameNode.Utf8Text(source), kind, isRustPub(node), filePath)
	return &sym
}

func (e *rsExtractor) extractHeader(node *tree_sitter.Node, source []byte, filePath string, kind SymbolKind) *Symbol {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	body := node.ChildByFieldName("body")
	sym := headerSymbolAt(node, body, nameNode.Utf8Text(source), kind, isRustPub(node), filePath)
	return &sym
}

// extractImplMethods emits the function_items inside an impl body as methods.
// The impl block itself is not a named symbol; its methods are.
func (e *rsExtractor) extractImplMethods(node *tree_sitter.Node, source []byte, filePath string, symbols *[]Symbol) {
	body := node.ChildByFieldName("body")
	if body == nil {
		return
	}
	for i := uint(0); i < body.ChildCount(); i++ {
		child := body.Child(i)
		if child == nil || child.Kind() != "function_item" {
			continue
		}
		nameNode := child.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		*symbols = append(*symbols, symbolAt(child, nameNode.Utf8Text(source), SymbolKindMethod, isRustPub(child), filePath))
	}
}

// isRustImplMember reports whether a function_item sits in an impl or trait
// body. Impl members are emitted as methods by extractImplMethods; trait
// members are not extracted.
func isRustImplMember(node *tree_sitter.Node) bool {
	parent := node.Parent()
	if parent == nil || parent.Kind() != "declaration_list" {
		return false
	}
	grandparent := parent.Parent()
	if grandparent == nil {
		return false
	}
	return grandparent.Kind() == "impl_item" || grandparent.Kind() == "trait_item"
}

// isRustPub checks if a node has a leading visibility_modifier.
func isRustPub(node *tree_sitter.Node) bool {
	if node.ChildCount() == 0 {
		return false
	}
	first := node.Child(0)
	if first == nil {
		return false
	}
	return first.Kind() == "visibility_modifier"
}

package index

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// pyExtractor extracts symbols from Python source files.
type pyExtractor struct{}

func (e *pyExtractor) Extract(root *tree_sitter.Node, source []byte, filePath string) []Symbol {
	var symbols []Symbol

	cursor := root.Walk()
	defer cursor.Close()

	e.walk(cursor, source, filePath, &symbols)
	return symbols
}

func (e *pyExtractor) walk(cursor *tree_sitter.TreeCursor, source []byte, filePath string, symbols *[]Symbol) {
	node := cursor.Node()

	switch node.Kind() {
	case "function_definition":
		if isPyTopLevel(node) {
			if sym := e.extractNamed(node, source, filePath, SymbolKindFunction); sym != nil {
				*symbols = append(*symbols, *sym)
			}
		} else if isPyClassMember(node) {
			if sym := e.extractNamed(node, source, filePath, SymbolKindMethod); sym != nil {
				*symbols = append(*symbols, *sym)
			}
		}

	case "class_definition":
		if isPyTopLevel(node) {
			if sym := e.extractClass(node, source, filePath); sym != nil {
				*symbols = append(*symbols, *sym)
			}
		}

	case "decorated_definition":
		// The wrapped function_definition or class_definition is a child;
		// handled when we recurse.

	case "assignment":
		if sym := e.extractConstant(node, source, filePath); sym != nil {
			*symbols = append(*symbols, *sym)
		}
	}

	if cursor.GotoFirstChild() {
		e.walk(cursor, source, filePath, symbols)
		for cursor.GotoNextSibling() {
			e.walk(cursor, source, filePath, symbols)
		}
		cursor.GotoParent()
	}
}

func (e *pyExtractor) extractNamed(node *tree_sitter.Node, source []byte, filePath string, kind SymbolKind) *Symbol {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := nameNode.Utf8Text(source)
	sym := symbolAt(node, name, kind, isPyExported(name), filePath)
	return &sym
}

// extractClass emits a class with a header-only span so the methods extracted
// from its body do not overlap it.
func (e *pyExtractor) extractClass(node *tree_sitter.Node, source []byte, filePath string) *Symbol {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := nameNode.Utf8Text(source)
	body := node.ChildByFieldName("body")
	sym := headerSymbolAt(node, body, name, SymbolKindClass, isPyExported(name), filePath)
	return &sym
}

// extractConstant emits module-level UPPER_CASE assignments as constants.
func (e *pyExtractor) extractConstant(node *tree_sitter.Node, source []byte, filePath string) *Symbol {
	parent := node.Parent()
	if parent == nil || parent.Kind() != "expression_statement" {
		return nil
	}
	grandparent := parent.Parent()
	if grandparent == nil || grandparent.Kind() != "module" {
		return nil
	}
	left := node.ChildByFieldName("left")
	if left == nil || left.Kind() != "identifier" {
		return nil
	}
	name := left.Utf8Text(source)
	if name == "" || name != strings.ToUpper(name) || !strings.ContainsAny(name, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		return nil
	}
	sym := symbolAt(node, name, SymbolKindConstant, isPyExported(name), filePath)
	return &sym
}

// isPyTopLevel returns true if the node is at the module top level, directly
// or through a decorated_definition wrapper.
func isPyTopLevel(node *tree_sitter.Node) bool {
	parent := node.Parent()
	if parent == nil {
		return false
	}
	if parent.Kind() == "module" {
		return true
	}
	if parent.Kind() == "decorated_definition" {
		grandparent := parent.Parent()
		return grandparent != nil && grandparent.Kind() == "module"
	}
	return false
}

// isPyClassMember returns true if the node is a direct member of a top-level
// class body, directly or through a decorated_definition wrapper.
func isPyClassMember(node *tree_sitter.Node) bool {
	parent := node.Parent()
	if parent == nil {
		return false
	}
	if parent.Kind() == "decorated_definition" {
		parent = parent.Parent()
		if parent == nil {
			return false
		}
	}
	if parent.Kind() != "block" {
		return false
	}
	class := parent.Parent()
	return class != nil && class.Kind() == "class_definition" && isPyTopLevel(class)
}

// isPyExported returns true if the name does not start with an underscore.
func isPyExported(name string) bool {
	return !strings.HasPrefix(name, "_")
}

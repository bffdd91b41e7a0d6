package graph

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// Kind distinguishes the three vertex kinds the graph can hold.
type Kind int

const (
	// SyntaxKind wraps an AST node.
	SyntaxKind Kind = iota
	// TokenKind is a SyntaxKind node whose leaf carries a token payload.
	TokenKind
	// SymbolKind is a free-floating vertex identified by a string, used
	// for variable-identity nodes in data flow.
	SymbolKind
)

// Node is a vertex in the program graph. Nodes are never constructed
// directly by callers; they are produced and interned by
// Graph.AddSyntaxNode / Graph.AddToken / Graph.AddSymbol.
type Node struct {
	index int
	kind  Kind
	key   string

	ast    *sitter.Node // nil for SymbolKind
	text   string       // token text, set only for TokenKind
	symbol string       // set only for SymbolKind

	// tokenOrdinal is this node's position in the lexical token order,
	// valid only for TokenKind nodes; -1 otherwise.
	tokenOrdinal int
}

// Index returns this node's position in the graph's node arena. Stable for
// the lifetime of the graph; used as the address space for bitset-backed
// data-flow frontiers in the language-specific visitors.
func (n *Node) Index() int { return n.index }

// Kind reports which of the three vertex kinds n is.
func (n *Node) Kind() Kind { return n.kind }

// AST returns the wrapped tree-sitter node, or nil for a SymbolKind node.
func (n *Node) AST() *sitter.Node { return n.ast }

// Text returns the token payload for a TokenKind node, or "" otherwise.
func (n *Node) Text() string { return n.text }

// Symbol returns the identifying string for a SymbolKind node, or "" otherwise.
func (n *Node) Symbol() string { return n.symbol }

// TokenOrdinal returns this token's position in the lexical next_token
// chain. Only meaningful when Kind() == TokenKind; returns -1 otherwise.
func (n *Node) TokenOrdinal() int { return n.tokenOrdinal }

// positionKey computes the interning key for an AST-backed node:
// (type, child_count, start_line, start_col, end_line, end_col).
func positionKey(n *sitter.Node) string {
	start := n.StartPoint()
	end := n.EndPoint()
	return fmt.Sprintf("%s#%d#%d:%d-%d:%d",
		n.Type(), n.ChildCount(), start.Row, start.Column, end.Row, end.Column)
}

// symbolKey computes the interning key for a SymbolNode.
func symbolKey(name string) string {
	return "sym#" + name
}

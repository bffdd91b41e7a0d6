// Package graph implements the program graph's storage layer: a labeled,
// directed multigraph over SyntaxNode / TokenNode / SymbolNode vertices
// with edges under (src, label, tgt) set identity.
package graph

import (
	sitter "github.com/smacker/go-tree-sitter"
)

type edgeKey struct {
	src, tgt int
	label    Label
}

// Graph is a labeled, directed multigraph. The zero value is not usable;
// construct with New. A Graph is build-only: nodes and edges are created
// lazily on first reference and are never removed.
type Graph struct {
	nodes []*Node
	byKey map[uint64][]*Node

	edges map[edgeKey]struct{}
	succ  map[int]map[Label][]*Node
	pred  map[int]map[Label][]*Node

	tokens []*Node // token nodes in lexical order
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		byKey: map[uint64][]*Node{},
		edges: map[edgeKey]struct{}{},
		succ:  map[int]map[Label][]*Node{},
		pred:  map[int]map[Label][]*Node{},
	}
}

// lookup finds an already-interned node by its string key, resolving the
// highwayhash bucket with an exact-string fallback comparison.
func (g *Graph) lookup(key string) *Node {
	for _, n := range g.byKey[hashString(key)] {
		if n.key == key {
			return n
		}
	}
	return nil
}

func (g *Graph) intern(n *Node) *Node {
	n.index = len(g.nodes)
	g.nodes = append(g.nodes, n)
	h := hashString(n.key)
	g.byKey[h] = append(g.byKey[h], n)
	return n
}

// AddSyntaxNode interns (or returns the existing) SyntaxNode wrapping ast.
func (g *Graph) AddSyntaxNode(ast *sitter.Node) *Node {
	key := positionKey(ast)
	if existing := g.lookup(key); existing != nil {
		return existing
	}
	return g.intern(&Node{kind: SyntaxKind, key: key, ast: ast, tokenOrdinal: -1})
}

// AddToken interns (or returns the existing) TokenNode wrapping the leaf
// ast node, recording text as its token payload. Token nodes must be added
// in lexical order; the node's position in that order becomes its
// TokenOrdinal and it is appended to the next_token chain.
func (g *Graph) AddToken(ast *sitter.Node, text string) *Node {
	key := positionKey(ast)
	if existing := g.lookup(key); existing != nil {
		if existing.kind == SyntaxKind {
			existing.kind = TokenKind
			existing.text = text
			existing.tokenOrdinal = len(g.tokens)
			g.tokens = append(g.tokens, existing)
			if len(g.tokens) > 1 {
				g.AddRelation(g.tokens[len(g.tokens)-2], existing, NextToken)
			}
		}
		return existing
	}
	n := &Node{kind: TokenKind, key: key, ast: ast, text: text, tokenOrdinal: len(g.tokens)}
	g.intern(n)
	g.tokens = append(g.tokens, n)
	if len(g.tokens) > 1 {
		g.AddRelation(g.tokens[len(g.tokens)-2], n, NextToken)
	}
	return n
}

// AddSymbol interns (or returns the existing) SymbolNode identified by name.
func (g *Graph) AddSymbol(name string) *Node {
	key := symbolKey(name)
	if existing := g.lookup(key); existing != nil {
		return existing
	}
	return g.intern(&Node{kind: SymbolKind, key: key, symbol: name, tokenOrdinal: -1})
}

// HasSyntaxNode reports whether ast has already been interned.
func (g *Graph) HasSyntaxNode(ast *sitter.Node) bool {
	return g.lookup(positionKey(ast)) != nil
}

// AddRelation idempotently inserts a labeled directed edge src -[label]-> tgt.
// Both endpoints must already be interned nodes of this graph. Returns true
// if the edge was newly inserted, false if it already existed.
func (g *Graph) AddRelation(src, tgt *Node, label Label) bool {
	k := edgeKey{src: src.index, tgt: tgt.index, label: label}
	if _, ok := g.edges[k]; ok {
		return false
	}
	g.edges[k] = struct{}{}
	if g.succ[src.index] == nil {
		g.succ[src.index] = map[Label][]*Node{}
	}
	g.succ[src.index][label] = append(g.succ[src.index][label], tgt)
	if g.pred[tgt.index] == nil {
		g.pred[tgt.index] = map[Label][]*Node{}
	}
	g.pred[tgt.index][label] = append(g.pred[tgt.index][label], src)
	return true
}

// Successors returns n's successors, optionally filtered to a single label.
// With no label it returns the union across all labels.
func (g *Graph) Successors(n *Node, label ...Label) []*Node {
	return edgesOf(g.succ[n.index], label...)
}

// Predecessors returns n's predecessors, optionally filtered to a single label.
func (g *Graph) Predecessors(n *Node, label ...Label) []*Node {
	return edgesOf(g.pred[n.index], label...)
}

func edgesOf(m map[Label][]*Node, label ...Label) []*Node {
	if len(label) == 1 {
		return m[label[0]]
	}
	var all []*Node
	for _, vs := range m {
		all = append(all, vs...)
	}
	return all
}

// Nodes returns every interned vertex, in creation order.
func (g *Graph) Nodes() []*Node { return g.nodes }

// Tokens returns every TokenKind vertex, in lexical (next_token) order.
func (g *Graph) Tokens() []*Node { return g.tokens }

// Edges returns every edge currently in the graph.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, len(g.edges))
	for k := range g.edges {
		out = append(out, Edge{Src: g.nodes[k.src], Tgt: g.nodes[k.tgt], Label: k.label})
	}
	return out
}

// Edge is a materialized (src, label, tgt) triple.
type Edge struct {
	Src, Tgt *Node
	Label    Label
}

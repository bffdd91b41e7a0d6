// Package relation implements the generic AST Relation Emitter (spec
// §4.3): for every visited node it emits a child edge to each of its
// children and, when a previous sibling exists, a sibling edge from that
// sibling. Deliberately thin — the spec treats it as trivial glue.
package relation

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/gocodewalk/pgraph/graph"
)

// Emitter walks an AST and records child/sibling edges (and, as a side
// effect of interning, the next_token chain) into g.
type Emitter struct {
	g    *graph.Graph
	code []byte
}

// New builds an Emitter writing into g, reading node text out of code.
func New(g *graph.Graph, code []byte) *Emitter {
	return &Emitter{g: g, code: code}
}

// node interns n as a TokenNode (if it is a leaf) or a SyntaxNode.
func (e *Emitter) node(n *sitter.Node) *graph.Node {
	if n.ChildCount() == 0 {
		return e.g.AddToken(n, string(e.code[n.StartByte():n.EndByte()]))
	}
	return e.g.AddSyntaxNode(n)
}

// Visit is the AST Visitor Engine entry point (registers under
// ("ast", "all")): it interns n, links it to a previous sibling if one
// exists, and — for non-ERROR nodes — links it to each child.
func (e *Emitter) Visit(n *sitter.Node) bool {
	self := e.node(n)
	if prev := n.PrevSibling(); prev != nil {
		e.g.AddRelation(e.node(prev), self, graph.Sibling)
	}
	if n.Type() == "ERROR" {
		return false
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		e.g.AddRelation(self, e.node(n.Child(i)), graph.Child)
	}
	return true
}

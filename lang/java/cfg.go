// Package java implements the Java-specific analyses: labeled statement-
// level control flow and scoped data flow.
package java

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/gocodewalk/pgraph/astvisit"
	"github.com/gocodewalk/pgraph/graph"
)

// loopLabel is the default jump target for an unlabeled break/continue.
const loopLabel = "__LOOP__"

// Visitor is the Java Control-Flow Visitor (spec §4.5): the same tail-set
// model as Python's, plus labeled break/continue keyed by jump label (Java
// has no bare loop-`else`, so break/continue both resolve through the same
// per-label stacks rather than Python's unlabeled pair).
type Visitor struct {
	g    *graph.Graph
	code []byte

	engine *astvisit.Engine

	lastStmts []*sitter.Node

	returnsFrom  []*sitter.Node
	continueFrom map[string][]*sitter.Node
	breakFrom    map[string][]*sitter.Node
}

// NewVisitor builds a Visitor writing controlflow edges into g.
func NewVisitor(g *graph.Graph, code []byte) *Visitor {
	v := &Visitor{
		g:            g,
		code:         code,
		continueFrom: map[string][]*sitter.Node{},
		breakFrom:    map[string][]*sitter.Node{},
	}
	v.engine = astvisit.New(v)
	return v
}

// Run walks root, emitting controlflow/return_from edges.
func (v *Visitor) Run(root *sitter.Node) { v.engine.Walk(root) }

func (v *Visitor) walk(n *sitter.Node) {
	if n != nil {
		v.engine.Walk(n)
	}
}

func (v *Visitor) walkField(n *sitter.Node, field string) {
	v.walk(n.ChildByFieldName(field))
}

func (v *Visitor) node(n *sitter.Node) *graph.Node {
	if n == nil {
		return nil
	}
	if n.ChildCount() == 0 {
		return v.g.AddToken(n, string(v.code[n.StartByte():n.EndByte()]))
	}
	return v.g.AddSyntaxNode(n)
}

func (v *Visitor) addNext(stmt *sitter.Node) {
	self := v.node(stmt)
	for _, last := range v.lastStmts {
		v.g.AddRelation(v.node(last), self, graph.ControlFlow)
	}
	v.lastStmts = []*sitter.Node{stmt}
}

// resetLastStmts mirrors the Java source's _reset_last_stmts: unlike
// Python's, it always resets to a *single* node, never a tuple.
func (v *Visitor) resetLastStmts(reset *sitter.Node) []*sitter.Node {
	prev := v.lastStmts
	v.lastStmts = []*sitter.Node{reset}
	return prev
}

func concatNodes(sets ...[]*sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for _, s := range sets {
		out = append(out, s...)
	}
	return out
}

func isStatementType(t string) bool {
	const suffix = "statement"
	return len(t) >= len(suffix) && t[len(t)-len(suffix):] == suffix
}

// Visit_block walks every child statement of a block in order.
func (v *Visitor) Visit_block(n *sitter.Node) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		v.walk(n.Child(i))
	}
	return false
}

// Visit_method_declaration pushes a fresh return frontier, walks the body,
// then links every remaining tail and every collected return to the
// method node before restoring the outer state.
func (v *Visitor) Visit_method_declaration(n *sitter.Node) bool {
	outsideLast := v.lastStmts
	v.lastStmts = []*sitter.Node{n}
	outsideReturns := v.returnsFrom
	v.returnsFrom = nil

	v.walkField(n, "body")

	self := v.node(n)
	for _, stmt := range v.lastStmts {
		v.g.AddRelation(v.node(stmt), self, graph.ReturnFrom)
	}
	for _, stmt := range v.returnsFrom {
		v.g.AddRelation(v.node(stmt), self, graph.ReturnFrom)
	}

	v.returnsFrom = outsideReturns
	v.lastStmts = outsideLast
	return false
}

// Visit_return_statement records n as a pending method-exit and empties
// the tail set.
func (v *Visitor) Visit_return_statement(n *sitter.Node) bool {
	v.addNext(n)
	v.returnsFrom = append(v.returnsFrom, n)
	v.lastStmts = nil
	return false
}

// Visit_labeled_statement resolves the label's pending continues/breaks:
// continues re-enter the labeled body (a back-edge), breaks join the
// statement's exit tails.
func (v *Visitor) Visit_labeled_statement(n *sitter.Node) bool {
	nameNode := n.Child(0)
	body := n.Child(2)
	name := string(v.code[nameNode.StartByte():nameNode.EndByte()])

	v.walk(body)

	currentLast := v.lastStmts
	v.lastStmts = v.continueFrom[name]
	v.addNext(body)
	v.continueFrom[name] = nil

	v.lastStmts = concatNodes(currentLast, v.breakFrom[name])
	v.breakFrom[name] = nil
	return false
}

func (v *Visitor) jumpLabel(n *sitter.Node) string {
	if n.ChildCount() > 2 {
		nameNode := n.Child(1)
		return string(v.code[nameNode.StartByte():nameNode.EndByte()])
	}
	return loopLabel
}

// Visit_break_statement records n against its jump label (defaulting to
// the innermost loop) as a pending exit.
func (v *Visitor) Visit_break_statement(n *sitter.Node) bool {
	v.addNext(n)
	label := v.jumpLabel(n)
	v.breakFrom[label] = append(v.breakFrom[label], n)
	v.lastStmts = nil
	return false
}

// Visit_continue_statement records n against its jump label as a pending
// back-edge source.
func (v *Visitor) Visit_continue_statement(n *sitter.Node) bool {
	v.addNext(n)
	label := v.jumpLabel(n)
	v.continueFrom[label] = append(v.continueFrom[label], n)
	v.lastStmts = nil
	return false
}

// Visit_if_statement joins the tails of the consequence and alternative
// branches.
func (v *Visitor) Visit_if_statement(n *sitter.Node) bool {
	v.addNext(n)

	v.walkField(n, "consequence")
	left := v.resetLastStmts(n)

	v.walkField(n, "alternative")
	right := v.resetLastStmts(n)

	v.lastStmts = concatNodes(left, right)
	return false
}

func (v *Visitor) visitLoop(n *sitter.Node) bool {
	prevBreak, prevContinue := v.breakFrom[loopLabel], v.continueFrom[loopLabel]
	v.breakFrom[loopLabel], v.continueFrom[loopLabel] = nil, nil

	v.addNext(n)
	v.walkField(n, "body")
	v.lastStmts = concatNodes(v.lastStmts, v.continueFrom[loopLabel])
	v.addNext(n)

	v.lastStmts = concatNodes(v.lastStmts, v.breakFrom[loopLabel])

	v.breakFrom[loopLabel], v.continueFrom[loopLabel] = prevBreak, prevContinue
	return false
}

// Visit_for_statement treats the whole loop as a single back-edge node,
// unlike Python there is no loop-`else` clause to walk.
func (v *Visitor) Visit_for_statement(n *sitter.Node) bool { return v.visitLoop(n) }

// Visit_while_statement mirrors Visit_for_statement.
func (v *Visitor) Visit_while_statement(n *sitter.Node) bool { return v.visitLoop(n) }

// Visit_do_statement mirrors Visit_for_statement — the tail-set model does
// not distinguish a do/while's guaranteed first iteration.
func (v *Visitor) Visit_do_statement(n *sitter.Node) bool { return v.visitLoop(n) }

// Visit_try_statement walks the body, then re-walks every catch_clause
// from the (body ∪ entry) starting set, joining their exit tails; finally
// walks last, on the fully joined tails. Java has no try-`else` clause.
func (v *Visitor) Visit_try_statement(n *sitter.Node) bool {
	v.addNext(n)
	startingStmts := v.lastStmts

	v.walkField(n, "body")

	exceptionStart := concatNodes(v.lastStmts, startingStmts)
	v.lastStmts = exceptionStart
	var outTails []*sitter.Node

	var finallyClauses []*sitter.Node
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		switch child.Type() {
		case "catch_clause":
			v.walk(child)
			outTails = concatNodes(outTails, v.lastStmts)
			v.lastStmts = exceptionStart
		case "finally_clause":
			finallyClauses = append(finallyClauses, child)
		}
	}

	v.lastStmts = concatNodes(v.lastStmts, outTails)

	for _, fc := range finallyClauses {
		v.walk(fc)
	}
	return false
}

// Visit is the statement-type catch-all, identical in shape to Python's.
func (v *Visitor) Visit(n *sitter.Node) bool {
	if isStatementType(n.Type()) {
		v.addNext(n)
		return false
	}
	return true
}

// Package python implements the Python-specific analyses: statement-level
// control flow, its expression-aware extension, and scoped data flow.
package python

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/gocodewalk/pgraph/astvisit"
	"github.com/gocodewalk/pgraph/graph"
)

// Visitor is the statement-level Python Control-Flow Visitor (spec §4.4):
// it tracks a frontier of "tail" statements and links each newly visited
// statement to its tails with a controlflow edge. Construct with
// NewVisitor and drive with Run; the zero value is not usable standalone
// because it has no engine.
type Visitor struct {
	g    *graph.Graph
	code []byte

	engine *astvisit.Engine

	lastStmts []*sitter.Node

	breakFrom    []*sitter.Node
	continueFrom []*sitter.Node
	returnsFrom  []*sitter.Node
	yieldsFrom   []*sitter.Node
}

// NewVisitor builds a Visitor writing controlflow edges into g.
func NewVisitor(g *graph.Graph, code []byte) *Visitor {
	v := &Visitor{g: g, code: code}
	v.engine = astvisit.New(v)
	return v
}

// Run walks root, emitting controlflow/return_from/yield_from edges.
func (v *Visitor) Run(root *sitter.Node) { v.engine.Walk(root) }

func (v *Visitor) walk(n *sitter.Node) {
	if n != nil {
		v.engine.Walk(n)
	}
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

// addNext links every current tail to stmt, then makes stmt the sole tail.
func (v *Visitor) addNext(stmt *sitter.Node) {
	self := v.node(stmt)
	for _, last := range v.lastStmts {
		v.g.AddRelation(v.node(last), self, graph.ControlFlow)
	}
	v.lastStmts = []*sitter.Node{stmt}
}

// resetLastStmts replaces the tail set with reset, returning the old one.
func (v *Visitor) resetLastStmts(reset []*sitter.Node) []*sitter.Node {
	prev := v.lastStmts
	v.lastStmts = reset
	return prev
}

func concatNodes(sets ...[]*sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for _, s := range sets {
		out = append(out, s...)
	}
	return out
}

func (v *Visitor) walkField(n *sitter.Node, field string) {
	v.walk(n.ChildByFieldName(field))
}

// Visit_block walks every child statement of a block in order.
func (v *Visitor) Visit_block(n *sitter.Node) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		v.walk(n.Child(i))
	}
	return false
}

// Visit_function_definition pushes fresh return/yield frontiers, walks the
// body, then links every remaining tail and every collected return/yield to
// the definition node before restoring the outer state.
func (v *Visitor) Visit_function_definition(n *sitter.Node) bool {
	outsideLast := v.lastStmts
	v.lastStmts = []*sitter.Node{n}
	outsideReturns, outsideYields := v.returnsFrom, v.yieldsFrom
	v.returnsFrom, v.yieldsFrom = nil, nil

	v.walkField(n, "body")

	self := v.node(n)
	for _, stmt := range v.lastStmts {
		v.g.AddRelation(v.node(stmt), self, graph.ReturnFrom)
	}
	for _, stmt := range v.returnsFrom {
		v.g.AddRelation(v.node(stmt), self, graph.ReturnFrom)
	}
	for _, stmt := range v.yieldsFrom {
		v.g.AddRelation(v.node(stmt), self, graph.YieldFrom)
	}

	v.returnsFrom, v.yieldsFrom = outsideReturns, outsideYields
	v.lastStmts = outsideLast
	return false
}

// Visit_if_statement joins the tails of the consequence and alternative
// branches, each walked starting from the tails left after entering node.
func (v *Visitor) Visit_if_statement(n *sitter.Node) bool {
	v.addNext(n)

	v.walkField(n, "consequence")
	left := v.resetLastStmts([]*sitter.Node{n})

	v.walkField(n, "alternative")
	right := v.resetLastStmts([]*sitter.Node{n})

	v.lastStmts = concatNodes(left, right)
	return false
}

// Visit_return_statement records n as a pending function-exit and empties
// the tail set (control never falls through a return).
func (v *Visitor) Visit_return_statement(n *sitter.Node) bool {
	v.addNext(n)
	v.returnsFrom = append(v.returnsFrom, n)
	v.lastStmts = nil
	return false
}

// Visit_yield_statement records n as a pending generator-exit. Unlike
// return, the tail set is left untouched — a yield resumes, it does not
// terminate the enclosing function's flow.
func (v *Visitor) Visit_yield_statement(n *sitter.Node) bool {
	v.addNext(n)
	v.yieldsFrom = append(v.yieldsFrom, n)
	return false
}

// Visit_break_statement records n as a pending loop-exit.
func (v *Visitor) Visit_break_statement(n *sitter.Node) bool {
	v.addNext(n)
	v.breakFrom = append(v.breakFrom, n)
	v.lastStmts = nil
	return false
}

// Visit_continue_statement records n as a pending loop back-edge source.
func (v *Visitor) Visit_continue_statement(n *sitter.Node) bool {
	v.addNext(n)
	v.continueFrom = append(v.continueFrom, n)
	v.lastStmts = nil
	return false
}

func (v *Visitor) visitLoop(n *sitter.Node, body, alt string) bool {
	prevBreak, prevContinue := v.breakFrom, v.continueFrom
	v.breakFrom, v.continueFrom = nil, nil

	v.addNext(n)
	v.walkField(n, body)
	v.lastStmts = concatNodes(v.lastStmts, v.continueFrom)
	v.addNext(n)

	v.walkField(n, alt)

	v.lastStmts = concatNodes(v.lastStmts, v.breakFrom)

	v.breakFrom, v.continueFrom = prevBreak, prevContinue
	return false
}

// Visit_for_statement re-enters the loop node as a back-edge after the
// body, then appends the else-clause (Python's loop "alternative") and the
// collected breaks to the tail set.
func (v *Visitor) Visit_for_statement(n *sitter.Node) bool {
	return v.visitLoop(n, "body", "alternative")
}

// Visit_while_statement mirrors Visit_for_statement's back-edge and
// else-clause handling.
func (v *Visitor) Visit_while_statement(n *sitter.Node) bool {
	return v.visitLoop(n, "body", "alternative")
}

// Visit_try_statement walks the body and else-clause, then re-walks every
// except_clause from the same (body ∪ entry) starting set, joining their
// exit tails; finally_clause nodes walk last, on the fully joined tails.
func (v *Visitor) Visit_try_statement(n *sitter.Node) bool {
	v.addNext(n)
	startingStmts := v.lastStmts

	v.walkField(n, "body")
	v.walkField(n, "alternative")

	exceptionStart := concatNodes(v.lastStmts, startingStmts)
	v.lastStmts = exceptionStart
	var outTails []*sitter.Node

	var finallyClauses []*sitter.Node
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		switch child.Type() {
		case "except_clause":
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

// Visit is the statement-type catch-all: any node whose type ends in
// "statement" and has no specific handler above still participates in the
// tail chain but is not descended into. An expression statement holding a
// bare `yield` expression is handled by Visit_yield_statement.
func (v *Visitor) Visit(n *sitter.Node) bool {
	if isStatementType(n.Type()) {
		if n.Type() == "expression_statement" && n.ChildCount() > 0 && n.Child(0).Type() == "yield" {
			return v.Visit_yield_statement(n)
		}
		v.addNext(n)
		return false
	}
	return true
}

func isStatementType(t string) bool {
	const suffix = "statement"
	return len(t) >= len(suffix) && t[len(t)-len(suffix):] == suffix
}

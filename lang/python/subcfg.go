package python

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/gocodewalk/pgraph/astvisit"
	"github.com/gocodewalk/pgraph/graph"
)

// SubVisitor is the Python Sub-CFG Visitor (spec §4.6): it extends the
// statement-level model into expressions — calls, assignments, boolean and
// comparison operators, and the rest — so flow points sit on sub-expressions
// rather than only on whole statements. It does not embed Visitor: dispatch
// through astvisit resolves purely by method set on the concrete receiver,
// so reusing Visitor's methods here would silently keep routing through
// Visitor's own (unextended) table instead of SubVisitor's.
type SubVisitor struct {
	g    *graph.Graph
	code []byte

	engine *astvisit.Engine

	lastStmts []*sitter.Node

	breakFrom    []*sitter.Node
	continueFrom []*sitter.Node
	returnsFrom  []*sitter.Node
	yieldsFrom   []*sitter.Node
}

// NewSubVisitor builds a SubVisitor writing controlflow/assigned_from edges
// into g.
func NewSubVisitor(g *graph.Graph, code []byte) *SubVisitor {
	v := &SubVisitor{g: g, code: code}
	v.engine = astvisit.New(v)
	return v
}

// Run walks root, emitting expression-level controlflow and assigned_from
// edges.
func (v *SubVisitor) Run(root *sitter.Node) { v.engine.Walk(root) }

func (v *SubVisitor) walk(n *sitter.Node) {
	if n != nil {
		v.engine.Walk(n)
	}
}

func (v *SubVisitor) walkField(n *sitter.Node, field string) {
	v.walk(n.ChildByFieldName(field))
}

func (v *SubVisitor) node(n *sitter.Node) *graph.Node {
	if n == nil {
		return nil
	}
	if n.ChildCount() == 0 {
		return v.g.AddToken(n, string(v.code[n.StartByte():n.EndByte()]))
	}
	return v.g.AddSyntaxNode(n)
}

func (v *SubVisitor) addNext(stmt *sitter.Node) {
	self := v.node(stmt)
	for _, last := range v.lastStmts {
		v.g.AddRelation(v.node(last), self, graph.ControlFlow)
	}
	v.lastStmts = []*sitter.Node{stmt}
}

func (v *SubVisitor) resetLastStmts(reset []*sitter.Node) []*sitter.Node {
	prev := v.lastStmts
	v.lastStmts = reset
	return prev
}

func (v *SubVisitor) assignedFrom(value, target *sitter.Node) {
	v.g.AddRelation(v.node(value), v.node(target), graph.AssignedFrom)
}

// nonCommentChildren drops comment nodes out of n's child list — several
// expression grammars interleave trivia comments between operands.
func nonCommentChildren(n *sitter.Node) []*sitter.Node {
	out := make([]*sitter.Node, 0, n.ChildCount())
	for i := 0; i < int(n.ChildCount()); i++ {
		if c := n.Child(i); c.Type() != "comment" {
			out = append(out, c)
		}
	}
	return out
}

// Visit_block walks every child statement of a block in order — identical
// to the base CFG (SubCFG does not refine block-level structure).
func (v *SubVisitor) Visit_block(n *sitter.Node) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		v.walk(n.Child(i))
	}
	return false
}

// Visit_function_definition is unchanged from the base CFG: function exit
// bookkeeping is statement-level regardless of sub-expression granularity.
func (v *SubVisitor) Visit_function_definition(n *sitter.Node) bool {
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

// Visit_call walks the callee then the arguments before becoming a flow
// point itself.
func (v *SubVisitor) Visit_call(n *sitter.Node) bool {
	v.walkField(n, "function")
	v.walkField(n, "arguments")
	v.addNext(n)
	return false
}

// Visit_assignment walks the right-hand value, resolves every target
// identifier out of the (possibly tuple/list-patterned) left-hand side, and
// emits an assigned_from edge from the value to each.
func (v *SubVisitor) Visit_assignment(n *sitter.Node) bool {
	value := n.ChildByFieldName("right")
	v.walk(value)

	targets := n.ChildByFieldName("left")
	for _, target := range identifiersIn(targets) {
		v.assignedFrom(value, target)
	}

	v.addNext(n)
	return false
}

// identifiersIn returns target itself if it already is an identifier, or
// every identifier leaf reachable under it otherwise (tuple/list unpacking
// targets).
func identifiersIn(target *sitter.Node) []*sitter.Node {
	if target == nil {
		return nil
	}
	if target.Type() == "identifier" {
		return []*sitter.Node{target}
	}
	var out []*sitter.Node
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n.Type() == "identifier" {
			out = append(out, n)
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(target)
	return out
}

// Visit_named_expression handles the walrus operator: name := value.
func (v *SubVisitor) Visit_named_expression(n *sitter.Node) bool {
	value := n.ChildByFieldName("value")
	v.walk(value)
	v.assignedFrom(value, n.ChildByFieldName("name"))
	v.addNext(n)
	return false
}

// Visit_augmented_assignment handles `x += value` as an assigned_from edge
// from value to the (single) left-hand target.
func (v *SubVisitor) Visit_augmented_assignment(n *sitter.Node) bool {
	value := n.ChildByFieldName("right")
	v.walk(value)
	v.assignedFrom(value, n.ChildByFieldName("left"))
	v.addNext(n)
	return false
}

// Visit_return_statement walks its (optional) value expression before
// recording the pending function-exit; a bare `return` emits no flow point.
func (v *SubVisitor) Visit_return_statement(n *sitter.Node) bool {
	if n.ChildCount() > 1 {
		v.walk(n.Child(1))
		v.addNext(n)
	}
	v.returnsFrom = append(v.returnsFrom, n)
	v.lastStmts = nil
	return false
}

// Visit_yield_statement walks its value expression like
// Visit_return_statement but leaves the tail set in place. Unlike the base
// Visitor's Visit_yield_statement, it only records the pending yield when a
// value is present (a bare `yield` is not tracked as a yield_from source
// here).
func (v *SubVisitor) Visit_yield_statement(n *sitter.Node) bool {
	if n.ChildCount() > 1 {
		v.walk(n.Child(1))
		v.addNext(n)
		v.yieldsFrom = append(v.yieldsFrom, n)
	}
	return false
}

// Visit_if_statement walks the condition first — it becomes the shared
// starting point both branches reset to — then joins the consequence and
// alternative tails.
func (v *SubVisitor) Visit_if_statement(n *sitter.Node) bool {
	v.walkField(n, "condition")
	stmtAfterTest := v.lastStmts

	v.walkField(n, "consequence")
	left := v.resetLastStmts(stmtAfterTest)

	v.walkField(n, "alternative")
	right := v.resetLastStmts(stmtAfterTest)

	v.lastStmts = concatNodes(left, right)
	return false
}

// Visit_conditional_expression handles `left if condition else right`.
func (v *SubVisitor) Visit_conditional_expression(n *sitter.Node) bool {
	children := nonCommentChildren(n)
	if len(children) != 5 {
		return false
	}
	left, condition, right := children[0], children[2], children[4]

	v.walk(condition)
	stmtAfterTest := v.lastStmts

	v.walk(left)
	leftTails := v.resetLastStmts(stmtAfterTest)

	v.walk(right)
	rightTails := v.resetLastStmts(stmtAfterTest)

	v.lastStmts = concatNodes(leftTails, rightTails)
	return false
}

// Visit_try_statement mirrors the base CFG's except/finally merge, minus
// the entry addNext call — SubCFG's try_statement is not itself a flow
// point, only its contained expressions are.
func (v *SubVisitor) Visit_try_statement(n *sitter.Node) bool {
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

func (v *SubVisitor) visitLoop(n *sitter.Node, rewalkCondition bool) bool {
	prevBreak, prevContinue := v.breakFrom, v.continueFrom
	v.breakFrom, v.continueFrom = nil, nil

	if rewalkCondition {
		v.walkField(n, "condition")
	} else {
		v.walkField(n, "left")
		v.assignedFrom(n.ChildByFieldName("right"), n.ChildByFieldName("left"))
	}
	v.walkField(n, "body")
	v.lastStmts = concatNodes(v.lastStmts, v.continueFrom)
	if rewalkCondition {
		v.walkField(n, "condition")
	} else {
		v.walkField(n, "body")
	}

	v.walkField(n, "alternative")

	v.lastStmts = concatNodes(v.lastStmts, v.breakFrom)

	v.breakFrom, v.continueFrom = prevBreak, prevContinue
	return false
}

// Visit_while_statement re-walks the condition (not the body) on the
// back-edge, matching the base CFG mapped onto an expression-aware
// condition.
func (v *SubVisitor) Visit_while_statement(n *sitter.Node) bool {
	return v.visitLoop(n, true)
}

// Visit_for_statement records the loop variable's assigned_from edge from
// the iterable, then re-walks the body (not the loop header) on the
// back-edge.
func (v *SubVisitor) Visit_for_statement(n *sitter.Node) bool {
	return v.visitLoop(n, false)
}

// Visit_with_item walks the context-manager value and, if the item has an
// `as` alias, records it as an assigned_from target.
func (v *SubVisitor) Visit_with_item(n *sitter.Node) bool {
	value := n.ChildByFieldName("value")
	alias := n.ChildByFieldName("alias")

	v.walk(value)
	if alias != nil {
		v.assignedFrom(value, alias)
		v.walk(alias)
	}
	return false
}

func (v *SubVisitor) visitBinary(n *sitter.Node) bool {
	children := nonCommentChildren(n)
	if len(children) < 3 {
		return false
	}
	left, right := children[0], children[2]
	v.walk(left)
	v.walk(right)
	v.addNext(n)
	return false
}

// Visit_binary_operator makes an arithmetic binary expression a flow point.
func (v *SubVisitor) Visit_binary_operator(n *sitter.Node) bool { return v.visitBinary(n) }

// Visit_boolean_operator makes `and`/`or` expressions a flow point.
func (v *SubVisitor) Visit_boolean_operator(n *sitter.Node) bool { return v.visitBinary(n) }

// Visit_comparison_operator makes a (possibly chained) comparison a flow
// point, walking only its first and last operand.
func (v *SubVisitor) Visit_comparison_operator(n *sitter.Node) bool {
	if n.ChildCount() == 0 {
		return false
	}
	left := n.Child(0)
	right := n.Child(int(n.ChildCount()) - 1)
	v.walk(left)
	v.walk(right)
	v.addNext(n)
	return false
}

// Visit_assert_statement walks the asserted test expression.
func (v *SubVisitor) Visit_assert_statement(n *sitter.Node) bool {
	if n.ChildCount() < 2 {
		return false
	}
	v.walk(n.Child(1))
	v.addNext(n)
	return false
}

// Visit_not_operator makes a `not x` expression a flow point.
func (v *SubVisitor) Visit_not_operator(n *sitter.Node) bool {
	v.walkField(n, "argument")
	v.addNext(n)
	return false
}

// Visit_unary_operator makes a unary `-x`/`+x`/`~x` expression a flow point.
func (v *SubVisitor) Visit_unary_operator(n *sitter.Node) bool {
	v.walkField(n, "argument")
	v.addNext(n)
	return false
}

// Visit_attribute walks the object and attribute of a `.` access; unlike
// the other expression handlers, an attribute access is not itself a flow
// point.
func (v *SubVisitor) Visit_attribute(n *sitter.Node) bool {
	v.walkField(n, "object")
	v.walkField(n, "attribute")
	return false
}

// Visit_break_statement records n as a pending loop-exit, identical to the
// base CFG.
func (v *SubVisitor) Visit_break_statement(n *sitter.Node) bool {
	v.addNext(n)
	v.breakFrom = append(v.breakFrom, n)
	v.lastStmts = nil
	return false
}

// Visit_continue_statement records n as a pending loop back-edge source,
// identical to the base CFG.
func (v *SubVisitor) Visit_continue_statement(n *sitter.Node) bool {
	v.addNext(n)
	v.continueFrom = append(v.continueFrom, n)
	v.lastStmts = nil
	return false
}

// Visit is the statement-type catch-all. Unlike the base CFG, it does not
// prune: a plain statement with no specific handler (an expression
// statement, say) still needs to be descended into to reach the call or
// assignment inside it that the specific handlers above look for.
func (v *SubVisitor) Visit(n *sitter.Node) bool {
	if isStatementType(n.Type()) {
		v.addNext(n)
	}
	return true
}

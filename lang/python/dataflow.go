package python

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/gocodewalk/pgraph/astvisit"
	"github.com/gocodewalk/pgraph/graph"
	"github.com/gocodewalk/pgraph/lang/flowset"
)

// identContext is the read/write polarity an identifier is currently being
// visited under. The zero value, ctxNone, defaults to read — matching a
// bare identifier reference with no enclosing assignment target.
type identContext int

const (
	ctxNone identContext = iota
	ctxRead
	ctxWrite
)

// scopeNode is one level of the lexical scope trie: the set of variable
// names declared directly at this level, plus child scopes keyed by
// segment name (function names, "<comprehension>", ...).
type scopeNode struct {
	vars     map[string]struct{}
	children map[string]*scopeNode
}

func newScopeNode() *scopeNode {
	return &scopeNode{vars: map[string]struct{}{}, children: map[string]*scopeNode{}}
}

// DataFlowVisitor is the Python Data-Flow Visitor (spec §4.7): scoped
// read/write tracking over qualified variable names, with lattice-style
// joins at branches and a fixed two-unroll approximation at loops.
type DataFlowVisitor struct {
	g    *graph.Graph
	code []byte

	engine *astvisit.Engine

	idContext identContext

	scopeRoot    *scopeNode
	currentScope []string

	lastReads  flowset.Map
	lastWrites flowset.Map

	returnsFromRW  []flowset.Pair
	continueFromRW []flowset.Pair
	breakFromRW    []flowset.Pair
}

// NewDataFlowVisitor builds a DataFlowVisitor writing occurrence_of,
// next_may_use and last_may_write edges into g.
func NewDataFlowVisitor(g *graph.Graph, code []byte) *DataFlowVisitor {
	v := &DataFlowVisitor{
		g:            g,
		code:         code,
		scopeRoot:    newScopeNode(),
		currentScope: []string{"G"},
		lastReads:    flowset.Map{},
		lastWrites:   flowset.Map{},
	}
	v.engine = astvisit.New(v)
	return v
}

// Run walks root, emitting data-flow edges.
func (v *DataFlowVisitor) Run(root *sitter.Node) { v.engine.Walk(root) }

func (v *DataFlowVisitor) walk(n *sitter.Node) {
	if n != nil {
		v.engine.Walk(n)
	}
}

func (v *DataFlowVisitor) walkField(n *sitter.Node, field string) {
	v.walk(n.ChildByFieldName(field))
}

func (v *DataFlowVisitor) walkChildren(n *sitter.Node) {
	for i := 0; i < int(n.ChildCount()); i++ {
		v.walk(n.Child(i))
	}
}

func (v *DataFlowVisitor) node(n *sitter.Node) *graph.Node {
	if n.ChildCount() == 0 {
		return v.g.AddToken(n, string(v.code[n.StartByte():n.EndByte()]))
	}
	return v.g.AddSyntaxNode(n)
}

// withContext runs fn with the identifier polarity set to ctx, restoring
// the previous polarity afterwards even if fn panics.
func (v *DataFlowVisitor) withContext(ctx identContext, fn func()) {
	prev := v.idContext
	v.idContext = ctx
	defer func() { v.idContext = prev }()
	fn()
}

// Scope handling ------------------------------------------------------

// registerInScope declares varName in the innermost current scope and
// returns its fully qualified name.
func (v *DataFlowVisitor) registerInScope(varName string) string {
	cur := v.scopeRoot
	for _, seg := range v.currentScope {
		child, ok := cur.children[seg]
		if !ok {
			child = newScopeNode()
			cur.children[seg] = child
		}
		cur = child
	}
	cur.vars[varName] = struct{}{}
	return strings.Join(append(append([]string{}, v.currentScope...), varName), ".")
}

// qualname resolves varName against the current scope stack, walking
// outward from the innermost scope until one that actually declared the
// name is found (or only the outermost candidate remains).
func (v *DataFlowVisitor) qualname(varName string) string {
	type candidate struct {
		seg  string
		node *scopeNode
	}
	var candidates []candidate
	cur := v.scopeRoot
	for _, seg := range v.currentScope {
		child, ok := cur.children[seg]
		if !ok {
			break
		}
		candidates = append(candidates, candidate{seg, child})
		cur = child
	}
	for len(candidates) > 1 {
		last := candidates[len(candidates)-1]
		if _, declared := last.node.vars[varName]; declared {
			break
		}
		candidates = candidates[:len(candidates)-1]
	}
	segs := make([]string, 0, len(candidates)+1)
	for _, c := range candidates {
		segs = append(segs, c.seg)
	}
	segs = append(segs, varName)
	return strings.Join(segs, ".")
}

// Variable writes -------------------------------------------------------

func (v *DataFlowVisitor) occurrenceOf(node *graph.Node, qname string) {
	name := qname
	if i := strings.LastIndex(qname, "."); i >= 0 {
		name = qname[i+1:]
	}
	sym := v.g.AddSymbol(name)
	v.g.AddRelation(node, sym, graph.OccurrenceOf)
}

func (v *DataFlowVisitor) recordWrite(n *sitter.Node) {
	node := v.node(n)
	qname := v.registerInScope(node.Text())
	v.occurrenceOf(node, qname)
	v.lastReads[qname] = flowset.NewSet()
	writes := flowset.NewSet()
	writes.Add(node)
	v.lastWrites[qname] = writes
}

func (v *DataFlowVisitor) recordRead(n *sitter.Node) {
	node := v.node(n)
	qname := v.qualname(node.Text())
	v.occurrenceOf(node, qname)

	v.lastReads.Get(qname).Each(v.g, func(last *graph.Node) {
		v.g.AddRelation(last, node, graph.NextMayUse)
	})
	reads := flowset.NewSet()
	reads.Add(node)
	v.lastReads[qname] = reads

	v.lastWrites.Get(qname).Each(v.g, func(last *graph.Node) {
		v.g.AddRelation(last, node, graph.LastMayWrite)
	})
}

// Visit_identifier resolves a bare identifier as a read unless the current
// polarity is explicitly ctxWrite.
func (v *DataFlowVisitor) Visit_identifier(n *sitter.Node) bool {
	if v.idContext == ctxWrite {
		v.recordWrite(n)
	} else {
		v.recordRead(n)
	}
	return false
}

// Scopes --------------------------------------------------------------

func (v *DataFlowVisitor) pushScope(segment string) {
	v.currentScope = append(v.currentScope, segment)
}

func (v *DataFlowVisitor) popScope() {
	v.currentScope = v.currentScope[:len(v.currentScope)-1]
}

func (v *DataFlowVisitor) visitComprehension(n *sitter.Node) bool {
	v.pushScope("<comprehension>")
	for i := 0; i < int(n.ChildCount()); i++ {
		if child := n.Child(i); strings.HasSuffix(child.Type(), "clause") {
			v.walk(child)
		}
	}
	v.walkField(n, "body")
	v.popScope()
	return false
}

func (v *DataFlowVisitor) Visit_list_comprehension(n *sitter.Node) bool {
	return v.visitComprehension(n)
}
func (v *DataFlowVisitor) Visit_dictionary_comprehension(n *sitter.Node) bool {
	return v.visitComprehension(n)
}
func (v *DataFlowVisitor) Visit_set_comprehension(n *sitter.Node) bool {
	return v.visitComprehension(n)
}
func (v *DataFlowVisitor) Visit_generator_expression(n *sitter.Node) bool {
	return v.visitComprehension(n)
}

// Clauses ---------------------------------------------------------------

// Visit_for_in_clause handles a comprehension's `for x in xs` clause: the
// loop variable is a write, the iterable is a read.
func (v *DataFlowVisitor) Visit_for_in_clause(n *sitter.Node) bool {
	v.withContext(ctxWrite, func() { v.walkField(n, "left") })
	v.withContext(ctxRead, func() { v.walkField(n, "right") })
	return false
}

// Visit_if_clause handles a comprehension's filter clause as a read.
func (v *DataFlowVisitor) Visit_if_clause(n *sitter.Node) bool {
	v.withContext(ctxRead, func() { v.walkChildren(n) })
	return false
}

// Parameters --------------------------------------------------------

// Visit_parameters treats every parameter as a write (a binding, not a use).
func (v *DataFlowVisitor) Visit_parameters(n *sitter.Node) bool {
	v.withContext(ctxWrite, func() { v.walkChildren(n) })
	return false
}

// Visit_default_parameter only walks the parameter's name — its default
// value expression is not data-flow analyzed.
func (v *DataFlowVisitor) Visit_default_parameter(n *sitter.Node) bool {
	v.walkField(n, "name")
	return false
}

// Visit_typed_parameter walks only the bound name, skipping the annotation.
func (v *DataFlowVisitor) Visit_typed_parameter(n *sitter.Node) bool {
	if n.ChildCount() > 0 {
		v.walk(n.Child(0))
	}
	return false
}

// Assignments ------------------------------------------------------------

// Visit_assignment reads the right-hand side before writing the left —
// order matters so `x = x + 1` sees the prior binding of x.
func (v *DataFlowVisitor) Visit_assignment(n *sitter.Node) bool {
	v.withContext(ctxRead, func() { v.walkField(n, "right") })
	v.withContext(ctxWrite, func() { v.walkField(n, "left") })
	return false
}

func (v *DataFlowVisitor) Visit_annotated_assignment(n *sitter.Node) bool {
	return v.Visit_assignment(n)
}

// Visit_augmented_assignment treats the left-hand target as both a read
// (the implicit `+=` use) and, via the shared assignment handling, a write.
func (v *DataFlowVisitor) Visit_augmented_assignment(n *sitter.Node) bool {
	v.withContext(ctxRead, func() { v.walkField(n, "left") })
	return v.Visit_assignment(n)
}

// Attribute ---------------------------------------------------------------

// Visit_attribute only tracks the object being accessed; the attribute
// name itself is not a variable occurrence.
func (v *DataFlowVisitor) Visit_attribute(n *sitter.Node) bool {
	v.withContext(ctxRead, func() { v.walkField(n, "object") })
	return false
}

// Branching ---------------------------------------------------------------

func (v *DataFlowVisitor) copyRW() flowset.Pair {
	return flowset.Pair{Reads: v.lastReads.Clone(), Writes: v.lastWrites.Clone()}
}

// restoreRW swaps in rw as the live context and returns what was live
// before the swap.
func (v *DataFlowVisitor) restoreRW(rw flowset.Pair) flowset.Pair {
	after := flowset.Pair{Reads: v.lastReads, Writes: v.lastWrites}
	v.lastReads, v.lastWrites = rw.Reads, rw.Writes
	return after
}

func (v *DataFlowVisitor) joinRW(rw flowset.Pair) {
	merged := flowset.MergePair(flowset.Pair{Reads: v.lastReads, Writes: v.lastWrites}, rw)
	v.lastReads, v.lastWrites = merged.Reads, merged.Writes
}

func (v *DataFlowVisitor) resetRW() {
	v.lastReads = flowset.Map{}
	v.lastWrites = flowset.Map{}
}

// Visit_if_statement walks the condition as a read, then the consequence
// from a saved snapshot, restores to that snapshot for the alternative, and
// joins both outcomes back together.
func (v *DataFlowVisitor) Visit_if_statement(n *sitter.Node) bool {
	v.withContext(ctxRead, func() { v.walkField(n, "condition") })

	saved := v.copyRW()

	v.walkField(n, "consequence")

	after := v.restoreRW(saved)

	v.walkField(n, "alternative")

	v.joinRW(after)
	return false
}

// Visit_conditional_expression handles `left if condition else right`,
// joining only the read frontier (writes cannot occur inside an
// expression position).
func (v *DataFlowVisitor) Visit_conditional_expression(n *sitter.Node) bool {
	v.withContext(ctxRead, func() {
		children := nonCommentChildren(n)
		if len(children) != 5 {
			return
		}
		ifNode, condition, elseNode := children[0], children[2], children[4]
		v.walk(condition)

		savedReads := v.lastReads.Clone()
		v.walk(ifNode)

		afterIfReads := v.lastReads
		v.lastReads = savedReads
		v.walk(elseNode)

		v.lastReads = flowset.Merge(v.lastReads, afterIfReads)
	})
	return false
}

// Loops -------------------------------------------------------------------

func (v *DataFlowVisitor) Visit_continue_statement(n *sitter.Node) bool {
	top := len(v.continueFromRW) - 1
	v.continueFromRW[top] = flowset.MergePair(v.continueFromRW[top], flowset.Pair{Reads: v.lastReads, Writes: v.lastWrites})
	v.resetRW()
	return false
}

func (v *DataFlowVisitor) Visit_break_statement(n *sitter.Node) bool {
	top := len(v.breakFromRW) - 1
	v.breakFromRW[top] = flowset.MergePair(v.breakFromRW[top], flowset.Pair{Reads: v.lastReads, Writes: v.lastWrites})
	v.resetRW()
	return false
}

func (v *DataFlowVisitor) pushJumpFrame() {
	v.breakFromRW = append(v.breakFromRW, flowset.EmptyPair())
	v.continueFromRW = append(v.continueFromRW, flowset.EmptyPair())
}

func (v *DataFlowVisitor) popContinue() flowset.Pair {
	top := len(v.continueFromRW) - 1
	p := v.continueFromRW[top]
	v.continueFromRW = v.continueFromRW[:top]
	return p
}

func (v *DataFlowVisitor) popBreak() flowset.Pair {
	top := len(v.breakFromRW) - 1
	p := v.breakFromRW[top]
	v.breakFromRW = v.breakFromRW[:top]
	return p
}

// Visit_while_statement implements the spec's deliberate two-unroll
// approximation in place of fixpoint iteration: the body is walked twice
// under the loop condition (collecting continues into the join after each
// pass) before the condition is joined once more and the loop is exited.
func (v *DataFlowVisitor) Visit_while_statement(n *sitter.Node) bool {
	v.withContext(ctxRead, func() { v.walkField(n, "condition") })

	afterTest := v.copyRW()

	v.pushJumpFrame()

	v.walkField(n, "body")
	v.joinRW(v.popContinue())

	v.breakFromRW[len(v.breakFromRW)-1] = flowset.EmptyPair()
	v.continueFromRW = append(v.continueFromRW, flowset.EmptyPair())

	v.withContext(ctxRead, func() { v.walkField(n, "condition") })
	v.walkField(n, "body")
	v.joinRW(v.popContinue())

	v.withContext(ctxRead, func() { v.walkField(n, "condition") })

	v.joinRW(afterTest)
	v.walkField(n, "alternative")

	v.joinRW(v.popBreak())
	return false
}

// Visit_for_statement mirrors Visit_while_statement's two-unroll schedule,
// additionally treating the loop variable as a write on every pass.
func (v *DataFlowVisitor) Visit_for_statement(n *sitter.Node) bool {
	v.withContext(ctxRead, func() { v.walkField(n, "right") })

	afterZero := v.copyRW()

	v.pushJumpFrame()

	v.withContext(ctxWrite, func() { v.walkField(n, "left") })
	v.walkField(n, "body")
	v.joinRW(v.popContinue())

	v.breakFromRW[len(v.breakFromRW)-1] = flowset.EmptyPair()
	v.continueFromRW = append(v.continueFromRW, flowset.EmptyPair())

	v.withContext(ctxWrite, func() { v.walkField(n, "left") })
	v.walkField(n, "body")
	v.joinRW(v.popContinue())

	v.joinRW(afterZero)
	v.walkField(n, "alternative")

	v.joinRW(v.popBreak())
	return false
}

// Functions -----------------------------------------------------------

// Visit_return_statement reads its value expressions, merges the resulting
// context into the function's pending-return frontier, and resets —
// control does not fall through a return.
func (v *DataFlowVisitor) Visit_return_statement(n *sitter.Node) bool {
	v.withContext(ctxRead, func() { v.walkChildren(n) })

	top := len(v.returnsFromRW) - 1
	v.returnsFromRW[top] = flowset.MergePair(v.returnsFromRW[top], flowset.Pair{Reads: v.lastReads, Writes: v.lastWrites})
	v.resetRW()
	return false
}

// Visit_function_definition pushes a fresh return frontier and scope
// segment, walks parameters then body, and joins the collected returns
// back into the enclosing flow on exit.
func (v *DataFlowVisitor) Visit_function_definition(n *sitter.Node) bool {
	v.returnsFromRW = append(v.returnsFromRW, flowset.EmptyPair())
	name := string(v.code[n.ChildByFieldName("name").StartByte():n.ChildByFieldName("name").EndByte()])
	v.pushScope(name)

	v.walkField(n, "parameters")
	v.walkField(n, "body")

	v.popScope()
	top := len(v.returnsFromRW) - 1
	ret := v.returnsFromRW[top]
	v.returnsFromRW = v.returnsFromRW[:top]
	v.joinRW(ret)
	return false
}

// Misc ------------------------------------------------------------------

// Visit_named_expression handles the walrus operator: value is read first,
// then bound to name.
func (v *DataFlowVisitor) Visit_named_expression(n *sitter.Node) bool {
	v.withContext(ctxRead, func() { v.walkField(n, "value") })
	v.withContext(ctxWrite, func() { v.walkField(n, "name") })
	return false
}

// Visit_subscript walks the value being indexed under the current polarity
// (so the `a` of `a[i] = v` is a write, and of `print(a[i])` a read), then
// reads the subscript expression.
func (v *DataFlowVisitor) Visit_subscript(n *sitter.Node) bool {
	v.walkField(n, "value")
	v.withContext(ctxRead, func() { v.walkField(n, "subscript") })
	return false
}

// Visit_with_item reads the context-manager value and writes its alias.
func (v *DataFlowVisitor) Visit_with_item(n *sitter.Node) bool {
	v.withContext(ctxRead, func() { v.walkField(n, "value") })
	v.withContext(ctxWrite, func() { v.walkField(n, "alias") })
	return false
}

// Visit_lambda analyzes parameters and body against a saved snapshot of
// the surrounding flow, then discards whatever it produced — a lambda's
// body executes later, possibly many times, so its reads/writes cannot be
// threaded into the flow at its definition site.
func (v *DataFlowVisitor) Visit_lambda(n *sitter.Node) bool {
	saved := v.copyRW()
	v.pushScope("<lambda>")

	v.withContext(ctxWrite, func() { v.walkField(n, "parameters") })
	v.walkField(n, "body")

	v.popScope()
	v.restoreRW(saved)
	return false
}

// Visit_string is a no-op: f-strings are not analyzed for embedded
// expressions.
func (v *DataFlowVisitor) Visit_string(n *sitter.Node) bool { return false }

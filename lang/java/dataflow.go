package java

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/gocodewalk/pgraph/astvisit"
	"github.com/gocodewalk/pgraph/graph"
	"github.com/gocodewalk/pgraph/lang/flowset"
)

type identContext int

const (
	ctxNone identContext = iota
	ctxRead
	ctxWrite
)

type scopeNode struct {
	vars     map[string]struct{}
	children map[string]*scopeNode
}

func newScopeNode() *scopeNode {
	return &scopeNode{vars: map[string]struct{}{}, children: map[string]*scopeNode{}}
}

// DataFlowVisitor is the Java Data-Flow Visitor (spec §4.7): the same
// scoped read/write model as Python's, specialized to method/field/lambda
// scoping and Java's update/assignment expression shapes.
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

// NewDataFlowVisitor builds a DataFlowVisitor writing data-flow edges into g.
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

func (v *DataFlowVisitor) withContext(ctx identContext, fn func()) {
	prev := v.idContext
	v.idContext = ctx
	defer func() { v.idContext = prev }()
	fn()
}

func (v *DataFlowVisitor) pushScope(segment string) { v.currentScope = append(v.currentScope, segment) }
func (v *DataFlowVisitor) popScope()                { v.currentScope = v.currentScope[:len(v.currentScope)-1] }

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

// Unlike the Python visitor, Java's original does not emit occurrence_of
// edges to a symbol node — it links reads/writes directly through
// next_may_use/last_may_write and leaves variable-identity grouping to the
// qualified name alone. Mirrored here rather than guessed.

func (v *DataFlowVisitor) recordWrite(n *sitter.Node) {
	node := v.node(n)
	qname := v.registerInScope(node.Text())
	v.lastReads[qname] = flowset.NewSet()
	writes := flowset.NewSet()
	writes.Add(node)
	v.lastWrites[qname] = writes
}

func (v *DataFlowVisitor) recordRead(n *sitter.Node) {
	node := v.node(n)
	qname := v.qualname(node.Text())

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

func (v *DataFlowVisitor) copyRW() flowset.Pair {
	return flowset.Pair{Reads: v.lastReads.Clone(), Writes: v.lastWrites.Clone()}
}

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

// Visit_block pushes a block-local scope segment, mirroring Java's
// block-scoped locals (unlike Python, where a block is not a scope).
func (v *DataFlowVisitor) Visit_block(n *sitter.Node) bool {
	v.pushScope("<block>")
	v.walkChildren(n)
	v.popScope()
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

// Visit_return_statement reads its value expressions, merges the resulting
// context into the method's pending-return frontier, and resets.
func (v *DataFlowVisitor) Visit_return_statement(n *sitter.Node) bool {
	v.withContext(ctxRead, func() { v.walkChildren(n) })

	top := len(v.returnsFromRW) - 1
	v.returnsFromRW[top] = flowset.MergePair(v.returnsFromRW[top], flowset.Pair{Reads: v.lastReads, Writes: v.lastWrites})
	v.resetRW()
	return false
}

// Visit_method_declaration pushes a fresh return frontier and a scope
// segment named after the method, treats parameters as writes, walks the
// body, then joins the collected returns back into the enclosing flow.
func (v *DataFlowVisitor) Visit_method_declaration(n *sitter.Node) bool {
	v.returnsFromRW = append(v.returnsFromRW, flowset.EmptyPair())
	nameNode := n.ChildByFieldName("name")
	name := string(v.code[nameNode.StartByte():nameNode.EndByte()])
	v.pushScope(name)

	v.withContext(ctxWrite, func() { v.walkField(n, "parameters") })
	v.walkField(n, "body")

	v.popScope()
	top := len(v.returnsFromRW) - 1
	ret := v.returnsFromRW[top]
	v.returnsFromRW = v.returnsFromRW[:top]
	v.joinRW(ret)
	return false
}

// Visit_if_statement mirrors Python's: read the condition, snapshot before
// the consequence, restore for the alternative, join both outcomes.
func (v *DataFlowVisitor) Visit_if_statement(n *sitter.Node) bool {
	v.withContext(ctxRead, func() { v.walkField(n, "condition") })

	saved := v.copyRW()
	v.walkField(n, "consequence")
	after := v.restoreRW(saved)
	v.walkField(n, "alternative")
	v.joinRW(after)
	return false
}

// Visit_while_statement implements the two-unroll approximation: the body
// is walked twice, joining continues after each pass, before the condition
// is joined once more on exit.
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
	v.joinRW(v.popBreak())
	return false
}

// Visit_do_statement mirrors Visit_while_statement but walks the body
// before the first condition check, matching do/while's guaranteed first
// iteration; there is no loop-exit condition join before entry.
func (v *DataFlowVisitor) Visit_do_statement(n *sitter.Node) bool {
	v.pushJumpFrame()

	v.walkField(n, "body")
	v.joinRW(v.popContinue())

	v.breakFromRW[len(v.breakFromRW)-1] = flowset.EmptyPair()
	v.continueFromRW = append(v.continueFromRW, flowset.EmptyPair())

	v.withContext(ctxRead, func() { v.walkField(n, "condition") })
	v.walkField(n, "body")
	v.joinRW(v.popContinue())

	v.withContext(ctxRead, func() { v.walkField(n, "condition") })

	v.joinRW(v.popBreak())
	return false
}

// Visit_for_statement pushes a scope segment for the loop header's own
// declarations (a C-style for's init variables are scoped to the loop,
// not the enclosing block) and otherwise mirrors the two-unroll schedule,
// re-walking update on both passes.
func (v *DataFlowVisitor) Visit_for_statement(n *sitter.Node) bool {
	v.pushScope("<if>")
	v.walkField(n, "init")
	v.withContext(ctxRead, func() { v.walkField(n, "condition") })

	afterZero := v.copyRW()

	v.pushJumpFrame()

	v.walkField(n, "body")
	v.joinRW(v.popContinue())
	v.walkField(n, "update")

	v.breakFromRW[len(v.breakFromRW)-1] = flowset.EmptyPair()
	v.continueFromRW = append(v.continueFromRW, flowset.EmptyPair())

	v.withContext(ctxRead, func() { v.walkField(n, "condition") })
	v.walkField(n, "body")
	v.joinRW(v.popContinue())
	v.walkField(n, "update")

	v.withContext(ctxRead, func() { v.walkField(n, "condition") })

	v.joinRW(afterZero)
	v.joinRW(v.popBreak())

	v.popScope()
	return false
}

// Field access -----------------------------------------------------------

// Visit_field_access only tracks the object being accessed.
func (v *DataFlowVisitor) Visit_field_access(n *sitter.Node) bool {
	v.withContext(ctxRead, func() { v.walkField(n, "object") })
	return false
}

// Visit_method_invocation reads both the receiver and the arguments.
func (v *DataFlowVisitor) Visit_method_invocation(n *sitter.Node) bool {
	v.withContext(ctxRead, func() { v.walkField(n, "object") })
	v.withContext(ctxRead, func() { v.walkField(n, "arguments") })
	return false
}

// Visit_object_creation_expression reads the constructor arguments.
func (v *DataFlowVisitor) Visit_object_creation_expression(n *sitter.Node) bool {
	v.withContext(ctxRead, func() { v.walkField(n, "arguments") })
	return false
}

// Assignments --------------------------------------------------------

// Visit_variable_declarator reads the initializer before writing the
// declared name.
func (v *DataFlowVisitor) Visit_variable_declarator(n *sitter.Node) bool {
	v.withContext(ctxRead, func() { v.walkField(n, "value") })
	v.withContext(ctxWrite, func() { v.walkField(n, "name") })
	return false
}

// Visit_assignment_expression reads the right-hand side before writing the
// left.
func (v *DataFlowVisitor) Visit_assignment_expression(n *sitter.Node) bool {
	v.withContext(ctxRead, func() { v.walkField(n, "right") })
	v.withContext(ctxWrite, func() { v.walkField(n, "left") })
	return false
}

// Visit_update_expression handles `x++`/`--x`: the operand is both read
// (its prior value) and written (its new value).
func (v *DataFlowVisitor) Visit_update_expression(n *sitter.Node) bool {
	v.withContext(ctxRead, func() { v.walkChildren(n) })
	v.withContext(ctxWrite, func() { v.walkChildren(n) })
	return false
}

// Visit_resource handles a try-with-resources binding: read the
// initializer, write the bound name.
func (v *DataFlowVisitor) Visit_resource(n *sitter.Node) bool {
	v.withContext(ctxRead, func() { v.walkField(n, "value") })
	v.withContext(ctxWrite, func() { v.walkField(n, "name") })
	return false
}

// Visit_lambda_expression analyzes parameters and body against a saved
// flow snapshot, then discards the result — same rationale as Python's
// lambda handling: a lambda body may run later, or more than once.
func (v *DataFlowVisitor) Visit_lambda_expression(n *sitter.Node) bool {
	v.pushScope("<lambda>")
	v.returnsFromRW = append(v.returnsFromRW, flowset.EmptyPair())
	saved := v.copyRW()

	v.withContext(ctxWrite, func() { v.walkField(n, "parameters") })
	v.walkField(n, "body")

	v.restoreRW(saved)

	v.popScope()
	v.returnsFromRW = v.returnsFromRW[:len(v.returnsFromRW)-1]
	return false
}

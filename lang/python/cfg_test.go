package python_test

import (
	"context"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gocodewalk/pgraph/graph"
	"github.com/gocodewalk/pgraph/lang/python"
	"github.com/gocodewalk/pgraph/source"
)

func buildCFG(t *testing.T, code string) (*graph.Graph, *sitter.Node) {
	t.Helper()
	tree, err := source.Parse(context.Background(), []byte(code), source.Python)
	require.NoError(t, err)
	root := tree.RootNode()

	g := graph.New()
	for _, tok := range source.Tokens(root, []byte(code)) {
		g.AddToken(tok.Node, tok.Text)
	}
	python.NewVisitor(g, []byte(code)).Run(root)
	return g, root
}

func stmtAt(root *sitter.Node, idx int) *sitter.Node { return root.Child(idx) }

func TestVisitor_LinksSequentialStatements(t *testing.T) {
	g, root := buildCFG(t, "a = 1\nb = 2\n")

	first := g.AddSyntaxNode(stmtAt(root, 0))
	second := g.AddSyntaxNode(stmtAt(root, 1))

	assert.Contains(t, g.Successors(first, graph.ControlFlow), second)
}

func TestVisitor_IfElseJoinsBranches(t *testing.T) {
	code := "if c:\n    a = 1\nelse:\n    b = 2\nz = 3\n"
	g, root := buildCFG(t, code)

	ifStmt := stmtAt(root, 0)
	tail := g.AddSyntaxNode(stmtAt(root, 1)) // z = 3

	consequence := ifStmt.ChildByFieldName("consequence").Child(0)
	elseClause := ifStmt.ChildByFieldName("alternative")
	alternative := elseClause.ChildByFieldName("body").Child(0)

	consNode := g.AddSyntaxNode(consequence)
	altNode := g.AddSyntaxNode(alternative)

	assert.Contains(t, g.Predecessors(tail, graph.ControlFlow), consNode)
	assert.Contains(t, g.Predecessors(tail, graph.ControlFlow), altNode)
}

func TestVisitor_ReturnEmptiesTailSet(t *testing.T) {
	code := "def f():\n    return 1\n    a = 2\n"
	g, root := buildCFG(t, code)

	fn := root.Child(0)
	body := fn.ChildByFieldName("body")
	ret := body.Child(0)
	unreachable := body.Child(1)

	retNode := g.AddSyntaxNode(ret)
	unreachableNode := g.AddSyntaxNode(unreachable)

	// The statement after an unconditional return has no controlflow
	// predecessor: the return emptied the tail set.
	assert.Empty(t, g.Predecessors(unreachableNode, graph.ControlFlow))

	fnNode := g.AddSyntaxNode(fn)
	assert.Contains(t, g.Successors(retNode, graph.ReturnFrom), fnNode)
}

func TestVisitor_YieldDoesNotEmptyTailSet(t *testing.T) {
	code := "def f():\n    yield 1\n    a = 2\n"
	g, root := buildCFG(t, code)

	fn := root.Child(0)
	body := fn.ChildByFieldName("body")
	yieldStmt := body.Child(0)
	next := body.Child(1)

	yieldNode := g.AddSyntaxNode(yieldStmt)
	nextNode := g.AddSyntaxNode(next)

	// Unlike return, yield resumes: the following statement is still
	// reachable from it by a controlflow edge.
	assert.Contains(t, g.Successors(yieldNode, graph.ControlFlow), nextNode)

	fnNode := g.AddSyntaxNode(fn)
	assert.Contains(t, g.Successors(yieldNode, graph.YieldFrom), fnNode)
}

func TestVisitor_WhileLoopBackEdgeAndBreak(t *testing.T) {
	code := "while c:\n    if c:\n        break\n    a = 1\nz = 2\n"
	g, root := buildCFG(t, code)

	whileStmt := stmtAt(root, 0)
	tail := g.AddSyntaxNode(stmtAt(root, 1)) // z = 2
	whileNode := g.AddSyntaxNode(whileStmt)

	innerIf := whileStmt.ChildByFieldName("body").Child(0)
	breakStmt := innerIf.ChildByFieldName("consequence").Child(0)
	breakNode := g.AddSyntaxNode(breakStmt)

	// break joins the loop's own exit tail set alongside falling off the
	// loop condition.
	assert.Contains(t, g.Predecessors(tail, graph.ControlFlow), breakNode)
	assert.Contains(t, g.Predecessors(tail, graph.ControlFlow), whileNode)
}

func TestVisitor_TryExceptFinally(t *testing.T) {
	code := "try:\n    a = 1\nexcept E:\n    b = 2\nfinally:\n    c = 3\nz = 4\n"
	g, root := buildCFG(t, code)

	tryStmt := stmtAt(root, 0)
	tryNode := g.AddSyntaxNode(tryStmt)
	tail := g.AddSyntaxNode(stmtAt(root, 1)) // z = 4

	var exceptClause, finallyClause *sitter.Node
	for i := 0; i < int(tryStmt.ChildCount()); i++ {
		switch tryStmt.Child(i).Type() {
		case "except_clause":
			exceptClause = tryStmt.Child(i)
		case "finally_clause":
			finallyClause = tryStmt.Child(i)
		}
	}
	require.NotNil(t, exceptClause)
	require.NotNil(t, finallyClause)

	// finally_clause is transparent to the CFG (its type doesn't end in
	// "statement", so the generic catch-all descends into it rather than
	// recording it as a tail itself); its own block's statement becomes
	// the sole tail, which then reaches the next top-level statement.
	finallyBlock := finallyClause.Child(int(finallyClause.ChildCount()) - 1)
	require.Equal(t, "block", finallyBlock.Type())
	finallyStmt := g.AddSyntaxNode(finallyBlock.Child(0))
	assert.Contains(t, g.Successors(finallyStmt, graph.ControlFlow), tail)
	assert.NotEmpty(t, g.Successors(tryNode, graph.ControlFlow))
}

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

func buildSubCFG(t *testing.T, code string) (*graph.Graph, *sitter.Node) {
	t.Helper()
	tree, err := source.Parse(context.Background(), []byte(code), source.Python)
	require.NoError(t, err)
	root := tree.RootNode()

	g := graph.New()
	for _, tok := range source.Tokens(root, []byte(code)) {
		g.AddToken(tok.Node, tok.Text)
	}
	python.NewSubVisitor(g, []byte(code)).Run(root)
	return g, root
}

func TestSubVisitor_AssignmentEmitsAssignedFrom(t *testing.T) {
	g, root := buildSubCFG(t, "x = 1\n")

	assignment := root.Child(0).Child(0)
	value := assignment.ChildByFieldName("right")
	target := assignment.ChildByFieldName("left")

	valueNode := g.AddToken(value, "1")
	targetNode := g.AddToken(target, "x")

	assert.Contains(t, g.Successors(valueNode, graph.AssignedFrom), targetNode)
}

func TestSubVisitor_TupleUnpackingAssignsEachTarget(t *testing.T) {
	g, root := buildSubCFG(t, "a, b = x\n")

	assignment := root.Child(0).Child(0)
	value := assignment.ChildByFieldName("right")
	valueNode := g.AddToken(value, "x")

	targets := assignment.ChildByFieldName("left")
	var aNode, bNode *graph.Node
	for i := 0; i < int(targets.ChildCount()); i++ {
		c := targets.Child(i)
		if c.Type() != "identifier" {
			continue
		}
		text := string([]byte("a, b = x\n")[c.StartByte():c.EndByte()])
		n := g.AddToken(c, text)
		if text == "a" {
			aNode = n
		} else if text == "b" {
			bNode = n
		}
	}
	require.NotNil(t, aNode)
	require.NotNil(t, bNode)

	assert.Contains(t, g.Successors(valueNode, graph.AssignedFrom), aNode)
	assert.Contains(t, g.Successors(valueNode, graph.AssignedFrom), bNode)
}

func TestSubVisitor_CallsAreSequentialFlowPoints(t *testing.T) {
	g, root := buildSubCFG(t, "f(1)\ng(2)\n")

	call1 := g.AddSyntaxNode(root.Child(0).Child(0))
	stmt2 := g.AddSyntaxNode(root.Child(1))

	assert.Contains(t, g.Successors(call1, graph.ControlFlow), stmt2)
}

func TestSubVisitor_IfElseJoinsBranchesAtExpressionLevel(t *testing.T) {
	code := "if c:\n    f(1)\nelse:\n    g(2)\nz(3)\n"
	g, root := buildSubCFG(t, code)

	ifStmt := root.Child(0)
	consequence := ifStmt.ChildByFieldName("consequence")
	call1 := g.AddSyntaxNode(consequence.Child(0).Child(0))

	elseClause := ifStmt.ChildByFieldName("alternative")
	elseBody := elseClause.ChildByFieldName("body")
	call2 := g.AddSyntaxNode(elseBody.Child(0).Child(0))

	tail := g.AddSyntaxNode(root.Child(1)) // z(3)

	assert.Contains(t, g.Predecessors(tail, graph.ControlFlow), call1)
	assert.Contains(t, g.Predecessors(tail, graph.ControlFlow), call2)
}

func TestSubVisitor_BinaryOperatorIsFlowPoint(t *testing.T) {
	code := "x = 1 + 2\n"
	g, root := buildSubCFG(t, code)

	assignment := root.Child(0).Child(0)
	binary := assignment.ChildByFieldName("right")
	require.Equal(t, "binary_operator", binary.Type())

	binaryNode := g.AddSyntaxNode(binary)
	assignmentNode := g.AddSyntaxNode(assignment)

	// the binary expression becomes a flow point feeding into the
	// assignment statement that contains it.
	assert.Contains(t, g.Successors(binaryNode, graph.ControlFlow), assignmentNode)
}

func TestSubVisitor_WhileLoopBreakJoinsExit(t *testing.T) {
	code := "while c:\n    if c:\n        break\n    f(1)\nz(2)\n"
	g, root := buildSubCFG(t, code)

	whileStmt := root.Child(0)
	tail := g.AddSyntaxNode(root.Child(1))

	innerIf := whileStmt.ChildByFieldName("body").Child(0)
	breakStmt := innerIf.ChildByFieldName("consequence").Child(0)
	breakNode := g.AddSyntaxNode(breakStmt)

	assert.Contains(t, g.Predecessors(tail, graph.ControlFlow), breakNode)
}

func TestSubVisitor_ReturnRecordsReturnFromAndEmptiesTail(t *testing.T) {
	code := "def f():\n    return 1\n    a = 2\n"
	g, root := buildSubCFG(t, code)

	fn := root.Child(0)
	body := fn.ChildByFieldName("body")
	ret := body.Child(0)
	unreachable := body.Child(1)

	retNode := g.AddSyntaxNode(ret)
	fnNode := g.AddSyntaxNode(fn)
	unreachableNode := g.AddSyntaxNode(unreachable)

	assert.Contains(t, g.Successors(retNode, graph.ReturnFrom), fnNode)
	assert.Empty(t, g.Predecessors(unreachableNode, graph.ControlFlow))
}

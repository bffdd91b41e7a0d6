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

func buildDataFlow(t *testing.T, code string) (*graph.Graph, *sitter.Node) {
	t.Helper()
	tree, err := source.Parse(context.Background(), []byte(code), source.Python)
	require.NoError(t, err)
	root := tree.RootNode()

	g := graph.New()
	for _, tok := range source.Tokens(root, []byte(code)) {
		g.AddToken(tok.Node, tok.Text)
	}
	python.NewDataFlowVisitor(g, []byte(code)).Run(root)
	return g, root
}

// collectIdentifiers returns, in source order, every "identifier" leaf whose
// text equals name.
func collectIdentifiers(root *sitter.Node, code []byte, name string) []*sitter.Node {
	var out []*sitter.Node
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n.Type() == "identifier" && string(code[n.StartByte():n.EndByte()]) == name {
			out = append(out, n)
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(root)
	return out
}

func TestDataFlowVisitor_WriteThenReadEmitsLastMayWriteAndOccurrenceOf(t *testing.T) {
	code := "x = 1\nprint(x)\n"
	g, root := buildDataFlow(t, code)

	xs := collectIdentifiers(root, []byte(code), "x")
	require.Len(t, xs, 2)

	writeNode := g.AddToken(xs[0], "x")
	readNode := g.AddToken(xs[1], "x")

	assert.Contains(t, g.Successors(writeNode, graph.LastMayWrite), readNode)

	sym := g.AddSymbol("x")
	assert.Contains(t, g.Successors(writeNode, graph.OccurrenceOf), sym)
	assert.Contains(t, g.Successors(readNode, graph.OccurrenceOf), sym)
}

func TestDataFlowVisitor_SequentialReadsEmitNextMayUse(t *testing.T) {
	code := "f(x)\ng(x)\n"
	g, root := buildDataFlow(t, code)

	xs := collectIdentifiers(root, []byte(code), "x")
	require.Len(t, xs, 2)

	first := g.AddToken(xs[0], "x")
	second := g.AddToken(xs[1], "x")

	assert.Contains(t, g.Successors(first, graph.NextMayUse), second)
}

func TestDataFlowVisitor_FunctionScopesIsolateSameName(t *testing.T) {
	code := "def f():\n    x = 1\n    print(x)\n\ndef g():\n    x = 2\n    print(x)\n"
	g, root := buildDataFlow(t, code)

	xs := collectIdentifiers(root, []byte(code), "x")
	require.Len(t, xs, 4)

	fWrite, fRead := g.AddToken(xs[0], "x"), g.AddToken(xs[1], "x")
	gWrite, gRead := g.AddToken(xs[2], "x"), g.AddToken(xs[3], "x")

	assert.Contains(t, g.Successors(fWrite, graph.LastMayWrite), fRead)
	assert.Contains(t, g.Successors(gWrite, graph.LastMayWrite), gRead)

	assert.NotContains(t, g.Successors(fWrite, graph.LastMayWrite), gRead)
	assert.NotContains(t, g.Successors(gWrite, graph.LastMayWrite), fRead)
}

func TestDataFlowVisitor_IfElseJoinsWritesFromBothBranches(t *testing.T) {
	code := "if c:\n    x = 1\nelse:\n    x = 2\nprint(x)\n"
	g, root := buildDataFlow(t, code)

	xs := collectIdentifiers(root, []byte(code), "x")
	require.Len(t, xs, 3)

	consequenceWrite := g.AddToken(xs[0], "x")
	alternativeWrite := g.AddToken(xs[1], "x")
	read := g.AddToken(xs[2], "x")

	assert.Contains(t, g.Successors(consequenceWrite, graph.LastMayWrite), read)
	assert.Contains(t, g.Successors(alternativeWrite, graph.LastMayWrite), read)
}

func TestDataFlowVisitor_LambdaDiscardsItsOwnFlow(t *testing.T) {
	code := "y = 1\nf = lambda: y\nprint(y)\n"
	g, root := buildDataFlow(t, code)

	ys := collectIdentifiers(root, []byte(code), "y")
	require.Len(t, ys, 3)

	writeY := g.AddToken(ys[0], "y")
	lambdaY := g.AddToken(ys[1], "y")
	printY := g.AddToken(ys[2], "y")

	// the write before the lambda reaches both the read inside it and the
	// read after it directly...
	assert.Contains(t, g.Successors(writeY, graph.LastMayWrite), lambdaY)
	assert.Contains(t, g.Successors(writeY, graph.LastMayWrite), printY)

	// ...but the lambda's own internal read is not threaded into the flow
	// that follows it.
	assert.NotContains(t, g.Successors(lambdaY, graph.NextMayUse), printY)
}

package java_test

import (
	"context"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gocodewalk/pgraph/graph"
	"github.com/gocodewalk/pgraph/lang/java"
	"github.com/gocodewalk/pgraph/source"
)

func buildJavaCFG(t *testing.T, code string) (*graph.Graph, *sitter.Node) {
	t.Helper()
	tree, err := source.Parse(context.Background(), []byte(code), source.Java)
	require.NoError(t, err)
	root := tree.RootNode()
	require.False(t, source.HasErrorNode(root), "fixture must parse cleanly")

	g := graph.New()
	for _, tok := range source.Tokens(root, []byte(code)) {
		g.AddToken(tok.Node, tok.Text)
	}
	java.NewVisitor(g, []byte(code)).Run(root)
	return g, root
}

func findFirst(root *sitter.Node, nodeType string) *sitter.Node {
	if root.Type() == nodeType {
		return root
	}
	for i := 0; i < int(root.ChildCount()); i++ {
		if found := findFirst(root.Child(i), nodeType); found != nil {
			return found
		}
	}
	return nil
}

// bodyStatements returns a block's direct statement children, dropping the
// literal "{" / "}" punctuation tokens.
func bodyStatements(block *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for i := 0; i < int(block.ChildCount()); i++ {
		c := block.Child(i)
		if c.Type() == "{" || c.Type() == "}" {
			continue
		}
		out = append(out, c)
	}
	return out
}

func TestVisitor_LinksSequentialStatements(t *testing.T) {
	code := "class C {\n  void f() {\n    a = 1;\n    b = 2;\n  }\n}\n"
	g, root := buildJavaCFG(t, code)

	method := findFirst(root, "method_declaration")
	stmts := bodyStatements(method.ChildByFieldName("body"))
	require.Len(t, stmts, 2)

	first := g.AddSyntaxNode(stmts[0])
	second := g.AddSyntaxNode(stmts[1])

	assert.Contains(t, g.Successors(first, graph.ControlFlow), second)
}

func TestVisitor_IfElseJoinsBranches(t *testing.T) {
	code := "class C {\n  void f() {\n" +
		"    if (c) {\n      a = 1;\n    } else {\n      b = 2;\n    }\n" +
		"    z = 3;\n  }\n}\n"
	g, root := buildJavaCFG(t, code)

	method := findFirst(root, "method_declaration")
	stmts := bodyStatements(method.ChildByFieldName("body"))
	require.Len(t, stmts, 2)

	ifStmt := stmts[0]
	tail := g.AddSyntaxNode(stmts[1])

	consequence := bodyStatements(ifStmt.ChildByFieldName("consequence"))[0]
	alternative := bodyStatements(ifStmt.ChildByFieldName("alternative"))[0]

	consNode := g.AddSyntaxNode(consequence)
	altNode := g.AddSyntaxNode(alternative)

	assert.Contains(t, g.Predecessors(tail, graph.ControlFlow), consNode)
	assert.Contains(t, g.Predecessors(tail, graph.ControlFlow), altNode)
}

func TestVisitor_ReturnEmptiesTailSetAndRecordsReturnFrom(t *testing.T) {
	code := "class C {\n  int f() {\n    return 1;\n    int a = 2;\n  }\n}\n"
	g, root := buildJavaCFG(t, code)

	method := findFirst(root, "method_declaration")
	stmts := bodyStatements(method.ChildByFieldName("body"))
	require.Len(t, stmts, 2)

	retNode := g.AddSyntaxNode(stmts[0])
	unreachableNode := g.AddSyntaxNode(stmts[1])
	methodNode := g.AddSyntaxNode(method)

	assert.Empty(t, g.Predecessors(unreachableNode, graph.ControlFlow))
	assert.Contains(t, g.Successors(retNode, graph.ReturnFrom), methodNode)
}

func TestVisitor_WhileLoopBackEdgeAndBreak(t *testing.T) {
	code := "class C {\n  void f() {\n" +
		"    while (c) {\n      if (c) {\n        break;\n      }\n      a = 1;\n    }\n" +
		"    z = 2;\n  }\n}\n"
	g, root := buildJavaCFG(t, code)

	method := findFirst(root, "method_declaration")
	stmts := bodyStatements(method.ChildByFieldName("body"))
	require.Len(t, stmts, 2)

	whileStmt := stmts[0]
	whileNode := g.AddSyntaxNode(whileStmt)
	tail := g.AddSyntaxNode(stmts[1])

	innerIf := bodyStatements(whileStmt.ChildByFieldName("body"))[0]
	breakStmt := bodyStatements(innerIf.ChildByFieldName("consequence"))[0]
	breakNode := g.AddSyntaxNode(breakStmt)

	assert.Contains(t, g.Predecessors(tail, graph.ControlFlow), breakNode)
	assert.Contains(t, g.Predecessors(tail, graph.ControlFlow), whileNode)
}

func TestVisitor_DoWhileBehavesAsSingleBackEdgeNode(t *testing.T) {
	code := "class C {\n  void f() {\n    do {\n      a = 1;\n    } while (c);\n    z = 2;\n  }\n}\n"
	g, root := buildJavaCFG(t, code)

	method := findFirst(root, "method_declaration")
	stmts := bodyStatements(method.ChildByFieldName("body"))
	require.Len(t, stmts, 2)

	doStmt := stmts[0]
	doNode := g.AddSyntaxNode(doStmt)
	tail := g.AddSyntaxNode(stmts[1])

	assert.Contains(t, g.Predecessors(tail, graph.ControlFlow), doNode)
}

func TestVisitor_LabeledBreakJoinsOuterLoopExit(t *testing.T) {
	code := "class C {\n  void f() {\n" +
		"    outer: while (c) {\n      while (d) {\n        break outer;\n      }\n      a = 1;\n    }\n" +
		"    z = 2;\n  }\n}\n"
	g, root := buildJavaCFG(t, code)

	method := findFirst(root, "method_declaration")
	stmts := bodyStatements(method.ChildByFieldName("body"))
	require.Len(t, stmts, 2)

	tail := g.AddSyntaxNode(stmts[1])

	labeled := stmts[0]
	require.Equal(t, "labeled_statement", labeled.Type())
	outerWhile := labeled.Child(2)
	innerWhile := bodyStatements(outerWhile.ChildByFieldName("body"))[0]
	breakStmt := bodyStatements(innerWhile.ChildByFieldName("body"))[0]
	breakNode := g.AddSyntaxNode(breakStmt)

	// a labeled break on "outer" exits the outer loop directly, joining the
	// statement following the labeled statement rather than the inner
	// loop's own exit.
	assert.Contains(t, g.Predecessors(tail, graph.ControlFlow), breakNode)
}

func TestVisitor_TryCatchFinally(t *testing.T) {
	code := "class C {\n  void f() {\n" +
		"    try {\n      a = 1;\n    } catch (E e) {\n      b = 2;\n    } finally {\n      c = 3;\n    }\n" +
		"    z = 4;\n  }\n}\n"
	g, root := buildJavaCFG(t, code)

	method := findFirst(root, "method_declaration")
	stmts := bodyStatements(method.ChildByFieldName("body"))
	require.Len(t, stmts, 2)

	tryStmt := stmts[0]
	tryNode := g.AddSyntaxNode(tryStmt)
	tail := g.AddSyntaxNode(stmts[1])

	finallyClause := findFirst(tryStmt, "finally_clause")
	require.NotNil(t, finallyClause)
	finallyBlock := findFirst(finallyClause, "block")
	finallyStmt := bodyStatements(finallyBlock)[0]
	finallyNode := g.AddSyntaxNode(finallyStmt)

	assert.Contains(t, g.Successors(finallyNode, graph.ControlFlow), tail)
	assert.NotEmpty(t, g.Successors(tryNode, graph.ControlFlow))
}

package flowset_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gocodewalk/pgraph/graph"
	"github.com/gocodewalk/pgraph/lang/flowset"
	"github.com/gocodewalk/pgraph/source"
)

func twoTokens(t *testing.T) (*graph.Graph, *graph.Node, *graph.Node) {
	t.Helper()
	tree, err := source.Parse(context.Background(), []byte("x = 1\n"), source.Python)
	require.NoError(t, err)
	tokens := source.Tokens(tree.RootNode(), []byte("x = 1\n"))
	g := graph.New()
	for _, tok := range tokens {
		g.AddToken(tok.Node, tok.Text)
	}
	return g, g.Tokens()[0], g.Tokens()[1]
}

func TestSet_AddCloneUnionEach(t *testing.T) {
	g, a, b := twoTokens(t)

	s := flowset.NewSet()
	s.Add(a)

	clone := s.Clone()
	clone.Add(b)

	var fromS, fromClone []*graph.Node
	s.Each(g, func(n *graph.Node) { fromS = append(fromS, n) })
	clone.Each(g, func(n *graph.Node) { fromClone = append(fromClone, n) })

	assert.Equal(t, []*graph.Node{a}, fromS)
	assert.ElementsMatch(t, []*graph.Node{a, b}, fromClone)
}

func TestSet_UnionWithNil(t *testing.T) {
	g, a, _ := twoTokens(t)
	s := flowset.NewSet()
	s.Add(a)

	var nilSet *flowset.Set
	union := s.Union(nilSet)

	var seen []*graph.Node
	union.Each(g, func(n *graph.Node) { seen = append(seen, n) })
	assert.Equal(t, []*graph.Node{a}, seen)
}

func TestSet_NilReceiverIsEmpty(t *testing.T) {
	g, _, _ := twoTokens(t)
	var nilSet *flowset.Set

	called := false
	nilSet.Each(g, func(*graph.Node) { called = true })
	assert.False(t, called)

	assert.NotNil(t, nilSet.Clone())
}

func TestMap_Merge(t *testing.T) {
	g, a, b := twoTokens(t)

	sa := flowset.NewSet()
	sa.Add(a)
	sb := flowset.NewSet()
	sb.Add(b)

	x := flowset.Map{"v": sa}
	y := flowset.Map{"v": sb, "w": sb}

	merged := flowset.Merge(x, y)

	var vMembers []*graph.Node
	merged.Get("v").Each(g, func(n *graph.Node) { vMembers = append(vMembers, n) })
	assert.ElementsMatch(t, []*graph.Node{a, b}, vMembers)

	var wMembers []*graph.Node
	merged.Get("w").Each(g, func(n *graph.Node) { wMembers = append(wMembers, n) })
	assert.Equal(t, []*graph.Node{b}, wMembers)

	assert.Nil(t, merged.Get("unseen"))
}

func TestMergePair(t *testing.T) {
	g, a, b := twoTokens(t)

	sa := flowset.NewSet()
	sa.Add(a)
	sb := flowset.NewSet()
	sb.Add(b)

	p1 := flowset.Pair{Reads: flowset.Map{"v": sa}, Writes: flowset.Map{}}
	p2 := flowset.Pair{Reads: flowset.Map{"v": sb}, Writes: flowset.Map{}}

	merged := flowset.MergePair(p1, p2)
	var reads []*graph.Node
	merged.Reads.Get("v").Each(g, func(n *graph.Node) { reads = append(reads, n) })
	assert.ElementsMatch(t, []*graph.Node{a, b}, reads)
}

func TestEmptyPair(t *testing.T) {
	p := flowset.EmptyPair()
	assert.NotNil(t, p.Reads)
	assert.NotNil(t, p.Writes)
	assert.Empty(t, p.Reads)
	assert.Empty(t, p.Writes)
}

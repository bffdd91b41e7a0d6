package astvisit_test

import (
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/stretchr/testify/assert"

	"github.com/gocodewalk/pgraph/astvisit"
)

type countingVisitor struct {
	label string
	seen  *[]string
	prune string
}

func (c *countingVisitor) Visit(n *sitter.Node) bool {
	*c.seen = append(*c.seen, c.label+":"+n.Type())
	return n.Type() != c.prune
}

func TestComposition_RunsEachSubEngineShortCircuitingOnPrune(t *testing.T) {
	root := parsePython(t, "f(1, 2)\n")

	var seen []string
	first := &countingVisitor{label: "first", seen: &seen, prune: "call"}
	second := &countingVisitor{label: "second", seen: &seen, prune: "__never__"}

	c := astvisit.NewComposition(first, second)
	c.Walk(root)

	// "first" sees the "call" node and requests pruning; Composition.Walk
	// short-circuits the remaining sub-engines for that node, so "second"
	// never dispatches on "call" or anything beneath it.
	assert.Contains(t, seen, "first:call")
	assert.NotContains(t, seen, "second:call")
	for _, s := range seen {
		assert.NotEqual(t, "second:identifier", s)
		assert.NotEqual(t, "second:integer", s)
	}
}

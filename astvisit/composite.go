package astvisit

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// Composition holds an ordered list of sub-engines and walks all of them
// together in a single pass: at each node it runs each sub-engine's
// dispatch in order and short-circuits (skipping the remaining
// sub-engines for that node) on the first one that requests pruning.
type Composition struct {
	engines []*Engine
}

// NewComposition builds a Composition over visitor values, each turned
// into its own Engine.
func NewComposition(visitors ...interface{}) *Composition {
	c := &Composition{engines: make([]*Engine, len(visitors))}
	for i, v := range visitors {
		c.engines[i] = New(v)
	}
	return c
}

// Walk performs a single pre-order traversal, dispatching to every
// sub-engine at each node.
func (c *Composition) Walk(root *sitter.Node) {
	cur := root
	for cur != nil {
		prune := false
		for _, e := range c.engines {
			if e.dispatch(cur) {
				prune = true
				break
			}
		}
		if !prune && cur.ChildCount() > 0 {
			cur = cur.Child(0)
			continue
		}
		cur = advance(cur, root)
	}
}

package graph

// Representer returns n's representer: n itself if n is a TokenKind node,
// otherwise the lexically leftmost token reachable from n via child edges
// (BFS over the child-edge subtree, picking the minimum by token ordinal).
// Returns nil if n has no token descendants (e.g. an ERROR subtree that was
// pruned before any of its leaves became tokens).
func (g *Graph) Representer(n *Node) *Node {
	if n.kind == TokenKind {
		return n
	}
	var best *Node
	queue := []*Node{n}
	seen := map[int]bool{n.index: true}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.kind == TokenKind {
			if best == nil || cur.tokenOrdinal < best.tokenOrdinal {
				best = cur
			}
			continue
		}
		for _, child := range g.Successors(cur, Child) {
			if !seen[child.index] {
				seen[child.index] = true
				queue = append(queue, child)
			}
		}
	}
	return best
}

// TokensOnly returns a derived graph containing only token vertices: every
// non-syntax edge of the original graph is re-emitted between the
// representers of its endpoints (dropped if either endpoint has no
// representer); child/sibling edges are dropped entirely; next_token edges
// are preserved verbatim.
func (g *Graph) TokensOnly() *Graph {
	out := New()
	for _, t := range g.tokens {
		out.AddToken(t.ast, t.text)
	}
	for _, e := range g.Edges() {
		switch e.Label {
		case Child, Sibling, NextToken:
			continue
		}
		ru, rv := g.Representer(e.Src), g.Representer(e.Tgt)
		if ru == nil || rv == nil {
			continue
		}
		newSrc := out.lookup(ru.key)
		newTgt := out.lookup(rv.key)
		if newSrc == nil || newTgt == nil {
			continue
		}
		out.AddRelation(newSrc, newTgt, e.Label)
	}
	return out
}

package astvisit

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// Engine performs an iterative, pre-order walk of an AST, dispatching to a
// two-level (node-type, field) handler table built once from a visitor
// value's method set (see buildTable).
type Engine struct {
	table map[dispatchKey]Handler
}

// New builds an Engine from visitor's Visit*/Visit methods. Unless visitor
// itself defines Visit_ERROR, an ERROR node is still passed to the generic
// Visit handler (if any) and is then pruned.
func New(visitor interface{}) *Engine {
	table := buildTable(visitor)
	if _, ok := table[dispatchKey{"ERROR", wildcardField}]; !ok {
		generic := table[dispatchKey{"ast", wildcardField}]
		table[dispatchKey{"ERROR", wildcardField}] = func(n *sitter.Node) bool {
			if generic != nil {
				generic(n)
			}
			return false
		}
	}
	return &Engine{table: table}
}

// Walk performs the pre-order traversal of root, invoking dispatch at each
// node reached. It stores only the current node: descent is child[0],
// forward movement is next-sibling, and running out of siblings ascends
// until one exists, bounded above by root.
func (e *Engine) Walk(root *sitter.Node) {
	cur := root
	for cur != nil {
		prune := e.dispatch(cur)
		if !prune && cur.ChildCount() > 0 {
			cur = cur.Child(0)
			continue
		}
		cur = advance(cur, root)
	}
}

// dispatch resolves and invokes handlers for n, returning true if the
// subtree rooted at n should be pruned (not descended into).
//
// A node-type-specific handler, when registered, stands in for the
// generic "ast" handler rather than running alongside it — matching the
// override-with-fallback shape every concrete visitor in this codebase is
// written against (a type handler that handles its own children and
// returns false relies on the generic handler staying silent for that
// node).
func (e *Engine) dispatch(n *sitter.Node) bool {
	cont := true
	if h, ok := e.table[dispatchKey{n.Type(), wildcardField}]; ok {
		if !h(n) {
			cont = false
		}
	} else if h, ok := e.table[dispatchKey{"ast", wildcardField}]; ok {
		if !h(n) {
			cont = false
		}
	}
	if !cont {
		return true
	}
	for key, h := range e.table {
		if key.field == wildcardField || key.nodeType != n.Type() {
			continue
		}
		child := n.ChildByFieldName(key.field)
		if child == nil {
			continue
		}
		if !h(child) {
			cont = false
		}
	}
	return !cont
}

// advance finds the next node to visit after origin's subtree is done
// (either exhausted or pruned): first a sibling, else the nearest ancestor
// (bounded by root) that has one. A candidate sibling identical to origin
// by type+span is treated as absent, defending against malformed subtrees
// whose sibling pointers form a cycle back to a node already visited.
func advance(origin, root *sitter.Node) *sitter.Node {
	node := origin
	for node != root {
		if sib := node.NextSibling(); sib != nil && !sameSpan(sib, origin) {
			return sib
		}
		parent := node.Parent()
		if parent == nil {
			return nil
		}
		node = parent
	}
	return nil
}

func sameSpan(a, b *sitter.Node) bool {
	if a.Type() != b.Type() {
		return false
	}
	as, ae := a.StartPoint(), a.EndPoint()
	bs, be := b.StartPoint(), b.EndPoint()
	return as == bs && ae == be
}

// Package astvisit implements the iterative, pre-order AST visitor engine:
// per-node-type and per-field-edge dispatch resolved once from a visitor
// value's method set, ERROR-node skipping, and defense against malformed
// sibling cycles.
package astvisit

import (
	"reflect"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Handler is invoked at a dispatch point. Returning false requests that the
// engine prune the subtree rooted at the node it was given.
type Handler func(n *sitter.Node) bool

type dispatchKey struct {
	nodeType string
	field    string
}

const wildcardField = "all"

// handlerMethodType is the reflect signature every Visit* method must
// match once bound to its receiver: func(*sitter.Node) bool.
var handlerMethodType = reflect.TypeOf((func(*sitter.Node) bool)(nil))

// buildTable parses visitor's exported "Visit"/"Visit_<name>" methods into
// a two-level (node-type, field) dispatch table, per the registration
// rules in the engine's contract:
//
//   - Visit            -> ("ast", "all")
//   - Visit_foo        -> ("foo", "all") AND ("", "foo")
//   - Visit_foo_bar    -> ("foo_bar", "all") AND ("foo", "bar")
//
// Later-registered methods win on key collisions, matching reflect's
// alphabetical NumMethod order.
func buildTable(visitor interface{}) map[dispatchKey]Handler {
	table := map[dispatchKey]Handler{}
	v := reflect.ValueOf(visitor)
	t := v.Type()
	for i := 0; i < t.NumMethod(); i++ {
		m := t.Method(i)
		if m.Name != "Visit" && !strings.HasPrefix(m.Name, "Visit_") {
			continue
		}
		bound := v.Method(i)
		if bound.Type() != handlerMethodType {
			continue
		}
		h := bound.Interface().(func(*sitter.Node) bool)

		if m.Name == "Visit" {
			table[dispatchKey{"ast", wildcardField}] = h
			continue
		}
		remainder := strings.TrimPrefix(m.Name, "Visit_")
		table[dispatchKey{remainder, wildcardField}] = h
		if idx := strings.Index(remainder, "_"); idx >= 0 {
			table[dispatchKey{remainder[:idx], remainder[idx+1:]}] = h
		} else {
			table[dispatchKey{"", remainder}] = h
		}
	}
	return table
}

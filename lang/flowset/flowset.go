// Package flowset provides the bitset-backed read/write frontiers shared
// by the Python and Java Data-Flow Visitors: both track, per qualified
// variable name, the set of node occurrences that were most recently read
// or written, and both join those frontiers the same way at branches and
// loop back-edges. Node occurrences are graph vertices, so a frontier is
// naturally a set of small dense integers (vertex indices) — a bitset.
package flowset

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/gocodewalk/pgraph/graph"
)

// Set is a set of graph node indices.
type Set struct {
	bits *bitset.BitSet
}

// NewSet returns an empty Set.
func NewSet() *Set {
	return &Set{bits: bitset.New(64)}
}

// Add records n's index as a member.
func (s *Set) Add(n *graph.Node) {
	s.bits.Set(uint(n.Index()))
}

// Clone returns an independent copy; a nil receiver clones to empty.
func (s *Set) Clone() *Set {
	if s == nil {
		return NewSet()
	}
	return &Set{bits: s.bits.Clone()}
}

// Union returns the member-wise union of s and other; either may be nil.
func (s *Set) Union(other *Set) *Set {
	if s == nil {
		return other.Clone()
	}
	if other == nil {
		return s.Clone()
	}
	return &Set{bits: s.bits.Union(other.bits)}
}

// Each resolves every member index back to its graph.Node via g and calls
// fn on it, in ascending index order. A nil receiver visits nothing.
func (s *Set) Each(g *graph.Graph, fn func(*graph.Node)) {
	if s == nil {
		return
	}
	nodes := g.Nodes()
	for i, ok := s.bits.NextSet(0); ok; i, ok = s.bits.NextSet(i + 1) {
		if int(i) < len(nodes) {
			fn(nodes[i])
		}
	}
}

// Map is a {qualified-name -> frontier} read or write context.
type Map map[string]*Set

// Get returns the frontier for key, or nil if key has never been touched —
// callers treat a nil *Set as the empty set (Each/Clone/Union all accept
// it).
func (m Map) Get(key string) *Set { return m[key] }

// Clone deep-copies every frontier in m.
func (m Map) Clone() Map {
	out := make(Map, len(m))
	for k, s := range m {
		out[k] = s.Clone()
	}
	return out
}

// Merge unions a and b frontier-by-frontier, as at the confluence of two
// control-flow branches.
func Merge(a, b Map) Map {
	out := make(Map, len(a)+len(b))
	for k, s := range a {
		out[k] = s.Clone()
	}
	for k, s := range b {
		if ex, ok := out[k]; ok {
			out[k] = ex.Union(s)
		} else {
			out[k] = s.Clone()
		}
	}
	return out
}

// Pair bundles a read frontier and a write frontier together — the unit
// jump visitors (return/break/continue) accumulate pending exits into and
// later join back at the construct they exit.
type Pair struct {
	Reads, Writes Map
}

// EmptyPair returns a Pair with no recorded reads or writes.
func EmptyPair() Pair { return Pair{Reads: Map{}, Writes: Map{}} }

// MergePair unions two Pairs frontier-by-frontier.
func MergePair(a, b Pair) Pair {
	return Pair{Reads: Merge(a.Reads, b.Reads), Writes: Merge(a.Writes, b.Writes)}
}

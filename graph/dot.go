package graph

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// EdgeColors maps an edge label to the GraphViz color used for it in ToDOT.
type EdgeColors map[Label]string

// defaultEdgeColors is used for any label ToDOT is not given an explicit
// color for.
var defaultEdgeColors = EdgeColors{
	Child:        "gray60",
	Sibling:      "gray80",
	NextToken:    "black",
	ControlFlow:  "blue",
	ReturnFrom:   "purple",
	YieldFrom:    "purple",
	LastMayWrite: "red",
	NextMayUse:   "orange",
	OccurrenceOf: "green",
	AssignedFrom: "brown",
}

// LoadEdgeColors parses a YAML document mapping edge-label strings to
// GraphViz color names, e.g.:
//
//	controlflow: blue
//	last_may_write: red
func LoadEdgeColors(r io.Reader) (EdgeColors, error) {
	var raw map[string]string
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("pgraph/graph: decode edge colors: %w", err)
	}
	colors := make(EdgeColors, len(raw))
	for k, v := range raw {
		colors[Label(k)] = v
	}
	return colors, nil
}

func nodeID(n *Node) string {
	return fmt.Sprintf("n%d", n.index)
}

func nodeLabel(n *Node) string {
	switch n.kind {
	case TokenKind:
		return fmt.Sprintf("%s\\n%q", n.ast.Type(), n.text)
	case SymbolKind:
		return "sym:" + n.symbol
	default:
		if n.ast != nil {
			return n.ast.Type()
		}
		return "?"
	}
}

// ToDOT writes a GraphViz digraph for g. Token vertices are grouped in a
// clusterNextToken subgraph with rank=same so the next_token chain renders
// as one visual line; every edge is labeled with its type and colored from
// colors, falling back to a built-in default per label.
func (g *Graph) ToDOT(w io.Writer, colors EdgeColors) error {
	colorFor := func(l Label) string {
		if colors != nil {
			if c, ok := colors[l]; ok {
				return c
			}
		}
		if c, ok := defaultEdgeColors[l]; ok {
			return c
		}
		return "black"
	}

	var b strings.Builder
	b.WriteString("digraph program_graph {\n")

	tokenSet := map[int]bool{}
	for _, t := range g.tokens {
		tokenSet[t.index] = true
	}

	for _, n := range g.nodes {
		if tokenSet[n.index] {
			continue
		}
		fmt.Fprintf(&b, "  %s [label=%q];\n", nodeID(n), nodeLabel(n))
	}

	if len(g.tokens) > 0 {
		b.WriteString("  subgraph clusterNextToken {\n")
		b.WriteString("    rank=\"same\";\n")
		for _, t := range g.tokens {
			fmt.Fprintf(&b, "    %s [label=%q];\n", nodeID(t), nodeLabel(t))
		}
		b.WriteString("  }\n")
	}

	edges := g.Edges()
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Src.index != edges[j].Src.index {
			return edges[i].Src.index < edges[j].Src.index
		}
		if edges[i].Label != edges[j].Label {
			return edges[i].Label < edges[j].Label
		}
		return edges[i].Tgt.index < edges[j].Tgt.index
	})
	for _, e := range edges {
		fmt.Fprintf(&b, "  %s -> %s [label=%q, color=%q];\n",
			nodeID(e.Src), nodeID(e.Tgt), string(e.Label), colorFor(e.Label))
	}

	b.WriteString("}\n")
	_, err := io.WriteString(w, b.String())
	return err
}

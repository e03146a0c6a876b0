// Package graph flattens an ir.Program into three append-only tables: edges,
// strings and text views.
//
// A node has no record of its own. It exists as the pair (kind, id) that
// appears on edges, with ids counted per kind from 1 in build order.
// ParentChild edges run from child to parent and form a forest rooted at the
// Unit node; StringRef edges attach a string-table entry to a node.
package graph

// NodeID identifies a node together with its kind.
type NodeID struct {
	Kind NodeKind
	ID   uint32
}

// Edge is one row of the edge table.
type Edge struct {
	Source     uint32
	SourceKind NodeKind
	Sink       uint32
	SinkKind   NodeKind
	Kind       EdgeKind
}

func (e Edge) From() NodeID {
	return NodeID{Kind: e.SourceKind, ID: e.Source}
}

// To returns the sink node. It is meaningless for StringRef and TextViewRef
// edges, whose sink id is a table index.
func (e Edge) To() NodeID {
	return NodeID{Kind: e.SinkKind, ID: e.Sink}
}

// TextView is a (row, column) source position.
type TextView struct {
	Row    uint32
	Column uint32
}

// Graph holds the three tables. Graphs built, decoded or loaded here never
// carry nil tables, so an empty table compares equal after a round trip.
type Graph struct {
	Edges     []Edge
	Strings   []string
	TextViews []TextView
}

// New returns a graph with empty tables.
func New() *Graph {
	return &Graph{Edges: []Edge{}, Strings: []string{}, TextViews: []TextView{}}
}

// StringOf returns the string referenced by a StringRef edge.
func (g *Graph) StringOf(e Edge) (string, bool) {
	if e.Kind != EdgeStringRef || int64(e.Sink) >= int64(len(g.Strings)) {
		return "", false
	}
	return g.Strings[e.Sink], true
}

// Children returns the nodes whose ParentChild edge points at parent, in
// edge order.
func (g *Graph) Children(parent NodeID) []NodeID {
	var out []NodeID
	for _, e := range g.Edges {
		if e.Kind == EdgeParentChild && e.To() == parent {
			out = append(out, e.From())
		}
	}
	return out
}

// Labels returns the strings attached to n, in edge order.
func (g *Graph) Labels(n NodeID) []string {
	var out []string
	for _, e := range g.Edges {
		if e.Kind == EdgeStringRef && e.From() == n {
			if s, ok := g.StringOf(e); ok {
				out = append(out, s)
			}
		}
	}
	return out
}

// Count returns how many distinct nodes of kind k appear on edges.
func (g *Graph) Count(k NodeKind) int {
	seen := make(map[uint32]struct{})
	for _, e := range g.Edges {
		if e.SourceKind == k {
			seen[e.Source] = struct{}{}
		}
		if e.Kind == EdgeParentChild && e.SinkKind == k {
			seen[e.Sink] = struct{}{}
		}
	}
	return len(seen)
}

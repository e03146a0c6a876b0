package graph

import (
	"fmt"
)

// InvariantError describes the first broken structural rule of a Graph.
type InvariantError struct {
	Edge    int // index into Edges, -1 when not tied to an edge
	Problem string
}

func (e *InvariantError) Error() string {
	if e.Edge < 0 {
		return "graph: " + e.Problem
	}
	return fmt.Sprintf("graph: edge %d: %s", e.Edge, e.Problem)
}

// Validate checks that kinds are known, StringRef and TextViewRef edges stay
// inside their tables, and ParentChild edges form a forest with a single
// Unit root: every node other than the Unit has exactly one parent and no
// node is its own ancestor.
func Validate(g *Graph) error {
	parent := make(map[NodeID]NodeID)
	nodes := make(map[NodeID]struct{})
	for i, e := range g.Edges {
		if !e.SourceKind.Valid() || !e.SinkKind.Valid() || !e.Kind.Valid() {
			return &InvariantError{Edge: i, Problem: "unknown kind"}
		}
		nodes[e.From()] = struct{}{}
		switch e.Kind {
		case EdgeStringRef:
			if int64(e.Sink) >= int64(len(g.Strings)) {
				return &InvariantError{Edge: i, Problem: fmt.Sprintf("string index %d out of range", e.Sink)}
			}
		case EdgeTextViewRef:
			if int64(e.Sink) >= int64(len(g.TextViews)) {
				return &InvariantError{Edge: i, Problem: fmt.Sprintf("text view index %d out of range", e.Sink)}
			}
		case EdgeParentChild:
			child := e.From()
			if child.Kind == KindUnit {
				return &InvariantError{Edge: i, Problem: "unit node has a parent"}
			}
			if _, dup := parent[child]; dup {
				return &InvariantError{Edge: i, Problem: fmt.Sprintf("%s-%d has two parents", child.Kind, child.ID)}
			}
			parent[child] = e.To()
			nodes[e.To()] = struct{}{}
		}
	}
	if len(g.Edges) == 0 {
		return nil
	}

	roots := 0
	for n := range nodes {
		if _, ok := parent[n]; ok {
			continue
		}
		if n.Kind != KindUnit {
			return &InvariantError{Edge: -1, Problem: fmt.Sprintf("%s-%d has no parent", n.Kind, n.ID)}
		}
		roots++
	}
	if roots != 1 {
		return &InvariantError{Edge: -1, Problem: fmt.Sprintf("expected one unit root, found %d", roots)}
	}

	// цикл без корня не дойдёт до Unit
	for n := range parent {
		cur, steps := n, 0
		for cur.Kind != KindUnit {
			next, ok := parent[cur]
			if !ok || steps > len(parent) {
				return &InvariantError{Edge: -1, Problem: fmt.Sprintf("%s-%d does not reach the unit", n.Kind, n.ID)}
			}
			cur = next
			steps++
		}
	}
	return nil
}

// Package graphexport writes a graph.Graph in formats meant for other tools:
// a line-per-edge diagram and an Apache Arrow IPC edge table.
package graphexport

import (
	"bufio"
	"fmt"
	"io"

	"xil/internal/graph"
)

// WriteDiagram writes one line per edge, in edge order:
//
//	KIND-id --> string               for StringRef edges
//	KIND-id --> TextView[row,column] for TextViewRef edges
//	KIND-id --> KIND-id              otherwise
func WriteDiagram(w io.Writer, g *graph.Graph) error {
	bw := bufio.NewWriter(w)
	for i, e := range g.Edges {
		line, err := DiagramLine(g, e)
		if err != nil {
			return fmt.Errorf("graphexport: edge %d: %w", i, err)
		}
		if _, err := bw.WriteString(line); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// DiagramLine renders a single edge of g.
func DiagramLine(g *graph.Graph, e graph.Edge) (string, error) {
	src := fmt.Sprintf("%s-%d", e.SourceKind, e.Source)
	switch e.Kind {
	case graph.EdgeStringRef:
		s, ok := g.StringOf(e)
		if !ok {
			return "", fmt.Errorf("string index %d out of range (%d strings)", e.Sink, len(g.Strings))
		}
		return src + " --> " + s, nil
	case graph.EdgeTextViewRef:
		if int64(e.Sink) >= int64(len(g.TextViews)) {
			return "", fmt.Errorf("text view index %d out of range (%d views)", e.Sink, len(g.TextViews))
		}
		tv := g.TextViews[e.Sink]
		return fmt.Sprintf("%s --> TextView[%d,%d]", src, tv.Row, tv.Column), nil
	default:
		return fmt.Sprintf("%s --> %s-%d", src, e.SinkKind, e.Sink), nil
	}
}

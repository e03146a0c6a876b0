package graphexport

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/ipc"
	"github.com/apache/arrow/go/v14/arrow/memory"

	"xil/internal/graph"
)

// DefaultBatchSize is the number of edges per Arrow record batch.
const DefaultBatchSize = 4096

// EdgeSchema is the Arrow schema of the exported edge table. label holds the
// resolved string of a StringRef edge and is null for every other kind.
var EdgeSchema = arrow.NewSchema([]arrow.Field{
	{Name: "source", Type: arrow.PrimitiveTypes.Uint32},
	{Name: "source_kind", Type: arrow.PrimitiveTypes.Uint8},
	{Name: "sink", Type: arrow.PrimitiveTypes.Uint32},
	{Name: "sink_kind", Type: arrow.PrimitiveTypes.Uint8},
	{Name: "edge_kind", Type: arrow.PrimitiveTypes.Uint8},
	{Name: "label", Type: arrow.BinaryTypes.String, Nullable: true},
}, nil)

type ArrowOptions struct {
	BatchSize int
	Allocator memory.Allocator
}

func (o ArrowOptions) withDefaults() ArrowOptions {
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.Allocator == nil {
		o.Allocator = memory.NewGoAllocator()
	}
	return o
}

// EdgeRow is one edge read back from an Arrow stream.
type EdgeRow struct {
	graph.Edge
	Label    string
	HasLabel bool
}

// WriteArrow writes the edge table of g as an Arrow IPC stream.
func WriteArrow(w io.Writer, g *graph.Graph, opts ArrowOptions) (err error) {
	opts = opts.withDefaults()
	writer := ipc.NewWriter(w, ipc.WithSchema(EdgeSchema), ipc.WithAllocator(opts.Allocator))
	defer func() {
		if cerr := writer.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("graphexport: close arrow writer: %w", cerr)
		}
	}()

	for start := 0; start < len(g.Edges); start += opts.BatchSize {
		end := min(start+opts.BatchSize, len(g.Edges))
		rec, err := edgeRecord(g, g.Edges[start:end], opts.Allocator)
		if err != nil {
			return err
		}
		err = writer.Write(rec)
		rec.Release()
		if err != nil {
			return fmt.Errorf("graphexport: write arrow record: %w", err)
		}
	}
	return nil
}

func edgeRecord(g *graph.Graph, edges []graph.Edge, mem memory.Allocator) (arrow.Record, error) {
	b := array.NewRecordBuilder(mem, EdgeSchema)
	defer b.Release()

	source := b.Field(0).(*array.Uint32Builder)
	sourceKind := b.Field(1).(*array.Uint8Builder)
	sink := b.Field(2).(*array.Uint32Builder)
	sinkKind := b.Field(3).(*array.Uint8Builder)
	edgeKind := b.Field(4).(*array.Uint8Builder)
	label := b.Field(5).(*array.StringBuilder)

	for _, e := range edges {
		source.Append(e.Source)
		sourceKind.Append(uint8(e.SourceKind))
		sink.Append(e.Sink)
		sinkKind.Append(uint8(e.SinkKind))
		edgeKind.Append(uint8(e.Kind))
		if e.Kind != graph.EdgeStringRef {
			label.AppendNull()
			continue
		}
		s, ok := g.StringOf(e)
		if !ok {
			return nil, fmt.Errorf("graphexport: string index %d out of range (%d strings)", e.Sink, len(g.Strings))
		}
		label.Append(s)
	}
	return b.NewRecord(), nil
}

// ReadArrowEdges reads a stream written by WriteArrow.
func ReadArrowEdges(r io.Reader, opts ArrowOptions) ([]EdgeRow, error) {
	opts = opts.withDefaults()
	rdr, err := ipc.NewReader(r, ipc.WithAllocator(opts.Allocator), ipc.WithSchema(EdgeSchema))
	if err != nil {
		return nil, fmt.Errorf("graphexport: open arrow stream: %w", err)
	}
	defer rdr.Release()

	var rows []EdgeRow
	for rdr.Next() {
		rec := rdr.Record()
		cols, err := edgeColumns(rec)
		if err != nil {
			return nil, err
		}
		for i := 0; i < int(rec.NumRows()); i++ {
			row := EdgeRow{Edge: graph.Edge{
				Source:     cols.source.Value(i),
				SourceKind: graph.NodeKind(cols.sourceKind.Value(i)),
				Sink:       cols.sink.Value(i),
				SinkKind:   graph.NodeKind(cols.sinkKind.Value(i)),
				Kind:       graph.EdgeKind(cols.edgeKind.Value(i)),
			}}
			if !cols.label.IsNull(i) {
				// Value ссылается на буфер записи
				row.Label, row.HasLabel = strings.Clone(cols.label.Value(i)), true
			}
			rows = append(rows, row)
		}
	}
	if err := rdr.Err(); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("graphexport: read arrow stream: %w", err)
	}
	return rows, nil
}

type edgeCols struct {
	source, sink                   *array.Uint32
	sourceKind, sinkKind, edgeKind *array.Uint8
	label                          *array.String
}

func edgeColumns(rec arrow.Record) (c edgeCols, err error) {
	if !rec.Schema().Equal(EdgeSchema) {
		return c, fmt.Errorf("graphexport: unexpected arrow schema %s", rec.Schema())
	}
	var ok [6]bool
	c.source, ok[0] = rec.Column(0).(*array.Uint32)
	c.sourceKind, ok[1] = rec.Column(1).(*array.Uint8)
	c.sink, ok[2] = rec.Column(2).(*array.Uint32)
	c.sinkKind, ok[3] = rec.Column(3).(*array.Uint8)
	c.edgeKind, ok[4] = rec.Column(4).(*array.Uint8)
	c.label, ok[5] = rec.Column(5).(*array.String)
	for i, good := range ok {
		if !good {
			return c, fmt.Errorf("graphexport: column %s has type %s", EdgeSchema.Field(i).Name, rec.Column(i).DataType())
		}
	}
	return c, nil
}

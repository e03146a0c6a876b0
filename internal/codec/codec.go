package codec

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf8"

	"fortio.org/safecast"

	"xil/internal/graph"
)

const (
	edgeSize     = 2 + 2 + 1 + 1 + 1
	textViewSize = 4 + 4
	countSize    = 4
	HeaderSize   = 3 * 4
)

// Header stores the byte length of each encoded section.
type Header struct {
	EdgeBytes     uint32
	TextViewBytes uint32
	StringBytes   uint32
}

func count(field string, n int) (uint32, error) {
	c, err := safecast.Conv[uint32](n)
	if err != nil {
		return 0, &RangeError{Field: field, Value: uint64(n), Max: math.MaxUint32, Err: err}
	}
	return c, nil
}

// EncodeEdges encodes the edge table.
func EncodeEdges(edges []graph.Edge) ([]byte, error) {
	n, err := count("edges.count", len(edges))
	if err != nil {
		return nil, err
	}
	buf := make([]byte, 0, countSize+len(edges)*edgeSize)
	buf = binary.LittleEndian.AppendUint32(buf, n)
	for i, e := range edges {
		src, err := safecast.Conv[uint16](e.Source)
		if err != nil {
			return nil, &RangeError{Field: fmt.Sprintf("edge[%d].source", i), Value: uint64(e.Source), Max: math.MaxUint16, Err: err}
		}
		sink, err := safecast.Conv[uint16](e.Sink)
		if err != nil {
			return nil, &RangeError{Field: fmt.Sprintf("edge[%d].sink", i), Value: uint64(e.Sink), Max: math.MaxUint16, Err: err}
		}
		if !e.SourceKind.Valid() || !e.SinkKind.Valid() || !e.Kind.Valid() {
			return nil, fmt.Errorf("edge[%d]: %w", i, ErrUnknownKind)
		}
		buf = binary.LittleEndian.AppendUint16(buf, src)
		buf = binary.LittleEndian.AppendUint16(buf, sink)
		buf = append(buf, byte(e.SourceKind), byte(e.SinkKind), byte(e.Kind))
	}
	return buf, nil
}

// DecodeEdges decodes a buffer produced by EncodeEdges.
func DecodeEdges(data []byte) ([]graph.Edge, error) {
	r := reader{data: data}
	n, err := r.u32()
	if err != nil {
		return nil, err
	}
	if uint64(n)*edgeSize > uint64(r.remaining()) {
		return nil, ErrTruncated
	}
	edges := make([]graph.Edge, n)
	for i := range edges {
		src, _ := r.u16()
		sink, _ := r.u16()
		kinds, _ := r.bytes(3)
		e := graph.Edge{
			Source:     uint32(src),
			Sink:       uint32(sink),
			SourceKind: graph.NodeKind(kinds[0]),
			SinkKind:   graph.NodeKind(kinds[1]),
			Kind:       graph.EdgeKind(kinds[2]),
		}
		if !e.SourceKind.Valid() || !e.SinkKind.Valid() || !e.Kind.Valid() {
			return nil, fmt.Errorf("edge[%d]: %w", i, ErrUnknownKind)
		}
		edges[i] = e
	}
	return edges, r.done()
}

// EncodeTextViews encodes the text view table.
func EncodeTextViews(views []graph.TextView) ([]byte, error) {
	n, err := count("textviews.count", len(views))
	if err != nil {
		return nil, err
	}
	buf := make([]byte, 0, countSize+len(views)*textViewSize)
	buf = binary.LittleEndian.AppendUint32(buf, n)
	for _, v := range views {
		buf = binary.LittleEndian.AppendUint32(buf, v.Row)
		buf = binary.LittleEndian.AppendUint32(buf, v.Column)
	}
	return buf, nil
}

// DecodeTextViews decodes a buffer produced by EncodeTextViews.
func DecodeTextViews(data []byte) ([]graph.TextView, error) {
	r := reader{data: data}
	n, err := r.u32()
	if err != nil {
		return nil, err
	}
	if uint64(n)*textViewSize > uint64(r.remaining()) {
		return nil, ErrTruncated
	}
	views := make([]graph.TextView, n)
	for i := range views {
		row, _ := r.u32()
		col, _ := r.u32()
		views[i] = graph.TextView{Row: row, Column: col}
	}
	return views, r.done()
}

// EncodeStrings encodes the string table.
func EncodeStrings(strs []string) ([]byte, error) {
	n, err := count("strings.count", len(strs))
	if err != nil {
		return nil, err
	}
	size := countSize
	for _, s := range strs {
		size += 4 + len(s)
	}
	buf := make([]byte, 0, size)
	buf = binary.LittleEndian.AppendUint32(buf, n)
	for i, s := range strs {
		if !utf8.ValidString(s) {
			return nil, fmt.Errorf("string[%d]: %w", i, ErrInvalidUTF8)
		}
		l, err := count(fmt.Sprintf("string[%d].length", i), len(s))
		if err != nil {
			return nil, err
		}
		buf = binary.LittleEndian.AppendUint32(buf, l)
		buf = append(buf, s...)
	}
	return buf, nil
}

// DecodeStrings decodes a buffer produced by EncodeStrings.
func DecodeStrings(data []byte) ([]string, error) {
	r := reader{data: data}
	n, err := r.u32()
	if err != nil {
		return nil, err
	}
	// каждая строка занимает минимум 4 байта длины
	if uint64(n)*4 > uint64(r.remaining()) {
		return nil, ErrTruncated
	}
	strs := make([]string, n)
	for i := range strs {
		l, err := r.u32()
		if err != nil {
			return nil, err
		}
		b, err := r.bytes(int(l))
		if err != nil {
			return nil, err
		}
		if !utf8.Valid(b) {
			return nil, fmt.Errorf("string[%d]: %w", i, ErrInvalidUTF8)
		}
		strs[i] = string(b)
	}
	return strs, r.done()
}

// EncodeHeader encodes h into HeaderSize bytes.
func EncodeHeader(h Header) []byte {
	buf := make([]byte, 0, HeaderSize)
	buf = binary.LittleEndian.AppendUint32(buf, h.EdgeBytes)
	buf = binary.LittleEndian.AppendUint32(buf, h.TextViewBytes)
	buf = binary.LittleEndian.AppendUint32(buf, h.StringBytes)
	return buf
}

// DecodeHeader reads the header from the first HeaderSize bytes of data.
func DecodeHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, ErrTruncated
	}
	return Header{
		EdgeBytes:     binary.LittleEndian.Uint32(data[0:4]),
		TextViewBytes: binary.LittleEndian.Uint32(data[4:8]),
		StringBytes:   binary.LittleEndian.Uint32(data[8:12]),
	}, nil
}

// Encode writes header ‖ edges ‖ textviews ‖ strings.
func Encode(g *graph.Graph) ([]byte, error) {
	edges, err := EncodeEdges(g.Edges)
	if err != nil {
		return nil, err
	}
	views, err := EncodeTextViews(g.TextViews)
	if err != nil {
		return nil, err
	}
	strs, err := EncodeStrings(g.Strings)
	if err != nil {
		return nil, err
	}
	h := Header{}
	if h.EdgeBytes, err = count("header.edges", len(edges)); err != nil {
		return nil, err
	}
	if h.TextViewBytes, err = count("header.textviews", len(views)); err != nil {
		return nil, err
	}
	if h.StringBytes, err = count("header.strings", len(strs)); err != nil {
		return nil, err
	}
	out := make([]byte, 0, HeaderSize+len(edges)+len(views)+len(strs))
	out = append(out, EncodeHeader(h)...)
	out = append(out, edges...)
	out = append(out, views...)
	out = append(out, strs...)
	return out, nil
}

// Sections splits an encoded graph into its three table buffers using the header.
func Sections(data []byte) (edges, views, strs []byte, err error) {
	h, err := DecodeHeader(data)
	if err != nil {
		return nil, nil, nil, err
	}
	rest := data[HeaderSize:]
	total := uint64(h.EdgeBytes) + uint64(h.TextViewBytes) + uint64(h.StringBytes)
	if total > uint64(len(rest)) {
		return nil, nil, nil, ErrTruncated
	}
	if total < uint64(len(rest)) {
		return nil, nil, nil, ErrTrailingBytes
	}
	edges, rest = rest[:h.EdgeBytes], rest[h.EdgeBytes:]
	views, strs = rest[:h.TextViewBytes], rest[h.TextViewBytes:]
	return edges, views, strs, nil
}

// Decode is the inverse of Encode.
func Decode(data []byte) (*graph.Graph, error) {
	eb, vb, sb, err := Sections(data)
	if err != nil {
		return nil, err
	}
	g := &graph.Graph{}
	if g.Edges, err = DecodeEdges(eb); err != nil {
		return nil, fmt.Errorf("edges: %w", err)
	}
	if g.TextViews, err = DecodeTextViews(vb); err != nil {
		return nil, fmt.Errorf("textviews: %w", err)
	}
	if g.Strings, err = DecodeStrings(sb); err != nil {
		return nil, fmt.Errorf("strings: %w", err)
	}
	return g, nil
}

type reader struct {
	data []byte
	off  int
}

func (r *reader) remaining() int { return len(r.data) - r.off }

func (r *reader) bytes(n int) ([]byte, error) {
	if n < 0 || n > r.remaining() {
		return nil, ErrTruncated
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *reader) u16() (uint16, error) {
	b, err := r.bytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *reader) u32() (uint32, error) {
	b, err := r.bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *reader) done() error {
	if r.remaining() != 0 {
		return ErrTrailingBytes
	}
	return nil
}

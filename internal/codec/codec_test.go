package codec

import (
	"encoding/hex"
	"errors"
	"math/rand/v2"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xil/internal/diag"
	"xil/internal/graph"
	"xil/internal/parser"
)

func TestEdgeWireLayout(t *testing.T) {
	data, err := EncodeEdges([]graph.Edge{{
		Source: 0x0102, SourceKind: graph.KindOpCall,
		Sink: 0x0304, SinkKind: graph.KindStatement,
		Kind: graph.EdgeParentChild,
	}})
	require.NoError(t, err)
	assert.Equal(t, "01000000"+"0201"+"0403"+"ff"+"07"+"01", hex.EncodeToString(data))
}

func TestStringAndTextViewWireLayout(t *testing.T) {
	data, err := EncodeStrings([]string{"ab", "é"})
	require.NoError(t, err)
	assert.Equal(t, "02000000"+"02000000"+"6162"+"02000000"+"c3a9", hex.EncodeToString(data))

	data, err = EncodeTextViews([]graph.TextView{{Row: 1, Column: 0x10000}})
	require.NoError(t, err)
	assert.Equal(t, "01000000"+"01000000"+"00000100", hex.EncodeToString(data))

	assert.Equal(t, "0300000004000000"+"05000000", hex.EncodeToString(EncodeHeader(Header{3, 4, 5})))
}

func TestRoundTripScenarioGraph(t *testing.T) {
	bag := diag.NewBag(10)
	p := parser.Translate("main.xil", "[module app]\n[use builtin]\n[lib \"KERNEL32.DLL\"]\nexit=\"ExitProcess\"\n[ffi]\nexit=(code:i32)void\n[fun.main]\ncall=exit,0\n", diag.BagReporter{Bag: bag})
	g, err := graph.Build(p)
	require.NoError(t, err)

	data, err := Encode(g)
	require.NoError(t, err)
	back, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, g, back)

	edges, views, strs, err := Sections(data)
	require.NoError(t, err)
	assert.Len(t, edges, 4+len(g.Edges)*7)
	assert.Len(t, views, 4)
	decoded, err := DecodeStrings(strs)
	require.NoError(t, err)
	assert.Equal(t, g.Strings, decoded)
}

func randomGraph(r *rand.Rand) *graph.Graph {
	nodeKinds := []graph.NodeKind{graph.KindUnit, graph.KindModule, graph.KindFunctionArgument, graph.KindNumber, graph.KindOpCall, graph.KindFloat64}
	g := graph.New()
	for range r.IntN(50) {
		g.Edges = append(g.Edges, graph.Edge{
			Source:     uint32(r.IntN(65536)),
			SourceKind: nodeKinds[r.IntN(len(nodeKinds))],
			Sink:       uint32(r.IntN(65536)),
			SinkKind:   nodeKinds[r.IntN(len(nodeKinds))],
			Kind:       graph.EdgeKind(r.IntN(5)),
		})
	}
	for range r.IntN(10) {
		g.TextViews = append(g.TextViews, graph.TextView{Row: r.Uint32(), Column: r.Uint32()})
	}
	alphabet := []rune("az09 \"\\,=→日")
	for range r.IntN(20) {
		rs := make([]rune, r.IntN(12))
		for i := range rs {
			rs[i] = alphabet[r.IntN(len(alphabet))]
		}
		g.Strings = append(g.Strings, string(rs))
	}
	return g
}

func TestRoundTripRandom(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for i := range 200 {
		g := randomGraph(r)

		edges, err := EncodeEdges(g.Edges)
		require.NoError(t, err)
		gotEdges, err := DecodeEdges(edges)
		require.NoError(t, err)
		require.Equal(t, g.Edges, gotEdges, "iteration %d", i)

		views, err := EncodeTextViews(g.TextViews)
		require.NoError(t, err)
		gotViews, err := DecodeTextViews(views)
		require.NoError(t, err)
		require.Equal(t, g.TextViews, gotViews, "iteration %d", i)

		strs, err := EncodeStrings(g.Strings)
		require.NoError(t, err)
		gotStrs, err := DecodeStrings(strs)
		require.NoError(t, err)
		require.Equal(t, g.Strings, gotStrs, "iteration %d", i)

		whole, err := Encode(g)
		require.NoError(t, err)
		back, err := Decode(whole)
		require.NoError(t, err)
		require.Equal(t, g, back, "iteration %d", i)
	}
}

func TestRoundTripEmptyTables(t *testing.T) {
	edges, err := DecodeEdges(must(EncodeEdges([]graph.Edge{})))
	require.NoError(t, err)
	assert.Equal(t, []graph.Edge{}, edges)

	views, err := DecodeTextViews(must(EncodeTextViews(nil)))
	require.NoError(t, err)
	assert.Equal(t, []graph.TextView{}, views)

	strs, err := DecodeStrings(must(EncodeStrings([]string{})))
	require.NoError(t, err)
	assert.Equal(t, []string{}, strs)

	g := graph.New()
	back, err := Decode(must(Encode(g)))
	require.NoError(t, err)
	assert.True(t, reflect.DeepEqual(g, back), "empty graph changed: %+v", back)
}

func must(data []byte, err error) []byte {
	if err != nil {
		panic(err)
	}
	return data
}

func TestEncodeRejectsOverflow(t *testing.T) {
	_, err := EncodeEdges([]graph.Edge{{Source: 65536, SourceKind: graph.KindUnit, SinkKind: graph.KindID, Kind: graph.EdgeStringRef}})
	var re *RangeError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "edge[0].source", re.Field)
	assert.Equal(t, uint64(65536), re.Value)

	_, err = EncodeEdges([]graph.Edge{{Sink: 1 << 20, SourceKind: graph.KindUnit, SinkKind: graph.KindID, Kind: graph.EdgeStringRef}})
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "edge[0].sink", re.Field)

	_, err = EncodeEdges([]graph.Edge{{SourceKind: 10, SinkKind: graph.KindID}})
	assert.ErrorIs(t, err, ErrUnknownKind)

	_, err = EncodeEdges([]graph.Edge{{SourceKind: graph.KindUnit, SinkKind: graph.KindID, Kind: 9}})
	assert.ErrorIs(t, err, ErrUnknownKind)

	_, err = EncodeStrings([]string{"ok", "\xff"})
	assert.ErrorIs(t, err, ErrInvalidUTF8)
}

func TestDecodeRejectsBadInput(t *testing.T) {
	good, err := EncodeEdges([]graph.Edge{{Source: 1, SourceKind: graph.KindUnit, SinkKind: graph.KindID, Kind: graph.EdgeStringRef}})
	require.NoError(t, err)

	_, err = DecodeEdges(good[:len(good)-1])
	assert.ErrorIs(t, err, ErrTruncated)
	_, err = DecodeEdges(append(append([]byte(nil), good...), 0))
	assert.ErrorIs(t, err, ErrTrailingBytes)

	bad := append([]byte(nil), good...)
	bad[len(bad)-1] = 7
	_, err = DecodeEdges(bad)
	assert.ErrorIs(t, err, ErrUnknownKind)

	// заявлено 2^32-1 записей при пустом теле
	_, err = DecodeStrings([]byte{0xff, 0xff, 0xff, 0xff})
	assert.ErrorIs(t, err, ErrTruncated)
	_, err = DecodeStrings([]byte{1, 0, 0, 0, 9, 0, 0, 0, 'a'})
	assert.ErrorIs(t, err, ErrTruncated)
	_, err = DecodeStrings([]byte{1, 0, 0, 0, 1, 0, 0, 0, 0xff})
	assert.ErrorIs(t, err, ErrInvalidUTF8)
	_, err = DecodeTextViews([]byte{1, 0, 0})
	assert.ErrorIs(t, err, ErrTruncated)

	_, err = Decode([]byte{1, 2})
	assert.ErrorIs(t, err, ErrTruncated)
	whole, err := Encode(&graph.Graph{Strings: []string{"x"}})
	require.NoError(t, err)
	_, err = Decode(whole[:len(whole)-1])
	assert.ErrorIs(t, err, ErrTruncated)
	_, err = Decode(append(whole, 0))
	assert.ErrorIs(t, err, ErrTrailingBytes)
}

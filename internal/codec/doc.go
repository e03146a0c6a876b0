// Package codec encodes graph tables into a fixed-layout little-endian byte
// format and back.
//
// Layout of each table:
//
//	edges:     u32 count, then per edge u16 source, u16 sink, u8 source kind, u8 sink kind, u8 edge kind
//	textviews: u32 count, then per entry u32 row, u32 column
//	strings:   u32 count, then per entry u32 byte length and UTF-8 bytes
//
// The header is three u32 section lengths (edges, textviews, strings). A
// whole graph is header ‖ edges ‖ textviews ‖ strings. The format carries no
// version; values that do not fit their field are rejected, never truncated.
package codec

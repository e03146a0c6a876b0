// Package parser translates IR text into an ir.Program.
//
// The format is line oriented: section headers in square brackets switch the
// current section and every other line is interpreted by that section.
//
//	[module app]
//	[use builtin]
//	[lib "libc.so.6"]
//	puts="puts"
//	[ffi]
//	puts=(s:ptr)i32
//	[fun.main]
//	const=msg,"hi"
//	call=puts,msg.ptr
//
// Translation never stops on a bad line. Every rejected line is reported
// through diag.Reporter and the resulting Program simply lacks that entry.
package parser

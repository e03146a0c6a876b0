// Package ir holds the structured form of one translated IR text unit.
//
// A Program is produced by internal/parser, merged by internal/link,
// flattened by internal/graph and executed by internal/vm. Maps of the
// textual form (libraries, ffi declarations, functions) are kept as slices in
// first-declaration order so every consumer iterates deterministically.
package ir

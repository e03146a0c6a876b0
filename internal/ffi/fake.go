package ffi

import (
	"fmt"
)

// MemLoader serves libraries from memory. It is used by tests and by
// embedders that expose Go functions to IR programs.
type MemLoader map[string]MemLibrary

// MemLibrary maps symbols to Go implementations.
type MemLibrary map[string]Func

func (m MemLoader) Open(name string) (Library, error) {
	lib, ok := m[name]
	if !ok {
		return nil, fmt.Errorf("ffi: library %s not found", name)
	}
	return &memLibrary{name: name, syms: lib}, nil
}

type memLibrary struct {
	name string
	syms MemLibrary
}

func (l *memLibrary) Name() string { return l.name }

func (l *memLibrary) Bind(symbol string, sig Signature) (Func, error) {
	fn, ok := l.syms[symbol]
	if !ok {
		return nil, fmt.Errorf("ffi: symbol %s not found in %s", symbol, l.name)
	}
	return func(args []any) (any, error) {
		if len(args) < len(sig.Params) {
			return nil, fmt.Errorf("ffi: %s expects %d arguments, got %d", symbol, len(sig.Params), len(args))
		}
		return fn(args)
	}, nil
}

func (l *memLibrary) Close() error { return nil }

package ffi

import (
	"errors"
)

// Func calls a bound foreign function. The result is nil for void
// functions, otherwise int64, uint64, float64, bool or uintptr.
type Func func(args []any) (any, error)

// Library is an opened native library.
type Library interface {
	Name() string
	Bind(symbol string, sig Signature) (Func, error)
	Close() error
}

// Loader opens libraries by name.
type Loader interface {
	Open(name string) (Library, error)
}

// ErrUnsupported is returned by NativeLoader on platforms without dynamic
// loading support.
var ErrUnsupported = errors.New("ffi: native libraries are not supported on this platform")

// NativeLoader opens libraries with the operating system's dynamic loader.
type NativeLoader struct{}

func (NativeLoader) Open(name string) (Library, error) {
	return openNative(name)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(name string) (Library, error)

func (f LoaderFunc) Open(name string) (Library, error) { return f(name) }

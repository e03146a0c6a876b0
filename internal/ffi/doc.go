// Package ffi resolves foreign function declarations against native
// libraries and calls them.
//
// Libraries are opened through a Loader. NativeLoader uses dlopen on Unix
// and LoadLibrary on Windows, and binds symbols with purego so no cgo is
// involved. Tests substitute an in-memory Loader.
//
// Values crossing the boundary are limited to int64, uint64, float64, bool,
// uintptr and string. A string passed where a ptr is expected is copied into
// a NUL-terminated buffer that lives for the duration of the call.
package ffi

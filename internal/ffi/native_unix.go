//go:build darwin || freebsd || linux || netbsd

package ffi

import (
	"fmt"

	"github.com/ebitengine/purego"
)

type dlLibrary struct {
	name   string
	handle uintptr
}

func openNative(name string) (Library, error) {
	h, err := purego.Dlopen(name, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, fmt.Errorf("ffi: dlopen %s: %w", name, err)
	}
	return &dlLibrary{name: name, handle: h}, nil
}

func (l *dlLibrary) Name() string { return l.name }

func (l *dlLibrary) Bind(symbol string, sig Signature) (Func, error) {
	addr, err := purego.Dlsym(l.handle, symbol)
	if err != nil {
		return nil, fmt.Errorf("ffi: dlsym %s in %s: %w", symbol, l.name, err)
	}
	return newFunc(symbol, addr, sig)
}

func (l *dlLibrary) Close() error {
	if l.handle == 0 {
		return nil
	}
	err := purego.Dlclose(l.handle)
	l.handle = 0
	return err
}

//go:build windows

package ffi

import (
	"fmt"

	"golang.org/x/sys/windows"
)

type dllLibrary struct {
	name string
	dll  *windows.DLL
}

func openNative(name string) (Library, error) {
	dll, err := windows.LoadDLL(name)
	if err != nil {
		return nil, fmt.Errorf("ffi: LoadLibrary %s: %w", name, err)
	}
	return &dllLibrary{name: name, dll: dll}, nil
}

func (l *dllLibrary) Name() string { return l.name }

func (l *dllLibrary) Bind(symbol string, sig Signature) (Func, error) {
	proc, err := l.dll.FindProc(symbol)
	if err != nil {
		return nil, fmt.Errorf("ffi: GetProcAddress %s in %s: %w", symbol, l.name, err)
	}
	return newFunc(symbol, proc.Addr(), sig)
}

func (l *dllLibrary) Close() error {
	if l.dll == nil {
		return nil
	}
	err := l.dll.Release()
	l.dll = nil
	return err
}

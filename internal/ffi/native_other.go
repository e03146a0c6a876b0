//go:build !(darwin || freebsd || linux || netbsd || windows)

package ffi

import "fmt"

func openNative(name string) (Library, error) {
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, name)
}

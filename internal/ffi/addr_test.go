package ffi

import "unsafe"

func bufAddr(b []byte) uintptr {
	return uintptr(unsafe.Pointer(&b[0]))
}

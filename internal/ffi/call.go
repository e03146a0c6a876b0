//go:build darwin || freebsd || linux || netbsd || windows

package ffi

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
)

// binding turns one resolved symbol address into Go functions, one per
// distinct argument shape (variadic calls pass extra arguments).
type binding struct {
	symbol string
	addr   uintptr
	sig    Signature

	mu    sync.Mutex
	funcs map[string]reflect.Value
}

func newFunc(symbol string, addr uintptr, sig Signature) (Func, error) {
	b := &binding{symbol: symbol, addr: addr, sig: sig, funcs: make(map[string]reflect.Value)}
	// регистрируем объявленную форму сразу, чтобы ошибки сигнатуры всплыли при связывании
	if _, err := b.fn(sig.Params); err != nil {
		return nil, err
	}
	return b.call, nil
}

func shapeKey(params []Type, result Type) string {
	var sb strings.Builder
	for _, p := range params {
		sb.WriteByte(byte(p) + 'a')
	}
	sb.WriteByte(':')
	sb.WriteByte(byte(result) + 'a')
	return sb.String()
}

func (b *binding) fn(params []Type) (fn reflect.Value, err error) {
	key := shapeKey(params, b.sig.Result)
	b.mu.Lock()
	defer b.mu.Unlock()
	if fn, ok := b.funcs[key]; ok {
		return fn, nil
	}

	in := make([]reflect.Type, len(params))
	for i, p := range params {
		in[i] = p.goType()
	}
	var out []reflect.Type
	if b.sig.Result != TypeVoid {
		out = []reflect.Type{b.sig.Result.goType()}
	}
	ptr := reflect.New(reflect.FuncOf(in, out, false))

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("ffi: cannot bind %s%s: %v", b.symbol, Signature{Params: params, Result: b.sig.Result}, r)
		}
	}()
	purego.RegisterFunc(ptr.Interface(), b.addr)

	fn = ptr.Elem()
	b.funcs[key] = fn
	return fn, nil
}

func (b *binding) call(args []any) (result any, err error) {
	if len(args) < len(b.sig.Params) {
		return nil, fmt.Errorf("ffi: %s expects %d arguments, got %d", b.symbol, len(b.sig.Params), len(args))
	}
	params := b.sig.Params
	if len(args) > len(params) {
		params = append(append([]Type(nil), params...), make([]Type, len(args)-len(params))...)
		for i := len(b.sig.Params); i < len(args); i++ {
			params[i] = Infer(args[i])
		}
	}
	fn, err := b.fn(params)
	if err != nil {
		return nil, err
	}

	var keep [][]byte
	in := make([]reflect.Value, len(args))
	for i, a := range args {
		v, buf, err := convert(a, params[i])
		if err != nil {
			return nil, fmt.Errorf("ffi: %s argument %d: %w", b.symbol, i, err)
		}
		if buf != nil {
			keep = append(keep, buf)
		}
		in[i] = v
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("ffi: call to %s failed: %v", b.symbol, r)
		}
	}()
	out := fn.Call(in)
	runtime.KeepAlive(keep)
	if len(out) == 0 {
		return nil, nil
	}
	return normalize(out[0]), nil
}

// convert prepares a Go value for parameter type t. A string passed as a
// pointer is copied into a NUL-terminated buffer which is returned so the
// caller keeps it alive.
func convert(a any, t Type) (reflect.Value, []byte, error) {
	gt := t.goType()
	if s, ok := a.(string); ok {
		if t != TypePtr {
			return reflect.Value{}, nil, fmt.Errorf("cannot pass string %q as %s", s, t)
		}
		buf := append([]byte(s), 0)
		return reflect.ValueOf(uintptr(unsafe.Pointer(&buf[0]))), buf, nil
	}
	if a == nil {
		return reflect.Zero(gt), nil, nil
	}
	v := reflect.ValueOf(a)
	switch {
	case t == TypeBool:
		if v.Kind() == reflect.Bool {
			return v, nil, nil
		}
		if v.CanInt() {
			return reflect.ValueOf(v.Int() != 0), nil, nil
		}
		if v.CanUint() {
			return reflect.ValueOf(v.Uint() != 0), nil, nil
		}
	case v.Kind() == reflect.Bool:
		var n int64
		if v.Bool() {
			n = 1
		}
		return reflect.ValueOf(n).Convert(gt), nil, nil
	case v.CanInt() || v.CanUint() || v.CanFloat():
		return v.Convert(gt), nil, nil
	}
	return reflect.Value{}, nil, fmt.Errorf("cannot pass %T as %s", a, t)
}

func normalize(v reflect.Value) any {
	switch {
	case v.Kind() == reflect.Bool:
		return v.Bool()
	case v.Kind() == reflect.Uintptr:
		return uintptr(v.Uint())
	case v.Kind() == reflect.Uint64:
		return v.Uint()
	case v.CanInt():
		return v.Int()
	case v.CanUint():
		return int64(v.Uint())
	case v.CanFloat():
		return v.Float()
	}
	return v.Interface()
}

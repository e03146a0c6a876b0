package ffi

import (
	"fmt"
	"reflect"
	"strings"

	"xil/internal/ir"
)

// Type is a foreign value type.
type Type uint8

const (
	TypeVoid Type = iota
	TypeI8
	TypeI16
	TypeI32
	TypeI64
	TypeU8
	TypeU16
	TypeU32
	TypeU64
	TypeF32
	TypeF64
	TypeBool
	TypePtr
)

var typeNames = [...]string{
	TypeVoid: "void",
	TypeI8:   "i8",
	TypeI16:  "i16",
	TypeI32:  "i32",
	TypeI64:  "i64",
	TypeU8:   "u8",
	TypeU16:  "u16",
	TypeU32:  "u32",
	TypeU64:  "u64",
	TypeF32:  "f32",
	TypeF64:  "f64",
	TypeBool: "bool",
	TypePtr:  "ptr",
}

// ParseType maps a declared type name to a Type. Unknown names are treated
// as pointers; the second result reports whether the name was known.
func ParseType(name string) (Type, bool) {
	name = strings.TrimSpace(name)
	for t, n := range typeNames {
		if n == name {
			return Type(t), true
		}
	}
	return TypePtr, false
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("Type(%d)", uint8(t))
}

func (t Type) goType() reflect.Type {
	switch t {
	case TypeI8:
		return reflect.TypeFor[int8]()
	case TypeI16:
		return reflect.TypeFor[int16]()
	case TypeI32:
		return reflect.TypeFor[int32]()
	case TypeI64:
		return reflect.TypeFor[int64]()
	case TypeU8:
		return reflect.TypeFor[uint8]()
	case TypeU16:
		return reflect.TypeFor[uint16]()
	case TypeU32:
		return reflect.TypeFor[uint32]()
	case TypeU64:
		return reflect.TypeFor[uint64]()
	case TypeF32:
		return reflect.TypeFor[float32]()
	case TypeF64:
		return reflect.TypeFor[float64]()
	case TypeBool:
		return reflect.TypeFor[bool]()
	case TypePtr:
		return reflect.TypeFor[uintptr]()
	}
	return nil
}

// Signature is the resolved shape of a foreign function.
type Signature struct {
	Params []Type
	Result Type
}

// SignatureOf derives the signature of d. A void parameter takes no
// argument slot and is left out.
func SignatureOf(d *ir.FfiDecl) Signature {
	sig := Signature{Params: make([]Type, 0, len(d.Params))}
	for _, p := range d.Params {
		if t, _ := ParseType(p.Type); t != TypeVoid {
			sig.Params = append(sig.Params, t)
		}
	}
	if ret := d.ReturnType(); ret != "" {
		sig.Result, _ = ParseType(ret)
	}
	return sig
}

func (s Signature) String() string {
	parts := make([]string, len(s.Params))
	for i, p := range s.Params {
		parts[i] = p.String()
	}
	return "(" + strings.Join(parts, ",") + ")" + s.Result.String()
}

// Infer picks the type used to pass v when no declared type covers it
// (extra arguments to variadic functions).
func Infer(v any) Type {
	switch v.(type) {
	case float32, float64:
		return TypeF64
	case bool:
		return TypeBool
	case uintptr, string, nil:
		return TypePtr
	}
	return TypeI64
}

// Package vm executes IR programs on a shared operand stack.
package vm

import (
	"fmt"
	"math"
	"strconv"
)

// ValueKind identifies the runtime type of a Value.
type ValueKind uint8

const (
	// VKInvalid is the zero Value.
	VKInvalid ValueKind = iota
	// VKInt represents a signed integer.
	VKInt
	// VKUint represents an unsigned integer that does not fit VKInt.
	VKUint
	// VKFloat represents a 64-bit float.
	VKFloat
	// VKBool represents a boolean (only foreign calls produce it).
	VKBool
	// VKString represents text: a decoded string literal or a string constant.
	VKString
	// VKIdent represents an operand that resolved to nothing and stays raw text.
	VKIdent
	// VKPtr represents a native address.
	VKPtr
	// VKConst represents a local bound to a constant pool entry.
	VKConst
)

// String returns a human-readable name for the value kind.
func (k ValueKind) String() string {
	switch k {
	case VKInvalid:
		return "invalid"
	case VKInt:
		return "int"
	case VKUint:
		return "uint"
	case VKFloat:
		return "float"
	case VKBool:
		return "bool"
	case VKString:
		return "string"
	case VKIdent:
		return "ident"
	case VKPtr:
		return "ptr"
	case VKConst:
		return "const"
	default:
		return fmt.Sprintf("ValueKind(%d)", k)
	}
}

// Value represents a runtime value in the VM.
type Value struct {
	Kind  ValueKind
	Int   int64     // VKInt
	Uint  uint64    // VKUint
	Float float64   // VKFloat
	Bool  bool      // VKBool
	Str   string    // VKString, VKIdent
	Ptr   uintptr   // VKPtr
	Const *Constant // VKConst
}

func IntValue(n int64) Value       { return Value{Kind: VKInt, Int: n} }
func UintValue(n uint64) Value     { return Value{Kind: VKUint, Uint: n} }
func FloatValue(f float64) Value   { return Value{Kind: VKFloat, Float: f} }
func BoolValue(b bool) Value       { return Value{Kind: VKBool, Bool: b} }
func StringValue(s string) Value   { return Value{Kind: VKString, Str: s} }
func IdentValue(s string) Value    { return Value{Kind: VKIdent, Str: s} }
func PtrValue(p uintptr) Value     { return Value{Kind: VKPtr, Ptr: p} }
func ConstValue(c *Constant) Value { return Value{Kind: VKConst, Const: c} }

// IsZero returns true if this is a zero/invalid value.
func (v Value) IsZero() bool {
	return v.Kind == VKInvalid
}

// Unbox returns the constant a VKConst value refers to, or v itself.
func (v Value) Unbox() Value {
	if v.Kind == VKConst && v.Const != nil {
		return v.Const.Value
	}
	return v
}

// IsNumeric reports whether v takes part in numeric comparison.
// Booleans count as numbers.
func (v Value) IsNumeric() bool {
	switch v.Kind {
	case VKInt, VKUint, VKFloat, VKBool:
		return true
	default:
		return false
	}
}

func (v Value) isText() bool {
	return v.Kind == VKString || v.Kind == VKIdent
}

func (v Value) String() string {
	switch v.Kind {
	case VKInvalid:
		return "<invalid>"
	case VKInt:
		return strconv.FormatInt(v.Int, 10)
	case VKUint:
		return strconv.FormatUint(v.Uint, 10)
	case VKFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case VKBool:
		return strconv.FormatBool(v.Bool)
	case VKString:
		return strconv.Quote(v.Str)
	case VKIdent:
		return v.Str
	case VKPtr:
		return fmt.Sprintf("ptr(0x%x)", v.Ptr)
	case VKConst:
		if v.Const == nil {
			return "const(<nil>)"
		}
		return fmt.Sprintf("const#%d(%s)", v.Const.ID, v.Const.Value)
	default:
		return fmt.Sprintf("<%s>", v.Kind)
	}
}

// Interface converts v into the argument form accepted by ffi.Func.
func (v Value) Interface() any {
	v = v.Unbox()
	switch v.Kind {
	case VKInt:
		return v.Int
	case VKUint:
		return v.Uint
	case VKFloat:
		return v.Float
	case VKBool:
		return v.Bool
	case VKString, VKIdent:
		return v.Str
	case VKPtr:
		return v.Ptr
	default:
		return nil
	}
}

// FromForeign converts a foreign call result into a Value.
// ok is false for a void result.
func FromForeign(r any) (v Value, ok bool) {
	switch x := r.(type) {
	case nil:
		return Value{}, false
	case int64:
		return IntValue(x), true
	case uint64:
		if x <= math.MaxInt64 {
			return IntValue(int64(x)), true
		}
		return UintValue(x), true
	case float64:
		return FloatValue(x), true
	case bool:
		return BoolValue(x), true
	case uintptr:
		return PtrValue(x), true
	case string:
		return StringValue(x), true
	case int:
		return IntValue(int64(x)), true
	}
	return IdentValue(fmt.Sprint(r)), true
}

// Equal reports loose equality: numbers compare by value across kinds, text
// compares by content whether it came from a literal or a raw identifier.
func Equal(a, b Value) bool {
	a, b = a.Unbox(), b.Unbox()
	switch {
	case a.IsNumeric() && b.IsNumeric():
		return compareNumeric(a, b) == 0
	case a.isText() && b.isText():
		return a.Str == b.Str
	case a.Kind != b.Kind:
		return false
	case a.Kind == VKPtr:
		return a.Ptr == b.Ptr
	case a.Kind == VKInvalid:
		return true
	}
	return false
}

// Compare implements cmp: -1/0/1 for two numbers, otherwise 0 when equal and -1
// when not.
func Compare(a, b Value) int64 {
	a, b = a.Unbox(), b.Unbox()
	if a.IsNumeric() && b.IsNumeric() {
		return compareNumeric(a, b)
	}
	if Equal(a, b) {
		return 0
	}
	return -1
}

func compareNumeric(a, b Value) int64 {
	if a.Kind == VKFloat || b.Kind == VKFloat {
		x, y := a.float(), b.float()
		switch {
		case x == y:
			return 0
		case x > y:
			return 1
		default:
			// NaN сравнивается как "меньше"
			return -1
		}
	}
	if a.Kind == VKUint || b.Kind == VKUint {
		// оба неотрицательны только если ни один Int не < 0
		if a.Kind != VKUint && a.signed() < 0 {
			return -1
		}
		if b.Kind != VKUint && b.signed() < 0 {
			return 1
		}
		x, y := a.unsigned(), b.unsigned()
		switch {
		case x == y:
			return 0
		case x > y:
			return 1
		default:
			return -1
		}
	}
	x, y := a.signed(), b.signed()
	switch {
	case x == y:
		return 0
	case x > y:
		return 1
	default:
		return -1
	}
}

func (v Value) signed() int64 {
	switch v.Kind {
	case VKInt:
		return v.Int
	case VKBool:
		if v.Bool {
			return 1
		}
	}
	return 0
}

func (v Value) unsigned() uint64 {
	if v.Kind == VKUint {
		return v.Uint
	}
	return uint64(v.signed()) //nolint:gosec // callers check the sign first
}

func (v Value) float() float64 {
	switch v.Kind {
	case VKFloat:
		return v.Float
	case VKUint:
		return float64(v.Uint)
	default:
		return float64(v.signed())
	}
}

package ffi

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"xil/internal/ir"
)

func TestParseType(t *testing.T) {
	for _, name := range []string{"i8", "i16", "i32", "i64", "u8", "u16", "u32", "u64", "f32", "f64", "bool", "ptr", "void"} {
		typ, known := ParseType(name)
		assert.True(t, known, name)
		assert.Equal(t, name, typ.String())
	}
	typ, known := ParseType(" char* ")
	assert.False(t, known)
	assert.Equal(t, TypePtr, typ)
}

func TestSignatureOf(t *testing.T) {
	sig := SignatureOf(&ir.FfiDecl{
		Name:    "f",
		Params:  []ir.Param{{Name: "a", Type: "i32"}, {Name: "b", Type: "cstring"}},
		Returns: " f64 ",
	})
	assert.Equal(t, Signature{Params: []Type{TypeI32, TypePtr}, Result: TypeF64}, sig)
	assert.Equal(t, "(i32,ptr)f64", sig.String())

	sig = SignatureOf(&ir.FfiDecl{Name: "g"})
	assert.Equal(t, TypeVoid, sig.Result)

	// void занимает место в объявлении, но не в вызове
	sig = SignatureOf(&ir.FfiDecl{Name: "h", Params: []ir.Param{{Name: "x", Type: "void"}, {Name: "n", Type: "i32"}}, Returns: "i32"})
	assert.Equal(t, Signature{Params: []Type{TypeI32}, Result: TypeI32}, sig)
	assert.Equal(t, "(i32)i32", sig.String())
}

func TestInfer(t *testing.T) {
	assert.Equal(t, TypeI64, Infer(int64(1)))
	assert.Equal(t, TypeF64, Infer(1.5))
	assert.Equal(t, TypeBool, Infer(true))
	assert.Equal(t, TypePtr, Infer("s"))
	assert.Equal(t, TypePtr, Infer(uintptr(0)))
}

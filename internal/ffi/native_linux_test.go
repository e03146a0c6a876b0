//go:build linux

package ffi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openLibc(t *testing.T) Library {
	t.Helper()
	lib, err := NativeLoader{}.Open("libc.so.6")
	if err != nil {
		t.Skipf("libc.so.6 not available: %v", err)
	}
	t.Cleanup(func() { _ = lib.Close() })
	return lib
}

func TestNativeLibcCalls(t *testing.T) {
	lib := openLibc(t)

	strlen, err := lib.Bind("strlen", Signature{Params: []Type{TypePtr}, Result: TypeU64})
	require.NoError(t, err)
	n, err := strlen([]any{"hello"})
	require.NoError(t, err)
	assert.Equal(t, uint64(5), n)

	abs, err := lib.Bind("abs", Signature{Params: []Type{TypeI32}, Result: TypeI32})
	require.NoError(t, err)
	v, err := abs([]any{int64(-42)})
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)

	labs, err := lib.Bind("labs", Signature{Params: []Type{TypeI64}, Result: TypeI64})
	require.NoError(t, err)
	v, err = labs([]any{int64(-1) << 40})
	require.NoError(t, err)
	assert.Equal(t, int64(1)<<40, v)

	atof, err := lib.Bind("atof", Signature{Params: []Type{TypePtr}, Result: TypeF64})
	require.NoError(t, err)
	f, err := atof([]any{"2.5"})
	require.NoError(t, err)
	assert.Equal(t, 2.5, f)
}

func TestNativeVariadicExtraArguments(t *testing.T) {
	lib := openLibc(t)

	snprintf, err := lib.Bind("snprintf", Signature{Params: []Type{TypePtr, TypeU64, TypePtr}, Result: TypeI32})
	require.NoError(t, err)

	buf := make([]byte, 32)
	n, err := snprintf([]any{bufAddr(buf), int64(len(buf)), "%d-%d", int64(7), int64(11)})
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.Equal(t, "7-11", string(buf[:4]))
}

func TestNativeErrors(t *testing.T) {
	_, err := NativeLoader{}.Open("/no/such/lib.so")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dlopen")

	lib := openLibc(t)
	_, err = lib.Bind("definitely_not_a_libc_symbol", Signature{})
	assert.Error(t, err)

	strlen, err := lib.Bind("strlen", Signature{Params: []Type{TypePtr}, Result: TypeU64})
	require.NoError(t, err)
	_, err = strlen(nil)
	assert.Error(t, err)
	_, err = strlen([]any{struct{}{}})
	assert.Error(t, err)
}

package ffi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"xil/internal/diag"
	"xil/internal/parser"
)

func TestRegistryResolution(t *testing.T) {
	bag := diag.NewBag(20)
	p := parser.Translate("main.xil", `[lib "first"]
add="add_impl"
bad="add_impl"
[lib "second"]
add="other_add"
neg="neg"
[lib "missing"]
gone="gone"
[ffi]
add=(a:i32,b:i32)i32
neg=(a:i32)i32
gone=()void
orphan=()void
bad=(x:void)i32
`, diag.BagReporter{Bag: bag})
	require.Zero(t, bag.Len())

	var calls []string
	loader := MemLoader{
		"first": {"add_impl": func(args []any) (any, error) {
			calls = append(calls, "first")
			return args[0].(int64) + args[1].(int64), nil
		}},
		"second": {
			"other_add": func(args []any) (any, error) { calls = append(calls, "second"); return int64(0), nil },
			"neg_impl":  func(args []any) (any, error) { return -args[0].(int64), nil },
		},
	}

	core, logs := observer.New(zap.WarnLevel)
	diags := diag.NewBag(20)
	r := NewRegistry(p, RegistryOptions{Loader: loader, Logger: zap.New(core), Reporter: diag.BagReporter{Bag: diags}})
	defer func() { require.NoError(t, r.Close()) }()

	assert.Equal(t, 2, r.Len())
	add, ok := r.Lookup("add")
	require.True(t, ok)
	assert.Equal(t, "first", add.Library)
	assert.Equal(t, "add_impl", add.Symbol)
	got, err := add.Call([]any{int64(2), int64(3)})
	require.NoError(t, err)
	assert.Equal(t, int64(5), got)
	assert.Equal(t, []string{"first"}, calls)

	_, err = add.Call([]any{int64(2)})
	assert.Error(t, err)

	// void-параметр выпадает из сигнатуры, объявление остаётся
	bad, ok := r.Lookup("bad")
	require.True(t, ok)
	assert.Equal(t, Signature{Params: []Type{}, Result: TypeI32}, bad.Sig)

	for _, name := range []string{"neg", "gone", "orphan"} {
		_, ok := r.Lookup(name)
		assert.False(t, ok, name)
	}

	assert.Equal(t, []diag.Code{
		diag.VMLibraryNotLoaded, // missing
		diag.VMSymbolNotFound,   // neg -> "neg" not in second
		diag.VMLibraryNotLoaded, // gone
		diag.VMSymbolNotFound,   // orphan
	}, diags.Codes())
	for _, d := range diags.Items() {
		assert.Equal(t, diag.SevWarning, d.Severity)
	}
	assert.Equal(t, 4, logs.Len())
}

func TestNilRegistry(t *testing.T) {
	var r *Registry
	_, ok := r.Lookup("x")
	assert.False(t, ok)
	assert.Zero(t, r.Len())
	assert.NoError(t, r.Close())
}

package vm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEqual(t *testing.T) {
	pool := NewConstPool()
	boxed := ConstValue(pool.Intern(IntValue(3)))

	assert.True(t, Equal(IntValue(1), BoolValue(true)))
	assert.True(t, Equal(IntValue(3), FloatValue(3)))
	assert.True(t, Equal(boxed, IntValue(3)))
	assert.True(t, Equal(StringValue("a"), IdentValue("a")))
	assert.True(t, Equal(PtrValue(8), PtrValue(8)))
	assert.False(t, Equal(PtrValue(8), IntValue(8)))
	assert.False(t, Equal(FloatValue(math.NaN()), FloatValue(math.NaN())))
	assert.False(t, Equal(StringValue("0"), IntValue(0)))
}

func TestFromForeign(t *testing.T) {
	for _, tc := range []struct {
		in   any
		want Value
	}{
		{int64(-1), IntValue(-1)},
		{uint64(7), IntValue(7)},
		{uint64(math.MaxUint64), UintValue(math.MaxUint64)},
		{2.5, FloatValue(2.5)},
		{true, BoolValue(true)},
		{uintptr(16), PtrValue(16)},
	} {
		got, ok := FromForeign(tc.in)
		assert.True(t, ok)
		assert.Equal(t, tc.want, got)
	}
	_, ok := FromForeign(nil)
	assert.False(t, ok)
}

func TestValueInterface(t *testing.T) {
	pool := NewConstPool()
	assert.Equal(t, "s", ConstValue(pool.Intern(StringValue("s"))).Interface())
	assert.Equal(t, int64(4), IntValue(4).Interface())
	assert.Equal(t, "raw", IdentValue("raw").Interface())
	assert.Nil(t, Value{}.Interface())
}

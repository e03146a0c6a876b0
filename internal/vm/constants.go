package vm

import (
	"math"
	"unsafe"
)

// Constant is one entry of the constant pool.
type Constant struct {
	ID    int
	Value Value

	buf []byte // NUL-terminated UTF-8 of a string constant
}

// Ptr returns the address of the NUL-terminated bytes of a string constant.
// The bytes live as long as the pool.
func (c *Constant) Ptr() uintptr {
	if len(c.buf) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&c.buf[0]))
}

// Bytes returns the UTF-8 length of a string constant without the terminator.
func (c *Constant) Bytes() int {
	if len(c.buf) == 0 {
		return 0
	}
	return len(c.buf) - 1
}

type constKey struct {
	kind ValueKind
	bits uint64
	str  string
}

// ConstPool deduplicates literal values for one execution.
// Equal values of the same kind share one Constant.
type ConstPool struct {
	byKey map[constKey]*Constant
	items []*Constant
}

func NewConstPool() *ConstPool {
	return &ConstPool{byKey: make(map[constKey]*Constant)}
}

// Intern returns the pool entry for v, adding it on first use.
func (p *ConstPool) Intern(v Value) *Constant {
	v = v.Unbox()
	key := constKey{kind: v.Kind}
	switch v.Kind {
	case VKInt:
		key.bits = uint64(v.Int) //nolint:gosec // bit pattern only
	case VKUint:
		key.bits = v.Uint
	case VKFloat:
		key.bits = math.Float64bits(v.Float)
	case VKBool:
		if v.Bool {
			key.bits = 1
		}
	case VKPtr:
		key.bits = uint64(v.Ptr)
	case VKString, VKIdent:
		key.str = v.Str
	}
	if c, ok := p.byKey[key]; ok {
		return c
	}
	c := &Constant{ID: len(p.items) + 1, Value: v}
	if v.isText() {
		c.buf = append([]byte(v.Str), 0)
	}
	p.byKey[key] = c
	p.items = append(p.items, c)
	return c
}

func (p *ConstPool) Len() int {
	return len(p.items)
}

// Items returns entries in the order they were first interned.
func (p *ConstPool) Items() []*Constant {
	return p.items
}

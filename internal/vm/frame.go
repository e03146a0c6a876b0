package vm

import (
	"xil/internal/ir"
	"xil/internal/source"
)

// cmpLocal is the local written by cmp and read by if.
const cmpLocal = ".cmp"

// Frame represents one function invocation. The operand stack is not part
// of it: all frames share the VM stack.
type Frame struct {
	Func   *ir.Function
	PC     int              // index of the statement being executed
	Locals map[string]Value // private to the invocation
	Labels map[string]int   // label name -> its own statement index
	Span   source.Span      // span of the current statement
}

// NewFrame creates a frame with fresh locals and the label table of fn.
// A label that appears twice resolves to its last occurrence.
func NewFrame(fn *ir.Function) *Frame {
	f := &Frame{
		Func:   fn,
		Locals: make(map[string]Value),
		Labels: make(map[string]int),
	}
	for i := range fn.Body {
		if st := &fn.Body[i]; st.Kind == ir.StmtLabel {
			f.Labels[st.Label.Name] = i
		}
	}
	return f
}

// Local returns the value bound to name.
func (f *Frame) Local(name string) (Value, bool) {
	v, ok := f.Locals[name]
	return v, ok
}

// Cmp returns the result of the last cmp in this frame, 0 before any.
func (f *Frame) Cmp() Value {
	if v, ok := f.Locals[cmpLocal]; ok {
		return v
	}
	return IntValue(0)
}

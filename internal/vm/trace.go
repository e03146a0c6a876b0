package vm

import (
	"fmt"
	"io"

	"xil/internal/ir"
	"xil/internal/source"
)

// Tracer outputs one line per executed statement.
type Tracer struct {
	w     io.Writer
	files *source.FileSet
}

// NewTracer creates a new tracer that writes to w.
func NewTracer(w io.Writer, files *source.FileSet) *Tracer {
	return &Tracer{w: w, files: files}
}

// TraceStmt traces execution of a statement.
// Format: [depth=N] <func> pc<i> <stmt> @ <file>:<line>:<col>
func (t *Tracer) TraceStmt(depth int, fn *ir.Function, pc int, st *ir.Stmt) {
	if t == nil || t.w == nil {
		return
	}
	fmt.Fprintf(t.w, "[depth=%d] %s pc%d %s @ %s\n", depth, fn.Name, pc, st, formatSpan(st.Span, t.files))
}

// TraceJump traces a taken jump.
func (t *Tracer) TraceJump(depth int, fn *ir.Function, label string, target int) {
	if t == nil || t.w == nil {
		return
	}
	fmt.Fprintf(t.w, "[depth=%d] %s jump %s -> pc%d\n", depth, fn.Name, label, target)
}

// TraceWrite traces a local binding.
func (t *Tracer) TraceWrite(name string, v Value) {
	if t == nil || t.w == nil {
		return
	}
	fmt.Fprintf(t.w, "    write %s = %s\n", name, v)
}

// TraceStack traces values pushed onto the shared stack.
func (t *Tracer) TraceStack(op string, vals []Value) {
	if t == nil || t.w == nil || len(vals) == 0 {
		return
	}
	fmt.Fprintf(t.w, "    %s", op)
	for _, v := range vals {
		fmt.Fprintf(t.w, " %s", v)
	}
	fmt.Fprintln(t.w)
}

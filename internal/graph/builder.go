package graph

import (
	"fmt"

	"fortio.org/safecast"

	"xil/internal/ir"
)

// Builder owns one graph under construction together with its per-kind id
// counters. The zero value is not usable; call NewBuilder.
type Builder struct {
	g        *Graph
	counters [256]uint32
	err      error
}

func NewBuilder() *Builder {
	return &Builder{g: New()}
}

// Node allocates the next id of kind k. Ids start at 1.
func (b *Builder) Node(k NodeKind) NodeID {
	b.counters[k]++
	return NodeID{Kind: k, ID: b.counters[k]}
}

// Parent records that child is owned by parent.
func (b *Builder) Parent(child, parent NodeID) {
	b.g.Edges = append(b.g.Edges, Edge{
		Source:     child.ID,
		SourceKind: child.Kind,
		Sink:       parent.ID,
		SinkKind:   parent.Kind,
		Kind:       EdgeParentChild,
	})
}

// Label appends s to the string table and attaches it to n.
func (b *Builder) Label(n NodeID, s string) {
	idx, err := safecast.Conv[uint32](len(b.g.Strings))
	if err != nil {
		if b.err == nil {
			b.err = fmt.Errorf("graph: string table overflow: %w", err)
		}
		return
	}
	b.g.Strings = append(b.g.Strings, s)
	b.g.Edges = append(b.g.Edges, Edge{
		Source:     n.ID,
		SourceKind: n.Kind,
		Sink:       idx,
		SinkKind:   KindID,
		Kind:       EdgeStringRef,
	})
}

// Child allocates a node of kind k, owned by parent and labelled with s.
func (b *Builder) Child(k NodeKind, parent NodeID, s string) NodeID {
	n := b.Node(k)
	b.Parent(n, parent)
	b.Label(n, s)
	return n
}

// Graph returns the built graph and the first error met while building.
func (b *Builder) Graph() (*Graph, error) {
	return b.g, b.err
}

// Build flattens p. The same Program always yields the same tables.
func Build(p *ir.Program) (*Graph, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	b := NewBuilder()

	unit := b.Node(KindUnit)
	b.Label(unit, p.Unit)

	module := b.Child(KindModule, unit, p.Module)

	use := b.Node(KindUse)
	b.Parent(use, module)
	for _, name := range p.Uses {
		b.Label(use, name)
	}

	for _, lib := range p.Libs {
		ln := b.Child(KindLibrary, module, lib.Name)
		for _, imp := range lib.Imports {
			in := b.Child(KindImportLibrary, ln, imp.Symbol)
			b.Child(KindID, in, imp.Logical)
		}
	}

	for _, d := range p.Ffi {
		fn := b.Child(KindFfi, module, d.Name)
		for _, prm := range d.Params {
			arg := b.Child(KindFunctionArgument, fn, prm.Name)
			b.Child(KindType, arg, prm.Type)
		}
		b.Child(KindType, fn, d.ReturnType())
	}

	for _, f := range p.Funcs {
		fn := b.Child(KindFunction, module, f.Name)
		for i := range f.Body {
			b.statement(fn, f.Body[i])
		}
	}

	return b.Graph()
}

// statement emits a Statement node and, for call/cmp/if/label, an operator
// node with one argument per operand.
func (b *Builder) statement(fn NodeID, st ir.Stmt) {
	sn := b.Node(KindStatement)
	b.Parent(sn, fn)

	op, ok := operatorKind(st.Kind)
	if !ok {
		return
	}
	on := b.Node(op)
	b.Parent(on, sn)
	for _, operand := range st.Operands() {
		arg := b.Node(KindFunctionArgument)
		b.Parent(arg, on)
		b.Child(Classify(operand), arg, operand)
	}
}

func operatorKind(k ir.StmtKind) (NodeKind, bool) {
	switch k {
	case ir.StmtCall:
		return KindOpCall, true
	case ir.StmtCmp:
		return KindOpCmp, true
	case ir.StmtIf:
		return KindOpIf, true
	case ir.StmtLabel:
		return KindOpLabel, true
	}
	return KindUnknown, false
}

// Classify returns the leaf kind for an operand: Number for decimal digits,
// String for text wrapped in double quotes, ID otherwise.
func Classify(operand string) NodeKind {
	if isDigits(operand) {
		return KindNumber
	}
	if len(operand) >= 2 && operand[0] == '"' && operand[len(operand)-1] == '"' {
		return KindString
	}
	return KindID
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

package ir

import (
	"fmt"
	"strings"

	"xil/internal/source"
)

// StmtKind enumerates statement kinds.
type StmtKind uint8

const (
	StmtInvalid StmtKind = iota
	// StmtCall invokes a foreign or declared function.
	StmtCall
	// StmtMove pops the operand stack into a local.
	StmtMove
	// StmtConst binds a local to a pooled constant.
	StmtConst
	// StmtDecl binds parameters from the operand stack.
	StmtDecl
	// StmtCmp sets the .cmp local.
	StmtCmp
	// StmtIf jumps when the condition differs from .cmp.
	StmtIf
	// StmtLabel marks a jump target.
	StmtLabel
)

var stmtKindNames = [...]string{
	StmtInvalid: "invalid",
	StmtCall:    "call",
	StmtMove:    "move",
	StmtConst:   "const",
	StmtDecl:    "decl",
	StmtCmp:     "cmp",
	StmtIf:      "if",
	StmtLabel:   "label",
}

func (k StmtKind) String() string {
	if int(k) < len(stmtKindNames) {
		return stmtKindNames[k]
	}
	return fmt.Sprintf("StmtKind(%d)", uint8(k))
}

// StmtKindFromPrefix maps a statement prefix ("call", "if", ...) to its kind.
func StmtKindFromPrefix(prefix string) (StmtKind, bool) {
	for k := StmtCall; k <= StmtLabel; k++ {
		if stmtKindNames[k] == prefix {
			return k, true
		}
	}
	return StmtInvalid, false
}

// Stmt is one line of a function body. Only the payload matching Kind is set.
type Stmt struct {
	Kind StmtKind `msgpack:"k"`

	Call  CallStmt  `msgpack:"c,omitempty"`
	Move  MoveStmt  `msgpack:"m,omitempty"`
	Const ConstStmt `msgpack:"n,omitempty"`
	Decl  DeclStmt  `msgpack:"d,omitempty"`
	Cmp   CmpStmt   `msgpack:"p,omitempty"`
	If    IfStmt    `msgpack:"i,omitempty"`
	Label LabelStmt `msgpack:"l,omitempty"`

	Span source.Span `msgpack:"s"`
}

type CallStmt struct {
	Name string
	Args []string
}

type MoveStmt struct {
	Var string
}

// ConstStmt keeps the literal text exactly as written after the first comma.
type ConstStmt struct {
	Name    string
	Literal string
}

type DeclStmt struct {
	Params  []Param
	Returns string
}

type CmpStmt struct {
	A, B string
}

type IfStmt struct {
	Cond  string
	Label string
}

type LabelStmt struct {
	Name string
}

func NewCall(name string, args ...string) Stmt {
	if len(args) == 0 {
		args = nil
	}
	return Stmt{Kind: StmtCall, Call: CallStmt{Name: name, Args: args}}
}

func NewMove(v string) Stmt {
	return Stmt{Kind: StmtMove, Move: MoveStmt{Var: v}}
}

func NewConst(name, literal string) Stmt {
	return Stmt{Kind: StmtConst, Const: ConstStmt{Name: name, Literal: literal}}
}

func NewDecl(returns string, params ...Param) Stmt {
	return Stmt{Kind: StmtDecl, Decl: DeclStmt{Params: params, Returns: returns}}
}

func NewCmp(a, b string) Stmt {
	return Stmt{Kind: StmtCmp, Cmp: CmpStmt{A: a, B: b}}
}

func NewIf(cond, label string) Stmt {
	return Stmt{Kind: StmtIf, If: IfStmt{Cond: cond, Label: label}}
}

func NewLabel(name string) Stmt {
	return Stmt{Kind: StmtLabel, Label: LabelStmt{Name: name}}
}

// Operands returns the textual operands in source order: callee then
// arguments for call, both sides for cmp, condition then label for if,
// the name for label. Other kinds have none.
func (s Stmt) Operands() []string {
	switch s.Kind {
	case StmtCall:
		out := make([]string, 0, 1+len(s.Call.Args))
		out = append(out, s.Call.Name)
		return append(out, s.Call.Args...)
	case StmtCmp:
		return []string{s.Cmp.A, s.Cmp.B}
	case StmtIf:
		return []string{s.If.Cond, s.If.Label}
	case StmtLabel:
		return []string{s.Label.Name}
	}
	return nil
}

// Clone returns a copy that shares no slices with s.
func (s Stmt) Clone() Stmt {
	out := s
	out.Call.Args = append([]string(nil), s.Call.Args...)
	out.Decl.Params = append([]Param(nil), s.Decl.Params...)
	return out
}

// String renders the statement back in IR text form.
func (s Stmt) String() string {
	switch s.Kind {
	case StmtCall:
		return "call=" + strings.Join(s.Operands(), ",")
	case StmtMove:
		return "move=" + s.Move.Var
	case StmtConst:
		return "const=" + s.Const.Name + "," + s.Const.Literal
	case StmtDecl:
		return "decl=" + FormatSignature(s.Decl.Params, s.Decl.Returns)
	case StmtCmp:
		return "cmp=" + s.Cmp.A + "," + s.Cmp.B
	case StmtIf:
		return "if=" + s.If.Cond + "," + s.If.Label
	case StmtLabel:
		return "label=" + s.Label.Name
	}
	return s.Kind.String()
}

// FormatSignature renders "(a:t,b:t)ret".
func FormatSignature(params []Param, returns string) string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i, p := range params {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(p.Name)
		sb.WriteByte(':')
		sb.WriteString(p.Type)
	}
	sb.WriteByte(')')
	sb.WriteString(strings.TrimSpace(returns))
	return sb.String()
}

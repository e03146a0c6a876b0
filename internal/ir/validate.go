package ir

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MalformedProgramError reports a Program that cannot be flattened or
// executed: empty names, statements with missing operands, duplicate
// declarations inside one Program.
type MalformedProgramError struct {
	Unit    string
	Path    string // e.g. "fun main[3]"
	Problem string
}

func (e *MalformedProgramError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("malformed program %q: %s", e.Unit, e.Problem)
	}
	return fmt.Sprintf("malformed program %q: %s: %s", e.Unit, e.Path, e.Problem)
}

// Validate checks the structural invariants every consumer relies on.
// The parser never produces a Program that fails it; hand-built or decoded
// Programs may.
func (p *Program) Validate() error {
	if p == nil {
		return &MalformedProgramError{Problem: "nil program"}
	}
	bad := func(path, format string, args ...any) error {
		return &MalformedProgramError{Unit: p.Unit, Path: path, Problem: fmt.Sprintf(format, args...)}
	}
	if strings.TrimSpace(p.Unit) == "" {
		return bad("", "empty unit name")
	}
	// все строки уходят в таблицу строк графа, а кодек принимает только UTF-8
	if !utf8.ValidString(p.Unit) {
		return bad("", "unit name is not valid UTF-8")
	}
	if !utf8.ValidString(p.Module) {
		return bad("module", "not valid UTF-8")
	}
	for _, u := range p.Uses {
		if !utf8.ValidString(u) {
			return bad("use", "not valid UTF-8")
		}
	}

	libs := make(map[string]struct{}, len(p.Libs))
	for _, lib := range p.Libs {
		path := "lib " + lib.Name
		if lib.Name == "" {
			return bad("lib", "empty library name")
		}
		if !utf8.ValidString(lib.Name) {
			return bad("lib", "name is not valid UTF-8")
		}
		if _, dup := libs[lib.Name]; dup {
			return bad(path, "declared twice")
		}
		libs[lib.Name] = struct{}{}
		seen := make(map[string]struct{}, len(lib.Imports))
		for _, imp := range lib.Imports {
			if imp.Logical == "" || imp.Symbol == "" {
				return bad(path, "import with empty name or symbol")
			}
			if !utf8.ValidString(imp.Logical) || !utf8.ValidString(imp.Symbol) {
				return bad(path, "import is not valid UTF-8")
			}
			if _, dup := seen[imp.Logical]; dup {
				return bad(path, "import %q declared twice", imp.Logical)
			}
			seen[imp.Logical] = struct{}{}
		}
	}

	ffi := make(map[string]struct{}, len(p.Ffi))
	for _, d := range p.Ffi {
		path := "ffi " + d.Name
		if d.Name == "" {
			return bad("ffi", "empty declaration name")
		}
		if _, dup := ffi[d.Name]; dup {
			return bad(path, "declared twice")
		}
		ffi[d.Name] = struct{}{}
		if err := validateParams(d.Params); err != "" {
			return bad(path, "%s", err)
		}
		if !utf8.ValidString(d.Name) || !utf8.ValidString(FormatSignature(d.Params, d.Returns)) {
			return bad("ffi", "declaration is not valid UTF-8")
		}
	}

	funcs := make(map[string]struct{}, len(p.Funcs))
	for _, fn := range p.Funcs {
		if fn.Name == "" {
			return bad("fun", "empty function name")
		}
		if !utf8.ValidString(fn.Name) {
			return bad("fun", "name is not valid UTF-8")
		}
		if _, dup := funcs[fn.Name]; dup {
			return bad("fun "+fn.Name, "declared twice")
		}
		funcs[fn.Name] = struct{}{}
		for i := range fn.Body {
			if err := fn.Body[i].validate(); err != "" {
				return bad(fmt.Sprintf("fun %s[%d]", fn.Name, i), "%s", err)
			}
			if !utf8.ValidString(fn.Body[i].String()) {
				return bad(fmt.Sprintf("fun %s[%d]", fn.Name, i), "statement is not valid UTF-8")
			}
		}
	}
	return nil
}

func validateParams(params []Param) string {
	for i, prm := range params {
		if prm.Name == "" || prm.Type == "" {
			return fmt.Sprintf("parameter %d has empty name or type", i)
		}
	}
	return ""
}

func (s Stmt) validate() string {
	switch s.Kind {
	case StmtCall:
		if s.Call.Name == "" {
			return "call without callee"
		}
	case StmtMove:
		if s.Move.Var == "" {
			return "move without target"
		}
	case StmtConst:
		if s.Const.Name == "" {
			return "const without name"
		}
	case StmtDecl:
		return validateParams(s.Decl.Params)
	case StmtCmp:
		if s.Cmp.A == "" || s.Cmp.B == "" {
			return "cmp needs two operands"
		}
	case StmtIf:
		if s.If.Cond == "" || s.If.Label == "" {
			return "if needs a condition and a label"
		}
	case StmtLabel:
		if s.Label.Name == "" {
			return "label without name"
		}
	default:
		return "unknown statement kind " + s.Kind.String()
	}
	return ""
}

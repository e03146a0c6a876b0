package ir

import (
	"encoding/json"
)

// dumpForm is the statement shape used by `xil parse`: a single key named
// after the statement kind holding its operands.
func (s Stmt) dumpForm() map[string]any {
	switch s.Kind {
	case StmtCall:
		return map[string]any{"call": s.Operands()}
	case StmtMove:
		return map[string]any{"move": s.Move.Var}
	case StmtConst:
		return map[string]any{"const": []string{s.Const.Name, s.Const.Literal}}
	case StmtDecl:
		params := s.Decl.Params
		if params == nil {
			params = []Param{}
		}
		return map[string]any{"decl": params, "retType": s.Decl.ReturnType()}
	case StmtCmp:
		return map[string]any{"cmp": []string{s.Cmp.A, s.Cmp.B}}
	case StmtIf:
		return map[string]any{"if": []string{s.If.Cond, s.If.Label}}
	case StmtLabel:
		return map[string]any{"label": s.Label.Name}
	}
	return map[string]any{"invalid": nil}
}

// MarshalJSON implements json.Marshaler.
func (s Stmt) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.dumpForm())
}

// MarshalYAML implements yaml.Marshaler.
func (s Stmt) MarshalYAML() (any, error) {
	return s.dumpForm(), nil
}

// ReturnType returns the trimmed return type name.
func (d *DeclStmt) ReturnType() string {
	return (&FfiDecl{Returns: d.Returns}).ReturnType()
}

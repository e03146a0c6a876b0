package parser

import (
	"strings"

	"xil/internal/diag"
	"xil/internal/ir"
)

// statement handles one line inside [fun.X].
func (p *Parser) statement(line string) {
	prefix, rest, ok := strings.Cut(line, "=")
	kind, known := ir.StmtKindFromPrefix(strings.TrimSpace(prefix))
	if !ok || !known {
		p.errorf(diag.SynUnexpectedStatement, "unexpected instruction: %s", line)
		return
	}

	var st ir.Stmt
	switch kind {
	case ir.StmtLabel:
		name := strings.TrimSpace(rest)
		if name == "" {
			p.errorf(diag.SynMissingOperand, "label without a name")
			return
		}
		st = ir.NewLabel(name)

	case ir.StmtCall:
		parts := splitTrim(rest, -1)
		if parts[0] == "" {
			p.errorf(diag.SynMissingOperand, "call without a callee: %s", line)
			return
		}
		st = ir.NewCall(parts[0], parts[1:]...)

	case ir.StmtMove:
		v := strings.TrimSpace(rest)
		if v == "" {
			p.errorf(diag.SynMissingOperand, "move without a target variable")
			return
		}
		st = ir.NewMove(v)

	case ir.StmtConst:
		parts := splitTrim(rest, 2)
		if len(parts) < 2 || parts[0] == "" {
			p.errorf(diag.SynMissingOperand, "const requires a variable name and a value: %s", line)
			return
		}
		st = ir.NewConst(parts[0], parts[1])

	case ir.StmtCmp:
		parts := splitTrim(rest, 2)
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			p.errorf(diag.SynMissingOperand, "cmp requires two operands: %s", line)
			return
		}
		st = ir.NewCmp(parts[0], parts[1])

	case ir.StmtIf:
		parts := splitTrim(rest, 2)
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			p.errorf(diag.SynMissingOperand, "if requires a condition value and a label: %s", line)
			return
		}
		st = ir.NewIf(parts[0], parts[1])

	case ir.StmtDecl:
		params, returns, ok := p.signature(strings.TrimSpace(rest))
		if !ok {
			p.errorf(diag.SynMalformedSignature, "unexpected decl declaration: %s", line)
		}
		st = ir.NewDecl(returns, params...)
	}

	st.Span = p.line
	p.fun.Body = append(p.fun.Body, st)
}

// signature parses "(a:t,b:t)ret". Entries without ':' are dropped; the
// return text is kept as written. ok is false when the parentheses are
// missing, in which case the declaration is empty.
func (p *Parser) signature(s string) (params []ir.Param, returns string, ok bool) {
	if !strings.HasPrefix(s, "(") {
		return nil, "", false
	}
	inner, ret, found := strings.Cut(s[1:], ")")
	if !found {
		return nil, "", false
	}
	for _, arg := range strings.Split(inner, ",") {
		if strings.TrimSpace(arg) == "" {
			continue
		}
		name, typ, hasType := strings.Cut(arg, ":")
		name, typ = strings.TrimSpace(name), strings.TrimSpace(typ)
		if !hasType || name == "" || typ == "" {
			p.warnf(diag.SynDroppedParameter, "parameter %q has no type and is ignored", strings.TrimSpace(arg))
			continue
		}
		params = append(params, ir.Param{Name: name, Type: typ})
	}
	return params, ret, true
}

// splitTrim splits on commas (at most n parts, n < 0 for all) and trims each part.
func splitTrim(s string, n int) []string {
	parts := strings.SplitN(s, ",", n)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

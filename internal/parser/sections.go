package parser

import (
	"strings"

	"xil/internal/diag"
	"xil/internal/ir"
)

func isHeader(line string) bool {
	return len(line) >= 2 && line[0] == '[' && line[len(line)-1] == ']'
}

// headerArg matches "[kw]" and "[kw arg]" and returns the raw argument text.
func headerArg(line, kw string) (string, bool) {
	rest, ok := strings.CutPrefix(line[:len(line)-1], "["+kw)
	if !ok || (rest != "" && rest[0] != ' ' && rest[0] != '\t') {
		return "", false
	}
	return rest, true
}

// header handles a "[...]" line and switches the current section.
func (p *Parser) header(line string) {
	if arg, ok := headerArg(line, "module"); ok {
		p.section = sectionModule
		if fields := strings.Fields(arg); len(fields) > 0 {
			p.prog.Module = fields[0]
		} else {
			p.prog.Module = ""
		}
		return
	}
	if arg, ok := headerArg(line, "use"); ok {
		p.section = sectionUse
		name := strings.TrimSpace(arg)
		if name == "" {
			p.errorf(diag.SynMissingOperand, "[use] without a module name")
			return
		}
		p.prog.Uses = append(p.prog.Uses, name)
		return
	}
	if arg, ok := headerArg(line, "lib"); ok {
		p.section = sectionLib
		p.lib = nil
		name, ok := quoted(arg)
		if !ok || name == "" {
			p.errorf(diag.SynMalformedLibrary, "expected [lib \"name\"], got %s", line)
			return
		}
		p.lib = p.prog.OpenLibrary(name)
		return
	}

	switch {
	case line == "[ffi]":
		p.section = sectionFfi

	case strings.HasPrefix(line, "[fun") && len(line) > len("[fun]") && (line[4] == '.' || line[4] == ' '):
		name := strings.TrimSpace(line[5 : len(line)-1])
		if name == "" {
			p.section = sectionNone
			p.errorf(diag.SynMissingOperand, "function header without a name: %s", line)
			return
		}
		p.section = sectionFun
		p.fun = p.prog.OpenFunc(name)

	default:
		p.errorf(diag.SynUnexpectedLine, "unknown section header %s", line)
	}
}

// libLine handles `logical="symbol"` inside [lib].
func (p *Parser) libLine(line string) {
	if p.lib == nil {
		p.errorf(diag.SynUnexpectedLine, "import without a valid [lib] header: %s", line)
		return
	}
	key, value, ok := strings.Cut(line, "=")
	if !ok {
		p.errorf(diag.SynMissingAssignment, "expected name=\"symbol\", got %s", line)
		return
	}
	key = strings.TrimSpace(key)
	symbol, ok := quoted(value)
	if !ok || key == "" || symbol == "" {
		p.errorf(diag.SynMalformedImport, "expected name=\"symbol\", got %s", line)
		return
	}
	p.lib.SetImport(key, symbol)
}

// ffiLine handles `name=(a:t,...)ret` inside [ffi].
func (p *Parser) ffiLine(line string) {
	name, value, ok := strings.Cut(line, "=")
	if !ok {
		p.errorf(diag.SynMissingAssignment, "expected name=(args)type, got %s", line)
		return
	}
	name = strings.TrimSpace(name)
	if name == "" {
		p.errorf(diag.SynMissingOperand, "ffi declaration without a name: %s", line)
		return
	}
	params, returns, ok := p.signature(strings.TrimSpace(value))
	if !ok {
		p.errorf(diag.SynMalformedSignature, "unexpected ffi declaration: %s", line)
	}
	p.prog.SetFfi(ir.FfiDecl{Name: name, Params: params, Returns: returns})
}

// quoted returns the text between the first pair of double quotes.
func quoted(s string) (string, bool) {
	_, rest, ok := strings.Cut(s, `"`)
	if !ok {
		return "", false
	}
	inner, _, ok := strings.Cut(rest, `"`)
	return inner, ok
}

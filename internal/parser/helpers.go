package parser

import (
	"fmt"

	"xil/internal/diag"
	"xil/internal/source"
)

// репортует ошибку на текущей строке
func (p *Parser) errorf(code diag.Code, format string, args ...any) bool {
	return p.report(code, diag.SevError, p.line, fmt.Sprintf(format, args...))
}

// репортует warning на текущей строке
func (p *Parser) warnf(code diag.Code, format string, args ...any) bool {
	return p.report(code, diag.SevWarning, p.line, fmt.Sprintf(format, args...))
}

func (p *Parser) report(code diag.Code, sev diag.Severity, sp source.Span, msg string) bool {
	if p.opts.Reporter == nil {
		return false // нет reporter - ничего не записали
	}
	if p.opts.Enough() {
		return false // достигли максимального количества ошибок
	}
	if sev == diag.SevError {
		p.opts.CurrentErrors++
	}
	p.opts.Reporter.Report(code, sev, sp, msg, nil)
	return true
}

// trimBounds returns the byte range of s without surrounding white space.
func trimBounds(s string) (lo, hi int) {
	lo, hi = 0, len(s)
	for lo < hi && isSpace(s[lo]) {
		lo++
	}
	for hi > lo && isSpace(s[hi-1]) {
		hi--
	}
	return lo, hi
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\v' || b == '\f'
}

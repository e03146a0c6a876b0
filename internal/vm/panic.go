package vm

import (
	"fmt"
	"strings"

	"xil/internal/diag"
	"xil/internal/source"
)

// BacktraceFrame represents one frame in the error backtrace.
type BacktraceFrame struct {
	FuncName string
	Span     source.Span
}

// VMError is an execution failure that unwinds frames. A missing jump
// target unwinds only the function that jumped; call depth and step budget
// failures end the run.
type VMError struct {
	Code      diag.Code
	Message   string
	Span      source.Span      // Location where the failure occurred
	Backtrace []BacktraceFrame // Stack frames from top to bottom
}

// Error implements the error interface.
func (e *VMError) Error() string {
	return fmt.Sprintf("vm %s: %s", e.Code.ID(), e.Message)
}

// Fatal reports whether the error ends the whole run.
func (e *VMError) Fatal() bool {
	return e != nil && e.Code != diag.VMLabelNotFound
}

// FormatWithFiles formats the error with resolved file:line:col information.
func (e *VMError) FormatWithFiles(files *source.FileSet) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "vm %s: %s\n", e.Code.ID(), e.Message)
	sb.WriteString("at ")
	sb.WriteString(formatSpan(e.Span, files))
	sb.WriteString("\n")

	if len(e.Backtrace) > 0 {
		sb.WriteString("backtrace:\n")
		for i, frame := range e.Backtrace {
			fmt.Fprintf(&sb, "  %d: %s at %s\n", i, frame.FuncName, formatSpan(frame.Span, files))
		}
	}
	return sb.String()
}

// formatSpan formats a span as "file:line:col" or "<no-span>" if empty.
func formatSpan(span source.Span, files *source.FileSet) string {
	if files == nil || (span.Start == 0 && span.End == 0) {
		return "<no-span>"
	}
	return files.Position(span)
}

func (vm *VM) makeError(code diag.Code, msg string) *VMError {
	e := &VMError{Code: code, Message: msg}
	if n := len(vm.frames); n > 0 {
		e.Span = vm.frames[n-1].Span
		e.Backtrace = make([]BacktraceFrame, n)
		for i := n - 1; i >= 0; i-- {
			e.Backtrace[n-1-i] = BacktraceFrame{FuncName: vm.frames[i].Func.Name, Span: vm.frames[i].Span}
		}
	}
	return e
}

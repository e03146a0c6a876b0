package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"xil/internal/diag"
	"xil/internal/source"
)

type palette struct {
	on bool
}

func (p palette) paint(s string, attrs ...color.Attribute) string {
	if !p.on {
		return s
	}
	c := color.New(attrs...)
	c.EnableColor()
	return c.Sprint(s)
}

func (p palette) severity(sev diag.Severity) string {
	switch sev {
	case diag.SevError:
		return p.paint(sev.String(), color.FgRed, color.Bold)
	case diag.SevWarning:
		return p.paint(sev.String(), color.FgYellow, color.Bold)
	default:
		return p.paint(sev.String(), color.FgCyan, color.Bold)
	}
}

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждого diag печатает:
// <path>:<line>:<col>: <SEV> [<CODE>]: <Message>
// затем строки контекста с подчёркиванием ^~~~ по Span, затем Notes.
// Диагностика без позиции (ошибки I/O) печатается одной строкой.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	if bag == nil {
		return
	}
	pal := palette{on: opts.Color}
	for _, d := range bag.Items() {
		head := fmt.Sprintf("%s [%s]: %s", pal.severity(d.Severity), pal.paint(d.Code.ID(), color.Faint), d.Message)
		f, ok := located(d.Primary, fs)
		if !ok {
			fmt.Fprintln(w, head)
			continue
		}
		start, _ := fs.Resolve(d.Primary)
		fmt.Fprintf(w, "%s:%d:%d: %s\n", pal.paint(formatPath(f, opts.PathMode, opts.BaseDir), color.Bold), start.Line, start.Col, head)
		writeSnippet(w, fs, f, d.Primary, int(opts.Context), pal)

		if !opts.ShowNotes {
			continue
		}
		for _, n := range d.Notes {
			nf, ok := located(n.Span, fs)
			if !ok {
				fmt.Fprintf(w, "  %s: %s\n", pal.paint("note", color.FgBlue), n.Msg)
				continue
			}
			pos, _ := fs.Resolve(n.Span)
			fmt.Fprintf(w, "  %s: %s:%d:%d: %s\n", pal.paint("note", color.FgBlue), formatPath(nf, opts.PathMode, opts.BaseDir), pos.Line, pos.Col, n.Msg)
		}
	}
	if dropped := bag.Dropped(); dropped > 0 {
		fmt.Fprintf(w, "... %d more diagnostics not shown\n", dropped)
	}
}

// writeSnippet prints the primary line with context and a caret line under
// the span. Column widths follow the terminal width of the runes.
func writeSnippet(w io.Writer, fs *source.FileSet, f *source.File, span source.Span, around int, pal palette) {
	start, end := fs.Resolve(span)
	if start.Line == 0 {
		return
	}
	around = max(around, 0)
	first := max(int(start.Line)-around, 1)
	last := int(start.Line) + around
	gutter := len(fmt.Sprint(last))

	for ln := first; ln <= last; ln++ {
		text, ok := lineText(f, ln)
		if !ok || (text == "" && ln > int(start.Line) && ln == len(f.LineIdx)+1) {
			break
		}
		fmt.Fprintf(w, " %*d | %s\n", gutter, ln, text)
		if ln != int(start.Line) {
			continue
		}

		// колонки 1-based и в байтах
		from := min(int(start.Col)-1, len(text))
		to := len(text)
		if end.Line == start.Line {
			to = min(max(int(end.Col)-1, from), len(text))
		}
		pad := runewidth.StringWidth(text[:from])
		width := max(runewidth.StringWidth(text[from:to]), 1)
		marks := "^" + strings.Repeat("~", width-1)
		fmt.Fprintf(w, " %*s | %s%s\n", gutter, "", strings.Repeat(" ", pad), pal.paint(marks, color.FgRed, color.Bold))
	}
}

func lineText(f *source.File, ln int) (string, bool) {
	if ln < 1 || ln > len(f.LineIdx)+1 {
		return "", false
	}
	return f.GetLine(uint32(ln)), true
}

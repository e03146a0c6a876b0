package parser

import (
	"fmt"
	"unicode/utf8"

	"xil/internal/diag"
	"xil/internal/ir"
	"xil/internal/source"
)

type Options struct {
	// Unit overrides the unit name; the file path is used when empty.
	Unit          string
	MaxErrors     uint
	CurrentErrors uint
	Reporter      diag.Reporter
}

// Enough - проверить, достигли ли мы максимального количества ошибок
func (o *Options) Enough() bool {
	if o.MaxErrors == 0 {
		return false
	}
	return o.CurrentErrors >= o.MaxErrors
}

type Result struct {
	Program *ir.Program
	Bag     *diag.Bag
}

type section uint8

const (
	sectionNone section = iota
	sectionModule
	sectionUse
	sectionLib
	sectionFfi
	sectionFun
)

// Parser хранит состояние трансляции одного файла
type Parser struct {
	file *source.File
	opts Options
	prog *ir.Program

	section section
	lib     *ir.Library  // открытая [lib "..."], nil если заголовок битый
	fun     *ir.Function // открытая [fun.X]

	line source.Span // span текущей (обрезанной) строки
}

// TranslateFile translates one file of fs.
func TranslateFile(fs *source.FileSet, id source.FileID, opts Options) Result {
	f := fs.Get(id)
	if f == nil {
		panic(fmt.Errorf("parser: unknown file id %d", id))
	}
	unit := opts.Unit
	if unit == "" {
		unit = f.Path
	}
	p := Parser{
		file: f,
		opts: opts,
		prog: ir.New(unit),
	}
	p.translate()

	var bag *diag.Bag
	switch br := opts.Reporter.(type) {
	case diag.BagReporter:
		bag = br.Bag
	case *diag.BagReporter:
		bag = br.Bag
	}
	return Result{Program: p.prog, Bag: bag}
}

// Translate is the in-memory entry point: it registers text as a virtual
// file named unit and translates it.
func Translate(unit, text string, r diag.Reporter) *ir.Program {
	fs := source.NewFileSet()
	id := fs.AddVirtual(unit, []byte(text))
	return TranslateFile(fs, id, Options{Unit: unit, Reporter: r}).Program
}

func (p *Parser) translate() {
	content := p.file.Content
	var start uint32
	for _, nl := range p.file.LineIdx {
		p.translateLine(start, nl)
		start = nl + 1
	}
	if end := uint32(len(content)); start < end {
		p.translateLine(start, end)
	}
}

func (p *Parser) translateLine(start, end uint32) {
	raw := string(p.file.Content[start:end])
	lo, hi := trimBounds(raw)
	if lo == hi {
		return
	}
	p.line = source.Span{File: p.file.ID, Start: start, End: end}.Sub(lo, hi)
	line := raw[lo:hi]
	if !utf8.ValidString(line) {
		p.errorf(diag.SynInvalidEncoding, "line is not valid UTF-8: %q", line)
		return
	}

	if isHeader(line) {
		p.header(line)
		return
	}

	switch p.section {
	case sectionLib:
		p.libLine(line)
	case sectionFfi:
		p.ffiLine(line)
	case sectionFun:
		p.statement(line)
	case sectionNone:
		p.errorf(diag.SynUnexpectedLine, "unexpected line outside of any section: %s", line)
	default:
		p.errorf(diag.SynUnexpectedLine, "unexpected line in [%s] section: %s", p.section, line)
	}
}

func (s section) String() string {
	switch s {
	case sectionModule:
		return "module"
	case sectionUse:
		return "use"
	case sectionLib:
		return "lib"
	case sectionFfi:
		return "ffi"
	case sectionFun:
		return "fun"
	}
	return "none"
}

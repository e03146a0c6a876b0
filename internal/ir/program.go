package ir

import "strings"

// Program is the result of translating one unit. After translation it is
// treated as immutable; the linker builds new Programs instead of editing.
type Program struct {
	Unit    string     `json:"unit" yaml:"unit" msgpack:"unit"`
	Module  string     `json:"module" yaml:"module" msgpack:"module"`
	Sources []string   `json:"sources,omitempty" yaml:"sources,omitempty" msgpack:"sources"`
	Uses    []string   `json:"use" yaml:"use" msgpack:"use"`
	Libs    []Library  `json:"libs" yaml:"libs" msgpack:"libs"`
	Ffi     []FfiDecl  `json:"ffi" yaml:"ffi" msgpack:"ffi"`
	Funcs   []Function `json:"fun" yaml:"fun" msgpack:"fun"`
}

// Library maps logical names to exported symbols of one native library.
type Library struct {
	Name    string   `json:"name" yaml:"name" msgpack:"name"`
	Imports []Import `json:"imports" yaml:"imports" msgpack:"imports"`
}

type Import struct {
	Logical string `json:"name" yaml:"name" msgpack:"name"`
	Symbol  string `json:"symbol" yaml:"symbol" msgpack:"symbol"`
}

// Param is a name:type pair of an ffi or decl signature.
type Param struct {
	Name string `json:"name" yaml:"name" msgpack:"name"`
	Type string `json:"type" yaml:"type" msgpack:"type"`
}

// FfiDecl is a foreign function signature. Returns is kept as written after
// the closing parenthesis; use ReturnType for the trimmed name.
type FfiDecl struct {
	Name    string  `json:"name" yaml:"name" msgpack:"name"`
	Params  []Param `json:"args" yaml:"args" msgpack:"args"`
	Returns string  `json:"returns" yaml:"returns" msgpack:"returns"`
}

type Function struct {
	Name string `json:"name" yaml:"name" msgpack:"name"`
	Body []Stmt `json:"body" yaml:"body" msgpack:"body"`
}

// New returns an empty Program for unit.
func New(unit string) *Program {
	return &Program{Unit: unit}
}

// ReturnType returns the trimmed return type name.
func (d *FfiDecl) ReturnType() string {
	return strings.TrimSpace(d.Returns)
}

// Symbol returns the symbol bound to logical, if any.
func (l *Library) Symbol(logical string) (string, bool) {
	for _, imp := range l.Imports {
		if imp.Logical == logical {
			return imp.Symbol, true
		}
	}
	return "", false
}

// SetImport binds logical to symbol. A repeated logical name keeps its
// position and takes the new symbol.
func (l *Library) SetImport(logical, symbol string) {
	for i := range l.Imports {
		if l.Imports[i].Logical == logical {
			l.Imports[i].Symbol = symbol
			return
		}
	}
	l.Imports = append(l.Imports, Import{Logical: logical, Symbol: symbol})
}

func (p *Program) Library(name string) (*Library, bool) {
	for i := range p.Libs {
		if p.Libs[i].Name == name {
			return &p.Libs[i], true
		}
	}
	return nil, false
}

func (p *Program) FfiDecl(name string) (*FfiDecl, bool) {
	for i := range p.Ffi {
		if p.Ffi[i].Name == name {
			return &p.Ffi[i], true
		}
	}
	return nil, false
}

func (p *Program) Func(name string) (*Function, bool) {
	for i := range p.Funcs {
		if p.Funcs[i].Name == name {
			return &p.Funcs[i], true
		}
	}
	return nil, false
}

// OpenLibrary returns the library called name, creating it at the end when
// absent. Reopening an existing library clears its imports.
func (p *Program) OpenLibrary(name string) *Library {
	if lib, ok := p.Library(name); ok {
		lib.Imports = nil
		return lib
	}
	p.Libs = append(p.Libs, Library{Name: name})
	return &p.Libs[len(p.Libs)-1]
}

// SetFfi stores decl, replacing an earlier declaration of the same name in place.
func (p *Program) SetFfi(decl FfiDecl) {
	if cur, ok := p.FfiDecl(decl.Name); ok {
		*cur = decl
		return
	}
	p.Ffi = append(p.Ffi, decl)
}

// OpenFunc returns the function called name with an empty body, creating it
// at the end when absent.
func (p *Program) OpenFunc(name string) *Function {
	if fn, ok := p.Func(name); ok {
		fn.Body = nil
		return fn
	}
	p.Funcs = append(p.Funcs, Function{Name: name})
	return &p.Funcs[len(p.Funcs)-1]
}

// Clone returns a deep copy of p.
func (p *Program) Clone() *Program {
	if p == nil {
		return nil
	}
	out := &Program{
		Unit:    p.Unit,
		Module:  p.Module,
		Sources: append([]string(nil), p.Sources...),
		Uses:    append([]string(nil), p.Uses...),
		Libs:    make([]Library, len(p.Libs)),
		Ffi:     make([]FfiDecl, len(p.Ffi)),
		Funcs:   make([]Function, len(p.Funcs)),
	}
	for i, lib := range p.Libs {
		out.Libs[i] = Library{Name: lib.Name, Imports: append([]Import(nil), lib.Imports...)}
	}
	for i, d := range p.Ffi {
		out.Ffi[i] = FfiDecl{Name: d.Name, Params: append([]Param(nil), d.Params...), Returns: d.Returns}
	}
	for i, fn := range p.Funcs {
		body := make([]Stmt, len(fn.Body))
		for j := range fn.Body {
			body[j] = fn.Body[j].Clone()
		}
		out.Funcs[i] = Function{Name: fn.Name, Body: body}
	}
	return out
}

package ffi

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"xil/internal/diag"
	"xil/internal/ir"
	"xil/internal/source"
)

// Entry is one resolved foreign function.
type Entry struct {
	Name    string // logical name used by call=
	Library string
	Symbol  string
	Sig     Signature
	Call    Func
}

// Registry is the immutable table of foreign functions of one Program,
// built once before execution starts.
type Registry struct {
	entries map[string]*Entry
	libs    []Library
}

type RegistryOptions struct {
	Loader   Loader // NativeLoader when nil
	Logger   *zap.Logger
	Reporter diag.Reporter
}

// NewRegistry opens every library of p and resolves every ffi declaration.
// A declaration is served by the first library, in declaration order, that
// imports its name. Anything that fails to resolve is reported as a warning
// and left out of the registry.
func NewRegistry(p *ir.Program, opts RegistryOptions) *Registry {
	loader := opts.Loader
	if loader == nil {
		loader = NativeLoader{}
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	warn := func(code diag.Code, msg string) {
		log.Warn(msg, zap.String("code", code.ID()), zap.String("unit", p.Unit))
		if opts.Reporter != nil {
			opts.Reporter.Report(code, diag.SevWarning, source.Span{}, msg, nil)
		}
	}

	r := &Registry{entries: make(map[string]*Entry, len(p.Ffi))}
	loaded := make(map[string]Library, len(p.Libs))
	for _, lib := range p.Libs {
		l, err := loader.Open(lib.Name)
		if err != nil {
			warn(diag.VMLibraryNotLoaded, fmt.Sprintf("could not load library %s: %v", lib.Name, err))
			continue
		}
		loaded[lib.Name] = l
		r.libs = append(r.libs, l)
	}

	for i := range p.Ffi {
		d := &p.Ffi[i]
		var (
			libName, symbol string
			found           bool
		)
		for _, lib := range p.Libs {
			if symbol, found = lib.Symbol(d.Name); found {
				libName = lib.Name
				break
			}
		}
		if !found {
			warn(diag.VMSymbolNotFound, fmt.Sprintf("no library found for ffi function %s", d.Name))
			continue
		}
		l, ok := loaded[libName]
		if !ok {
			warn(diag.VMLibraryNotLoaded, fmt.Sprintf("library %s for ffi function %s is not loaded", libName, d.Name))
			continue
		}
		sig := SignatureOf(d)
		for _, prm := range d.Params {
			if _, known := ParseType(prm.Type); !known {
				log.Debug("unknown ffi type treated as ptr", zap.String("ffi", d.Name), zap.String("type", prm.Type))
			}
		}
		fn, err := l.Bind(symbol, sig)
		if err != nil {
			warn(diag.VMSymbolNotFound, fmt.Sprintf("symbol %s not found in library %s: %v", symbol, libName, err))
			continue
		}
		r.entries[d.Name] = &Entry{Name: d.Name, Library: libName, Symbol: symbol, Sig: sig, Call: fn}
		log.Debug("ffi bound", zap.String("ffi", d.Name), zap.String("library", libName), zap.String("symbol", symbol), zap.Stringer("signature", sig))
	}
	return r
}

// Lookup returns the entry for a logical name.
func (r *Registry) Lookup(name string) (*Entry, bool) {
	if r == nil {
		return nil, false
	}
	e, ok := r.entries[name]
	return e, ok
}

func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.entries)
}

// Close releases every opened library.
func (r *Registry) Close() error {
	if r == nil {
		return nil
	}
	var errs []error
	for _, l := range r.libs {
		if err := l.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	r.libs = nil
	return errors.Join(errs...)
}

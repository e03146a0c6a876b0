// Package link merges translated units that declare the same module.
package link

import (
	"errors"
	"fmt"
	"strings"

	"xil/internal/diag"
	"xil/internal/ir"
)

// DuplicateError reports an ffi or function name declared by more than one
// unit of the same module.
type DuplicateError struct {
	Kind   string // "ffi" или "function"
	Name   string
	Module string
	Units  []string // units that declare Name, in input order
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate %s declaration %q in module %q (units: %s)",
		e.Kind, e.Name, e.Module, strings.Join(e.Units, ", "))
}

// Code returns the diagnostic code matching the collision kind.
func (e *DuplicateError) Code() diag.Code {
	if e.Kind == "ffi" {
		return diag.LnkDuplicateFfi
	}
	return diag.LnkDuplicateFunction
}

// Link groups programs by module name, in order of first appearance, and
// merges every group into one Program. Units without a module name are not
// merged and pass through unchanged. Inputs are never modified.
//
// Collisions are collected across all groups and returned together through
// errors.Join; on error the merged result is nil.
func Link(programs []*ir.Program) ([]*ir.Program, error) {
	type group struct {
		module string
		units  []*ir.Program
	}
	var (
		groups []*group
		byName = make(map[string]*group)
	)
	for _, p := range programs {
		if p == nil {
			continue
		}
		if p.Module == "" {
			groups = append(groups, &group{units: []*ir.Program{p}})
			continue
		}
		g, ok := byName[p.Module]
		if !ok {
			g = &group{module: p.Module}
			byName[p.Module] = g
			groups = append(groups, g)
		}
		g.units = append(g.units, p)
	}

	var (
		out  = make([]*ir.Program, 0, len(groups))
		errs []error
	)
	for _, g := range groups {
		merged, dups := merge(g.units)
		for _, d := range dups {
			errs = append(errs, d)
		}
		out = append(out, merged)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

// merge folds units of one module into a copy of the first unit.
func merge(units []*ir.Program) (*ir.Program, []*DuplicateError) {
	merged := units[0].Clone()
	merged.Sources = sourcesOf(units[0])
	if len(units) == 1 {
		return merged, nil
	}

	var (
		dups     []*DuplicateError
		dupIndex = make(map[string]*DuplicateError)
		ffiOwner = make(map[string]string)
		funOwner = make(map[string]string)
		seenUse  = make(map[string]struct{}, len(merged.Uses))
	)
	collide := func(kind, name, owner, unit string) {
		key := kind + "\x00" + name
		if d, ok := dupIndex[key]; ok {
			d.Units = append(d.Units, unit)
			return
		}
		d := &DuplicateError{Kind: kind, Name: name, Module: merged.Module, Units: []string{owner, unit}}
		dupIndex[key] = d
		dups = append(dups, d)
	}

	uses := merged.Uses[:0]
	for _, u := range merged.Uses {
		if _, ok := seenUse[u]; !ok {
			seenUse[u] = struct{}{}
			uses = append(uses, u)
		}
	}
	merged.Uses = uses
	for _, d := range merged.Ffi {
		ffiOwner[d.Name] = merged.Unit
	}
	for _, fn := range merged.Funcs {
		funOwner[fn.Name] = merged.Unit
	}

	for _, u := range units[1:] {
		merged.Sources = append(merged.Sources, sourcesOf(u)...)
		for _, name := range u.Uses {
			if _, ok := seenUse[name]; !ok {
				seenUse[name] = struct{}{}
				merged.Uses = append(merged.Uses, name)
			}
		}
		for _, lib := range u.Libs {
			dst, ok := merged.Library(lib.Name)
			if !ok {
				merged.Libs = append(merged.Libs, ir.Library{Name: lib.Name})
				dst = &merged.Libs[len(merged.Libs)-1]
			}
			for _, imp := range lib.Imports {
				dst.SetImport(imp.Logical, imp.Symbol)
			}
		}
		for _, d := range u.Ffi {
			if owner, ok := ffiOwner[d.Name]; ok {
				collide("ffi", d.Name, owner, u.Unit)
				continue
			}
			ffiOwner[d.Name] = u.Unit
			merged.Ffi = append(merged.Ffi, ir.FfiDecl{
				Name:    d.Name,
				Params:  append([]ir.Param(nil), d.Params...),
				Returns: d.Returns,
			})
		}
		for _, fn := range u.Funcs {
			if owner, ok := funOwner[fn.Name]; ok {
				collide("function", fn.Name, owner, u.Unit)
				continue
			}
			funOwner[fn.Name] = u.Unit
			body := make([]ir.Stmt, len(fn.Body))
			for i := range fn.Body {
				body[i] = fn.Body[i].Clone()
			}
			merged.Funcs = append(merged.Funcs, ir.Function{Name: fn.Name, Body: body})
		}
	}
	return merged, dups
}

func sourcesOf(p *ir.Program) []string {
	if len(p.Sources) > 0 {
		return append([]string(nil), p.Sources...)
	}
	return []string{p.Unit}
}

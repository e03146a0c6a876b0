// Package dag orders linked programs by their [use] dependencies.
package dag

import (
	"fmt"

	"fortio.org/safecast"

	"xil/internal/ir"
)

// ModuleID is the position of a program in the slice given to BuildIndex.
type ModuleID uint32

type ModuleIndex struct {
	NameToID map[string]ModuleID
	IDToName []string // module name, or unit name for a program without module
}

// BuildIndex assigns ids in input order. Only named modules can be the
// target of a use; the first program wins if a name repeats.
func BuildIndex(progs []*ir.Program) ModuleIndex {
	idx := ModuleIndex{
		NameToID: make(map[string]ModuleID, len(progs)),
		IDToName: make([]string, len(progs)),
	}
	for i, p := range progs {
		id, err := safecast.Conv[ModuleID](i)
		if err != nil {
			panic(fmt.Errorf("module id overflow: %w", err))
		}
		name := p.Module
		if name == "" {
			idx.IDToName[i] = p.Unit
			continue
		}
		idx.IDToName[i] = name
		if _, dup := idx.NameToID[name]; !dup {
			idx.NameToID[name] = id
		}
	}
	return idx
}

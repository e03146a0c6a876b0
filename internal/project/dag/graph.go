package dag

import (
	"fmt"
	"slices"
	"strings"

	"xil/internal/diag"
	"xil/internal/ir"
	"xil/internal/source"
)

type Graph struct {
	Edges [][]ModuleID // Edges[dep] = модули, которые используют dep
	Indeg []int        // число разрешённых зависимостей у модуля
}

// BuildGraph links every program to the programs its uses name. Uses of
// modules outside the set (such as builtin) are left unresolved and
// returned for the caller to log.
func BuildGraph(idx ModuleIndex, progs []*ir.Program) (g Graph, unresolved []string) {
	g = Graph{
		Edges: make([][]ModuleID, len(progs)),
		Indeg: make([]int, len(progs)),
	}
	for from, p := range progs {
		seen := make(map[ModuleID]struct{}, len(p.Uses))
		for _, use := range p.Uses {
			dep, ok := idx.NameToID[use]
			if !ok {
				unresolved = append(unresolved, fmt.Sprintf("%s uses %s", idx.IDToName[from], use))
				continue
			}
			if int(dep) == from {
				continue
			}
			if _, dup := seen[dep]; dup {
				continue
			}
			seen[dep] = struct{}{}
			g.Edges[int(dep)] = append(g.Edges[int(dep)], toID(from))
			g.Indeg[from]++
		}
	}
	for i := range g.Edges {
		if len(g.Edges[i]) > 1 {
			slices.Sort(g.Edges[i])
		}
	}
	return g, unresolved
}

// ReportCycles warns once per module caught in a use cycle.
func ReportCycles(idx ModuleIndex, topo *Topo, r diag.Reporter) {
	if r == nil || !topo.Cyclic || len(topo.Cycles) == 0 {
		return
	}
	names := make([]string, 0, len(topo.Cycles))
	for _, id := range topo.Cycles {
		names = append(names, idx.IDToName[int(id)])
	}
	summary := strings.Join(names, " -> ")
	for _, id := range topo.Cycles {
		msg := fmt.Sprintf("module %q participates in a use cycle: %s", idx.IDToName[int(id)], summary)
		r.Report(diag.LnkUseCycle, diag.SevWarning, source.Span{}, msg, nil)
	}
}

package dag

import (
	"fmt"
	"slices"

	"fortio.org/safecast"
)

type Topo struct {
	Order   []ModuleID   // зависимости раньше зависимых
	Batches [][]ModuleID // волны независимых модулей
	Cyclic  bool
	Cycles  []ModuleID // узлы, оставшиеся в цикле
}

// ToposortKahn orders modules so that every module comes after the modules
// it uses. Within a wave the input order is kept.
func ToposortKahn(g Graph) *Topo {
	nodeCount := len(g.Edges)
	indeg := make([]int, len(g.Indeg))
	copy(indeg, g.Indeg)

	topo := &Topo{
		Order:   make([]ModuleID, 0, nodeCount),
		Batches: make([][]ModuleID, 0),
	}

	current := make([]ModuleID, 0, nodeCount)
	for i := range nodeCount {
		if indeg[i] == 0 {
			current = append(current, toID(i))
		}
	}

	for len(current) > 0 {
		batch := make([]ModuleID, len(current))
		copy(batch, current)
		topo.Batches = append(topo.Batches, batch)

		next := make([]ModuleID, 0)
		for _, id := range batch {
			topo.Order = append(topo.Order, id)
			for _, to := range g.Edges[int(id)] {
				indeg[int(to)]--
				if indeg[int(to)] == 0 {
					next = append(next, to)
				}
			}
		}
		slices.Sort(next)
		current = next
	}

	if len(topo.Order) != nodeCount {
		topo.Cyclic = true
		for i := range nodeCount {
			if indeg[i] > 0 {
				topo.Cycles = append(topo.Cycles, toID(i))
			}
		}
	}
	return topo
}

// RunOrder is Order followed by the modules left in cycles.
func (t *Topo) RunOrder() []ModuleID {
	return append(slices.Clone(t.Order), t.Cycles...)
}

func toID(i int) ModuleID {
	id, err := safecast.Conv[ModuleID](i)
	if err != nil {
		panic(fmt.Errorf("module id overflow: %w", err))
	}
	return id
}

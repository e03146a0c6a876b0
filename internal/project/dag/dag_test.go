package dag

import (
	"slices"
	"testing"

	"xil/internal/diag"
	"xil/internal/ir"
)

func prog(unit, module string, uses ...string) *ir.Program {
	p := ir.New(unit)
	p.Module = module
	p.Uses = uses
	return p
}

func idsToNames(idx ModuleIndex, ids []ModuleID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = idx.IDToName[int(id)]
	}
	return out
}

func TestBuildIndex(t *testing.T) {
	progs := []*ir.Program{
		prog("a.xil", "app"),
		prog("loose.xil", ""),
		prog("b.xil", "core"),
	}
	idx := BuildIndex(progs)

	if want := []string{"app", "loose.xil", "core"}; !slices.Equal(idx.IDToName, want) {
		t.Fatalf("IDToName = %v, want %v", idx.IDToName, want)
	}
	if _, ok := idx.NameToID["loose.xil"]; ok {
		t.Fatalf("program without module must not be addressable")
	}
	if id := idx.NameToID["core"]; id != 2 {
		t.Fatalf("NameToID[core] = %d", id)
	}
}

func TestDependenciesComeFirst(t *testing.T) {
	progs := []*ir.Program{
		prog("main.xil", "app", "core", "util", "builtin"),
		prog("io.xil", "io"),
		prog("core.xil", "core", "util", "util"),
		prog("util.xil", "util"),
	}
	idx := BuildIndex(progs)
	g, unresolved := BuildGraph(idx, progs)
	if want := []string{"app uses builtin"}; !slices.Equal(unresolved, want) {
		t.Fatalf("unresolved = %v", unresolved)
	}

	topo := ToposortKahn(g)
	if topo.Cyclic {
		t.Fatalf("unexpected cycle: %v", topo.Cycles)
	}
	if got, want := idsToNames(idx, topo.Order), []string{"io", "util", "core", "app"}; !slices.Equal(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
	if len(topo.Batches) != 3 {
		t.Fatalf("batches = %v", topo.Batches)
	}
}

func TestCyclesAreReportedAndRunLast(t *testing.T) {
	progs := []*ir.Program{
		prog("a.xil", "a", "b"),
		prog("b.xil", "b", "a"),
		prog("c.xil", "c", "c"),
	}
	idx := BuildIndex(progs)
	g, _ := BuildGraph(idx, progs)
	topo := ToposortKahn(g)
	if !topo.Cyclic {
		t.Fatalf("expected cycle")
	}
	if got, want := idsToNames(idx, topo.RunOrder()), []string{"c", "a", "b"}; !slices.Equal(got, want) {
		t.Fatalf("run order = %v, want %v", got, want)
	}

	bag := diag.NewBag(10)
	ReportCycles(idx, topo, diag.BagReporter{Bag: bag})
	if bag.Len() != 2 {
		t.Fatalf("expected 2 cycle warnings, got %d", bag.Len())
	}
	for _, d := range bag.Items() {
		if d.Code != diag.LnkUseCycle || d.Severity != diag.SevWarning {
			t.Fatalf("unexpected diagnostic %+v", d)
		}
	}
	if msg := bag.Items()[0].Message; msg != `module "a" participates in a use cycle: a -> b` {
		t.Fatalf("message = %q", msg)
	}
}

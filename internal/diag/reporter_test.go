package diag

import (
	"testing"

	"xil/internal/source"
)

func TestReportBuilderEmitsOnce(t *testing.T) {
	bag := NewBag(10)
	r := BagReporter{Bag: bag}
	sp := source.Span{File: 1, Start: 4, End: 8}

	b := ReportWarning(r, VMSymbolNotFound, sp, "symbol printf not found").
		WithNote(source.Span{File: 1, Start: 0, End: 3}, "declared here")
	b.Emit()
	b.Emit()

	if bag.Len() != 1 {
		t.Fatalf("expected 1 diagnostic, got %d", bag.Len())
	}
	d := bag.Items()[0]
	if d.Severity != SevWarning || d.Code != VMSymbolNotFound || len(d.Notes) != 1 {
		t.Fatalf("unexpected diagnostic: %+v", d)
	}
}

func TestNilBuilderIsSafe(t *testing.T) {
	var b *ReportBuilder
	b.WithNote(source.Span{}, "x").Emit()
	if d := b.Diagnostic(); d.Code != UnknownCode {
		t.Fatalf("unexpected diagnostic %+v", d)
	}
	ReportError(nil, SynUnexpectedLine, source.Span{}, "no reporter").Emit()
	NopReporter{}.Report(SynUnexpectedLine, SevError, source.Span{}, "dropped", nil)
}

func TestDedupReporter(t *testing.T) {
	bag := NewBag(10)
	r := NewDedupReporter(BagReporter{Bag: bag})
	sp := source.Span{File: 1, Start: 10, End: 20}

	for range 3 {
		r.Report(VMFunctionNotFound, SevWarning, sp, "function foo not found", nil)
	}
	r.Report(VMFunctionNotFound, SevWarning, sp, "function bar not found", nil)
	r.Report(VMFunctionNotFound, SevWarning, source.Span{File: 1, Start: 30, End: 40}, "function foo not found", nil)

	if bag.Len() != 3 {
		t.Fatalf("expected 3 unique diagnostics, got %d", bag.Len())
	}
}

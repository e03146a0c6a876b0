package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"xil/internal/ir"
	"xil/internal/source"
)

// CheckProgramSpans runs a minimal set of span invariants on a translated unit:
// 1) every statement span is non-empty and points at sf
// 2) every statement span is within file content bounds
// 3) statements of one function appear in source order
func CheckProgramSpans(p *ir.Program, sf *source.File) error {
	if p == nil || sf == nil {
		return fmt.Errorf("nil program or file")
	}
	lenContent, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}

	for _, fn := range p.Funcs {
		var prev source.Span
		for i, st := range fn.Body {
			sp := st.Span
			if sp.End <= sp.Start {
				return fmt.Errorf("%s[%d]: empty statement span: %v", fn.Name, i, sp)
			}
			if sp.File != sf.ID {
				return fmt.Errorf("%s[%d]: span file mismatch: got=%d want=%d", fn.Name, i, sp.File, sf.ID)
			}
			if sp.End > lenContent {
				return fmt.Errorf("%s[%d]: span end beyond content: %d > %d", fn.Name, i, sp.End, lenContent)
			}
			if i > 0 && sp.Start < prev.End {
				return fmt.Errorf("%s[%d]: span %v overlaps previous %v", fn.Name, i, sp, prev)
			}
			prev = sp
		}
	}
	return nil
}

package diagfmt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"xil/internal/diag"
	"xil/internal/source"
)

func oneDiag(t *testing.T, path, content string, d func(source.FileID) diag.Diagnostic) (*diag.Bag, *source.FileSet) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual(path, []byte(content))
	bag := diag.NewBag(10)
	bag.Add(d(id))
	return bag, fs
}

func TestPrettyExactOutput(t *testing.T) {
	bag, fs := oneDiag(t, "t.xil", "[module app]\nstray line\n", func(id source.FileID) diag.Diagnostic {
		return diag.NewError(diag.SynUnexpectedLine, source.Span{File: id, Start: 13, End: 23}, "unexpected line in [module] section: stray line")
	})

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename})

	want := "t.xil:2:1: ERROR [SYN2001]: unexpected line in [module] section: stray line\n" +
		" 2 | stray line\n" +
		"   | ^~~~~~~~~~\n"
	if got := buf.String(); got != want {
		t.Fatalf("unexpected output:\n%s\nwant:\n%s", got, want)
	}
}

func TestPrettyContextAndWideRunes(t *testing.T) {
	// "ж" занимает два байта, "界" - две колонки терминала
	content := "[fun.main]\nconst=ж,\"界\"\ncall=f\n"
	start := strings.Index(content, "\"界\"")
	bag, fs := oneDiag(t, "w.xil", content, func(id source.FileID) diag.Diagnostic {
		return diag.New(diag.SevWarning, diag.VMStackUnderflow, source.Span{File: id, Start: uint32(start), End: uint32(start + len("\"界\""))}, "wide")
	})

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{Context: 1, PathMode: PathModeBasename})
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")

	if len(lines) != 5 {
		t.Fatalf("expected 5 lines, got %d:\n%s", len(lines), buf.String())
	}
	if lines[0] != "w.xil:2:10: WARNING [VM6002]: wide" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != " 1 | [fun.main]" || lines[4] != " 3 | call=f" {
		t.Errorf("context lines = %q, %q", lines[1], lines[4])
	}
	// const=ж, -> 8 колонок, затем "界" в кавычках -> 4 колонки
	if lines[3] != "   | "+strings.Repeat(" ", 8)+"^~~~" {
		t.Errorf("caret line = %q", lines[3])
	}
}

func TestPrettyWithoutPosition(t *testing.T) {
	bag := diag.NewBag(10)
	bag.Add(diag.NewError(diag.IOLoadFileError, source.Span{}, "failed to load file: gone.xil"))

	var buf bytes.Buffer
	Pretty(&buf, bag, source.NewFileSet(), PrettyOpts{})
	if got := buf.String(); got != "ERROR [IO4001]: failed to load file: gone.xil\n" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestPrettyNotesAndDropped(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("n.xil", []byte("[fun.main]\ncall=x\n"))
	bag := diag.NewBag(1)
	d := diag.New(diag.SevWarning, diag.VMFunctionNotFound, source.Span{File: id, Start: 11, End: 17}, "function 'x' not found")
	d = d.WithNote(source.Span{File: id, Start: 0, End: 10}, "in this function")
	bag.Add(d)
	bag.Add(d)

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename, ShowNotes: true})
	out := buf.String()

	if !strings.Contains(out, "  note: n.xil:1:1: in this function\n") {
		t.Errorf("expected note with location, got:\n%s", out)
	}
	if !strings.HasSuffix(out, "... 1 more diagnostics not shown\n") {
		t.Errorf("expected dropped summary, got:\n%s", out)
	}
}

func TestPrettyColor(t *testing.T) {
	bag, fs := oneDiag(t, "c.xil", "call=x\n", func(id source.FileID) diag.Diagnostic {
		return diag.NewError(diag.VMFunctionNotFound, source.Span{File: id, Start: 0, End: 6}, "boom")
	})

	var plain, colored bytes.Buffer
	Pretty(&plain, bag, fs, PrettyOpts{})
	Pretty(&colored, bag, fs, PrettyOpts{Color: true})

	if strings.Contains(plain.String(), "\x1b[") {
		t.Errorf("plain output has escapes: %q", plain.String())
	}
	if !strings.Contains(colored.String(), "\x1b[") {
		t.Errorf("colored output has no escapes: %q", colored.String())
	}
}

// TestPathModeAuto проверяет авто-режим выбора пути
func TestPathModeAuto(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected string
	}{
		{name: "Short path - as is", path: "test.xil", expected: "test.xil:"},
		{name: "Long absolute path - basename", path: "/very/long/absolute/path/to/some/nested/directory/file.xil", expected: "file.xil:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bag, fs := oneDiag(t, tt.path, "call=x\n", func(id source.FileID) diag.Diagnostic {
				return diag.New(diag.SevWarning, diag.VMFunctionNotFound, source.Span{File: id, Start: 0, End: 6}, "x")
			})
			var buf bytes.Buffer
			Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeAuto})
			if !strings.HasPrefix(buf.String(), tt.expected) {
				t.Errorf("Expected output to start with %q, got:\n%s", tt.expected, buf.String())
			}
		})
	}
}

func TestPathModeRelative(t *testing.T) {
	bag, fs := oneDiag(t, "/home/user/project/src/test.xil", "call=x\n", func(id source.FileID) diag.Diagnostic {
		return diag.New(diag.SevWarning, diag.VMFunctionNotFound, source.Span{File: id, Start: 0, End: 6}, "x")
	})
	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeRelative, BaseDir: "/home/user/project"})
	if !strings.HasPrefix(buf.String(), "src/test.xil:1:1:") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}

func TestJSON(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("j.xil", []byte("[fun.main]\ncall=x\n"))
	bag := diag.NewBag(10)
	bag.Add(diag.New(diag.SevWarning, diag.VMFunctionNotFound, source.Span{File: id, Start: 11, End: 17}, "function 'x' not found"))
	bag.Add(diag.NewError(diag.IOLoadFileError, source.Span{}, "failed to load file: gone.xil"))

	var buf bytes.Buffer
	if err := JSON(&buf, bag, fs, JSONOpts{IncludePositions: true, PathMode: PathModeBasename}); err != nil {
		t.Fatal(err)
	}

	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if out.Count != 2 {
		t.Fatalf("count = %d", out.Count)
	}
	first := out.Diagnostics[0]
	if first.Code != "VM6001" || first.Severity != "WARNING" || first.Title != "Function not found" {
		t.Errorf("unexpected first diagnostic %+v", first)
	}
	if first.Location == nil || first.Location.File != "j.xil" || first.Location.StartLine != 2 || first.Location.StartCol != 1 {
		t.Errorf("unexpected location %+v", first.Location)
	}
	if out.Diagnostics[1].Location != nil {
		t.Errorf("I/O diagnostic must have no location, got %+v", out.Diagnostics[1].Location)
	}

	limited := BuildDiagnosticsOutput(bag, fs, JSONOpts{Max: 1})
	if limited.Count != 1 {
		t.Errorf("Max ignored: %d", limited.Count)
	}
}

func TestUseColor(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	cases := map[string]bool{"on": true, "off": false, "auto": false}
	for mode, want := range cases {
		got, err := UseColor(mode, nil)
		if err != nil || got != want {
			t.Errorf("UseColor(%q) = %v, %v", mode, got, err)
		}
	}
	if _, err := UseColor("sometimes", nil); err == nil {
		t.Error("expected error for unknown mode")
	}
}

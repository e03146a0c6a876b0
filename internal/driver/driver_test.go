package driver

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xil/internal/diag"
	"xil/internal/ffi"
	"xil/internal/graphstore"
	"xil/internal/link"
	"xil/internal/observ"
	"xil/internal/testkit"
)

const logLib = `[lib "libtest"]
log="log"
[ffi]
log=(v:i64)void
`

func writeFiles(t *testing.T, files map[string]string) (dir string) {
	t.Helper()
	dir = t.TempDir()
	for name, text := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(text), 0o600))
	}
	return dir
}

func paths(dir string, names ...string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = filepath.Join(dir, n)
	}
	return out
}

// logLoader records every call to libtest.log in order.
func logLoader(calls *[]any) ffi.Loader {
	return ffi.MemLoader{"libtest": {
		"log": func(args []any) (any, error) {
			*calls = append(*calls, args[0])
			return nil, nil
		},
	}}
}

func TestRunOrdersModulesByUse(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"app.xil":  "[module app]\n[use util]\n[use builtin]\n" + logLib + "[fun.main]\ncall=log,2\n",
		"util.xil": "[module util]\n" + logLib + "[fun.main]\ncall=log,1\n",
	})

	var calls []any
	timer := observ.NewTimer()
	res, err := Run(context.Background(), paths(dir, "app.xil", "util.xil"), Options{
		Loader: logLoader(&calls),
		Timer:  timer,
		Jobs:   2,
	})
	require.NoError(t, err)
	require.Zero(t, res.Bag.Len(), "diagnostics: %v", res.Bag.Items())

	require.Len(t, res.Programs, 2)
	assert.Equal(t, "util", res.Programs[0].Module)
	assert.Equal(t, "app", res.Programs[1].Module)
	assert.Equal(t, []any{int64(1), int64(2)}, calls)
	assert.Len(t, res.Graphs, 2)

	var names []string
	for _, ph := range timer.Report().Phases {
		names = append(names, ph.Name)
	}
	assert.Equal(t, []string{"translate", "link", "graph", "execute"}, names)
}

func TestRunLinksUnitsOfOneModule(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"main.xil":   "[module app]\n" + logLib + "[fun.main]\ncall=helper,7\n",
		"helper.xil": "[module app]\n[fun.helper]\ndecl=(v:i64)void\ncall=log,v\n",
	})

	var calls []any
	res, err := Run(context.Background(), paths(dir, "main.xil", "helper.xil"), Options{Loader: logLoader(&calls)})
	require.NoError(t, err)
	require.Zero(t, res.Bag.Len(), "diagnostics: %v", res.Bag.Items())

	require.Len(t, res.Programs, 1)
	assert.Equal(t, "main.xil", res.Programs[0].Unit)
	assert.Equal(t, []string{"main.xil", "helper.xil"}, res.Programs[0].Sources)
	assert.Equal(t, []any{int64(7)}, calls)
}

func TestBuildStopsOnLinkCollision(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.xil": "[module app]\n[fun.main]\ncall=x\n",
		"b.xil": "[module app]\n[fun.main]\ncall=y\n",
	})

	res, err := Build(context.Background(), paths(dir, "a.xil", "b.xil"), Options{})
	require.Error(t, err)

	var dup *link.DuplicateError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "main", dup.Name)
	assert.Equal(t, []string{"a.xil", "b.xil"}, dup.Units)
	assert.Equal(t, []diag.Code{diag.LnkDuplicateFunction}, res.Bag.Codes())
	assert.Empty(t, res.Programs)
}

func TestMissingFileIsADiagnostic(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"main.xil": "[module app]\n[fun.main]\n",
	})

	res, err := Build(context.Background(), paths(dir, "main.xil", "gone.xil"), Options{})
	require.NoError(t, err)

	require.Len(t, res.Units, 2)
	assert.NotNil(t, res.Units[0].Program)
	assert.Nil(t, res.Units[1].Program)
	assert.Equal(t, []diag.Code{diag.IOLoadFileError}, res.Bag.Codes())
	assert.True(t, strings.HasPrefix(res.Bag.Items()[0].Message, "failed to load file: "))
	assert.Len(t, res.Programs, 1)
}

func TestTranslationCache(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"main.xil": "[module app]\nstray line\n" + logLib + "[fun.main]\ncall=log,3\n",
	})
	cache, err := NewDiskCache(filepath.Join(t.TempDir(), "cache"))
	require.NoError(t, err)

	opts := Options{Cache: cache}
	first, err := Translate(context.Background(), paths(dir, "main.xil"), opts)
	require.NoError(t, err)
	require.Len(t, first.Units, 1)
	assert.False(t, first.Units[0].Cached)

	second, err := Translate(context.Background(), paths(dir, "main.xil"), opts)
	require.NoError(t, err)
	require.Len(t, second.Units, 1)
	got, want := second.Units[0], first.Units[0]
	require.True(t, got.Cached)

	assert.Equal(t, want.Bag.Codes(), got.Bag.Codes())
	assert.Equal(t, []diag.Code{diag.SynUnexpectedLine}, got.Bag.Codes())
	assert.Equal(t, want.Bag.Items()[0].Primary, got.Bag.Items()[0].Primary)

	require.Len(t, got.Program.Funcs, 1)
	wantStmt, gotStmt := want.Program.Funcs[0].Body[0], got.Program.Funcs[0].Body[0]
	assert.Equal(t, wantStmt.String(), gotStmt.String())
	assert.Equal(t, wantStmt.Span, gotStmt.Span)
	assert.Equal(t, got.FileID, gotStmt.Span.File)
	require.NoError(t, testkit.CheckProgramSpans(got.Program, second.Files.Get(got.FileID)))
	assert.Equal(t, want.Program.Module, got.Program.Module)

	// другое содержимое - другой ключ
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.xil"), []byte("[module app]\n[fun.main]\n"), 0o600))
	third, err := Translate(context.Background(), paths(dir, "main.xil"), opts)
	require.NoError(t, err)
	assert.False(t, third.Units[0].Cached)

	require.NoError(t, cache.DropAll())
	fourth, err := Translate(context.Background(), paths(dir, "main.xil"), opts)
	require.NoError(t, err)
	assert.False(t, fourth.Units[0].Cached)
}

func TestDiskCacheSchemaMismatchIsAMiss(t *testing.T) {
	cache, err := NewDiskCache(t.TempDir())
	require.NoError(t, err)

	var key [32]byte
	key[0] = 1
	payload := unitToPayload("main.xil", nil, nil)
	payload.Schema = diskCacheSchemaVersion + 1
	require.NoError(t, cache.Put(key, payload))

	var out DiskPayload
	ok, err := cache.Get(key, &out)
	require.NoError(t, err)
	assert.False(t, ok)

	var nilCache *DiskCache
	ok, err = nilCache.Get(key, &out)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, nilCache.Put(key, payload))
}

func TestBuildWritesDiagramAndStore(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"main.xil": "[module app]\n[use builtin]\n[fun.main]\ncall=exit,0\n",
	})
	store, err := graphstore.Open(filepath.Join(t.TempDir(), "graphs.db"))
	require.NoError(t, err)
	defer store.Close()

	var diagram bytes.Buffer
	res, err := Build(context.Background(), paths(dir, "main.xil"), Options{
		Diagram: &diagram,
		Store:   store,
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(diagram.String()), "\n")
	assert.Equal(t, "UNIT-1 --> main.xil", lines[0])
	assert.Contains(t, lines, "MODULE-1 --> app")

	require.Len(t, res.GraphIDs, 1)
	g, meta, err := store.Load(context.Background(), res.GraphIDs[0])
	require.NoError(t, err)
	assert.Equal(t, "main.xil", meta.Unit)
	assert.Equal(t, "app", meta.Module)
	assert.Equal(t, res.Graphs[0].Edges, g.Edges)
	assert.Equal(t, res.Graphs[0].Strings, g.Strings)
}

func TestRunRecordsStoppedPrograms(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"loop.xil": "[module loop]\n[fun.main]\nlabel=top\nif=1,top\n",
		"ok.xil":   "[module ok]\n" + logLib + "[fun.main]\ncall=log,5\n",
	})

	var calls []any
	res, err := Run(context.Background(), paths(dir, "loop.xil", "ok.xil"), Options{
		Loader:   logLoader(&calls),
		MaxSteps: 20,
	})
	require.NoError(t, err)

	require.Len(t, res.RunErrors, 1)
	assert.Equal(t, diag.VMStepBudget, res.RunErrors[0].Code)
	assert.Equal(t, []diag.Code{diag.VMStepBudget}, res.Bag.Codes())
	assert.Equal(t, []any{int64(5)}, calls)
}

func TestRunTraceAndMissingMain(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"lib.xil":  "[module lib]\n[fun.helper]\n",
		"main.xil": "[module app]\n[fun.main]\nconst=x,1\n",
	})

	var out bytes.Buffer
	res, err := Run(context.Background(), paths(dir, "lib.xil", "main.xil"), Options{VMTrace: &out})
	require.NoError(t, err)

	assert.Equal(t, []diag.Code{diag.VMMissingMain}, res.Bag.Codes())
	assert.Equal(t, "no 'main' function found in module lib", res.Bag.Items()[0].Message)
	assert.Contains(t, out.String(), "[depth=1] main pc0 const=x,1 @ "+filepath.ToSlash(filepath.Join(dir, "main.xil"))+":3:1")
}

func TestTranslateHonoursCancellation(t *testing.T) {
	dir := writeFiles(t, map[string]string{"main.xil": "[module app]\n"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Translate(ctx, paths(dir, "main.xil"), Options{})
	require.ErrorIs(t, err, context.Canceled)
}

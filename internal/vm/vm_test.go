package vm

import (
	"bytes"
	"strings"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xil/internal/diag"
	"xil/internal/ffi"
	"xil/internal/ir"
	"xil/internal/parser"
	"xil/internal/source"
)

// recorder is an in-memory library whose functions remember their arguments.
type recorder struct {
	calls map[string][][]any
}

func newRecorder() *recorder {
	return &recorder{calls: make(map[string][][]any)}
}

func (r *recorder) fn(name string, result func(args []any) any) ffi.Func {
	return func(args []any) (any, error) {
		r.calls[name] = append(r.calls[name], append([]any(nil), args...))
		if result == nil {
			return nil, nil
		}
		return result(args), nil
	}
}

const header = `[module app]
[lib "libtest"]
exit="exit"
rec="rec"
two="two"
strlen="strlen"
[ffi]
exit=(code:i32)void
rec=(a:i64,b:i64)void
two=()i64
strlen=(s:ptr)u64
`

type harness struct {
	vm   *VM
	rec  *recorder
	bag  *diag.Bag
	err  *VMError
	prog *ir.Program
}

func run(t *testing.T, src string, opts Options) *harness {
	t.Helper()
	parseBag := diag.NewBag(50)
	p := parser.Translate("main.xil", header+src, diag.BagReporter{Bag: parseBag})
	require.Zero(t, parseBag.Len(), "parse diagnostics: %v", parseBag.Items())

	rec := newRecorder()
	opts.Loader = ffi.MemLoader{"libtest": {
		"exit": rec.fn("exit", nil),
		"rec":  rec.fn("rec", nil),
		"two":  rec.fn("two", func([]any) any { return int64(2) }),
		"strlen": rec.fn("strlen", func(args []any) any {
			return uint64(len(args[0].(string)))
		}),
	}}
	bag := diag.NewBag(50)
	opts.Reporter = diag.BagReporter{Bag: bag}
	m := New(p, opts)
	err := m.Run()
	return &harness{vm: m, rec: rec, bag: bag, err: err, prog: p}
}

func TestScenarioEqualComparisonFallsThrough(t *testing.T) {
	h := run(t, `[fun.main]
cmp=5,5
if=0,skip
call=exit,1
label=skip
call=exit,0
`, Options{})
	require.Nil(t, h.err)
	assert.Zero(t, h.bag.Len())
	assert.Equal(t, [][]any{{int64(1)}, {int64(0)}}, h.rec.calls["exit"])
}

func TestUnequalConditionJumpsToLabel(t *testing.T) {
	h := run(t, `[fun.main]
cmp=5,5
if=1,skip
call=exit,1
label=skip
call=exit,0
`, Options{})
	require.Nil(t, h.err)
	assert.Equal(t, [][]any{{int64(0)}}, h.rec.calls["exit"])
}

func TestScenarioDeclBindsInDeclarationOrder(t *testing.T) {
	h := run(t, `[fun.main]
call=f,10,20
[fun.f]
call=rec,a,b
decl=(a:i32,b:i32)void
`, Options{})
	require.Nil(t, h.err)
	assert.Zero(t, h.bag.Len())
	assert.Equal(t, [][]any{{int64(10), int64(20)}}, h.rec.calls["rec"])
	// decl съел аргументы, seed остался
	assert.Equal(t, []Value{IntValue(0), IntValue(0)}, h.vm.Stack)
}

func TestCmpResults(t *testing.T) {
	for _, tc := range []struct {
		a, b string
		want int64
	}{
		{"1", "2", -1},
		{"2", "1", 1},
		{"2", "2.0", 0},
		{"2.5", "2", 1},
		{`"x"`, "x", 0},
		{`"x"`, `"y"`, -1},
		{`"2"`, "2", -1},
		{"18446744073709551615", "1", 1},
		{"-1", "18446744073709551615", -1},
	} {
		assert.Equal(t, tc.want, Compare(ParseLiteral(tc.a), ParseLiteral(tc.b)), "cmp=%s,%s", tc.a, tc.b)
	}
}

func TestCmpWritesLocalReadByIf(t *testing.T) {
	h := run(t, `[fun.main]
cmp=1,2
if=-1,less
call=exit,9
label=less
cmp=3,2
if=1,done
call=exit,8
label=done
`, Options{})
	require.Nil(t, h.err)
	assert.Equal(t, [][]any{{int64(9)}, {int64(8)}}, h.rec.calls["exit"])
}

func TestIfWithoutCmpComparesAgainstZero(t *testing.T) {
	h := run(t, `[fun.main]
if=0,end
call=exit,1
label=end
if=3,end2
call=exit,2
label=end2
call=exit,3
`, Options{})
	require.Nil(t, h.err)
	assert.Equal(t, [][]any{{int64(1)}, {int64(3)}}, h.rec.calls["exit"])
}

func TestConstOperands(t *testing.T) {
	h := run(t, `[fun.main]
const=msg,"hi\nthere"
const=n,42
const=pi,3.5
call=rec,msg.bytes,n
call=strlen,msg
call=rec,pi,msg.nope
const=again,"hi\nthere"
`, Options{})
	require.Nil(t, h.err)
	assert.Equal(t, [][]any{{int64(8), int64(42)}, {3.5, "msg.nope"}}, h.rec.calls["rec"])
	assert.Equal(t, [][]any{{"hi\nthere"}}, h.rec.calls["strlen"])
	// strlen вернул 8, он на стеке
	assert.Equal(t, IntValue(8), h.vm.Stack[len(h.vm.Stack)-1])
	assert.Equal(t, 3, h.vm.Pool.Len())
}

func TestConstPtrPointsAtTerminatedBytes(t *testing.T) {
	pool := NewConstPool()
	c := pool.Intern(ParseConst(`"abc"`))
	require.NotZero(t, c.Ptr())
	b := unsafe.Slice((*byte)(unsafe.Pointer(c.Ptr())), 4) //nolint:govet // pool keeps the buffer alive
	assert.Equal(t, []byte("abc\x00"), b)
	assert.Equal(t, 3, c.Bytes())
	assert.Same(t, c, pool.Intern(StringValue("abc")))
	assert.NotSame(t, c, pool.Intern(IntValue(3)))
}

func TestParseConst(t *testing.T) {
	assert.Equal(t, IntValue(-7), ParseConst(" -7 "))
	assert.Equal(t, FloatValue(1e3), ParseConst("1e3"))
	assert.Equal(t, UintValue(18446744073709551615), ParseConst("18446744073709551615"))
	assert.Equal(t, StringValue("a\nb"), ParseConst(`"a\nb"`))
	assert.Equal(t, StringValue("raw\n"), ParseConst(`raw\n`))
	assert.Equal(t, StringValue(""), ParseConst(`""`))
}

func TestParseLiteral(t *testing.T) {
	assert.Equal(t, IntValue(5), ParseLiteral("5"))
	assert.Equal(t, FloatValue(0.5), ParseLiteral("0.5"))
	assert.Equal(t, StringValue(`a\n`), ParseLiteral(`"a\n"`))
	assert.Equal(t, IdentValue("name"), ParseLiteral("name"))
}

func TestForeignResultIsPushedAndMoved(t *testing.T) {
	h := run(t, `[fun.main]
call=two
move=x
call=rec,x,x
call=exit,0
move=y
`, Options{})
	require.Nil(t, h.err)
	assert.Equal(t, [][]any{{int64(2), int64(2)}}, h.rec.calls["rec"])
	// exit void - на стек ничего, y забирает seed
	assert.Equal(t, []Value{IntValue(0)}, h.vm.Stack)
}

func TestMoveUnderflowIsReported(t *testing.T) {
	h := run(t, `[fun.main]
move=a
move=b
move=c
call=exit,0
`, Options{})
	require.Nil(t, h.err)
	assert.Equal(t, []diag.Code{diag.VMStackUnderflow}, h.bag.Codes())
	assert.Equal(t, [][]any{{int64(0)}}, h.rec.calls["exit"])
}

func TestDeclUnderflowSkipsBinding(t *testing.T) {
	h := run(t, `[fun.main]
call=f
[fun.f]
decl=(a:i32,b:i32,c:i32)void
call=rec,a,b
`, Options{})
	require.Nil(t, h.err)
	assert.Equal(t, []diag.Code{diag.VMStackUnderflow}, h.bag.Codes())
	assert.Equal(t, [][]any{{"a", "b"}}, h.rec.calls["rec"])
	assert.Len(t, h.vm.Stack, 2)
}

func TestUnknownFunctionIsReported(t *testing.T) {
	h := run(t, `[fun.main]
label=top
call=nowhere
cmp=1,1
call=exit,0
`, Options{})
	require.Nil(t, h.err)
	require.Equal(t, []diag.Code{diag.VMFunctionNotFound}, h.bag.Codes())
	assert.Equal(t, diag.SevWarning, h.bag.Items()[0].Severity)
	assert.Contains(t, h.bag.Items()[0].Message, "'nowhere'")
	assert.Len(t, h.rec.calls["exit"], 1)
}

func TestMissingLabelAbortsOnlyCurrentFunction(t *testing.T) {
	h := run(t, `[fun.main]
call=f
call=exit,0
[fun.f]
call=exit,1
if=1,nowhere
call=exit,2
`, Options{})
	require.Nil(t, h.err)
	assert.Equal(t, []diag.Code{diag.VMLabelNotFound}, h.bag.Codes())
	assert.Equal(t, [][]any{{int64(1)}, {int64(0)}}, h.rec.calls["exit"])
}

func TestMissingMainIsWarning(t *testing.T) {
	h := run(t, "[fun.other]\ncall=exit,1\n", Options{})
	require.Nil(t, h.err)
	require.Equal(t, []diag.Code{diag.VMMissingMain}, h.bag.Codes())
	assert.Contains(t, h.bag.Items()[0].Message, "module app")
	assert.Empty(t, h.rec.calls)
	assert.Nil(t, h.vm.FFI)
}

func TestStepBudgetStopsInfiniteLoop(t *testing.T) {
	h := run(t, `[fun.main]
label=top
call=exit,0
if=1,top
`, Options{MaxSteps: 10})
	require.NotNil(t, h.err)
	assert.Equal(t, diag.VMStepBudget, h.err.Code)
	assert.True(t, h.err.Fatal())
	assert.Len(t, h.rec.calls["exit"], 5)
	assert.Equal(t, []diag.Code{diag.VMStepBudget}, h.bag.Codes())
}

func TestStepBudgetUnwindsNestedCalls(t *testing.T) {
	h := run(t, `[fun.main]
call=loop
call=exit,9
[fun.loop]
label=again
if=1,again
`, Options{MaxSteps: 100})
	require.NotNil(t, h.err)
	assert.Empty(t, h.rec.calls["exit"])
	require.Len(t, h.err.Backtrace, 2)
	assert.Equal(t, "loop", h.err.Backtrace[0].FuncName)
	assert.Equal(t, "main", h.err.Backtrace[1].FuncName)
}

func TestCallDepthLimit(t *testing.T) {
	h := run(t, `[fun.main]
call=main
`, Options{MaxDepth: 50})
	require.NotNil(t, h.err)
	assert.Equal(t, diag.VMCallDepth, h.err.Code)
	assert.Len(t, h.err.Backtrace, 50)
	assert.Zero(t, h.vm.Depth())
}

func TestForeignFailureIsReported(t *testing.T) {
	h := run(t, `[fun.main]
call=rec,1
call=exit,0
`, Options{})
	require.Nil(t, h.err)
	assert.Equal(t, []diag.Code{diag.VMForeignCall}, h.bag.Codes())
	assert.Len(t, h.rec.calls["exit"], 1)
}

func TestUnresolvedForeignFunctionFallsBackToNotFound(t *testing.T) {
	bag := diag.NewBag(10)
	p := parser.Translate("main.xil", `[lib "nolib"]
f="f"
[ffi]
f=()void
[fun.main]
call=f
`, diag.BagReporter{Bag: bag})
	require.Zero(t, bag.Len())

	m := New(p, Options{Loader: ffi.MemLoader{}, Reporter: diag.BagReporter{Bag: bag}})
	require.Nil(t, m.Run())
	assert.Equal(t, []diag.Code{diag.VMLibraryNotLoaded, diag.VMLibraryNotLoaded, diag.VMFunctionNotFound}, bag.Codes())
}

func TestSeedAndDuplicateReports(t *testing.T) {
	h := run(t, `[fun.main]
move=a
move=b
label=top
call=nowhere
cmp=1,1
if=1,top
`, Options{Seed: []Value{IntValue(1)}, MaxSteps: 20})
	require.NotNil(t, h.err)
	// одинаковые диагностики внутри цикла схлопываются
	assert.Equal(t, []diag.Code{diag.VMStackUnderflow, diag.VMFunctionNotFound, diag.VMStepBudget}, h.bag.Codes())
}

func TestTraceOutput(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("trace.xil", []byte("[fun.main]\nconst=x,7\ncall=f,x\n[fun.f]\ndecl=(a:i64)void\n"))
	res := parser.TranslateFile(fs, id, parser.Options{Unit: "trace.xil", Reporter: diag.BagReporter{Bag: diag.NewBag(10)}})
	require.Zero(t, res.Bag.Len())

	var buf bytes.Buffer
	m := New(res.Program, Options{Trace: NewTracer(&buf, fs), Files: fs, Loader: ffi.MemLoader{}, Seed: []Value{}})
	require.Nil(t, m.Run())

	want := strings.Join([]string{
		"[depth=1] main pc0 const=x,7 @ trace.xil:2:1",
		"    write x = const#1(7)",
		"[depth=1] main pc1 call=f,x @ trace.xil:3:1",
		"    push 7",
		"[depth=2] f pc0 decl=(a:i64)void @ trace.xil:5:1",
		"    write a = 7",
		"",
	}, "\n")
	assert.Equal(t, want, buf.String())
	assert.Equal(t, 2, m.Steps())
}

func TestVMErrorFormat(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("err.xil", []byte("[fun.main]\ncall=main\n"))
	res := parser.TranslateFile(fs, id, parser.Options{})
	m := New(res.Program, Options{Files: fs, Loader: ffi.MemLoader{}, MaxDepth: 2})
	err := m.Run()
	require.NotNil(t, err)
	assert.Equal(t, "vm VM6010: call depth limit 2 exceeded calling 'main'", err.Error())
	assert.Equal(t, "vm VM6010: call depth limit 2 exceeded calling 'main'\n"+
		"at err.xil:2:1\n"+
		"backtrace:\n"+
		"  0: main at err.xil:2:1\n"+
		"  1: main at err.xil:2:1\n", err.FormatWithFiles(fs))
}

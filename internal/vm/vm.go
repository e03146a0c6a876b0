package vm

import (
	"fmt"

	"go.uber.org/zap"

	"xil/internal/diag"
	"xil/internal/ffi"
	"xil/internal/ir"
	"xil/internal/source"
)

// DefaultMaxDepth bounds nested calls when Options.MaxDepth is zero.
const DefaultMaxDepth = 4096

// Options configures VM execution.
type Options struct {
	Reporter diag.Reporter   // runtime findings; duplicates are dropped
	Trace    *Tracer         // statement trace, nil to disable
	Files    *source.FileSet // resolves spans in errors and traces
	Loader   ffi.Loader      // ffi.NativeLoader when nil
	Logger   *zap.Logger

	// Seed is the initial operand stack. Nil means two zero integers
	// standing in for argc and argv.
	Seed []Value

	MaxSteps int // 0 means unlimited
	MaxDepth int // 0 means DefaultMaxDepth
}

// VM executes one Program.
type VM struct {
	Prog  *ir.Program
	Stack []Value
	Pool  *ConstPool
	FFI   *ffi.Registry

	opts   Options
	rep    diag.Reporter
	log    *zap.Logger
	frames []*Frame
	steps  int
}

// New creates a VM for p. Nothing is loaded until Run.
func New(p *ir.Program, opts Options) *VM {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	var rep diag.Reporter = diag.NopReporter{}
	if opts.Reporter != nil {
		rep = diag.NewDedupReporter(opts.Reporter)
	}
	return &VM{
		Prog: p,
		Pool: NewConstPool(),
		opts: opts,
		rep:  rep,
		log:  log.Named("vm"),
	}
}

// Run builds the foreign-function registry, seeds the stack and executes
// main. A program without main is reported and does nothing. The returned
// error is non-nil only when the run was stopped: by the step budget or by
// the call depth limit. Everything else is reported and execution goes on.
func (vm *VM) Run() (vmErr *VMError) {
	if vm.Prog == nil {
		return nil
	}
	fn, ok := vm.Prog.Func("main")
	if !ok {
		module := vm.Prog.Module
		if module == "" {
			module = "unknown"
		}
		vm.report(diag.VMMissingMain, diag.SevWarning, source.Span{}, fmt.Sprintf("no 'main' function found in module %s", module))
		return nil
	}

	vm.FFI = ffi.NewRegistry(vm.Prog, ffi.RegistryOptions{
		Loader:   vm.opts.Loader,
		Logger:   vm.log,
		Reporter: vm.rep,
	})
	defer func() {
		if err := vm.FFI.Close(); err != nil {
			vm.log.Warn("closing libraries", zap.Error(err))
		}
	}()

	if vm.opts.Seed != nil {
		vm.Stack = append(vm.Stack[:0], vm.opts.Seed...)
	} else {
		vm.Stack = append(vm.Stack[:0], IntValue(0), IntValue(0))
	}
	vm.steps = 0

	vm.log.Debug("run", zap.String("unit", vm.Prog.Unit), zap.Int("ffi", vm.FFI.Len()))
	if err := vm.execFunc(fn); err.Fatal() {
		return err
	}
	return nil
}

// Steps returns the number of statements dispatched by the last Run.
func (vm *VM) Steps() int {
	return vm.steps
}

// Depth returns the number of active frames.
func (vm *VM) Depth() int {
	return len(vm.frames)
}

func (vm *VM) report(code diag.Code, sev diag.Severity, sp source.Span, msg string) {
	vm.rep.Report(code, sev, sp, msg, nil)
	if sev == diag.SevError {
		vm.log.Debug(msg, zap.String("code", code.ID()))
	}
}

func (vm *VM) push(vals ...Value) {
	vm.Stack = append(vm.Stack, vals...)
	vm.opts.Trace.TraceStack("push", vals)
}

func (vm *VM) pop() Value {
	n := len(vm.Stack) - 1
	v := vm.Stack[n]
	vm.Stack = vm.Stack[:n]
	return v
}

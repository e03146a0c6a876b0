package vm

import (
	"fmt"
	"strings"

	"xil/internal/diag"
	"xil/internal/ir"
)

// execFunc runs one invocation of fn: decl statements first, in source
// order, then everything else by program counter.
func (vm *VM) execFunc(fn *ir.Function) *VMError {
	if len(vm.frames) >= vm.opts.MaxDepth {
		err := vm.makeError(diag.VMCallDepth, fmt.Sprintf("call depth limit %d exceeded calling '%s'", vm.opts.MaxDepth, fn.Name))
		vm.report(err.Code, diag.SevError, err.Span, err.Message)
		return err
	}
	f := NewFrame(fn)
	vm.frames = append(vm.frames, f)
	defer func() { vm.frames = vm.frames[:len(vm.frames)-1] }()

	for i := range fn.Body {
		if st := &fn.Body[i]; st.Kind == ir.StmtDecl {
			f.PC, f.Span = i, st.Span
			vm.opts.Trace.TraceStmt(len(vm.frames), fn, i, st)
			vm.execDecl(f, st)
		}
	}

	for f.PC = 0; f.PC < len(fn.Body); {
		st := &fn.Body[f.PC]
		if st.Kind == ir.StmtDecl || st.Kind == ir.StmtLabel {
			f.PC++
			continue
		}
		f.Span = st.Span
		vm.steps++
		if vm.opts.MaxSteps > 0 && vm.steps > vm.opts.MaxSteps {
			err := vm.makeError(diag.VMStepBudget, fmt.Sprintf("step budget of %d statements exhausted", vm.opts.MaxSteps))
			vm.report(err.Code, diag.SevError, err.Span, err.Message)
			return err
		}
		vm.opts.Trace.TraceStmt(len(vm.frames), fn, f.PC, st)

		label, jump, err := vm.exec(f, st)
		if err != nil {
			return err
		}
		if !jump {
			f.PC++
			continue
		}
		target, ok := f.Labels[label]
		if !ok {
			err := vm.makeError(diag.VMLabelNotFound, fmt.Sprintf("label '%s' not found", label))
			vm.report(err.Code, diag.SevError, err.Span, err.Message)
			return err
		}
		vm.opts.Trace.TraceJump(len(vm.frames), fn, label, target)
		// переход на сам label; он пропускается на следующей итерации
		f.PC = target
	}
	return nil
}

// exec dispatches one statement. A taken if returns its label.
func (vm *VM) exec(f *Frame, st *ir.Stmt) (label string, jump bool, err *VMError) {
	switch st.Kind {
	case ir.StmtCall:
		return "", false, vm.execCall(f, st)
	case ir.StmtMove:
		vm.execMove(f, st)
	case ir.StmtConst:
		vm.execConst(f, st)
	case ir.StmtCmp:
		a, b := vm.resolve(f, st.Cmp.A), vm.resolve(f, st.Cmp.B)
		vm.bind(f, cmpLocal, IntValue(Compare(a, b)))
	case ir.StmtIf:
		cond := vm.resolve(f, st.If.Cond)
		if !Equal(cond, f.Cmp()) {
			return strings.TrimSpace(st.If.Label), true, nil
		}
	}
	return "", false, nil
}

func (vm *VM) execCall(f *Frame, st *ir.Stmt) *VMError {
	name := strings.TrimSpace(st.Call.Name)
	args := make([]Value, len(st.Call.Args))
	for i, a := range st.Call.Args {
		args[i] = vm.resolve(f, a)
	}

	if e, ok := vm.FFI.Lookup(name); ok {
		in := make([]any, len(args))
		for i, a := range args {
			in[i] = a.Interface()
		}
		res, err := e.Call(in)
		if err != nil {
			vm.report(diag.VMForeignCall, diag.SevError, st.Span, fmt.Sprintf("call to '%s' failed: %v", name, err))
			return nil
		}
		if v, ok := FromForeign(res); ok {
			vm.push(v)
		}
		return nil
	}

	if fn, ok := vm.Prog.Func(name); ok {
		vm.push(args...)
		err := vm.execFunc(fn)
		if err.Fatal() {
			return err
		}
		return nil
	}

	vm.report(diag.VMFunctionNotFound, diag.SevWarning, st.Span, fmt.Sprintf("function '%s' not found", name))
	return nil
}

func (vm *VM) execMove(f *Frame, st *ir.Stmt) {
	name := strings.TrimSpace(st.Move.Var)
	if len(vm.Stack) == 0 {
		vm.report(diag.VMStackUnderflow, diag.SevError, st.Span, fmt.Sprintf("stack is empty, cannot move to variable '%s'", name))
		return
	}
	vm.bind(f, name, vm.pop())
}

func (vm *VM) execConst(f *Frame, st *ir.Stmt) {
	c := vm.Pool.Intern(ParseConst(st.Const.Literal))
	vm.bind(f, strings.TrimSpace(st.Const.Name), ConstValue(c))
}

// execDecl pops one value per parameter and binds them in declaration
// order, so the first parameter receives the deepest of the popped values.
func (vm *VM) execDecl(f *Frame, st *ir.Stmt) {
	params := st.Decl.Params
	n := len(params)
	if n == 0 {
		return
	}
	if len(vm.Stack) < n {
		vm.report(diag.VMStackUnderflow, diag.SevError, st.Span,
			fmt.Sprintf("stack has only %d values, but %d parameters expected", len(vm.Stack), n))
		return
	}
	vals := vm.Stack[len(vm.Stack)-n:]
	for i, prm := range params {
		vm.bind(f, strings.TrimSpace(prm.Name), vals[i])
	}
	vm.Stack = vm.Stack[:len(vm.Stack)-n]
}

func (vm *VM) bind(f *Frame, name string, v Value) {
	f.Locals[name] = v
	vm.opts.Trace.TraceWrite(name, v)
}

// resolve evaluates an operand. `x.ptr` and `x.bytes` on a local bound to a
// string constant give the address and byte length of its encoding. A local
// name gives its value with constants unboxed. Anything else is a literal.
func (vm *VM) resolve(f *Frame, operand string) Value {
	operand = strings.TrimSpace(operand)
	if base, prop, ok := strings.Cut(operand, "."); ok {
		if v, isLocal := f.Local(base); isLocal {
			if v.Kind == VKConst && v.Const != nil && v.Const.Value.Kind == VKString {
				switch prop {
				case "ptr":
					return PtrValue(v.Const.Ptr())
				case "bytes":
					return IntValue(int64(v.Const.Bytes()))
				}
			}
			return IdentValue(operand)
		}
	}
	if v, ok := f.Local(operand); ok {
		return v.Unbox()
	}
	return ParseLiteral(operand)
}

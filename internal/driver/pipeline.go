package driver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strconv"

	"go.uber.org/zap"

	"xil/internal/diag"
	"xil/internal/ffi"
	"xil/internal/graph"
	"xil/internal/graphexport"
	"xil/internal/graphstore"
	"xil/internal/ir"
	"xil/internal/link"
	"xil/internal/observ"
	"xil/internal/project/dag"
	"xil/internal/source"
	"xil/internal/trace"
	"xil/internal/vm"
)

// DefaultMaxDiagnostics is used when Options.MaxDiagnostics is not positive.
const DefaultMaxDiagnostics = 100

// Options настраивает конвейер translate -> link -> graph -> run.
type Options struct {
	MaxDiagnostics int
	Jobs           int         // 0 means GOMAXPROCS
	Cache          *DiskCache  // nil disables the translation cache
	Logger         *zap.Logger // nil means zap.NewNop
	Timer          *observ.Timer

	// Diagram receives the diagram of every built graph when set.
	Diagram io.Writer
	// Store persists every built graph when set.
	Store *graphstore.Store

	Loader   ffi.Loader // native loader when nil
	VMTrace  io.Writer  // statement trace of the VM, nil to disable
	MaxSteps int        // VM step budget, 0 means unlimited
	MaxDepth int        // VM call depth, 0 means vm.DefaultMaxDepth
}

func (o Options) withDefaults() Options {
	if o.MaxDiagnostics <= 0 {
		o.MaxDiagnostics = DefaultMaxDiagnostics
	}
	if o.Jobs <= 0 {
		o.Jobs = runtime.GOMAXPROCS(0)
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Result collects everything the pipeline produced, including partial
// output when a stage failed.
type Result struct {
	Files *source.FileSet
	Units []UnitResult

	// Programs are the linked programs in run order: a module comes after
	// the modules it uses. Graphs and GraphIDs are parallel to Programs.
	Programs []*ir.Program
	Graphs   []*graph.Graph
	GraphIDs []string

	Bag       *diag.Bag
	RunErrors []*vm.VMError
}

// Translate loads and translates paths and merges their diagnostics.
func Translate(ctx context.Context, paths []string, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	res := &Result{
		Files: source.NewFileSet(),
		Bag:   diag.NewBag(opts.MaxDiagnostics),
	}

	ctx, sp := trace.Start(ctx, trace.ScopePass, "translate")
	idx := opts.Timer.Begin("translate")
	units, err := TranslateFiles(ctx, res.Files, paths, opts)
	res.Units = units

	cached := 0
	for _, u := range units {
		if u.Bag != nil {
			res.Bag.Merge(u.Bag)
		}
		if u.Cached {
			cached++
		}
	}
	note := fmt.Sprintf("%d files, %d cached", len(paths), cached)
	opts.Timer.End(idx, note)
	sp.End(note)
	if err != nil {
		return res, fmt.Errorf("translate: %w", err)
	}
	return res, nil
}

// Build translates paths, links the units, orders the linked programs by
// their uses and builds one graph per program. A link collision or a
// malformed program stops the build with an error.
func Build(ctx context.Context, paths []string, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	ctx, sp := trace.Start(ctx, trace.ScopeDriver, "build")
	defer sp.End("")

	res, err := Translate(ctx, paths, opts)
	if err != nil {
		return res, err
	}
	if err := linkUnits(ctx, res, opts); err != nil {
		return res, err
	}
	if err := buildGraphs(ctx, res, opts); err != nil {
		return res, err
	}
	return res, nil
}

func linkUnits(ctx context.Context, res *Result, opts Options) error {
	_, sp := trace.Start(ctx, trace.ScopePass, "link")
	idx := opts.Timer.Begin("link")

	programs := make([]*ir.Program, 0, len(res.Units))
	for _, u := range res.Units {
		if u.Program != nil {
			programs = append(programs, u.Program)
		}
	}
	linked, err := link.Link(programs)
	if err != nil {
		for _, d := range duplicates(err) {
			diag.ReportError(diag.BagReporter{Bag: res.Bag}, d.Code(), source.Span{}, d.Error()).Emit()
		}
		opts.Timer.End(idx, "failed")
		sp.End("failed")
		return fmt.Errorf("link: %w", err)
	}

	// порядок запуска: зависимости раньше тех, кто их использует
	index := dag.BuildIndex(linked)
	g, unresolved := dag.BuildGraph(index, linked)
	for _, u := range unresolved {
		opts.Logger.Debug("use outside of the build", zap.String("use", u))
	}
	topo := dag.ToposortKahn(g)
	dag.ReportCycles(index, topo, diag.BagReporter{Bag: res.Bag})

	order := topo.RunOrder()
	res.Programs = make([]*ir.Program, 0, len(order))
	for _, id := range order {
		res.Programs = append(res.Programs, linked[int(id)])
	}

	note := fmt.Sprintf("%d units, %d programs", len(programs), len(linked))
	opts.Timer.End(idx, note)
	sp.End(note)
	return nil
}

// duplicates unwraps the collisions joined by link.Link.
func duplicates(err error) []*link.DuplicateError {
	var errs []error
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	} else {
		errs = []error{err}
	}
	var out []*link.DuplicateError
	for _, e := range errs {
		var d *link.DuplicateError
		if errors.As(e, &d) {
			out = append(out, d)
		}
	}
	return out
}

func buildGraphs(ctx context.Context, res *Result, opts Options) error {
	ctx, sp := trace.Start(ctx, trace.ScopePass, "graph")
	idx := opts.Timer.Begin("graph")
	defer func() {
		note := strconv.Itoa(len(res.Graphs)) + " graphs"
		opts.Timer.End(idx, note)
		sp.End(note)
	}()

	for _, p := range res.Programs {
		g, err := graph.Build(p)
		if err != nil {
			return fmt.Errorf("graph %s: %w", p.Unit, err)
		}
		res.Graphs = append(res.Graphs, g)

		if opts.Diagram != nil {
			if err := graphexport.WriteDiagram(opts.Diagram, g); err != nil {
				return fmt.Errorf("diagram %s: %w", p.Unit, err)
			}
		}
		if opts.Store != nil {
			id, err := opts.Store.Save(ctx, p.Unit, p.Module, g)
			if err != nil {
				return fmt.Errorf("store %s: %w", p.Unit, err)
			}
			opts.Logger.Debug("graph stored", zap.String("unit", p.Unit), zap.String("id", id))
			res.GraphIDs = append(res.GraphIDs, id)
		}
	}
	return nil
}

// Run builds paths and executes every linked program in run order. VM
// findings go to the result bag; a program stopped by its step budget or
// call depth is recorded in RunErrors and the next program still runs.
func Run(ctx context.Context, paths []string, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	ctx, sp := trace.Start(ctx, trace.ScopeDriver, "run")
	defer sp.End("")

	res, err := Build(ctx, paths, opts)
	if err != nil {
		return res, err
	}

	ctx, passSpan := trace.Start(ctx, trace.ScopePass, "execute")
	idx := opts.Timer.Begin("execute")

	var tracer *vm.Tracer
	if opts.VMTrace != nil {
		tracer = vm.NewTracer(opts.VMTrace, res.Files)
	}
	steps := 0
	for _, p := range res.Programs {
		if err := ctx.Err(); err != nil {
			opts.Timer.End(idx, "canceled")
			passSpan.End("canceled")
			return res, err
		}
		_, unitSpan := trace.Start(ctx, trace.ScopeUnit, p.Unit)
		m := vm.New(p, vm.Options{
			Reporter: diag.BagReporter{Bag: res.Bag},
			Trace:    tracer,
			Files:    res.Files,
			Loader:   opts.Loader,
			Logger:   opts.Logger,
			MaxSteps: opts.MaxSteps,
			MaxDepth: opts.MaxDepth,
		})
		if vmErr := m.Run(); vmErr != nil {
			res.RunErrors = append(res.RunErrors, vmErr)
			opts.Logger.Warn("program stopped", zap.String("unit", p.Unit), zap.Error(vmErr))
		}
		steps += m.Steps()
		unitSpan.End(strconv.Itoa(m.Steps()) + " steps")
	}

	note := fmt.Sprintf("%d programs, %d steps", len(res.Programs), steps)
	opts.Timer.End(idx, note)
	passSpan.End(note)
	return res, nil
}

package codegen

import (
	"fmt"

	"github.com/tolklang/tolk/internal/builtins"
	"github.com/tolklang/tolk/internal/diagnostics"
	"github.com/tolklang/tolk/internal/ir"
)

// FuncTable resolves a call target's arg_order/ret_order/flags during
// codegen. internal/ir's SymbolTable implements it; built-ins never do,
// since they have no calling convention beyond their Compile func.
type FuncTable interface {
	Func(name string) (*ir.FuncSymbol, bool)
}

// Generator walks a function body's op list and produces its flat
// instruction list, consulting a built-in table for calls it doesn't
// know how to compile itself, and a user-function table for calling
// conventions that reorder arguments or results.
type Generator struct {
	registry *builtins.Registry
	funcs    FuncTable
}

// NewGenerator builds a Generator that compiles calls through registry.
func NewGenerator(registry *builtins.Registry) *Generator {
	return &Generator{registry: registry}
}

// WithFuncs attaches a user-function table, returning g for chaining.
func (g *Generator) WithFuncs(funcs FuncTable) *Generator {
	g.funcs = funcs
	return g
}

// Generate compiles one function body to its flat instruction list. The
// initial simulated layout is the declared parameters, in declaration
// order with the last parameter on top, matching how the calling
// convention leaves them.
func (g *Generator) Generate(code *ir.CodeBlob) ([]AsmOp, error) {
	var out []AsmOp
	var params []int
	for _, v := range code.Vars {
		if v.Class == ir.In {
			params = append(params, v.Index)
		}
	}
	reverseInts(params)

	st := NewStack(func(a AsmOp) { out = append(out, a) })
	st.Reset(params)
	if err := g.genList(st, code.Head()); err != nil {
		return nil, err
	}
	return out, nil
}

// GenerateFunc compiles a top-level function and wraps it as a named
// PROC, the form CALLDICT/get-method dispatch targets. Get-methods are
// wrapped under their numeric MethodID instead of their name, matching
// how the dictionary that TVM's get-method dispatcher indexes into has
// no room for identifiers.
func (g *Generator) GenerateFunc(sym *ir.FuncSymbol, code *ir.CodeBlob) ([]AsmOp, error) {
	body, err := g.Generate(code)
	if err != nil {
		return nil, err
	}
	if sym == nil {
		return body, nil
	}
	label := sym.Name
	if sym.IsGetMethod() {
		label = fmt.Sprintf("%d", sym.MethodID)
	}
	return []AsmOp{{Type: AMagic, Op: "PROC", Comment: label, Then: body}}, nil
}

func (g *Generator) genList(st *Stack, op *ir.Op) error {
	for ; op != nil; op = op.Next {
		if op.IsDisabled() {
			continue
		}
		if err := g.genOp(st, op); err != nil {
			return err
		}
	}
	return nil
}

func defaultBools(n int, v bool) []bool {
	out := make([]bool, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func consumeFlags(op *ir.Op) []bool {
	if op.RightLast != nil {
		return op.RightLast
	}
	return defaultBools(len(op.Right), true)
}

func reverseInts(s []int) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

func reverseBools(s []bool) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

// reverseOperands turns a tensor-order operand list (source order, first
// child first) into the top-first order RearrangeTop expects, so that
// the last tensor child ends up on top - the same "last one wins the
// top slot" convention Generate already applies to declared parameters.
// Copies rather than mutating in place, since right/flags may alias
// op.Right/op.RightLast, which later codegen or diagnostics may still
// read.
func reverseOperands(right []int, flags []bool) ([]int, []bool) {
	outRight := append([]int(nil), right...)
	outFlags := append([]bool(nil), flags...)
	reverseInts(outRight)
	reverseBools(outFlags)
	return outRight, outFlags
}

func asmOpFromArg(a builtins.AsmArg) AsmOp {
	switch {
	case a.HasB:
		return AsmOp{Type: ACustom, Op: fmt.Sprintf("%s %d,%d", a.Op, a.A, a.B)}
	case a.A != 0:
		return AsmOp{Type: ACustom, Op: fmt.Sprintf("%s %d", a.Op, a.A)}
	default:
		return AsmOp{Type: ACustom, Op: a.Op}
	}
}

func (g *Generator) genOp(st *Stack, op *ir.Op) error {
	switch op.Kind {
	case ir.Nop:
		return nil

	case ir.IntConst:
		st.emit(Const(int(op.IntVal)))
		st.applyResult(op.Left)
		return nil

	case ir.SliceConst:
		st.emit(Custom(fmt.Sprintf("PUSHSLICE %q", op.StrVal)))
		st.applyResult(op.Left)
		return nil

	case ir.GlobVar:
		st.emit(Custom(fmt.Sprintf("GETGLOB %s", op.FuncRef)))
		st.applyResult(op.Left)
		return nil

	case ir.SetGlob:
		if err := st.RearrangeTop(op.Right, consumeFlags(op), op.Location); err != nil {
			return err
		}
		st.consumeTop(len(op.Right))
		st.emit(Custom(fmt.Sprintf("SETGLOB %s", op.FuncRef)))
		return nil

	case ir.Import:
		fallthrough
	case ir.Let:
		for i, src := range op.Right {
			if idx := st.find(src, 0); idx >= 0 {
				st.entries[idx].varIdx = op.Left[i]
			}
		}
		return nil

	case ir.Return:
		right, flags := reverseOperands(op.Right, consumeFlags(op))
		return st.RearrangeTop(right, flags, op.Location)

	case ir.MkTuple:
		right, flags := reverseOperands(op.Right, consumeFlags(op))
		if err := st.RearrangeTop(right, flags, op.Location); err != nil {
			return err
		}
		st.consumeTop(len(op.Right))
		st.emit(Custom(fmt.Sprintf("TUPLE %d", len(op.Right))))
		st.applyResult(op.Left)
		return nil

	case ir.UnTuple:
		if err := st.RearrangeTop(op.Right, consumeFlags(op), op.Location); err != nil {
			return err
		}
		st.consumeTop(len(op.Right))
		st.emit(Custom(fmt.Sprintf("UNTUPLE %d", len(op.Left))))
		st.applyResult(op.Left)
		return nil

	case ir.Call:
		return g.genCall(st, op)

	case ir.CallInd:
		return g.genCallInd(st, op)

	case ir.If:
		return g.genIf(st, op)

	case ir.While, ir.Until, ir.Repeat, ir.Again:
		return g.genLoop(st, op)

	case ir.TryCatch:
		return g.genTryCatch(st, op)

	default:
		return diagnostics.NewFatal(diagnostics.ErrCodegenMalformedIR, op.Location,
			fmt.Sprintf("codegen: unhandled op kind %s", op.Kind)).Err
	}
}

func (g *Generator) genCall(st *Stack, op *ir.Op) error {
	right := op.Right
	flags := consumeFlags(op)
	var sym *ir.FuncSymbol
	if g.funcs != nil {
		if s, ok := g.funcs.Func(op.FuncRef); ok {
			sym = s
			if s.ArgOrder != nil {
				right = permute(op.Right, s.ArgOrder)
				flags = permute(flags, s.ArgOrder)
			}
		}
	}

	if err := st.RearrangeTop(right, flags, op.Location); err != nil {
		return err
	}
	st.consumeTop(len(right))

	entry, ok := g.registry.Entry(op.FuncRef)
	if ok && entry.Compile != nil {
		arg, err := entry.Compile(op.Left, right, op.Location)
		if err != nil {
			return err
		}
		st.emit(asmOpFromArg(arg))
	} else {
		st.emit(Custom(fmt.Sprintf("CALLDICT %s", op.FuncRef)))
	}

	left := op.Left
	if sym != nil && sym.RetOrder != nil {
		left = permute(op.Left, sym.RetOrder)
	}
	st.applyResult(left)
	return nil
}

// permute reorders vals by order, a permutation from declaration index
// to calling-convention index: order[i] says where declaration slot i
// lands. Falls back to vals unchanged if the lengths disagree, since a
// malformed arg_order is a front-end bug, not something codegen should
// guess around.
func permute[T any](vals []T, order []int) []T {
	if len(order) != len(vals) {
		return vals
	}
	out := make([]T, len(vals))
	for i, pos := range order {
		out[pos] = vals[i]
	}
	return out
}

// genCallInd compiles an indirect call through a continuation value:
// the last operand in Right is the continuation itself, the rest are
// its arguments. EXECUTE is used when the call's results fill the
// whole remaining frame; CALLXARGS is used otherwise, spelling out how
// many arguments to pass and how many results to keep.
func (g *Generator) genCallInd(st *Stack, op *ir.Op) error {
	if len(op.Right) == 0 {
		return diagnostics.NewFatal(diagnostics.ErrCodegenMalformedIR, op.Location,
			"CallInd: missing continuation operand").Err
	}
	if err := st.RearrangeTop(op.Right, consumeFlags(op), op.Location); err != nil {
		return err
	}
	nArgs := len(op.Right) - 1
	st.consumeTop(len(op.Right))

	if len(op.Left) == 0 {
		st.emit(Custom("EXECUTE"))
	} else {
		st.emit(Custom(fmt.Sprintf("%d CALLXARGS %d", nArgs, len(op.Left))))
	}
	st.applyResult(op.Left)
	return nil
}

func (g *Generator) genIf(st *Stack, op *ir.Op) error {
	cond := op.Right[0]
	consume := true
	if op.RightLast != nil {
		consume = op.RightLast[0]
	}
	if err := st.RearrangeTop([]int{cond}, []bool{consume}, op.Location); err != nil {
		return err
	}
	st.consumeTop(1)

	thenStack := st.Clone()
	var thenOps []AsmOp
	thenStack.emit = func(a AsmOp) { thenOps = append(thenOps, a) }
	if err := g.genList(thenStack, op.Child0); err != nil {
		return err
	}

	elseStack := st.Clone()
	var elseOps []AsmOp
	elseStack.emit = func(a AsmOp) { elseOps = append(elseOps, a) }
	if op.Child1 != nil {
		if err := g.genList(elseStack, op.Child1); err != nil {
			return err
		}
	}

	joined, err := MergeAtJoin(thenStack, elseStack, op.Location, op.Location)
	if err != nil {
		return err
	}
	st.Reset(joined)
	st.emit(AsmOp{Type: AMagic, Op: "IFELSE", Then: thenOps, Else: elseOps})
	return nil
}

var loopMnemonic = map[ir.OpKind]string{
	ir.While:  "WHILE",
	ir.Until:  "UNTIL",
	ir.Repeat: "REPEAT",
	ir.Again:  "AGAIN",
}

// genLoop compiles While/Until/Repeat/Again. All four share a single
// body block (Child0); the loop-carried variables must already occupy
// the same layout at every back-edge, an invariant earlier IR
// construction is responsible for maintaining. Until/While additionally
// require the body to leave an exit flag on top, consumed by the TVM
// primitive itself; this generator checks rather than repairs that
// invariant, so a violation surfaces as a compile error instead of
// silently miscompiling.
//
// This collapses While to the same single-continuation shape as Until;
// real TVM WHILE takes a distinct condition continuation ahead of the
// body one, which this IR does not model separately.
func (g *Generator) genLoop(st *Stack, op *ir.Op) error {
	entryLayout := st.Snapshot()

	if op.Kind == ir.Repeat {
		if err := st.RearrangeTop(op.Right, consumeFlags(op), op.Location); err != nil {
			return err
		}
		st.consumeTop(len(op.Right))
		entryLayout = st.Snapshot()
	}

	bodyStack := st.Clone()
	var bodyOps []AsmOp
	bodyStack.emit = func(a AsmOp) { bodyOps = append(bodyOps, a) }
	if err := g.genList(bodyStack, op.Child0); err != nil {
		return err
	}

	if op.Kind != ir.Again {
		exit := bodyStack.Snapshot()
		rest := exit
		needsFlag := op.Kind == ir.While || op.Kind == ir.Until
		if needsFlag {
			if len(exit) < 1 {
				return diagnostics.NewFatal(diagnostics.ErrCodegenMalformedIR, op.Location,
					"loop body must leave an exit flag on top").Err
			}
			rest = exit[1:]
		}
		if !equalLayout(rest, entryLayout) {
			return diagnostics.NewFatal(diagnostics.ErrCodegenMalformedIR, op.Location,
				"loop body does not preserve its entry layout across the back-edge").Err
		}
	}

	st.emit(AsmOp{Type: AMagic, Op: loopMnemonic[op.Kind], Then: bodyOps})
	if op.Kind != ir.Again {
		st.Reset(entryLayout)
	}
	return nil
}

func (g *Generator) genTryCatch(st *Stack, op *ir.Op) error {
	tryStack := st.Clone()
	var tryOps []AsmOp
	tryStack.emit = func(a AsmOp) { tryOps = append(tryOps, a) }
	if err := g.genList(tryStack, op.Child0); err != nil {
		return err
	}

	catchStack := st.Clone()
	catchStack.applyResult(op.Left)
	var catchOps []AsmOp
	catchStack.emit = func(a AsmOp) { catchOps = append(catchOps, a) }
	if op.Child1 != nil {
		if err := g.genList(catchStack, op.Child1); err != nil {
			return err
		}
	}

	joined, err := MergeAtJoin(tryStack, catchStack, op.Location, op.Location)
	if err != nil {
		return err
	}
	st.Reset(joined)
	st.emit(AsmOp{Type: AMagic, Op: "TRYCATCH", Then: tryOps, Else: catchOps})
	return nil
}

package codegen

import (
	"strings"
	"testing"

	"github.com/tolklang/tolk/internal/analysis"
	"github.com/tolklang/tolk/internal/builtins"
	"github.com/tolklang/tolk/internal/diagnostics"
	"github.com/tolklang/tolk/internal/ir"
	"github.com/tolklang/tolk/internal/types"
)

func render(ops []AsmOp) string {
	var b strings.Builder
	for _, o := range ops {
		b.WriteString(o.Render())
		b.WriteString("\n")
	}
	return b.String()
}

func TestGenerateCallAddsParamsInOrder(t *testing.T) {
	code := ir.NewCodeBlob("add", diagnostics.Location{}, types.NewAtomic(types.Int))
	x := code.NewVar(types.NewAtomic(types.Int), ir.In, "x", diagnostics.Location{})
	y := code.NewVar(types.NewAtomic(types.Int), ir.In, "y", diagnostics.Location{})
	dst := code.NewVar(types.NewAtomic(types.Int), ir.Tmp, "", diagnostics.Location{})
	code.Emit(&ir.Op{
		Kind: ir.Call, FuncRef: "_+_",
		Left: []int{dst.Index}, Right: []int{x.Index, y.Index},
		RightLast: []bool{true, true},
	})
	code.Emit(&ir.Op{Kind: ir.Return, Right: []int{dst.Index}, RightLast: []bool{true}})
	code.Close(diagnostics.Location{})

	g := NewGenerator(builtins.Std())
	ops, err := g.Generate(code)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	out := render(ops)
	if !strings.Contains(out, "ADD") {
		t.Errorf("expected ADD in generated code, got:\n%s", out)
	}
}

func TestGenerateReturnReordersTupleToLastOnTop(t *testing.T) {
	code := ir.NewCodeBlob("swap", diagnostics.Location{}, types.NewTensor(types.NewAtomic(types.Int), types.NewAtomic(types.Int)))
	a := code.NewVar(types.NewAtomic(types.Int), ir.In, "a", diagnostics.Location{})
	b := code.NewVar(types.NewAtomic(types.Int), ir.In, "b", diagnostics.Location{})
	code.Emit(&ir.Op{Kind: ir.Return, Right: []int{b.Index, a.Index}, RightLast: []bool{true, true}})
	code.Close(diagnostics.Location{})

	g := NewGenerator(builtins.Std())
	ops, err := g.Generate(code)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	out := render(ops)
	if !strings.Contains(out, "SWAP") {
		t.Errorf("expected a single SWAP reordering (b,a) so a ends up on top, got:\n%s", out)
	}
}

func TestGenerateUnknownCalleeEmitsCalldict(t *testing.T) {
	code := ir.NewCodeBlob("caller", diagnostics.Location{}, types.NewAtomic(types.Int))
	x := code.NewVar(types.NewAtomic(types.Int), ir.In, "x", diagnostics.Location{})
	dst := code.NewVar(types.NewAtomic(types.Int), ir.Tmp, "", diagnostics.Location{})
	code.Emit(&ir.Op{Kind: ir.Call, FuncRef: "user_fn", Left: []int{dst.Index}, Right: []int{x.Index}, RightLast: []bool{true}})
	code.Emit(&ir.Op{Kind: ir.Return, Right: []int{dst.Index}, RightLast: []bool{true}})
	code.Close(diagnostics.Location{})

	g := NewGenerator(builtins.Std())
	ops, err := g.Generate(code)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	out := render(ops)
	if !strings.Contains(out, "CALLDICT user_fn") {
		t.Errorf("expected CALLDICT user_fn, got:\n%s", out)
	}
}

func TestGenerateIfMergesBranchLayouts(t *testing.T) {
	code := ir.NewCodeBlob("pick", diagnostics.Location{}, types.NewAtomic(types.Int))
	cond := code.NewVar(types.NewAtomic(types.Int), ir.In, "cond", diagnostics.Location{})
	result := code.NewVar(types.NewAtomic(types.Int), ir.Tmp, "", diagnostics.Location{})

	ifOp := &ir.Op{Kind: ir.If, Right: []int{cond.Index}, RightLast: []bool{true}}
	code.Emit(ifOp)
	code.Emit(&ir.Op{Kind: ir.Return, Right: []int{result.Index}, RightLast: []bool{true}})
	code.Close(diagnostics.Location{})

	code.PushBlock(&ifOp.Child0)
	code.Emit(&ir.Op{Kind: ir.IntConst, IntVal: 1, Left: []int{result.Index}})
	code.Close(diagnostics.Location{})
	code.PopBlock()

	code.PushBlock(&ifOp.Child1)
	code.Emit(&ir.Op{Kind: ir.IntConst, IntVal: 0, Left: []int{result.Index}})
	code.Close(diagnostics.Location{})
	code.PopBlock()

	g := NewGenerator(builtins.Std())
	ops, err := g.Generate(code)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	out := render(ops)
	if !strings.Contains(out, "IFELSE:<{") || !strings.Contains(out, "}>ELSE<{") {
		t.Errorf("expected an IFELSE block, got:\n%s", out)
	}
	if strings.Count(out, "PUSHINT") != 2 {
		t.Errorf("expected one PUSHINT per branch, got:\n%s", out)
	}
}

func TestGenerateLoopRejectsBrokenBackEdge(t *testing.T) {
	code := ir.NewCodeBlob("spin", diagnostics.Location{}, types.NewTensor())
	n := code.NewVar(types.NewAtomic(types.Int), ir.In, "n", diagnostics.Location{})
	extra := code.NewVar(types.NewAtomic(types.Int), ir.Tmp, "", diagnostics.Location{})

	loopOp := &ir.Op{Kind: ir.Until}
	code.Emit(loopOp)
	code.Close(diagnostics.Location{})

	extra2 := code.NewVar(types.NewAtomic(types.Int), ir.Tmp, "", diagnostics.Location{})
	code.PushBlock(&loopOp.Child0)
	// Leaves two live values beyond n instead of just the exit flag,
	// breaking the back-edge invariant codegen checks for.
	code.Emit(&ir.Op{Kind: ir.IntConst, IntVal: 1, Left: []int{extra.Index}})
	code.Emit(&ir.Op{Kind: ir.IntConst, IntVal: 2, Left: []int{extra2.Index}})
	code.Close(diagnostics.Location{})
	code.PopBlock()
	_ = n

	g := NewGenerator(builtins.Std())
	if _, err := g.Generate(code); err == nil {
		t.Error("expected an error for a loop body that does not preserve its entry layout")
	}
}

func TestMergeAtJoinPicksCheaperBranch(t *testing.T) {
	var opsA, opsB []AsmOp
	a := NewStack(func(o AsmOp) { opsA = append(opsA, o) })
	b := NewStack(func(o AsmOp) { opsB = append(opsB, o) })
	a.Reset([]int{1, 2, 3})
	b.Reset([]int{3, 2, 1})

	layout, err := MergeAtJoin(a, b, diagnostics.Location{}, diagnostics.Location{})
	if err != nil {
		t.Fatalf("MergeAtJoin failed: %v", err)
	}
	if len(opsA) != 0 {
		t.Errorf("branch a should not need patching, got %d ops", len(opsA))
	}
	if len(layout) != 3 || layout[0] != 1 || layout[2] != 3 {
		t.Errorf("unexpected merged layout: %v", layout)
	}
}

func TestAnalysisFeedsCodegenLiveness(t *testing.T) {
	code := ir.NewCodeBlob("double", diagnostics.Location{}, types.NewAtomic(types.Int))
	x := code.NewVar(types.NewAtomic(types.Int), ir.In, "x", diagnostics.Location{})
	dst := code.NewVar(types.NewAtomic(types.Int), ir.Tmp, "", diagnostics.Location{})
	code.Emit(&ir.Op{Kind: ir.Call, FuncRef: "_+_", Left: []int{dst.Index}, Right: []int{x.Index, x.Index}})
	code.Emit(&ir.Op{Kind: ir.Return, Right: []int{dst.Index}})
	code.Close(diagnostics.Location{})

	analysis.Liveness(code)

	g := NewGenerator(builtins.Std())
	ops, err := g.Generate(code)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	out := render(ops)
	if !strings.Contains(out, "DUP") {
		t.Errorf("x used twice should need a DUP to copy rather than consume, got:\n%s", out)
	}
}

type fakeFuncTable map[string]*ir.FuncSymbol

func (t fakeFuncTable) Func(name string) (*ir.FuncSymbol, bool) {
	f, ok := t[name]
	return f, ok
}

func TestGenerateCallHonorsArgOrder(t *testing.T) {
	code := ir.NewCodeBlob("sub", diagnostics.Location{}, types.NewAtomic(types.Int))
	a := code.NewVar(types.NewAtomic(types.Int), ir.In, "a", diagnostics.Location{})
	b := code.NewVar(types.NewAtomic(types.Int), ir.In, "b", diagnostics.Location{})
	dst := code.NewVar(types.NewAtomic(types.Int), ir.Tmp, "", diagnostics.Location{})
	// Declaration order is (a, b); swapped calls a non-default convention.
	code.Emit(&ir.Op{
		Kind: ir.Call, FuncRef: "swapped",
		Left: []int{dst.Index}, Right: []int{a.Index, b.Index},
		RightLast: []bool{true, true},
	})
	code.Emit(&ir.Op{Kind: ir.Return, Right: []int{dst.Index}, RightLast: []bool{true}})
	code.Close(diagnostics.Location{})

	funcs := fakeFuncTable{"swapped": {Name: "swapped", ArgOrder: []int{1, 0}}}
	g := NewGenerator(builtins.NewRegistry()).WithFuncs(funcs)
	ops, err := g.Generate(code)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	out := render(ops)
	if !strings.Contains(out, "CALLDICT swapped") {
		t.Errorf("expected a CALLDICT to the user function, got:\n%s", out)
	}
}

func TestGenerateFuncWrapsGetMethodByID(t *testing.T) {
	code := ir.NewCodeBlob("getOwner", diagnostics.Location{}, types.NewAtomic(types.Int))
	x := code.NewVar(types.NewAtomic(types.Int), ir.In, "x", diagnostics.Location{})
	code.Emit(&ir.Op{Kind: ir.Return, Right: []int{x.Index}, RightLast: []bool{true}})
	code.Close(diagnostics.Location{})

	sym := &ir.FuncSymbol{Name: "getOwner", Flags: ir.FlagGetMethod, MethodID: 85143}
	g := NewGenerator(builtins.NewRegistry())
	ops, err := g.GenerateFunc(sym, code)
	if err != nil {
		t.Fatalf("GenerateFunc failed: %v", err)
	}
	if len(ops) != 1 || ops[0].Type != AMagic || ops[0].Op != "PROC" {
		t.Fatalf("expected a single PROC wrapper, got %#v", ops)
	}
	out := ops[0].Render()
	if !strings.Contains(out, "85143 PROC") {
		t.Errorf("expected the get-method ID as the PROC label, got:\n%s", out)
	}
}

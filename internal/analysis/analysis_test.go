package analysis

import (
	"testing"

	"github.com/tolklang/tolk/internal/diagnostics"
	"github.com/tolklang/tolk/internal/ir"
	"github.com/tolklang/tolk/internal/types"
)

func TestSplitVarsExpandsWideTensor(t *testing.T) {
	a := types.NewArena()
	code := ir.NewCodeBlob("f", diagnostics.Location{}, types.NewAtomic(types.Int))
	wide := code.NewVar(types.NewTensor(types.NewAtomic(types.Int), types.NewAtomic(types.Int)), ir.In, "p", diagnostics.Location{})
	dst := code.NewVar(types.NewAtomic(types.Int), ir.Tmp, "", diagnostics.Location{})
	code.Emit(&ir.Op{Kind: ir.Call, FuncRef: "add", Left: []int{dst.Index}, Right: []int{wide.Index}})
	code.Close(diagnostics.Location{})

	SplitVars(a, code)

	if len(wide.SplitChildren) != 2 {
		t.Fatalf("expected wide var to split into 2 scalars, got %d", len(wide.SplitChildren))
	}
	op := code.Head()
	if len(op.Right) != 2 || op.Right[0] != wide.SplitChildren[0] || op.Right[1] != wide.SplitChildren[1] {
		t.Errorf("op.Right not rewritten to split children: %v", op.Right)
	}
}

func TestPruneUnreachableAfterReturn(t *testing.T) {
	code := ir.NewCodeBlob("f", diagnostics.Location{}, types.NewAtomic(types.Int))
	code.Emit(&ir.Op{Kind: ir.Return})
	dead := &ir.Op{Kind: ir.Nop}
	code.Emit(dead)
	code.Close(diagnostics.Location{})

	PruneUnreachable(code, nil)

	if !dead.IsDisabled() {
		t.Error("op after Return should be disabled")
	}
}

func TestLivenessMarksLastUseAndUnused(t *testing.T) {
	code := ir.NewCodeBlob("f", diagnostics.Location{}, types.NewAtomic(types.Int))
	x := code.NewVar(types.NewAtomic(types.Int), ir.In, "x", diagnostics.Location{})
	y := code.NewVar(types.NewAtomic(types.Int), ir.Tmp, "", diagnostics.Location{})
	unused := code.NewVar(types.NewAtomic(types.Int), ir.Tmp, "", diagnostics.Location{})

	op1 := &ir.Op{Kind: ir.Call, FuncRef: "dup", Left: []int{unused.Index, y.Index}, Right: []int{x.Index}}
	code.Emit(op1)
	ret := &ir.Op{Kind: ir.Return, Right: []int{y.Index}}
	code.Emit(ret)
	code.Close(diagnostics.Location{})

	Liveness(code)

	if len(op1.RightLast) != 1 || !op1.RightLast[0] {
		t.Errorf("x should be marked last-used at op1, got %v", op1.RightLast)
	}
	if len(op1.LeftUnused) != 2 || !op1.LeftUnused[0] || op1.LeftUnused[1] {
		t.Errorf("unused var should be marked unused and y should not, got %v", op1.LeftUnused)
	}
}

func TestNoReturnPropagatesThroughIf(t *testing.T) {
	code := ir.NewCodeBlob("f", diagnostics.Location{}, types.NewAtomic(types.Int))
	ifOp := &ir.Op{Kind: ir.If}
	code.Emit(ifOp)
	code.Close(diagnostics.Location{})

	code.PushBlock(&ifOp.Child0)
	code.Emit(&ir.Op{Kind: ir.Return})
	code.Close(diagnostics.Location{})
	code.PopBlock()

	code.PushBlock(&ifOp.Child1)
	code.Emit(&ir.Op{Kind: ir.Call, FuncRef: "raise"})
	code.Close(diagnostics.Location{})
	code.PopBlock()

	MarkNoReturn(code, func(name string) bool { return name == "raise" })

	if !ifOp.IsNoReturn() {
		t.Error("If with both branches diverging should be marked NoReturn")
	}
}

func TestNoReturnRequiresBothTryCatchBranches(t *testing.T) {
	code := ir.NewCodeBlob("f", diagnostics.Location{}, types.NewAtomic(types.Int))
	tc := &ir.Op{Kind: ir.TryCatch}
	code.Emit(tc)
	code.Close(diagnostics.Location{})

	code.PushBlock(&tc.Child0)
	code.Emit(&ir.Op{Kind: ir.Return})
	code.Close(diagnostics.Location{})
	code.PopBlock()

	code.PushBlock(&tc.Child1)
	code.Emit(&ir.Op{Kind: ir.Nop})
	code.Close(diagnostics.Location{})
	code.PopBlock()

	MarkNoReturn(code, nil)

	if tc.IsNoReturn() {
		t.Error("TryCatch with a falling-through catch block must not be marked NoReturn")
	}
}

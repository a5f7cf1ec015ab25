package peephole

import (
	"testing"

	"github.com/tolklang/tolk/internal/codegen"
)

func render(ops []codegen.AsmOp) []string {
	out := make([]string, len(ops))
	for i, o := range ops {
		out[i] = o.Render()
	}
	return out
}

func TestOptimizeCancelsRedundantSwaps(t *testing.T) {
	ops := []codegen.AsmOp{codegen.Xchg(0, 1), codegen.Xchg(0, 1)}
	out := Optimize(ops, DefaultConfig(20))
	if len(out) != 0 {
		t.Errorf("expected SWAP;SWAP to cancel to nothing, got %v", render(out))
	}
}

func TestOptimizeRecognizesRot(t *testing.T) {
	// XCHG s1,s2 then XCHG s0,s1 composes to the ROT permutation.
	ops := []codegen.AsmOp{codegen.Xchg(1, 2), codegen.Xchg(0, 1)}
	out := Optimize(ops, DefaultConfig(20))
	if len(out) != 1 || out[0].Render() != "ROT" {
		t.Errorf("expected a single ROT, got %v", render(out))
	}
}

func TestOptimizeGeneralizesBlkdrop(t *testing.T) {
	ops := []codegen.AsmOp{codegen.Pop(0), codegen.Pop(0), codegen.Pop(0)}
	out := Optimize(ops, DefaultConfig(20))
	if len(out) != 1 || out[0].Render() != "BLKDROP 3" {
		t.Errorf("expected BLKDROP 3, got %v", render(out))
	}
}

func TestOptimizeLeavesNonShuffleOpsAlone(t *testing.T) {
	ops := []codegen.AsmOp{codegen.Custom("ADD"), codegen.Custom("ADD")}
	out := Optimize(ops, DefaultConfig(20))
	if len(render(out)) != 2 || out[0].Render() != "ADD" || out[1].Render() != "ADD" {
		t.Errorf("value ops outside the shuffle monoid must pass through unchanged, got %v", render(out))
	}
}

func TestOptimizeRespectsWindowBound(t *testing.T) {
	ops := []codegen.AsmOp{codegen.Xchg(0, 2), codegen.Xchg(0, 1)}
	out := Optimize(ops, DefaultConfig(1))
	if len(out) != 2 {
		t.Errorf("a window bound of 1 should never rewrite a 2-op sequence, got %v", render(out))
	}
}

func TestFromOpsRejectsConstOps(t *testing.T) {
	if _, ok := FromOps([]codegen.AsmOp{codegen.Const(5)}); ok {
		t.Error("a constant-producing op should not fold into a pure stack transform")
	}
}

func TestEqualRequiresSameShift(t *testing.T) {
	a := StackTransform{At: []int{1, 0}}
	b := StackTransform{At: []int{1, 0}, Shift: 1}
	if Equal(a, b) {
		t.Error("transforms with different net stack growth should not be Equal")
	}
	if !AlmostEqual(a, a) {
		t.Error("a transform should be AlmostEqual to itself")
	}
}

func TestAnomalyBoundInvalidatesWindow(t *testing.T) {
	ops := make([]codegen.AsmOp, 0, 34)
	for i := 0; i < 17; i++ {
		ops = append(ops, codegen.Xchg(0, 2*i+1))
	}
	t_, ok := FromOps(ops)
	if ok && !t_.Invalid {
		t.Error("a transform touching more than 16 positions away from identity should be marked Invalid")
	}
}

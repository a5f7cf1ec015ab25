package analysis

import "github.com/tolklang/tolk/internal/ir"

// liveSet is a small set of variable indices, backed by a map since the
// variable space is sparse once splitting has run.
type liveSet map[int]bool

func (s liveSet) clone() liveSet {
	out := make(liveSet, len(s))
	for k := range s {
		out[k] = true
	}
	return out
}

func (s liveSet) equal(o liveSet) bool {
	if len(s) != len(o) {
		return false
	}
	for k := range s {
		if !o[k] {
			return false
		}
	}
	return true
}

// Liveness computes backward liveness over code, setting op.RightLast on
// each op's last use of a variable along every path and op.LeftUnused on
// a definition whose result is never read. It iterates loop bodies to a
// fixpoint, since a back-edge can make a variable live across the whole
// loop even though a single forward pass would miss it.
func Liveness(code *ir.CodeBlob) {
	liveAtExit(code.Head(), make(liveSet))
}

// liveAtExit processes the block starting at head given the live set
// live-out of the block, and returns the live set live-in to the block
// (the set of variables a predecessor must consider live on entry).
func liveAtExit(head *ir.Op, liveOut liveSet) liveSet {
	ops := collectList(head)
	live := liveOut.clone()
	for i := len(ops) - 1; i >= 0; i-- {
		op := ops[i]
		if op.IsDisabled() {
			continue
		}
		live = liveAcrossOp(op, live)
	}
	return live
}

func collectList(head *ir.Op) []*ir.Op {
	var out []*ir.Op
	for op := head; op != nil; op = op.Next {
		out = append(out, op)
	}
	return out
}

// liveAcrossOp updates the use/def flags on op given the set live
// immediately after it, and returns the set live immediately before it.
func liveAcrossOp(op *ir.Op, liveAfter liveSet) liveSet {
	switch op.Kind {
	case ir.If:
		return liveAcrossIf(op, liveAfter)
	case ir.While, ir.Until, ir.Repeat, ir.Again:
		return liveAcrossLoop(op, liveAfter)
	case ir.TryCatch:
		return liveAcrossTryCatch(op, liveAfter)
	default:
		return liveAcrossLeaf(op, liveAfter)
	}
}

func liveAcrossLeaf(op *ir.Op, liveAfter liveSet) liveSet {
	live := liveAfter.clone()

	op.LeftUnused = make([]bool, len(op.Left))
	for i, dst := range op.Left {
		op.LeftUnused[i] = !live[dst]
		delete(live, dst)
	}

	op.RightLast = make([]bool, len(op.Right))
	for i, src := range op.Right {
		op.RightLast[i] = !live[src]
		live[src] = true
	}

	return live
}

func liveAcrossIf(op *ir.Op, liveAfter liveSet) liveSet {
	thenLive := liveAtExit(op.Child0, liveAfter)
	elseLive := liveAtExit(op.Child1, liveAfter)
	merged := thenLive.clone()
	for k := range elseLive {
		merged[k] = true
	}
	return liveAcrossLeaf(op, merged)
}

func liveAcrossTryCatch(op *ir.Op, liveAfter liveSet) liveSet {
	tryLive := liveAtExit(op.Child0, liveAfter)
	catchLive := liveAtExit(op.Child1, liveAfter)
	merged := tryLive.clone()
	for k := range catchLive {
		merged[k] = true
	}
	return liveAcrossLeaf(op, merged)
}

// liveAcrossLoop iterates the loop body until the live-in set from one
// iteration matches the previous one, since a variable referenced near
// the bottom of the loop is live at the top too, across the back-edge.
func liveAcrossLoop(op *ir.Op, liveAfter liveSet) liveSet {
	bodyLiveOut := liveAfter.clone()
	var bodyLiveIn liveSet
	for i := 0; i < 64; i++ {
		bodyLiveIn = liveAtExit(op.Child0, bodyLiveOut)
		if bodyLiveIn.equal(bodyLiveOut) {
			break
		}
		bodyLiveOut = bodyLiveIn.clone()
		for k := range liveAfter {
			bodyLiveOut[k] = true
		}
	}
	return liveAcrossLeaf(op, bodyLiveIn)
}

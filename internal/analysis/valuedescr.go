package analysis

import "github.com/tolklang/tolk/internal/ir"

// Transfer computes the outgoing VarDescrList for one non-control op
// given its incoming facts. Component F (built-ins) supplies these for
// calls to known built-ins. For any other call, Registry.Transfer clears
// the facts of its outputs, and keeps the facts of its inputs only when
// the callee is a registered built-in marked pure; a call to a user
// function clears the facts of its inputs too, whatever its flags.
type Transfer func(op *ir.Op, in *ir.VarDescrList) *ir.VarDescrList

// PropagateValueDescr runs the forward value-descriptor analysis over
// code, attaching the VarDescrList holding at entry to each op as
// op.VarInfo, and widening loop bodies to a fixpoint.
func PropagateValueDescr(code *ir.CodeBlob, transfer Transfer) {
	propagateList(code.Head(), ir.NewVarDescrList(), transfer)
}

func propagateList(head *ir.Op, in *ir.VarDescrList, transfer Transfer) *ir.VarDescrList {
	cur := in
	for op := head; op != nil; op = op.Next {
		if op.IsDisabled() {
			continue
		}
		op.VarInfo = cur
		cur = propagateOp(op, cur, transfer)
	}
	return cur
}

func propagateOp(op *ir.Op, in *ir.VarDescrList, transfer Transfer) *ir.VarDescrList {
	switch op.Kind {
	case ir.If:
		thenOut := propagateList(op.Child0, in.Clone(), transfer)
		elseOut := propagateList(op.Child1, in.Clone(), transfer)
		thenOut.MeetInto(elseOut)
		return thenOut

	case ir.TryCatch:
		tryOut := propagateList(op.Child0, in.Clone(), transfer)
		catchOut := propagateList(op.Child1, in.Clone(), transfer)
		tryOut.MeetInto(catchOut)
		return tryOut

	case ir.While, ir.Until, ir.Repeat, ir.Again:
		cur := in.Clone()
		for i := 0; i < 64; i++ {
			out := propagateList(op.Child0, cur.Clone(), transfer)
			if !cur.UnionInto(out) {
				break
			}
		}
		return cur

	default:
		if transfer != nil {
			return transfer(op, in)
		}
		return in.Clone()
	}
}

package analysis

import "github.com/tolklang/tolk/internal/ir"

// MarkNoReturn marks op.Flags with ir.NoReturn wherever every control
// path from that op diverges, propagating transitively. A Return is
// always no-return; a direct call to a no-return callee is no-return;
// an If is no-return iff both branches are; a TryCatch is no-return iff
// both the try and catch blocks are. That last rule resolves the one
// place the source leaves ambiguous (whether a single no-return branch
// suffices): requiring both is the conservative choice, since an
// exception raised by a would-be-no-return try block still has to flow
// through a non-diverging catch block.
func MarkNoReturn(code *ir.CodeBlob, noReturn NoReturnCallee) {
	markList(code.Head(), noReturn)
}

// markList marks every op in the list and reports whether control falls
// off the end of the list without diverging (i.e. whether the list, as
// a whole, is NOT no-return).
func markList(head *ir.Op, noReturn NoReturnCallee) (fallsThrough bool) {
	fallsThrough = true
	for op := head; op != nil; op = op.Next {
		if op.IsDisabled() {
			continue
		}
		if markOp(op, noReturn) {
			op.Flags |= ir.NoReturn
			fallsThrough = false
		}
	}
	return fallsThrough
}

func markOp(op *ir.Op, noReturn NoReturnCallee) bool {
	switch op.Kind {
	case ir.Return:
		return true

	case ir.Call:
		return noReturn != nil && noReturn(op.FuncRef)

	case ir.If:
		thenDiverges := !markList(op.Child0, noReturn)
		elseDiverges := !markList(op.Child1, noReturn)
		return thenDiverges && elseDiverges

	case ir.TryCatch:
		tryDiverges := !markList(op.Child0, noReturn)
		catchDiverges := !markList(op.Child1, noReturn)
		return tryDiverges && catchDiverges

	case ir.Again:
		// An unconditional infinite loop with no break construct in this
		// op set never falls through.
		markList(op.Child0, noReturn)
		return true

	default:
		if op.HasChildBlocks() {
			markList(op.Child0, noReturn)
			if op.Child1 != nil {
				markList(op.Child1, noReturn)
			}
		}
		return false
	}
}

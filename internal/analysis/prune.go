package analysis

import "github.com/tolklang/tolk/internal/ir"

// NoReturnCallee reports whether the built-in or function named by a
// Call op's FuncRef never returns control to its caller. Pruning
// consults it directly, before the later no-return-marking pass has had
// a chance to propagate the fact through the rest of the op graph: the
// two passes cooperate, this one catching the immediately-obvious case
// (a direct call to e.g. a `throw` builtin) and the later one catching
// everything that fact implies transitively.
type NoReturnCallee func(name string) bool

// PruneUnreachable walks every block of code and disables every op
// after one that is a Return or a direct call to a no-return callee, as
// long as nothing downstream re-merges control flow back in. If and
// loop bodies are pruned independently as their own blocks.
func PruneUnreachable(code *ir.CodeBlob, noReturn NoReturnCallee) {
	pruneList(code.Head(), noReturn)
}

func pruneList(head *ir.Op, noReturn NoReturnCallee) {
	dead := false
	for op := head; op != nil; op = op.Next {
		if dead {
			op.Flags |= ir.Disabled
			continue
		}
		if op.HasChildBlocks() {
			if op.Child0 != nil {
				pruneList(op.Child0, noReturn)
			}
			if op.Child1 != nil {
				pruneList(op.Child1, noReturn)
			}
		}
		isNoReturnCall := op.Kind == ir.Call && noReturn != nil && noReturn(op.FuncRef)
		if op.Kind == ir.Return || isNoReturnCall || op.IsNoReturn() {
			dead = true
		}
	}
}

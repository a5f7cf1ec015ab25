package analysis

import (
	"github.com/tolklang/tolk/internal/ir"
	"github.com/tolklang/tolk/internal/types"
)

// flattenType decomposes t into its width-1 leaf types, in stack order.
// Atomic, Tuple (boxed), and Map (a continuation cell) are each a single
// leaf; Tensor recurses into its children. A hole with unknown width
// range cannot be flattened and is returned as its own single leaf —
// splitting only applies where width is statically known.
func flattenType(a *types.Arena, t types.Type) []types.Type {
	t = a.Find(t)
	children, ok := t.TensorChildren()
	if !ok {
		return []types.Type{t}
	}
	var out []types.Type
	for _, c := range children {
		out = append(out, flattenType(a, c)...)
	}
	return out
}

// SplitVars replaces every variable whose width is statically known and
// greater than 1 with that many scalar (width-1) variables, rewriting
// every op's Left/Right index lists so they reference the expanded
// scalars instead of the original wide index. Tuple-typed variables are
// never split: a Tuple is a boxed value occupying a single stack cell
// regardless of what it boxes.
func SplitVars(a *types.Arena, code *ir.CodeBlob) {
	expansion := make(map[int][]int) // old index -> new scalar indices

	// Snapshot the pre-split var list: NewVar appends to code.Vars as we
	// allocate scalar children, and we must not re-split those.
	original := make([]*ir.TmpVar, len(code.Vars))
	copy(original, code.Vars)

	for _, v := range original {
		leaves := flattenType(a, v.Type)
		if len(leaves) <= 1 {
			continue
		}
		children := make([]int, 0, len(leaves))
		for _, leaf := range leaves {
			child := code.NewVar(leaf, ir.Tmp, "", v.Location)
			child.SplitFrom = v.Index
			children = append(children, child.Index)
		}
		v.SplitChildren = children
		expansion[v.Index] = children
	}

	if len(expansion) == 0 {
		return
	}

	expand := func(idxs []int) []int {
		if idxs == nil {
			return nil
		}
		changed := false
		for _, idx := range idxs {
			if _, ok := expansion[idx]; ok {
				changed = true
				break
			}
		}
		if !changed {
			return idxs
		}
		out := make([]int, 0, len(idxs))
		for _, idx := range idxs {
			if children, ok := expansion[idx]; ok {
				out = append(out, children...)
			} else {
				out = append(out, idx)
			}
		}
		return out
	}

	code.Head().Walk(func(op *ir.Op) {
		op.Left = expand(op.Left)
		op.Right = expand(op.Right)
	})
}

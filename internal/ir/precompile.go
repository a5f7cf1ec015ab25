package ir

import (
	"github.com/tolklang/tolk/internal/diagnostics"
	"github.com/tolklang/tolk/internal/types"
)

// LvalGlob pairs a global symbol with the temporary that holds its new
// value, so the caller can append a trailing SetGlob once the whole
// assignment has been lowered.
type LvalGlob struct {
	GlobName string
	TmpIdx   int
}

// PreCompile lowers e into zero or more Ops appended to code's current
// block, returning the variable indices that hold its result (one per
// unit of stack width; a Tensor's result is the concatenation of its
// children's). lvalGlobs, if non-nil, accumulates (global, tmp) pairs
// for assignment targets reached while lowering an l-value expression.
func PreCompile(a *types.Arena, code *CodeBlob, e *Expr, lvalGlobs *[]LvalGlob) ([]int, error) {
	switch e.Cls {
	case ExprConst:
		v := code.NewVar(e.Type, Tmp, "", e.Location)
		iv := int64(0)
		if e.IntConst != nil {
			iv = *e.IntConst
		}
		code.Emit(&Op{Kind: IntConst, Left: []int{v.Index}, IntVal: iv, Location: e.Location})
		return []int{v.Index}, nil

	case ExprSliceConst:
		v := code.NewVar(e.Type, Tmp, "", e.Location)
		sv := ""
		if e.StrConst != nil {
			sv = *e.StrConst
		}
		code.Emit(&Op{Kind: SliceConst, Left: []int{v.Index}, StrVal: sv, Location: e.Location})
		return []int{v.Index}, nil

	case ExprVar:
		return []int{e.VarIdx}, nil

	case ExprGlobVar:
		v := code.NewVar(e.Type, Tmp, "", e.Location)
		code.Emit(&Op{Kind: GlobVar, Left: []int{v.Index}, FuncRef: e.GlobName, Location: e.Location})
		return []int{v.Index}, nil

	case ExprGlobFunc:
		// Referenced as a value rather than called outright (e.g. passed
		// to a higher-order built-in): materialize it as an Import of a
		// fresh continuation-typed variable naming the callee.
		v := code.NewVar(e.Type, Tmp, "", e.Location)
		code.Emit(&Op{Kind: Import, Left: []int{v.Index}, FuncRef: e.FuncName, Location: e.Location})
		return []int{v.Index}, nil

	case ExprApply, ExprVarApply:
		return preCompileApply(a, code, e, lvalGlobs)

	case ExprTypeApply:
		// A width-compatible coercion: same stack representation, so no
		// op is emitted, the operand's own destination is reused.
		return PreCompile(a, code, e.Children[0], lvalGlobs)

	case ExprMkTuple:
		srcs, err := preCompileChildren(a, code, e.Children, lvalGlobs)
		if err != nil {
			return nil, err
		}
		v := code.NewVar(e.Type, Tmp, "", e.Location)
		code.Emit(&Op{Kind: MkTuple, Left: []int{v.Index}, Right: srcs, Location: e.Location})
		return []int{v.Index}, nil

	case ExprTensor:
		return preCompileChildren(a, code, e.Children, lvalGlobs)

	case ExprCondExpr:
		return preCompileCondExpr(a, code, e, lvalGlobs)

	case ExprLetop, ExprLetFirst:
		if _, err := PreCompile(a, code, e.Children[0], lvalGlobs); err != nil {
			return nil, err
		}
		return PreCompile(a, code, e.Children[1], lvalGlobs)

	case ExprHole:
		v := code.NewVar(e.Type, Tmp, "", e.Location)
		return []int{v.Index}, nil

	case ExprType, ExprNone:
		return nil, nil

	default:
		diagnostics.Assert(false, e.Location, "PreCompile: unhandled expr class")
		return nil, nil
	}
}

func preCompileChildren(a *types.Arena, code *CodeBlob, children []*Expr, lvalGlobs *[]LvalGlob) ([]int, error) {
	var out []int
	for _, c := range children {
		idxs, err := PreCompile(a, code, c, lvalGlobs)
		if err != nil {
			return nil, err
		}
		out = append(out, idxs...)
	}
	return out, nil
}

func preCompileApply(a *types.Arena, code *CodeBlob, e *Expr, lvalGlobs *[]LvalGlob) ([]int, error) {
	args := e.Children
	var calleeVar []int
	if e.Cls == ExprVarApply {
		cv, err := PreCompile(a, code, e.Children[0], lvalGlobs)
		if err != nil {
			return nil, err
		}
		calleeVar = cv
		args = e.Children[1:]
	}
	srcs, err := preCompileChildren(a, code, args, lvalGlobs)
	if err != nil {
		return nil, err
	}
	_, outWidth := a.WidthRange(e.Type)
	dst := make([]int, 0, outWidth)
	for i := 0; i < outWidth; i++ {
		v := code.NewVar(types.NewAtomic(types.Int), Tmp, "", e.Location)
		dst = append(dst, v.Index)
	}
	op := &Op{Left: dst, Right: srcs, Location: e.Location}
	if e.Cls == ExprApply {
		op.Kind = Call
		op.FuncRef = e.FuncName
	} else {
		op.Kind = CallInd
		op.Right = append(calleeVar, srcs...)
	}
	if e.Flags&IsImpure != 0 {
		op.Flags |= Impure
	}
	code.Emit(op)
	return dst, nil
}

func preCompileCondExpr(a *types.Arena, code *CodeBlob, e *Expr, lvalGlobs *[]LvalGlob) ([]int, error) {
	condDst, err := PreCompile(a, code, e.Children[0], lvalGlobs)
	if err != nil {
		return nil, err
	}
	_, outWidth := a.WidthRange(e.Type)
	dst := make([]int, 0, outWidth)
	for i := 0; i < outWidth; i++ {
		v := code.NewVar(types.NewAtomic(types.Int), Tmp, "", e.Location)
		dst = append(dst, v.Index)
	}

	ifOp := &Op{Kind: If, Right: condDst, Left: dst, Location: e.Location}
	code.Emit(ifOp)

	code.PushBlock(&ifOp.Child0)
	thenSrcs, err := PreCompile(a, code, e.Children[1], lvalGlobs)
	if err != nil {
		code.PopBlock()
		return nil, err
	}
	code.Emit(&Op{Kind: Let, Left: dst, Right: thenSrcs, Location: e.Children[1].Location})
	code.Close(e.Children[1].Location)
	code.PopBlock()

	code.PushBlock(&ifOp.Child1)
	elseSrcs, err := PreCompile(a, code, e.Children[2], lvalGlobs)
	if err != nil {
		code.PopBlock()
		return nil, err
	}
	code.Emit(&Op{Kind: Let, Left: dst, Right: elseSrcs, Location: e.Children[2].Location})
	code.Close(e.Children[2].Location)
	code.PopBlock()

	return dst, nil
}

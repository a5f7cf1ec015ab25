package ir

import (
	"fmt"

	"github.com/tolklang/tolk/internal/diagnostics"
	"github.com/tolklang/tolk/internal/types"
)

// ExprCls enumerates every expression shape the front end may hand to
// deduce_type/pre_compile.
type ExprCls int

const (
	ExprNone ExprCls = iota
	ExprApply
	ExprVarApply
	ExprTypeApply
	ExprMkTuple
	ExprTensor
	ExprConst
	ExprVar
	ExprGlobFunc
	ExprGlobVar
	ExprLetop
	ExprLetFirst
	ExprHole
	ExprType
	ExprCondExpr
	ExprSliceConst
)

// ExprFlag is a bitmask of per-expression r/l-value and purity facts,
// filled in (or checked) by DeduceType.
type ExprFlag int

const (
	IsType ExprFlag = 1 << iota
	IsRvalue
	IsLvalue
	IsImpure
	IsInsideParenthesis
)

// FuncSignature is what component F (the built-in/global function
// registry) exposes to component B for binding a callee: enough to
// check arity and compute the call's result type.
type FuncSignature struct {
	Name       string
	ParamTypes []types.Type
	ResultType types.Type
	Pure       bool
}

// CalleeResolver is consulted by DeduceType to bind Apply/GlobFunc
// targets; component F implements it over the built-in and
// user-function tables.
type CalleeResolver interface {
	Lookup(name string) (FuncSignature, bool)
}

// Expr is a node in the typed expression tree that the front end builds
// and hands to this package for type deduction and IR lowering. Unlike
// Op, which is a flat instruction list, Expr is a tree: DeduceType walks
// it bottom-up, PreCompile walks it again to emit Ops.
type Expr struct {
	Cls      ExprCls
	Flags    ExprFlag
	Type     types.Type
	Location diagnostics.Location

	Children []*Expr // operand sub-expressions, meaning depends on Cls

	FuncName string  // ExprApply/ExprGlobFunc: callee name
	GlobName string  // ExprGlobVar: global variable name
	VarIdx   int     // ExprVar: resolved local variable index (-1 until bound)
	IntConst *int64  // ExprConst (integer literals)
	StrConst *string // ExprSliceConst
	LetNames []string // ExprLetop/ExprLetFirst: bound names, in order

	sig *FuncSignature // resolved callee signature, set by DeduceType
}

func (c ExprCls) String() string {
	names := [...]string{
		"none", "apply", "varapply", "typeapply", "mktuple", "tensor",
		"const", "var", "globfunc", "globvar", "letop", "letfirst",
		"hole", "type", "condexpr", "sliceconst",
	}
	if int(c) < len(names) {
		return names[c]
	}
	return "?exprcls"
}

func exprErr(e *Expr, code diagnostics.Code, msg string) error {
	return diagnostics.NewError(code, e.Location, msg)
}

// DeduceType propagates types bottom-up through e, unifying against ctx
// (the contextual expectation, or the zero Type if none), and marks
// r/l-value flags. Apply arity is checked against the bound callee's
// signature. TypeApply records an explicit width-compatible coercion
// without emitting any runtime code, since the value's representation
// on the stack is unchanged.
func DeduceType(a *types.Arena, resolver CalleeResolver, e *Expr, ctx types.Type) error {
	switch e.Cls {
	case ExprConst:
		e.Type = types.NewAtomic(types.Int)
		e.Flags |= IsRvalue

	case ExprSliceConst:
		e.Type = types.NewAtomic(types.Slice)
		e.Flags |= IsRvalue

	case ExprVar:
		e.Flags |= IsRvalue | IsLvalue

	case ExprGlobVar:
		sig, ok := resolver.Lookup(e.GlobName)
		if !ok {
			return exprErr(e, diagnostics.ErrSemUndefinedSymbol, fmt.Sprintf("undefined global %q", e.GlobName))
		}
		e.Type = sig.ResultType
		e.Flags |= IsRvalue | IsLvalue

	case ExprGlobFunc:
		sig, ok := resolver.Lookup(e.FuncName)
		if !ok {
			return exprErr(e, diagnostics.ErrSemUndefinedSymbol, fmt.Sprintf("undefined function %q", e.FuncName))
		}
		e.sig = &sig
		e.Type = types.NewMap(types.NewTensor(sig.ParamTypes...), sig.ResultType)
		e.Flags |= IsRvalue

	case ExprApply, ExprVarApply:
		for _, c := range e.Children {
			if err := DeduceType(a, resolver, c, types.Type{}); err != nil {
				return err
			}
		}
		var sig *FuncSignature
		if e.Cls == ExprApply {
			s, ok := resolver.Lookup(e.FuncName)
			if !ok {
				return exprErr(e, diagnostics.ErrSemUndefinedSymbol, fmt.Sprintf("undefined function %q", e.FuncName))
			}
			sig = &s
		} else {
			if len(e.Children) == 0 {
				return exprErr(e, diagnostics.ErrCodegenMalformedIR, "VarApply with no callee expression")
			}
			_, to, ok := a.Find(e.Children[0].Type).MapParts()
			if !ok {
				return exprErr(e, diagnostics.ErrTypeArityMismatch, "callee is not a function type")
			}
			sig = &FuncSignature{ResultType: to}
		}
		args := e.Children
		if e.Cls == ExprVarApply {
			args = e.Children[1:]
		}
		if sig.ParamTypes != nil && len(args) != len(sig.ParamTypes) {
			return exprErr(e, diagnostics.ErrTypeArityMismatch,
				fmt.Sprintf("expected %d arguments, got %d", len(sig.ParamTypes), len(args)))
		}
		for i, arg := range args {
			if sig.ParamTypes != nil {
				if err := a.Unify(arg.Type, sig.ParamTypes[i]); err != nil {
					return unifyToDiag(arg.Location, err)
				}
			}
		}
		e.sig = sig
		e.Type = sig.ResultType
		e.Flags |= IsRvalue
		if !sig.Pure {
			e.Flags |= IsImpure
		}

	case ExprTypeApply:
		if len(e.Children) != 1 {
			return exprErr(e, diagnostics.ErrCodegenMalformedIR, "TypeApply expects exactly one operand")
		}
		if err := DeduceType(a, resolver, e.Children[0], types.Type{}); err != nil {
			return err
		}
		if a.Width(e.Children[0].Type) != a.Width(e.Type) {
			return exprErr(e, diagnostics.ErrTypeWidthMismatch, "explicit coercion changes stack width")
		}
		e.Flags |= IsRvalue

	case ExprMkTuple:
		for _, c := range e.Children {
			if err := DeduceType(a, resolver, c, types.Type{}); err != nil {
				return err
			}
		}
		inner := make([]types.Type, len(e.Children))
		for i, c := range e.Children {
			inner[i] = c.Type
		}
		e.Type = types.NewTuple(types.NewTensor(inner...))
		e.Flags |= IsRvalue

	case ExprTensor:
		for _, c := range e.Children {
			if err := DeduceType(a, resolver, c, types.Type{}); err != nil {
				return err
			}
		}
		inner := make([]types.Type, len(e.Children))
		for i, c := range e.Children {
			inner[i] = c.Type
		}
		e.Type = types.NewTensor(inner...)
		e.Flags |= IsRvalue

	case ExprCondExpr:
		if len(e.Children) != 3 {
			return exprErr(e, diagnostics.ErrCodegenMalformedIR, "CondExpr expects (cond, then, else)")
		}
		for _, c := range e.Children {
			if err := DeduceType(a, resolver, c, types.Type{}); err != nil {
				return err
			}
		}
		if err := a.Unify(e.Children[0].Type, types.NewAtomic(types.Int)); err != nil {
			return unifyToDiag(e.Location, err)
		}
		if err := a.Unify(e.Children[1].Type, e.Children[2].Type); err != nil {
			return unifyToDiag(e.Location, err)
		}
		e.Type = e.Children[1].Type
		e.Flags |= IsRvalue

	case ExprLetop, ExprLetFirst:
		if len(e.Children) != 2 {
			return exprErr(e, diagnostics.ErrCodegenMalformedIR, "Letop expects (value, body)")
		}
		if err := DeduceType(a, resolver, e.Children[0], types.Type{}); err != nil {
			return err
		}
		if err := DeduceType(a, resolver, e.Children[1], ctx); err != nil {
			return err
		}
		e.Type = e.Children[1].Type
		e.Flags |= e.Children[1].Flags & (IsRvalue | IsLvalue)

	case ExprHole:
		e.Type = a.NewHole()
		e.Flags |= IsRvalue

	case ExprType:
		e.Flags |= IsType

	case ExprNone:
		// deliberately no-op: a placeholder expression carries no type.

	default:
		diagnostics.Assert(false, e.Location, "DeduceType: unhandled expr class")
	}

	if !ctx.IsZero() && !e.Type.IsZero() {
		if err := a.Unify(e.Type, ctx); err != nil {
			return unifyToDiag(e.Location, err)
		}
	}
	return nil
}

func unifyToDiag(loc diagnostics.Location, err error) error {
	if ue, ok := err.(*types.UnifyError); ok {
		return diagnostics.NewError(kindToCode(ue.Kind), loc, ue.Error())
	}
	return diagnostics.NewError(diagnostics.ErrInternal, loc, err.Error())
}

func kindToCode(k types.UnifyErrorKind) diagnostics.Code {
	switch k {
	case types.WidthMismatch:
		return diagnostics.ErrTypeWidthMismatch
	case types.RigidMismatch:
		return diagnostics.ErrTypeRigidMismatch
	case types.Occurs:
		return diagnostics.ErrTypeOccurs
	case types.ArityMismatch:
		return diagnostics.ErrTypeArityMismatch
	default:
		return diagnostics.ErrInternal
	}
}

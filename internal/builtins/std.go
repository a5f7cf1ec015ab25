package builtins

import (
	"github.com/tolklang/tolk/internal/diagnostics"
	"github.com/tolklang/tolk/internal/ir"
	"github.com/tolklang/tolk/internal/types"
)

// Std returns the registry of built-ins available to every compilation
// unit: the integer arithmetic and comparison operators, the
// unconditional-throw family, and the few control primitives that
// codegen needs a named entry for even though they are never called
// indirectly (inline-expanded operators like add/sub map onto a single
// TVM instruction each).
func Std() *Registry {
	r := NewRegistry()
	intT := types.NewAtomic(types.Int)
	binIntSig := []types.Type{intT, intT}

	arith := []struct {
		name string
		op   string
	}{
		{"_+_", "ADD"},
		{"_-_", "SUB"},
		{"_*_", "MUL"},
		{"_/_", "DIV"},
		{"_%_", "MOD"},
		{"_&_", "AND"},
		{"_|_", "OR"},
		{"_^_", "XOR"},
	}
	for _, op := range arith {
		op := op
		r.Register(&Entry{
			Name:       op.name,
			Flags:      MarkedAsPure | Inline,
			ParamTypes: binIntSig,
			ResultType: intT,
			Compile: func(out, in []int, loc diagnostics.Location) (AsmArg, error) {
				if len(in) != 2 || len(out) != 1 {
					return AsmArg{}, diagnostics.NewFatal(diagnostics.ErrCodegenMalformedIR, loc, op.op+": expected 2 inputs, 1 output")
				}
				return AsmArg{Op: op.op}, nil
			},
			Transfer: arithTransfer(op.op),
		})
	}

	cmp := []struct {
		name string
		op   string
	}{
		{"_==_", "EQUAL"},
		{"_!=_", "NEQ"},
		{"_<_", "LESS"},
		{"_>_", "GREATER"},
		{"_<=_", "LEQ"},
		{"_>=_", "GEQ"},
	}
	for _, op := range cmp {
		op := op
		r.Register(&Entry{
			Name:       op.name,
			Flags:      MarkedAsPure | Inline,
			ParamTypes: binIntSig,
			ResultType: intT,
			Compile: func(out, in []int, loc diagnostics.Location) (AsmArg, error) {
				if len(in) != 2 || len(out) != 1 {
					return AsmArg{}, diagnostics.NewFatal(diagnostics.ErrCodegenMalformedIR, loc, op.op+": expected 2 inputs, 1 output")
				}
				return AsmArg{Op: op.op}, nil
			},
		})
	}

	r.Register(&Entry{
		Name:       "throw",
		Flags:      Inline,
		ParamTypes: []types.Type{intT},
		ResultType: types.NewTensor(),
		NoReturn:   true,
		Compile: func(out, in []int, loc diagnostics.Location) (AsmArg, error) {
			return AsmArg{Op: "THROW", A: 0}, nil
		},
	})
	r.Register(&Entry{
		Name:       "throw_if",
		Flags:      Inline,
		ParamTypes: []types.Type{intT, intT},
		ResultType: types.NewTensor(),
		Compile: func(out, in []int, loc diagnostics.Location) (AsmArg, error) {
			return AsmArg{Op: "THROWIF", A: 0}, nil
		},
	})

	return r
}

func arithTransfer(op string) TransferFunc {
	return func(op2 *ir.Op, in *ir.VarDescrList) *ir.VarDescrList {
		out := in.Clone()
		for _, dst := range op2.Left {
			d := out.Get(dst)
			d.Val = ir.FiniteInt
			d.IntConst = nil
		}
		if op == "ADD" && len(op2.Right) == 2 {
			l, r := in.Get(op2.Right[0]), in.Get(op2.Right[1])
			if l.Val&ir.ValConst != 0 && r.Val&ir.ValConst != 0 && l.IntConst != nil && r.IntConst != nil {
				sum := *l.IntConst + *r.IntConst
				d := out.Get(op2.Left[0])
				d.Val = ir.FiniteInt | ir.ValConst
				d.IntConst = &sum
			}
		}
		return out
	}
}

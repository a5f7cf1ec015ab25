// Package builtins implements component F: the table of built-in
// operations mapping IR opcodes to codegen compile functions and
// value-descriptor transfer functions.
package builtins

import (
	"github.com/tolklang/tolk/internal/diagnostics"
	"github.com/tolklang/tolk/internal/ir"
	"github.com/tolklang/tolk/internal/types"
)

// FuncFlag is a bitmask of properties attached to a built-in or
// user-defined function entry.
type FuncFlag int

const (
	Inline FuncFlag = 1 << iota
	InlineRef
	WrapsAnotherF
	UsedAsNonCall
	MarkedAsPure
	BuiltinFunction
	GetMethod
)

// AsmArg is the abstract description of a compiled instruction before
// it is rendered: a mnemonic plus up to two numeric operands, matching
// the shape codegen.AsmOp expects from a compile function.
type AsmArg struct {
	Op string
	A  int
	B  int
	HasB bool
}

// SimpleCompileFunc computes the single AsmOp for a built-in given its
// output and input variable index lists and a source location, for
// built-ins whose codegen never depends on which physical stack
// positions operands land in.
type SimpleCompileFunc func(out, in []int, loc diagnostics.Location) (AsmArg, error)

// TransferFunc computes the outgoing value-descriptor fact list given
// an op and its incoming fact list, letting specific built-ins (e.g.
// "multiply by a constant power of two") sharpen the result beyond what
// a generic opaque call would allow.
type TransferFunc func(op *ir.Op, in *ir.VarDescrList) *ir.VarDescrList

// Entry is one row of the built-in table.
type Entry struct {
	Name       string
	Flags      FuncFlag
	ParamTypes []types.Type
	ResultType types.Type
	Compile    SimpleCompileFunc
	Transfer   TransferFunc

	// NoReturn marks the handful of built-ins (throw, throw_if, ...)
	// whose every codegen form diverges.
	NoReturn bool
}

func (e *Entry) IsPure() bool   { return e.Flags&MarkedAsPure != 0 }
func (e *Entry) IsInline() bool { return e.Flags&(Inline|InlineRef) != 0 }

// Registry maps built-in names to their Entry.
type Registry struct {
	entries map[string]*Entry
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*Entry)}
}

// Register adds or replaces a built-in entry.
func (r *Registry) Register(e *Entry) {
	r.entries[e.Name] = e
}

// Names lists every registered built-in name, for internal/compileserver's
// ListBuiltins RPC (the protoreflect-driven introspection the teacher's
// dependency table calls for in place of a generated reflection file).
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	return names
}

// Lookup implements ir.CalleeResolver for DeduceType.
func (r *Registry) Lookup(name string) (ir.FuncSignature, bool) {
	e, ok := r.entries[name]
	if !ok {
		return ir.FuncSignature{}, false
	}
	return ir.FuncSignature{
		Name:       e.Name,
		ParamTypes: e.ParamTypes,
		ResultType: e.ResultType,
		Pure:       e.IsPure(),
	}, true
}

// Entry returns the full table row, for codegen and analysis callers
// that need more than the plain signature.
func (r *Registry) Entry(name string) (*Entry, bool) {
	e, ok := r.entries[name]
	return e, ok
}

// NoReturn implements analysis.NoReturnCallee.
func (r *Registry) NoReturn(name string) bool {
	e, ok := r.entries[name]
	return ok && e.NoReturn
}

// Transfer implements analysis.Transfer, delegating to the named
// built-in's transfer function, or falling back to the opaque rule: a
// pure callee's inputs keep their facts and its outputs get none; an
// impure callee clears everything.
func (r *Registry) Transfer(op *ir.Op, in *ir.VarDescrList) *ir.VarDescrList {
	out := in.Clone()
	e, ok := r.entries[op.FuncRef]
	if ok && e.Transfer != nil {
		return e.Transfer(op, in)
	}
	pure := ok && e.IsPure()
	for _, dst := range op.Left {
		d := out.Get(dst)
		d.Val = 0
		d.IntConst = nil
		d.StrConst = nil
	}
	if !pure {
		for _, src := range op.Right {
			d := out.Get(src)
			d.Val = 0
			d.IntConst = nil
			d.StrConst = nil
		}
	}
	return out
}

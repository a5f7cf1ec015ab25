// Package ir implements component B of the compiler core: the abstract
// intermediate representation built from virtual variables and linked
// operations, plus the data types (value descriptors, op flags) that
// component C's analyses in internal/analysis work on.
package ir

import (
	"github.com/tolklang/tolk/internal/diagnostics"
	"github.com/tolklang/tolk/internal/types"
)

// VarClass classifies how a TmpVar came to exist.
type VarClass int

const (
	In VarClass = iota
	Named
	Tmp
	UniqueName
)

func (c VarClass) String() string {
	switch c {
	case In:
		return "in"
	case Named:
		return "named"
	case Tmp:
		return "tmp"
	case UniqueName:
		return "unique"
	default:
		return "?class"
	}
}

// TmpVar is a virtual variable: one slot (or, after splitting, one of
// several scalar slots) of the abstract value stack that codegen plans
// onto the real one.
type TmpVar struct {
	Index          int
	Type           types.Type
	Class          VarClass
	Symbol         string // user-given name; empty for compiler temporaries
	Location       diagnostics.Location
	SplitFrom      int   // index of the wide var this was split from, or -1
	SplitChildren  []int // for a wide var: the scalar children it was split into
}

// NewTmpVar constructs a TmpVar with no split relationship yet.
func NewTmpVar(index int, t types.Type, class VarClass, symbol string, loc diagnostics.Location) *TmpVar {
	return &TmpVar{Index: index, Type: t, Class: class, Symbol: symbol, Location: loc, SplitFrom: -1}
}

// IsSplit reports whether this variable was produced by splitting a
// wider one, rather than user code or the original construction pass.
func (v *TmpVar) IsSplit() bool { return v.SplitFrom >= 0 }

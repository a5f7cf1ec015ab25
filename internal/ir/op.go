package ir

import "github.com/tolklang/tolk/internal/diagnostics"

// OpKind enumerates every shape an Op may take. New kinds force every
// exhaustive switch in the analyses and codegen packages to be revisited.
type OpKind int

const (
	Nop OpKind = iota
	Call
	CallInd
	Let
	IntConst
	SliceConst
	GlobVar
	SetGlob
	Import
	Return
	MkTuple
	UnTuple
	If
	While
	Until
	Repeat
	Again
	TryCatch
)

func (k OpKind) String() string {
	names := [...]string{
		"nop", "call", "callind", "let", "intconst", "sliceconst",
		"globvar", "setglob", "import", "return", "tuple", "untuple",
		"if", "while", "until", "repeat", "again", "trycatch",
	}
	if int(k) < len(names) {
		return names[k]
	}
	return "?opkind"
}

// OpFlag is a bitmask of per-op control flags.
type OpFlag int

const (
	Disabled OpFlag = 1 << iota // dropped by unreachable-code pruning
	NoReturn                    // every control path from here diverges
	Impure                      // has an observable side effect
)

// Op is one node in a code body's instruction list. If/loop/TryCatch
// kinds own one or two child blocks; every other kind is a leaf. Ops
// form a singly linked list via Next; a block (top-level or child) is
// terminated by a Nop with a nil Next.
type Op struct {
	Kind  OpKind
	Flags OpFlag

	Left  []int // destination variable indices
	Right []int // source variable indices

	// RightLast[i] marks Right[i] as that variable's last use: codegen
	// may consume rather than copy its stack slot. LeftUnused[i] marks
	// Left[i] as a definition whose result is never read, so codegen may
	// drop it instead of pushing it. Both are set by backward liveness
	// and are nil (meaning "not yet computed") before it runs.
	RightLast  []bool
	LeftUnused []bool

	FuncRef string // callee name, for Call/CallInd
	IntVal   int64  // for IntConst
	StrVal   string // for SliceConst
	RepeatN  int64  // for Repeat

	Child0 *Op // If: then-branch. While/Until/Repeat/Again: loop body. TryCatch: try-block.
	Child1 *Op // If: else-branch. TryCatch: catch-block.

	Next *Op

	VarInfo  *VarDescrList // forward analysis result as of entry to this op
	Location diagnostics.Location
}

// NewNop creates an empty terminator op, the canonical end-of-list marker.
func NewNop(loc diagnostics.Location) *Op {
	return &Op{Kind: Nop, Location: loc}
}

// IsDisabled reports whether pruning dropped this op from the reachable
// path; codegen and later analyses skip disabled ops.
func (o *Op) IsDisabled() bool { return o.Flags&Disabled != 0 }

// IsNoReturn reports whether every path through this op diverges.
func (o *Op) IsNoReturn() bool { return o.Flags&NoReturn != 0 }

// HasChildBlocks reports whether this op owns nested blocks that
// analyses and codegen must recurse into.
func (o *Op) HasChildBlocks() bool {
	switch o.Kind {
	case If, While, Until, Repeat, Again, TryCatch:
		return true
	default:
		return false
	}
}

// Walk calls fn for this op and every op reachable via Next, Child0, and
// Child1, depth-first, without recursing through the host call stack
// beyond the nesting depth of the program itself (child blocks are a
// handful of levels deep in practice).
func (o *Op) Walk(fn func(*Op)) {
	for op := o; op != nil; op = op.Next {
		fn(op)
		if op.Child0 != nil {
			op.Child0.Walk(fn)
		}
		if op.Child1 != nil {
			op.Child1.Walk(fn)
		}
	}
}

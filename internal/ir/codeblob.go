package ir

import (
	"github.com/google/uuid"

	"github.com/tolklang/tolk/internal/diagnostics"
	"github.com/tolklang/tolk/internal/types"
)

// CodeBlob is the per-function IR container: the flat pool of variables
// it declares plus the head of its op list.
type CodeBlob struct {
	Name       string
	Location   diagnostics.Location
	ReturnType types.Type
	Vars       []*TmpVar

	// UnitID is a fresh random tag for this body. internal/buildcache's
	// Key does not include it.
	UnitID uuid.UUID

	opsHead *Op
	cursors []**Op // stack of "append here next" slots, top is current
}

// NewCodeBlob starts a fresh, empty body. The initial cursor appends to
// the top-level op list.
func NewCodeBlob(name string, loc diagnostics.Location, returnType types.Type) *CodeBlob {
	b := &CodeBlob{Name: name, Location: loc, ReturnType: returnType, UnitID: uuid.New()}
	b.cursors = []**Op{&b.opsHead}
	return b
}

// Head returns the first op of the top-level list, or nil if empty.
func (b *CodeBlob) Head() *Op { return b.opsHead }

// NewVar allocates a fresh TmpVar with the next dense index.
func (b *CodeBlob) NewVar(t types.Type, class VarClass, symbol string, loc diagnostics.Location) *TmpVar {
	v := NewTmpVar(len(b.Vars), t, class, symbol, loc)
	b.Vars = append(b.Vars, v)
	return v
}

// Emit appends op to the list at the current cursor and advances the
// cursor past it, so the next Emit call appends after it.
func (b *CodeBlob) Emit(op *Op) {
	cur := b.cursors[len(b.cursors)-1]
	*cur = op
	b.cursors[len(b.cursors)-1] = &op.Next
}

// PushBlock begins a new nested block (e.g. an If branch): subsequent
// Emit calls append to *slot until the matching PopBlock. This lets
// nested control-flow blocks be built without recursing through the
// host call stack to track "where do I append next" per block.
func (b *CodeBlob) PushBlock(slot **Op) {
	b.cursors = append(b.cursors, slot)
}

// PopBlock ends the current nested block, returning to the enclosing
// one. The block being closed must already be terminated (by Close).
func (b *CodeBlob) PopBlock() {
	b.cursors = b.cursors[:len(b.cursors)-1]
}

// Close terminates the current block with a Nop, matching the
// "singly-linked list terminated by an empty Nop" invariant.
func (b *CodeBlob) Close(loc diagnostics.Location) {
	b.Emit(NewNop(loc))
}

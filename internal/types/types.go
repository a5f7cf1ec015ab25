package types

import "github.com/tolklang/tolk/internal/diagnostics"

// kind tags the variant stored in a Type value.
type kind int

const (
	// kNone is the zero value of kind, so a zero Type (no type assigned
	// yet) is distinguishable from a reference to hole id 0.
	kNone kind = iota
	kHole
	kVar
	kAtomic
	kTensor
	kTuple
	kMap
	kForall
)

// Type is a structural type expression. It is a small tagged value
// rather than an interface: the variant set is closed, so a switch on
// kind is exhaustive and cheap to copy by value. Holes and rigid
// variables are represented purely as ids resolved against an Arena;
// a Type alone, without its owning Arena, cannot be chased past a
// bound hole.
type Type struct {
	kind kind

	id int // kHole: hole id in the owning Arena. kVar: rigid var id.

	atomic AtomicKind // kAtomic

	children []Type // kTensor: product members. kForall: bound var ids stashed in forallVars.

	inner *Type // kTuple: boxed member.

	from, to *Type // kMap: domain and codomain.

	forallVars []int // kForall: ids of the quantified rigid variables.
	forallBody *Type // kForall: the quantified body.
}

// NewAtomic builds an Atomic(kind) type. Atomics always have width 1.
func NewAtomic(k AtomicKind) Type {
	return Type{kind: kAtomic, atomic: k}
}

// NewTensor builds an ordered product type. A nullary tensor is the
// canonical "unit" type (width 0).
func NewTensor(children ...Type) Type {
	cs := make([]Type, len(children))
	copy(cs, children)
	return Type{kind: kTensor, children: cs}
}

// NewTuple boxes a tensor (or any type) into a single stack cell.
func NewTuple(inner Type) Type {
	in := inner
	return Type{kind: kTuple, inner: &in}
}

// NewMap builds a function type `from -> to`, represented at runtime as
// a single continuation cell.
func NewMap(from, to Type) Type {
	f, t := from, to
	return Type{kind: kMap, from: &f, to: &t}
}

// NewForall builds a quantified scheme over the given rigid variable
// ids, none of which may appear free outside body.
func NewForall(vars []int, body Type) Type {
	vs := make([]int, len(vars))
	copy(vs, vars)
	return Type{kind: kForall, forallVars: vs, forallBody: &body}
}

// IsZero reports whether t is the zero Type value: "no type", as
// opposed to a reference to any actual hole, variable, or structural
// form. Expr nodes start with a zero Type before DeduceType runs.
func (t Type) IsZero() bool { return t.kind == kNone }

// IsHole reports whether t is, without resolving, a hole reference.
func (t Type) IsHole() bool { return t.kind == kHole }

// IsVar reports whether t is a rigid type variable reference.
func (t Type) IsVar() bool { return t.kind == kVar }

// AtomicKind returns the atomic kind and true if t is an Atomic.
func (t Type) AtomicKind() (AtomicKind, bool) {
	if t.kind != kAtomic {
		return 0, false
	}
	return t.atomic, true
}

// TensorChildren returns the child types and true if t is a Tensor.
func (t Type) TensorChildren() ([]Type, bool) {
	if t.kind != kTensor {
		return nil, false
	}
	return t.children, true
}

// TupleInner returns the boxed member and true if t is a Tuple.
func (t Type) TupleInner() (Type, bool) {
	if t.kind != kTuple {
		return Type{}, false
	}
	return *t.inner, true
}

// MapParts returns the domain and codomain and true if t is a Map.
func (t Type) MapParts() (from, to Type, ok bool) {
	if t.kind != kMap {
		return Type{}, Type{}, false
	}
	return *t.from, *t.to, true
}

// ForallParts returns the quantified var ids and body and true if t is
// a ForAll scheme.
func (t Type) ForallParts() (vars []int, body Type, ok bool) {
	if t.kind != kForall {
		return nil, Type{}, false
	}
	return t.forallVars, *t.forallBody, true
}

// Find resolves t through the Arena's union-find if it is a hole,
// returning the representative type: either an unbound hole at its
// root id, or whatever structural type that root was bound to.
// Non-hole types resolve to themselves. This is the Go-idiomatic
// analogue of remove_indirect: there is no Indirect variant to rewrite,
// so resolution is just a union-find lookup plus a bindings table read.
func (a *Arena) Find(t Type) Type {
	if t.kind != kHole {
		return t
	}
	root := a.find(t.id)
	if bound, ok := a.bindings[root]; ok {
		return a.Find(bound)
	}
	return Type{kind: kHole, id: root}
}

// Width reports the stack width of t, resolving holes through a.
// A hole with a non-infinite, non-zero-span range whose bound value is
// unknown reports its minimum width: callers needing a definite answer
// must check WidthRange for holes directly.
func (a *Arena) Width(t Type) int {
	t = a.Find(t)
	switch t.kind {
	case kHole:
		minw, _ := a.widthRange(t.id)
		return minw
	case kVar:
		return 1
	case kAtomic:
		return 1
	case kTuple, kMap:
		return 1
	case kTensor:
		w := 0
		for _, c := range t.children {
			w += a.Width(c)
		}
		return w
	case kForall:
		return a.Width(*t.forallBody)
	default:
		diagnostics.Assert(false, diagnostics.Location{}, "Width: unhandled type kind")
		return 0
	}
}

// WidthRange reports the [min, max] stack-width range of t, resolving
// holes through a. Structural types have a single definite width
// (min == max) unless they contain an unbound hole.
func (a *Arena) WidthRange(t Type) (minw, maxw int) {
	t = a.Find(t)
	switch t.kind {
	case kHole:
		return a.widthRange(t.id)
	case kVar, kAtomic, kTuple, kMap:
		return 1, 1
	case kTensor:
		lo, hi := 0, 0
		for _, c := range t.children {
			l, h := a.WidthRange(c)
			lo += l
			hi += h
			if hi > infiniteWidth {
				hi = infiniteWidth
			}
		}
		return lo, hi
	case kForall:
		return a.WidthRange(*t.forallBody)
	default:
		return 0, infiniteWidth
	}
}

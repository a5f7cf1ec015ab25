package types

import (
	"fmt"
	"strings"
)

// String renders t in the surface syntax used by diagnostics, resolving
// holes and rigid variables through a.
func (a *Arena) String(t Type) string {
	var b strings.Builder
	a.write(&b, t)
	return b.String()
}

func (a *Arena) write(b *strings.Builder, t Type) {
	switch t.kind {
	case kHole:
		root := a.find(t.id)
		if bound, ok := a.bindings[root]; ok {
			a.write(b, bound)
			return
		}
		lo, hi := a.widthRange(root)
		if lo == 0 && hi >= infiniteWidth {
			fmt.Fprintf(b, "_%d", root)
		} else {
			fmt.Fprintf(b, "_%d<%d..%d>", root, lo, hi)
		}
	case kVar:
		fmt.Fprintf(b, "'%c", 'A'+rune(t.id%26))
		if t.id >= 26 {
			fmt.Fprintf(b, "%d", t.id/26)
		}
	case kAtomic:
		b.WriteString(t.atomic.String())
	case kTensor:
		b.WriteByte('(')
		for i, c := range t.children {
			if i > 0 {
				b.WriteString(", ")
			}
			a.write(b, c)
		}
		b.WriteByte(')')
	case kTuple:
		b.WriteByte('[')
		a.write(b, *t.inner)
		b.WriteByte(']')
	case kMap:
		a.write(b, *t.from)
		b.WriteString(" -> ")
		a.write(b, *t.to)
	case kForall:
		b.WriteString("forall ")
		for i, v := range t.forallVars {
			if i > 0 {
				b.WriteString(", ")
			}
			a.write(b, Type{kind: kVar, id: v})
		}
		b.WriteString(". ")
		a.write(b, *t.forallBody)
	default:
		b.WriteString("?type")
	}
}

// Equal reports whether t1 and t2 are the same type after resolving
// holes through a. Used by tests and by the soundness check that
// Unify's postcondition holds (equals_to in the unification invariant).
func (a *Arena) Equal(t1, t2 Type) bool {
	t1, t2 = a.Find(t1), a.Find(t2)
	if t1.kind != t2.kind {
		return false
	}
	switch t1.kind {
	case kHole:
		return a.find(t1.id) == a.find(t2.id)
	case kVar:
		return t1.id == t2.id
	case kAtomic:
		return t1.atomic == t2.atomic
	case kTensor:
		if len(t1.children) != len(t2.children) {
			return false
		}
		for i := range t1.children {
			if !a.Equal(t1.children[i], t2.children[i]) {
				return false
			}
		}
		return true
	case kTuple:
		return a.Equal(*t1.inner, *t2.inner)
	case kMap:
		return a.Equal(*t1.from, *t2.from) && a.Equal(*t1.to, *t2.to)
	case kForall:
		if len(t1.forallVars) != len(t2.forallVars) {
			return false
		}
		for i := range t1.forallVars {
			if t1.forallVars[i] != t2.forallVars[i] {
				return false
			}
		}
		return a.Equal(*t1.forallBody, *t2.forallBody)
	default:
		return false
	}
}

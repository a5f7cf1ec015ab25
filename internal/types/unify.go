package types

import "fmt"

// UnifyErrorKind classifies why two type expressions failed to unify.
type UnifyErrorKind int

const (
	WidthMismatch UnifyErrorKind = iota
	RigidMismatch
	Occurs
	ArityMismatch
)

func (k UnifyErrorKind) String() string {
	switch k {
	case WidthMismatch:
		return "widthMismatch"
	case RigidMismatch:
		return "rigidMismatch"
	case Occurs:
		return "occurs"
	case ArityMismatch:
		return "arityMismatch"
	default:
		return "?kind"
	}
}

// UnifyError reports a failed unification between side1 and side2,
// captured before any further resolution so the message reflects what
// the caller actually passed in.
type UnifyError struct {
	Side1, Side2 Type
	Kind         UnifyErrorKind
	Msg          string
	arena        *Arena
}

func (e *UnifyError) Error() string {
	return fmt.Sprintf("cannot unify %s with %s: %s (%s)",
		e.arena.String(e.Side1), e.arena.String(e.Side2), e.Msg, e.Kind)
}

func newUnifyError(a *Arena, t1, t2 Type, kind UnifyErrorKind, msg string) *UnifyError {
	return &UnifyError{Side1: t1, Side2: t2, Kind: kind, Msg: msg, arena: a}
}

// Unify attempts to make t1 and t2 equal, narrowing hole bindings and
// width ranges in place on a. It never widens a hole's width range,
// only narrows it, and never reassigns an already-bound hole: unify is
// only ever called once per hole, at its single point of first use,
// consistent with the surrounding analyses always resolving through
// Find before inspecting a type.
func (a *Arena) Unify(t1, t2 Type) error {
	t1, t2 = a.Find(t1), a.Find(t2)

	// A hole may never bind directly to a polytype: instantiate first,
	// so the hole only ever sees a monomorphic structural form.
	if t1.kind == kForall {
		return a.Unify(a.instantiate(t1), t2)
	}
	if t2.kind == kForall {
		return a.Unify(t1, a.instantiate(t2))
	}

	if t1.kind == kHole && t2.kind == kHole {
		return a.unifyHoleHole(t1, t2)
	}
	if t1.kind == kHole {
		return a.unifyHole(t1, t2)
	}
	if t2.kind == kHole {
		return a.unifyHole(t2, t1)
	}

	switch {
	case t1.kind == kVar || t2.kind == kVar:
		return a.unifyVar(t1, t2)
	case t1.kind == kAtomic && t2.kind == kAtomic:
		if t1.atomic != t2.atomic {
			return newUnifyError(a, t1, t2, ArityMismatch,
				fmt.Sprintf("atomic kind mismatch: %s vs %s", t1.atomic, t2.atomic))
		}
		return nil
	case t1.kind == kTensor && t2.kind == kTensor:
		return a.unifyTensor(t1, t2)
	case t1.kind == kTuple && t2.kind == kTuple:
		return a.Unify(*t1.inner, *t2.inner)
	case t1.kind == kMap && t2.kind == kMap:
		if err := a.Unify(*t1.from, *t2.from); err != nil {
			return err
		}
		return a.Unify(*t1.to, *t2.to)
	default:
		return newUnifyError(a, t1, t2, ArityMismatch, "incompatible type shapes")
	}
}

func (a *Arena) unifyVar(t1, t2 Type) error {
	if t1.kind == kVar && t2.kind == kVar {
		if t1.id == t2.id {
			return nil
		}
		return newUnifyError(a, t1, t2, RigidMismatch, "distinct rigid type variables")
	}
	// One side is Var, the other a structural form (Atomic/Tensor/Tuple/
	// Map/ForAll, since both-hole and hole-vs-other are handled earlier).
	return newUnifyError(a, t1, t2, RigidMismatch, "rigid type variable cannot unify with a structural type")
}

func (a *Arena) unifyHoleHole(t1, t2 Type) error {
	r1, r2 := a.find(t1.id), a.find(t2.id)
	if r1 == r2 {
		return nil
	}
	lo1, hi1 := a.widthRange(r1)
	lo2, hi2 := a.widthRange(r2)
	lo, hi := lo1, hi1
	if lo2 > lo {
		lo = lo2
	}
	if hi2 < hi {
		hi = hi2
	}
	if lo > hi {
		return newUnifyError(a, t1, t2, WidthMismatch,
			fmt.Sprintf("disjoint width ranges [%d,%d] and [%d,%d]", lo1, hi1, lo2, hi2))
	}
	if !a.union(r1, r2) {
		return newUnifyError(a, t1, t2, WidthMismatch, "disjoint width ranges")
	}
	return nil
}

// unifyHole binds hole h to the structural type other (which is never
// itself a hole; the hole-hole case is handled separately).
func (a *Arena) unifyHole(h, other Type) error {
	root := a.find(h.id)
	lo, hi := a.widthRange(root)
	ow := a.Width(other)
	if ow < lo || ow > hi {
		return newUnifyError(a, h, other, WidthMismatch,
			fmt.Sprintf("width %d outside hole range [%d,%d]", ow, lo, hi))
	}
	if a.occursIn(root, other) {
		return newUnifyError(a, h, other, Occurs, "hole occurs in the type it would be bound to")
	}
	if !a.narrow(root, ow, ow) {
		return newUnifyError(a, h, other, WidthMismatch, "width narrowing failed")
	}
	a.bind(root, other)
	return nil
}

func (a *Arena) unifyTensor(t1, t2 Type) error {
	c1, _ := t1.TensorChildren()
	c2, _ := t2.TensorChildren()
	if len(c1) != len(c2) {
		return newUnifyError(a, t1, t2, ArityMismatch,
			fmt.Sprintf("tensor arity mismatch: %d vs %d", len(c1), len(c2)))
	}
	for i := range c1 {
		if err := a.Unify(c1[i], c2[i]); err != nil {
			return err
		}
	}
	return nil
}

// occursIn reports whether the hole rooted at root appears anywhere in
// t, resolving nested holes through a. Must be checked before binding
// root to a compound type to prevent an infinite type.
func (a *Arena) occursIn(root int, t Type) bool {
	t = a.Find(t)
	switch t.kind {
	case kHole:
		return a.find(t.id) == root
	case kTensor:
		for _, c := range t.children {
			if a.occursIn(root, c) {
				return true
			}
		}
		return false
	case kTuple:
		return a.occursIn(root, *t.inner)
	case kMap:
		return a.occursIn(root, *t.from) || a.occursIn(root, *t.to)
	case kForall:
		return a.occursIn(root, *t.forallBody)
	default:
		return false
	}
}

// instantiate replaces a ForAll scheme's quantified variables with
// fresh holes and returns the resulting (non-quantified) body. The
// bound occurrences are located structurally since rigid Var ids are
// compared by value.
func (a *Arena) instantiate(scheme Type) Type {
	vars, body, ok := scheme.ForallParts()
	if !ok {
		return scheme
	}
	sub := make(map[int]Type, len(vars))
	for _, v := range vars {
		sub[v] = a.NewHole()
	}
	return substVars(body, sub)
}

func substVars(t Type, sub map[int]Type) Type {
	switch t.kind {
	case kVar:
		if rep, ok := sub[t.id]; ok {
			return rep
		}
		return t
	case kTensor:
		children := make([]Type, len(t.children))
		for i, c := range t.children {
			children[i] = substVars(c, sub)
		}
		return NewTensor(children...)
	case kTuple:
		return NewTuple(substVars(*t.inner, sub))
	case kMap:
		return NewMap(substVars(*t.from, sub), substVars(*t.to, sub))
	case kForall:
		// Shadowing: only substitute vars not re-bound by the inner scheme.
		inner := make(map[int]Type, len(sub))
		for k, v := range sub {
			shadowed := false
			for _, bv := range t.forallVars {
				if bv == k {
					shadowed = true
					break
				}
			}
			if !shadowed {
				inner[k] = v
			}
		}
		return NewForall(t.forallVars, substVars(*t.forallBody, inner))
	default:
		return t
	}
}

// Generalize closes over every hole reachable from t that is not
// reachable from env (the set of holes still free in the surrounding
// environment), turning each into a freshly bound rigid variable and
// wrapping the result in a ForAll. This is the let-generalization step
// that turns an inferred type into a reusable scheme.
func (a *Arena) Generalize(t Type, env []Type) Type {
	free := make(map[int]bool)
	for _, e := range env {
		a.collectFreeHoles(e, free)
	}
	own := make(map[int]bool)
	a.collectFreeHoles(t, own)

	var vars []int
	sub := make(map[int]Type)
	for root := range own {
		if free[root] {
			continue
		}
		v := a.NewVar()
		vars = append(vars, v.id)
		sub[root] = v
	}
	if len(vars) == 0 {
		return t
	}
	return NewForall(vars, substHoles(t, a, sub))
}

func (a *Arena) collectFreeHoles(t Type, out map[int]bool) {
	t = a.Find(t)
	switch t.kind {
	case kHole:
		out[a.find(t.id)] = true
	case kTensor:
		for _, c := range t.children {
			a.collectFreeHoles(c, out)
		}
	case kTuple:
		a.collectFreeHoles(*t.inner, out)
	case kMap:
		a.collectFreeHoles(*t.from, out)
		a.collectFreeHoles(*t.to, out)
	case kForall:
		a.collectFreeHoles(*t.forallBody, out)
	}
}

func substHoles(t Type, a *Arena, sub map[int]Type) Type {
	t = a.Find(t)
	switch t.kind {
	case kHole:
		if rep, ok := sub[a.find(t.id)]; ok {
			return rep
		}
		return t
	case kTensor:
		children := make([]Type, len(t.children))
		for i, c := range t.children {
			children[i] = substHoles(c, a, sub)
		}
		return NewTensor(children...)
	case kTuple:
		return NewTuple(substHoles(*t.inner, a, sub))
	case kMap:
		return NewMap(substHoles(*t.from, a, sub), substHoles(*t.to, a, sub))
	case kForall:
		return NewForall(t.forallVars, substHoles(*t.forallBody, a, sub))
	default:
		return t
	}
}

package types

import "testing"

func TestUnifyAtomicSuccess(t *testing.T) {
	a := NewArena()
	if err := a.Unify(NewAtomic(Int), NewAtomic(Int)); err != nil {
		t.Fatalf("unify(int, int) failed: %v", err)
	}
}

func TestUnifyAtomicMismatch(t *testing.T) {
	a := NewArena()
	err := a.Unify(NewAtomic(Int), NewAtomic(Cell))
	if err == nil {
		t.Fatal("expected unify(int, cell) to fail")
	}
	ue, ok := err.(*UnifyError)
	if !ok {
		t.Fatalf("expected *UnifyError, got %T", err)
	}
	if ue.Kind != ArityMismatch {
		t.Errorf("kind = %v, want ArityMismatch", ue.Kind)
	}
}

func TestUnifyHoleBindsToAtomic(t *testing.T) {
	a := NewArena()
	h := a.NewHole()
	if err := a.Unify(h, NewAtomic(Int)); err != nil {
		t.Fatalf("unify(hole, int) failed: %v", err)
	}
	if !a.Equal(h, NewAtomic(Int)) {
		t.Errorf("hole did not resolve to int: got %s", a.String(h))
	}
}

func TestUnifyHoleWidthRejectsMismatch(t *testing.T) {
	a := NewArena()
	h := a.NewHoleWidth(2, 2)
	err := a.Unify(h, NewAtomic(Int)) // width 1, outside [2,2]
	if err == nil {
		t.Fatal("expected width-ranged hole to reject a width-1 atomic")
	}
	ue := err.(*UnifyError)
	if ue.Kind != WidthMismatch {
		t.Errorf("kind = %v, want WidthMismatch", ue.Kind)
	}
}

func TestUnifyHoleHoleMergesRanges(t *testing.T) {
	a := NewArena()
	h1 := a.NewHoleWidth(0, 5)
	h2 := a.NewHoleWidth(3, 10)
	if err := a.Unify(h1, h2); err != nil {
		t.Fatalf("unify(hole, hole) failed: %v", err)
	}
	lo, hi := a.WidthRange(h1)
	if lo != 3 || hi != 5 {
		t.Errorf("merged range = [%d,%d], want [3,5]", lo, hi)
	}
}

func TestUnifyHoleHoleDisjointRangesFail(t *testing.T) {
	a := NewArena()
	h1 := a.NewHoleWidth(0, 1)
	h2 := a.NewHoleWidth(2, 5)
	err := a.Unify(h1, h2)
	if err == nil {
		t.Fatal("expected disjoint width ranges to fail")
	}
}

func TestUnifyTensorArity(t *testing.T) {
	a := NewArena()
	t1 := NewTensor(NewAtomic(Int), NewAtomic(Int))
	t2 := NewTensor(NewAtomic(Int))
	err := a.Unify(t1, t2)
	if err == nil {
		t.Fatal("expected arity mismatch to fail")
	}
	if err.(*UnifyError).Kind != ArityMismatch {
		t.Errorf("kind = %v, want ArityMismatch", err.(*UnifyError).Kind)
	}
}

func TestUnifyTensorPairwise(t *testing.T) {
	a := NewArena()
	h := a.NewHole()
	t1 := NewTensor(h, NewAtomic(Cell))
	t2 := NewTensor(NewAtomic(Int), NewAtomic(Cell))
	if err := a.Unify(t1, t2); err != nil {
		t.Fatalf("unify(tensor, tensor) failed: %v", err)
	}
	if !a.Equal(h, NewAtomic(Int)) {
		t.Errorf("tensor child hole did not resolve to int")
	}
}

func TestOccursCheck(t *testing.T) {
	a := NewArena()
	h := a.NewHole()
	// h occurs in (h, int): binding h to that tensor would create an
	// infinite type.
	cyclic := NewTensor(h, NewAtomic(Int))
	err := a.Unify(h, cyclic)
	if err == nil {
		t.Fatal("expected occurs check to fail")
	}
	if err.(*UnifyError).Kind != Occurs {
		t.Errorf("kind = %v, want Occurs", err.(*UnifyError).Kind)
	}
}

func TestRigidVarRejectsStructural(t *testing.T) {
	a := NewArena()
	v := a.NewVar()
	err := a.Unify(v, NewAtomic(Int))
	if err == nil {
		t.Fatal("expected rigid var to reject a structural type")
	}
	if err.(*UnifyError).Kind != RigidMismatch {
		t.Errorf("kind = %v, want RigidMismatch", err.(*UnifyError).Kind)
	}
}

func TestRigidVarUnifiesWithItself(t *testing.T) {
	a := NewArena()
	v := a.NewVar()
	if err := a.Unify(v, v); err != nil {
		t.Fatalf("unify(v, v) failed: %v", err)
	}
}

func TestInstantiateForall(t *testing.T) {
	a := NewArena()
	v := a.NewVar()
	scheme := NewForall([]int{v.id}, NewMap(v, v))
	inst1 := a.instantiate(scheme)
	inst2 := a.instantiate(scheme)

	from1, to1, _ := inst1.MapParts()
	if !a.Equal(from1, to1) {
		t.Errorf("instantiated scheme's domain and codomain should still be equal to each other")
	}

	from2, _, _ := inst2.MapParts()
	if a.find(from1.id) == a.find(from2.id) {
		t.Errorf("two instantiations of the same scheme shared a hole")
	}
}

func TestGeneralizeClosesFreeHoles(t *testing.T) {
	a := NewArena()
	h := a.NewHole()
	scheme := a.Generalize(NewMap(h, h), nil)
	vars, body, ok := scheme.ForallParts()
	if !ok {
		t.Fatalf("Generalize did not produce a ForAll scheme")
	}
	if len(vars) != 1 {
		t.Fatalf("expected exactly one generalized variable, got %d", len(vars))
	}
	from, to, _ := body.MapParts()
	if from.kind != kVar || to.kind != kVar || from.id != to.id {
		t.Errorf("generalized body did not preserve the shared hole as a shared rigid var")
	}
}

func TestGeneralizeKeepsEnvHolesFree(t *testing.T) {
	a := NewArena()
	h := a.NewHole()
	// h is still referenced by the surrounding environment, so it must
	// not be generalized away.
	scheme := a.Generalize(NewMap(h, NewAtomic(Int)), []Type{h})
	if _, _, ok := scheme.ForallParts(); ok {
		t.Errorf("Generalize closed over a hole that was still free in env")
	}
}

func TestWidthComputation(t *testing.T) {
	a := NewArena()
	tensor := NewTensor(NewAtomic(Int), NewAtomic(Cell), NewTuple(NewTensor(NewAtomic(Int), NewAtomic(Int))))
	if w := a.Width(tensor); w != 3 {
		t.Errorf("width = %d, want 3 (1 + 1 + 1 boxed tuple)", w)
	}
}

func TestWidthRangeWithUnboundHole(t *testing.T) {
	a := NewArena()
	h := a.NewHoleWidth(2, 4)
	tensor := NewTensor(NewAtomic(Int), h)
	lo, hi := a.WidthRange(tensor)
	if lo != 3 || hi != 5 {
		t.Errorf("range = [%d,%d], want [3,5]", lo, hi)
	}
}

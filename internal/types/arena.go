package types

import "github.com/tolklang/tolk/internal/config"

// infiniteWidth mirrors config.InfiniteWidth: the width upper bound used
// for a hole with no known ceiling.
const infiniteWidth = config.InfiniteWidth

// Arena owns every hole and rigid variable allocated during one
// compilation unit; nothing it hands out outlives the unit, and nodes
// may be shared freely within it.
type Arena struct {
	holes    []holeRec
	bindings map[int]Type // hole root id -> bound structural type
	vars     int          // next fresh rigid Var id
}

type holeRec struct {
	parent int // union-find parent; parent == self index means root
	rank   int
	minw   int
	maxw   int
}

func NewArena() *Arena {
	return &Arena{bindings: make(map[int]Type)}
}

// NewHole allocates a fresh hole with width range [0, InfiniteWidth].
func (a *Arena) NewHole() Type {
	return a.NewHoleWidth(0, infiniteWidth)
}

// NewHoleWidth allocates a fresh hole with an explicit width range.
func (a *Arena) NewHoleWidth(minw, maxw int) Type {
	id := len(a.holes)
	a.holes = append(a.holes, holeRec{parent: id, minw: minw, maxw: maxw})
	return Type{kind: kHole, id: id}
}

// NewVar allocates a fresh rigid type variable, introduced by a `forall`
// quantifier. Rigid variables never unify with structural forms.
func (a *Arena) NewVar() Type {
	id := a.vars
	a.vars++
	return Type{kind: kVar, id: id}
}

// find performs path-compressed lookup of a hole's representative root.
func (a *Arena) find(id int) int {
	root := id
	for a.holes[root].parent != root {
		root = a.holes[root].parent
	}
	// path compression
	for a.holes[id].parent != root {
		next := a.holes[id].parent
		a.holes[id].parent = root
		id = next
	}
	return root
}

// widthRange returns the current [min, max] width range of the hole
// rooted at id (after path compression).
func (a *Arena) widthRange(id int) (int, int) {
	root := a.find(id)
	return a.holes[root].minw, a.holes[root].maxw
}

// narrow intersects the hole's width range with [minw, maxw]; reports
// whether the resulting range is non-empty (minw <= maxw).
func (a *Arena) narrow(id, minw, maxw int) bool {
	root := a.find(id)
	h := &a.holes[root]
	if minw > h.minw {
		h.minw = minw
	}
	if maxw < h.maxw {
		h.maxw = maxw
	}
	return h.minw <= h.maxw
}

// union merges two hole roots, retargeting the younger (higher id) root
// to point at the elder. Width ranges are intersected on the surviving
// root. Returns false if the ranges are disjoint.
func (a *Arena) union(id1, id2 int) bool {
	r1, r2 := a.find(id1), a.find(id2)
	if r1 == r2 {
		return true
	}
	elder, younger := r1, r2
	if younger < elder {
		elder, younger = younger, elder
	}
	h1, h2 := &a.holes[elder], &a.holes[younger]
	minw, maxw := h1.minw, h1.maxw
	if h2.minw > minw {
		minw = h2.minw
	}
	if h2.maxw < maxw {
		maxw = h2.maxw
	}
	if minw > maxw {
		return false
	}
	h1.minw, h1.maxw = minw, maxw
	a.holes[younger].parent = elder
	if bound, ok := a.bindings[younger]; ok {
		delete(a.bindings, younger)
		a.bindings[elder] = bound
	}
	return true
}

// bind records that the hole rooted at id resolves to t, a structural
// (non-hole) type. Callers must have already run the occurs check.
func (a *Arena) bind(id int, t Type) {
	a.bindings[a.find(id)] = t
}

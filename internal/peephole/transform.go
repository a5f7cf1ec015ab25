// Package peephole implements component E: the windowed stack-transform
// optimizer that rewrites runs of AsmOps into shorter equivalent forms.
package peephole

import "github.com/tolklang/tolk/internal/codegen"

// maxAnomalies is the canonical-form bound on how many non-fixed-point
// positions a StackTransform may carry before it's too irregular to
// reason about cheaply; exceeding it disables matching for the window
// rather than growing the representation without bound.
const maxAnomalies = 16

// StackTransform is an almost-identity self-map of the infinite value
// stack: At[p] names which original depth's value now occupies final
// position p, for p < len(At); beyond that the map is the identity
// shifted by Shift, the net number of cells the stack grew (positive)
// or shrank (negative) so far. This is the abstract algebra apply_xchg/
// apply_push/apply_pop build up incrementally as a window of AsmOps is
// folded left to right.
type StackTransform struct {
	At      []int
	Shift   int
	Invalid bool
}

// Identity is the empty transform: every position maps to itself.
func Identity() StackTransform { return StackTransform{} }

func (t *StackTransform) ensureLen(n int) {
	for len(t.At) < n {
		t.At = append(t.At, len(t.At)-t.Shift)
	}
}

// at returns the original depth occupying current position p.
func (t *StackTransform) at(p int) int {
	if p < len(t.At) {
		return t.At[p]
	}
	return p - t.Shift
}

func (t *StackTransform) markInvalid() {
	n := 0
	for i, v := range t.At {
		if v != i {
			n++
		}
	}
	if n > maxAnomalies {
		t.Invalid = true
	}
}

// ApplyXchg folds an XCHG s(i),s(j) onto the transform.
func (t StackTransform) ApplyXchg(i, j int) StackTransform {
	n := i
	if j > n {
		n = j
	}
	t.ensureLen(n + 1)
	t.At[i], t.At[j] = t.At[j], t.At[i]
	t.markInvalid()
	return t
}

// ApplyPush folds a PUSH s(i) (duplicate position i to the top) onto
// the transform.
func (t StackTransform) ApplyPush(i int) StackTransform {
	t.ensureLen(i + 1)
	v := t.At[i]
	at := make([]int, 0, len(t.At)+1)
	at = append(at, v)
	at = append(at, t.At...)
	t.At = at
	t.Shift++
	t.markInvalid()
	return t
}

// ApplyPop folds a POP s(i) (remove position i) onto the transform.
func (t StackTransform) ApplyPop(i int) StackTransform {
	t.ensureLen(i + 1)
	at := make([]int, 0, len(t.At)-1)
	at = append(at, t.At[:i]...)
	at = append(at, t.At[i+1:]...)
	t.At = at
	t.Shift--
	t.markInvalid()
	return t
}

// FromOps folds a run of AsmOps into a single StackTransform. ok is
// false if the run contains anything other than XCHG/PUSH/POP — value-
// introducing or control ops (consts, calls, nested blocks) aren't
// representable in this monoid, so a window containing one simply
// isn't a candidate for peephole matching.
func FromOps(ops []codegen.AsmOp) (StackTransform, bool) {
	t := Identity()
	for _, op := range ops {
		switch op.Type {
		case codegen.AXchg:
			t = t.ApplyXchg(op.A, op.B)
		case codegen.APush:
			t = t.ApplyPush(op.A)
		case codegen.APop:
			t = t.ApplyPop(op.A)
		case codegen.ANone:
			// NOP from Xchg(i,i); contributes nothing.
		default:
			return t, false
		}
		if t.Invalid {
			return t, false
		}
	}
	return t, true
}

// length returns how many positions this transform explicitly tracks,
// including the window's shrink/grow so two transforms of different
// apparent At-lengths can still be compared over their shared extent.
func (t StackTransform) length() int {
	n := len(t.At)
	if -t.Shift > n {
		return -t.Shift
	}
	return n
}

// Equal requires both transforms to touch the same depth and agree at
// every position: the full, tail-sensitive notion of equality the
// optimizer's correctness requirement demands for a replacement.
func Equal(a, b StackTransform) bool {
	if a.Shift != b.Shift {
		return false
	}
	n := a.length()
	if bn := b.length(); bn > n {
		n = bn
	}
	for i := 0; i < n; i++ {
		if a.at(i) != b.at(i) {
			return false
		}
	}
	return true
}

// AlmostEqual relaxes Equal for tail-free comparisons: it only requires
// the anomalous (non-fixed-point) positions to agree, ignoring overall
// depth/shift differences introduced purely by trailing identity.
func AlmostEqual(a, b StackTransform) bool {
	n := a.length()
	if bn := b.length(); bn > n {
		n = bn
	}
	for i := 0; i < n; i++ {
		av, bv := a.at(i), b.at(i)
		if av == i && bv == i {
			continue
		}
		if av != bv {
			return false
		}
	}
	return true
}

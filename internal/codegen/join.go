package codegen

import "github.com/tolklang/tolk/internal/diagnostics"

// reconcileCost counts how many XCHGs ReconcileTo would need to turn
// cur into target, without emitting anything — used to pick the
// cheaper of two branches to patch at a merge point.
func reconcileCost(cur, target []int) int {
	working := append([]int(nil), cur...)
	cost := 0
	for i, want := range target {
		if working[i] == want {
			continue
		}
		j := indexOf(working[i:], want) + i
		working[i], working[j] = working[j], working[i]
		cost++
	}
	return cost
}

func indexOf(s []int, v int) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}

// ReconcileTo rewrites s's layout to exactly match target (which must
// contain the same set of variables as s's current layout) by emitting
// the minimum number of XCHGs, a selection-sort over positions.
func (s *Stack) ReconcileTo(target []int, loc diagnostics.Location) error {
	if len(target) != len(s.entries) {
		return diagnostics.NewError(diagnostics.ErrCodegenMalformedIR, loc,
			"ReconcileTo: target layout width does not match current stack depth")
	}
	for i, want := range target {
		if s.entries[i].varIdx == want {
			continue
		}
		j := s.find(want, i)
		if j < 0 {
			return diagnostics.NewError(diagnostics.ErrCodegenMalformedIR, loc,
				"ReconcileTo: target variable absent from current stack")
		}
		s.xchg(i, j)
	}
	return nil
}

// MergeAtJoin reconciles two branch-end stacks to a single common
// layout, patching whichever branch is cheaper to fix up, and returns
// the agreed layout. Both stacks must already carry the same set of
// variables; ReconcileTo returns an error otherwise.
func MergeAtJoin(a, b *Stack, locA, locB diagnostics.Location) ([]int, error) {
	layoutA, layoutB := a.Snapshot(), b.Snapshot()
	if equalLayout(layoutA, layoutB) {
		return layoutA, nil
	}
	if reconcileCost(layoutB, layoutA) <= reconcileCost(layoutA, layoutB) {
		if err := b.ReconcileTo(layoutA, locB); err != nil {
			return nil, err
		}
		return layoutA, nil
	}
	if err := a.ReconcileTo(layoutB, locA); err != nil {
		return nil, err
	}
	return layoutB, nil
}

func equalLayout(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

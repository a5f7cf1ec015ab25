package codegen

import (
	"github.com/tolklang/tolk/internal/config"
	"github.com/tolklang/tolk/internal/diagnostics"
)

// entry is one abstract stack slot: the virtual variable occupying it.
type entry struct {
	varIdx int
}

// Stack simulates the TVM value stack at compile time. entries[0] is
// always the physical top.
type Stack struct {
	entries []entry
	emit    func(AsmOp)
	loc     diagnostics.Location
}

// NewStack starts an empty simulated stack that reports every emitted
// AsmOp to emit, in program order.
func NewStack(emit func(AsmOp)) *Stack {
	return &Stack{emit: emit}
}

// Depth returns the current simulated stack depth.
func (s *Stack) Depth() int { return len(s.entries) }

// validate enforces the hard 255-depth ceiling; exceeding it is always
// a fatal compiler error, never a recoverable one.
func (s *Stack) validate(loc diagnostics.Location) error {
	if s.Depth() > config.MaxStackDepth {
		return diagnostics.NewFatal(diagnostics.ErrCodegenStackTooDeep, loc,
			"stack depth exceeds the 255-cell limit").Err
	}
	return nil
}

// pushVar pushes a fresh occurrence of varIdx onto the simulated top,
// emitting nothing (the caller is responsible for the actual PUSH/dup,
// typically via rearrange_top).
func (s *Stack) pushVar(varIdx int) {
	s.entries = append([]entry{{varIdx: varIdx}}, s.entries...)
}

// find returns the stack position (0 = top) of the first occurrence of
// varIdx at or after fromDepth, or -1 if not present.
func (s *Stack) find(varIdx, fromDepth int) int {
	for i := fromDepth; i < len(s.entries); i++ {
		if s.entries[i].varIdx == varIdx {
			return i
		}
	}
	return -1
}

func (s *Stack) swap(i, j int) {
	s.entries[i], s.entries[j] = s.entries[j], s.entries[i]
}

// xchg emits and applies XCHG s(i),s(j).
func (s *Stack) xchg(i, j int) {
	if i == j {
		return
	}
	s.emit(Xchg(i, j))
	s.swap(i, j)
}

// push emits and applies PUSH s(i): duplicate the variable at depth i
// onto the top.
func (s *Stack) push(i int) {
	s.emit(Push(i))
	e := s.entries[i]
	s.entries = append([]entry{e}, s.entries...)
}

// pop emits and applies POP s(i): drop the variable at depth i,
// consuming it.
func (s *Stack) pop(i int) {
	s.emit(Pop(i))
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
}

// RearrangeTop brings the variables in want (top to bottom: want[0]
// ends up on top) into that exact order, using the minimum XCHG/PUSH
// needed. consume[k] true means want[k]'s current slot may be consumed
// (moved) rather than copied; false means it must be preserved below
// the rearranged window because it is still live afterward.
//
// Strategy: process want from the bottom of the desired window upward
// (so earlier placements aren't disturbed by later ones), bringing each
// variable to its target depth with a single XCHG if it must be moved,
// or a PUSH if it must be copied. This is the minimum-instruction
// strategy for the common case where each wanted variable appears once
// in want; a variable needed in two positions (e.g. `x + x`) is first
// brought to the nearer target depth, then the second occurrence is
// satisfied with a PUSH of the now-settled copy.
func (s *Stack) RearrangeTop(want []int, consume []bool, loc diagnostics.Location) error {
	placed := make([]bool, len(want))
	for targetDepth := len(want) - 1; targetDepth >= 0; targetDepth-- {
		if placed[targetDepth] {
			continue
		}
		varIdx := want[targetDepth]

		// Locate the shallowest copy of this var, searching from the top.
		cur := s.find(varIdx, 0)
		if cur < 0 {
			return diagnostics.NewError(diagnostics.ErrCodegenMalformedIR, loc,
				"RearrangeTop: variable not found on simulated stack")
		}

		if cur == targetDepth {
			placed[targetDepth] = true
			continue
		}

		if consume[targetDepth] && !wantedElsewhereAbove(want, placed, varIdx, targetDepth) {
			s.xchg(cur, targetDepth)
		} else {
			s.push(cur)
			// Pushing shifts every existing depth down by one; targetDepth
			// referred to the pre-push stack, so after the push the value
			// just duplicated sits at depth 0 and must move to targetDepth.
			s.xchg(0, targetDepth)
		}
		placed[targetDepth] = true
		if err := s.validate(loc); err != nil {
			return err
		}
	}
	return nil
}

func wantedElsewhereAbove(want []int, placed []bool, varIdx, skip int) bool {
	for i, w := range want {
		if i != skip && w == varIdx && !placed[i] {
			return true
		}
	}
	return false
}

// DropDead emits a POP for every simulated slot, at any depth, whose
// variable is in dead (a set of variable indices no longer live),
// deepest-first so indices stay valid as slots vanish.
func (s *Stack) DropDead(dead map[int]bool) {
	for i := len(s.entries) - 1; i >= 0; i-- {
		if dead[s.entries[i].varIdx] {
			s.pop(i)
		}
	}
}

// Clone makes an independent copy of the simulated layout that reports
// its emitted ops through its own emit callback, used to generate two
// divergent branches (If/TryCatch arms, loop bodies) from one entry
// state.
func (s *Stack) Clone() *Stack {
	return &Stack{entries: append([]entry(nil), s.entries...), emit: s.emit, loc: s.loc}
}

// consumeTop removes the top n simulated slots without emitting
// anything, for instructions that consume their operands themselves
// (every built-in and call convention does).
func (s *Stack) consumeTop(n int) {
	s.entries = s.entries[n:]
}

// applyResult pushes freshly produced values onto the simulated top,
// deepest result first, matching the convention that the last entry in
// out ends up as the new physical top.
func (s *Stack) applyResult(out []int) {
	for i := len(out) - 1; i >= 0; i-- {
		s.entries = append([]entry{{varIdx: out[i]}}, s.entries...)
	}
}

// Snapshot returns the current variable-index layout, top first, for
// comparison at merge points.
func (s *Stack) Snapshot() []int {
	out := make([]int, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.varIdx
	}
	return out
}

// Reset replaces the simulated layout wholesale, used when entering a
// block whose entry layout was fixed by an earlier merge.
func (s *Stack) Reset(layout []int) {
	s.entries = make([]entry, len(layout))
	for i, v := range layout {
		s.entries[i] = entry{varIdx: v}
	}
}

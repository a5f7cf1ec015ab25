package peephole

import (
	"fmt"

	"github.com/tolklang/tolk/internal/codegen"
	"github.com/tolklang/tolk/internal/diagnostics"
)

// Config toggles the optimizer's behavior: Disabled turns rewriting off
// outright and MaxWindow bounds the window size. The optimizer adds no
// stack comments, and Config has no inline-mode setting.
type Config struct {
	MaxWindow int
	Disabled  bool
}

// DefaultConfig matches config.OptimizeDepth's N=20 window.
func DefaultConfig(maxWindow int) Config {
	return Config{MaxWindow: maxWindow}
}

// pattern recognizes one canonical shorter form. Match returns the
// replacement ops and true if t exactly matches the canonical shape;
// callers re-verify the replacement's own transform before trusting it.
type pattern struct {
	name  string
	match func(t StackTransform) ([]codegen.AsmOp, bool)
}

func literal(name string, want StackTransform, render func() []codegen.AsmOp) pattern {
	return pattern{name: name, match: func(t StackTransform) ([]codegen.AsmOp, bool) {
		if !Equal(t, want) {
			return nil, false
		}
		return render(), true
	}}
}

func custom(mnemonic string) codegen.AsmOp { return codegen.Custom(mnemonic) }

var patterns = []pattern{
	{name: "nop", match: func(t StackTransform) ([]codegen.AsmOp, bool) {
		if Equal(t, Identity()) {
			return nil, true
		}
		return nil, false
	}},
	literal("rot", StackTransform{At: []int{2, 0, 1}}, func() []codegen.AsmOp { return []codegen.AsmOp{custom("ROT")} }),
	literal("rotrev", StackTransform{At: []int{1, 2, 0}}, func() []codegen.AsmOp { return []codegen.AsmOp{custom("ROTREV")} }),
	literal("2dup", StackTransform{At: []int{0, 1, 0, 1}, Shift: 2}, func() []codegen.AsmOp { return []codegen.AsmOp{custom("2DUP")} }),
	literal("2over", StackTransform{At: []int{2, 3, 0, 1, 2, 3}, Shift: 2}, func() []codegen.AsmOp { return []codegen.AsmOp{custom("2OVER")} }),
	literal("nip", StackTransform{At: []int{0}, Shift: -1}, func() []codegen.AsmOp { return []codegen.AsmOp{custom("NIP")} }),
	literal("tuck", StackTransform{At: []int{0, 1, 0}, Shift: 1}, func() []codegen.AsmOp { return []codegen.AsmOp{custom("TUCK")} }),
	{name: "blkdrop", match: matchBlkDrop},
	{name: "blkswap", match: matchBlkSwap},
	{name: "reverse", match: matchReverse},
}

// matchBlkDrop recognizes "drop the top k cells, nothing else moves":
// At is empty (nothing below the dropped window survives reordered)
// and Shift is exactly -k. Generalizes 2DROP to any k.
func matchBlkDrop(t StackTransform) ([]codegen.AsmOp, bool) {
	if len(t.At) != 0 || t.Shift >= -1 {
		return nil, false
	}
	k := -t.Shift
	return []codegen.AsmOp{custom(fmt.Sprintf("BLKDROP %d", k))}, true
}

// matchBlkSwap recognizes exchanging two adjacent blocks of sizes a
// (top) and b (just below), with nothing else touched. Generalizes
// 2SWAP (a=b=2) to any block sizes.
func matchBlkSwap(t StackTransform) ([]codegen.AsmOp, bool) {
	n := len(t.At)
	if n < 2 || t.Shift != 0 {
		return nil, false
	}
	for a := 1; a < n; a++ {
		b := n - a
		ok := true
		for i := 0; i < a && ok; i++ {
			if t.At[i] != b+i {
				ok = false
			}
		}
		for i := 0; i < b && ok; i++ {
			if t.At[a+i] != i {
				ok = false
			}
		}
		if ok {
			return []codegen.AsmOp{custom(fmt.Sprintf("BLKSWAP %d,%d", a, b))}, true
		}
	}
	return nil, false
}

// matchReverse recognizes a full-window reversal with nothing else
// touched.
func matchReverse(t StackTransform) ([]codegen.AsmOp, bool) {
	n := len(t.At)
	if n < 2 || t.Shift != 0 {
		return nil, false
	}
	for i, v := range t.At {
		if v != n-1-i {
			return nil, false
		}
	}
	return []codegen.AsmOp{custom(fmt.Sprintf("REVERSE %d,0", n))}, true
}

func matchAny(t StackTransform) ([]codegen.AsmOp, bool) {
	for _, p := range patterns {
		if repl, ok := p.match(t); ok {
			return repl, true
		}
	}
	return nil, false
}

// Optimize rewrites ops in place per the sliding-window algorithm: for
// each position, try the largest window first, shrinking on failure;
// a match splices in the canonical replacement and rescans from the
// same position, otherwise the head op is committed and the window
// advances by one.
func Optimize(ops []codegen.AsmOp, cfg Config) []codegen.AsmOp {
	if cfg.Disabled || len(ops) < 2 {
		return ops
	}
	maxWindow := cfg.MaxWindow
	if maxWindow < 2 {
		return ops
	}

	i := 0
	for i < len(ops) {
		remaining := len(ops) - i
		maxP := remaining
		if maxP > maxWindow {
			maxP = maxWindow
		}
		matched := false
		for p := maxP; p >= 2; p-- {
			window := ops[i : i+p]
			t, ok := FromOps(window)
			if !ok || t.Invalid {
				continue
			}
			repl, found := matchAny(t)
			if !found || len(repl) >= p {
				continue
			}
			verifyReplacement(window, repl, t)
			next := make([]codegen.AsmOp, 0, len(ops)-p+len(repl))
			next = append(next, ops[:i]...)
			next = append(next, repl...)
			next = append(next, ops[i+p:]...)
			ops = next
			matched = true
			break
		}
		if !matched {
			i++
		}
	}
	return ops
}

// verifyReplacement re-checks the correctness requirement at the point
// of rewriting rather than trusting the pattern table: a custom-
// mnemonic replacement isn't itself built from XCHG/PUSH/POP, so there
// is nothing to re-derive its transform from here; recognized literal
// forms are hand-verified against their known shapes when the pattern
// table is written instead. This only guards against a pattern whose
// match function lies about matching window at all.
func verifyReplacement(window, repl []codegen.AsmOp, want StackTransform) {
	t, ok := FromOps(window)
	diagnostics.Assert(ok && Equal(t, want), diagnostics.Location{},
		"peephole: pattern match disagreed with its own window transform")
}

// Package codegen implements component D: the stack-machine code
// generator. It simulates the abstract value stack and emits the
// minimum XCHG/PUSH/POP/… needed to bring operands into position before
// each operation, merging divergent stacks at control-flow joins.
package codegen

import (
	"fmt"
	"strings"
)

// AsmType classifies an AsmOp by its canonical stack-manipulation shape,
// letting the peephole optimizer reason about operand positions without
// parsing rendered instruction text.
type AsmType int

const (
	ANone AsmType = iota
	AXchg
	APush
	APop
	AConst
	ACustom
	AMagic
)

// AsmOp is one target instruction, in the pre-render form codegen and
// the peephole optimizer operate on: canonical ops carry numeric
// operands rather than strings, so composing and comparing stack
// transforms never has to parse instruction text.
type AsmOp struct {
	Type AsmType

	A, B int // operand depths, meaning depends on Type

	Op     string // mnemonic, e.g. "ADD", "XCHG", "PUSH"; always set
	Indent int    // nesting depth, for pretty-printed stack comments

	Comment string // PROC label of a PROC wrapper; Render prints it for no other op

	// Then/Else hold nested instruction lists for control-flow AsmOps
	// (If/loop/TryCatch bodies and out-of-line PROC wrapping), rendered
	// as `IFELSE:<{ ... }>`, `WHILE:<{ ... }>`, `name PROC:<{ ... }>` and
	// similar blocks by renderMagic. Unused outside Type==AMagic.
	Then []AsmOp
	Else []AsmOp
}

// Xchg builds an XCHG s(i),s(j) op; (0,1) renders as the SWAP short form
// and any other pair with i==0 as XCHG s(j).
func Xchg(i, j int) AsmOp {
	if i > j {
		i, j = j, i
	}
	if i == j {
		return AsmOp{Type: ANone, Op: "NOP"}
	}
	return AsmOp{Type: AXchg, A: i, B: j, Op: fmt.Sprintf("XCHG s%d,s%d", i, j)}
}

// Push builds a PUSH s(i) op; i==0 renders as the DUP short form.
func Push(i int) AsmOp {
	return AsmOp{Type: APush, A: i, Op: fmt.Sprintf("PUSH s%d", i)}
}

// Pop builds a POP s(i) op; i==0 renders as the DROP short form.
func Pop(i int) AsmOp {
	return AsmOp{Type: APop, A: i, Op: fmt.Sprintf("POP s%d", i)}
}

// Const builds a small-integer push, e.g. PUSHINT 5.
func Const(v int) AsmOp {
	return AsmOp{Type: AConst, A: v, Op: fmt.Sprintf("PUSHINT %d", v)}
}

// Custom wraps a built-in-supplied instruction with arbitrary mnemonic
// text (e.g. "ADD", "CALLDICT foo").
func Custom(mnemonic string) AsmOp {
	return AsmOp{Type: ACustom, Op: mnemonic}
}

// Render returns the instruction's textual form, substituting the
// idiomatic short mnemonics (SWAP, DUP, DROP) for the i==0/adjacent
// cases, matching conventional TVM assembly style.
func (o AsmOp) Render() string {
	switch o.Type {
	case ANone:
		return ""
	case AXchg:
		if o.A == 0 && o.B == 1 {
			return "SWAP"
		}
		if o.A == 0 {
			return fmt.Sprintf("XCHG s%d", o.B)
		}
		return fmt.Sprintf("XCHG s%d,s%d", o.A, o.B)
	case APush:
		if o.A == 0 {
			return "DUP"
		}
		return fmt.Sprintf("PUSH s%d", o.A)
	case APop:
		if o.A == 0 {
			return "DROP"
		}
		return fmt.Sprintf("POP s%d", o.A)
	case AMagic:
		return o.renderMagic()
	default:
		return o.Op
	}
}

// renderMagic prints the nested-block control constructs (If/loop/
// TryCatch/out-of-line PROC wrapping) in conventional fift-asm form.
func (o AsmOp) renderMagic() string {
	var b strings.Builder
	switch o.Op {
	case "IFELSE":
		b.WriteString("IFELSE:<{\n")
		writeBlock(&b, o.Then)
		b.WriteString("}>ELSE<{\n")
		writeBlock(&b, o.Else)
		b.WriteString("}>")
	case "WHILE":
		b.WriteString("WHILE:<{\n")
		writeBlock(&b, o.Then)
		b.WriteString("}>")
	case "UNTIL":
		b.WriteString("UNTIL:<{\n")
		writeBlock(&b, o.Then)
		b.WriteString("}>")
	case "REPEAT":
		b.WriteString("REPEAT:<{\n")
		writeBlock(&b, o.Then)
		b.WriteString("}>")
	case "AGAIN":
		b.WriteString("AGAIN:<{\n")
		writeBlock(&b, o.Then)
		b.WriteString("}>")
	case "TRYCATCH":
		b.WriteString("TRY:<{\n")
		writeBlock(&b, o.Then)
		b.WriteString("}>CATCH<{\n")
		writeBlock(&b, o.Else)
		b.WriteString("}>")
	case "PROC":
		b.WriteString(o.Comment + " PROC:<{\n")
		writeBlock(&b, o.Then)
		b.WriteString("}>")
	default:
		b.WriteString(o.Op)
	}
	return b.String()
}

func writeBlock(b *strings.Builder, ops []AsmOp) {
	for _, op := range ops {
		b.WriteString(op.Render())
		b.WriteString("\n")
	}
}

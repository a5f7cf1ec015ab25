package pipeline

import (
	"strings"
	"testing"

	"github.com/tolklang/tolk/internal/diagnostics"
	"github.com/tolklang/tolk/internal/ir"
	"github.com/tolklang/tolk/internal/types"
)

func intT() types.Type { return types.NewAtomic(types.Int) }

func varExpr(idx int) *ir.Expr {
	return &ir.Expr{Cls: ir.ExprVar, VarIdx: idx, Type: intT()}
}

func TestStandardPipelineCompilesAdd(t *testing.T) {
	body := &ir.Expr{
		Cls:      ir.ExprApply,
		FuncName: "_+_",
		Children: []*ir.Expr{varExpr(0), varExpr(1)},
		Location: diagnostics.Location{Line: 1},
	}
	def := FuncDef{
		Name:       "add",
		Params:     []ParamDef{{Name: "x", Type: intT()}, {Name: "y", Type: intT()}},
		ResultType: intT(),
		Body:       body,
	}

	ctx := NewPipelineContext([]FuncDef{def})
	final := Standard().Run(ctx)

	if len(final.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", final.Errors)
	}
	if len(final.Results) != 1 {
		t.Fatalf("expected one result, got %d", len(final.Results))
	}
	text := final.Results[0].Text
	if !strings.Contains(text, "add PROC") {
		t.Errorf("expected the function wrapped in a named PROC, got:\n%s", text)
	}
	if !strings.Contains(text, "ADD") {
		t.Errorf("expected an ADD instruction, got:\n%s", text)
	}
}

func TestStandardPipelineReportsUndefinedCallee(t *testing.T) {
	body := &ir.Expr{
		Cls:      ir.ExprApply,
		FuncName: "doesNotExist",
		Location: diagnostics.Location{Line: 1},
	}
	def := FuncDef{Name: "broken", ResultType: intT(), Body: body}

	ctx := NewPipelineContext([]FuncDef{def})
	final := Standard().Run(ctx)

	if len(final.Errors) == 0 {
		t.Fatal("expected an undefined-callee error")
	}
	if final.Results[0].Code != nil {
		t.Error("lowering should not have run for a type-check failure")
	}
}

func TestStandardPipelineWiresGetMethodID(t *testing.T) {
	def := FuncDef{
		Name:       "getOwner",
		Params:     []ParamDef{{Name: "x", Type: intT()}},
		ResultType: intT(),
		Body:       varExpr(0),
		Flags:      ir.FlagGetMethod,
		MethodID:   85143,
	}

	ctx := NewPipelineContext([]FuncDef{def})
	final := Standard().Run(ctx)

	if len(final.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", final.Errors)
	}
	if !strings.Contains(final.Results[0].Text, "85143 PROC") {
		t.Errorf("expected the get-method ID as the PROC label, got:\n%s", final.Results[0].Text)
	}
}

package compileserver

import (
	"strings"
	"testing"

	"github.com/tolklang/tolk/internal/pipeline"
)

func TestToFuncDefBuildsAddFunction(t *testing.T) {
	wf := wireFunc{
		Name:       "add",
		Params:     []wireParam{{Name: "x", Type: "int"}, {Name: "y", Type: "int"}},
		ResultType: "int",
		Body: wireExpr{
			Kind:     "apply",
			FuncName: "_+_",
			Children: []wireExpr{
				{Kind: "var", VarIdx: 0, VarType: "int"},
				{Kind: "var", VarIdx: 1, VarType: "int"},
			},
		},
	}

	def, err := toFuncDef(wf)
	if err != nil {
		t.Fatalf("toFuncDef failed: %v", err)
	}
	if def.Name != "add" || len(def.Params) != 2 {
		t.Fatalf("unexpected FuncDef: %+v", def)
	}

	ctx := pipeline.NewPipelineContext([]pipeline.FuncDef{def})
	final := pipeline.Standard().Run(ctx)
	if len(final.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", final.Errors)
	}
	if !strings.Contains(final.Results[0].Text, "ADD") {
		t.Errorf("expected ADD in rendered output, got:\n%s", final.Results[0].Text)
	}
}

func TestToFuncDefRejectsUnknownType(t *testing.T) {
	wf := wireFunc{
		Name:       "bad",
		ResultType: "nonsense",
		Body:       wireExpr{Kind: "hole"},
	}
	if _, err := toFuncDef(wf); err == nil {
		t.Error("expected an error for an unknown wire type")
	}
}

func TestToFuncDefRejectsUnknownFlag(t *testing.T) {
	wf := wireFunc{
		Name:       "bad",
		ResultType: "int",
		Body:       wireExpr{Kind: "hole"},
		Flags:      []string{"not_a_real_flag"},
	}
	if _, err := toFuncDef(wf); err == nil {
		t.Error("expected an error for an unknown flag")
	}
}

func TestToFuncDefAcceptsTensorResultType(t *testing.T) {
	wf := wireFunc{
		Name:       "swap",
		Params:     []wireParam{{Name: "a", Type: "int"}, {Name: "b", Type: "int"}},
		ResultType: "(int,int)",
		Body: wireExpr{
			Kind: "tensor",
			Children: []wireExpr{
				{Kind: "var", VarIdx: 1, VarType: "int"},
				{Kind: "var", VarIdx: 0, VarType: "int"},
			},
		},
	}

	def, err := toFuncDef(wf)
	if err != nil {
		t.Fatalf("toFuncDef failed: %v", err)
	}

	ctx := pipeline.NewPipelineContext([]pipeline.FuncDef{def})
	final := pipeline.Standard().Run(ctx)
	if len(final.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", final.Errors)
	}
	if !strings.Contains(final.Results[0].Text, "SWAP") {
		t.Errorf("expected SWAP in rendered output, got:\n%s", final.Results[0].Text)
	}
}

func TestParseTypeRejectsUnbalancedParens(t *testing.T) {
	if _, err := parseType("(int,int"); err == nil {
		t.Error("expected an error for an unbalanced tensor type")
	}
}

func TestParseTypeAcceptsNestedTensor(t *testing.T) {
	typ, err := parseType("(int,(int,cell))")
	if err != nil {
		t.Fatalf("parseType failed: %v", err)
	}
	children, ok := typ.TensorChildren()
	if !ok || len(children) != 2 {
		t.Fatalf("expected 2 top-level children, got %v (ok=%v)", children, ok)
	}
	nested, ok := children[1].TensorChildren()
	if !ok || len(nested) != 2 {
		t.Errorf("expected the second child to itself be a 2-tuple, got %+v (ok=%v)", children[1], ok)
	}
}

func TestNewParsesEmbeddedProtoAndRegistersService(t *testing.T) {
	srv, err := New()
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if srv.sd.FindMethodByName("Compile") == nil {
		t.Error("expected a Compile method on the parsed service descriptor")
	}
	if srv.sd.FindMethodByName("ListBuiltins") == nil {
		t.Error("expected a ListBuiltins method on the parsed service descriptor")
	}
}

package compileserver

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tolklang/tolk/internal/diagnostics"
	"github.com/tolklang/tolk/internal/ir"
	"github.com/tolklang/tolk/internal/pipeline"
	"github.com/tolklang/tolk/internal/types"
)

// DecodeUnits parses a units_json wire payload into a forest of
// pipeline.FuncDef, skipping (and reporting) individually malformed
// functions rather than failing the whole batch - the same tolerant
// conversion CompileService's handleCompile performs for an RPC body,
// exported so pkg/cli can reuse it for file-based compilation instead
// of re-walking the wire schema itself.
func DecodeUnits(data []byte) ([]pipeline.FuncDef, []error) {
	var units wireUnits
	if err := json.Unmarshal(data, &units); err != nil {
		return nil, []error{fmt.Errorf("compileserver: malformed units json: %w", err)}
	}
	var defs []pipeline.FuncDef
	var errs []error
	for _, wf := range units.Funcs {
		def, err := toFuncDef(wf)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		defs = append(defs, def)
	}
	return defs, errs
}

// wireExpr is the JSON shape of an ir.Expr crossing the network, used in
// place of the AST a real lexer/parser would hand the core (out of
// scope for this compiler, per spec.md's Non-goals). It covers enough
// expression shapes to exercise every component; it is not a general
// source-language AST and carries no position/comment information
// beyond the line the caller supplies.
type wireExpr struct {
	Kind     string      `json:"kind"`
	VarIdx   int         `json:"var_idx,omitempty"`
	VarType  string      `json:"var_type,omitempty"`
	IntConst *int64      `json:"int_const,omitempty"`
	StrConst *string     `json:"str_const,omitempty"`
	FuncName string      `json:"func_name,omitempty"`
	Children []wireExpr  `json:"children,omitempty"`
	Line     int         `json:"line,omitempty"`
}

type wireParam struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type wireFunc struct {
	Name       string      `json:"name"`
	Params     []wireParam `json:"params"`
	ResultType string      `json:"result_type"`
	Body       wireExpr    `json:"body"`
	Flags      []string    `json:"flags,omitempty"`
	MethodID   uint32      `json:"method_id,omitempty"`
	ArgOrder   []int       `json:"arg_order,omitempty"`
	RetOrder   []int       `json:"ret_order,omitempty"`
}

type wireUnits struct {
	Funcs []wireFunc `json:"funcs"`
}

var atomicTypes = map[string]types.AtomicKind{
	"int":    types.Int,
	"cell":   types.Cell,
	"slice":  types.Slice,
	"builder": types.Builder,
	"cont":   types.Continuation,
	"tuple":  types.Tuple,
}

func parseAtomicType(name string) (types.Type, error) {
	k, ok := atomicTypes[name]
	if !ok {
		return types.Type{}, fmt.Errorf("compileserver: unknown wire type %q", name)
	}
	return types.NewAtomic(k), nil
}

// parseType accepts either an atomic type name or a tensor written as a
// parenthesized, comma-separated list of types, nesting freely, e.g.
// "(int,int)" or "(int,(int,int))" - enough surface to declare the
// multi-value parameter and result types a real source-language tuple
// literal or pattern would produce, without building a general type
// grammar the way a parser would.
func parseType(s string) (types.Type, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "(") {
		return parseAtomicType(s)
	}
	if !strings.HasSuffix(s, ")") {
		return types.Type{}, fmt.Errorf("compileserver: unbalanced parens in wire type %q", s)
	}
	inner := strings.TrimSpace(s[1 : len(s)-1])
	if inner == "" {
		return types.NewTensor(), nil
	}
	parts, err := splitTopLevelCommas(inner)
	if err != nil {
		return types.Type{}, fmt.Errorf("compileserver: wire type %q: %w", s, err)
	}
	children := make([]types.Type, len(parts))
	for i, part := range parts {
		t, err := parseType(part)
		if err != nil {
			return types.Type{}, err
		}
		children[i] = t
	}
	return types.NewTensor(children...), nil
}

// splitTopLevelCommas splits s on commas that are not nested inside a
// parenthesized sub-type.
func splitTopLevelCommas(s string) ([]string, error) {
	var parts []string
	depth := 0
	start := 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("unbalanced parens")
			}
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("unbalanced parens")
	}
	parts = append(parts, s[start:])
	return parts, nil
}

var wireFlags = map[string]ir.FuncFlags{
	"inline":            ir.FlagInline,
	"inline_ref":        ir.FlagInlineRef,
	"wraps_another_f":   ir.FlagWrapsAnotherF,
	"used_as_non_call":  ir.FlagUsedAsNonCall,
	"pure":              ir.FlagMarkedAsPure,
	"get_method":        ir.FlagGetMethod,
}

func toFuncDef(wf wireFunc) (pipeline.FuncDef, error) {
	resultType, err := parseType(wf.ResultType)
	if err != nil {
		return pipeline.FuncDef{}, err
	}
	params := make([]pipeline.ParamDef, len(wf.Params))
	for i, wp := range wf.Params {
		t, err := parseType(wp.Type)
		if err != nil {
			return pipeline.FuncDef{}, fmt.Errorf("func %s param %s: %w", wf.Name, wp.Name, err)
		}
		params[i] = pipeline.ParamDef{Name: wp.Name, Type: t}
	}
	body, err := toExpr(wf.Body)
	if err != nil {
		return pipeline.FuncDef{}, fmt.Errorf("func %s: %w", wf.Name, err)
	}

	var flags ir.FuncFlags
	for _, name := range wf.Flags {
		bit, ok := wireFlags[name]
		if !ok {
			return pipeline.FuncDef{}, fmt.Errorf("func %s: unknown flag %q", wf.Name, name)
		}
		flags |= bit
	}

	return pipeline.FuncDef{
		Name:       wf.Name,
		Params:     params,
		ResultType: resultType,
		Body:       body,
		Flags:      flags,
		MethodID:   wf.MethodID,
		ArgOrder:   wf.ArgOrder,
		RetOrder:   wf.RetOrder,
	}, nil
}

func toExpr(we wireExpr) (*ir.Expr, error) {
	loc := diagnostics.Location{Line: we.Line}
	switch we.Kind {
	case "const":
		return &ir.Expr{Cls: ir.ExprConst, IntConst: we.IntConst, Location: loc}, nil
	case "sliceconst":
		return &ir.Expr{Cls: ir.ExprSliceConst, StrConst: we.StrConst, Location: loc}, nil
	case "var":
		t, err := parseType(we.VarType)
		if err != nil {
			return nil, err
		}
		return &ir.Expr{Cls: ir.ExprVar, VarIdx: we.VarIdx, Type: t, Location: loc}, nil
	case "hole":
		return &ir.Expr{Cls: ir.ExprHole, Location: loc}, nil
	case "apply":
		children, err := toExprList(we.Children)
		if err != nil {
			return nil, err
		}
		return &ir.Expr{Cls: ir.ExprApply, FuncName: we.FuncName, Children: children, Location: loc}, nil
	case "tensor":
		children, err := toExprList(we.Children)
		if err != nil {
			return nil, err
		}
		return &ir.Expr{Cls: ir.ExprTensor, Children: children, Location: loc}, nil
	case "mktuple":
		children, err := toExprList(we.Children)
		if err != nil {
			return nil, err
		}
		return &ir.Expr{Cls: ir.ExprMkTuple, Children: children, Location: loc}, nil
	case "cond":
		if len(we.Children) != 3 {
			return nil, fmt.Errorf("compileserver: cond expects 3 children, got %d", len(we.Children))
		}
		children, err := toExprList(we.Children)
		if err != nil {
			return nil, err
		}
		return &ir.Expr{Cls: ir.ExprCondExpr, Children: children, Location: loc}, nil
	case "let":
		if len(we.Children) != 2 {
			return nil, fmt.Errorf("compileserver: let expects 2 children, got %d", len(we.Children))
		}
		children, err := toExprList(we.Children)
		if err != nil {
			return nil, err
		}
		return &ir.Expr{Cls: ir.ExprLetop, Children: children, Location: loc}, nil
	default:
		return nil, fmt.Errorf("compileserver: unknown wire expr kind %q", we.Kind)
	}
}

func toExprList(wes []wireExpr) ([]*ir.Expr, error) {
	out := make([]*ir.Expr, len(wes))
	for i, we := range wes {
		e, err := toExpr(we)
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

// Package pipeline orchestrates components A through E (internal/types,
// internal/ir, internal/analysis, internal/codegen, internal/peephole)
// over one compilation unit, the way the teacher's own
// internal/pipeline chains lexer/parser/analyzer Processors over one
// PipelineContext.
//
// The lexer and parser are explicitly out of scope for this core (they
// are the front end's job, named only as external collaborators); this
// package's input is therefore the forest of already-typed function
// bodies the front end would have produced, not source text. pkg/cli
// and internal/compileserver are responsible for getting a forest of
// FuncDefs from wherever their caller keeps one.
package pipeline

import (
	"github.com/google/uuid"

	"github.com/tolklang/tolk/internal/builtins"
	"github.com/tolklang/tolk/internal/codegen"
	"github.com/tolklang/tolk/internal/config"
	"github.com/tolklang/tolk/internal/diagnostics"
	"github.com/tolklang/tolk/internal/ir"
	"github.com/tolklang/tolk/internal/types"
)

// ParamDef is one declared function parameter.
type ParamDef struct {
	Name string
	Type types.Type
}

// FuncDef is one function definition as the front end would hand it to
// the core: a name, signature, flags/calling-convention hints, and an
// untyped-but-shaped Expr body for DeduceType to walk.
type FuncDef struct {
	Name       string
	Params     []ParamDef
	ResultType types.Type
	Body       *ir.Expr

	Flags    ir.FuncFlags
	MethodID uint32
	ArgOrder []int
	RetOrder []int
}

// UnitResult accumulates one function's progress through the pipeline,
// filled in by successive Processors.
type UnitResult struct {
	Def    FuncDef
	Sym    *ir.FuncSymbol
	Code   *ir.CodeBlob
	Asm    []codegen.AsmOp
	Text   string
	Failed bool
}

// PipelineContext is the value threaded through every Processor, mirroring
// the teacher's PipelineContext shape (a mutable bag of stage results plus
// an accumulating Errors list) adapted from "parsed AST" to "typed IR".
type PipelineContext struct {
	FilePath string
	UnitID   uuid.UUID

	Arena    *types.Arena
	Registry *builtins.Registry
	Symbols  *ir.SymbolTable
	Resolver ir.CalleeResolver
	Pragmas  *config.PragmaSet

	Funcs   []FuncDef
	Results []*UnitResult

	Errors []*diagnostics.DiagnosticError
}

// NewPipelineContext seeds a context from a forest of function
// definitions, wiring the built-in registry and a fresh symbol table
// into a ChainResolver so DeduceType can bind calls to either.
func NewPipelineContext(funcs []FuncDef) *PipelineContext {
	registry := builtins.Std()
	symbols := ir.NewSymbolTable()
	ctx := &PipelineContext{
		UnitID:   uuid.New(),
		Arena:    types.NewArena(),
		Registry: registry,
		Symbols:  symbols,
		Resolver: ir.ChainResolver{registry, symbols},
		Pragmas:  config.NewPragmaSet(),
		Funcs:    funcs,
	}
	for _, def := range funcs {
		paramTypes := make([]types.Type, len(def.Params))
		for i, p := range def.Params {
			paramTypes[i] = p.Type
		}
		sym := &ir.FuncSymbol{
			Name:       def.Name,
			Flags:      def.Flags,
			ParamTypes: paramTypes,
			ResultType: def.ResultType,
			MethodID:   def.MethodID,
			ArgOrder:   def.ArgOrder,
			RetOrder:   def.RetOrder,
		}
		symbols.Declare(sym)
		ctx.Results = append(ctx.Results, &UnitResult{Def: def, Sym: sym})
	}
	return ctx
}

func (c *PipelineContext) fail(err *diagnostics.DiagnosticError) {
	c.Errors = append(c.Errors, err)
}

// Processor is one pipeline stage.
type Processor interface {
	Process(ctx *PipelineContext) *PipelineContext
}

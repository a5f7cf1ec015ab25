package pipeline

import (
	"github.com/tolklang/tolk/internal/analysis"
	"github.com/tolklang/tolk/internal/codegen"
	"github.com/tolklang/tolk/internal/config"
	"github.com/tolklang/tolk/internal/diagnostics"
	"github.com/tolklang/tolk/internal/ir"
	"github.com/tolklang/tolk/internal/peephole"
)

func asDiag(err error) *diagnostics.DiagnosticError {
	if d, ok := err.(*diagnostics.DiagnosticError); ok {
		return d
	}
	if f, ok := err.(*diagnostics.Fatal); ok {
		return f.Err
	}
	return diagnostics.NewError(diagnostics.ErrInternal, diagnostics.Location{}, err.Error())
}

// TypeCheckProcessor runs component A (DeduceType) over every function
// body, unifying it against its declared result type.
type TypeCheckProcessor struct{}

func (p *TypeCheckProcessor) Process(ctx *PipelineContext) *PipelineContext {
	for _, r := range ctx.Results {
		if r.Def.Body == nil {
			continue
		}
		if err := ir.DeduceType(ctx.Arena, ctx.Resolver, r.Def.Body, r.Def.ResultType); err != nil {
			ctx.fail(asDiag(err))
			r.Failed = true
		}
	}
	return ctx
}

// LowerProcessor runs component B (PreCompile) over every successfully
// type-checked function body, building its CodeBlob and declaring its
// input parameters.
type LowerProcessor struct{}

func (p *LowerProcessor) Process(ctx *PipelineContext) *PipelineContext {
	for _, r := range ctx.Results {
		if r.Def.Body == nil || r.Failed {
			continue
		}
		code := ir.NewCodeBlob(r.Def.Name, r.Def.Body.Location, r.Def.ResultType)
		for _, param := range r.Def.Params {
			code.NewVar(param.Type, ir.In, param.Name, r.Def.Body.Location)
		}

		var lvalGlobs []ir.LvalGlob
		result, err := ir.PreCompile(ctx.Arena, code, r.Def.Body, &lvalGlobs)
		if err != nil {
			ctx.fail(asDiag(err))
			r.Failed = true
			continue
		}
		code.Emit(&ir.Op{Kind: ir.Return, Right: result, Location: r.Def.Body.Location})
		code.Close(r.Def.Body.Location)
		r.Code = code
		r.Sym.Body = code
	}
	return ctx
}

// AnalysisProcessor runs component C's analyses in the order the spec
// pipeline table lists them: simplifying var types, splitting wide
// tensors, pruning unreachable code, computing liveness, propagating
// value-descriptor facts, then marking no-return last. Pruning runs
// before the dedicated no-return pass and so cannot see its propagated
// flags yet; it consults the same NoReturnCallee resolver directly for
// immediate calls instead, catching the common case, while the later
// no-return pass catches what that implies transitively (see
// DESIGN.md).
type AnalysisProcessor struct{}

func (p *AnalysisProcessor) Process(ctx *PipelineContext) *PipelineContext {
	for _, r := range ctx.Results {
		if r.Code == nil {
			continue
		}
		analysis.SimplifyVarTypes(ctx.Arena, r.Code)
		analysis.SplitVars(ctx.Arena, r.Code)
		analysis.PruneUnreachable(r.Code, ctx.Registry.NoReturn)
		analysis.Liveness(r.Code)
		analysis.PropagateValueDescr(r.Code, ctx.Registry.Transfer)
		analysis.MarkNoReturn(r.Code, ctx.Registry.NoReturn)
	}
	return ctx
}

// CodegenProcessor runs component D, wrapping each function as a named
// (or get-method-numbered) PROC.
type CodegenProcessor struct{}

func (p *CodegenProcessor) Process(ctx *PipelineContext) *PipelineContext {
	gen := codegen.NewGenerator(ctx.Registry).WithFuncs(ctx.Symbols)
	for _, r := range ctx.Results {
		if r.Code == nil {
			continue
		}
		asm, err := gen.GenerateFunc(r.Sym, r.Code)
		if err != nil {
			ctx.fail(asDiag(err))
			continue
		}
		r.Asm = asm
	}
	return ctx
}

// PeepholeProcessor runs component E over each function's flat
// instruction list. config.OptLevel == 0 disables it, matching how the
// spec's opt_level knob gates the whole stage.
type PeepholeProcessor struct{}

func (p *PeepholeProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if config.OptLevel == 0 {
		return ctx
	}
	cfg := peephole.DefaultConfig(config.OptimizeDepth)
	for _, r := range ctx.Results {
		if r.Asm == nil {
			continue
		}
		r.Asm = optimizeTree(r.Asm, cfg)
	}
	return ctx
}

// optimizeTree runs the windowed optimizer over a flat op list and
// recurses into AMagic nested blocks, since a loop or branch body is
// its own independent stack-transform window.
func optimizeTree(ops []codegen.AsmOp, cfg peephole.Config) []codegen.AsmOp {
	for i := range ops {
		if ops[i].Type == codegen.AMagic {
			ops[i].Then = optimizeTree(ops[i].Then, cfg)
			ops[i].Else = optimizeTree(ops[i].Else, cfg)
		}
	}
	return peephole.Optimize(ops, cfg)
}

// RenderProcessor renders every function's final op list to fift-asm
// text, stored per function in its Text; no banner is added.
type RenderProcessor struct{}

func (p *RenderProcessor) Process(ctx *PipelineContext) *PipelineContext {
	for _, r := range ctx.Results {
		if r.Asm == nil {
			continue
		}
		r.Text = renderOps(r.Asm)
	}
	return ctx
}

func renderOps(ops []codegen.AsmOp) string {
	var out string
	for _, op := range ops {
		out += op.Render() + "\n"
	}
	return out
}

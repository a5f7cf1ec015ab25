package pipeline

// Pipeline is a fixed sequence of Processors run in order over one
// PipelineContext, same shape as the teacher's internal/pipeline.
type Pipeline struct {
	processors []Processor
}

// New builds a Pipeline from its stages, in execution order.
func New(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Run executes every stage in order, continuing past a stage that adds
// errors so later stages can still surface their own diagnostics (e.g.
// internal/compileserver wants every function's errors in one response,
// not just the first one encountered).
func (p *Pipeline) Run(initialCtx *PipelineContext) *PipelineContext {
	ctx := initialCtx
	for _, processor := range p.processors {
		ctx = processor.Process(ctx)
	}
	return ctx
}

// Standard returns the full A through E pipeline, the one pkg/cli and
// internal/compileserver both drive.
func Standard() *Pipeline {
	return New(
		&TypeCheckProcessor{},
		&LowerProcessor{},
		&AnalysisProcessor{},
		&CodegenProcessor{},
		&PeepholeProcessor{},
		&RenderProcessor{},
	)
}

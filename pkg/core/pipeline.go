package core

import (
	"context"
	"errors"
)

// Pipeline is a named, ordered module chain. It is immutable once built.
//
// Running a pipeline feeds the output of module i to module i+1. Module
// i+1 never starts before module i has returned for the whole batch.
type Pipeline struct {
	name    string
	modules []Module
}

// NewPipeline builds a pipeline. The module slice is copied.
func NewPipeline(name string, modules ...Module) *Pipeline {
	return &Pipeline{
		name:    name,
		modules: append([]Module(nil), modules...),
	}
}

// Name implements Named.
func (p *Pipeline) Name() string { return p.name }

// Children implements Composite.
func (p *Pipeline) Children() []Module {
	return append([]Module(nil), p.modules...)
}

// Len returns the number of modules in the chain.
func (p *Pipeline) Len() int { return len(p.modules) }

// Validate checks the whole chain, recursing into composite modules.
func (p *Pipeline) Validate() error {
	return ValidateChain(p.name, p.modules)
}

// Run validates the chain and executes it over inputs in a new run.
// cfg.Pipeline is overridden with the pipeline's name.
func (p *Pipeline) Run(ctx context.Context, cfg RunConfig, inputs []Document) ([]Document, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	cfg.Pipeline = p.name
	ec := NewExecutionContext(ctx, cfg)
	ec.Logger().Debug("pipeline started", "pipeline", p.name, "modules", len(p.modules), "documents", len(inputs))
	out, err := runChain(ec, p.modules, inputs)
	if err != nil {
		return nil, err
	}
	ec.Logger().Debug("pipeline finished", "pipeline", p.name, "documents", len(out))
	return out, nil
}

// Execute lets a pipeline be nested inside another chain. The chain is
// validated as in Run.
func (p *Pipeline) Execute(ec *ExecutionContext, inputs []Document) ([]Document, error) {
	nested := ec.nested(p.name)
	if err := ValidateChain(nested.pipeline, p.modules); err != nil {
		return nil, err
	}
	return runChain(nested, p.modules, inputs)
}

// runChain executes modules in order. A ConfigError passes through as is;
// any other error is wrapped in a ModuleError naming the failing module.
func runChain(ec *ExecutionContext, modules []Module, inputs []Document) ([]Document, error) {
	docs := append([]Document(nil), inputs...)
	for i, m := range modules {
		if err := ec.ctx.Err(); err != nil {
			return nil, err
		}
		if m == nil {
			return nil, &ConfigError{Pipeline: ec.pipeline, Module: ModuleName(m), Err: ErrNilModule}
		}

		name := ModuleName(m)
		out, err := m.Execute(ec, docs)
		if err != nil {
			if IsConfigError(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			return nil, &ModuleError{Pipeline: ec.pipeline, Module: name, Index: i, Err: err}
		}

		ec.logger.Debug("module executed",
			"pipeline", ec.pipeline,
			"module", name,
			"index", i,
			"in", len(docs),
			"out", len(out),
		)
		docs = out
	}
	return docs, nil
}

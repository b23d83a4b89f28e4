package core

import (
	"context"
	"io"
	"log/slog"
)

// RunConfig is the run-wide configuration an ExecutionContext is built from.
type RunConfig struct {
	// Pipeline names the chain being executed. Used in errors and logs.
	Pipeline string
	// Settings is the read-only configuration store shared by every module.
	Settings Metadata
	// Logger receives diagnostics. Nil discards them.
	Logger *slog.Logger
	// Outputs exposes documents produced by earlier pipelines of the same run.
	Outputs map[string][]Document
}

// ExecutionContext is created once per pipeline run and handed unchanged to
// every module of that run. Modules only read from it; the one capability
// it grants is Execute, which starts an independent nested run.
type ExecutionContext struct {
	ctx      context.Context
	pipeline string
	settings Metadata
	logger   *slog.Logger
	outputs  map[string][]Document
}

// NewExecutionContext builds a context for one pipeline run.
func NewExecutionContext(ctx context.Context, cfg RunConfig) *ExecutionContext {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &ExecutionContext{
		ctx:      ctx,
		pipeline: cfg.Pipeline,
		settings: cfg.Settings,
		logger:   logger,
		outputs:  cfg.Outputs,
	}
}

// Context returns the Go context of the run, for modules that do I/O.
func (ec *ExecutionContext) Context() context.Context { return ec.ctx }

// Pipeline returns the name of the running chain.
func (ec *ExecutionContext) Pipeline() string { return ec.pipeline }

// Settings returns the run-wide configuration.
func (ec *ExecutionContext) Settings() Metadata { return ec.settings }

// Logger returns the run logger. Never nil.
func (ec *ExecutionContext) Logger() *slog.Logger { return ec.logger }

// Outputs returns a copy of the documents a completed pipeline produced
// earlier in the same run.
func (ec *ExecutionContext) Outputs(pipeline string) ([]Document, bool) {
	docs, ok := ec.outputs[pipeline]
	if !ok {
		return nil, false
	}
	return append([]Document(nil), docs...), true
}

// Execute runs modules as a fresh nested chain over inputs and returns its
// result. The nested run gets its own ExecutionContext; it shares settings
// and logger with the caller and nothing mutable. The chain is validated
// first and a misconfiguration comes back as a *ConfigError.
func (ec *ExecutionContext) Execute(modules []Module, inputs []Document) ([]Document, error) {
	nested := ec.nested("nested")
	if err := ValidateChain(nested.pipeline, modules); err != nil {
		return nil, err
	}
	return runChain(nested, modules, inputs)
}

func (ec *ExecutionContext) nested(name string) *ExecutionContext {
	return &ExecutionContext{
		ctx:      ec.ctx,
		pipeline: ec.pipeline + "/" + name,
		settings: ec.settings,
		logger:   ec.logger,
		outputs:  ec.outputs,
	}
}

// ConcurrencyKey is the setting modules consult for their default number of
// concurrent workers.
const ConcurrencyKey = "concurrency"

package platform

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/tilth/pkg/core"
)

// Engine owns a set of named pipelines and runs them in registration order.
// Documents produced by a finished pipeline are visible to the ones after it
// through ExecutionContext.Outputs.
type Engine struct {
	logger   *slog.Logger
	settings core.Metadata

	mu        sync.RWMutex
	pipelines []*core.Pipeline
	outputs   map[string][]core.Document
}

// New creates an Engine.
//
//	engine := platform.New(platform.WithInputDir("content"), platform.WithLogger(logger))
func New(opts ...Option) *Engine {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	logger := o.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Engine{
		logger:   logger,
		settings: core.NewMetadata(o.settings),
		outputs:  make(map[string][]core.Document),
	}
}

// Settings returns the run-wide settings store.
func (e *Engine) Settings() core.Metadata { return e.settings }

// AddPipeline registers a pipeline. The chain is validated immediately so a
// misconfigured module is reported before anything runs.
func (e *Engine) AddPipeline(name string, modules ...core.Module) (*core.Pipeline, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, p := range e.pipelines {
		if p.Name() == name {
			return nil, &core.ConfigError{Pipeline: name, Err: core.ErrDuplicatePipeline}
		}
	}

	p := core.NewPipeline(name, modules...)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	e.pipelines = append(e.pipelines, p)
	return p, nil
}

// Pipelines returns the registered pipelines in execution order.
func (e *Engine) Pipelines() []*core.Pipeline {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]*core.Pipeline(nil), e.pipelines...)
}

// Run executes every pipeline, each starting from an empty collection.
func (e *Engine) Run(ctx context.Context) error {
	return e.RunWith(ctx, nil)
}

// RunWith executes every pipeline, seeding the first one with inputs.
// Outputs of a previous run are discarded first. The run stops at the first
// pipeline that fails.
func (e *Engine) RunWith(ctx context.Context, inputs []core.Document) error {
	pipelines := e.Pipelines()
	if len(pipelines) == 0 {
		return &core.ConfigError{Err: core.ErrNoPipelines}
	}

	e.mu.Lock()
	e.outputs = make(map[string][]core.Document, len(pipelines))
	e.mu.Unlock()

	start := time.Now()
	for i, p := range pipelines {
		var seed []core.Document
		if i == 0 {
			seed = inputs
		}

		out, err := p.Run(ctx, core.RunConfig{
			Settings: e.settings,
			Logger:   e.logger,
			Outputs:  e.snapshot(),
		}, seed)
		if err != nil {
			e.logger.Error("pipeline failed", "pipeline", p.Name(), "error", err)
			return err
		}

		e.mu.Lock()
		e.outputs[p.Name()] = out
		e.mu.Unlock()
		e.logger.Info("pipeline finished", "pipeline", p.Name(), "documents", len(out))
	}

	e.logger.Info("run complete", "pipelines", len(pipelines), "duration", time.Since(start))
	return nil
}

// Outputs returns the documents a pipeline produced in the last run.
func (e *Engine) Outputs(name string) ([]core.Document, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	docs, ok := e.outputs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownPipeline, name)
	}
	return append([]core.Document(nil), docs...), nil
}

// snapshot copies the outputs map so pipelines see a stable view.
func (e *Engine) snapshot() map[string][]core.Document {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make(map[string][]core.Document, len(e.outputs))
	for k, v := range e.outputs {
		out[k] = v
	}
	return out
}

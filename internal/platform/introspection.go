package platform

import (
	"github.com/aretw0/introspection"

	"github.com/aretw0/tilth/pkg/core"
)

// EngineState is the observable snapshot of an Engine.
type EngineState struct {
	Settings  map[string]any       `json:"settings"`
	Pipelines []core.PipelineState `json:"pipelines"`
	Outputs   map[string]int       `json:"outputs"`
}

// State implements introspection.Introspectable. Outputs holds the document
// count of every pipeline finished in the last run.
func (e *Engine) State() any {
	pipelines := e.Pipelines()
	st := EngineState{
		Settings:  e.settings.ToMap(),
		Pipelines: make([]core.PipelineState, 0, len(pipelines)),
		Outputs:   make(map[string]int),
	}
	for _, p := range pipelines {
		st.Pipelines = append(st.Pipelines, p.State().(core.PipelineState))
	}
	for name, docs := range e.snapshot() {
		st.Outputs[name] = len(docs)
	}
	return st
}

// ComponentType implements introspection.Component.
func (e *Engine) ComponentType() string {
	return "engine"
}

var _ introspection.Introspectable = (*Engine)(nil)
var _ introspection.Component = (*Engine)(nil)

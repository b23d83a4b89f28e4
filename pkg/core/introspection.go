package core

import (
	"github.com/aretw0/introspection"
)

// PipelineState exposes the shape of a pipeline for observability.
type PipelineState struct {
	Name    string        `json:"name"`
	Modules []ModuleState `json:"modules"`
}

// ModuleState describes one module of a chain. Composite modules list
// their nested chain under Children.
type ModuleState struct {
	Name     string        `json:"name"`
	Children []ModuleState `json:"children,omitempty"`
}

// State implements introspection.Introspectable.
func (p *Pipeline) State() any {
	return PipelineState{
		Name:    p.name,
		Modules: describeChain(p.modules),
	}
}

// ComponentType implements introspection.Component.
func (p *Pipeline) ComponentType() string {
	return "pipeline"
}

var _ introspection.Introspectable = (*Pipeline)(nil)
var _ introspection.Component = (*Pipeline)(nil)

func describeChain(modules []Module) []ModuleState {
	out := make([]ModuleState, 0, len(modules))
	for _, m := range modules {
		st := ModuleState{Name: ModuleName(m)}
		if c, ok := m.(Composite); ok {
			st.Children = describeChain(c.Children())
		}
		out = append(out, st)
	}
	return out
}

package modules

import (
	"github.com/aretw0/tilth/pkg/core"
)

// BranchModule runs a nested chain over its inputs and discards the result.
// Useful for side effects such as writing intermediate files. The inputs are
// returned unchanged.
type BranchModule struct {
	modules []core.Module
}

// Branch creates a BranchModule.
func Branch(modules ...core.Module) *BranchModule {
	return &BranchModule{modules: modules}
}

// Name implements core.Named.
func (m *BranchModule) Name() string { return "branch" }

// Children implements core.Composite.
func (m *BranchModule) Children() []core.Module {
	return append([]core.Module(nil), m.modules...)
}

// Validate implements core.Validator.
func (m *BranchModule) Validate() error {
	if len(m.modules) == 0 {
		return core.ErrEmptyChain
	}
	return nil
}

// Execute implements core.Module.
func (m *BranchModule) Execute(ec *core.ExecutionContext, inputs []core.Document) ([]core.Document, error) {
	if _, err := ec.Execute(m.modules, inputs); err != nil {
		return nil, err
	}
	return inputs, nil
}

// ConcatModule runs a nested chain over an empty collection and appends
// what it produces to the inputs.
type ConcatModule struct {
	modules []core.Module
}

// Concat creates a ConcatModule.
func Concat(modules ...core.Module) *ConcatModule {
	return &ConcatModule{modules: modules}
}

// Name implements core.Named.
func (m *ConcatModule) Name() string { return "concat" }

// Children implements core.Composite.
func (m *ConcatModule) Children() []core.Module {
	return append([]core.Module(nil), m.modules...)
}

// Validate implements core.Validator.
func (m *ConcatModule) Validate() error {
	if len(m.modules) == 0 {
		return core.ErrEmptyChain
	}
	return nil
}

// Execute implements core.Module.
func (m *ConcatModule) Execute(ec *core.ExecutionContext, inputs []core.Document) ([]core.Document, error) {
	extra, err := ec.Execute(m.modules, nil)
	if err != nil {
		return nil, err
	}
	out := make([]core.Document, 0, len(inputs)+len(extra))
	out = append(out, inputs...)
	return append(out, extra...), nil
}

package core

import (
	"fmt"
	"reflect"
	"strings"
)

// Module is a transformation stage.
//
// Execute receives the current ordered collection and returns a new one.
// Implementations must not alter their inputs (Documents are values, so
// this holds unless a module smuggles state through its own fields), may
// drop, pass through or fan out documents, and must keep the relative
// order of what they emit.
//
// A malformed document should be passed through or dropped rather than
// failing the batch. Returning an error aborts the whole run.
type Module interface {
	Execute(ec *ExecutionContext, inputs []Document) ([]Document, error)
}

// ModuleFunc adapts a plain function to the Module interface.
type ModuleFunc func(ec *ExecutionContext, inputs []Document) ([]Document, error)

// Execute implements Module.
func (f ModuleFunc) Execute(ec *ExecutionContext, inputs []Document) ([]Document, error) {
	return f(ec, inputs)
}

// Named is implemented by modules that want a readable name in errors and logs.
type Named interface {
	Name() string
}

// Validator is implemented by modules that can check their own configuration
// before a run starts. A non-nil error is reported as a ConfigError.
type Validator interface {
	Validate() error
}

// Composite is implemented by modules that own a nested chain.
// Validation recurses into Children.
type Composite interface {
	Children() []Module
}

// ModuleName returns a display name for m.
func ModuleName(m Module) string {
	if m == nil {
		return "<nil>"
	}
	if n, ok := m.(Named); ok && n.Name() != "" {
		return n.Name()
	}
	t := reflect.TypeOf(m)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	name := t.Name()
	if name == "" {
		name = t.String()
	}
	return strings.ToLower(name[:1]) + name[1:]
}

// ValidateChain checks every module of a chain, recursing into composites.
// The first problem found is returned as a *ConfigError.
func ValidateChain(pipeline string, modules []Module) error {
	if len(modules) == 0 {
		return &ConfigError{Pipeline: pipeline, Err: ErrEmptyChain}
	}
	for i, m := range modules {
		if m == nil {
			return &ConfigError{Pipeline: pipeline, Module: fmt.Sprintf("#%d", i), Err: ErrNilModule}
		}
		if c, ok := m.(Composite); ok {
			if err := ValidateChain(pipeline+"/"+ModuleName(m), c.Children()); err != nil {
				return err
			}
		}
		if v, ok := m.(Validator); ok {
			if err := v.Validate(); err != nil {
				if IsConfigError(err) {
					return err
				}
				return &ConfigError{Pipeline: pipeline, Module: ModuleName(m), Err: err}
			}
		}
	}
	return nil
}

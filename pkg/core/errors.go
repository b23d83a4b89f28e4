package core

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrEmptyChain        = errors.New("module chain is empty")
	ErrNilModule         = errors.New("module is nil")
	ErrInvalidDelimiter  = errors.New("invalid front matter delimiter")
	ErrUnknownPipeline   = errors.New("unknown pipeline")
	ErrDuplicatePipeline = errors.New("pipeline already registered")
	ErrNoPipelines       = errors.New("no pipelines registered")
)

// ConfigError reports a structural problem with a module or pipeline
// definition. It is fatal: the owning run aborts and nothing is retried.
type ConfigError struct {
	Pipeline string
	Module   string
	Err      error
}

func (e *ConfigError) Error() string {
	switch {
	case e.Pipeline != "" && e.Module != "":
		return fmt.Sprintf("pipeline %q: module %s: invalid configuration: %v", e.Pipeline, e.Module, e.Err)
	case e.Module != "":
		return fmt.Sprintf("module %s: invalid configuration: %v", e.Module, e.Err)
	case e.Pipeline != "":
		return fmt.Sprintf("pipeline %q: invalid configuration: %v", e.Pipeline, e.Err)
	default:
		return fmt.Sprintf("invalid configuration: %v", e.Err)
	}
}

func (e *ConfigError) Unwrap() error { return e.Err }

// ModuleError wraps any other error a module returned while executing.
// Index is the module's position in its chain.
type ModuleError struct {
	Pipeline string
	Module   string
	Index    int
	Err      error
}

func (e *ModuleError) Error() string {
	return fmt.Sprintf("pipeline %q: module #%d (%s) failed: %v", e.Pipeline, e.Index, e.Module, e.Err)
}

func (e *ModuleError) Unwrap() error { return e.Err }

// IsConfigError reports whether err (or anything it wraps) is a ConfigError.
func IsConfigError(err error) bool {
	var cfg *ConfigError
	return errors.As(err, &cfg)
}

// Package modules provides the stock transformation stages of tilth:
// per-document functions, metadata helpers, composites that host nested
// chains (FrontMatter, Branch, Concat) and content parsers (YAML, JSON,
// CSV, Markdown).
package modules

import (
	"golang.org/x/sync/errgroup"

	"github.com/aretw0/tilth/pkg/core"
)

// DocumentFunc transforms one document into zero, one or many documents.
type DocumentFunc func(ec *core.ExecutionContext, doc core.Document) ([]core.Document, error)

// ExecuteModule applies a DocumentFunc to every input.
type ExecuteModule struct {
	fn          DocumentFunc
	concurrency int
}

// Execute wraps fn as a module. Outputs keep the input order. Unless
// WithConcurrency is used, the concurrency setting of the run applies.
func Execute(fn DocumentFunc) *ExecuteModule {
	return &ExecuteModule{fn: fn}
}

// ExecuteEach is Execute for functions that always return exactly one document.
func ExecuteEach(fn func(doc core.Document) core.Document) *ExecuteModule {
	return Execute(func(_ *core.ExecutionContext, doc core.Document) ([]core.Document, error) {
		return []core.Document{fn(doc)}, nil
	})
}

// WithConcurrency returns a copy that processes up to n documents at once.
// Results are still emitted in input order. n < 1 means 1.
func (m *ExecuteModule) WithConcurrency(n int) *ExecuteModule {
	if n < 1 {
		n = 1
	}
	c := *m
	c.concurrency = n
	return &c
}

// Name implements core.Named.
func (m *ExecuteModule) Name() string { return "execute" }

// Validate implements core.Validator.
func (m *ExecuteModule) Validate() error {
	if m.fn == nil {
		return errNilFunc
	}
	return nil
}

// Execute implements core.Module.
func (m *ExecuteModule) Execute(ec *core.ExecutionContext, inputs []core.Document) ([]core.Document, error) {
	workers := m.workers(ec)
	if workers <= 1 || len(inputs) < 2 {
		var out []core.Document
		for _, doc := range inputs {
			res, err := m.fn(ec, doc)
			if err != nil {
				return nil, err
			}
			out = append(out, res...)
		}
		return out, nil
	}

	// Each worker writes only its own slot; flattening afterwards restores
	// input order.
	slots := make([][]core.Document, len(inputs))
	g, ctx := errgroup.WithContext(ec.Context())
	g.SetLimit(workers)
	for i, doc := range inputs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := m.fn(ec, doc)
			if err != nil {
				return err
			}
			slots[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []core.Document
	for _, res := range slots {
		out = append(out, res...)
	}
	return out, nil
}

func (m *ExecuteModule) workers(ec *core.ExecutionContext) int {
	if m.concurrency > 0 {
		return m.concurrency
	}
	if n, ok := ec.Settings().Get(core.ConcurrencyKey); ok {
		if n, ok := n.(int); ok {
			return n
		}
	}
	return 1
}

// BatchFunc transforms a whole collection at once.
type BatchFunc func(ec *core.ExecutionContext, inputs []core.Document) ([]core.Document, error)

// ExecuteBatch wraps fn as a named module that sees the whole collection.
func ExecuteBatch(fn BatchFunc) core.Module {
	return batchModule{fn: fn}
}

type batchModule struct {
	fn BatchFunc
}

func (m batchModule) Name() string { return "executeBatch" }

func (m batchModule) Validate() error {
	if m.fn == nil {
		return errNilFunc
	}
	return nil
}

func (m batchModule) Execute(ec *core.ExecutionContext, inputs []core.Document) ([]core.Document, error) {
	return m.fn(ec, inputs)
}

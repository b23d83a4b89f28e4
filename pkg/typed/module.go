package typed

import (
	"errors"

	"github.com/aretw0/tilth/pkg/core"
)

// Func edits a typed model in place. Returning false drops the document.
type Func[T any] func(ec *core.ExecutionContext, m *Model[T]) (keep bool, err error)

// Each returns a module that decodes every document into T, hands it to fn
// and re-encodes the result. Documents whose metadata does not fit T pass
// through unchanged with a warning; errors returned by fn abort the run.
func Each[T any](fn Func[T]) core.Module {
	return eachModule[T]{fn: fn}
}

type eachModule[T any] struct {
	fn Func[T]
}

func (eachModule[T]) Name() string { return "typed" }

func (m eachModule[T]) Validate() error {
	if m.fn == nil {
		return errors.New("function is nil")
	}
	return nil
}

func (m eachModule[T]) Execute(ec *core.ExecutionContext, inputs []core.Document) ([]core.Document, error) {
	out := make([]core.Document, 0, len(inputs))
	for _, doc := range inputs {
		model, err := Decode[T](doc)
		if err != nil {
			ec.Logger().Warn("metadata does not fit type, document passed through",
				"module", m.Name(),
				"document", doc.ID(),
				"source", doc.Source(),
				"error", err,
			)
			out = append(out, doc)
			continue
		}

		keep, err := m.fn(ec, model)
		if err != nil {
			return nil, err
		}
		if !keep {
			continue
		}

		next, err := model.Document()
		if err != nil {
			return nil, err
		}
		out = append(out, next)
	}
	return out, nil
}
